package main

import (
	"fmt"
	"time"

	"github.com/adforge/backend/internal/auth"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	tokenUser string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for a user (development only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := uuid.Parse(tokenUser)
		if err != nil {
			return fmt.Errorf("invalid --user: %w", err)
		}
		ttl := tokenTTL
		if ttl <= 0 {
			ttl = cfg.JWTExpiration
		}
		token, err := auth.GenerateJWT(cfg.JWTSecret, userID, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user id to put in the token")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default JWT_EXPIRATION_HOURS)")
	_ = tokenCmd.MarkFlagRequired("user")
}
