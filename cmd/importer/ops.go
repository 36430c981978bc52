package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adforge/backend/internal/db"
	"github.com/adforge/backend/internal/events"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
		if err != nil {
			return err
		}
		defer pool.Close()
		return db.RunMigrations(ctx, pool, cfg.MigrationsDir, log)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print template events as they are published",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			return err
		}
		defer rdb.Close()

		out := cmd.OutOrStdout()
		sub := events.NewRedisSubscriber(rdb, log)
		err = sub.Subscribe(ctx, events.StreamTemplates, func(e events.Event) {
			fmt.Fprintf(out, "%s  %-20s %v\n", e.At.Local().Format(time.RFC3339), e.Type, e.Payload)
		})
		if err != nil {
			return err
		}

		<-ctx.Done()
		return nil
	},
}
