package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/adforge/backend/internal/db"
	"github.com/adforge/backend/internal/events"
	"github.com/adforge/backend/internal/models"
	"github.com/adforge/backend/internal/repositories"
	"github.com/adforge/backend/internal/services"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	importOwner      string
	importVisibility string
	importJSON       bool
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import templates from a CSV or XLSX file",
	Long: `Import templates row by row. Without --owner the templates are system
templates, visible to everyone. Rows that fail validation or already exist
are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importOwner, "owner", "", "import on behalf of this user id")
	importCmd.Flags().StringVar(&importVisibility, "visibility", string(models.VisibilityPrivate), "visibility for user-owned imports (PUBLIC or PRIVATE)")
	importCmd.Flags().BoolVar(&importJSON, "json", false, "print the result as JSON")
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]

	owner, err := importOwnership(importOwner, importVisibility)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	var publisher events.Publisher = events.NopPublisher{}
	if rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log); err != nil {
		log.Warn("redis unavailable, events will not be published", zap.Error(err))
	} else {
		defer rdb.Close()
		publisher = events.NewRedisPublisher(rdb, log)
	}

	svc := services.NewTemplateService(
		repositories.NewTemplateRepo(pool),
		repositories.NewTaskRepo(pool),
		repositories.NewAuditRepo(pool),
		publisher,
		nil,
		cfg.ImportMaxRows,
		log,
	)

	result, err := svc.ImportFile(ctx, filepath.Base(path), f, owner)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if importJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printImportResult(out, result)
	return nil
}

func importOwnership(owner, visibility string) (models.Ownership, error) {
	if owner == "" {
		return models.SystemOwnership(), nil
	}
	id, err := uuid.Parse(owner)
	if err != nil {
		return models.Ownership{}, fmt.Errorf("invalid --owner: %w", err)
	}
	v, err := models.ParseVisibility(strings.ToUpper(strings.TrimSpace(visibility)))
	if err != nil {
		return models.Ownership{}, fmt.Errorf("invalid --visibility: %w", err)
	}
	return models.UserOwnership(id, v)
}

func printImportResult(out io.Writer, result *services.ImportResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROW\tSTATUS\tNAME\tDETAIL")
	for _, o := range result.Outcomes {
		detail := o.Reason
		if o.TemplateID != nil {
			detail = o.TemplateID.String()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", o.Row, o.Status, o.Name, detail)
	}
	w.Flush()

	fmt.Fprintf(out, "\nCreated: %d  Duplicates: %d  Invalid: %d  Failed: %d\n",
		result.Created, result.Duplicates, result.Invalid, result.Failed)
}
