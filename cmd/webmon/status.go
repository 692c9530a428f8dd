package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"webmon/internal/config"
	"webmon/internal/models"
	"webmon/internal/retry"
	"webmon/internal/store"
)

type statusStore interface {
	Sites(ctx context.Context) ([]models.Site, error)
	Healthchecks(ctx context.Context) ([]models.Healthcheck, error)
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the latest healthcheck per site from the database",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	logger, err := setupLogger()
	if err != nil {
		return err
	}
	if dbConfigFile == "" {
		return errors.New("--db-config is required")
	}

	cfg, err := config.Load(dbConfigFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	driver, err := store.NewDriver(cfg)
	if err != nil {
		return err
	}
	if err := driver.Open(ctx); err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer driver.Close()

	return executeStatus(ctx, cmd, store.New(driver, retry.DefaultConfig(), logger))
}

func executeStatus(ctx context.Context, cmd *cobra.Command, db statusStore) error {
	out := cmd.OutOrStdout()

	sites, err := db.Sites(ctx)
	if err != nil {
		return fmt.Errorf("querying sites: %w", err)
	}
	if len(sites) == 0 {
		fmt.Fprintln(out, "No sites registered. Run 'webmon monitor --sites-csv <file>' first.")
		return nil
	}

	checks, err := db.Healthchecks(ctx)
	if err != nil {
		return fmt.Errorf("querying healthchecks: %w", err)
	}

	// Checks come back in insertion order; keep the last one per site.
	latest := make(map[int64]models.Healthcheck, len(sites))
	for _, c := range checks {
		latest[c.WebsiteID] = c
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "URL\tSTATUS\tRESPONSE\tMATCH\tLAST CHECKED\tERROR")
	for _, site := range sites {
		c, ok := latest[site.ID]
		if !ok {
			fmt.Fprintf(w, "%s\t—\t—\t—\t—\t\n", site.URL)
			continue
		}
		checked := time.Unix(0, int64(c.RequestTimestamp*float64(time.Second)))
		fmt.Fprintf(w, "%s\t%d\t%.3fs\t%s\t%s\t%s\n",
			site.URL,
			c.HTTPStatusCode,
			c.ResponseTime,
			c.MatchStatus,
			checked.Local().Format("2006-01-02 15:04:05"),
			c.ErrorMessage,
		)
	}
	w.Flush()
	return nil
}
