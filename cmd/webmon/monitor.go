package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"

	"webmon/internal/config"
	"webmon/internal/models"
	"webmon/internal/probe"
	"webmon/internal/registry"
	"webmon/internal/retry"
	"webmon/internal/rlimit"
	"webmon/internal/scheduler"
	"webmon/internal/server"
	"webmon/internal/store"
)

var (
	sitesCSV           string
	sitesTable         bool
	numberHealthchecks int
	limiterCapacity    int64
	statusAddr         string
)

func monitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run repeating healthchecks for the configured sites",
		RunE:  runMonitor,
	}
	cmd.Flags().StringVar(&sitesCSV, "sites-csv", "", "CSV file of host,interval[,pattern] rows to append to the store")
	cmd.Flags().BoolVar(&sitesTable, "sites-table", false, "monitor the site list already persisted in the store")
	cmd.Flags().IntVar(&numberHealthchecks, "number-healthchecks", 0, "checks per site; -1 for an infinite number (required)")
	cmd.Flags().Int64Var(&limiterCapacity, "limiter-capacity", probe.DefaultLimiterCapacity, "maximum simultaneous in-flight probes")
	cmd.Flags().StringVar(&statusAddr, "status-addr", "", "optional listen address for the read-only status API")
	return cmd
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	logger, err := setupLogger()
	if err != nil {
		return err
	}

	// All configuration problems are caught before any network or DB
	// activity.
	if dbConfigFile == "" {
		return errors.New("--db-config is required")
	}
	if sitesCSV == "" && !sitesTable {
		return errors.New("one of --sites-csv or --sites-table is required")
	}
	if numberHealthchecks == 0 || numberHealthchecks < scheduler.Infinite {
		return errors.New("--number-healthchecks must be at least 1, or -1 for an infinite number")
	}
	if limiterCapacity < 1 {
		return errors.New("--limiter-capacity must be at least 1")
	}

	cfg, err := config.Load(dbConfigFile)
	if err != nil {
		return err
	}

	var fileSites []models.Site
	if sitesCSV != "" {
		fileSites, err = registry.LoadFromFile(sitesCSV)
		if err != nil {
			return err
		}
		logger.Info("site list loaded", "file", sitesCSV, "sites", len(fileSites))
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

	st := store.New(driver, retry.DefaultConfig(), logger)
	sites, err := registry.New(st, logger).Reconcile(ctx, fileSites)
	if err != nil {
		return err
	}

	raiseFileLimit(logger, len(sites))

	sem := semaphore.NewWeighted(limiterCapacity)
	prober := probe.New(sem, probe.DefaultTimeout, logger)
	sched := scheduler.New(sites, prober, st, numberHealthchecks, logger)

	var httpServer *http.Server
	if statusAddr != "" {
		httpServer = &http.Server{
			Addr:    statusAddr,
			Handler: server.New(st, logger).Router(),
		}
		go func() {
			logger.Info("status api listening", "address", statusAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("status api", "error", err)
			}
		}()
	}

	logger.Info("monitoring started",
		"sites", len(sites),
		"checks_per_site", numberHealthchecks,
		"limiter_capacity", limiterCapacity,
	)

	runErr := sched.Run(ctx)

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("status api shutdown", "error", err)
		}
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	logger.Info("monitoring finished")
	return nil
}

// raiseFileLimit lifts the open-file limit to twice the site count so
// that many simultaneous connections do not exhaust OS handles. Failure
// is logged but not fatal.
func raiseFileLimit(logger *slog.Logger, sites int) {
	want := uint64(2 * sites)
	cur, err := rlimit.Raise(want)
	if err != nil {
		logger.Warn("raising open file limit failed", "wanted", want, "error", err)
		return
	}
	logger.Debug("open file limit", "current", cur, "wanted", want)
}

func dropTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop-tables",
		Short: "Drop the website and healthcheck tables",
		RunE:  runDropTables,
	}
}

func runDropTables(cmd *cobra.Command, _ []string) error {
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

	st := store.New(driver, retry.DefaultConfig(), logger)
	if err := st.DropTables(ctx); err != nil {
		return err
	}
	logger.Info("tables dropped")
	return nil
}
