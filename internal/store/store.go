package store

import (
	"context"
	"log/slog"

	"webmon/internal/models"
	"webmon/internal/retry"
)

// Store is the result sink. Every operation goes through the configured
// retry policy and is safe for concurrent use from many site loops; the
// driver's pool handles connection sharing.
type Store struct {
	driver Driver
	retry  retry.Config
	logger *slog.Logger
}

// New creates a Store over an opened driver. Pass nil logger to use the
// default.
func New(driver Driver, retryCfg retry.Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{driver: driver, retry: retryCfg, logger: logger}
}

// CreateTableIfMissing ensures table exists with the given shape.
func (s *Store) CreateTableIfMissing(ctx context.Context, table string, schema Schema) error {
	query := CreateTableSQL(s.driver.Dialect(), table, schema)
	return s.execute(ctx, "create table "+table, query)
}

// DropTableIfExists removes table and its contents.
func (s *Store) DropTableIfExists(ctx context.Context, table string) error {
	return s.execute(ctx, "drop table "+table, DropTableSQL(table))
}

// InsertMany inserts the value sets into table. Value order must match
// schema.InsertColumns(); conflicts on the schema's unique column are
// silently skipped.
func (s *Store) InsertMany(ctx context.Context, table string, schema Schema, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	query := InsertManySQL(s.driver.Dialect(), table, schema)
	_, err := retry.Do(ctx, s.retry, s.logger, func(ctx context.Context) (struct{}, error) {
		if err := s.driver.ExecuteMany(ctx, query, rows); err != nil {
			return struct{}{}, &StorageError{Op: "insert into " + table, Err: err}
		}
		return struct{}{}, nil
	})
	if err == nil {
		s.logger.Debug("insert completed", "table", table, "rows", len(rows))
	}
	return err
}

// FetchAll returns every row of table in primary-key order.
func (s *Store) FetchAll(ctx context.Context, table string, schema Schema) ([]Row, error) {
	query := SelectAllSQL(table, schema)
	return retry.Do(ctx, s.retry, s.logger, func(ctx context.Context) ([]Row, error) {
		rows, err := s.driver.Fetch(ctx, query)
		if err != nil {
			return nil, &StorageError{Op: "fetch from " + table, Err: err}
		}
		return rows, nil
	})
}

func (s *Store) execute(ctx context.Context, op, query string) error {
	_, err := retry.Do(ctx, s.retry, s.logger, func(ctx context.Context) (struct{}, error) {
		if err := s.driver.Execute(ctx, query); err != nil {
			return struct{}{}, &StorageError{Op: op, Err: err}
		}
		return struct{}{}, nil
	})
	return err
}

// EnsureTables creates the website and healthcheck tables if missing.
func (s *Store) EnsureTables(ctx context.Context) error {
	if err := s.CreateTableIfMissing(ctx, TableWebsite, SiteSchema()); err != nil {
		return err
	}
	return s.CreateTableIfMissing(ctx, TableHealthcheck, HealthcheckSchema())
}

// DropTables removes both tables.
func (s *Store) DropTables(ctx context.Context) error {
	if err := s.DropTableIfExists(ctx, TableHealthcheck); err != nil {
		return err
	}
	return s.DropTableIfExists(ctx, TableWebsite)
}

// InsertSites bulk-inserts sites, skipping URLs already present.
func (s *Store) InsertSites(ctx context.Context, sites []models.Site) error {
	rows := make([][]any, len(sites))
	for i, site := range sites {
		rows[i] = siteValues(site)
	}
	return s.InsertMany(ctx, TableWebsite, SiteSchema(), rows)
}

// Sites returns every persisted site with its store-assigned ID.
func (s *Store) Sites(ctx context.Context) ([]models.Site, error) {
	rows, err := s.FetchAll(ctx, TableWebsite, SiteSchema())
	if err != nil {
		return nil, err
	}
	sites := make([]models.Site, 0, len(rows))
	for _, r := range rows {
		site, err := siteFromRow(r)
		if err != nil {
			return nil, &StorageError{Op: "decode " + TableWebsite, Err: err}
		}
		sites = append(sites, site)
	}
	return sites, nil
}

// InsertHealthchecks appends probe results.
func (s *Store) InsertHealthchecks(ctx context.Context, checks []models.Healthcheck) error {
	rows := make([][]any, len(checks))
	for i, check := range checks {
		rows[i] = healthcheckValues(check)
	}
	return s.InsertMany(ctx, TableHealthcheck, HealthcheckSchema(), rows)
}

// Healthchecks returns every persisted probe result.
func (s *Store) Healthchecks(ctx context.Context) ([]models.Healthcheck, error) {
	rows, err := s.FetchAll(ctx, TableHealthcheck, HealthcheckSchema())
	if err != nil {
		return nil, err
	}
	checks := make([]models.Healthcheck, 0, len(rows))
	for _, r := range rows {
		check, err := healthcheckFromRow(r)
		if err != nil {
			return nil, &StorageError{Op: "decode " + TableHealthcheck, Err: err}
		}
		checks = append(checks, check)
	}
	return checks, nil
}
