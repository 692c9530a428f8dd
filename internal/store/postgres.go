package store

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"webmon/internal/config"
)

// postgresDriver runs against a PostgreSQL server through a pgx pool.
type postgresDriver struct {
	cfg  *config.DB
	pool *pgxpool.Pool
}

func newPostgresDriver(cfg *config.DB) *postgresDriver {
	return &postgresDriver{cfg: cfg}
}

func (d *postgresDriver) connString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.cfg.User, d.cfg.Password),
		Host:   fmt.Sprintf("%s:%d", d.cfg.Host, d.cfg.Port),
		Path:   "/" + d.cfg.Name,
	}
	q := url.Values{}
	q.Set("sslmode", d.cfg.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

func (d *postgresDriver) Open(ctx context.Context) error {
	pool, err := pgxpool.New(ctx, d.connString())
	if err != nil {
		return fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("pinging database: %w", err)
	}
	d.pool = pool
	return nil
}

func (d *postgresDriver) Close() error {
	if d.pool != nil {
		d.pool.Close()
	}
	return nil
}

func (d *postgresDriver) Dialect() Dialect { return DialectPostgres }

func (d *postgresDriver) Fetch(ctx context.Context, query string) ([]Row, error) {
	rows, err := d.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []Row
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(Row, len(fields))
		for i, f := range fields {
			row[f.Name] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *postgresDriver) Execute(ctx context.Context, query string) error {
	_, err := d.pool.Exec(ctx, query)
	return err
}

func (d *postgresDriver) ExecuteMany(ctx context.Context, query string, rows [][]any) error {
	batch := &pgx.Batch{}
	for _, args := range rows {
		batch.Queue(query, args...)
	}
	return d.pool.SendBatch(ctx, batch).Close()
}
