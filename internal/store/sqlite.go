package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// sqliteDriver runs against a local SQLite file (or :memory:).
type sqliteDriver struct {
	path string
	db   *sql.DB
}

func newSQLiteDriver(path string) *sqliteDriver {
	return &sqliteDriver{path: path}
}

func (d *sqliteDriver) Open(ctx context.Context) error {
	db, err := sql.Open("sqlite", d.path)
	if err != nil {
		return fmt.Errorf("opening sqlite at %q: %w", d.path, err)
	}
	// A single connection serializes writers and keeps :memory:
	// databases on one handle.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return fmt.Errorf("applying pragma %q: %w", p, err)
		}
	}

	d.db = db
	return nil
}

func (d *sqliteDriver) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *sqliteDriver) Dialect() Dialect { return DialectSQLite }

func (d *sqliteDriver) Fetch(ctx context.Context, query string) ([]Row, error) {
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *sqliteDriver) Execute(ctx context.Context, query string) error {
	_, err := d.db.ExecContext(ctx, query)
	return err
}

func (d *sqliteDriver) ExecuteMany(ctx context.Context, query string, rows [][]any) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, args := range rows {
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
