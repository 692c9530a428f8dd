// Package registry loads monitored site definitions and reconciles them
// with the persisted store.
package registry

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"webmon/internal/models"
	"webmon/internal/store"
	"webmon/internal/urlutil"
)

// ErrNoSites is returned by Reconcile when the store holds no sites after
// any supplied definitions were persisted. Starting a monitor run with
// nothing to monitor is a configuration error.
var ErrNoSites = errors.New("no sites to monitor")

// LoadFromFile parses a comma-delimited file of "host,interval[,pattern]"
// rows into sites with the not-persisted ID. A first line containing the
// literal tokens "host" and "interval" is treated as a header and
// skipped; blank lines are ignored.
func LoadFromFile(path string) ([]models.Site, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening site list: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing site list %s: %w", path, err)
	}

	var sites []models.Site
	for i, row := range rows {
		if i == 0 && isHeader(row) {
			continue
		}
		site, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("site list %s line %d: %w", path, i+1, err)
		}
		sites = append(sites, site)
	}
	return sites, nil
}

func isHeader(row []string) bool {
	joined := strings.ToLower(strings.Join(row, ","))
	return strings.Contains(joined, "host") && strings.Contains(joined, "interval")
}

func parseRow(row []string) (models.Site, error) {
	if len(row) < 2 {
		return models.Site{}, fmt.Errorf("expected host,interval[,pattern], got %d columns", len(row))
	}

	// Naked-domain expansion stays off for file-sourced definitions;
	// the row is taken as written.
	url, err := urlutil.Normalize(strings.TrimSpace(row[0]), true)
	if err != nil {
		return models.Site{}, err
	}

	interval, err := strconv.Atoi(strings.TrimSpace(row[1]))
	if err != nil {
		return models.Site{}, fmt.Errorf("invalid interval %q: %w", row[1], err)
	}
	if interval < 0 {
		return models.Site{}, fmt.Errorf("interval must not be negative, got %d", interval)
	}

	regex := ""
	if len(row) >= 3 {
		regex = row[2]
	}

	return models.Site{
		ID:              models.NotPersisted,
		URL:             url,
		IntervalSeconds: interval,
		Regex:           regex,
	}, nil
}

// Registry reconciles site definitions with the persisted store.
type Registry struct {
	store  *store.Store
	logger *slog.Logger
}

// New creates a Registry. Pass nil logger to use the default.
func New(st *store.Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{store: st, logger: logger}
}

// Reconcile ensures both tables exist, persists the supplied sites
// (skipping URLs already registered), and returns the authoritative list
// from the store, every site carrying its store-assigned ID. It returns
// ErrNoSites when the store ends up empty.
func (r *Registry) Reconcile(ctx context.Context, sites []models.Site) ([]models.Site, error) {
	if err := r.store.EnsureTables(ctx); err != nil {
		return nil, err
	}
	if len(sites) > 0 {
		if err := r.store.InsertSites(ctx, sites); err != nil {
			return nil, err
		}
		r.logger.Debug("site definitions persisted", "count", len(sites))
	}

	all, err := r.store.Sites(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, ErrNoSites
	}
	r.logger.Info("site registry loaded", "sites", len(all))
	return all, nil
}
