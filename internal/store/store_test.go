package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"webmon/internal/config"
	"webmon/internal/models"
	"webmon/internal/retry"
	"webmon/internal/store"
)

func fastRetry() retry.Config {
	return retry.Config{Tries: 3, Delay: time.Millisecond, Backoff: 1}
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	driver, err := store.NewDriver(&config.DB{Type: config.EngineSQLite, Name: ":memory:"})
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	if err := driver.Open(context.Background()); err != nil {
		t.Fatalf("opening driver: %v", err)
	}
	t.Cleanup(func() { driver.Close() })

	st := store.New(driver, fastRetry(), nil)
	if err := st.EnsureTables(context.Background()); err != nil {
		t.Fatalf("EnsureTables: %v", err)
	}
	return st
}

func TestInsertSites_AssignsIDs(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	sites := []models.Site{
		{ID: models.NotPersisted, URL: "https://foo.com:443", IntervalSeconds: 5, Regex: ""},
		{ID: models.NotPersisted, URL: "https://bar.com:443", IntervalSeconds: 10, Regex: "neo"},
	}
	if err := st.InsertSites(ctx, sites); err != nil {
		t.Fatalf("InsertSites: %v", err)
	}

	got, err := st.Sites(ctx)
	if err != nil {
		t.Fatalf("Sites: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 sites, got %d", len(got))
	}
	for _, s := range got {
		if s.ID == models.NotPersisted {
			t.Errorf("site %q still carries the not-persisted ID", s.URL)
		}
	}
}

func TestInsertSites_IdempotentByURL(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	site := models.Site{ID: models.NotPersisted, URL: "https://foo.com:443", IntervalSeconds: 5}
	for i := 0; i < 3; i++ {
		if err := st.InsertSites(ctx, []models.Site{site}); err != nil {
			t.Fatalf("InsertSites run %d: %v", i, err)
		}
	}

	got, err := st.Sites(ctx)
	if err != nil {
		t.Fatalf("Sites: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 site after re-registering the same URL, got %d", len(got))
	}
}

func TestSiteRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	orig := models.Site{ID: models.NotPersisted, URL: "https://matrix.bar:443", IntervalSeconds: 10, Regex: "neo"}
	if err := st.InsertSites(ctx, []models.Site{orig}); err != nil {
		t.Fatalf("InsertSites: %v", err)
	}

	got, err := st.Sites(ctx)
	if err != nil {
		t.Fatalf("Sites: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 site, got %d", len(got))
	}
	s := got[0]
	if s.ID == models.NotPersisted {
		t.Error("expected store-assigned ID")
	}
	if s.URL != orig.URL || s.IntervalSeconds != orig.IntervalSeconds || s.Regex != orig.Regex {
		t.Errorf("round trip mismatch: got %+v, want %+v (ignoring ID)", s, orig)
	}
}

func TestInsertHealthchecks_ForeignKeyResolves(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.InsertSites(ctx, []models.Site{{ID: models.NotPersisted, URL: "https://foo.com:443"}}); err != nil {
		t.Fatal(err)
	}
	sites, err := st.Sites(ctx)
	if err != nil {
		t.Fatal(err)
	}

	check := models.Healthcheck{
		ID:               models.NotPersisted,
		WebsiteID:        sites[0].ID,
		RequestTimestamp: 1718055080.051,
		ResponseTime:     0.123,
		HTTPStatusCode:   200,
		MatchStatus:      models.MatchStatusNA,
	}
	if err := st.InsertHealthchecks(ctx, []models.Healthcheck{check}); err != nil {
		t.Fatalf("InsertHealthchecks: %v", err)
	}

	checks, err := st.Healthchecks(ctx)
	if err != nil {
		t.Fatalf("Healthchecks: %v", err)
	}
	if len(checks) != 1 {
		t.Fatalf("expected 1 check, got %d", len(checks))
	}
	ids := make(map[int64]bool, len(sites))
	for _, s := range sites {
		ids[s.ID] = true
	}
	for _, c := range checks {
		if !ids[c.WebsiteID] {
			t.Errorf("check %d references unknown site %d", c.ID, c.WebsiteID)
		}
		if c.HTTPStatusCode != 200 || c.MatchStatus != models.MatchStatusNA {
			t.Errorf("unexpected round trip: %+v", c)
		}
		if c.RequestTimestamp != 1718055080.051 || c.ResponseTime != 0.123 {
			t.Errorf("timestamp fields did not round trip: %+v", c)
		}
	}
}

func TestDropTables(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.InsertSites(ctx, []models.Site{{ID: models.NotPersisted, URL: "https://foo.com:443"}}); err != nil {
		t.Fatal(err)
	}
	if err := st.DropTables(ctx); err != nil {
		t.Fatalf("DropTables: %v", err)
	}
	// Dropping again is a no-op thanks to IF EXISTS.
	if err := st.DropTables(ctx); err != nil {
		t.Fatalf("second DropTables: %v", err)
	}

	if _, err := st.Sites(ctx); err == nil {
		t.Error("expected fetch from dropped table to fail")
	}
}

func TestFetch_FromDroppedTableIsStorageError(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.DropTables(ctx); err != nil {
		t.Fatal(err)
	}
	_, err := st.Sites(ctx)
	if err == nil {
		t.Fatal("expected error")
	}
	var exhausted *retry.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Errorf("expected retries to be exhausted, got %T: %v", err, err)
	}
	var storageErr *store.StorageError
	if !errors.As(err, &storageErr) {
		t.Errorf("expected a wrapped StorageError, got %T: %v", err, err)
	}
}

func TestStore_ConcurrentInserts(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.InsertSites(ctx, []models.Site{{ID: models.NotPersisted, URL: "https://foo.com:443"}}); err != nil {
		t.Fatal(err)
	}
	sites, err := st.Sites(ctx)
	if err != nil {
		t.Fatal(err)
	}

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			check := models.Healthcheck{
				ID:             models.NotPersisted,
				WebsiteID:      sites[0].ID,
				HTTPStatusCode: 200 + i,
				MatchStatus:    models.MatchStatusNA,
			}
			if err := st.InsertHealthchecks(ctx, []models.Healthcheck{check}); err != nil {
				t.Errorf("concurrent insert: %v", err)
			}
		}(i)
	}
	wg.Wait()

	checks, err := st.Healthchecks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(checks) != n {
		t.Errorf("expected %d checks, got %d", n, len(checks))
	}
}
