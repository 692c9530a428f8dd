package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"webmon/internal/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "db.json", `{
		"db_type": "postgresql",
		"db_user": "webmon",
		"db_pass": "secret",
		"db_name": "webmon",
		"db_host": "db.example.com",
		"db_port": 5433,
		"db_ssl": "require"
	}`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Type != config.EnginePostgres {
		t.Errorf("expected type postgresql, got %q", cfg.Type)
	}
	if cfg.Host != "db.example.com" || cfg.Port != 5433 {
		t.Errorf("unexpected host/port: %s:%d", cfg.Host, cfg.Port)
	}
	if cfg.SSLMode != "require" {
		t.Errorf("expected ssl mode require, got %q", cfg.SSLMode)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "db.yml", `
db_type: sqlite
db_name: webmon.db
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Type != config.EngineSQLite {
		t.Errorf("expected type sqlite, got %q", cfg.Type)
	}
	if cfg.Name != "webmon.db" {
		t.Errorf("expected name webmon.db, got %q", cfg.Name)
	}
}

func TestLoad_PostgresDefaults(t *testing.T) {
	path := writeFile(t, "db.json", `{
		"db_type": "postgresql",
		"db_user": "u",
		"db_name": "n",
		"db_host": "localhost"
	}`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 5432 {
		t.Errorf("expected default port 5432, got %d", cfg.Port)
	}
	if cfg.SSLMode != "disable" {
		t.Errorf("expected default ssl mode disable, got %q", cfg.SSLMode)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"invalid json", "db.json", `{not json`},
		{"missing type", "db.json", `{}`},
		{"unknown type", "db.json", `{"db_type": "oracle"}`},
		{"postgres without host", "db.json", `{"db_type": "postgresql", "db_user": "u", "db_name": "n"}`},
		{"sqlite without name", "db.json", `{"db_type": "sqlite"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			if _, err := config.Load(path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
