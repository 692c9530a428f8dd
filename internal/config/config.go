package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Supported database engines.
const (
	EnginePostgres = "postgresql"
	EngineSQLite   = "sqlite"
)

// DB holds the connection parameters for the result store. Loaded from a
// JSON or YAML file supplied with --db-config.
type DB struct {
	Type     string `json:"db_type" yaml:"db_type"`
	User     string `json:"db_user" yaml:"db_user"`
	Password string `json:"db_pass" yaml:"db_pass"`
	Name     string `json:"db_name" yaml:"db_name"`
	Host     string `json:"db_host" yaml:"db_host"`
	Port     int    `json:"db_port" yaml:"db_port"`
	SSLMode  string `json:"db_ssl" yaml:"db_ssl"`
}

// Load reads, parses, and validates the DB config file at path. Files
// ending in .yml or .yaml are parsed as YAML, everything else as JSON.
func Load(path string) (*DB, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading db config: %w", err)
	}

	var cfg DB
	switch filepath.Ext(path) {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing db config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing db config: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *DB) validate() error {
	switch c.Type {
	case EnginePostgres:
		if c.User == "" {
			return fmt.Errorf("db config: db_user is required for %s", c.Type)
		}
		if c.Name == "" {
			return fmt.Errorf("db config: db_name is required for %s", c.Type)
		}
		if c.Host == "" {
			return fmt.Errorf("db config: db_host is required for %s", c.Type)
		}
		if c.Port == 0 {
			c.Port = 5432
		}
		if c.SSLMode == "" {
			c.SSLMode = "disable"
		}
	case EngineSQLite:
		if c.Name == "" {
			return fmt.Errorf("db config: db_name is required for %s", c.Type)
		}
	case "":
		return fmt.Errorf("db config: db_type is required")
	default:
		return fmt.Errorf("db config: unsupported db_type %q (must be %s or %s)", c.Type, EnginePostgres, EngineSQLite)
	}
	return nil
}
