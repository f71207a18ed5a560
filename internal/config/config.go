// Package config provides configuration for the compatibility oracle.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Config holds the oracle configuration.
type Config struct {
	// DataDir is the base directory for local databases and reports
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Writer is the engine that owns the shared table and runs setup
	Writer EngineConfig `json:"writer" yaml:"writer"`

	// Reader is the engine that verifies cross-engine visibility
	Reader EngineConfig `json:"reader" yaml:"reader"`

	// Runner configuration
	Runner RunnerConfig `json:"runner" yaml:"runner"`

	// Policies override the field identity policy per engine and format
	Policies []PolicyConfig `json:"policies" yaml:"policies"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Report configuration
	Report ReportConfig `json:"report" yaml:"report"`
}

// EngineConfig describes how to reach one engine.
type EngineConfig struct {
	// Dialect selects the adapter: trino or spark
	Dialect string `json:"dialect" yaml:"dialect"`

	// Driver is the database/sql driver name (sqlite3, duckdb, ...)
	Driver string `json:"driver" yaml:"driver"`

	// DSN is the driver data source name
	DSN string `json:"dsn" yaml:"dsn"`

	// Catalog is the catalog tables are qualified with
	Catalog string `json:"catalog" yaml:"catalog"`

	// PoolSize is the maximum number of open connections
	PoolSize int `json:"pool_size" yaml:"pool_size"`
}

// RunnerConfig holds scenario runner configuration.
type RunnerConfig struct {
	// Schema is the schema shared tables are created in
	Schema string `json:"schema" yaml:"schema"`

	// Concurrency is the number of scenarios run in parallel
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// ScenarioTimeout bounds one scenario, setup through assertions
	ScenarioTimeout time.Duration `json:"scenario_timeout" yaml:"scenario_timeout"`

	// TeardownTimeout bounds the drop of the shared table
	TeardownTimeout time.Duration `json:"teardown_timeout" yaml:"teardown_timeout"`

	// Formats restricts format-parameterized scenarios; empty means all
	Formats []string `json:"formats" yaml:"formats"`

	// Filter selects scenarios whose name contains it
	Filter string `json:"filter" yaml:"filter"`

	// HistoryPath is the SQLite file schema versions are recorded in;
	// "off" disables the history
	HistoryPath string `json:"history_path" yaml:"history_path"`
}

// PolicyConfig binds an identity policy to an (engine, format) pair.
type PolicyConfig struct {
	Engine string `json:"engine" yaml:"engine"`
	Format string `json:"format" yaml:"format"`

	// Policy is field_id or name
	Policy string `json:"policy" yaml:"policy"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	// Level is DEBUG, INFO, WARN or ERROR
	Level string `json:"level" yaml:"level"`

	// Format is CONSOLE or JSON
	Format string `json:"format" yaml:"format"`
}

// ReportConfig holds run report configuration.
type ReportConfig struct {
	// Enabled controls whether a report is written after a run
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Storage is where reports are written
	Storage StorageConfig `json:"storage" yaml:"storage"`
}

// StorageConfig holds storage configuration.
type StorageConfig struct {
	// Type is the storage type: local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local storage path (for local type)
	Path string `json:"path" yaml:"path"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Prefix is prepended to every report key
	Prefix string `json:"prefix" yaml:"prefix"`
}

// DefaultConfig returns the default configuration for local runs.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data/enginecompat",
		Writer: EngineConfig{
			Dialect:  "spark",
			Driver:   "sqlite3",
			Catalog:  "iceberg_test",
			PoolSize: 4,
		},
		Reader: EngineConfig{
			Dialect:  "trino",
			Driver:   "sqlite3",
			Catalog:  "iceberg",
			PoolSize: 4,
		},
		Runner: RunnerConfig{
			Schema:          "default",
			Concurrency:     4,
			ScenarioTimeout: 2 * time.Minute,
			TeardownTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "CONSOLE",
		},
		Report: ReportConfig{
			Enabled: true,
			Storage: StorageConfig{
				Type: "local",
			},
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/enginecompat"
	}

	if c.Runner.HistoryPath == "" {
		c.Runner.HistoryPath = filepath.Join(c.DataDir, "history.db")
	}

	// Resolve report path
	if c.Report.Storage.Path == "" {
		c.Report.Storage.Path = filepath.Join(c.DataDir, "reports")
	}

	// Both engines share one file by default so that they see the same table
	shared := filepath.Join(c.DataDir, "shared.db")
	if c.Writer.DSN == "" && c.Writer.Driver == "sqlite3" {
		c.Writer.DSN = shared
	}
	if c.Reader.DSN == "" && c.Reader.Driver == "sqlite3" {
		c.Reader.DSN = shared
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	for name, e := range map[string]EngineConfig{"writer": c.Writer, "reader": c.Reader} {
		if e.Dialect != "trino" && e.Dialect != "spark" {
			return fmt.Errorf("invalid %s dialect: %s (must be trino or spark)", name, e.Dialect)
		}
		if e.Driver == "" {
			return fmt.Errorf("%s.driver is required", name)
		}
		if e.PoolSize < 1 {
			return fmt.Errorf("%s.pool_size must be positive, got %d", name, e.PoolSize)
		}
	}
	if c.Writer.Dialect == c.Reader.Dialect {
		return fmt.Errorf("writer and reader must use different dialects, both are %s", c.Writer.Dialect)
	}

	if c.Runner.Concurrency < 1 {
		return fmt.Errorf("runner.concurrency must be positive, got %d", c.Runner.Concurrency)
	}
	if c.Runner.ScenarioTimeout <= 0 {
		return fmt.Errorf("runner.scenario_timeout must be positive")
	}
	if c.Runner.TeardownTimeout <= 0 {
		return fmt.Errorf("runner.teardown_timeout must be positive")
	}

	for i, p := range c.Policies {
		if p.Policy != "field_id" && p.Policy != "name" {
			return fmt.Errorf("policies[%d]: invalid policy %q (must be field_id or name)", i, p.Policy)
		}
		if p.Engine == "" || p.Format == "" {
			return fmt.Errorf("policies[%d]: engine and format are required", i)
		}
	}

	if c.Report.Storage.Type != "local" && c.Report.Storage.Type != "s3" {
		return fmt.Errorf("invalid storage type: %s (must be local or s3)", c.Report.Storage.Type)
	}

	if c.Report.Storage.Type == "s3" && c.Report.Storage.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when storage type is s3")
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the ENGINECOMPAT_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("ENGINECOMPAT_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// Engine configuration
	loadEngineFromEnv("ENGINECOMPAT_WRITER_", &cfg.Writer)
	loadEngineFromEnv("ENGINECOMPAT_READER_", &cfg.Reader)

	// Runner configuration
	if v := os.Getenv("ENGINECOMPAT_SCHEMA"); v != "" {
		cfg.Runner.Schema = v
	}
	if v := os.Getenv("ENGINECOMPAT_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Runner.Concurrency = n
		}
	}
	if v := os.Getenv("ENGINECOMPAT_SCENARIO_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Runner.ScenarioTimeout = d
		}
	}
	if v := os.Getenv("ENGINECOMPAT_TEARDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Runner.TeardownTimeout = d
		}
	}
	if v := os.Getenv("ENGINECOMPAT_FORMATS"); v != "" {
		cfg.Runner.Formats = strings.Split(v, ",")
	}
	if v := os.Getenv("ENGINECOMPAT_FILTER"); v != "" {
		cfg.Runner.Filter = v
	}
	if v := os.Getenv("ENGINECOMPAT_HISTORY_PATH"); v != "" {
		cfg.Runner.HistoryPath = v
	}

	// Logging configuration
	if v := os.Getenv("ENGINECOMPAT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ENGINECOMPAT_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Report configuration
	if v := os.Getenv("ENGINECOMPAT_REPORT_ENABLED"); v != "" {
		cfg.Report.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("ENGINECOMPAT_STORAGE_TYPE"); v != "" {
		cfg.Report.Storage.Type = v
	}
	if v := os.Getenv("ENGINECOMPAT_STORAGE_PATH"); v != "" {
		cfg.Report.Storage.Path = v
	}
	if v := os.Getenv("ENGINECOMPAT_S3_BUCKET"); v != "" {
		cfg.Report.Storage.S3.Bucket = v
	}
	if v := os.Getenv("ENGINECOMPAT_S3_REGION"); v != "" {
		cfg.Report.Storage.S3.Region = v
	}
	if v := os.Getenv("ENGINECOMPAT_S3_ENDPOINT"); v != "" {
		cfg.Report.Storage.S3.Endpoint = v
	}
	if v := os.Getenv("ENGINECOMPAT_S3_PREFIX"); v != "" {
		cfg.Report.Storage.S3.Prefix = v
	}
}

func loadEngineFromEnv(prefix string, e *EngineConfig) {
	if v := os.Getenv(prefix + "DIALECT"); v != "" {
		e.Dialect = v
	}
	if v := os.Getenv(prefix + "DRIVER"); v != "" {
		e.Driver = v
	}
	if v := os.Getenv(prefix + "DSN"); v != "" {
		e.DSN = v
	}
	if v := os.Getenv(prefix + "CATALOG"); v != "" {
		e.Catalog = v
	}
	if v := os.Getenv(prefix + "POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			e.PoolSize = n
		}
	}
}

// HistoryEnabled reports whether schema versions are recorded.
func (c *Config) HistoryEnabled() bool {
	return c.Runner.HistoryPath != "" && c.Runner.HistoryPath != "off"
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.DataDir}
	if c.Report.Storage.Type == "local" {
		dirs = append(dirs, c.Report.Storage.Path)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
