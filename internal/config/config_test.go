package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Writer.DSN == "" || cfg.Writer.DSN != cfg.Reader.DSN {
		t.Errorf("sqlite engines should share one database, got %q and %q", cfg.Writer.DSN, cfg.Reader.DSN)
	}
	if cfg.Report.Storage.Path != filepath.Join(cfg.DataDir, "reports") {
		t.Errorf("report path = %q", cfg.Report.Storage.Path)
	}
	if !cfg.HistoryEnabled() || cfg.Runner.HistoryPath != filepath.Join(cfg.DataDir, "history.db") {
		t.Errorf("history path = %q", cfg.Runner.HistoryPath)
	}
}

func TestHistoryEnabled_Off(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Runner.HistoryPath = "off"
	cfg.Resolve()
	if cfg.HistoryEnabled() {
		t.Error("history should be disabled")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown dialect", func(c *Config) { c.Writer.Dialect = "hive" }},
		{"same dialects", func(c *Config) { c.Reader.Dialect = "spark" }},
		{"missing driver", func(c *Config) { c.Reader.Driver = "" }},
		{"zero concurrency", func(c *Config) { c.Runner.Concurrency = 0 }},
		{"zero timeout", func(c *Config) { c.Runner.ScenarioTimeout = 0 }},
		{"bad policy", func(c *Config) {
			c.Policies = []PolicyConfig{{Engine: "trino", Format: "PARQUET", Policy: "position"}}
		}},
		{"s3 without bucket", func(c *Config) { c.Report.Storage.Type = "s3" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Resolve()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadFromFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enginecompat.yaml")
	content := `
data_dir: /tmp/compat
writer:
  dialect: trino
  driver: duckdb
  catalog: iceberg
  pool_size: 2
reader:
  dialect: spark
  driver: duckdb
  catalog: iceberg_test
  pool_size: 2
runner:
  concurrency: 8
  scenario_timeout: 45s
policies:
  - engine: trino
    format: PARQUET
    policy: name
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Writer.Dialect != "trino" || cfg.Reader.Driver != "duckdb" {
		t.Errorf("engines not loaded: %+v / %+v", cfg.Writer, cfg.Reader)
	}
	if cfg.Runner.Concurrency != 8 || cfg.Runner.ScenarioTimeout != 45*time.Second {
		t.Errorf("runner = %+v", cfg.Runner)
	}
	// Unset keys keep their defaults
	if cfg.Runner.TeardownTimeout != 30*time.Second {
		t.Errorf("teardown timeout = %v", cfg.Runner.TeardownTimeout)
	}
	if len(cfg.Policies) != 1 || cfg.Policies[0].Policy != "name" {
		t.Errorf("policies = %+v", cfg.Policies)
	}
}

func TestLoadFromFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enginecompat.json")
	content := `{"data_dir": "/tmp/compat", "runner": {"schema": "compat", "concurrency": 2}}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Runner.Schema != "compat" || cfg.Runner.Concurrency != 2 {
		t.Errorf("runner = %+v", cfg.Runner)
	}
}

func TestLoadFromFile_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enginecompat.toml")
	if err := os.WriteFile(path, []byte("x = 1"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected error for .toml config")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ENGINECOMPAT_WRITER_DIALECT", "trino")
	t.Setenv("ENGINECOMPAT_READER_DIALECT", "spark")
	t.Setenv("ENGINECOMPAT_READER_POOL_SIZE", "9")
	t.Setenv("ENGINECOMPAT_CONCURRENCY", "3")
	t.Setenv("ENGINECOMPAT_SCENARIO_TIMEOUT", "10s")
	t.Setenv("ENGINECOMPAT_FORMATS", "PARQUET,ORC")
	t.Setenv("ENGINECOMPAT_S3_BUCKET", "reports")
	t.Setenv("ENGINECOMPAT_FILTER", "nested")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	if cfg.Writer.Dialect != "trino" || cfg.Reader.Dialect != "spark" {
		t.Errorf("dialects = %s/%s", cfg.Writer.Dialect, cfg.Reader.Dialect)
	}
	if cfg.Reader.PoolSize != 9 {
		t.Errorf("reader pool size = %d", cfg.Reader.PoolSize)
	}
	if cfg.Runner.Concurrency != 3 || cfg.Runner.ScenarioTimeout != 10*time.Second {
		t.Errorf("runner = %+v", cfg.Runner)
	}
	if len(cfg.Runner.Formats) != 2 || cfg.Runner.Formats[1] != "ORC" {
		t.Errorf("formats = %v", cfg.Runner.Formats)
	}
	if cfg.Runner.Filter != "nested" {
		t.Errorf("filter = %q", cfg.Runner.Filter)
	}
	if cfg.Report.Storage.S3.Bucket != "reports" {
		t.Errorf("bucket = %q", cfg.Report.Storage.S3.Bucket)
	}
}

func TestEnsureDirectories(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.Resolve()

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.DataDir, cfg.Report.Storage.Path} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("%s was not created", dir)
		}
	}
}
