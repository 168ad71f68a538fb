package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Build.PackageMaxSize != 10*1024*1024 {
		t.Errorf("PackageMaxSize = %d, want 10 MiB", cfg.Build.PackageMaxSize)
	}
	if cfg.Build.PopularLookupMaxSize != 1024*1024 {
		t.Errorf("PopularLookupMaxSize = %d, want 1 MiB", cfg.Build.PopularLookupMaxSize)
	}
	if cfg.Build.MinTermCount != 1000 {
		t.Errorf("MinTermCount = %d, want 1000", cfg.Build.MinTermCount)
	}
	if cfg.Build.DocumentEncoding != EncodingText {
		t.Errorf("DocumentEncoding = %q, want text", cfg.Build.DocumentEncoding)
	}
	if cfg.Input.DocumentSource != "file" {
		t.Errorf("DocumentSource = %q, want file", cfg.Input.DocumentSource)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
build:
  packageMaxSize: 2097152
  minTermCount: 10
  documentEncoding: json
output:
  dir: /tmp/out
  publishKV: true
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Build.PackageMaxSize != 2097152 {
		t.Errorf("PackageMaxSize = %d, want 2097152", cfg.Build.PackageMaxSize)
	}
	if cfg.Build.MinTermCount != 10 {
		t.Errorf("MinTermCount = %d, want 10", cfg.Build.MinTermCount)
	}
	if cfg.Build.DocumentEncoding != EncodingJSON {
		t.Errorf("DocumentEncoding = %q, want json", cfg.Build.DocumentEncoding)
	}
	if !cfg.Output.PublishKV {
		t.Error("PublishKV not set from file")
	}
	// Untouched sections keep their defaults.
	if cfg.Build.PopularLookupMaxSize != 1024*1024 {
		t.Errorf("PopularLookupMaxSize lost its default: %d", cfg.Build.PopularLookupMaxSize)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	t.Setenv("SIC_OUTPUT_DIR", "/srv/artifacts")
	t.Setenv("SIC_REDIS_ADDR", "redis.internal:6380")
	t.Setenv("SIC_KAFKA_BROKERS", "k1:9092,k2:9092")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Output.Dir != "/srv/artifacts" {
		t.Errorf("Output.Dir = %q", cfg.Output.Dir)
	}
	if cfg.Redis.Addr != "redis.internal:6380" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Kafka.Brokers = %v", cfg.Kafka.Brokers)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero package size", func(c *Config) { c.Build.PackageMaxSize = 0 }},
		{"zero popular lookup", func(c *Config) { c.Build.PopularLookupMaxSize = 0 }},
		{"negative min terms", func(c *Config) { c.Build.MinTermCount = -1 }},
		{"unknown encoding", func(c *Config) { c.Build.DocumentEncoding = "xml" }},
		{"unknown source", func(c *Config) { c.Input.DocumentSource = "s3" }},
		{"postgres without query", func(c *Config) {
			c.Input.DocumentSource = "postgres"
			c.Input.DocumentQuery = ""
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := defaultConfig()
			c.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate accepted a broken config")
			}
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{
		Host: "db", Port: 5433, Database: "corpus",
		User: "builder", Password: "pw", SSLMode: "require",
	}
	want := "host=db port=5433 user=builder password=pw dbname=corpus sslmode=require"
	if got := p.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
