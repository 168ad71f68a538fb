// Package config loads and validates compiler configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Build limits, Input sources, Output emission, Postgres, Redis,
// Kafka, Logging, Metrics).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Document content encodings accepted by the documents reader.
const (
	EncodingText = "text"
	EncodingJSON = "json"
)

// Config is the top-level compiler configuration.
type Config struct {
	Build    BuildConfig    `yaml:"build"`
	Input    InputConfig    `yaml:"input"`
	Output   OutputConfig   `yaml:"output"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// BuildConfig holds the size ceilings and query limits baked into a build.
type BuildConfig struct {
	// PackageMaxSize caps every emitted package blob. A single value larger
	// than this aborts the build.
	PackageMaxSize int `yaml:"packageMaxSize"`
	// PopularLookupMaxSize caps the serialized direct-lookup table for
	// popular terms, independent of package size.
	PopularLookupMaxSize int `yaml:"popularLookupMaxSize"`
	// NormalLookupWarnSize logs a warning when the normal-term lookup table
	// grows past it. The table itself is unbounded.
	NormalLookupWarnSize int `yaml:"normalLookupWarnSize"`
	// MinTermCount is the smallest distinct-term corpus worth indexing.
	MinTermCount int `yaml:"minTermCount"`

	DocumentEncoding string `yaml:"documentEncoding"`

	// Limits threaded through to the query runtime, not interpreted here.
	MaxQueryBytes   int `yaml:"maxQueryBytes"`
	MaxQueryTerms   int `yaml:"maxQueryTerms"`
	MaxQueryResults int `yaml:"maxQueryResults"`
}

// InputConfig selects where the term and document streams come from.
type InputConfig struct {
	// TermsPath is the NUL-delimited document-term stream file.
	TermsPath string `yaml:"termsPath"`
	// DocumentsPath is the NUL-delimited document content file. Ignored when
	// DocumentSource is "postgres".
	DocumentsPath string `yaml:"documentsPath"`
	// DocumentSource is "file" or "postgres".
	DocumentSource string `yaml:"documentSource"`
	// DocumentQuery must return document content rows ordered by position
	// when DocumentSource is "postgres".
	DocumentQuery string `yaml:"documentQuery"`
}

// OutputConfig controls artifact emission.
type OutputConfig struct {
	// Dir receives the package files, lookup tables, and manifest.
	Dir string `yaml:"dir"`
	// PublishKV uploads every artifact blob to Redis after a successful
	// directory write.
	PublishKV bool `yaml:"publishKV"`
	// AnnounceBuild publishes a build-completion event to Kafka.
	AnnounceBuild bool `yaml:"announceBuild"`
}

// PostgresConfig holds PostgreSQL connection parameters for database-backed
// document corpora.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// RedisConfig holds the KV artifact store connection parameters.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	PoolSize  int    `yaml:"poolSize"`
	KeyPrefix string `yaml:"keyPrefix"`
}

// KafkaConfig holds Kafka broker and topic settings for build announcements.
type KafkaConfig struct {
	Brokers []string    `yaml:"brokers"`
	Topics  KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	BuildComplete string `yaml:"buildComplete"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server exposed during long
// builds.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot produce a well-formed index.
func (c *Config) Validate() error {
	if c.Build.PackageMaxSize <= 0 {
		return fmt.Errorf("build.packageMaxSize must be positive, got %d", c.Build.PackageMaxSize)
	}
	if c.Build.PopularLookupMaxSize <= 0 {
		return fmt.Errorf("build.popularLookupMaxSize must be positive, got %d", c.Build.PopularLookupMaxSize)
	}
	if c.Build.MinTermCount < 0 {
		return fmt.Errorf("build.minTermCount must not be negative, got %d", c.Build.MinTermCount)
	}
	switch c.Build.DocumentEncoding {
	case EncodingText, EncodingJSON:
	default:
		return fmt.Errorf("build.documentEncoding must be %q or %q, got %q",
			EncodingText, EncodingJSON, c.Build.DocumentEncoding)
	}
	switch c.Input.DocumentSource {
	case "file", "postgres":
	default:
		return fmt.Errorf("input.documentSource must be \"file\" or \"postgres\", got %q", c.Input.DocumentSource)
	}
	if c.Input.DocumentSource == "postgres" && c.Input.DocumentQuery == "" {
		return fmt.Errorf("input.documentQuery is required when documentSource is postgres")
	}
	return nil
}

// defaultConfig returns a Config with the standard limits: 10 MiB packages,
// 1 MiB popular lookup, 1000-term minimum corpus.
func defaultConfig() *Config {
	return &Config{
		Build: BuildConfig{
			PackageMaxSize:       10 * 1024 * 1024,
			PopularLookupMaxSize: 1 * 1024 * 1024,
			NormalLookupWarnSize: 16 * 1024 * 1024,
			MinTermCount:         1000,
			DocumentEncoding:     EncodingText,
			MaxQueryBytes:        512,
			MaxQueryTerms:        32,
			MaxQueryResults:      100,
		},
		Input: InputConfig{
			TermsPath:      "data/document-terms.bin",
			DocumentsPath:  "data/documents.bin",
			DocumentSource: "file",
		},
		Output: OutputConfig{
			Dir: "dist",
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "staticindex",
			User:            "staticindex",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    4,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			Password:  "",
			DB:        0,
			PoolSize:  10,
			KeyPrefix: "staticindex",
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topics: KafkaTopics{
				BuildComplete: "index.build.complete",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SIC_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("SIC_TERMS_PATH"); v != "" {
		cfg.Input.TermsPath = v
	}
	if v := os.Getenv("SIC_DOCUMENTS_PATH"); v != "" {
		cfg.Input.DocumentsPath = v
	}
	if v := os.Getenv("SIC_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("SIC_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("SIC_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("SIC_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("SIC_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("SIC_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("SIC_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SIC_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SIC_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SIC_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SIC_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
