// Package config loads and validates application configuration from YAML or
// TOML files with environment-variable overrides. It provides typed structs
// for every subsystem (Index, Tokenizer, Kafka, Redis, Database, Retry, etc.).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Index     IndexConfig     `yaml:"index" toml:"index"`
	Tokenizer TokenizerConfig `yaml:"tokenizer" toml:"tokenizer"`
	Kafka     KafkaConfig     `yaml:"kafka" toml:"kafka"`
	Redis     RedisConfig     `yaml:"redis" toml:"redis"`
	Database  DatabaseConfig  `yaml:"database" toml:"database"`
	Retry     RetryConfig     `yaml:"retry" toml:"retry"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics" toml:"metrics"`
	Sinks     []string        `yaml:"sinks" toml:"sinks"`
}

// IndexConfig caps the memory the word index may use. Zero means unlimited.
type IndexConfig struct {
	MaxEntries     int `yaml:"maxEntries" toml:"maxEntries"`
	MaxOccurrences int `yaml:"maxOccurrences" toml:"maxOccurrences"`
}

// TokenizerConfig controls how input lines are split into words.
type TokenizerConfig struct {
	MinLength int  `yaml:"minLength" toml:"minLength"`
	StopWords bool `yaml:"stopWords" toml:"stopWords"`
	Stem      bool `yaml:"stem" toml:"stem"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string      `yaml:"brokers" toml:"brokers"`
	ConsumerGroup string        `yaml:"consumerGroup" toml:"consumerGroup"`
	Topics        KafkaTopics   `yaml:"topics" toml:"topics"`
	FlushInterval time.Duration `yaml:"flushInterval" toml:"flushInterval"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	Lines   string `yaml:"lines" toml:"lines"`
	Entries string `yaml:"entries" toml:"entries"`
}

// RedisConfig holds Redis connection and report storage parameters.
type RedisConfig struct {
	Addr      string        `yaml:"addr" toml:"addr"`
	Password  string        `yaml:"password" toml:"password"`
	DB        int           `yaml:"db" toml:"db"`
	PoolSize  int           `yaml:"poolSize" toml:"poolSize"`
	ReportTTL time.Duration `yaml:"reportTTL" toml:"reportTTL"`
	KeyPrefix string        `yaml:"keyPrefix" toml:"keyPrefix"`
}

// DatabaseConfig selects the SQL report sink. Driver is "postgres" or
// "sqlite3"; Path is only used by sqlite3.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver" toml:"driver"`
	Host            string        `yaml:"host" toml:"host"`
	Port            int           `yaml:"port" toml:"port"`
	Name            string        `yaml:"name" toml:"name"`
	User            string        `yaml:"user" toml:"user"`
	Password        string        `yaml:"password" toml:"password"`
	SSLMode         string        `yaml:"sslMode" toml:"sslMode"`
	Path            string        `yaml:"path" toml:"path"`
	Table           string        `yaml:"table" toml:"table"`
	MaxOpenConns    int           `yaml:"maxOpenConns" toml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns" toml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime" toml:"connMaxLifetime"`
}

// DSN returns the data source name for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "sqlite3" {
		return d.Path
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// RetryConfig controls backoff for report sinks.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"maxAttempts" toml:"maxAttempts"`
	InitialDelay time.Duration `yaml:"initialDelay" toml:"initialDelay"`
	MaxDelay     time.Duration `yaml:"maxDelay" toml:"maxDelay"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
	Port    int  `yaml:"port" toml:"port"`
}

// Load reads a config file (if provided) and applies environment-variable
// overrides. Files ending in .toml are decoded as TOML, everything else as
// YAML. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration with environment overrides.
func Default() *Config {
	cfg := defaultConfig()
	applyEnvOverrides(cfg)
	return cfg
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	default:
		return yaml.Unmarshal(data, cfg)
	}
}

// Validate rejects settings no component can work with.
func (c *Config) Validate() error {
	if c.Index.MaxEntries < 0 || c.Index.MaxOccurrences < 0 {
		return fmt.Errorf("index limits must not be negative")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	for _, s := range c.Sinks {
		switch s {
		case "stdout", "redis", "database", "kafka":
		default:
			return fmt.Errorf("unknown sink %q", s)
		}
	}
	return nil
}

// defaultConfig returns a Config with defaults for local development.
func defaultConfig() *Config {
	return &Config{
		Tokenizer: TokenizerConfig{
			MinLength: 1,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "wordindex-group",
			Topics: KafkaTopics{
				Lines:   "wordindex.lines",
				Entries: "wordindex.entries",
			},
			FlushInterval: 30 * time.Second,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			PoolSize:  10,
			ReportTTL: 24 * time.Hour,
			KeyPrefix: "wordindex:report:",
		},
		Database: DatabaseConfig{
			Driver:          "postgres",
			Host:            "localhost",
			Port:            5432,
			Name:            "wordindex",
			User:            "wordindex",
			Password:        "localdev",
			SSLMode:         "disable",
			Path:            "wordindex.db",
			Table:           "word_report",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
		Sinks: []string{"stdout"},
	}
}

// applyEnvOverrides reads WI_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WI_INDEX_MAX_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Index.MaxEntries = n
		}
	}
	if v := os.Getenv("WI_INDEX_MAX_OCCURRENCES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Index.MaxOccurrences = n
		}
	}
	if v := os.Getenv("WI_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("WI_KAFKA_LINES_TOPIC"); v != "" {
		cfg.Kafka.Topics.Lines = v
	}
	if v := os.Getenv("WI_KAFKA_ENTRIES_TOPIC"); v != "" {
		cfg.Kafka.Topics.Entries = v
	}
	if v := os.Getenv("WI_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("WI_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("WI_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("WI_DATABASE_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("WI_DATABASE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("WI_DATABASE_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("WI_DATABASE_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("WI_DATABASE_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("WI_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("WI_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("WI_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("WI_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
			cfg.Metrics.Enabled = true
		}
	}
	if v := os.Getenv("WI_SINKS"); v != "" {
		cfg.Sinks = strings.Split(v, ",")
	}
}
