package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"stdout"}, cfg.Sinks)
	assert.Equal(t, 1, cfg.Tokenizer.MinLength)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 30*time.Second, cfg.Kafka.FlushInterval)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "wordindex.yaml", `
index:
  maxEntries: 1000
tokenizer:
  minLength: 3
  stopWords: true
redis:
  reportTTL: 90s
database:
  driver: sqlite3
  path: /tmp/report.db
sinks: [stdout, database]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Index.MaxEntries)
	assert.Equal(t, 3, cfg.Tokenizer.MinLength)
	assert.True(t, cfg.Tokenizer.StopWords)
	assert.Equal(t, 90*time.Second, cfg.Redis.ReportTTL)
	assert.Equal(t, "/tmp/report.db", cfg.Database.DSN())
	assert.Equal(t, []string{"stdout", "database"}, cfg.Sinks)
	// untouched sections keep defaults
	assert.Equal(t, "wordindex:report:", cfg.Redis.KeyPrefix)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "wordindex.toml", `
sinks = ["redis"]

[tokenizer]
stem = true

[kafka]
brokers = ["k1:9092", "k2:9092"]

[kafka.topics]
lines = "custom.lines"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Tokenizer.Stem)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "custom.lines", cfg.Kafka.Topics.Lines)
	assert.Equal(t, "wordindex.entries", cfg.Kafka.Topics.Entries)
	assert.Equal(t, []string{"redis"}, cfg.Sinks)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("WI_SINKS", "stdout,kafka")
	t.Setenv("WI_INDEX_MAX_OCCURRENCES", "12")
	t.Setenv("WI_METRICS_PORT", "9191")
	t.Setenv("WI_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"stdout", "kafka"}, cfg.Sinks)
	assert.Equal(t, 12, cfg.Index.MaxOccurrences)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9191, cfg.Metrics.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "index: [unterminated"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "driver.yaml", "database:\n  driver: oracle\n"))
	assert.ErrorContains(t, err, "unsupported database driver")

	_, err = Load(writeFile(t, "sinks.yaml", "sinks: [carrier-pigeon]\n"))
	assert.ErrorContains(t, err, "unknown sink")
}

func TestPostgresDSN(t *testing.T) {
	d := defaultConfig().Database
	assert.Equal(t, "host=localhost port=5432 user=wordindex password=localdev dbname=wordindex sslmode=disable", d.DSN())
}
