package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/database"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/kafka"
	"golang.org/x/sync/singleflight"
)

// Sink receives finished reports.
type Sink interface {
	Name() string
	Publish(ctx context.Context, r Report) error
}

// Pinger is implemented by sinks backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WriterSink renders reports to an io.Writer as text or JSON.
type WriterSink struct {
	name   string
	w      io.Writer
	format string
	mu     sync.Mutex
}

// NewWriterSink creates a sink writing format ("text" or "json") to w.
func NewWriterSink(name string, w io.Writer, format string) *WriterSink {
	return &WriterSink{name: name, w: w, format: format}
}

func (s *WriterSink) Name() string { return s.name }

func (s *WriterSink) Publish(_ context.Context, r Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.format == "json" {
		return RenderJSON(s.w, r.Entries)
	}
	return Render(s.w, r.Entries)
}

// KV is the key-value store behind RedisSink.
type KV interface {
	SetMany(ctx context.Context, values map[string]any, ttl time.Duration) error
	Ping(ctx context.Context) error
}

// RedisSink stores each report as JSON under <prefix><fingerprint> and points
// <prefix>latest at the newest one.
type RedisSink struct {
	kv     KV
	prefix string
	ttl    time.Duration
	group  singleflight.Group
}

func NewRedisSink(kv KV, prefix string, ttl time.Duration) *RedisSink {
	return &RedisSink{kv: kv, prefix: prefix, ttl: ttl}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Ping(ctx context.Context) error { return s.kv.Ping(ctx) }

// Publish writes the report. Concurrent publishes of identical content
// share one write.
func (s *RedisSink) Publish(ctx context.Context, r Report) error {
	fp := r.Fingerprint()
	_, err, _ := s.group.Do(fp, func() (any, error) {
		data, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("encoding report: %w", err)
		}
		values := map[string]any{
			s.prefix + fp:       data,
			s.prefix + "latest": data,
		}
		if err := s.kv.SetMany(ctx, values, s.ttl); err != nil {
			return nil, fmt.Errorf("storing report %s: %w", fp, err)
		}
		return nil, nil
	})
	return err
}

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLSink keeps one row per word in a report table, replacing the table
// contents on every publish inside a single transaction.
type SQLSink struct {
	db    *database.Client
	table string
}

// NewSQLSink validates the table name and creates the table if needed.
func NewSQLSink(ctx context.Context, db *database.Client, table string) (*SQLSink, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid report table name %q", table)
	}
	s := &SQLSink{db: db, table: table}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	word TEXT PRIMARY KEY,
	count INTEGER NOT NULL,
	occurrences TEXT NOT NULL,
	position INTEGER NOT NULL,
	run_id TEXT NOT NULL,
	generated_at TEXT NOT NULL
)`, table)
	if _, err := db.DB.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("creating table %s: %w", table, err)
	}
	return s, nil
}

func (s *SQLSink) Name() string { return "database" }

func (s *SQLSink) Ping(ctx context.Context) error { return s.db.Ping(ctx) }

func (s *SQLSink) Publish(ctx context.Context, r Report) error {
	insert := s.db.Rebind(fmt.Sprintf(
		"INSERT INTO %s (word, count, occurrences, position, run_id, generated_at) VALUES (?, ?, ?, ?, ?, ?)",
		s.table,
	))
	generated := r.GeneratedAt.UTC().Format(time.RFC3339Nano)
	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+s.table); err != nil {
			return fmt.Errorf("clearing %s: %w", s.table, err)
		}
		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()
		for i, e := range r.Entries {
			occ, err := json.Marshal(e.Occurrences)
			if err != nil {
				return fmt.Errorf("encoding occurrences of %q: %w", e.Key, err)
			}
			if _, err := stmt.ExecContext(ctx, e.Key, e.Count, string(occ), i, r.RunID, generated); err != nil {
				return fmt.Errorf("inserting %q: %w", e.Key, err)
			}
		}
		return nil
	})
}

// EventPublisher is the Kafka producer behind KafkaSink.
type EventPublisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// KafkaSink publishes one event per entry keyed by the folded word, so
// every casing of a word lands on the same partition.
type KafkaSink struct {
	producer EventPublisher
}

func NewKafkaSink(p EventPublisher) *KafkaSink {
	return &KafkaSink{producer: p}
}

func (s *KafkaSink) Name() string { return "kafka" }

// EntryEvent is the value of each Kafka message.
type EntryEvent struct {
	RunID       string    `json:"runId"`
	Word        string    `json:"word"`
	Count       int       `json:"count"`
	Occurrences []int     `json:"occurrences"`
	GeneratedAt time.Time `json:"generatedAt"`
}

func (s *KafkaSink) Publish(ctx context.Context, r Report) error {
	events := make([]kafka.Event, 0, len(r.Entries))
	for _, e := range r.Entries {
		events = append(events, kafka.Event{
			Key: index.FoldKey(e.Key),
			Value: EntryEvent{
				RunID:       r.RunID,
				Word:        e.Key,
				Count:       e.Count,
				Occurrences: e.Occurrences,
				GeneratedAt: r.GeneratedAt,
			},
		})
	}
	return s.producer.PublishBatch(ctx, events)
}
