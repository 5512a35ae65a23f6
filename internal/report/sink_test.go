package report

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/database"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKV struct {
	mu     sync.Mutex
	values map[string]any
	ttl    time.Duration
	calls  int
	err    error
}

func (f *fakeKV) SetMany(_ context.Context, values map[string]any, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	if f.values == nil {
		f.values = make(map[string]any)
	}
	for k, v := range values {
		f.values[k] = v
	}
	f.ttl = ttl
	return nil
}

func (f *fakeKV) Ping(context.Context) error { return f.err }

type fakeProducer struct {
	mu     sync.Mutex
	events []kafka.Event
	err    error
}

func (f *fakeProducer) PublishBatch(_ context.Context, events []kafka.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, events...)
	return nil
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink("stdout", &buf, "text")
	assert.Equal(t, "stdout", s.Name())
	require.NoError(t, s.Publish(context.Background(), New("r", buildIndex(t, "b", 2, "a", 1))))
	assert.Equal(t, "a (1): 1\nb (1): 2\n", buf.String())

	buf.Reset()
	js := NewWriterSink("stdout", &buf, "json")
	require.NoError(t, js.Publish(context.Background(), New("r", buildIndex(t, "a", 1))))
	assert.Contains(t, buf.String(), `"word": "a"`)
}

func TestRedisSink(t *testing.T) {
	kv := &fakeKV{}
	s := NewRedisSink(kv, "wordindex:report:", time.Hour)
	r := New("run-7", buildIndex(t, "delta", 4))
	require.NoError(t, s.Publish(context.Background(), r))

	require.Len(t, kv.values, 2)
	assert.Equal(t, time.Hour, kv.ttl)
	latest, ok := kv.values["wordindex:report:latest"].([]byte)
	require.True(t, ok)
	assert.Equal(t, latest, kv.values["wordindex:report:"+r.Fingerprint()])

	var decoded Report
	require.NoError(t, json.Unmarshal(latest, &decoded))
	assert.Equal(t, "run-7", decoded.RunID)
	assert.Equal(t, r.Entries, decoded.Entries)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestKafkaSink(t *testing.T) {
	p := &fakeProducer{}
	s := NewKafkaSink(p)
	require.NoError(t, s.Publish(context.Background(), New("run-1", buildIndex(t, "Echo", 3, "echo", 5, "Alfa", 1))))

	require.Len(t, p.events, 2)
	assert.Equal(t, "alfa", p.events[0].Key)
	assert.Equal(t, "echo", p.events[1].Key)
	ev := p.events[1].Value.(EntryEvent)
	assert.Equal(t, "Echo", ev.Word)
	assert.Equal(t, []int{3, 5}, ev.Occurrences)
	assert.Equal(t, "run-1", ev.RunID)
}

func openSQLite(t *testing.T) *database.Client {
	t.Helper()
	db, err := database.New(context.Background(), config.DatabaseConfig{
		Driver: "sqlite3",
		Path:   filepath.Join(t.TempDir(), "report.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLSinkReplacesRows(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	s, err := NewSQLSink(ctx, db, "word_report")
	require.NoError(t, err)

	require.NoError(t, s.Publish(ctx, New("run-1", buildIndex(t, "golf", 1, "golf", 2, "alfa", 3))))
	require.NoError(t, s.Publish(ctx, New("run-2", buildIndex(t, "hotel", 9, "Golf", 1))))

	rows, err := db.DB.QueryContext(ctx, "SELECT word, count, occurrences, run_id FROM word_report ORDER BY position")
	require.NoError(t, err)
	defer rows.Close()
	type row struct {
		word, occ, run string
		count          int
	}
	var got []row
	for rows.Next() {
		var r row
		require.NoError(t, rows.Scan(&r.word, &r.count, &r.occ, &r.run))
		got = append(got, r)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []row{
		{word: "Golf", occ: "[1]", run: "run-2", count: 1},
		{word: "hotel", occ: "[9]", run: "run-2", count: 1},
	}, got)
	assert.NoError(t, s.Ping(ctx))
}

func TestSQLSinkRejectsBadTable(t *testing.T) {
	_, err := NewSQLSink(context.Background(), openSQLite(t), "report; DROP TABLE x")
	assert.ErrorContains(t, err, "invalid report table name")
}
