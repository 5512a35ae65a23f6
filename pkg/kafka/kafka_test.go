package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	msgs      []kafka.Message
	committed []int64
	closed    bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if err := ctx.Err(); err != nil {
		return kafka.Message{}, err
	}
	if len(f.msgs) == 0 {
		return kafka.Message{}, io.EOF
	}
	m := f.msgs[0]
	f.msgs = f.msgs[1:]
	return m, nil
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

type fakeWriter struct {
	written []kafka.Message
	err     error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestConsumerCommitsHandledMessages(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{
		{Value: []byte("first"), Offset: 0},
		{Value: []byte("bad"), Offset: 1},
		{Value: []byte("third"), Offset: 2},
	}}
	var seen []string
	c := NewConsumerWithReader(r, "lines", func(_ context.Context, m Message) error {
		seen = append(seen, string(m.Value))
		if string(m.Value) == "bad" {
			return errors.New("rejected")
		}
		return nil
	})

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, []string{"first", "bad", "third"}, seen)
	assert.Equal(t, []int64{0, 2}, r.committed)
	assert.True(t, r.closed)
}

func TestConsumerStopsAtLimit(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{{Offset: 0}, {Offset: 1}, {Offset: 2}}}
	n := 0
	c := NewConsumerWithReader(r, "lines", func(context.Context, Message) error {
		n++
		return nil
	})
	c.SetMaxMessages(2)
	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, 2, n)
}

func TestConsumerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewConsumerWithReader(&fakeReader{msgs: []kafka.Message{{}}}, "lines", func(context.Context, Message) error {
		t.Fatal("handler must not run")
		return nil
	})
	assert.NoError(t, c.Start(ctx))
}

func TestProducerPublishBatch(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, "entries")
	require.NoError(t, p.PublishBatch(context.Background(), []Event{
		{Key: "alpha", Value: map[string]int{"count": 2}},
	}))
	require.Len(t, w.written, 1)
	assert.Equal(t, "alpha", string(w.written[0].Key))

	decoded, err := DecodeJSON[map[string]int](w.written[0].Value)
	require.NoError(t, err)
	assert.Equal(t, 2, decoded["count"])

	require.NoError(t, p.PublishBatch(context.Background(), nil))
	assert.Len(t, w.written, 1)
}

func TestProducerErrors(t *testing.T) {
	p := NewProducerWithWriter(&fakeWriter{err: errors.New("no brokers")}, "entries")
	err := p.PublishLines(context.Background(), "doc.txt", []string{"a line"})
	assert.ErrorContains(t, err, "no brokers")

	err = p.PublishBatch(context.Background(), []Event{{Key: "k", Value: make(chan int)}})
	var typeErr *json.UnsupportedTypeError
	assert.ErrorAs(t, err, &typeErr)
}
