package report

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/wordindex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/resilience"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quickRetry = resilience.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}

func TestPublisherFansOut(t *testing.T) {
	var buf bytes.Buffer
	kv := &fakeKV{}
	m := metrics.New()
	p := NewPublisher([]Sink{
		NewWriterSink("stdout", &buf, "text"),
		NewRedisSink(kv, "p:", 0),
	}, WithRetry(quickRetry), WithMetrics(m))
	assert.Equal(t, []string{"stdout", "redis"}, p.Sinks())

	require.NoError(t, p.Publish(context.Background(), New("r", buildIndex(t, "kilo", 1))))
	assert.Equal(t, "kilo (1): 1\n", buf.String())
	assert.Len(t, kv.values, 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsPublished.WithLabelValues("stdout", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsPublished.WithLabelValues("redis", "ok")))
}

func TestPublisherJoinsFailures(t *testing.T) {
	var buf bytes.Buffer
	down := errors.New("connection refused")
	kv := &fakeKV{err: down}
	m := metrics.New()
	p := NewPublisher([]Sink{
		NewWriterSink("stdout", &buf, "text"),
		NewRedisSink(kv, "p:", 0),
	}, WithRetry(quickRetry), WithMetrics(m))

	err := p.Publish(context.Background(), New("r", buildIndex(t, "lima", 1)))
	require.ErrorIs(t, err, down)
	assert.ErrorContains(t, err, "sink redis")
	assert.Equal(t, "lima (1): 1\n", buf.String())
	assert.Equal(t, 2, kv.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsPublished.WithLabelValues("redis", "error")))
}

func TestPublisherStopsRetryingOpenCircuit(t *testing.T) {
	kv := &fakeKV{err: errors.New("timeout")}
	m := metrics.New()
	p := NewPublisher([]Sink{NewRedisSink(kv, "p:", 0)},
		WithRetry(resilience.RetryConfig{MaxAttempts: 1, InitialDelay: time.Millisecond}),
		WithMetrics(m),
	)
	r := New("r", buildIndex(t, "mike", 1))
	for range 3 {
		require.Error(t, p.Publish(context.Background(), r))
	}
	assert.Equal(t, float64(resilience.StateOpen), testutil.ToFloat64(m.SinkCircuitState.WithLabelValues("redis")))

	calls := kv.calls
	err := p.Publish(context.Background(), r)
	assert.ErrorIs(t, err, apperrors.ErrSinkUnavailable)
	assert.Equal(t, calls, kv.calls)
	assert.Equal(t, apperrors.ExitUnavailable, apperrors.ExitCode(err))
}

func TestPublisherRegistersChecks(t *testing.T) {
	c := health.NewChecker()
	p := NewPublisher([]Sink{
		NewWriterSink("stdout", &bytes.Buffer{}, "text"),
		NewRedisSink(&fakeKV{err: errors.New("down")}, "p:", 0),
	})
	p.RegisterChecks(c)

	report := c.Run(context.Background())
	assert.Equal(t, health.StatusDown, report.Status)
	assert.Equal(t, []string{"redis"}, report.Failing())
	assert.Len(t, report.Components, 1)
}

type slowSink struct{}

func (slowSink) Name() string { return "slow" }

func (slowSink) Publish(ctx context.Context, _ Report) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestPublisherAttemptTimeout(t *testing.T) {
	p := NewPublisher([]Sink{slowSink{}},
		WithRetry(resilience.RetryConfig{MaxAttempts: 1}),
		WithAttemptTimeout(10*time.Millisecond),
	)
	err := p.Publish(context.Background(), New("r", buildIndex(t, "november", 1)))
	assert.ErrorIs(t, err, apperrors.ErrTimeout)
}
