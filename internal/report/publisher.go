package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/wordindex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/tracing"
	"golang.org/x/sync/errgroup"
)

type target struct {
	sink    Sink
	breaker *resilience.CircuitBreaker
}

// Publisher delivers a report to every configured sink concurrently. Each
// sink is retried with backoff behind its own circuit breaker; one failing
// sink never stops the others.
type Publisher struct {
	targets []target
	retry   resilience.RetryConfig
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

func WithRetry(cfg resilience.RetryConfig) PublisherOption {
	return func(p *Publisher) { p.retry = cfg }
}

// WithAttemptTimeout bounds each publish attempt. Zero disables the bound.
func WithAttemptTimeout(d time.Duration) PublisherOption {
	return func(p *Publisher) { p.timeout = d }
}

func WithMetrics(m *metrics.Metrics) PublisherOption {
	return func(p *Publisher) { p.metrics = m }
}

func NewPublisher(sinks []Sink, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		timeout: 10 * time.Second,
		logger:  logger.WithComponent("publisher"),
	}
	for _, opt := range opts {
		opt(p)
	}
	for _, s := range sinks {
		cbCfg := resilience.CircuitBreakerConfig{FailureThreshold: 3}
		if p.metrics != nil {
			cbCfg.OnStateChange = func(name string, to resilience.State) {
				p.metrics.SinkCircuitState.WithLabelValues(name).Set(float64(to))
			}
		}
		p.targets = append(p.targets, target{
			sink:    s,
			breaker: resilience.NewCircuitBreaker(s.Name(), cbCfg),
		})
	}
	return p
}

// Sinks returns the sink names in configuration order.
func (p *Publisher) Sinks() []string {
	names := make([]string, 0, len(p.targets))
	for _, t := range p.targets {
		names = append(names, t.sink.Name())
	}
	return names
}

// RegisterChecks adds a readiness check for every sink backed by a remote
// service.
func (p *Publisher) RegisterChecks(c *health.Checker) {
	for _, t := range p.targets {
		if pinger, ok := t.sink.(Pinger); ok {
			c.Register(t.sink.Name(), health.PingCheck(pinger.Ping))
		}
	}
}

// Publish sends r to all sinks and returns the joined sink errors.
func (p *Publisher) Publish(ctx context.Context, r Report) error {
	ctx, span := tracing.StartChildSpan(ctx, "publish")
	defer span.End()
	span.SetAttr("entries", len(r.Entries))

	errs := make([]error, len(p.targets))
	var g errgroup.Group
	for i, t := range p.targets {
		g.Go(func() error {
			errs[i] = p.publishOne(ctx, t, r)
			return nil
		})
	}
	g.Wait()

	err := apperrors.Join(errs...)
	if err != nil {
		span.SetAttr("error", err.Error())
	}
	return err
}

func (p *Publisher) publishOne(ctx context.Context, t target, r Report) error {
	name := t.sink.Name()
	start := time.Now()
	err := resilience.Retry(ctx, "publish to "+name, p.retry, func(ctx context.Context) error {
		err := t.breaker.Execute(ctx, func(ctx context.Context) error {
			return resilience.WithTimeout(ctx, p.timeout, name, func(ctx context.Context) error {
				return t.sink.Publish(ctx, r)
			})
		})
		if apperrors.Is(err, resilience.ErrCircuitOpen) {
			return resilience.Permanent(err)
		}
		return err
	})
	elapsed := time.Since(start)
	if p.metrics != nil {
		p.metrics.ObservePublish(name, elapsed, err)
	}
	if err != nil {
		p.logger.Error("report publish failed", "sink", name, "error", err)
		return fmt.Errorf("sink %s: %w", name, err)
	}
	p.logger.Debug("report published",
		"sink", name,
		"entries", len(r.Entries),
		"elapsed", elapsed,
	)
	return nil
}
