// Package indexer drives a word index from input sources: it tokenizes lines,
// inserts the words, keeps counters and publishes reports of the result.
package indexer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/report"
	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/source"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordindex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/tracing"
)

// Stats summarises one ingestion.
type Stats struct {
	Source   string
	Lines    int
	Words    int
	Rejected int
}

// Add accumulates o into s. The source name is kept.
func (s *Stats) Add(o Stats) {
	s.Lines += o.Lines
	s.Words += o.Words
	s.Rejected += o.Rejected
}

// Err reports rejected words as an allocation failure so callers learn that
// part of the input was not recorded.
func (s Stats) Err() error {
	if s.Rejected == 0 {
		return nil
	}
	return apperrors.Newf(apperrors.ErrAllocation, apperrors.ExitAllocation,
		"%d words not recorded: index capacity exceeded", s.Rejected)
}

// Engine owns one word index. The index itself is not synchronised; the
// engine mutex serialises ingestion against the background flush loop.
type Engine struct {
	mu            sync.Mutex
	idx           *index.Index
	tok           *tokenizer.Tokenizer
	publisher     *report.Publisher
	metrics       *metrics.Metrics
	logger        *slog.Logger
	runID         string
	continueLines bool
	nextLine      int
	total         Stats

	flushWG   sync.WaitGroup
	stopFlush context.CancelFunc
}

type Option func(*Engine)

// WithPublisher sets where Publish and Close deliver reports.
func WithPublisher(p *report.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithRunID(id string) Option {
	return func(e *Engine) { e.runID = id }
}

// WithContinueLines numbers lines across sources instead of restarting at 1
// for every source.
func WithContinueLines(on bool) Option {
	return func(e *Engine) { e.continueLines = on }
}

// WithTokenizer overrides the tokenizer built from the configuration.
func WithTokenizer(t *tokenizer.Tokenizer) Option {
	return func(e *Engine) { e.tok = t }
}

func NewEngine(cfg *config.Config, opts ...Option) *Engine {
	e := &Engine{
		tok: tokenizer.New(tokenizer.Options{
			MinLength: cfg.Tokenizer.MinLength,
			StopWords: cfg.Tokenizer.StopWords,
			Stem:      cfg.Tokenizer.Stem,
		}),
		logger:   logger.WithComponent("indexer"),
		nextLine: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	idxOpts := []index.Option{
		index.WithMaxEntries(cfg.Index.MaxEntries),
		index.WithMaxOccurrences(cfg.Index.MaxOccurrences),
	}
	if e.metrics != nil {
		idxOpts = append(idxOpts, index.WithObserver(e.metrics))
	}
	e.idx = index.New(idxOpts...)
	if e.runID != "" {
		e.logger = e.logger.With("run_id", e.runID)
	}
	return e
}

// IngestLine inserts every word of text at the given line number. Rejected
// words are logged and counted; ingestion carries on with the next word.
func (e *Engine) IngestLine(line int, text string) Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.ingestLocked(line, text)
	e.total.Add(st)
	e.observeLocked()
	return st
}

func (e *Engine) ingestLocked(line int, text string) Stats {
	st := Stats{Lines: 1}
	for _, w := range e.tok.Words(text) {
		if err := e.idx.Insert(w, line); err != nil {
			st.Rejected++
			e.logger.Warn("word rejected", "word", w, "line", line, "error", err)
			continue
		}
		st.Words++
	}
	if e.metrics != nil {
		e.metrics.LinesIngested.Inc()
	}
	if line >= e.nextLine {
		e.nextLine = line + 1
	}
	return st
}

// Ingest reads src line by line into the index. Lines are numbered from 1
// unless the engine continues numbering across sources.
func (e *Engine) Ingest(ctx context.Context, src source.Source) (Stats, error) {
	ctx, span := tracing.StartChildSpan(ctx, "ingest")
	defer span.End()
	span.SetAttr("source", src.Name())

	e.mu.Lock()
	defer e.mu.Unlock()

	first := 1
	if e.continueLines {
		first = e.nextLine
	}
	st := Stats{Source: src.Name()}
	_, err := source.Scan(ctx, src, first, func(line int, text string) error {
		st.Add(e.ingestLocked(line, text))
		return nil
	})
	e.total.Add(st)
	e.observeLocked()

	span.SetAttr("lines", st.Lines)
	span.SetAttr("words", st.Words)
	span.SetAttr("rejected", st.Rejected)
	if err != nil {
		return st, err
	}
	e.logger.Info("source ingested",
		"source", st.Source,
		"lines", st.Lines,
		"words", st.Words,
		"rejected", st.Rejected,
		"distinct", e.idx.Len(),
	)
	return st, nil
}

func (e *Engine) observeLocked() {
	if e.metrics != nil {
		e.metrics.ObserveIndex(e.idx.Len(), e.idx.Height())
	}
}

// Totals returns the counters accumulated over all ingestion so far.
func (e *Engine) Totals() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.total
}

// Snapshot returns the entries in traversal order.
func (e *Engine) Snapshot() []index.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.idx.Entries()
}

// Entries is Snapshot under the name lookups expect.
func (e *Engine) Entries() []index.Entry {
	return e.Snapshot()
}

func (e *Engine) Lookup(word string) (index.Entry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.idx.Lookup(word)
}

// Report snapshots the index for publication.
func (e *Engine) Report() report.Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	return report.New(e.runID, e.idx)
}

// Publish sends the current report through the publisher. Without a
// publisher it does nothing.
func (e *Engine) Publish(ctx context.Context) error {
	if e.publisher == nil {
		return nil
	}
	return e.publisher.Publish(ctx, e.Report())
}

// StartFlushLoop publishes the report every interval until ctx is done or
// Close is called.
func (e *Engine) StartFlushLoop(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	e.stopFlush = cancel
	e.flushWG.Go(func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := e.Publish(ctx); err != nil {
					e.logger.Error("periodic publish failed", "error", err)
				}
			}
		}
	})
}

// Close stops the flush loop, publishes a final report and releases the
// index. The engine is empty afterwards.
func (e *Engine) Close(ctx context.Context) error {
	e.stopFlushLoop()
	err := e.Publish(ctx)
	e.release()
	return err
}

// Discard stops the flush loop and releases the index without publishing.
func (e *Engine) Discard() {
	e.stopFlushLoop()
	e.release()
}

func (e *Engine) stopFlushLoop() {
	if e.stopFlush != nil {
		e.stopFlush()
		e.flushWG.Wait()
		e.stopFlush = nil
	}
}

func (e *Engine) release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.idx.Release()
	e.observeLocked()
	e.nextLine = 1
}
