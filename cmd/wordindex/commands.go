package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/lookup"
	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/report"
	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/scenario"
	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/source"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordindex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/resilience"

	"github.com/urfave/cli/v2"
)

func tokenizerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "stem",
			Usage: "Index porter2 stems instead of surface words",
		},
		&cli.BoolFlag{
			Name:  "stop-words",
			Usage: "Skip common English stop-words",
		},
		&cli.IntFlag{
			Name:  "min-length",
			Usage: "Skip words shorter than this many bytes",
		},
		&cli.BoolFlag{
			Name:  "continue-lines",
			Usage: "Keep counting lines across input files instead of restarting at 1",
		},
	}
}

func (rt *session) applyTokenizerFlags(c *cli.Context) {
	if c.IsSet("stem") {
		rt.cfg.Tokenizer.Stem = c.Bool("stem")
	}
	if c.IsSet("stop-words") {
		rt.cfg.Tokenizer.StopWords = c.Bool("stop-words")
	}
	if c.IsSet("min-length") {
		rt.cfg.Tokenizer.MinLength = c.Int("min-length")
	}
}

func (rt *session) indexOptions() []index.Option {
	opts := []index.Option{
		index.WithMaxEntries(rt.cfg.Index.MaxEntries),
		index.WithMaxOccurrences(rt.cfg.Index.MaxOccurrences),
	}
	if rt.metrics != nil {
		opts = append(opts, index.WithObserver(rt.metrics))
	}
	return opts
}

// sources resolves command arguments into inputs, falling back to stdin.
func (rt *session) sources(args []string) ([]source.Source, error) {
	if len(args) == 0 {
		return []source.Source{source.Reader("stdin", rt.stdin)}, nil
	}
	files, err := source.ExpandGlobs(args)
	if err != nil {
		return nil, err
	}
	srcs := make([]source.Source, 0, len(files))
	for _, f := range files {
		srcs = append(srcs, source.ForFile(f))
	}
	return srcs, nil
}

func (rt *session) ingestAll(ctx context.Context, engine *indexer.Engine, srcs []source.Source) (indexer.Stats, error) {
	var total indexer.Stats
	for _, src := range srcs {
		st, err := engine.Ingest(ctx, src)
		total.Add(st)
		if err != nil {
			return total, fmt.Errorf("ingesting %s: %w", src.Name(), err)
		}
	}
	return total, nil
}

func (rt *session) scenariosCommand() *cli.Command {
	return &cli.Command{
		Name:      "scenarios",
		Usage:     "Run canned insertion scenarios (1-3, or a-d)",
		ArgsUsage: "[N ...]",
		Flags: []cli.Flag{
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "Seed for the random scenarios",
				Value: scenario.DefaultSeed,
			},
		},
		Action: func(c *cli.Context) error {
			rt.start(c)
			runner := scenario.NewRunner(rt.stdout, c.Uint64("seed"), rt.indexOptions()...)
			return runner.Run(c.Args().Slice())
		},
	}
}

func (rt *session) indexCommand() *cli.Command {
	flags := append(tokenizerFlags(),
		&cli.StringFlag{
			Name:  "format",
			Usage: "Output format for the stdout sink: text or json",
			Value: "text",
		},
		&cli.StringSliceFlag{
			Name:  "sink",
			Usage: "Report sinks: stdout, redis, database, kafka (repeatable; overrides config)",
		},
	)
	return &cli.Command{
		Name:      "index",
		Usage:     "Index words from files (globs allowed) or stdin and publish the report",
		ArgsUsage: "[path|glob ...]",
		Flags:     flags,
		Action: func(c *cli.Context) error {
			ctx := rt.start(c)
			rt.applyTokenizerFlags(c)
			format := c.String("format")
			if format != "text" && format != "json" {
				return apperrors.Newf(apperrors.ErrInvalidInput, apperrors.ExitUsage, "unknown format %q", format)
			}
			sinkNames := rt.cfg.Sinks
			if c.IsSet("sink") {
				sinkNames = c.StringSlice("sink")
			}

			srcs, err := rt.sources(c.Args().Slice())
			if err != nil {
				return err
			}
			sinks, closeSinks, err := rt.buildSinks(ctx, sinkNames, format)
			if err != nil {
				return err
			}
			defer closeSinks()

			engine := rt.newEngine(c, sinks)
			total, err := rt.ingestAll(ctx, engine, srcs)
			if err != nil {
				// A partial report would pass for a complete one.
				engine.Discard()
				return err
			}
			logger.FromContext(ctx).Info("indexing finished",
				"sources", len(srcs),
				"lines", total.Lines,
				"words", total.Words,
				"rejected", total.Rejected,
			)
			return apperrors.Join(total.Err(), engine.Close(ctx))
		},
	}
}

func (rt *session) newEngine(c *cli.Context, sinks []report.Sink) *indexer.Engine {
	opts := []indexer.Option{
		indexer.WithRunID(rt.runID),
		indexer.WithContinueLines(c.Bool("continue-lines")),
	}
	if len(sinks) > 0 {
		pubOpts := []report.PublisherOption{report.WithRetry(resilience.RetryFromConfig(rt.cfg.Retry))}
		if rt.metrics != nil {
			pubOpts = append(pubOpts, report.WithMetrics(rt.metrics))
		}
		publisher := report.NewPublisher(sinks, pubOpts...)
		publisher.RegisterChecks(rt.checker)
		opts = append(opts, indexer.WithPublisher(publisher))
	}
	if rt.metrics != nil {
		opts = append(opts, indexer.WithMetrics(rt.metrics))
	}
	return indexer.NewEngine(rt.cfg, opts...)
}

func (rt *session) lookupCommand() *cli.Command {
	return &cli.Command{
		Name:      "lookup",
		Usage:     "Index the inputs and print the entry for one word",
		ArgsUsage: "[path|glob ...]",
		Flags: append(tokenizerFlags(),
			&cli.StringFlag{
				Name:     "word",
				Aliases:  []string{"w"},
				Usage:    "Word to look up (case-insensitive)",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "suggest",
				Usage: "On a miss, print up to this many similar words",
				Value: 3,
			},
		),
		Action: func(c *cli.Context) error {
			ctx := rt.start(c)
			rt.applyTokenizerFlags(c)
			srcs, err := rt.sources(c.Args().Slice())
			if err != nil {
				return err
			}
			engine := rt.newEngine(c, nil)
			defer engine.Discard()
			total, err := rt.ingestAll(ctx, engine, srcs)
			if err != nil {
				return err
			}
			if err := total.Err(); err != nil {
				return err
			}

			word := c.String("word")
			if e, ok := lookup.Find(engine, word); ok {
				fmt.Fprintln(rt.stdout, report.FormatEntry(e.Key, e.Count, e.Occurrences))
				return nil
			}
			for _, s := range lookup.Suggest(engine, word, c.Int("suggest")) {
				fmt.Fprintf(rt.stdout, "did you mean %s (distance %d)\n", s.Entry.Key, s.Distance)
			}
			return apperrors.Newf(apperrors.ErrNotFound, apperrors.ExitFailure, "%q is not in the index", word)
		},
	}
}

func (rt *session) produceCommand() *cli.Command {
	return &cli.Command{
		Name:      "produce",
		Usage:     "Publish the lines of files (or stdin) to the Kafka lines topic",
		ArgsUsage: "[path|glob ...]",
		Action: func(c *cli.Context) error {
			ctx := rt.start(c)
			srcs, err := rt.sources(c.Args().Slice())
			if err != nil {
				return err
			}
			producer := kafka.NewProducer(rt.cfg.Kafka, rt.cfg.Kafka.Topics.Lines)
			defer producer.Close()
			for _, src := range srcs {
				var lines []string
				if _, err := source.Scan(ctx, src, 1, func(_ int, text string) error {
					lines = append(lines, text)
					return nil
				}); err != nil {
					return err
				}
				if err := producer.PublishLines(ctx, src.Name(), lines); err != nil {
					return apperrors.New(apperrors.ErrSinkUnavailable, apperrors.ExitUnavailable, err.Error())
				}
				slog.Info("lines produced", "source", src.Name(), "lines", len(lines), "topic", rt.cfg.Kafka.Topics.Lines)
			}
			return nil
		},
	}
}

func (rt *session) consumeCommand() *cli.Command {
	return &cli.Command{
		Name:  "consume",
		Usage: "Index lines from the Kafka lines topic, publishing the report periodically",
		Flags: append(tokenizerFlags(),
			&cli.IntFlag{
				Name:  "max-messages",
				Usage: "Stop after this many messages (0 = until interrupted)",
			},
			&cli.StringSliceFlag{
				Name:  "sink",
				Usage: "Report sinks (repeatable; overrides config)",
			},
		),
		Action: func(c *cli.Context) error {
			ctx := rt.start(c)
			rt.applyTokenizerFlags(c)
			sinkNames := rt.cfg.Sinks
			if c.IsSet("sink") {
				sinkNames = c.StringSlice("sink")
			}
			sinks, closeSinks, err := rt.buildSinks(ctx, sinkNames, "text")
			if err != nil {
				return err
			}
			defer closeSinks()

			engine := rt.newEngine(c, sinks)
			if interval := rt.cfg.Kafka.FlushInterval; interval > 0 {
				engine.StartFlushLoop(ctx, interval)
			}
			kc := kafka.NewConsumer(rt.cfg.Kafka, rt.cfg.Kafka.Topics.Lines, consumer.HandleLine(engine))
			kc.SetMaxMessages(c.Int("max-messages"))
			consumeErr := consumer.New(kc).Start(ctx)

			total := engine.Totals()
			logger.FromContext(ctx).Info("publishing final report before shutdown",
				"lines", total.Lines,
				"words", total.Words,
				"rejected", total.Rejected,
			)
			closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			defer cancel()
			return apperrors.Join(consumeErr, total.Err(), engine.Close(closeCtx))
		},
	}
}
