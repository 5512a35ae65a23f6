package main

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/report"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/database"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordindex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/redis"
)

// buildSinks connects the named sinks. The returned func closes every
// connection that was opened.
func (rt *session) buildSinks(ctx context.Context, names []string, format string) ([]report.Sink, func(), error) {
	var (
		sinks   []report.Sink
		closers []func() error
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	unavailable := func(name string, err error) ([]report.Sink, func(), error) {
		closeAll()
		return nil, func() {}, apperrors.Newf(apperrors.ErrSinkUnavailable, apperrors.ExitUnavailable, "%s sink: %v", name, err)
	}

	for _, name := range names {
		switch name {
		case "stdout":
			sinks = append(sinks, report.NewWriterSink("stdout", rt.stdout, format))
		case "redis":
			client, err := redis.NewClient(ctx, rt.cfg.Redis)
			if err != nil {
				return unavailable(name, err)
			}
			closers = append(closers, client.Close)
			sinks = append(sinks, report.NewRedisSink(client, rt.cfg.Redis.KeyPrefix, rt.cfg.Redis.ReportTTL))
		case "database":
			db, err := database.New(ctx, rt.cfg.Database)
			if err != nil {
				return unavailable(name, err)
			}
			closers = append(closers, db.Close)
			sink, err := report.NewSQLSink(ctx, db, rt.cfg.Database.Table)
			if err != nil {
				return unavailable(name, err)
			}
			sinks = append(sinks, sink)
		case "kafka":
			producer := kafka.NewProducer(rt.cfg.Kafka, rt.cfg.Kafka.Topics.Entries)
			closers = append(closers, producer.Close)
			sinks = append(sinks, report.NewKafkaSink(producer))
		default:
			closeAll()
			return nil, func() {}, apperrors.Newf(apperrors.ErrInvalidInput, apperrors.ExitUsage, "unknown sink %q", name)
		}
	}
	return sinks, closeAll, nil
}
