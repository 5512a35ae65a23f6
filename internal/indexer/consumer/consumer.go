// Package consumer feeds lines read from the Kafka lines topic into the
// indexer engine.
package consumer

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/kafka"
)

// LineConsumer wraps a Kafka consumer to drive the engine.
type LineConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

func New(kafkaConsumer *kafka.Consumer) *LineConsumer {
	return &LineConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "line-consumer"),
	}
}

// Start consumes until ctx is cancelled or the consumer stops on its own.
func (lc *LineConsumer) Start(ctx context.Context) error {
	lc.logger.Info("line consumer starting")
	return lc.consumer.Start(ctx)
}

// HandleLine returns a MessageHandler that ingests each message value as one
// line. The line number is the message offset plus one, so redelivered
// messages keep their number.
func HandleLine(engine *indexer.Engine) kafka.MessageHandler {
	logger := slog.Default().With("component", "line-consumer")
	return func(ctx context.Context, msg kafka.Message) error {
		line := int(msg.Offset) + 1
		st := engine.IngestLine(line, string(msg.Value))
		logger.Debug("line ingested",
			"source", string(msg.Key),
			"partition", msg.Partition,
			"line", line,
			"words", st.Words,
			"rejected", st.Rejected,
		)
		return nil
	}
}
