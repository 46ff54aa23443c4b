package kafka

import (
	"context"
	"errors"
	"io"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// DefaultFetchBackoff is how long Consume waits after a failed fetch.
const DefaultFetchBackoff = time.Second

// MessageHandler processes one message. Returned errors are logged and the
// message is still committed.
type MessageHandler func(ctx context.Context, msg kafkago.Message) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Consumer reads one topic as part of a consumer group.
type Consumer struct {
	reader  messageReader
	backoff time.Duration
	logger  *zap.Logger
}

// NewConsumer creates a Consumer for the given group and topic.
func NewConsumer(brokers []string, groupID, topic string, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader: kafkago.NewReader(kafkago.ReaderConfig{
			Brokers:  brokers,
			GroupID:  groupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		backoff: DefaultFetchBackoff,
		logger:  logger.With(zap.String("topic", topic), zap.String("group_id", groupID)),
	}
}

// Consume blocks, feeding messages to handler until ctx is cancelled or the
// reader is closed. Fetch errors are logged and retried after a backoff.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return err
			}
			c.logger.Error("failed to fetch message, retrying",
				zap.Duration("backoff", c.backoff),
				zap.Error(err),
			)
			if !c.wait(ctx) {
				return ctx.Err()
			}
			continue
		}

		if err := handler(ctx, msg); err != nil {
			c.logger.Error("message handler failed",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("failed to commit message", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

func (c *Consumer) wait(ctx context.Context) bool {
	if c.backoff <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(c.backoff)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
