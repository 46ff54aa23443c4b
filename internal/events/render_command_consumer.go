package events

import (
	"context"

	"github.com/colectivo/service-routemap/internal/application"
	"github.com/colectivo/service-routemap/internal/platform/kafka"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RenderCommandConsumer listens for render requests and runs them.
type RenderCommandConsumer struct {
	consumer *kafka.Consumer
	service  *application.RenderService
	logger   *zap.Logger
}

// NewRenderCommandConsumer creates a new RenderCommandConsumer.
func NewRenderCommandConsumer(
	brokers []string,
	groupID string,
	service *application.RenderService,
	logger *zap.Logger,
) *RenderCommandConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicRouteMapCommands, logger)
	return &RenderCommandConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming render commands. This blocks until the context is cancelled.
func (c *RenderCommandConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *RenderCommandConsumer) Close() error {
	return c.consumer.Close()
}

func (c *RenderCommandConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	return c.handle(ctx, msg.Value)
}

func (c *RenderCommandConsumer) handle(ctx context.Context, value []byte) error {
	cloudEvent, err := kafka.ParseCloudEvent(value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from command topic",
			zap.Error(err),
			zap.String("raw", string(value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case RenderRequested:
		return c.handleRenderRequested(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled command type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *RenderCommandConsumer) handleRenderRequested(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt RenderRequestedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse RenderRequestedEvent data",
			zap.Error(err),
		)
		return nil
	}

	if _, err := c.service.EnsureSession(ctx, evt.SessionID); err != nil {
		return err
	}

	report, err := c.service.Render(ctx, evt.SessionID, string(evt.Options))
	if err != nil {
		c.logger.Error("failed to render requested options",
			zap.String("session_id", evt.SessionID.String()),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("render command processed",
		zap.String("session_id", evt.SessionID.String()),
		zap.Int("routes_drawn", report.RoutesDrawn),
		zap.Int("routes_failed", report.RoutesFailed),
	)
	return nil
}
