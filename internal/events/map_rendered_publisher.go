package events

import (
	"context"
	"fmt"
	"time"

	routemapDomain "github.com/colectivo/service-routemap/internal/domain/routemap"
	"github.com/colectivo/service-routemap/internal/platform/kafka"
)

// EventPublisher is the part of a Kafka producer the publisher needs.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// MapRenderedPublisher notifies the host over Kafka when a render cycle ends.
type MapRenderedPublisher struct {
	producer EventPublisher
}

// NewMapRenderedPublisher creates a new MapRenderedPublisher.
func NewMapRenderedPublisher(producer EventPublisher) *MapRenderedPublisher {
	return &MapRenderedPublisher{producer: producer}
}

// MapRendered publishes a MapRenderedEvent keyed by session.
func (p *MapRenderedPublisher) MapRendered(ctx context.Context, report routemapDomain.CycleReport) error {
	evt := MapRenderedEvent{
		SessionID:     report.SessionID,
		MarkersDrawn:  report.MarkersDrawn,
		BatchesIssued: report.BatchesIssued,
		RoutesDrawn:   report.RoutesDrawn,
		RoutesFailed:  report.RoutesFailed,
		ParseError:    report.ParseError,
		Skipped:       report.Skipped,
		OccurredAt:    time.Now().UTC(),
	}

	ce, err := kafka.NewCloudEvent(SourceRouteMap, MapRendered, evt)
	if err != nil {
		return fmt.Errorf("failed to create cloud event: %w", err)
	}
	ce.Subject = report.SessionID.String()

	return p.producer.PublishEvent(ctx, TopicRouteMapEvents, ce)
}
