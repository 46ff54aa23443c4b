//go:build integration

package main_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/colectivo/service-routemap/internal/application"
	routemapEvents "github.com/colectivo/service-routemap/internal/events"
	"github.com/colectivo/service-routemap/internal/graphhopper"
	"github.com/colectivo/service-routemap/internal/platform/kafka"
	"github.com/colectivo/service-routemap/internal/repository"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"go.uber.org/zap"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	KafkaBrokers []string
	RoutingURL   string
	Cleanup      func()
}

// routeMapStack holds wired-up route map service components.
type routeMapStack struct {
	Service         *application.RenderService
	Consumer        *routemapEvents.RenderCommandConsumer
	CleanupProducer func()
}

// setupInfra starts a Kafka testcontainer and a fake routing API.
func setupInfra(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	// Start Kafka container using confluent-local (supports KRaft natively).
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	// Pre-create required topics.
	createTopics(t, kafkaBrokers, routemapEvents.TopicRouteMapCommands, routemapEvents.TopicRouteMapEvents)

	routing := httptest.NewServer(http.HandlerFunc(echoRoute))

	cleanup := func() {
		routing.Close()
		if err := testcontainers.TerminateContainer(kafkaContainer); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
	}

	return &testInfra{
		KafkaBrokers: kafkaBrokers,
		RoutingURL:   routing.URL,
		Cleanup:      cleanup,
	}
}

// echoRoute answers a routing request with a path through the requested points.
func echoRoute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Points [][2]float64 `json:"points"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"paths": []interface{}{
			map[string]interface{}{
				"points": map[string]interface{}{
					"type":        "LineString",
					"coordinates": req.Points,
				},
			},
		},
	})
}

// setupRouteMapStack wires up the full route map service stack.
func setupRouteMapStack(t *testing.T, infra *testInfra) *routeMapStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	sessionRepo := repository.NewMemorySessionRepository()
	client := graphhopper.NewClient(graphhopper.Config{
		BaseURL: infra.RoutingURL,
		Timeout: 5 * time.Second,
	}, logger)
	producer := kafka.NewProducer(infra.KafkaBrokers, logger)
	svc := application.NewRenderService(
		sessionRepo,
		client,
		application.KeySourceFunc(func() string { return "integration-key" }),
		routemapEvents.NewMapRenderedPublisher(producer),
		application.RenderOptions{},
		logger,
	)

	groupID := fmt.Sprintf("test-routemap-%s", uuid.New().String()[:8])
	consumer := routemapEvents.NewRenderCommandConsumer(infra.KafkaBrokers, groupID, svc, logger)

	return &routeMapStack{
		Service:         svc,
		Consumer:        consumer,
		CleanupProducer: func() { _ = producer.Close() },
	}
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, ce)
	require.NoError(t, err, "failed to publish event")
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
