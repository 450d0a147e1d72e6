//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/training-suitability/internal/adapter/scoring"
	"github.com/couchcryptid/training-suitability/internal/domain"
	"github.com/couchcryptid/training-suitability/internal/observability"
	"github.com/couchcryptid/training-suitability/internal/predictor"
	"github.com/couchcryptid/training-suitability/internal/scoringstub"
)

const kafkaImage = "confluentinc/confluent-local:7.5.0"

type mockRecord struct {
	Observation      domain.WeatherObservation `json:"observation"`
	ExpectedFeatures [5]int                    `json:"expected_features"`
	ExpectedVerdict  string                    `json:"expected_verdict"`
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, kafkaImage, tckafka.WithClusterID("training-assessor-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "find controller")

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}), "create topic %s", topic)
}

// loadMockData reads the observation fixtures shared with the pipeline tests.
func loadMockData(t *testing.T) []mockRecord {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "data", "mock", "observations.json"))
	require.NoError(t, err, "read mock data")

	var records []mockRecord
	require.NoError(t, json.Unmarshal(data, &records))
	require.NotEmpty(t, records)
	return records
}

// newPredictor wires a predictor service to an in-process reference scoring server.
func newPredictor(t *testing.T) *predictor.Service {
	t.Helper()
	logger := discardLogger()
	stub := httptest.NewServer(scoringstub.New(scoringstub.TableModel{}, logger).Routes())
	t.Cleanup(stub.Close)

	transport := scoring.NewTransport(stub.URL, 5*time.Second, logger)
	return predictor.New(transport, logger, observability.NewMetricsForTesting())
}
