//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/training-suitability/internal/adapter/kafka"
	"github.com/couchcryptid/training-suitability/internal/config"
	"github.com/couchcryptid/training-suitability/internal/domain"
	"github.com/couchcryptid/training-suitability/internal/observability"
	"github.com/couchcryptid/training-suitability/internal/pipeline"
)

const (
	testSourceTopic = "test-observations"
	testSinkTopic   = "test-assessments"
)

// assessmentMessage holds a deserialized message read from the sink topic.
type assessmentMessage struct {
	Assessment domain.Assessment
	Key        string
	Headers    map[string]string
}

func readAssessment(ctx context.Context, t *testing.T, consumer *kafkago.Reader) assessmentMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var a domain.Assessment
	require.NoError(t, json.Unmarshal(msg.Value, &a), "unmarshal sink message")

	return assessmentMessage{Assessment: a, Key: string(msg.Key), Headers: headers}
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}
}

func newProducer(t *testing.T, broker string) *kafkago.Writer {
	t.Helper()
	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	return producer
}

func newSinkConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestKafkaReaderWriter verifies the adapter layer round-trips one observation
// through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-reader")

	record := loadMockData(t)[0] // London, sunny and mild
	payload, err := json.Marshal(record.Observation)
	require.NoError(t, err)

	require.NoError(t, newProducer(t, broker).WriteMessages(ctx, kafkago.Message{
		Key:   []byte(record.Observation.Location),
		Value: payload,
	}))

	// The consumer group may need time to rebalance before partitions are
	// assigned, so keep extracting until the message arrives.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for len(batch) == 0 {
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("London"), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	assessor := pipeline.NewAssessmentTransformer(newPredictor(t), discardLogger())
	a, err := assessor.Assess(ctx, raw)
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.LoadBatch(ctx, []domain.Assessment{a}))

	am := readAssessment(ctx, t, newSinkConsumer(t, broker))
	assert.Equal(t, "London", am.Key)
	assert.Equal(t, "suitable", am.Headers["verdict"])
	_, err = time.Parse(time.RFC3339, am.Headers["processed_at"])
	assert.NoError(t, err, "processed_at should be valid RFC3339")
	assert.NotContains(t, am.Headers, "failure_kind")

	require.NotNil(t, am.Assessment.Outcome)
	assert.Equal(t, [5]int{0, 1, 0, 1, 1}, am.Assessment.Outcome.Features.Binary())
	assert.Equal(t, "high", am.Assessment.Outcome.Confidence)
}

// TestPipelineEndToEnd runs the full pipeline (Reader, AssessmentTransformer,
// Writer) against real Kafka and checks every fixture's verdict.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-pipeline")

	records := loadMockData(t)
	expected := make(map[string]mockRecord, len(records))
	msgs := make([]kafkago.Message, 0, len(records))
	for _, rec := range records {
		payload, err := json.Marshal(rec.Observation)
		require.NoError(t, err)
		expected[rec.Observation.Location] = rec
		msgs = append(msgs, kafkago.Message{Key: []byte(rec.Observation.Location), Value: payload})
	}
	require.NoError(t, newProducer(t, broker).WriteMessages(ctx, msgs...))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	assessor := pipeline.NewAssessmentTransformer(newPredictor(t), discardLogger())
	p := pipeline.New(reader, assessor, writer, discardLogger(), observability.NewMetricsForTesting(), 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := newSinkConsumer(t, broker)
	received := make([]assessmentMessage, 0, len(records))
	for len(received) < len(records) {
		received = append(received, readAssessment(ctx, t, consumer))
	}

	pipelineCancel()
	require.NoError(t, <-errCh)
	require.NoError(t, p.CheckReadiness(ctx))

	verdicts := map[string]int{}
	for _, am := range received {
		rec, ok := expected[am.Key]
		require.True(t, ok, "unexpected key %q", am.Key)

		verdicts[am.Headers["verdict"]]++
		assert.Equal(t, rec.ExpectedVerdict, am.Headers["verdict"], am.Key)
		assert.Equal(t, rec.ExpectedFeatures, am.Assessment.Features.Binary(), am.Key)
		assert.Contains(t, am.Headers, "processed_at")

		if rec.ExpectedVerdict == "failed" {
			require.NotNil(t, am.Assessment.Failure, am.Key)
			assert.Equal(t, domain.FailureValidation, am.Assessment.Failure.Kind)
			assert.Equal(t, "validation", am.Headers["failure_kind"])
		}
	}

	want := map[string]int{}
	for _, rec := range records {
		want[rec.ExpectedVerdict]++
	}
	assert.Equal(t, want, verdicts)
}

// TestPipelinePoisonMessage verifies that an unparseable message is skipped
// and the pipeline keeps processing valid messages.
func TestPipelinePoisonMessage(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-poison")

	valid, err := json.Marshal(loadMockData(t)[1].Observation) // Mumbai, heavy rain
	require.NoError(t, err)

	require.NoError(t, newProducer(t, broker).WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("Mumbai"), Value: valid},
	))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	assessor := pipeline.NewAssessmentTransformer(newPredictor(t), discardLogger())
	p := pipeline.New(reader, assessor, writer, discardLogger(), observability.NewMetricsForTesting(), 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := newSinkConsumer(t, broker)
	am := readAssessment(ctx, t, consumer)
	assert.Equal(t, "Mumbai", am.Key)
	assert.Equal(t, "not_suitable", am.Headers["verdict"])

	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err = consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
