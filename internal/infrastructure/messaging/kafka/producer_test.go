package kafka

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/af3-portal/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/af3-portal/pkg/errors"
)

type mockKafkaWriter struct {
	mu       sync.Mutex
	writeFn  func(ctx context.Context, msgs ...kafka.Message) error
	closeFn  func() error
	messages []kafka.Message
	closed   int
}

func (m *mockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeFn != nil {
		if err := m.writeFn(ctx, msgs...); err != nil {
			return err
		}
	}
	m.messages = append(m.messages, msgs...)
	return nil
}

func (m *mockKafkaWriter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	if m.closeFn != nil {
		return m.closeFn()
	}
	return nil
}

func newTestProducer(w *mockKafkaWriter) *Producer {
	return newProducerWithWriter(w, ProducerConfig{Brokers: []string{"localhost:9092"}}, logging.NewNopLogger())
}

func TestValidateProducerConfig(t *testing.T) {
	assert.Error(t, ValidateProducerConfig(ProducerConfig{}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}, MaxRetries: -1}))
	assert.NoError(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}}))
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(ProducerConfig{}, logging.NewNopLogger())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	p, err := NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}, Acks: "all"}, logging.NewNopLogger())
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestProducer_Publish(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)

	err := p.Publish(context.Background(), &Message{
		Topic:   "af3portal.jobs",
		Key:     []byte("run1"),
		Value:   []byte(`{"a":1}`),
		Headers: map[string]string{"event_type": "job.submitted"},
	})
	require.NoError(t, err)

	require.Len(t, w.messages, 1)
	got := w.messages[0]
	assert.Equal(t, "af3portal.jobs", got.Topic)
	assert.Equal(t, "run1", string(got.Key))
	assert.False(t, got.Time.IsZero())
	require.Len(t, got.Headers, 1)
	assert.Equal(t, "event_type", got.Headers[0].Key)
	assert.Equal(t, int64(1), p.Sent())
}

func TestProducer_PublishValidation(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{})
	ctx := context.Background()

	assert.Error(t, p.Publish(ctx, &Message{Value: []byte("x")}))
	assert.Error(t, p.Publish(ctx, &Message{Topic: "t"}))
	assert.Error(t, p.Publish(ctx, &Message{Topic: "t", Value: []byte(strings.Repeat("x", 2<<20))}))
	assert.Zero(t, p.Sent())
}

func TestProducer_PublishWriterError(t *testing.T) {
	w := &mockKafkaWriter{writeFn: func(context.Context, ...kafka.Message) error {
		return stderrors.New("broker unavailable")
	}}
	p := newTestProducer(w)

	err := p.Publish(context.Background(), &Message{Topic: "t", Value: []byte("x")})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeExternalService))
	assert.Equal(t, int64(1), p.Failed())
}

func TestProducer_Close(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, w.closed)

	err := p.Publish(context.Background(), &Message{Topic: "t", Value: []byte("x")})
	assert.Equal(t, ErrProducerClosed, err)
}
