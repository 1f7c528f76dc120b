package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/af3-portal/internal/domain/job"
	"github.com/turtacn/af3-portal/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/af3-portal/pkg/errors"
)

// DefaultTopic receives job.submitted and job.failed envelopes.
const DefaultTopic = "af3portal.jobs"

const (
	eventSource   = "af3portal"
	schemaVersion = "1.0"
)

// EventEnvelope standardizes event messages.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	TraceID       string            `json:"trace_id,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewEnvelope wraps payload in an envelope with a fresh event id.
func NewEnvelope(eventType string, payload interface{}, at time.Time) (*EventEnvelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode event payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        eventSource,
		Timestamp:     at.UTC(),
		SchemaVersion: schemaVersion,
		Payload:       raw,
	}, nil
}

// JobEvents publishes job lifecycle events.
type JobEvents interface {
	PublishJobEvent(ctx context.Context, ev job.Event) error
}

// publisher is the part of Producer that JobEventPublisher needs.
type publisher interface {
	Publish(ctx context.Context, msg *Message) error
}

// JobEventPublisher turns job events into envelopes keyed by job name, so
// events for one job land on one partition in order.
type JobEventPublisher struct {
	producer publisher
	topic    string
	logger   logging.Logger
	now      func() time.Time
}

// NewJobEventPublisher returns a publisher writing to topic (DefaultTopic when empty).
func NewJobEventPublisher(p publisher, topic string, logger logging.Logger) *JobEventPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &JobEventPublisher{producer: p, topic: topic, logger: logger, now: time.Now}
}

// PublishJobEvent publishes one job event.
func (j *JobEventPublisher) PublishJobEvent(ctx context.Context, ev job.Event) error {
	env, err := NewEnvelope(ev.Type, ev, j.now())
	if err != nil {
		return err
	}
	if requestID, ok := ctx.Value(traceIDKey{}).(string); ok {
		env.TraceID = requestID
	}
	value, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode event envelope")
	}

	msg := &Message{
		Topic:   j.topic,
		Key:     []byte(ev.JobName),
		Value:   value,
		Headers: map[string]string{"event_type": ev.Type, "schema_version": schemaVersion},
		Time:    env.Timestamp,
	}
	if err := j.producer.Publish(ctx, msg); err != nil {
		return err
	}
	j.logger.Debug("job event published",
		logging.String("event_type", ev.Type),
		logging.String("job", ev.JobName),
		logging.String("event_id", env.EventID))
	return nil
}

type traceIDKey struct{}

// WithTraceID attaches a trace id that PublishJobEvent copies into envelopes.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, id)
}

type noopJobEventPublisher struct{}

// NewNoopJobEventPublisher returns the publisher used when Kafka is disabled.
func NewNoopJobEventPublisher() JobEvents {
	return noopJobEventPublisher{}
}

func (noopJobEventPublisher) PublishJobEvent(context.Context, job.Event) error { return nil }
