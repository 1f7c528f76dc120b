package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/af3-portal/internal/domain/job"
	"github.com/turtacn/af3-portal/internal/testutil"
)

type recordingPublisher struct {
	msgs []*Message
	err  error
}

func (r *recordingPublisher) Publish(_ context.Context, msg *Message) error {
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, msg)
	return nil
}

func TestNewEnvelope(t *testing.T) {
	at := time.Date(2024, 1, 31, 9, 30, 0, 0, time.FixedZone("X", 3600))
	env, err := NewEnvelope(job.EventSubmitted, map[string]string{"k": "v"}, at)
	require.NoError(t, err)

	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, "af3portal", env.Source)
	assert.Equal(t, "1.0", env.SchemaVersion)
	assert.Equal(t, time.UTC, env.Timestamp.Location())
	assert.JSONEq(t, `{"k":"v"}`, string(env.Payload))
}

func TestJobEventPublisher_PublishJobEvent(t *testing.T) {
	rec := &recordingPublisher{}
	log := testutil.NewMockLogger()
	pub := NewJobEventPublisher(rec, "", log)

	ev := job.Event{
		Type:           job.EventSubmitted,
		JobName:        "run1",
		Timestamp:      "20240131T093000",
		SchedulerJobID: "12345",
		Entities:       2,
	}
	ctx := WithTraceID(context.Background(), "req-1")
	require.NoError(t, pub.PublishJobEvent(ctx, ev))

	require.Len(t, rec.msgs, 1)
	msg := rec.msgs[0]
	assert.Equal(t, DefaultTopic, msg.Topic)
	assert.Equal(t, "run1", string(msg.Key))
	assert.Equal(t, job.EventSubmitted, msg.Headers["event_type"])

	var env EventEnvelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, job.EventSubmitted, env.EventType)
	assert.Equal(t, "req-1", env.TraceID)

	var payload job.Event
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "12345", payload.SchedulerJobID)
	assert.Equal(t, 2, payload.Entities)

	assert.True(t, log.HasMessage("debug", "job event published"))
}

func TestJobEventPublisher_PropagatesError(t *testing.T) {
	rec := &recordingPublisher{err: ErrProducerClosed}
	pub := NewJobEventPublisher(rec, "custom", testutil.NewMockLogger())

	err := pub.PublishJobEvent(context.Background(), job.Event{Type: job.EventFailed, JobName: "x"})
	assert.Equal(t, ErrProducerClosed, err)
	assert.Empty(t, rec.msgs)
}

func TestNoopJobEventPublisher(t *testing.T) {
	var _ JobEvents = (*JobEventPublisher)(nil)
	assert.NoError(t, NewNoopJobEventPublisher().PublishJobEvent(context.Background(), job.Event{Type: job.EventSubmitted}))
}
