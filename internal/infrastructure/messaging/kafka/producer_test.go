package kafka

import (
	"context"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/ScenarioIQ/internal/domain/scenario"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScenarioIQ/pkg/errors"
	"github.com/turtacn/ScenarioIQ/pkg/types/common"
)

type fakeWriter struct {
	msgs []kafkago.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func changedEvent(scenarioID string) scenario.ChangedEvent {
	return scenario.ChangedEvent{
		BaseEvent:   common.NewBaseEvent(scenarioID),
		ScenarioID:  scenarioID,
		ContentHash: "deadbeef",
		Change:      "updated",
	}
}

func TestPublisher_PublishRoundTrip(t *testing.T) {
	writer := &fakeWriter{}
	pub := &Publisher{writer: writer, logger: logging.NewNopLogger()}

	ev := changedEvent("SCN-0001")
	require.NoError(t, pub.Publish(context.Background(), ev))
	require.Len(t, writer.msgs, 1)

	msg := writer.msgs[0]
	assert.Equal(t, "SCN-0001", string(msg.Key))

	env, err := DecodeEnvelope(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, "scenario.changed", env.EventType)
	assert.Equal(t, ev.EventID(), env.EventID)

	decoded, err := env.ChangedEvent()
	require.NoError(t, err)
	assert.Equal(t, "SCN-0001", decoded.ScenarioID)
	assert.Equal(t, "deadbeef", decoded.ContentHash)
	assert.Equal(t, "updated", decoded.Change)
}

func TestPublisher_EmptyPublishIsNoop(t *testing.T) {
	writer := &fakeWriter{err: errors.Internal("must not be called")}
	pub := &Publisher{writer: writer, logger: logging.NewNopLogger()}

	require.NoError(t, pub.Publish(context.Background()))
}

func TestPublisher_WriteFailure(t *testing.T) {
	writer := &fakeWriter{err: errors.Internal("broker down")}
	pub := &Publisher{writer: writer, logger: logging.NewNopLogger()}

	err := pub.Publish(context.Background(), changedEvent("SCN-0001"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeMessagingError))
}

func TestPublisher_ClosedRejectsPublish(t *testing.T) {
	pub := &Publisher{writer: &fakeWriter{}, logger: logging.NewNopLogger()}
	require.NoError(t, pub.Close())

	err := pub.Publish(context.Background(), changedEvent("SCN-0001"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeMessagingError))
}

func TestEnvelope_ChangedEventTypeMismatch(t *testing.T) {
	env := Envelope{EventType: "something.else"}
	_, err := env.ChangedEvent()
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerialization))
}
