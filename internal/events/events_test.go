package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"luxdrive/internal/config"
	"luxdrive/internal/models"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaPublisherWithWriter(w, zap.NewNop())

	event := models.BookingEvent{
		Type:         models.EventBookingCreated,
		BookingID:    "bk_1",
		TrackingCode: "LXD-AAAAAAAA",
		Status:       models.StatusPending,
		OccurredAt:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.Publish(context.Background(), event))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "bk_1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, models.EventBookingCreated, string(msg.Headers[0].Value))

	var decoded models.BookingEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.TrackingCode, decoded.TrackingCode)
	assert.Equal(t, models.StatusPending, decoded.Status)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := NewKafkaPublisherWithWriter(&fakeWriter{err: errors.New("broker down")}, zap.NewNop())
	err := p.Publish(context.Background(), models.BookingEvent{Type: models.EventBookingCancelled})
	assert.ErrorContains(t, err, "broker down")
}

func TestNew(t *testing.T) {
	p, err := New(&config.Config{EventsDriver: config.EventsNone}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, Noop{}, p)
	assert.NoError(t, p.Publish(context.Background(), models.BookingEvent{}))

	p, err = New(&config.Config{EventsDriver: config.EventsKafka, KafkaBrokers: "a:9092,b:9092", EventsTopic: "bookings"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &KafkaPublisher{}, p)
	require.NoError(t, p.Close())

	_, err = New(&config.Config{EventsDriver: "carrier-pigeon"}, zap.NewNop())
	assert.Error(t, err)
}
