package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"admin-store/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *memoryWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memoryWriter) Close() error { return nil }

func TestProducerPublishesStoreEvent(t *testing.T) {
	w := &memoryWriter{}
	p := NewProducerWithWriter(w)

	event := models.StoreEvent{EventID: "e1", Type: models.EventTypeDelete, Entity: "coupons", ID: "c1"}
	require.NoError(t, p.PublishEvent(context.Background(), "coupons-c1", event))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "coupons-c1", string(msg.Key))
	assert.Equal(t, []kafka.Header{
		{Key: "entity", Value: []byte("coupons")},
		{Key: "event_type", Value: []byte(models.EventTypeDelete)},
	}, msg.Headers)

	var decoded models.StoreEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.ID, decoded.ID)
}

func TestProducerWrapsWriteErrors(t *testing.T) {
	p := NewProducerWithWriter(&memoryWriter{err: errors.New("no leader")})

	err := p.PublishEvent(context.Background(), "k", map[string]string{"a": "b"})
	assert.ErrorContains(t, err, "failed to write message to kafka")
}
