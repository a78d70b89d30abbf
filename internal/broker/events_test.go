package broker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"admin-store/internal/models"
	"admin-store/internal/store"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	sent chan struct{}
	err  error
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{sent: make(chan struct{}, 16)}
}

func (p *recordingPublisher) PublishEvent(_ context.Context, key string, _ interface{}) error {
	p.mu.Lock()
	p.keys = append(p.keys, key)
	p.mu.Unlock()
	p.sent <- struct{}{}
	return p.err
}

func (p *recordingPublisher) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.keys...)
}

func waitFor(t *testing.T, ch <-chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for publish %d/%d", i+1, n)
		}
	}
}

func TestEventPublisherForwardsStoreEvents(t *testing.T) {
	pub := newRecordingPublisher()
	ep := NewEventPublisher(pub, 8)

	s := store.New(store.WithLogger(zap.NewNop()))
	ep.Attach(s.Bus())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ep.Run(ctx)

	created, err := s.Create(store.KindCategories, models.Category{Name: "Kitchen"})
	require.NoError(t, err)
	id := created.(models.Category).ID
	require.NoError(t, s.Delete(store.KindCategories, id))

	waitFor(t, pub.sent, 2)
	assert.Equal(t, []string{"categories-" + id, "categories-" + id}, pub.Keys())
}

func TestEventPublisherDropsWhenQueueFull(t *testing.T) {
	pub := newRecordingPublisher()
	ep := NewEventPublisher(pub, 1)

	ep.Enqueue(models.StoreEvent{Entity: "products", ID: "a"})
	ep.Enqueue(models.StoreEvent{Entity: "products", ID: "b"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ep.Run(ctx)

	assert.Equal(t, []string{"products-a"}, pub.Keys())
}

func TestEventPublisherSurvivesPublishErrors(t *testing.T) {
	pub := newRecordingPublisher()
	pub.err = errors.New("broker down")
	ep := NewEventPublisher(pub, 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ep.Run(ctx)
		close(done)
	}()

	ep.Enqueue(models.StoreEvent{Entity: "orders", ID: "o1"})
	ep.Enqueue(models.StoreEvent{Entity: "orders", ID: "o2"})
	waitFor(t, pub.sent, 2)

	cancel()
	<-done
	assert.Len(t, pub.Keys(), 2)
}

func TestEventHandlerRoutesStoreEvents(t *testing.T) {
	var got []models.StoreEvent
	h := NewEventHandler()
	h.OnStoreEvent(func(_ context.Context, e models.StoreEvent) error {
		got = append(got, e)
		return nil
	})

	raw, err := json.Marshal(models.StoreEvent{EventID: "e1", Type: models.EventTypeUpdate, Entity: "products", ID: "p1"})
	require.NoError(t, err)
	require.NoError(t, h.HandleMessage(context.Background(), kafka.Message{Value: raw}))

	require.NoError(t, h.HandleMessage(context.Background(), kafka.Message{Value: []byte(`{"type":"PING"}`)}))
	assert.Error(t, h.HandleMessage(context.Background(), kafka.Message{Value: []byte("{")}))

	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].ID)
}
