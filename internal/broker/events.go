package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"admin-store/internal/models"
	"admin-store/internal/store"
	"admin-store/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	defaultQueueSize = 256
	flushTimeout     = 5 * time.Second
)

// Publisher sends a keyed event to the broker
type Publisher interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher forwards store events to Kafka. Bus delivery only enqueues;
// Run does the network I/O so store listeners never block on the broker.
type EventPublisher struct {
	publisher Publisher
	queue     chan models.StoreEvent
	logger    *zap.Logger
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(publisher Publisher, queueSize int) *EventPublisher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &EventPublisher{
		publisher: publisher,
		queue:     make(chan models.StoreEvent, queueSize),
		logger:    util.NamedLogger("events"),
	}
}

// Attach subscribes the publisher to a store's bus
func (ep *EventPublisher) Attach(bus *store.Bus) *store.Subscription {
	return bus.Subscribe(ep.Enqueue)
}

// Enqueue queues an event for publishing, dropping it when the queue is full
func (ep *EventPublisher) Enqueue(event models.StoreEvent) {
	select {
	case ep.queue <- event:
	default:
		util.EventsPublishedTotal.WithLabelValues("dropped").Inc()
		ep.logger.Warn("Event queue full, dropping event",
			zap.String("entity", event.Entity),
			zap.String("id", event.ID))
	}
}

// Run publishes queued events until ctx is done, then flushes what is left
func (ep *EventPublisher) Run(ctx context.Context) {
	for {
		select {
		case event := <-ep.queue:
			ep.publish(ctx, event)
		case <-ctx.Done():
			ep.flush(context.WithoutCancel(ctx))
			return
		}
	}
}

func (ep *EventPublisher) flush(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()

	for {
		select {
		case event := <-ep.queue:
			ep.publish(ctx, event)
		default:
			return
		}
	}
}

func (ep *EventPublisher) publish(ctx context.Context, event models.StoreEvent) {
	key := fmt.Sprintf("%s-%s", event.Entity, event.ID)
	if err := ep.publisher.PublishEvent(ctx, key, event); err != nil {
		util.EventsPublishedTotal.WithLabelValues("error").Inc()
		ep.logger.Error("Failed to publish store event",
			zap.String("key", key),
			zap.String("type", event.Type),
			zap.Error(err))
		return
	}
	util.EventsPublishedTotal.WithLabelValues("ok").Inc()
}

// EventHandler handles incoming events
type EventHandler struct {
	onStoreEvent func(context.Context, models.StoreEvent) error
	logger       *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.NamedLogger("events")}
}

// OnStoreEvent registers the handler for store events
func (eh *EventHandler) OnStoreEvent(handler func(context.Context, models.StoreEvent) error) {
	eh.onStoreEvent = handler
}

// HandleMessage decodes a store event and routes it to the registered handler
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var event models.StoreEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal store event: %w", err)
	}

	switch event.Type {
	case models.EventTypeCreate, models.EventTypeUpdate, models.EventTypeDelete:
		if eh.onStoreEvent != nil {
			return eh.onStoreEvent(ctx, event)
		}
	default:
		eh.logger.Warn("Unhandled event type", zap.String("type", event.Type))
	}

	return nil
}
