package worker

import (
	"context"
	"fmt"

	"admin-store/internal/broker"
	"admin-store/internal/models"
	"admin-store/internal/store"
	"admin-store/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditSink persists activity entries outside the store
type AuditSink interface {
	Record(ctx context.Context, eventID string, entry models.ActivityLog) (bool, error)
}

// ActivityWorker turns store events into activity log entries
type ActivityWorker struct {
	consumer *broker.Consumer
	handler  *broker.EventHandler
	store    *store.Store
	sink     AuditSink
	actor    string
	logger   *zap.Logger
}

// NewActivityWorker creates a new activity worker. consumer and sink may be nil.
func NewActivityWorker(consumer *broker.Consumer, s *store.Store, sink AuditSink) *ActivityWorker {
	w := &ActivityWorker{
		consumer: consumer,
		handler:  broker.NewEventHandler(),
		store:    s,
		sink:     sink,
		actor:    "system",
		logger:   util.GetLogger(),
	}
	w.handler.OnStoreEvent(w.Handle)
	return w
}

// Start consumes store events from Kafka until ctx is done
func (w *ActivityWorker) Start(ctx context.Context) error {
	if w.consumer == nil {
		return fmt.Errorf("activity worker has no consumer")
	}
	w.logger.Info("Starting activity worker")
	return w.consumer.StartConsuming(ctx, w.handler.HandleMessage)
}

// Listen records activity directly from the store's bus, for deployments without Kafka
func (w *ActivityWorker) Listen() *store.Subscription {
	return w.store.Subscribe(func(e models.StoreEvent) {
		if err := w.Handle(context.Background(), e); err != nil {
			w.logger.Error("Failed to record activity", zap.Error(err))
		}
	})
}

// Stop stops the worker
func (w *ActivityWorker) Stop() error {
	w.logger.Info("Stopping activity worker")
	if w.consumer == nil {
		return nil
	}
	return w.consumer.Close()
}

// Handle records one event. Activity log events are ignored.
func (w *ActivityWorker) Handle(ctx context.Context, event models.StoreEvent) error {
	if event.Entity == string(store.KindActivityLogs) {
		return nil
	}

	entry := models.ActivityLog{
		Base:        models.Base{ID: uuid.New().String()},
		UserID:      w.actor,
		Action:      event.Type,
		Entity:      event.Entity,
		EntityID:    event.ID,
		Description: describe(event),
	}

	if w.sink != nil {
		eventID := event.EventID
		if eventID == "" {
			eventID = entry.ID
		}
		audited := entry
		audited.CreatedAt = event.Timestamp
		recorded, err := w.sink.Record(ctx, eventID, audited)
		if err != nil {
			return fmt.Errorf("failed to write audit entry: %w", err)
		}
		if !recorded {
			w.logger.Debug("Event already recorded", zap.String("event_id", eventID))
			return nil
		}
	}

	if _, err := w.store.Create(store.KindActivityLogs, entry); err != nil {
		return fmt.Errorf("failed to store activity log: %w", err)
	}
	util.ActivityLogsRecordedTotal.Inc()
	return nil
}

func describe(e models.StoreEvent) string {
	var verb string
	switch e.Type {
	case models.EventTypeCreate:
		verb = "Created"
	case models.EventTypeUpdate:
		verb = "Updated"
	case models.EventTypeDelete:
		verb = "Deleted"
	default:
		verb = e.Type
	}
	return fmt.Sprintf("%s %s %s", verb, e.Entity, e.ID)
}
