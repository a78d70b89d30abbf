package store

import (
	"sync"

	"admin-store/internal/models"

	"go.uber.org/zap"
)

// Listener receives store events
type Listener func(event models.StoreEvent)

type subscriber struct {
	id uint64
	fn Listener
}

// Bus fans store events out to listeners in registration order
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscriber
	logger *zap.Logger
}

// Subscription identifies one registered listener
type Subscription struct {
	id  uint64
	bus *Bus
}

// NewBus creates an event bus with no listeners
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{logger: logger}
}

// Subscribe registers a listener and returns its subscription
func (b *Bus) Subscribe(fn Listener) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.subs = append(b.subs, subscriber{id: b.nextID, fn: fn})
	return &Subscription{id: b.nextID, bus: b}
}

// Unsubscribe removes a listener; unknown or already removed subscriptions are ignored
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil || sub.bus != b {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := make([]subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		if s.id != sub.id {
			kept = append(kept, s)
		}
	}
	b.subs = kept
}

// Cancel removes the listener from its bus
func (s *Subscription) Cancel() {
	if s != nil && s.bus != nil {
		s.bus.Unsubscribe(s)
	}
}

// Len returns the number of registered listeners
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish delivers an event synchronously to every current listener.
// A panicking listener is logged and does not stop delivery to the rest.
func (b *Bus) Publish(event models.StoreEvent) {
	b.mu.RLock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		b.deliver(s, event)
	}
}

func (b *Bus) deliver(s subscriber, event models.StoreEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Store event listener panicked",
				zap.String("type", event.Type),
				zap.String("entity", event.Entity),
				zap.Any("panic", r))
		}
	}()
	s.fn(event)
}
