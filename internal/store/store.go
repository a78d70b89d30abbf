package store

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"admin-store/internal/models"
	"admin-store/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store holds the current state and is the only place actions are reduced.
//
// Mutations are serialized by a mutex; listeners run after the lock is
// released, so a listener may safely read from the store.
type Store struct {
	mu     sync.RWMutex
	state  State
	bus    *Bus
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the id source used for local creates
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithLogger sets the logger used for dispatch warnings
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithState seeds the store with an initial state
func WithState(state State) Option {
	return func(s *Store) { s.state = state }
}

// New creates an empty store with its own event bus
func New(opts ...Option) *Store {
	s := &Store{
		state:  NewState(),
		logger: util.NamedLogger("store"),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.bus = NewBus(s.logger)
	return s
}

// State returns the current state snapshot
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Bus returns the store's event bus
func (s *Store) Bus() *Bus {
	return s.bus
}

// Subscribe registers a listener on the store's event bus
func (s *Store) Subscribe(fn Listener) *Subscription {
	return s.bus.Subscribe(fn)
}

// Dispatch reduces an action against the current state.
// A rejected action is logged as a warning and leaves the state untouched.
func (s *Store) Dispatch(action Action) (State, error) {
	if action.At.IsZero() {
		action.At = s.now()
	}

	s.mu.Lock()
	next, err := Reduce(s.state, action)
	if err == nil {
		s.state = next
	}
	current := s.state
	s.mu.Unlock()

	if err != nil {
		util.StoreDispatchTotal.WithLabelValues(string(action.Type), string(action.Kind), "rejected").Inc()
		s.logger.Warn("Dispatch rejected",
			zap.String("action", string(action.Type)),
			zap.String("kind", string(action.Kind)),
			zap.String("id", action.ID),
			zap.Error(err))
		return current, err
	}

	util.StoreDispatchTotal.WithLabelValues(string(action.Type), string(action.Kind), "ok").Inc()
	return current, nil
}

// Create adds a record to a collection. The payload's id is kept when
// present (records returned by the remote API), otherwise a new one is generated.
func (s *Store) Create(kind Kind, payload any) (any, error) {
	e, ok := registry[kind]
	if !ok {
		return nil, s.reject(ActionCreate, kind, ErrUnknownKind)
	}

	id := payloadID(payload)
	if id == "" {
		id = s.newID()
	}

	next, err := s.Dispatch(Create(kind, id, payload, s.now()))
	if err != nil {
		return nil, err
	}
	created, _ := e.ops.find(&next.Collections, id)
	s.emit(models.EventTypeCreate, kind, id, created)
	return created, nil
}

// Update merges a payload into an existing record
func (s *Store) Update(kind Kind, id string, payload any) (any, error) {
	e, ok := registry[kind]
	if !ok {
		return nil, s.reject(ActionUpdate, kind, ErrUnknownKind)
	}

	next, err := s.Dispatch(Update(kind, id, payload, s.now()))
	if err != nil {
		return nil, err
	}
	updated, _ := e.ops.find(&next.Collections, id)
	s.emit(models.EventTypeUpdate, kind, id, updated)
	return updated, nil
}

// Delete removes a record and applies its declared cascades
func (s *Store) Delete(kind Kind, id string) error {
	if _, err := s.Dispatch(Delete(kind, id, s.now())); err != nil {
		return err
	}
	s.emit(models.EventTypeDelete, kind, id, nil)
	return nil
}

// Upsert merges a payload into the record with id, creating the record when
// it is not held locally. Either way one UPDATE event is emitted.
func (s *Store) Upsert(kind Kind, id string, payload any) (any, error) {
	e, ok := registry[kind]
	if !ok {
		return nil, s.reject(ActionUpdate, kind, ErrUnknownKind)
	}

	action := Update(kind, id, payload, s.now())
	if _, found := s.FindByID(kind, id); !found {
		action = Create(kind, id, payload, action.At)
	}
	next, err := s.Dispatch(action)
	if err != nil {
		return nil, err
	}
	record, _ := e.ops.find(&next.Collections, id)
	s.emit(models.EventTypeUpdate, kind, id, record)
	return record, nil
}

// Discard removes a record whose deletion was already confirmed elsewhere.
// A DELETE event is emitted even when the record was not held locally.
func (s *Store) Discard(kind Kind, id string) error {
	if _, ok := registry[kind]; !ok {
		return s.reject(ActionDelete, kind, ErrUnknownKind)
	}

	if _, found := s.FindByID(kind, id); found {
		if _, err := s.Dispatch(Delete(kind, id, s.now())); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	s.emit(models.EventTypeDelete, kind, id, nil)
	return nil
}

// Replace swaps a whole collection (BULK_UPDATE)
func (s *Store) Replace(kind Kind, items any) error {
	_, err := s.Dispatch(BulkUpdate(kind, items, s.now()))
	return err
}

// SyncEntity swaps a whole collection with remote-sourced records (SYNC_ENTITY)
func (s *Store) SyncEntity(kind Kind, items any) error {
	_, err := s.Dispatch(Sync(kind, items, s.now()))
	return err
}

// FindByID returns a copy of the record with the given id
func (s *Store) FindByID(kind Kind, id string) (any, bool) {
	e, ok := registry[kind]
	if !ok {
		return nil, false
	}
	st := s.State()
	return e.ops.find(&st.Collections, id)
}

// FindMany returns copies of the records matching pred; a nil pred matches everything
func (s *Store) FindMany(kind Kind, pred func(any) bool) []any {
	e, ok := registry[kind]
	if !ok {
		return nil
	}
	st := s.State()
	all := e.ops.list(&st.Collections)
	if pred == nil {
		return all
	}
	out := make([]any, 0, len(all))
	for _, item := range all {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}

// SetLoading flips the loading flag
func (s *Store) SetLoading(loading bool) {
	_, _ = s.Dispatch(Action{Type: ActionSetLoading, Flag: loading})
}

// SetOnline flips the connectivity flag
func (s *Store) SetOnline(online bool) {
	_, _ = s.Dispatch(Action{Type: ActionSetOnline, Flag: online})
}

// SetSyncStatus records the sync state machine position
func (s *Store) SetSyncStatus(status SyncStatus) error {
	_, err := s.Dispatch(Action{Type: ActionSetSyncStatus, SyncStatus: status})
	return err
}

// UpdateSettings replaces the store settings
func (s *Store) UpdateSettings(settings models.Settings) error {
	_, err := s.Dispatch(Action{Type: ActionUpdateSettings, Settings: &settings})
	return err
}

// ClearAll empties every collection and restores default settings
func (s *Store) ClearAll() {
	_, _ = s.Dispatch(Action{Type: ActionClearAll})
}

// ResetToDefaults restores the default (empty) dataset
func (s *Store) ResetToDefaults() {
	_, _ = s.Dispatch(Action{Type: ActionResetToDefaults})
}

func (s *Store) emit(eventType string, kind Kind, id string, data any) {
	util.StoreEventsTotal.WithLabelValues(eventType, string(kind)).Inc()
	s.bus.Publish(models.StoreEvent{
		EventID:   uuid.New().String(),
		Type:      eventType,
		Entity:    string(kind),
		ID:        id,
		Data:      data,
		Timestamp: s.now(),
	})
}

func (s *Store) reject(action ActionType, kind Kind, err error) error {
	util.StoreDispatchTotal.WithLabelValues(string(action), string(kind), "rejected").Inc()
	s.logger.Warn("Dispatch rejected",
		zap.String("action", string(action)),
		zap.String("kind", string(kind)),
		zap.Error(err))
	return err
}

// payloadID extracts an "id" field from a payload, if it carries one
func payloadID(payload any) string {
	data, err := toJSON(payload)
	if err != nil {
		return ""
	}
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return ""
	}
	return head.ID
}

// IsRejected reports whether err came from the reducer refusing an action
func IsRejected(err error) bool {
	return errors.Is(err, ErrUnknownKind) ||
		errors.Is(err, ErrUnknownAction) ||
		errors.Is(err, ErrMalformedAction) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInvariant)
}
