package service

import (
	"context"
	"encoding/json"
	"errors"

	"admin-store/internal/remote"
	"admin-store/internal/store"
	"admin-store/internal/util"

	"go.uber.org/zap"
)

// Persister applies a single create, update or delete for one kind
type Persister interface {
	Create(ctx context.Context, kind store.Kind, payload any) (any, error)
	Update(ctx context.Context, kind store.Kind, id string, payload any) (any, error)
	Delete(ctx context.Context, kind store.Kind, id string) error
}

// LocalPersister mutates only the in-memory store
type LocalPersister struct {
	store *store.Store
}

// NewLocalPersister creates a local persister
func NewLocalPersister(s *store.Store) *LocalPersister {
	return &LocalPersister{store: s}
}

func (p *LocalPersister) Create(_ context.Context, kind store.Kind, payload any) (any, error) {
	return p.store.Create(kind, payload)
}

func (p *LocalPersister) Update(_ context.Context, kind store.Kind, id string, payload any) (any, error) {
	return p.store.Update(kind, id, payload)
}

func (p *LocalPersister) Delete(_ context.Context, kind store.Kind, id string) error {
	return p.store.Delete(kind, id)
}

// RemotePersister writes through the remote API and mirrors the server's
// answer into the store. Any failure other than a rejected session falls
// back to the local mutation.
type RemotePersister struct {
	store    *store.Store
	services *Services
	local    *LocalPersister
	logger   *zap.Logger
}

// NewRemotePersister creates a remote persister
func NewRemotePersister(s *store.Store, services *Services) *RemotePersister {
	return &RemotePersister{
		store:    s,
		services: services,
		local:    NewLocalPersister(s),
		logger:   util.GetLogger(),
	}
}

func (p *RemotePersister) Create(ctx context.Context, kind store.Kind, payload any) (any, error) {
	w, ok := p.services.Writer(kind)
	if !ok {
		return p.local.Create(ctx, kind, payload)
	}

	record, err := w.CreateRecord(ctx, payload)
	if err != nil {
		if !p.fallback(kind, "create", err) {
			return nil, err
		}
		return p.local.Create(ctx, kind, payload)
	}
	if recordID(record) == "" {
		return p.local.Create(ctx, kind, payload)
	}
	return p.store.Create(kind, record)
}

func (p *RemotePersister) Update(ctx context.Context, kind store.Kind, id string, payload any) (any, error) {
	w, ok := p.services.Writer(kind)
	if !ok {
		return p.local.Update(ctx, kind, id, payload)
	}

	record, err := w.UpdateRecord(ctx, id, payload)
	if err != nil {
		if !p.fallback(kind, "update", err) {
			return nil, err
		}
		return p.local.Update(ctx, kind, id, payload)
	}
	if recordID(record) != id {
		return p.local.Update(ctx, kind, id, payload)
	}

	return p.store.Upsert(kind, id, record)
}

func (p *RemotePersister) Delete(ctx context.Context, kind store.Kind, id string) error {
	w, ok := p.services.Writer(kind)
	if !ok {
		return p.local.Delete(ctx, kind, id)
	}

	if err := w.DeleteRecord(ctx, id); err != nil {
		if !p.fallback(kind, "delete", err) {
			return err
		}
		return p.local.Delete(ctx, kind, id)
	}
	return p.store.Discard(kind, id)
}

// fallback reports whether a remote failure should be absorbed by a local mutation
func (p *RemotePersister) fallback(kind store.Kind, op string, err error) bool {
	if errors.Is(err, remote.ErrUnauthorized) {
		p.logger.Warn("Remote write rejected, session expired",
			zap.String("kind", string(kind)),
			zap.String("operation", op))
		return false
	}

	util.RemoteFallbacksTotal.WithLabelValues(string(kind), op).Inc()
	p.logger.Warn("Remote write failed, applying locally",
		zap.String("kind", string(kind)),
		zap.String("operation", op),
		zap.Error(err))
	return true
}

func recordID(record any) string {
	data, err := json.Marshal(record)
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

var (
	_ Persister = (*LocalPersister)(nil)
	_ Persister = (*RemotePersister)(nil)
)
