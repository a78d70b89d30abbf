package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"admin-store/internal/remote"
	"admin-store/internal/store"
	"admin-store/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	syncLockKey = "admin-store:sync"
	syncLockTTL = 5 * time.Minute
)

var (
	// ErrNoSession is returned when a sync is requested without a bearer token
	ErrNoSession = errors.New("no active session")
	// ErrSyncInProgress is returned when another process holds the sync lock
	ErrSyncInProgress = errors.New("sync already in progress")
)

// SyncKinds is the fixed order in which collections are pulled from the API
var SyncKinds = []store.Kind{
	store.KindProducts,
	store.KindCategories,
	store.KindCustomers,
	store.KindOrders,
	store.KindInventory,
	store.KindReviews,
	store.KindCoupons,
	store.KindShippingZones,
	store.KindShippingMethods,
	store.KindUsers,
}

// Locker guards a full sync across processes
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// SyncOrchestrator routes writes to the remote API or the local store and
// pulls full collections from the API on demand.
type SyncOrchestrator struct {
	store    *store.Store
	client   *remote.Client
	services *Services
	local    *LocalPersister
	remote   *RemotePersister
	locker   Locker
	logger   *zap.Logger
}

// OrchestratorOption configures a SyncOrchestrator
type OrchestratorOption func(*SyncOrchestrator)

// WithSyncLock serializes full syncs through a distributed lock
func WithSyncLock(locker Locker) OrchestratorOption {
	return func(o *SyncOrchestrator) { o.locker = locker }
}

// NewSyncOrchestrator creates an orchestrator. A nil client keeps every write local.
func NewSyncOrchestrator(s *store.Store, client *remote.Client, services *Services, opts ...OrchestratorOption) *SyncOrchestrator {
	o := &SyncOrchestrator{
		store:    s,
		client:   client,
		services: services,
		local:    NewLocalPersister(s),
		logger:   util.GetLogger(),
	}
	if services != nil {
		o.remote = NewRemotePersister(s, services)
	}
	for _, opt := range opts {
		opt(o)
	}
	setOnlineGauge(s.State().IsOnline)
	return o
}

// Store returns the store the orchestrator writes to
func (o *SyncOrchestrator) Store() *store.Store {
	return o.store
}

// HasSession reports whether a bearer token is available
func (o *SyncOrchestrator) HasSession(ctx context.Context) bool {
	return o.client != nil && o.client.HasSession(ctx)
}

// persisterFor picks the remote path when a session exists and the API serves the kind
func (o *SyncOrchestrator) persisterFor(ctx context.Context, kind store.Kind) Persister {
	if o.remote == nil || !o.HasSession(ctx) {
		return o.local
	}
	if _, ok := o.services.Writer(kind); !ok {
		return o.local
	}
	return o.remote
}

// Create adds a record, remotely when possible
func (o *SyncOrchestrator) Create(ctx context.Context, kind store.Kind, payload any) (any, error) {
	ctx, span := util.StartSpan(ctx, "SyncOrchestrator.Create", attribute.String("kind", string(kind)))
	defer span.End()

	created, err := o.persisterFor(ctx, kind).Create(ctx, kind, payload)
	util.RecordError(span, err)
	return created, err
}

// Update changes a record, remotely when possible
func (o *SyncOrchestrator) Update(ctx context.Context, kind store.Kind, id string, payload any) (any, error) {
	ctx, span := util.StartSpan(ctx, "SyncOrchestrator.Update",
		attribute.String("kind", string(kind)),
		attribute.String("id", id))
	defer span.End()

	updated, err := o.persisterFor(ctx, kind).Update(ctx, kind, id, payload)
	util.RecordError(span, err)
	return updated, err
}

// Delete removes a record, remotely when possible
func (o *SyncOrchestrator) Delete(ctx context.Context, kind store.Kind, id string) error {
	ctx, span := util.StartSpan(ctx, "SyncOrchestrator.Delete",
		attribute.String("kind", string(kind)),
		attribute.String("id", id))
	defer span.End()

	err := o.persisterFor(ctx, kind).Delete(ctx, kind, id)
	util.RecordError(span, err)
	return err
}

// SyncAll replaces every syncable collection with the server's copy.
// A failing kind is logged and reported but does not stop the others.
func (o *SyncOrchestrator) SyncAll(ctx context.Context) error {
	return o.sync(ctx, SyncKinds)
}

// SyncWithAPI resyncs the given kinds, or everything when none are given,
// and records the outcome in the store's sync status.
func (o *SyncOrchestrator) SyncWithAPI(ctx context.Context, kinds ...store.Kind) error {
	ctx, span := util.StartSpan(ctx, "SyncOrchestrator.SyncWithAPI")
	defer span.End()

	if !o.HasSession(ctx) {
		_ = o.store.SetSyncStatus(store.SyncError)
		util.SyncRunsTotal.WithLabelValues(string(store.SyncError)).Inc()
		util.RecordError(span, ErrNoSession)
		return ErrNoSession
	}

	_ = o.store.SetSyncStatus(store.SyncSyncing)

	var err error
	if len(kinds) == 0 {
		err = o.SyncAll(ctx)
	} else {
		err = o.sync(ctx, kinds)
	}

	status := store.SyncSuccess
	if err != nil {
		status = store.SyncError
	}
	_ = o.store.SetSyncStatus(status)
	util.SyncRunsTotal.WithLabelValues(string(status)).Inc()
	util.RecordError(span, err)
	return err
}

// Start runs the initial sync when a session exists. Loading is cleared in every outcome.
func (o *SyncOrchestrator) Start(ctx context.Context) error {
	if !o.HasSession(ctx) {
		o.logger.Info("No session, starting with local data only")
		return nil
	}

	o.store.SetLoading(true)
	defer o.store.SetLoading(false)

	if err := o.SyncAll(ctx); err != nil {
		o.logger.Error("Initial sync incomplete", zap.Error(err))
		return err
	}
	o.logger.Info("Initial sync completed")
	return nil
}

// SetOnline records connectivity. It never triggers a resync.
func (o *SyncOrchestrator) SetOnline(online bool) {
	if o.store.State().IsOnline == online {
		return
	}
	o.store.SetOnline(online)
	setOnlineGauge(online)
	o.logger.Info("Connectivity changed", zap.Bool("online", online))
}

func setOnlineGauge(online bool) {
	if online {
		util.OnlineStatus.Set(1)
	} else {
		util.OnlineStatus.Set(0)
	}
}

func (o *SyncOrchestrator) sync(ctx context.Context, kinds []store.Kind) (err error) {
	ctx, span := util.StartSpan(ctx, "SyncOrchestrator.sync", attribute.Int("kinds", len(kinds)))
	defer span.End()

	if o.services == nil {
		return ErrNoSession
	}

	if o.locker != nil {
		acquired, lockErr := o.locker.AcquireLock(ctx, syncLockKey, syncLockTTL)
		if lockErr != nil {
			o.logger.Warn("Sync lock unavailable, continuing without it", zap.Error(lockErr))
		} else if !acquired {
			return ErrSyncInProgress
		} else {
			defer func() {
				if relErr := o.locker.ReleaseLock(context.WithoutCancel(ctx), syncLockKey); relErr != nil {
					o.logger.Error("Failed to release sync lock", zap.Error(relErr))
				}
			}()
		}
	}

	start := time.Now()
	defer func() {
		util.SyncLatency.Observe(time.Since(start).Seconds())
		util.RecordError(span, err)
	}()

	for _, kind := range kinds {
		if kerr := o.syncKind(ctx, kind); kerr != nil {
			util.SyncEntityFailuresTotal.WithLabelValues(string(kind)).Inc()
			o.logger.Error("Failed to sync entity",
				zap.String("kind", string(kind)),
				zap.Error(kerr))
			err = multierr.Append(err, fmt.Errorf("sync %s: %w", kind, kerr))
		}
	}

	if err == nil {
		o.logger.Info("Sync completed", zap.Int("kinds", len(kinds)))
	}
	return err
}

func (o *SyncOrchestrator) syncKind(ctx context.Context, kind store.Kind) error {
	fetcher, ok := o.services.Fetcher(kind)
	if !ok {
		return fmt.Errorf("%w: %s has no remote service", store.ErrUnknownKind, kind)
	}
	items, err := fetcher.FetchAll(ctx)
	if err != nil {
		return err
	}
	return o.store.SyncEntity(kind, items)
}
