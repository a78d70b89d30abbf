package worker

import (
	"context"
	"time"

	"admin-store/internal/util"

	"go.uber.org/zap"
)

// Pinger reports whether the remote API is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// OnlineSetter records connectivity
type OnlineSetter interface {
	SetOnline(online bool)
}

// ConnectivityWorker pings the remote API on an interval and flips the
// online flag. It never triggers a resync.
type ConnectivityWorker struct {
	pinger   Pinger
	target   OnlineSetter
	interval time.Duration
	logger   *zap.Logger
}

// NewConnectivityWorker creates a new connectivity worker
func NewConnectivityWorker(pinger Pinger, target OnlineSetter, interval time.Duration) *ConnectivityWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &ConnectivityWorker{
		pinger:   pinger,
		target:   target,
		interval: interval,
		logger:   util.GetLogger(),
	}
}

// Start checks immediately and then on every tick until ctx is done
func (w *ConnectivityWorker) Start(ctx context.Context) {
	w.logger.Info("Starting connectivity worker", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopping connectivity worker")
			return
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}

// Check runs one reachability check
func (w *ConnectivityWorker) Check(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.interval)
	defer cancel()

	err := w.pinger.Ping(ctx)
	if err != nil {
		w.logger.Debug("Remote API unreachable", zap.Error(err))
	}
	w.target.SetOnline(err == nil)
}
