package sync

import (
	"context"
	"time"

	"github.com/orbitapp/orbitsync/internal/logging"
)

// loop is a stoppable periodic goroutine.
type loop struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func startLoop(interval time.Duration, tick func(context.Context)) *loop {
	ctx, cancel := context.WithCancel(context.Background())
	l := &loop{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(l.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tick(ctx)
			}
		}
	}()

	return l
}

func (l *loop) stop() {
	if l == nil {
		return
	}
	l.cancel()
	<-l.done
}

// StartBackgroundDrain starts periodic queue drains at the configured
// interval. A non-positive interval, or sync being disabled, stops any
// running loop instead. Restarting with a loop already running replaces
// it.
func (o *Orchestrator) StartBackgroundDrain() {
	cfg := o.cfg.Sync()

	o.mu.Lock()
	running := o.background
	o.background = nil
	o.mu.Unlock()
	running.stop()

	if !cfg.Enabled || cfg.BackgroundSyncInterval <= 0 {
		logging.Debug("background drain not started",
			logging.Count(cfg.BackgroundSyncInterval),
		)
		return
	}

	interval := time.Duration(cfg.BackgroundSyncInterval) * time.Minute
	l := startLoop(interval, func(ctx context.Context) {
		if o.tokens == nil || !o.tokens.Authenticated() {
			return
		}
		if o.Status().Length == 0 {
			return
		}
		if _, err := o.Drain(ctx); err != nil {
			logging.Warn("background drain failed", logging.Err(err))
		}
	})

	o.mu.Lock()
	o.background = l
	o.mu.Unlock()

	logging.Info("background drain started",
		logging.Operation("background_drain"),
		logging.Count(cfg.BackgroundSyncInterval),
	)
}

// StopBackgroundDrain stops the periodic drain loop if it is running.
func (o *Orchestrator) StopBackgroundDrain() {
	o.mu.Lock()
	running := o.background
	o.background = nil
	o.mu.Unlock()
	running.stop()
}

// restartBackground re-reads the interval and restarts the drain loop,
// but only when one is running. Called on configuration changes.
func (o *Orchestrator) restartBackground() {
	o.mu.Lock()
	running := o.background != nil
	o.mu.Unlock()
	if running {
		o.StartBackgroundDrain()
	}
}

// StartAutoImport runs an import immediately and then periodically at the
// given interval. Restarting with a loop already running replaces it.
func (o *Orchestrator) StartAutoImport(ctx context.Context, interval time.Duration) {
	o.mu.Lock()
	running := o.autoImport
	o.autoImport = nil
	o.mu.Unlock()
	running.stop()

	if interval <= 0 {
		return
	}

	if _, err := o.Import(ctx); err != nil {
		logging.Warn("initial import failed", logging.Err(err))
	}

	l := startLoop(interval, func(ctx context.Context) {
		if _, err := o.Import(ctx); err != nil {
			logging.Warn("periodic import failed", logging.Err(err))
		}
	})

	o.mu.Lock()
	o.autoImport = l
	o.mu.Unlock()
}

// StopAutoImport stops the periodic import loop if it is running.
func (o *Orchestrator) StopAutoImport() {
	o.mu.Lock()
	running := o.autoImport
	o.autoImport = nil
	o.mu.Unlock()
	running.stop()
}

// Close stops all background activity.
func (o *Orchestrator) Close() {
	o.StopBackgroundDrain()
	o.StopAutoImport()
}
