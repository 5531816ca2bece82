package authsession

import (
	"context"
	"sync"
	"time"
)

// monitor is the proactive-refresh timer. It runs from authentication to
// logout; a failed tick is logged and swallowed because the reactive
// refresh-on-401 path is the backstop.
type monitor struct {
	mgr *Manager

	mu     sync.Mutex
	cancel context.CancelFunc
}

func newMonitor(mgr *Manager) *monitor {
	return &monitor{mgr: mgr}
}

// start arms the timer. Starting an already-running monitor is a no-op.
func (mo *monitor) start() {
	mo.mu.Lock()
	defer mo.mu.Unlock()

	if mo.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	mo.cancel = cancel
	go mo.run(ctx)
}

// stop cancels the timer. It does not wait for the loop to exit: a tick that
// tears the session down calls stop from inside the loop itself, so waiting
// here would deadlock. Stopping a stopped monitor is a no-op.
func (mo *monitor) stop() {
	mo.mu.Lock()
	defer mo.mu.Unlock()

	if mo.cancel == nil {
		return
	}
	mo.cancel()
	mo.cancel = nil
}

// running reports whether the timer is armed
func (mo *monitor) running() bool {
	mo.mu.Lock()
	defer mo.mu.Unlock()
	return mo.cancel != nil
}

func (mo *monitor) run(ctx context.Context) {
	interval := mo.mgr.cfg.GetMonitorInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	mo.mgr.log.Debug().Dur("interval", interval).Msg("expiry monitor started")
	for {
		select {
		case <-ctx.Done():
			mo.mgr.log.Debug().Msg("expiry monitor stopped")
			return
		case <-ticker.C:
			mo.tick(ctx)
		}
	}
}

func (mo *monitor) tick(ctx context.Context) {
	mgr := mo.mgr

	sess, err := mgr.store.Get()
	if err != nil {
		mgr.log.Warn().Err(err).Msg("expiry monitor could not read session")
		return
	}
	if sess == nil || sess.AccessToken == "" || !sess.HasRefreshToken() {
		return
	}
	if !sess.IsExpiringSoon(mgr.cfg.GetRefreshThreshold(), mgr.nowTime()) {
		return
	}

	if _, err := mgr.sharedRefresh(ctx); err != nil {
		mgr.log.Warn().Err(err).Msg("proactive refresh failed")
	}
}
