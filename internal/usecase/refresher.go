package usecase

import (
	"context"
	"time"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/domain/repository"
	applogger "TradeDesk/pkg/logger"
)

const refreshLockKey = "lock:registry-refresh"

// ModelRefresher reloads the registry from the backend.
type ModelRefresher interface {
	RefreshAll(ctx context.Context) ([]models.Model, error)
}

type RefresherConfig struct {
	Interval   time.Duration // 0 disables periodic refresh
	LockTTL    time.Duration
	Timeout    time.Duration
	RetryDelay time.Duration // wait before retrying a cycle skipped on a held lock
}

type refreshOutcome int

const (
	refreshDone refreshOutcome = iota
	refreshSkipped
	refreshFailed
)

// Refresher is the out-of-band scheduler that turns backend notifications and
// timer ticks into registry refreshes. Triggers arriving while a refresh is
// pending collapse into one.
//
// The lock is shared by every replica and only staggers their calls to the
// backend. Each replica owns its registry, so a cycle skipped because another
// replica holds the lock is retried until this replica has refreshed.
type Refresher struct {
	target  ModelRefresher
	locker  repository.Locker
	cfg     RefresherConfig
	logger  *applogger.Logger
	trigger chan string
}

func NewRefresher(target ModelRefresher, locker repository.Locker, cfg RefresherConfig, logger *applogger.Logger) *Refresher {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return &Refresher{target: target, locker: locker, cfg: cfg, logger: logger, trigger: make(chan string, 1)}
}

// Trigger requests a refresh without blocking.
func (r *Refresher) Trigger(reason string) {
	select {
	case r.trigger <- reason:
	default:
	}
}

// Run processes triggers until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if r.cfg.Interval > 0 {
		t := time.NewTicker(r.cfg.Interval)
		defer t.Stop()
		tick = t.C
	}
	var retry <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			retry = r.cycle(ctx, "interval", retry)
		case reason := <-r.trigger:
			retry = r.cycle(ctx, reason, retry)
		case <-retry:
			retry = r.cycle(ctx, "lock retry", nil)
		}
	}
}

// cycle refreshes once and returns the pending retry timer, if any.
func (r *Refresher) cycle(ctx context.Context, reason string, retry <-chan time.Time) <-chan time.Time {
	if r.refresh(ctx, reason) != refreshSkipped {
		return nil
	}
	if retry == nil {
		retry = time.After(r.cfg.RetryDelay)
	}
	return retry
}

// RefreshOnce runs a single refresh cycle. It returns false when another
// replica holds the refresh lock or the refresh failed.
func (r *Refresher) RefreshOnce(ctx context.Context, reason string) bool {
	return r.refresh(ctx, reason) == refreshDone
}

func (r *Refresher) refresh(ctx context.Context, reason string) refreshOutcome {
	if r.locker != nil {
		ok, err := r.locker.TryLock(ctx, refreshLockKey, r.cfg.LockTTL)
		if err != nil {
			r.log().Warn("refresh lock unavailable, refreshing anyway", applogger.Error(err))
		} else if !ok {
			r.log().Debug("refresh deferred, lock held elsewhere", applogger.String("reason", reason))
			return refreshSkipped
		} else {
			defer func() {
				if err := r.locker.Unlock(context.WithoutCancel(ctx), refreshLockKey); err != nil {
					r.log().Warn("refresh unlock failed", applogger.Error(err))
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()
	start := time.Now()
	list, err := r.target.RefreshAll(ctx)
	if err != nil {
		r.log().Warn("registry refresh failed", applogger.String("reason", reason), applogger.Error(err))
		return refreshFailed
	}
	r.log().Debug("registry refreshed",
		applogger.String("reason", reason),
		applogger.Int("models", len(list)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return refreshDone
}

func (r *Refresher) log() *applogger.Logger {
	if r.logger == nil {
		return applogger.Nop()
	}
	return r.logger
}
