package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/lumina/internal/clock"
	"github.com/smallbiznis/lumina/internal/config"
	"github.com/smallbiznis/lumina/internal/lock"
	"github.com/smallbiznis/lumina/internal/period"
	turnoverdomain "github.com/smallbiznis/lumina/internal/turnover/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const rolloverLockTTL = 5 * time.Minute

type Params struct {
	fx.In

	Log    *zap.Logger
	Clock  clock.Clock
	Locker *lock.Locker `optional:"true"`
	Ledger turnoverdomain.Ledger
	Config config.Config
}

// Worker opens the current period's ledger rows shortly after month rollover.
// It never finalizes anything; closing a month stays an explicit operator
// action.
type Worker struct {
	log      *zap.Logger
	clock    clock.Clock
	locker   *lock.Locker
	ledger   turnoverdomain.Ledger
	interval time.Duration
}

func NewWorker(p Params) *Worker {
	return &Worker{
		log:      p.Log.Named("scheduler.rollover"),
		clock:    p.Clock,
		locker:   p.Locker,
		ledger:   p.Ledger,
		interval: p.Config.SchedulerInterval,
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("period rollover run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce initializes the period containing clock.Now. InitializePeriod is
// idempotent, so running every tick is safe; the lock only avoids duplicate
// inserts racing across replicas.
func (w *Worker) RunOnce(ctx context.Context) error {
	periodStart := period.Of(w.clock.Now())

	key := "lumina:rollover:" + periodStart.Format("2006-01")
	token, ok, err := w.locker.TryLock(ctx, key, rolloverLockTTL)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	defer func() {
		if releaseErr := w.locker.Release(ctx, key, token); releaseErr != nil {
			w.log.Warn("rollover lock release failed", zap.Error(releaseErr))
		}
	}()

	created, err := w.ledger.InitializePeriod(ctx, periodStart)
	if errors.Is(err, turnoverdomain.ErrPeriodFinalized) {
		// The month was closed early; nothing to open until rollover.
		return nil
	}
	if err != nil {
		return err
	}
	if created > 0 {
		w.log.Info("period initialized",
			zap.Time("period_start", periodStart),
			zap.Int("rows_created", created),
		)
	}
	return nil
}
