package worker

import (
	"context"
	"time"

	"github.com/secmon-lab/mergeminder/pkg/service/schedule"
	"github.com/secmon-lab/mergeminder/pkg/usecase"
	"github.com/secmon-lab/mergeminder/pkg/utils/errutil"
	"github.com/secmon-lab/mergeminder/pkg/utils/logging"
)

// MinderWorker drives the periodic minding cycle over the tracked projects.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - Cycles run on the worker goroutine, so a slow cycle delays the next tick
//   instead of overlapping with it
type MinderWorker struct {
	uc       *usecase.UseCases
	sched    *schedule.Schedule
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewMinderWorker creates a worker that runs a minding cycle every interval,
// skipping ticks that fall outside the schedule's alert window.
func NewMinderWorker(uc *usecase.UseCases, sched *schedule.Schedule, interval time.Duration) *MinderWorker {
	return &MinderWorker{
		uc:       uc,
		sched:    sched,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background minding loop. Does not block server startup.
func (w *MinderWorker) Start(ctx context.Context) error {
	logging.Default().Info("minder worker starting", "interval", w.interval.String())
	go w.run(ctx)
	return nil
}

// Stop signals the worker to stop and waits for the current cycle to finish.
func (w *MinderWorker) Stop() {
	logging.Default().Info("minder worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("minder worker stopped")
}

func (w *MinderWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !w.sched.ShouldAlertNow(time.Now()) {
				logging.Default().Debug("outside alert window, skipping minding cycle")
				continue
			}
			if err := w.uc.MindAll(ctx); err != nil {
				errutil.Handle(ctx, err, "minding cycle failed, will retry next interval")
			}

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("minder worker context cancelled")
			return
		}
	}
}

// PurgeWorker removes state for merge requests that have been merged or
// closed upstream. Runs far less often than the minder: stale rows only
// accumulate slowly.
type PurgeWorker struct {
	uc       *usecase.UseCases
	sched    *schedule.Schedule
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}

	lastRun time.Time
}

// NewPurgeWorker creates a worker that checks every interval whether a purge
// pass is due per the schedule, running at most one pass per purge hour.
func NewPurgeWorker(uc *usecase.UseCases, sched *schedule.Schedule, interval time.Duration) *PurgeWorker {
	return &PurgeWorker{
		uc:       uc,
		sched:    sched,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background purge loop. Does not block server startup.
func (w *PurgeWorker) Start(ctx context.Context) error {
	logging.Default().Info("purge worker starting", "interval", w.interval.String())
	go w.run(ctx)
	return nil
}

// Stop signals the worker to stop and waits for the current pass to finish.
func (w *PurgeWorker) Stop() {
	logging.Default().Info("purge worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("purge worker stopped")
}

func (w *PurgeWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			if !w.sched.ShouldPurgeNow(now) {
				continue
			}
			// one pass per purge hour
			if !w.lastRun.IsZero() && now.Sub(w.lastRun) < time.Hour {
				continue
			}
			w.lastRun = now

			if _, err := w.uc.Purge(ctx); err != nil {
				errutil.Handle(ctx, err, "purge pass failed, will retry next window")
			}

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("purge worker context cancelled")
			return
		}
	}
}
