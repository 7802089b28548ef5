package app

import (
	"context"
	"log"
	"time"

	"github.com/whaydenschwartz-lang/SeeAgain/internal/clock"
	"github.com/whaydenschwartz-lang/SeeAgain/internal/domain"
	"github.com/whaydenschwartz-lang/SeeAgain/internal/ledger"
	"github.com/whaydenschwartz-lang/SeeAgain/internal/metrics"
)

const (
	defaultSweepInterval = 30 * time.Minute
	defaultMaxPending    = 2 * time.Hour
)

// Sweeper bounds how long money can stay held without a render outcome. On a
// fixed period it cancels every hold still authorized (or with a previously
// failed cancel) past the maximum pending duration, treating "no outcome ever
// arrived" as a failure by policy.
type Sweeper struct {
	rec        *Reconciler
	store      ledger.Store
	clock      clock.Clock
	logger     *log.Logger
	interval   time.Duration
	maxPending time.Duration
}

func NewSweeper(rec *Reconciler, store ledger.Store, clk clock.Clock, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		rec:        rec,
		store:      store,
		clock:      clk,
		logger:     log.Default(),
		interval:   defaultSweepInterval,
		maxPending: defaultMaxPending,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type SweeperOption func(*Sweeper)

// WithSweepInterval overrides how often the sweep runs.
func WithSweepInterval(d time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithMaxPending overrides how long a hold may stay unresolved.
func WithMaxPending(d time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if d > 0 {
			s.maxPending = d
		}
	}
}

func WithSweeperLogger(l *log.Logger) SweeperOption {
	return func(s *Sweeper) {
		if l != nil {
			s.logger = l
		}
	}
}

// Run sweeps on the configured interval until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.SweepOnce(ctx); n > 0 {
				s.logger.Printf("sweep canceled %d stuck authorization(s)", n)
			}
		}
	}
}

// SweepOnce scans the ledger and force-cancels every over-age hold, returning
// how many were canceled. Eligibility is evaluated on a snapshot without
// holding any mutation lock; the actual transition re-checks under the per-job
// lock like any other caller. Individual failures are logged and the scan
// continues.
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	records, err := s.store.All(ctx)
	if err != nil {
		s.logger.Printf("WARN: sweep: list records: %v", err)
		return 0
	}

	cutoff := s.clock.Now().Add(-s.maxPending)
	canceled := 0
	for _, rec := range records {
		if rec.CreatedAt.After(cutoff) {
			continue
		}
		switch rec.Status {
		case domain.StatusAuthorized, domain.StatusCancelFailed:
			ok, err := s.rec.forceCancel(ctx, rec.JobID, cutoff)
			if err != nil {
				s.logger.Printf("WARN: sweep: cancel job %s: %v", rec.JobID, err)
				continue
			}
			if ok {
				canceled++
				metrics.SweepCancelsTotal.Inc()
			}
		case domain.StatusCaptureFailed:
			// Re-attempting a capture can double-charge at some processors;
			// leave it to an operator.
			s.logger.Printf("WARN: job %s capture still failed after %s, operator action required", rec.JobID, s.maxPending)
		}
	}
	return canceled
}
