package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/whaydenschwartz-lang/SeeAgain/internal/clock"
	"github.com/whaydenschwartz-lang/SeeAgain/internal/domain"
	"github.com/whaydenschwartz-lang/SeeAgain/internal/ledger"
	"github.com/whaydenschwartz-lang/SeeAgain/internal/metrics"
)

// Gateway is the minimal interface the reconciler needs from the payment
// processor. Both calls must tolerate "already captured"/"already canceled"
// and report it as success.
type Gateway interface {
	Capture(ctx context.Context, paymentIntentRef string) error
	Cancel(ctx context.Context, paymentIntentRef string) error
}

// Reconciler merges the two independently-arriving event streams (payment
// authorizations and render outcomes) into one settlement decision per job.
// Either stream may arrive first, and either may be delivered more than once;
// every entry point is an idempotent no-op once a record is settled.
type Reconciler struct {
	store  ledger.Store
	gw     Gateway
	clock  clock.Clock
	logger *log.Logger
	locks  *jobLocks
}

func NewReconciler(store ledger.Store, gw Gateway, clk clock.Clock, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		store:  store,
		gw:     gw,
		clock:  clk,
		logger: log.Default(),
		locks:  newJobLocks(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type ReconcilerOption func(*Reconciler)

func WithLogger(l *log.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// OnAuthorizationNotice records that a hold was placed for the job. If the
// render outcome arrived first (placeholder record), the payment reference is
// attached and the settlement implied by the placeholder runs immediately.
func (r *Reconciler) OnAuthorizationNotice(ctx context.Context, jobID, paymentIntentRef, sessionRef string) (domain.PaymentRecord, error) {
	if jobID == "" {
		return domain.PaymentRecord{}, domain.ErrMissingJobID
	}

	unlock := r.locks.acquire(jobID)
	defer unlock()

	rec, ok, err := r.store.Get(ctx, jobID)
	if err != nil {
		return domain.PaymentRecord{}, err
	}

	if !ok {
		now := r.clock.Now()
		rec = domain.PaymentRecord{
			JobID:           jobID,
			PaymentIntentID: paymentIntentRef,
			SessionID:       sessionRef,
			Status:          domain.StatusAuthorized,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := r.store.Put(ctx, rec); err != nil {
			r.logger.Printf("WARN: persist authorization for job %s: %v", jobID, err)
		}
		metrics.AuthorizationsTotal.Inc()
		return rec, nil
	}

	switch {
	case rec.Status.Placeholder():
		rec.PaymentIntentID = paymentIntentRef
		rec.SessionID = sessionRef
		return r.settle(ctx, rec, rec.Status == domain.StatusRenderSucceeded)
	default:
		// Duplicate delivery, already settled, or awaiting the sweeper.
		return rec, nil
	}
}

// OnJobOutcome records whether the render succeeded. With a known payment
// reference it settles immediately; before the authorization arrives it leaves
// a placeholder so the late authorization can complete the transition.
func (r *Reconciler) OnJobOutcome(ctx context.Context, jobID string, succeeded bool) (domain.PaymentRecord, error) {
	if jobID == "" {
		return domain.PaymentRecord{}, domain.ErrMissingJobID
	}

	unlock := r.locks.acquire(jobID)
	defer unlock()

	rec, ok, err := r.store.Get(ctx, jobID)
	if err != nil {
		return domain.PaymentRecord{}, err
	}

	if !ok {
		status := domain.StatusRenderFailed
		if succeeded {
			status = domain.StatusRenderSucceeded
		}
		now := r.clock.Now()
		rec = domain.PaymentRecord{
			JobID:     jobID,
			Status:    status,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := r.store.Put(ctx, rec); err != nil {
			r.logger.Printf("WARN: persist outcome placeholder for job %s: %v", jobID, err)
		}
		return rec, nil
	}

	switch {
	case rec.Status == domain.StatusAuthorized:
		return r.settle(ctx, rec, succeeded)
	case rec.Status.Placeholder():
		// Redelivered outcome; the first one wins.
		if succeeded != (rec.Status == domain.StatusRenderSucceeded) {
			r.logger.Printf("WARN: conflicting outcome for job %s ignored (recorded %s)", jobID, rec.Status)
		}
		return rec, nil
	default:
		return rec, nil
	}
}

// OnAsyncPaymentFailure marks an authorized hold as dead: the processor
// reported that the asynchronous payment method ultimately failed. No capture
// or cancel is ever attempted against such a hold.
func (r *Reconciler) OnAsyncPaymentFailure(ctx context.Context, jobID string) (domain.PaymentRecord, error) {
	if jobID == "" {
		return domain.PaymentRecord{}, domain.ErrMissingJobID
	}

	unlock := r.locks.acquire(jobID)
	defer unlock()

	rec, ok, err := r.store.Get(ctx, jobID)
	if err != nil {
		return domain.PaymentRecord{}, err
	}
	if !ok {
		r.logger.Printf("WARN: async payment failure for unknown job %s ignored", jobID)
		return domain.PaymentRecord{}, domain.ErrRecordNotFound
	}
	if rec.Status != domain.StatusAuthorized {
		return rec, nil
	}

	rec.Status = domain.StatusPaymentFailed
	rec.UpdatedAt = r.clock.Now()
	if err := r.store.Put(ctx, rec); err != nil {
		r.logger.Printf("WARN: persist payment failure for job %s: %v", jobID, err)
	}
	return rec, nil
}

// forceCancel is the sweeper's entry point. Eligibility is re-checked under
// the job lock because a render outcome may have settled the record between
// the sweep's scan and this call.
func (r *Reconciler) forceCancel(ctx context.Context, jobID string, cutoff time.Time) (bool, error) {
	unlock := r.locks.acquire(jobID)
	defer unlock()

	rec, ok, err := r.store.Get(ctx, jobID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if rec.Status != domain.StatusAuthorized && rec.Status != domain.StatusCancelFailed {
		return false, nil
	}
	if rec.CreatedAt.After(cutoff) {
		return false, nil
	}
	if rec.PaymentIntentID == "" {
		return false, nil
	}

	if _, err := r.settle(ctx, rec, false); err != nil {
		return false, err
	}
	return true, nil
}

// settle issues exactly one capture or cancel and records the result. Gateway
// failures are persisted as capture_failed/cancel_failed and surfaced to the
// caller without an inline retry.
func (r *Reconciler) settle(ctx context.Context, rec domain.PaymentRecord, succeeded bool) (domain.PaymentRecord, error) {
	var gwErr error
	if succeeded {
		if gwErr = r.gw.Capture(ctx, rec.PaymentIntentID); gwErr == nil {
			rec.Status = domain.StatusCaptured
			metrics.CapturesTotal.Inc()
		} else {
			rec.Status = domain.StatusCaptureFailed
			metrics.GatewayFailuresTotal.Inc()
		}
	} else {
		if gwErr = r.gw.Cancel(ctx, rec.PaymentIntentID); gwErr == nil {
			rec.Status = domain.StatusCanceled
			metrics.CancelsTotal.Inc()
		} else {
			rec.Status = domain.StatusCancelFailed
			metrics.GatewayFailuresTotal.Inc()
		}
	}

	rec.UpdatedAt = r.clock.Now()
	if err := r.store.Put(ctx, rec); err != nil {
		// The gateway call already happened; losing the write must not repeat it.
		r.logger.Printf("WARN: persist settlement for job %s: %v", rec.JobID, err)
	}

	if gwErr != nil {
		return rec, fmt.Errorf("%w: %v", domain.ErrGatewayFailure, gwErr)
	}
	return rec, nil
}
