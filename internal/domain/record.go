package domain

import "time"

type Status string

const (
	// StatusAuthorized means the hold is placed and the payment intent is known.
	StatusAuthorized Status = "authorized"
	// StatusRenderSucceeded and StatusRenderFailed are placeholders: the render
	// outcome arrived before the authorization, so settlement waits for it.
	StatusRenderSucceeded Status = "render_succeeded"
	StatusRenderFailed    Status = "render_failed"
	StatusCaptured        Status = "captured"
	StatusCanceled        Status = "canceled"
	StatusCaptureFailed   Status = "capture_failed"
	StatusCancelFailed    Status = "cancel_failed"
	StatusPaymentFailed   Status = "payment_failed"
)

// Terminal reports whether the status admits no further transition.
// capture_failed and cancel_failed are not terminal: a cancel is retried by the
// sweeper once the record is over-age, and a failed capture awaits an operator.
func (s Status) Terminal() bool {
	switch s {
	case StatusCaptured, StatusCanceled, StatusPaymentFailed:
		return true
	}
	return false
}

// Placeholder reports whether the status records a render outcome that arrived
// before its authorization.
func (s Status) Placeholder() bool {
	return s == StatusRenderSucceeded || s == StatusRenderFailed
}

// PaymentRecord tracks one render job's payment hold from authorization to
// settlement. Records are never deleted; the ledger doubles as an audit trail.
type PaymentRecord struct {
	JobID           string    `json:"job_id"`
	PaymentIntentID string    `json:"payment_intent_id,omitempty"`
	SessionID       string    `json:"session_id,omitempty"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
