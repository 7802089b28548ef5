// Package ledger defines the durable store of payment records.
package ledger

import (
	"context"

	"github.com/whaydenschwartz-lang/SeeAgain/internal/domain"
)

// Store persists payment records keyed by job id. Implementations must survive
// process restart: everything written through Put is visible to Get and All
// after reopening the store.
type Store interface {
	Get(ctx context.Context, jobID string) (domain.PaymentRecord, bool, error)
	Put(ctx context.Context, rec domain.PaymentRecord) error
	All(ctx context.Context) ([]domain.PaymentRecord, error)
}
