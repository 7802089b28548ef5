package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/whaydenschwartz-lang/SeeAgain/internal/domain"
)

// Store is the Postgres-backed payment ledger. Every Put is a single upsert,
// committed before the call returns.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Get(ctx context.Context, jobID string) (domain.PaymentRecord, bool, error) {
	const query = `
SELECT job_id, payment_intent_id, session_id, status, created_at, updated_at
FROM payments
WHERE job_id = $1`

	var rec domain.PaymentRecord
	err := s.pool.QueryRow(ctx, query, jobID).
		Scan(&rec.JobID, &rec.PaymentIntentID, &rec.SessionID, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.PaymentRecord{}, false, nil
		}
		return domain.PaymentRecord{}, false, fmt.Errorf("get payment: %w", err)
	}
	return rec, true, nil
}

func (s *Store) Put(ctx context.Context, rec domain.PaymentRecord) error {
	const stmt = `
INSERT INTO payments (job_id, payment_intent_id, session_id, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (job_id) DO UPDATE SET
	payment_intent_id = EXCLUDED.payment_intent_id,
	session_id = EXCLUDED.session_id,
	status = EXCLUDED.status,
	updated_at = EXCLUDED.updated_at`

	_, err := s.pool.Exec(ctx, stmt,
		rec.JobID,
		rec.PaymentIntentID,
		rec.SessionID,
		rec.Status,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("put payment: %w", err)
	}
	return nil
}

func (s *Store) All(ctx context.Context) ([]domain.PaymentRecord, error) {
	const query = `
SELECT job_id, payment_intent_id, session_id, status, created_at, updated_at
FROM payments
ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []domain.PaymentRecord
	for rows.Next() {
		var rec domain.PaymentRecord
		if err := rows.Scan(&rec.JobID, &rec.PaymentIntentID, &rec.SessionID, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return out, nil
}
