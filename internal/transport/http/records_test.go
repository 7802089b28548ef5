package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/whaydenschwartz-lang/SeeAgain/internal/domain"
)

type fakeRecordSource struct {
	records map[string]domain.PaymentRecord
	err     error
}

func (f *fakeRecordSource) Get(_ context.Context, jobID string) (domain.PaymentRecord, bool, error) {
	if f.err != nil {
		return domain.PaymentRecord{}, false, f.err
	}
	rec, ok := f.records[jobID]
	return rec, ok, nil
}

func TestHandleGetPayment(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	src := &fakeRecordSource{records: map[string]domain.PaymentRecord{
		"job-1": {
			JobID:           "job-1",
			PaymentIntentID: "pi_1",
			SessionID:       "sess_1",
			Status:          domain.StatusCaptured,
			CreatedAt:       now,
			UpdatedAt:       now,
		},
	}}

	t.Run("returns record", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/payments/job-1", nil)
		rec := httptest.NewRecorder()
		HandleGetPayment(src)(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		for _, substr := range []string{`"job_id":"job-1"`, `"payment_intent_id":"pi_1"`, `"status":"captured"`} {
			if !strings.Contains(body, substr) {
				t.Fatalf("expected body to contain %q, got %q", substr, body)
			}
		}
	})

	t.Run("unknown job returns 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/payments/job-9", nil)
		rec := httptest.NewRecorder()
		HandleGetPayment(src)(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), codeRecordNotFound) {
			t.Fatalf("expected record-not-found code, got %q", rec.Body.String())
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/payments/job-1", nil)
		rec := httptest.NewRecorder()
		HandleGetPayment(src)(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("store error returns 500", func(t *testing.T) {
		broken := &fakeRecordSource{err: errors.New("boom")}
		req := httptest.NewRequest(http.MethodGet, "/payments/job-1", nil)
		rec := httptest.NewRecorder()
		HandleGetPayment(broken)(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}
