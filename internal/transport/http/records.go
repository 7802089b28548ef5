package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/whaydenschwartz-lang/SeeAgain/internal/domain"
)

// RecordSource is the minimal read interface for the audit lookup.
type RecordSource interface {
	Get(ctx context.Context, jobID string) (domain.PaymentRecord, bool, error)
}

// HandleGetPayment returns an HTTP handler that exposes one ledger record for
// operational inspection.
func HandleGetPayment(src RecordSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		jobID, ok := parsePaymentPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		rec, found, err := src.Get(r.Context(), jobID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, codeRecordNotFound, domain.ErrRecordNotFound.Error())
			return
		}

		resp := paymentDetailResponse{
			JobID:           rec.JobID,
			PaymentIntentID: rec.PaymentIntentID,
			SessionID:       rec.SessionID,
			Status:          string(rec.Status),
			CreatedAt:       rec.CreatedAt,
			UpdatedAt:       rec.UpdatedAt,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func parsePaymentPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 {
		return "", false
	}
	if parts[0] != "payments" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

type paymentDetailResponse struct {
	JobID           string    `json:"job_id"`
	PaymentIntentID string    `json:"payment_intent_id,omitempty"`
	SessionID       string    `json:"session_id,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
