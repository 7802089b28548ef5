package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/whaydenschwartz-lang/SeeAgain/internal/domain"
)

// OutcomeRecorder is the minimal interface needed to record a render outcome.
type OutcomeRecorder interface {
	OnJobOutcome(ctx context.Context, jobID string, succeeded bool) (domain.PaymentRecord, error)
}

// HandleJobOutcome returns an HTTP handler for the render worker's completion
// callback.
func HandleJobOutcome(svc OutcomeRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		jobID, ok := parseOutcomePath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		var req jobOutcomeRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil || req.Succeeded == nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		rec, err := svc.OnJobOutcome(r.Context(), jobID, *req.Succeeded)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrMissingJobID):
				writeError(w, http.StatusBadRequest, codeMissingJobID, err.Error())
			case errors.Is(err, domain.ErrGatewayFailure):
				// The *_failed status is already persisted; the sweeper or an
				// operator takes it from here.
				writeError(w, http.StatusBadGateway, codeGatewayFailure, "settlement failed")
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		resp := paymentRecordResponse{
			JobID:     rec.JobID,
			Status:    string(rec.Status),
			UpdatedAt: rec.UpdatedAt,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func parseOutcomePath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 4 {
		return "", false
	}
	if parts[0] != "internal" || parts[1] != "jobs" || parts[3] != "outcome" {
		return "", false
	}
	if parts[2] == "" {
		return "", false
	}
	return parts[2], true
}

type jobOutcomeRequest struct {
	Succeeded *bool `json:"succeeded"`
}

type paymentRecordResponse struct {
	JobID     string    `json:"job_id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}
