package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"github.com/whaydenschwartz-lang/SeeAgain/internal/domain"
	"github.com/whaydenschwartz-lang/SeeAgain/internal/metrics"
)

const maxWebhookBody = 1 << 16

// AuthorizationNotifier is the minimal interface the webhook needs from the
// reconciler.
type AuthorizationNotifier interface {
	OnAuthorizationNotice(ctx context.Context, jobID, paymentIntentRef, sessionRef string) (domain.PaymentRecord, error)
	OnAsyncPaymentFailure(ctx context.Context, jobID string) (domain.PaymentRecord, error)
}

// HandleStripeWebhook verifies inbound Stripe events and dispatches checkout
// session notices into the reconciler. Stripe redelivers on any non-2xx, and
// every dispatched path is idempotent, so redelivery is always safe.
func HandleStripeWebhook(svc AuthorizationNotifier, signingSecret string, logger *log.Logger) http.HandlerFunc {
	if logger == nil {
		logger = log.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		event, err := webhook.ConstructEventWithOptions(
			payload,
			r.Header.Get("Stripe-Signature"),
			signingSecret,
			webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
		)
		if err != nil {
			metrics.WebhookEventsInvalidTotal.Inc()
			writeError(w, http.StatusBadRequest, codeInvalidSignature, "signature verification failed")
			return
		}
		metrics.WebhookEventsTotal.Inc()

		if err := dispatchEvent(r.Context(), svc, event, logger); err != nil {
			if errors.Is(err, domain.ErrGatewayFailure) {
				writeError(w, http.StatusBadGateway, codeGatewayFailure, "settlement failed")
				return
			}
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

func dispatchEvent(ctx context.Context, svc AuthorizationNotifier, event stripe.Event, logger *log.Logger) error {
	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		sess, jobID, ok := decodeSession(event, logger)
		if !ok {
			return nil
		}
		if event.Type == "checkout.session.completed" && sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
			// Delayed payment method; the authorization arrives with
			// async_payment_succeeded.
			return nil
		}
		if sess.PaymentIntent == nil || sess.PaymentIntent.ID == "" {
			logger.Printf("WARN: webhook event %s: session %s has no payment intent", event.ID, sess.ID)
			return nil
		}
		_, err := svc.OnAuthorizationNotice(ctx, jobID, sess.PaymentIntent.ID, sess.ID)
		return err
	case "checkout.session.async_payment_failed":
		_, jobID, ok := decodeSession(event, logger)
		if !ok {
			return nil
		}
		_, err := svc.OnAsyncPaymentFailure(ctx, jobID)
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil
		}
		return err
	default:
		// Not subscribed to anything else; acknowledge and ignore.
		return nil
	}
}

// decodeSession unwraps the checkout session and resolves which job it pays
// for. Sessions without a job reference are acknowledged so Stripe stops
// redelivering them.
func decodeSession(event stripe.Event, logger *log.Logger) (stripe.CheckoutSession, string, bool) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		logger.Printf("WARN: webhook event %s: decode session: %v", event.ID, err)
		return stripe.CheckoutSession{}, "", false
	}
	jobID := sess.Metadata["job_id"]
	if jobID == "" {
		jobID = sess.ClientReferenceID
	}
	if jobID == "" {
		logger.Printf("WARN: webhook event %s: session %s carries no job id", event.ID, sess.ID)
		return sess, "", false
	}
	return sess, jobID, true
}
