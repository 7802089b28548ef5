// Package gateway settles payment holds through Stripe PaymentIntents.
package gateway

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

// Client issues capture/cancel calls against Stripe. A call that fails because
// the intent is already in the requested end state counts as success, so the
// reconciler stays idempotent across webhook redeliveries.
type Client struct {
	pi *paymentintent.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		pi: &paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: apiKey},
	}
}

func (c *Client) Capture(ctx context.Context, paymentIntentRef string) error {
	params := &stripe.PaymentIntentCaptureParams{Params: stripe.Params{Context: ctx}}
	if _, err := c.pi.Capture(paymentIntentRef, params); err != nil {
		if c.intentStatus(ctx, paymentIntentRef) == stripe.PaymentIntentStatusSucceeded {
			return nil
		}
		return fmt.Errorf("capture %s: %w", paymentIntentRef, err)
	}
	return nil
}

func (c *Client) Cancel(ctx context.Context, paymentIntentRef string) error {
	params := &stripe.PaymentIntentCancelParams{Params: stripe.Params{Context: ctx}}
	if _, err := c.pi.Cancel(paymentIntentRef, params); err != nil {
		if c.intentStatus(ctx, paymentIntentRef) == stripe.PaymentIntentStatusCanceled {
			return nil
		}
		return fmt.Errorf("cancel %s: %w", paymentIntentRef, err)
	}
	return nil
}

func (c *Client) intentStatus(ctx context.Context, paymentIntentRef string) stripe.PaymentIntentStatus {
	params := &stripe.PaymentIntentParams{Params: stripe.Params{Context: ctx}}
	intent, err := c.pi.Get(paymentIntentRef, params)
	if err != nil {
		return ""
	}
	return intent.Status
}
