package billing

import (
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// VerifyStripeSignature checks the Stripe-Signature header against the shared
// secret before the payload is parsed.
func VerifyStripeSignature(payload []byte, signatureHeader, webhookSecret string) (stripe.Event, error) {
	sig := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(webhookSecret)
	if sig == "" || secret == "" {
		return stripe.Event{}, ErrSignatureInvalid
	}

	event, err := webhook.ConstructEventWithOptions(payload, sig, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	return event, nil
}

// ParseStripeWebhook verifies and decodes a webhook delivery.
func ParseStripeWebhook(payload []byte, signatureHeader, webhookSecret string) (Event, error) {
	se, err := VerifyStripeSignature(payload, signatureHeader, webhookSecret)
	if err != nil {
		return Event{}, err
	}
	return DecodeStripeEvent(se), nil
}
