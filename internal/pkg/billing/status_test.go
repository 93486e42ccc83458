package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ManuelReschke/ComplyTrack/app/models"
)

func TestMapStripeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "active", want: models.SubscriptionStatusActive},
		{in: "past_due", want: models.SubscriptionStatusPastDue},
		{in: "unpaid", want: models.SubscriptionStatusPastDue},
		{in: "canceled", want: models.SubscriptionStatusCancelled},
		{in: "paused", want: models.SubscriptionStatusCancelled},
		{in: "trialing", want: models.SubscriptionStatusTrialing},
		{in: "incomplete", want: models.SubscriptionStatusTrialing},
		{in: "incomplete_expired", want: models.SubscriptionStatusExpired},
		{in: " PAST_DUE ", want: models.SubscriptionStatusPastDue},
		{in: "something_new", want: models.SubscriptionStatusActive},
		{in: "", want: models.SubscriptionStatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MapStripeStatus(tt.in))
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, EventCheckoutCompleted, KindOf("checkout.session.completed"))
	assert.Equal(t, EventSubscriptionDeleted, KindOf("customer.subscription.deleted"))
	assert.Equal(t, EventInvoicePaymentFailed, KindOf("invoice.payment_failed"))
	assert.Equal(t, EventUnknown, KindOf("customer.created"))
	assert.Equal(t, "unknown", KindOf("charge.refunded").String())
}
