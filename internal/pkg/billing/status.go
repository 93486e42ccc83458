package billing

import (
	"strings"

	"github.com/ManuelReschke/ComplyTrack/app/models"
)

// MapStripeStatus maps a processor subscription status onto the internal enum.
func MapStripeStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "past_due", "unpaid":
		return models.SubscriptionStatusPastDue
	case "canceled", "paused":
		return models.SubscriptionStatusCancelled
	case "trialing", "incomplete":
		return models.SubscriptionStatusTrialing
	case "incomplete_expired":
		return models.SubscriptionStatusExpired
	default:
		return models.SubscriptionStatusActive
	}
}

func normalizeCycle(cycle string) string {
	switch strings.ToLower(strings.TrimSpace(cycle)) {
	case models.BillingCycleMonthly, "month":
		return models.BillingCycleMonthly
	case models.BillingCycleYearly, "year", "annual":
		return models.BillingCycleYearly
	default:
		return ""
	}
}
