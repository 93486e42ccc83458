package billing

import "errors"

var (
	ErrSignatureInvalid       = errors.New("invalid webhook signature")
	ErrMalformedEvent         = errors.New("malformed billing event")
	ErrOrganizationUnresolved = errors.New("organization could not be resolved from event")
	ErrPlanNotFound           = errors.New("plan not found")
	ErrPlanNotPurchasable     = errors.New("plan is not available for self-service checkout, please contact sales")
	ErrAlreadySubscribed      = errors.New("organization already has an active subscription")
	ErrNoCustomer             = errors.New("organization has no billing customer yet")
	ErrInvalidBillingCycle    = errors.New("billing cycle must be monthly or yearly")
	ErrPriceNotConfigured     = errors.New("no price configured for plan and billing cycle")
	ErrManagedExternally      = errors.New("subscription is managed by the payment processor, use the billing portal")
	ErrUpgradeRequiresPayment = errors.New("upgrades require checkout")
	ErrNotConfigured          = errors.New("payment processor is not configured")
)

// isPermanent reports whether retrying the same event can never succeed.
// Such events are recorded in the ledger and acknowledged.
func isPermanent(err error) bool {
	return errors.Is(err, ErrMalformedEvent) || errors.Is(err, ErrOrganizationUnresolved)
}
