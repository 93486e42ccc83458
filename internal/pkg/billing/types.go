package billing

import "time"

// EventKind is the closed set of processor events the synchronizer understands.
// Anything else decodes to EventUnknown and is acknowledged without effect.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventCheckoutCompleted
	EventSubscriptionCreated
	EventSubscriptionUpdated
	EventSubscriptionDeleted
	EventInvoicePaid
	EventInvoicePaymentFailed
)

const (
	stripeCheckoutCompleted     = "checkout.session.completed"
	stripeSubscriptionCreated   = "customer.subscription.created"
	stripeSubscriptionUpdated   = "customer.subscription.updated"
	stripeSubscriptionDeleted   = "customer.subscription.deleted"
	stripeInvoicePaid           = "invoice.paid"
	stripeInvoicePaymentFailed  = "invoice.payment_failed"
	metadataOrganizationIDField = "organization_id"
)

var kindByType = map[string]EventKind{
	stripeCheckoutCompleted:    EventCheckoutCompleted,
	stripeSubscriptionCreated:  EventSubscriptionCreated,
	stripeSubscriptionUpdated:  EventSubscriptionUpdated,
	stripeSubscriptionDeleted:  EventSubscriptionDeleted,
	stripeInvoicePaid:          EventInvoicePaid,
	stripeInvoicePaymentFailed: EventInvoicePaymentFailed,
}

// KindOf maps a processor event type to its kind.
func KindOf(eventType string) EventKind {
	if k, ok := kindByType[eventType]; ok {
		return k
	}
	return EventUnknown
}

func (k EventKind) String() string {
	switch k {
	case EventCheckoutCompleted:
		return "checkout_completed"
	case EventSubscriptionCreated:
		return "subscription_created"
	case EventSubscriptionUpdated:
		return "subscription_updated"
	case EventSubscriptionDeleted:
		return "subscription_deleted"
	case EventInvoicePaid:
		return "invoice_paid"
	case EventInvoicePaymentFailed:
		return "invoice_payment_failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of applying one event.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeStale     Outcome = "stale"
	OutcomeRejected  Outcome = "rejected"
)

// Event is the provider-neutral shape of a verified processor event. Exactly
// one of Checkout, Subscription or Invoice is set for known kinds.
type Event struct {
	ID         string
	Type       string
	Kind       EventKind
	OccurredAt time.Time

	Checkout     *CheckoutCompleted
	Subscription *SubscriptionChange
	Invoice      *InvoiceNotice

	// DecodeErr is set when the payload could not be read. The event is still
	// recorded so the processor stops redelivering it.
	DecodeErr error
}

type CheckoutCompleted struct {
	OrganizationID  uint
	CustomerRef     string
	SubscriptionRef string
}

type SubscriptionChange struct {
	OrganizationID     uint
	CustomerRef        string
	SubscriptionRef    string
	PriceRef           string
	ExternalStatus     string
	BillingCycle       string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
}

type InvoiceNotice struct {
	OrganizationID  uint
	CustomerRef     string
	SubscriptionRef string
	AmountDue       int64
	AmountPaid      int64
	Currency        string
}

// organizationHint returns the organization id carried in event metadata, 0 if none.
func (e Event) organizationHint() uint {
	switch {
	case e.Checkout != nil:
		return e.Checkout.OrganizationID
	case e.Subscription != nil:
		return e.Subscription.OrganizationID
	case e.Invoice != nil:
		return e.Invoice.OrganizationID
	}
	return 0
}

func (e Event) customerRef() string {
	switch {
	case e.Checkout != nil:
		return e.Checkout.CustomerRef
	case e.Subscription != nil:
		return e.Subscription.CustomerRef
	case e.Invoice != nil:
		return e.Invoice.CustomerRef
	}
	return ""
}

func (e Event) subscriptionRef() string {
	switch {
	case e.Checkout != nil:
		return e.Checkout.SubscriptionRef
	case e.Subscription != nil:
		return e.Subscription.SubscriptionRef
	case e.Invoice != nil:
		return e.Invoice.SubscriptionRef
	}
	return ""
}
