package billing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
)

type stripeCheckoutSession struct {
	ID              string            `json:"id"`
	Mode            string            `json:"mode"`
	Customer        json.RawMessage   `json:"customer"`
	Subscription    json.RawMessage   `json:"subscription"`
	ClientReference string            `json:"client_reference_id"`
	Metadata        map[string]string `json:"metadata"`
}

type stripeSubscription struct {
	ID                 string            `json:"id"`
	Customer           json.RawMessage   `json:"customer"`
	Status             string            `json:"status"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	Metadata           map[string]string `json:"metadata"`
	Items              struct {
		Data []struct {
			CurrentPeriodStart int64 `json:"current_period_start"`
			CurrentPeriodEnd   int64 `json:"current_period_end"`
			Price              struct {
				ID        string `json:"id"`
				Recurring *struct {
					Interval string `json:"interval"`
				} `json:"recurring"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

type stripeInvoice struct {
	ID           string          `json:"id"`
	Customer     json.RawMessage `json:"customer"`
	Subscription json.RawMessage `json:"subscription"`
	AmountDue    int64           `json:"amount_due"`
	AmountPaid   int64           `json:"amount_paid"`
	Currency     string          `json:"currency"`
	Parent       *struct {
		SubscriptionDetails *struct {
			Subscription json.RawMessage   `json:"subscription"`
			Metadata     map[string]string `json:"metadata"`
		} `json:"subscription_details"`
	} `json:"parent"`
	SubscriptionDetails *struct {
		Metadata map[string]string `json:"metadata"`
	} `json:"subscription_details"`
}

// DecodeStripeEvent converts a verified processor event into an Event.
// Decoding problems are reported through Event.DecodeErr, never as a panic
// or a lost event.
func DecodeStripeEvent(se stripe.Event) Event {
	ev := Event{
		ID:   strings.TrimSpace(se.ID),
		Type: string(se.Type),
		Kind: KindOf(string(se.Type)),
	}
	if se.Created > 0 {
		ev.OccurredAt = time.Unix(se.Created, 0).UTC()
	} else {
		ev.OccurredAt = time.Now().UTC()
	}

	var raw json.RawMessage
	if se.Data != nil {
		raw = se.Data.Raw
	}

	switch ev.Kind {
	case EventCheckoutCompleted:
		var s stripeCheckoutSession
		if err := json.Unmarshal(raw, &s); err != nil {
			ev.DecodeErr = fmt.Errorf("%w: decode checkout session: %v", ErrMalformedEvent, err)
			return ev
		}
		orgID := parseOrganizationID(s.Metadata[metadataOrganizationIDField])
		if orgID == 0 {
			orgID = parseOrganizationID(s.ClientReference)
		}
		ev.Checkout = &CheckoutCompleted{
			OrganizationID:  orgID,
			CustomerRef:     objectID(s.Customer),
			SubscriptionRef: objectID(s.Subscription),
		}
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		var s stripeSubscription
		if err := json.Unmarshal(raw, &s); err != nil {
			ev.DecodeErr = fmt.Errorf("%w: decode subscription: %v", ErrMalformedEvent, err)
			return ev
		}
		ev.Subscription = subscriptionChange(s)
	case EventInvoicePaid, EventInvoicePaymentFailed:
		var inv stripeInvoice
		if err := json.Unmarshal(raw, &inv); err != nil {
			ev.DecodeErr = fmt.Errorf("%w: decode invoice: %v", ErrMalformedEvent, err)
			return ev
		}
		ev.Invoice = invoiceNotice(inv)
	}
	return ev
}

func subscriptionChange(s stripeSubscription) *SubscriptionChange {
	c := &SubscriptionChange{
		OrganizationID:  parseOrganizationID(s.Metadata[metadataOrganizationIDField]),
		CustomerRef:     objectID(s.Customer),
		SubscriptionRef: strings.TrimSpace(s.ID),
		ExternalStatus:  s.Status,
	}

	start, end := s.CurrentPeriodStart, s.CurrentPeriodEnd
	if len(s.Items.Data) > 0 {
		item := s.Items.Data[0]
		c.PriceRef = strings.TrimSpace(item.Price.ID)
		if item.Price.Recurring != nil {
			c.BillingCycle = normalizeCycle(item.Price.Recurring.Interval)
		}
		// Newer API versions only carry the period on the items.
		if start == 0 {
			start = item.CurrentPeriodStart
		}
		if end == 0 {
			end = item.CurrentPeriodEnd
		}
	}
	c.CurrentPeriodStart = unixPtr(start)
	c.CurrentPeriodEnd = unixPtr(end)
	return c
}

func invoiceNotice(inv stripeInvoice) *InvoiceNotice {
	n := &InvoiceNotice{
		CustomerRef:     objectID(inv.Customer),
		SubscriptionRef: objectID(inv.Subscription),
		AmountDue:       inv.AmountDue,
		AmountPaid:      inv.AmountPaid,
		Currency:        inv.Currency,
	}
	if inv.Parent != nil && inv.Parent.SubscriptionDetails != nil {
		if n.SubscriptionRef == "" {
			n.SubscriptionRef = objectID(inv.Parent.SubscriptionDetails.Subscription)
		}
		n.OrganizationID = parseOrganizationID(inv.Parent.SubscriptionDetails.Metadata[metadataOrganizationIDField])
	}
	if n.OrganizationID == 0 && inv.SubscriptionDetails != nil {
		n.OrganizationID = parseOrganizationID(inv.SubscriptionDetails.Metadata[metadataOrganizationIDField])
	}
	return n
}

// objectID reads a reference that is either a plain id string or an expanded object.
func objectID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return strings.TrimSpace(id)
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.ID)
	}
	return ""
}

func parseOrganizationID(v string) uint {
	id, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

func unixPtr(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
