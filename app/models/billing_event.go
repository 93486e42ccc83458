package models

import "time"

// BillingProviderStripe identifies the payment processor in ledger and mapping rows.
const BillingProviderStripe = "stripe"

// BillingEvent is the append-only idempotency ledger of processed processor events.
// ProviderEventID is unique per provider; a stored row is never reprocessed.
type BillingEvent struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Provider        string    `gorm:"type:varchar(20);not null;index:ux_billing_events_provider_event,unique,priority:1" json:"provider"`
	ProviderEventID string    `gorm:"type:varchar(191);not null;index:ux_billing_events_provider_event,unique,priority:2" json:"provider_event_id"`
	EventType       string    `gorm:"type:varchar(100);not null;index" json:"event_type"`
	OrganizationID  *uint     `gorm:"index" json:"organization_id,omitempty"`
	SubscriptionRef string    `gorm:"type:varchar(191);default:'';index" json:"subscription_ref"`
	Outcome         string    `gorm:"type:varchar(20);not null;default:'applied'" json:"outcome"`
	ProcessingError string    `gorm:"type:text" json:"processing_error"`
	OccurredAt      time.Time `gorm:"type:timestamp" json:"occurred_at"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
