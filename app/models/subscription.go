package models

import "time"

const (
	SubscriptionStatusTrialing  = "trialing"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusPastDue   = "past_due"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
)

const (
	BillingCycleMonthly = "monthly"
	BillingCycleYearly  = "yearly"
)

// Subscription is one-to-one with Organization. It is written by the billing
// synchronizer and by explicit plan changes, both under the per-organization lock.
type Subscription struct {
	ID                      uint       `gorm:"primaryKey" json:"id"`
	OrganizationID          uint       `gorm:"not null;uniqueIndex" json:"organization_id"`
	PlanID                  *uint      `gorm:"index" json:"plan_id,omitempty"`
	Plan                    *Plan      `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	Status                  string     `gorm:"type:varchar(32);not null;default:'trialing';index" json:"status"`
	BillingCycle            string     `gorm:"type:varchar(16);not null;default:'monthly'" json:"billing_cycle"`
	CurrentPeriodStart      *time.Time `gorm:"type:timestamp;default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd        *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	ExternalSubscriptionRef *string    `gorm:"type:varchar(191);index" json:"external_subscription_ref,omitempty"`
	ExternalPriceRef        *string    `gorm:"type:varchar(191)" json:"external_price_ref,omitempty"`
	LastEventAt             *time.Time `gorm:"type:timestamp;default:null" json:"-"`
	CreatedAt               time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt               time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsEntitling reports whether the status lets plan features through.
func IsEntitling(status string) bool {
	switch status {
	case SubscriptionStatusActive, SubscriptionStatusTrialing:
		return true
	default:
		return false
	}
}

// RequiresPlan reports whether a status must carry a plan reference.
func RequiresPlan(status string) bool {
	switch status {
	case SubscriptionStatusActive, SubscriptionStatusPastDue, SubscriptionStatusTrialing:
		return true
	default:
		return false
	}
}

// ExternalRef returns the processor subscription reference or an empty string.
func (s *Subscription) ExternalRef() string {
	if s == nil || s.ExternalSubscriptionRef == nil {
		return ""
	}
	return *s.ExternalSubscriptionRef
}
