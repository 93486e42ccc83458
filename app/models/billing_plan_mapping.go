package models

import "time"

// BillingPlanMapping maps processor price references to internal plan slugs.
// Price identifiers are environment specific, so the table is versioned
// configuration rather than code.
type BillingPlanMapping struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Provider        string    `gorm:"type:varchar(20);not null;index:ux_billing_plan_mappings_ref,unique,priority:1;index:idx_billing_plan_mappings_plan,priority:1" json:"provider"`
	ProviderPriceID string    `gorm:"type:varchar(191);not null;index:ux_billing_plan_mappings_ref,unique,priority:2" json:"provider_price_id"`
	PlanSlug        string    `gorm:"type:varchar(50);not null;index:idx_billing_plan_mappings_plan,priority:2" json:"plan_slug"`
	BillingCycle    string    `gorm:"type:varchar(16);not null;default:'monthly';index:idx_billing_plan_mappings_plan,priority:3" json:"billing_cycle"`
	Version         int       `gorm:"not null;default:1" json:"version"`
	IsActive        bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
