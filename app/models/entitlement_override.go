package models

import "time"

// EntitlementOverride grants or revokes a single feature for one organization,
// independent of its plan. Written by administrative tooling only.
type EntitlementOverride struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	OrganizationID uint       `gorm:"not null;index:ux_entitlement_overrides_org_feature,unique,priority:1" json:"organization_id"`
	FeatureKey     string     `gorm:"type:varchar(100);not null;index:ux_entitlement_overrides_org_feature,unique,priority:2" json:"feature_key"`
	Granted        bool       `gorm:"not null" json:"granted"`
	ExpiresAt      *time.Time `gorm:"type:timestamp;default:null" json:"expires_at,omitempty"`
	Note           string     `gorm:"type:varchar(255);default:''" json:"note"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

