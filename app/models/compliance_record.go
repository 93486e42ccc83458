package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	ComplianceResultPass = "pass"
	ComplianceResultFail = "fail"
)

// ComplianceRecord is an inspection result logged against an asset.
type ComplianceRecord struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrganizationID uint      `gorm:"not null;index" json:"organization_id"`
	AssetID        uint      `gorm:"not null;index" json:"asset_id" validate:"required"`
	Result         string    `gorm:"type:varchar(10);not null" json:"result" validate:"required,oneof=pass fail"`
	Notes          string    `gorm:"type:text" json:"notes" validate:"max=2000"`
	InspectedAt    time.Time `gorm:"type:timestamp;not null" json:"inspected_at"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (r *ComplianceRecord) Validate() error {
	return validator.New().Struct(r)
}
