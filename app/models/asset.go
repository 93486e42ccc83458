package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Asset is a tracked piece of equipment. Only the fields needed for quota
// accounting are modelled here.
type Asset struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	OrganizationID uint       `gorm:"not null;index" json:"organization_id"`
	Name           string     `gorm:"type:varchar(200);not null" json:"name" validate:"required,min=1,max=200"`
	SerialNumber   string     `gorm:"type:varchar(100);default:''" json:"serial_number" validate:"max=100"`
	ArchivedAt     *time.Time `gorm:"type:timestamp;default:null;index" json:"archived_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Asset) Validate() error {
	return validator.New().Struct(a)
}
