package models

import (
	"time"

	"gorm.io/datatypes"
)

// Unlimited marks a quota without an upper bound.
const Unlimited int64 = -1

// Plan is a catalog entry. Features maps a feature key to its enablement.
type Plan struct {
	ID        uint                                `gorm:"primaryKey" json:"id"`
	Slug      string                              `gorm:"type:varchar(50);not null;uniqueIndex" json:"slug"`
	Name      string                              `gorm:"type:varchar(100);not null" json:"name"`
	Rank      int                                 `gorm:"not null;default:0;index" json:"rank"`
	MaxAssets int64                               `gorm:"not null;default:0" json:"max_assets"`
	MaxUsers  int64                               `gorm:"not null;default:0" json:"max_users"`
	Features  datatypes.JSONType[map[string]bool] `gorm:"type:json" json:"features"`
	SalesOnly bool                                `gorm:"default:false" json:"sales_only"`
	IsActive  bool                                `gorm:"default:true;index" json:"is_active"`
	CreatedAt time.Time                           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time                           `gorm:"autoUpdateTime" json:"updated_at"`
}

// FeatureMap returns the plan's feature flags, never nil.
func (p *Plan) FeatureMap() map[string]bool {
	if p == nil {
		return map[string]bool{}
	}
	m := p.Features.Data()
	if m == nil {
		return map[string]bool{}
	}
	return m
}
