package repository

import (
	"github.com/ManuelReschke/ComplyTrack/app/models"
	"gorm.io/gorm"
)

// overrideRepository implements the OverrideRepository interface
type overrideRepository struct {
	db *gorm.DB
}

// NewOverrideRepository creates a new override repository instance
func NewOverrideRepository(db *gorm.DB) OverrideRepository {
	return &overrideRepository{db: db}
}

func (r *overrideRepository) GetByOrganizationID(orgID uint) ([]models.EntitlementOverride, error) {
	var overrides []models.EntitlementOverride
	err := r.db.Where("organization_id = ?", orgID).Find(&overrides).Error
	return overrides, err
}
