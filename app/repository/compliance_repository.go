package repository

import (
	"github.com/ManuelReschke/ComplyTrack/app/models"
	"gorm.io/gorm"
)

// complianceRepository implements the ComplianceRepository interface
type complianceRepository struct {
	db *gorm.DB
}

// NewComplianceRepository creates a new compliance repository instance
func NewComplianceRepository(db *gorm.DB) ComplianceRepository {
	return &complianceRepository{db: db}
}

func (r *complianceRepository) Create(record *models.ComplianceRecord) error {
	return r.db.Create(record).Error
}

func (r *complianceRepository) GetByOrganizationID(orgID uint, offset, limit int) ([]models.ComplianceRecord, error) {
	var records []models.ComplianceRecord
	err := r.db.Where("organization_id = ?", orgID).
		Order("inspected_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&records).Error
	return records, err
}

func (r *complianceRepository) GetByAssetID(orgID, assetID uint) ([]models.ComplianceRecord, error) {
	var records []models.ComplianceRecord
	err := r.db.Where("organization_id = ? AND asset_id = ?", orgID, assetID).
		Order("inspected_at DESC").
		Find(&records).Error
	return records, err
}
