package repository

import (
	"time"

	"github.com/ManuelReschke/ComplyTrack/app/models"
	"gorm.io/gorm"
)

// assetRepository implements the AssetRepository interface
type assetRepository struct {
	db *gorm.DB
}

// NewAssetRepository creates a new asset repository instance
func NewAssetRepository(db *gorm.DB) AssetRepository {
	return &assetRepository{db: db}
}

func (r *assetRepository) Create(asset *models.Asset) error {
	return r.db.Create(asset).Error
}

func (r *assetRepository) GetByID(orgID, id uint) (*models.Asset, error) {
	var asset models.Asset
	err := r.db.Where("organization_id = ? AND archived_at IS NULL", orgID).First(&asset, id).Error
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *assetRepository) GetByOrganizationID(orgID uint, offset, limit int) ([]models.Asset, error) {
	var assets []models.Asset
	err := r.db.Where("organization_id = ? AND archived_at IS NULL", orgID).
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&assets).Error
	return assets, err
}

// CountByOrganizationID counts assets that occupy quota. Archived assets do not.
func (r *assetRepository) CountByOrganizationID(orgID uint) (int64, error) {
	return countActiveAssets(r.db, orgID)
}

func (r *assetRepository) Archive(orgID, id uint) error {
	res := r.db.Model(&models.Asset{}).
		Where("id = ? AND organization_id = ? AND archived_at IS NULL", id, orgID).
		Update("archived_at", time.Now().UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func countActiveAssets(db *gorm.DB, orgID uint) (int64, error) {
	var count int64
	err := db.Model(&models.Asset{}).
		Where("organization_id = ? AND archived_at IS NULL", orgID).
		Count(&count).Error
	return count, err
}
