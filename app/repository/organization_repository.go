package repository

import (
	"strings"

	"github.com/ManuelReschke/ComplyTrack/app/models"
	"gorm.io/gorm"
)

// organizationRepository implements the OrganizationRepository interface
type organizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a new organization repository instance
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

// GetByID retrieves a non-archived organization
func (r *organizationRepository) GetByID(id uint) (*models.Organization, error) {
	var org models.Organization
	err := r.db.Where("archived_at IS NULL").First(&org, id).Error
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// GetByAPIKeyHash resolves an API key hash to its organization.
func (r *organizationRepository) GetByAPIKeyHash(hash string) (*models.Organization, error) {
	trimmed := strings.TrimSpace(hash)
	if trimmed == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var org models.Organization
	err := r.db.Where("api_key_hash = ? AND api_key_hash <> '' AND archived_at IS NULL", trimmed).First(&org).Error
	if err != nil {
		return nil, err
	}
	return &org, nil
}
