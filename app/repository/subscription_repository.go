package repository

import (
	"github.com/ManuelReschke/ComplyTrack/app/models"
	"gorm.io/gorm"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// GetByOrganizationID retrieves the subscription with its plan preloaded
func (r *subscriptionRepository) GetByOrganizationID(orgID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Preload("Plan").Where("organization_id = ?", orgID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
