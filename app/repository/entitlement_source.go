package repository

import (
	"context"
	"errors"

	"github.com/ManuelReschke/ComplyTrack/app/models"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/entitlements"
	"gorm.io/gorm"
)

// entitlementSource implements entitlements.Source on top of gorm. Every
// read is independent so the loader can issue them concurrently.
type entitlementSource struct {
	db *gorm.DB
}

// NewEntitlementSource creates the read side for the entitlement loader
func NewEntitlementSource(db *gorm.DB) entitlements.Source {
	return &entitlementSource{db: db}
}

func (s *entitlementSource) FindOrganization(ctx context.Context, orgID uint) (*models.Organization, error) {
	org, err := NewOrganizationRepository(s.db.WithContext(ctx)).GetByID(orgID)
	return notFoundAsNil(org, err)
}

func (s *entitlementSource) FindSubscription(ctx context.Context, orgID uint) (*models.Subscription, error) {
	sub, err := NewSubscriptionRepository(s.db.WithContext(ctx)).GetByOrganizationID(orgID)
	return notFoundAsNil(sub, err)
}

func (s *entitlementSource) ListOverrides(ctx context.Context, orgID uint) ([]models.EntitlementOverride, error) {
	return NewOverrideRepository(s.db.WithContext(ctx)).GetByOrganizationID(orgID)
}

func (s *entitlementSource) CountAssets(ctx context.Context, orgID uint) (int64, error) {
	return countActiveAssets(s.db.WithContext(ctx), orgID)
}

func (s *entitlementSource) CountMembers(ctx context.Context, orgID uint) (int64, error) {
	return countActiveMembers(s.db.WithContext(ctx), orgID)
}

func (s *entitlementSource) LowestPlan(ctx context.Context) (*models.Plan, error) {
	plan, err := NewPlanRepository(s.db.WithContext(ctx)).GetLowest()
	return notFoundAsNil(plan, err)
}

func notFoundAsNil[T any](v *T, err error) (*T, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}
