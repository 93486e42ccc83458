package catalog

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ComplyTrack/app/models"
	"github.com/ManuelReschke/ComplyTrack/app/repository"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/entitlements"
)

const (
	PlanStarter      = "starter"
	PlanProfessional = "professional"
	PlanBusiness     = "business"
	PlanEnterprise   = "enterprise"
)

var ErrPlanNotFound = errors.New("plan not found")

func features(enabled ...entitlements.Feature) map[string]bool {
	m := make(map[string]bool, len(entitlements.AllFeatures))
	for _, f := range entitlements.AllFeatures {
		m[string(f)] = false
	}
	for _, f := range enabled {
		m[string(f)] = true
	}
	return m
}

// Defaults returns the built-in plan definitions, lowest rank first.
func Defaults() []models.Plan {
	return []models.Plan{
		{
			Slug:      PlanStarter,
			Name:      "Starter",
			Rank:      0,
			MaxAssets: 25,
			MaxUsers:  2,
			Features:  datatypes.NewJSONType(features()),
			IsActive:  true,
		},
		{
			Slug:      PlanProfessional,
			Name:      "Professional",
			Rank:      10,
			MaxAssets: 250,
			MaxUsers:  10,
			Features:  datatypes.NewJSONType(features(entitlements.FeatureCompliance, entitlements.FeatureReporting)),
			IsActive:  true,
		},
		{
			Slug:      PlanBusiness,
			Name:      "Business",
			Rank:      20,
			MaxAssets: 1000,
			MaxUsers:  25,
			Features: datatypes.NewJSONType(features(
				entitlements.FeatureCompliance,
				entitlements.FeatureReporting,
				entitlements.FeatureAuditTrail,
				entitlements.FeatureAPIAccess,
				entitlements.FeatureBulkImport,
			)),
			IsActive: true,
		},
		{
			Slug:      PlanEnterprise,
			Name:      "Enterprise",
			Rank:      30,
			MaxAssets: models.Unlimited,
			MaxUsers:  models.Unlimited,
			Features:  datatypes.NewJSONType(features(entitlements.AllFeatures...)),
			SalesOnly: true,
			IsActive:  true,
		},
	}
}

// NormalizeSlug lower-cases and trims a plan slug.
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

// Purchasable reports whether a plan can be bought through self-service checkout.
func Purchasable(plan *models.Plan) bool {
	if plan == nil || !plan.IsActive || plan.SalesOnly {
		return false
	}
	return plan.Slug != PlanEnterprise
}

// Seed writes the default plans. Existing rows with the same slug are updated.
func Seed(plans repository.PlanRepository) error {
	for _, p := range Defaults() {
		plan := p
		if err := plans.Upsert(&plan); err != nil {
			return fmt.Errorf("seed plan %s: %w", plan.Slug, err)
		}
	}
	return nil
}

// Lookup finds a plan by slug and maps a missing row to ErrPlanNotFound.
func Lookup(plans repository.PlanRepository, slug string) (*models.Plan, error) {
	plan, err := plans.GetBySlug(NormalizeSlug(slug))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

// Lowest returns the lowest active plan, used wherever an organization has no
// resolvable plan.
func Lowest(plans repository.PlanRepository) (*models.Plan, error) {
	plan, err := plans.GetLowest()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlanNotFound
	}
	return plan, err
}
