package repository

import (
	"github.com/ManuelReschke/ComplyTrack/app/models"
	"gorm.io/gorm"
)

// OrganizationRepository defines the interface for tenant operations
// Organizations are created and updated by the billing service, which owns
// their lifecycle fields.
type OrganizationRepository interface {
	GetByID(id uint) (*models.Organization, error)
	GetByAPIKeyHash(hash string) (*models.Organization, error)
}

// PlanRepository defines the interface for catalog reads and administrative edits
type PlanRepository interface {
	GetBySlug(slug string) (*models.Plan, error)
	GetLowest() (*models.Plan, error)
	GetActive() ([]models.Plan, error)
	Upsert(plan *models.Plan) error
}

// SubscriptionRepository defines read access to subscriptions.
// Writes go through the billing service under the per-organization lock.
type SubscriptionRepository interface {
	GetByOrganizationID(orgID uint) (*models.Subscription, error)
}

// OverrideRepository defines read access to entitlement overrides
type OverrideRepository interface {
	GetByOrganizationID(orgID uint) ([]models.EntitlementOverride, error)
}

// AssetRepository defines the interface for tracked equipment
type AssetRepository interface {
	Create(asset *models.Asset) error
	GetByID(orgID, id uint) (*models.Asset, error)
	GetByOrganizationID(orgID uint, offset, limit int) ([]models.Asset, error)
	CountByOrganizationID(orgID uint) (int64, error)
	Archive(orgID, id uint) error
}

// MemberRepository defines the interface for organization members
type MemberRepository interface {
	Create(member *models.Member) error
	GetByOrganizationID(orgID uint) ([]models.Member, error)
	Deactivate(orgID, id uint) error
}

// ComplianceRepository defines the interface for inspection records
type ComplianceRepository interface {
	Create(record *models.ComplianceRecord) error
	GetByOrganizationID(orgID uint, offset, limit int) ([]models.ComplianceRecord, error)
	GetByAssetID(orgID, assetID uint) ([]models.ComplianceRecord, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	Organization OrganizationRepository
	Plan         PlanRepository
	Subscription SubscriptionRepository
	Override     OverrideRepository
	Asset        AssetRepository
	Member       MemberRepository
	Compliance   ComplianceRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Organization: NewOrganizationRepository(db),
		Plan:         NewPlanRepository(db),
		Subscription: NewSubscriptionRepository(db),
		Override:     NewOverrideRepository(db),
		Asset:        NewAssetRepository(db),
		Member:       NewMemberRepository(db),
		Compliance:   NewComplianceRepository(db),
	}
}
