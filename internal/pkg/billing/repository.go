package billing

import (
	"context"
	"errors"
	"strings"

	"github.com/ManuelReschke/ComplyTrack/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the billing service. Find and Get
// methods return (nil, nil) when the row does not exist.
type Repository interface {
	WithContext(ctx context.Context) Repository
	Transaction(fn func(tx Repository) error) error

	FindEvent(provider, providerEventID string) (*models.BillingEvent, error)
	RecordEvent(event *models.BillingEvent) (bool, error)
	IsSubscriptionTombstoned(provider, subscriptionRef string) (bool, error)

	GetOrganization(id uint) (*models.Organization, error)
	GetOrganizationByCustomerRef(ref string) (*models.Organization, error)
	CreateOrganization(org *models.Organization, sub *models.Subscription) error
	SaveOrganization(org *models.Organization) error

	GetSubscription(orgID uint) (*models.Subscription, error)
	SaveSubscription(sub *models.Subscription) error

	GetPlanBySlug(slug string) (*models.Plan, error)
	GetPlanByID(id uint) (*models.Plan, error)
	GetLowestPlan() (*models.Plan, error)

	FindPlanMapping(provider, providerPriceID string) (*models.BillingPlanMapping, error)
	FindPriceForPlan(provider, planSlug, billingCycle string) (*models.BillingPlanMapping, error)
	UpsertPlanMapping(mapping *models.BillingPlanMapping) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) WithContext(ctx context.Context) Repository {
	return &gormRepository{db: r.db.WithContext(ctx)}
}

func (r *gormRepository) Transaction(fn func(tx Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) FindEvent(provider, providerEventID string) (*models.BillingEvent, error) {
	var ev models.BillingEvent
	err := r.db.Where("provider = ? AND provider_event_id = ?", provider, providerEventID).First(&ev).Error
	return found(&ev, err)
}

// RecordEvent inserts a ledger row. It reports false when the event id was
// already recorded.
func (r *gormRepository) RecordEvent(event *models.BillingEvent) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// IsSubscriptionTombstoned reports whether a deletion was applied for the reference.
func (r *gormRepository) IsSubscriptionTombstoned(provider, subscriptionRef string) (bool, error) {
	if strings.TrimSpace(subscriptionRef) == "" {
		return false, nil
	}
	var count int64
	err := r.db.Model(&models.BillingEvent{}).
		Where("provider = ? AND subscription_ref = ? AND event_type = ? AND outcome = ?",
			provider, subscriptionRef, stripeSubscriptionDeleted, string(OutcomeApplied)).
		Count(&count).Error
	return count > 0, err
}

func (r *gormRepository) GetOrganization(id uint) (*models.Organization, error) {
	var org models.Organization
	err := r.db.Where("archived_at IS NULL").First(&org, id).Error
	return found(&org, err)
}

func (r *gormRepository) GetOrganizationByCustomerRef(ref string) (*models.Organization, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, nil
	}
	var org models.Organization
	err := r.db.Where("payment_customer_ref = ? AND archived_at IS NULL", ref).First(&org).Error
	return found(&org, err)
}

func (r *gormRepository) CreateOrganization(org *models.Organization, sub *models.Subscription) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			return err
		}
		sub.OrganizationID = org.ID
		return tx.Create(sub).Error
	})
}

func (r *gormRepository) SaveOrganization(org *models.Organization) error {
	return r.db.Save(org).Error
}

func (r *gormRepository) GetSubscription(orgID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Preload("Plan").Where("organization_id = ?", orgID).First(&sub).Error
	return found(&sub, err)
}

func (r *gormRepository) SaveSubscription(sub *models.Subscription) error {
	return r.db.Omit(clause.Associations).Save(sub).Error
}

func (r *gormRepository) GetPlanBySlug(slug string) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Where("slug = ? AND is_active = ?", slug, true).First(&plan).Error
	return found(&plan, err)
}

func (r *gormRepository) GetPlanByID(id uint) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.First(&plan, id).Error
	return found(&plan, err)
}

func (r *gormRepository) GetLowestPlan() (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Where("is_active = ?", true).Order("`rank` ASC").Order("id ASC").First(&plan).Error
	return found(&plan, err)
}

func (r *gormRepository) FindPlanMapping(provider, providerPriceID string) (*models.BillingPlanMapping, error) {
	var m models.BillingPlanMapping
	err := r.db.
		Where("provider = ? AND provider_price_id = ? AND is_active = ?", provider, providerPriceID, true).
		First(&m).Error
	return found(&m, err)
}

func (r *gormRepository) FindPriceForPlan(provider, planSlug, billingCycle string) (*models.BillingPlanMapping, error) {
	var m models.BillingPlanMapping
	err := r.db.
		Where("provider = ? AND plan_slug = ? AND billing_cycle = ? AND is_active = ?", provider, planSlug, billingCycle, true).
		Order("version DESC").
		First(&m).Error
	return found(&m, err)
}

// UpsertPlanMapping inserts a price mapping or repoints an existing one,
// bumping its version.
func (r *gormRepository) UpsertPlanMapping(mapping *models.BillingPlanMapping) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_price_id"},
		},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"plan_slug":     mapping.PlanSlug,
			"billing_cycle": mapping.BillingCycle,
			"is_active":     true,
			"version":       gorm.Expr("version + 1"),
			"updated_at":    gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(mapping).Error
}

func found[T any](v *T, err error) (*T, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}
