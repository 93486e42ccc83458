package repository

import (
	"strings"

	"github.com/ManuelReschke/ComplyTrack/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// planRepository implements the PlanRepository interface
type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository instance
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) GetBySlug(slug string) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Where("slug = ?", strings.ToLower(strings.TrimSpace(slug))).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetLowest returns the active plan with the lowest rank
func (r *planRepository) GetLowest() (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Where("is_active = ?", true).Order("`rank` ASC").Order("id ASC").First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) GetActive() ([]models.Plan, error) {
	var plans []models.Plan
	err := r.db.Where("is_active = ?", true).Order("`rank` ASC").Find(&plans).Error
	return plans, err
}

// Upsert inserts a plan or updates the existing row with the same slug
func (r *planRepository) Upsert(plan *models.Plan) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "rank", "max_assets", "max_users", "features", "sales_only", "is_active", "updated_at"}),
	}).Create(plan).Error
}
