package repository

import (
	"time"

	"github.com/ManuelReschke/ComplyTrack/app/models"
	"gorm.io/gorm"
)

// memberRepository implements the MemberRepository interface
type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new member repository instance
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Create(member *models.Member) error {
	return r.db.Create(member).Error
}

func (r *memberRepository) GetByOrganizationID(orgID uint) ([]models.Member, error) {
	var members []models.Member
	err := r.db.Where("organization_id = ? AND deactivated_at IS NULL", orgID).Order("id ASC").Find(&members).Error
	return members, err
}

func (r *memberRepository) Deactivate(orgID, id uint) error {
	res := r.db.Model(&models.Member{}).
		Where("id = ? AND organization_id = ? AND deactivated_at IS NULL", id, orgID).
		Update("deactivated_at", time.Now().UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func countActiveMembers(db *gorm.DB, orgID uint) (int64, error) {
	var count int64
	err := db.Model(&models.Member{}).
		Where("organization_id = ? AND deactivated_at IS NULL", orgID).
		Count(&count).Error
	return count, err
}
