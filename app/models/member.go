package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	MemberRoleOwner  = "owner"
	MemberRoleMember = "member"
)

// Member is a user seat within an organization.
type Member struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	OrganizationID uint       `gorm:"not null;index:ux_members_org_email,unique,priority:1" json:"organization_id"`
	Email          string     `gorm:"type:varchar(200);not null;index:ux_members_org_email,unique,priority:2" json:"email" validate:"required,email,max=200"`
	Role           string     `gorm:"type:varchar(20);not null;default:'member'" json:"role" validate:"oneof=owner member"`
	DeactivatedAt  *time.Time `gorm:"type:timestamp;default:null" json:"deactivated_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (m *Member) Validate() error {
	return validator.New().Struct(m)
}
