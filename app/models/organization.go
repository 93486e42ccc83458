package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const apiKeyPrefix = "ctk_"

// Organization is the tenant root. Pilot fields are date-only; the time part is ignored.
type Organization struct {
	ID                      uint       `gorm:"primaryKey" json:"id"`
	Name                    string     `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	IsPilot                 bool       `gorm:"default:false" json:"is_pilot"`
	PilotStartDate          *time.Time `gorm:"type:date;default:null" json:"pilot_start_date,omitempty"`
	PilotEndDate            *time.Time `gorm:"type:date;default:null" json:"pilot_end_date,omitempty"`
	ConvertedToPaid         bool       `gorm:"default:false" json:"converted_to_paid"`
	PaymentCustomerRef      *string    `gorm:"type:varchar(191);uniqueIndex" json:"payment_customer_ref,omitempty"`
	SubscriptionStatusCache string     `gorm:"type:varchar(32);default:''" json:"subscription_status"`
	APIKeyHash              string     `gorm:"type:char(64);default:'';index" json:"-"`
	APIKeyPrefix            string     `gorm:"type:varchar(20);default:''" json:"api_key_prefix"`
	ArchivedAt              *time.Time `gorm:"type:timestamp;default:null" json:"archived_at,omitempty"`
	CreatedAt               time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt               time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (o *Organization) Validate() error {
	return validator.New().Struct(o)
}

// HasCustomer reports whether the organization is bound to a payment processor customer.
func (o *Organization) HasCustomer() bool {
	return o != nil && o.PaymentCustomerRef != nil && strings.TrimSpace(*o.PaymentCustomerRef) != ""
}

// CustomerRef returns the bound customer reference or an empty string.
func (o *Organization) CustomerRef() string {
	if !o.HasCustomer() {
		return ""
	}
	return strings.TrimSpace(*o.PaymentCustomerRef)
}

// IssueAPIKey generates a new API key, stores its hash on the struct and returns the raw secret.
// Callers must persist the organization afterwards.
func (o *Organization) IssueAPIKey() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	raw := apiKeyPrefix + strings.ReplaceAll(uuid.NewString(), "-", "") + hex.EncodeToString(b)
	o.APIKeyHash = HashAPIKey(raw)
	o.APIKeyPrefix = raw[:len(apiKeyPrefix)+8]
	return raw, nil
}

// HashAPIKey returns the SHA-256 hash for the provided API key.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}
