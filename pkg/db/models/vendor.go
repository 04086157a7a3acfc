package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Vendor carries the minimal seller fields the order core needs: the
// commission fraction frozen into each order and the connected payment
// account state that gates split-charge routing.
type Vendor struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name               string          `gorm:"column:name;not null"`
	Email              string          `gorm:"column:email;not null"`
	CommissionRate     decimal.Decimal `gorm:"column:commission_rate;type:numeric(6,4);not null"`
	StripeAccountID    *string         `gorm:"column:stripe_account_id"`
	OnboardingComplete bool            `gorm:"column:onboarding_complete;not null;default:false"`
	PayoutsEnabled     bool            `gorm:"column:payouts_enabled;not null;default:false"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// PayoutReady reports whether the vendor can receive split-charge payouts.
func (v *Vendor) PayoutReady() bool {
	return v != nil && v.StripeAccountID != nil && *v.StripeAccountID != "" &&
		v.OnboardingComplete && v.PayoutsEnabled
}
