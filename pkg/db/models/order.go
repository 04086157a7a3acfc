package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/furnhaus/furnhaus-backend/pkg/enums"
)

// Order is one vendor's slice of a checkout. The monetary breakdown is
// frozen at creation: total == subtotal + tax + shipping, and commission is
// the vendor's rate at creation time applied to the subtotal.
type Order struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber       string              `gorm:"column:order_number;not null;uniqueIndex:idx_orders_order_number"`
	CustomerID        uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	VendorID          uuid.UUID           `gorm:"column:vendor_id;type:uuid;not null;index"`
	AddressID         uuid.UUID           `gorm:"column:address_id;type:uuid;not null"`
	SubtotalCents     int64               `gorm:"column:subtotal_cents;not null"`
	TaxCents          int64               `gorm:"column:tax_cents;not null;default:0"`
	ShippingCostCents int64               `gorm:"column:shipping_cost_cents;not null;default:0"`
	CommissionCents   int64               `gorm:"column:commission_cents;not null;default:0"`
	TotalCents        int64               `gorm:"column:total_cents;not null"`
	Status            enums.OrderStatus   `gorm:"column:status;not null;default:'PENDING'"`
	PaymentStatus     enums.PaymentStatus `gorm:"column:payment_status;not null;default:'PENDING'"`
	PaymentIntentID   *string             `gorm:"column:payment_intent_id"`
	RefundedCents     int64               `gorm:"column:refunded_cents;not null;default:0"`
	TrackingNumber    *string             `gorm:"column:tracking_number"`
	Carrier           *string             `gorm:"column:carrier"`
	Notes             *string             `gorm:"column:notes"`
	CancelledAt       *time.Time          `gorm:"column:cancelled_at"`
	DeliveredAt       *time.Time          `gorm:"column:delivered_at"`
	Items             []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
