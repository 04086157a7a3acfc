package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is an ephemeral, customer-scoped line. Every row for a customer
// is deleted in the same transaction that commits their checkout.
type CartItem struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID       `gorm:"column:customer_id;type:uuid;not null;index"`
	ProductID  uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VariantID  *uuid.UUID      `gorm:"column:variant_id;type:uuid"`
	Quantity   int             `gorm:"column:quantity;not null"`
	Product    *Product        `gorm:"foreignKey:ProductID"`
	Variant    *ProductVariant `gorm:"foreignKey:VariantID"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
