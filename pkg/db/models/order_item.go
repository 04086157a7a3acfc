package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem snapshots a purchased line at order-creation time. The price
// and names are copied from the live product/variant so later catalog edits
// never alter historical orders.
type OrderItem struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	VariantID      *uuid.UUID `gorm:"column:variant_id;type:uuid"`
	ProductName    string     `gorm:"column:product_name;not null"`
	VariantName    *string    `gorm:"column:variant_name"`
	UnitPriceCents int64      `gorm:"column:unit_price_cents;not null"`
	Quantity       int        `gorm:"column:quantity;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}
