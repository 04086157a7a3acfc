package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductVariant is a sellable variation (size, finish, fabric) of a product
// with its own stock counter and optional price override.
type ProductVariant struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Name          string    `gorm:"column:name;not null"`
	PriceCents    *int64    `gorm:"column:price_cents"`
	StockQuantity int       `gorm:"column:stock_quantity;not null;default:0"`
	IsActive      bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectivePriceCents resolves the variant price, falling back to the product.
func (v *ProductVariant) EffectivePriceCents(product *Product) int64 {
	if v != nil && v.PriceCents != nil {
		return *v.PriceCents
	}
	if product != nil {
		return product.PriceCents
	}
	return 0
}
