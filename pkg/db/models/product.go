package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product represents a vendor's furniture listing. Stock lives on the
// product row unless HasVariants is set, in which case each variant tracks
// its own quantity and the product-level counter is ignored.
type Product struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID      uuid.UUID        `gorm:"column:vendor_id;type:uuid;not null"`
	Name          string           `gorm:"column:name;not null"`
	Description   *string          `gorm:"column:description"`
	Materials     pq.StringArray   `gorm:"column:materials;type:text[]"`
	Colors        pq.StringArray   `gorm:"column:colors;type:text[]"`
	PriceCents    int64            `gorm:"column:price_cents;not null"`
	StockQuantity int              `gorm:"column:stock_quantity;not null;default:0"`
	IsActive      bool             `gorm:"column:is_active;not null;default:true"`
	HasVariants   bool             `gorm:"column:has_variants;not null;default:false"`
	Variants      []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
