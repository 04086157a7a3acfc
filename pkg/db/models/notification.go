package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/furnhaus/furnhaus-backend/pkg/enums"
)

// Notification is a persisted state-transition notice. Delivery (push,
// email) happens elsewhere; the core only writes rows and never lets a
// write failure affect the triggering operation.
type Notification struct {
	ID         uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID   *uuid.UUID             `gorm:"column:vendor_id;type:uuid;index"`
	CustomerID *uuid.UUID             `gorm:"column:customer_id;type:uuid;index"`
	OrderID    *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	Type       enums.NotificationType `gorm:"column:type;not null"`
	Payload    map[string]any         `gorm:"column:payload;type:jsonb;serializer:json"`
	ReadAt     *time.Time             `gorm:"column:read_at"`
	CreatedAt  time.Time              `gorm:"column:created_at;autoCreateTime"`
}
