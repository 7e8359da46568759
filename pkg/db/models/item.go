package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/swapyard/swapyard-backend/pkg/enums"
)

// Item is a tradable good owned by the listing surface. The settlement
// engine only flips its status: reserved while escrow is held against it,
// sold exactly once when a settlement completes.
type Item struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID        uuid.UUID        `gorm:"column:owner_id;type:uuid;not null;index"`
	Title          string           `gorm:"column:title;not null"`
	ListPriceCents int64            `gorm:"column:list_price_cents;not null"`
	Status         enums.ItemStatus `gorm:"column:status;type:text;not null;default:'available'"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
