package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/swapyard/swapyard-backend/pkg/enums"
	"github.com/swapyard/swapyard-backend/pkg/types"
)

// Transaction is the append-only settlement record for an accepted offer.
// It is read-side history only; the Account rows stay authoritative for
// balances. Once completed, amount and fee never change again.
type Transaction struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OfferID           uuid.UUID               `gorm:"column:offer_id;type:uuid;not null;uniqueIndex"`
	BuyerID           uuid.UUID               `gorm:"column:buyer_id;type:uuid;not null;index"`
	SellerID          uuid.UUID               `gorm:"column:seller_id;type:uuid;not null;index"`
	ItemID            uuid.UUID               `gorm:"column:item_id;type:uuid;not null"`
	AmountCents       int64                   `gorm:"column:amount_cents;not null"`
	PlatformFeeCents  int64                   `gorm:"column:platform_fee_cents;not null;default:0"`
	Status            enums.TransactionStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Timeline          types.Timeline          `gorm:"column:timeline;type:jsonb;serializer:json"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
