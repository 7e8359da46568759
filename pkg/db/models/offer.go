package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/swapyard/swapyard-backend/pkg/enums"
)

// Offer is a buyer's proposal to purchase or trade for an item.
//
// BuyerHeld/SellerHeld record which custody holds have actually been placed,
// keyed to this offer. They make accept/reject idempotent per (offer, side):
// a retried transition never re-applies a hold or refund.
type Offer struct {
	ID                     uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Kind                   enums.OfferKind   `gorm:"column:kind;type:text;not null"`
	BuyerID                uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null;index"`
	SellerID               uuid.UUID         `gorm:"column:seller_id;type:uuid;not null;index"`
	ItemID                 uuid.UUID         `gorm:"column:item_id;type:uuid;not null"`
	ProposedValueCents     int64             `gorm:"column:proposed_value_cents;not null"`
	OfferedItemValueCents  int64             `gorm:"column:offered_item_value_cents;not null;default:0"`
	Description            string            `gorm:"column:description"`
	Status                 enums.OfferStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	BuyerConfirmed         bool              `gorm:"column:buyer_confirmed;not null;default:false"`
	SellerConfirmed        bool              `gorm:"column:seller_confirmed;not null;default:false"`
	EscrowAmountCents      int64             `gorm:"column:escrow_amount_cents;not null;default:0"`
	BuyerHeld              bool              `gorm:"column:buyer_held;not null;default:false"`
	SellerHeld             bool              `gorm:"column:seller_held;not null;default:false"`
	CreatedAt              time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
