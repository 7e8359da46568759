package models

import (
	"time"

	"github.com/google/uuid"
)

// Account holds a user's spendable and escrowed funds in integer cents.
// Both columns carry DB-level non-negative checks; every internal transfer
// between them happens through guarded UPDATEs inside a transaction.
type Account struct {
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	SpendableCents int64     `gorm:"column:spendable_cents;not null;default:0;check:spendable_cents >= 0"`
	EscrowCents    int64     `gorm:"column:escrow_cents;not null;default:0;check:escrow_cents >= 0"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
