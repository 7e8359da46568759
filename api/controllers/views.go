package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/swapyard/swapyard-backend/pkg/db/models"
	"github.com/swapyard/swapyard-backend/pkg/enums"
	"github.com/swapyard/swapyard-backend/pkg/types"
)

// View types shape persistence rows for the wire. Models stay tag-free; the
// API owns the JSON field names.

type OfferView struct {
	ID                    uuid.UUID         `json:"id"`
	Kind                  enums.OfferKind   `json:"kind"`
	BuyerID               uuid.UUID         `json:"buyer_id"`
	SellerID              uuid.UUID         `json:"seller_id"`
	ItemID                uuid.UUID         `json:"item_id"`
	ProposedValueCents    int64             `json:"proposed_value_cents"`
	OfferedItemValueCents int64             `json:"offered_item_value_cents,omitempty"`
	Description           string            `json:"description,omitempty"`
	Status                enums.OfferStatus `json:"status"`
	BuyerConfirmed        bool              `json:"buyer_confirmed"`
	SellerConfirmed       bool              `json:"seller_confirmed"`
	EscrowAmountCents     int64             `json:"escrow_amount_cents"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

type OfferListView struct {
	Offers     []OfferView `json:"offers"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

type TransactionView struct {
	ID               uuid.UUID               `json:"id"`
	OfferID          uuid.UUID               `json:"offer_id"`
	BuyerID          uuid.UUID               `json:"buyer_id"`
	SellerID         uuid.UUID               `json:"seller_id"`
	ItemID           uuid.UUID               `json:"item_id"`
	AmountCents      int64                   `json:"amount_cents"`
	PlatformFeeCents int64                   `json:"platform_fee_cents"`
	Status           enums.TransactionStatus `json:"status"`
	Timeline         types.Timeline          `json:"timeline"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

type TransactionListView struct {
	Transactions []TransactionView `json:"transactions"`
	NextCursor   string            `json:"next_cursor,omitempty"`
}

type AccountView struct {
	UserID         uuid.UUID `json:"user_id"`
	SpendableCents int64     `json:"spendable_cents"`
	EscrowCents    int64     `json:"escrow_cents"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func newOfferView(offer *models.Offer) OfferView {
	return OfferView{
		ID:                    offer.ID,
		Kind:                  offer.Kind,
		BuyerID:               offer.BuyerID,
		SellerID:              offer.SellerID,
		ItemID:                offer.ItemID,
		ProposedValueCents:    offer.ProposedValueCents,
		OfferedItemValueCents: offer.OfferedItemValueCents,
		Description:           offer.Description,
		Status:                offer.Status,
		BuyerConfirmed:        offer.BuyerConfirmed,
		SellerConfirmed:       offer.SellerConfirmed,
		EscrowAmountCents:     offer.EscrowAmountCents,
		CreatedAt:             offer.CreatedAt,
		UpdatedAt:             offer.UpdatedAt,
	}
}

func newOfferListView(offers []models.Offer, nextCursor string) OfferListView {
	view := OfferListView{
		Offers:     make([]OfferView, 0, len(offers)),
		NextCursor: nextCursor,
	}
	for i := range offers {
		view.Offers = append(view.Offers, newOfferView(&offers[i]))
	}
	return view
}

func newTransactionView(txn *models.Transaction) TransactionView {
	return TransactionView{
		ID:               txn.ID,
		OfferID:          txn.OfferID,
		BuyerID:          txn.BuyerID,
		SellerID:         txn.SellerID,
		ItemID:           txn.ItemID,
		AmountCents:      txn.AmountCents,
		PlatformFeeCents: txn.PlatformFeeCents,
		Status:           txn.Status,
		Timeline:         txn.Timeline,
		CreatedAt:        txn.CreatedAt,
		UpdatedAt:        txn.UpdatedAt,
	}
}

func newTransactionListView(txns []models.Transaction, nextCursor string) TransactionListView {
	view := TransactionListView{
		Transactions: make([]TransactionView, 0, len(txns)),
		NextCursor:   nextCursor,
	}
	for i := range txns {
		view.Transactions = append(view.Transactions, newTransactionView(&txns[i]))
	}
	return view
}

func newAccountView(account *models.Account) AccountView {
	return AccountView{
		UserID:         account.UserID,
		SpendableCents: account.SpendableCents,
		EscrowCents:    account.EscrowCents,
		UpdatedAt:      account.UpdatedAt,
	}
}
