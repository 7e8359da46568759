package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swapyard/swapyard-backend/internal/accounts"
	"github.com/swapyard/swapyard-backend/internal/escrow"
	"github.com/swapyard/swapyard-backend/internal/items"
	"github.com/swapyard/swapyard-backend/internal/offers"
	"github.com/swapyard/swapyard-backend/internal/transactions"
	"github.com/swapyard/swapyard-backend/pkg/config"
	dbpkg "github.com/swapyard/swapyard-backend/pkg/db"
	"github.com/swapyard/swapyard-backend/pkg/db/models"
	"github.com/swapyard/swapyard-backend/pkg/enums"
	pkgerrors "github.com/swapyard/swapyard-backend/pkg/errors"
	"github.com/swapyard/swapyard-backend/pkg/outbox"
	"github.com/swapyard/swapyard-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// TransitionInput identifies the offer and the acting party. The actor's
// side is derived from the offer row, never from the request body.
type TransitionInput struct {
	OfferID     uuid.UUID
	ActorUserID uuid.UUID
}

// Service drives the offer state machine. Every transition runs in a single
// database transaction that first locks the offer row, so at most one
// transition per offer is in flight at any time.
type Service interface {
	Accept(ctx context.Context, input TransitionInput) (*models.Offer, error)
	Confirm(ctx context.Context, input TransitionInput) (*models.Offer, error)
	Reject(ctx context.Context, input TransitionInput) (*models.Offer, error)
}

type service struct {
	offers       offers.Repository
	transactions transactions.Repository
	items        items.Repository
	accounts     accounts.Repository
	custodian    escrow.Custodian
	tx           txRunner
	outbox       outboxPublisher
	fees         config.FeeConfig
	now          func() time.Time
}

// OfferAcceptedEvent is emitted when escrow is secured and the offer locks in.
type OfferAcceptedEvent struct {
	OfferID           uuid.UUID       `json:"offer_id"`
	Kind              enums.OfferKind `json:"kind"`
	BuyerID           uuid.UUID       `json:"buyer_id"`
	SellerID          uuid.UUID       `json:"seller_id"`
	ItemID            uuid.UUID       `json:"item_id"`
	EscrowAmountCents int64           `json:"escrow_amount_cents"`
	TransactionID     uuid.UUID       `json:"transaction_id"`
}

// OfferCompletedEvent is emitted when both parties confirmed and funds moved.
type OfferCompletedEvent struct {
	OfferID          uuid.UUID       `json:"offer_id"`
	Kind             enums.OfferKind `json:"kind"`
	BuyerID          uuid.UUID       `json:"buyer_id"`
	SellerID         uuid.UUID       `json:"seller_id"`
	ItemID           uuid.UUID       `json:"item_id"`
	AmountCents      int64           `json:"amount_cents"`
	PlatformFeeCents int64           `json:"platform_fee_cents"`
	TransactionID    uuid.UUID       `json:"transaction_id"`
}

// OfferRejectedEvent is emitted when either party walks away.
type OfferRejectedEvent struct {
	OfferID      uuid.UUID         `json:"offer_id"`
	Kind         enums.OfferKind   `json:"kind"`
	BuyerID      uuid.UUID         `json:"buyer_id"`
	SellerID     uuid.UUID         `json:"seller_id"`
	ItemID       uuid.UUID         `json:"item_id"`
	RejectedBy   enums.PartyRole   `json:"rejected_by"`
	FromStatus   enums.OfferStatus `json:"from_status"`
	RefundedHold int64             `json:"refunded_hold_cents"`
}

// NewService builds the settlement engine with the required dependencies.
func NewService(
	offersRepo offers.Repository,
	transactionsRepo transactions.Repository,
	itemsRepo items.Repository,
	accountsRepo accounts.Repository,
	custodian escrow.Custodian,
	tx txRunner,
	outboxSvc outboxPublisher,
	fees config.FeeConfig,
) (Service, error) {
	if offersRepo == nil {
		return nil, fmt.Errorf("offers repository required")
	}
	if transactionsRepo == nil {
		return nil, fmt.Errorf("transactions repository required")
	}
	if itemsRepo == nil {
		return nil, fmt.Errorf("items repository required")
	}
	if accountsRepo == nil {
		return nil, fmt.Errorf("accounts repository required")
	}
	if custodian == nil {
		return nil, fmt.Errorf("escrow custodian required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		offers:       offersRepo,
		transactions: transactionsRepo,
		items:        itemsRepo,
		accounts:     accountsRepo,
		custodian:    custodian,
		tx:           tx,
		outbox:       outboxSvc,
		fees:         fees,
		now:          time.Now,
	}, nil
}

// Accept locks escrow for the offer and opens the settlement record. Only
// the seller may accept, from pending or pending_payment. A buyer who cannot
// cover the escrow leaves the offer in pending_payment so accept can be
// retried after a deposit.
func (s *service) Accept(ctx context.Context, input TransitionInput) (*models.Offer, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var (
		result       *models.Offer
		pendingFunds *pkgerrors.Error
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		offersRepo := s.offers.WithTx(tx)
		offer, role, err := s.lockOffer(ctx, offersRepo, input)
		if err != nil {
			return err
		}
		if role != enums.PartyRoleSeller {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the seller can accept an offer")
		}
		if offer.Status != enums.OfferStatusPending && offer.Status != enums.OfferStatusPendingPayment {
			return transitionError(offer.Status, "accept")
		}

		itemsRepo := s.items.WithTx(tx)
		item, err := itemsRepo.FindByID(ctx, offer.ItemID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeInvariant, "offer references missing item")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
		}

		amount := escrow.Amount(offer.Kind, offer.ProposedValueCents, offer.OfferedItemValueCents, item.ListPriceCents)
		if amount <= 0 {
			return pkgerrors.New(pkgerrors.CodeInvariant, "escrow amount must be positive")
		}

		accountsRepo := s.accounts.WithTx(tx)
		if err := s.ensureAccount(ctx, accountsRepo, offer.BuyerID); err != nil {
			return err
		}
		if err := s.ensureAccount(ctx, accountsRepo, offer.SellerID); err != nil {
			return err
		}

		if !offer.BuyerHeld {
			if err := s.custodian.Hold(ctx, tx, offer.BuyerID, amount); err != nil {
				typed := pkgerrors.As(err)
				if typed != nil && typed.Code() == pkgerrors.CodeInsufficientFunds {
					// Keep the status change, surface the failure after commit.
					if updErr := offersRepo.Update(ctx, offer.ID, map[string]any{
						"status": enums.OfferStatusPendingPayment,
					}); updErr != nil {
						return pkgerrors.Wrap(pkgerrors.CodeDependency, updErr, "mark offer pending payment")
					}
					offer.Status = enums.OfferStatusPendingPayment
					result = offer
					pendingFunds = typed
					return nil
				}
				return err
			}
			offer.BuyerHeld = true
		}

		// A failed seller hold aborts the whole transaction, including the
		// buyer hold above.
		if offer.Kind == enums.OfferKindTrade && !offer.SellerHeld {
			if err := s.custodian.Hold(ctx, tx, offer.SellerID, amount); err != nil {
				return err
			}
			offer.SellerHeld = true
		}

		reserved, err := itemsRepo.TransitionStatus(ctx, item.ID, enums.ItemStatusAvailable, enums.ItemStatusReserved)
		if err != nil {
			return err
		}
		if !reserved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "item is no longer available").
				WithDetails(map[string]any{"item_id": item.ID})
		}

		txn := &models.Transaction{
			OfferID:          offer.ID,
			BuyerID:          offer.BuyerID,
			SellerID:         offer.SellerID,
			ItemID:           offer.ItemID,
			AmountCents:      amount,
			PlatformFeeCents: 0,
			Status:           enums.TransactionStatusPending,
			Timeline: types.Timeline{{
				Status:    enums.TransactionStatusPending,
				Timestamp: s.now().UTC(),
				Note:      "offer accepted, escrow held",
			}},
		}
		transactionsRepo := s.transactions.WithTx(tx)
		if err := transactionsRepo.Create(ctx, txn); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_transactions_offer_id") {
				return pkgerrors.New(pkgerrors.CodeInvariant, "settlement record already exists for offer")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transaction")
		}

		if err := offersRepo.Update(ctx, offer.ID, map[string]any{
			"status":              enums.OfferStatusAccepted,
			"escrow_amount_cents": amount,
			"buyer_held":          offer.BuyerHeld,
			"seller_held":         offer.SellerHeld,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update offer")
		}
		offer.Status = enums.OfferStatusAccepted
		offer.EscrowAmountCents = amount

		event := outbox.DomainEvent{
			EventType:     enums.EventOfferAccepted,
			AggregateType: enums.AggregateOffer,
			AggregateID:   offer.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: role.String()},
			Data: OfferAcceptedEvent{
				OfferID:           offer.ID,
				Kind:              offer.Kind,
				BuyerID:           offer.BuyerID,
				SellerID:          offer.SellerID,
				ItemID:            offer.ItemID,
				EscrowAmountCents: amount,
				TransactionID:     txn.ID,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}
		result = offer
		return nil
	})
	if err != nil {
		return nil, err
	}
	if pendingFunds != nil {
		return result, pendingFunds
	}
	return result, nil
}

// Confirm records a party's approval. Flags are monotonic; re-confirming is
// a no-op. The second confirmation settles: escrow releases to the seller
// minus the platform fee, a trade seller's own guarantee refunds in full,
// the item is sold and the transaction completes.
func (s *service) Confirm(ctx context.Context, input TransitionInput) (*models.Offer, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var result *models.Offer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		offersRepo := s.offers.WithTx(tx)
		offer, role, err := s.lockOffer(ctx, offersRepo, input)
		if err != nil {
			return err
		}
		if offer.Status != enums.OfferStatusAccepted {
			return transitionError(offer.Status, "confirm")
		}

		alreadyConfirmed := (role == enums.PartyRoleBuyer && offer.BuyerConfirmed) ||
			(role == enums.PartyRoleSeller && offer.SellerConfirmed)
		if alreadyConfirmed {
			result = offer
			return nil
		}

		if role == enums.PartyRoleBuyer {
			offer.BuyerConfirmed = true
		} else {
			offer.SellerConfirmed = true
		}

		updates := map[string]any{
			"buyer_confirmed":  offer.BuyerConfirmed,
			"seller_confirmed": offer.SellerConfirmed,
		}

		if offer.BuyerConfirmed && offer.SellerConfirmed {
			if err := s.settle(ctx, tx, offer, input.ActorUserID, role); err != nil {
				return err
			}
			updates["status"] = enums.OfferStatusCompleted
			updates["buyer_held"] = false
			updates["seller_held"] = false
		}

		if err := offersRepo.Update(ctx, offer.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update offer")
		}
		result = offer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) settle(ctx context.Context, tx *gorm.DB, offer *models.Offer, actorID uuid.UUID, role enums.PartyRole) error {
	if !offer.BuyerHeld {
		return pkgerrors.New(pkgerrors.CodeInvariant, "accepted offer has no buyer escrow hold")
	}

	fee := escrow.Fee(offer.EscrowAmountCents, escrow.FeeBpsFor(s.fees, offer.Kind))
	if err := s.custodian.Release(ctx, tx, offer.BuyerID, offer.SellerID, offer.EscrowAmountCents, fee); err != nil {
		return err
	}
	offer.BuyerHeld = false

	if offer.SellerHeld {
		if err := s.custodian.Refund(ctx, tx, offer.SellerID, offer.EscrowAmountCents); err != nil {
			return err
		}
		offer.SellerHeld = false
	}

	sold, err := s.items.WithTx(tx).TransitionStatus(ctx, offer.ItemID, enums.ItemStatusReserved, enums.ItemStatusSold)
	if err != nil {
		return err
	}
	if !sold {
		return pkgerrors.New(pkgerrors.CodeInvariant, "item left reserved state before settlement")
	}

	transactionsRepo := s.transactions.WithTx(tx)
	txn, err := transactionsRepo.FindByOfferID(ctx, offer.ID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeInvariant, "accepted offer has no settlement record")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}

	txn.Timeline = txn.Timeline.Append(types.TimelineEntry{
		Status:    enums.TransactionStatusCompleted,
		Timestamp: s.now().UTC(),
		Note:      "both parties confirmed",
	})
	if err := transactionsRepo.Complete(ctx, txn.ID, fee, txn.Timeline); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete transaction")
	}

	offer.Status = enums.OfferStatusCompleted
	event := outbox.DomainEvent{
		EventType:     enums.EventOfferCompleted,
		AggregateType: enums.AggregateOffer,
		AggregateID:   offer.ID,
		Version:       1,
		Actor:         &outbox.ActorRef{UserID: actorID, Role: role.String()},
		Data: OfferCompletedEvent{
			OfferID:          offer.ID,
			Kind:             offer.Kind,
			BuyerID:          offer.BuyerID,
			SellerID:         offer.SellerID,
			ItemID:           offer.ItemID,
			AmountCents:      offer.EscrowAmountCents,
			PlatformFeeCents: fee,
			TransactionID:    txn.ID,
		},
	}
	return s.outbox.Emit(ctx, tx, event)
}

// Reject ends the offer from any non-terminal state. Held escrow refunds in
// full to whoever holds it, the item returns to the market and the
// settlement record, when one exists, is cancelled.
func (s *service) Reject(ctx context.Context, input TransitionInput) (*models.Offer, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var result *models.Offer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		offersRepo := s.offers.WithTx(tx)
		offer, role, err := s.lockOffer(ctx, offersRepo, input)
		if err != nil {
			return err
		}
		if offer.Status.IsTerminal() {
			return transitionError(offer.Status, "reject")
		}
		fromStatus := offer.Status

		var refunded int64
		if offer.BuyerHeld {
			if err := s.custodian.Refund(ctx, tx, offer.BuyerID, offer.EscrowAmountCents); err != nil {
				return err
			}
			offer.BuyerHeld = false
			refunded += offer.EscrowAmountCents
		}
		if offer.SellerHeld {
			if err := s.custodian.Refund(ctx, tx, offer.SellerID, offer.EscrowAmountCents); err != nil {
				return err
			}
			offer.SellerHeld = false
			refunded += offer.EscrowAmountCents
		}

		// Pending offers never reserved the item, so a no-op here is fine.
		if fromStatus == enums.OfferStatusAccepted {
			back, err := s.items.WithTx(tx).TransitionStatus(ctx, offer.ItemID, enums.ItemStatusReserved, enums.ItemStatusAvailable)
			if err != nil {
				return err
			}
			if !back {
				return pkgerrors.New(pkgerrors.CodeInvariant, "item left reserved state before rejection")
			}
		}

		transactionsRepo := s.transactions.WithTx(tx)
		txn, err := transactionsRepo.FindByOfferID(ctx, offer.ID)
		if err != nil && err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
		}
		if txn != nil {
			txn.Timeline = txn.Timeline.Append(types.TimelineEntry{
				Status:    enums.TransactionStatusCancelled,
				Timestamp: s.now().UTC(),
				Note:      fmt.Sprintf("rejected by %s", role),
			})
			if err := transactionsRepo.UpdateStatus(ctx, txn.ID, enums.TransactionStatusCancelled, txn.Timeline); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel transaction")
			}
		}

		if err := offersRepo.Update(ctx, offer.ID, map[string]any{
			"status":      enums.OfferStatusRejected,
			"buyer_held":  false,
			"seller_held": false,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update offer")
		}
		offer.Status = enums.OfferStatusRejected

		event := outbox.DomainEvent{
			EventType:     enums.EventOfferRejected,
			AggregateType: enums.AggregateOffer,
			AggregateID:   offer.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: role.String()},
			Data: OfferRejectedEvent{
				OfferID:      offer.ID,
				Kind:         offer.Kind,
				BuyerID:      offer.BuyerID,
				SellerID:     offer.SellerID,
				ItemID:       offer.ItemID,
				RejectedBy:   role,
				FromStatus:   fromStatus,
				RefundedHold: refunded,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}
		result = offer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) lockOffer(ctx context.Context, repo offers.Repository, input TransitionInput) (*models.Offer, enums.PartyRole, error) {
	offer, err := repo.FindByIDForUpdate(ctx, input.OfferID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, "", pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}
	switch input.ActorUserID {
	case offer.BuyerID:
		return offer, enums.PartyRoleBuyer, nil
	case offer.SellerID:
		return offer, enums.PartyRoleSeller, nil
	default:
		return nil, "", pkgerrors.New(pkgerrors.CodeForbidden, "offer does not involve user")
	}
}

func (s *service) ensureAccount(ctx context.Context, repo accounts.Repository, userID uuid.UUID) error {
	_, err := repo.FindByUserID(ctx, userID)
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	if err := repo.Create(ctx, &models.Account{UserID: userID}); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account")
	}
	return nil
}

func validateInput(input TransitionInput) error {
	if input.OfferID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "offer id required")
	}
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return nil
}

func transitionError(from enums.OfferStatus, action string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot %s offer in current state", action)).
		WithDetails(map[string]any{"status": from})
}
