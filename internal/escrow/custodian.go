package escrow

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/swapyard/swapyard-backend/pkg/errors"
)

// Custodian moves funds between the spendable and escrow columns of ledger
// accounts. Every method runs inside the caller's transaction and uses a
// guarded UPDATE, so a failed precondition leaves both balances untouched.
// Idempotency per offer and side is the settlement engine's responsibility,
// tracked through the offer's held flags.
type Custodian interface {
	Hold(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amountCents int64) error
	Release(ctx context.Context, tx *gorm.DB, fromUserID, toUserID uuid.UUID, amountCents, feeCents int64) error
	Refund(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amountCents int64) error
}

type custodianImpl struct{}

// NewCustodian exposes the default escrow custodian implementation.
func NewCustodian() Custodian {
	return custodianImpl{}
}

// Hold moves spendable funds into escrow. Insufficient spendable balance is
// reported as InsufficientFunds with nothing applied.
func (custodianImpl) Hold(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amountCents int64) error {
	if amountCents <= 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for escrow hold")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE accounts
		SET spendable_cents = spendable_cents - ?,
			escrow_cents = escrow_cents + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND spendable_cents >= ?
	`, amountCents, amountCents, userID, amountCents)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "hold escrow")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "spendable balance too low for escrow hold").
			WithDetails(map[string]any{"required_cents": amountCents})
	}
	return nil
}

// Release settles held funds to the counterparty: the full amount leaves the
// holder's escrow, the amount minus the platform fee lands in the recipient's
// spendable balance. The escrow guard failing means custody bookkeeping is
// corrupt, not a user error.
func (custodianImpl) Release(ctx context.Context, tx *gorm.DB, fromUserID, toUserID uuid.UUID, amountCents, feeCents int64) error {
	if amountCents <= 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for escrow release")
	}
	if feeCents < 0 || feeCents > amountCents {
		return pkgerrors.New(pkgerrors.CodeInvariant, "platform fee exceeds released escrow")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE accounts
		SET escrow_cents = escrow_cents - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND escrow_cents >= ?
	`, amountCents, fromUserID, amountCents)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release escrow debit")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInvariant, "escrow balance below recorded hold")
	}

	res = tx.WithContext(ctx).Exec(`
		UPDATE accounts
		SET spendable_cents = spendable_cents + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`, amountCents-feeCents, toUserID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release escrow credit")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInvariant, "release recipient account missing")
	}
	return nil
}

// Refund returns held funds to the holder's spendable balance in full.
func (custodianImpl) Refund(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amountCents int64) error {
	if amountCents <= 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for escrow refund")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE accounts
		SET escrow_cents = escrow_cents - ?,
			spendable_cents = spendable_cents + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND escrow_cents >= ?
	`, amountCents, amountCents, userID, amountCents)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "refund escrow")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInvariant, "escrow balance below recorded hold")
	}
	return nil
}
