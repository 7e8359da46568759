package accounts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swapyard/swapyard-backend/pkg/db/models"
	pkgerrors "github.com/swapyard/swapyard-backend/pkg/errors"
)

// Repository manages persistence for ledger accounts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error
	AddSpendable(ctx context.Context, userID uuid.UUID, amountCents int64) (bool, error)
	DeductSpendable(ctx context.Context, userID uuid.UUID, amountCents int64) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an accounts repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) Create(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *repository) AddSpendable(ctx context.Context, userID uuid.UUID, amountCents int64) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE accounts
		SET spendable_cents = spendable_cents + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`, amountCents, userID)
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "credit spendable balance")
	}
	return res.RowsAffected > 0, nil
}

// DeductSpendable debits spendable funds only when the guard holds. A false
// return means the balance was too low and nothing changed.
func (r *repository) DeductSpendable(ctx context.Context, userID uuid.UUID, amountCents int64) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE accounts
		SET spendable_cents = spendable_cents - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND spendable_cents >= ?
	`, amountCents, userID, amountCents)
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "debit spendable balance")
	}
	return res.RowsAffected > 0, nil
}
