package accounts

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/swapyard/swapyard-backend/pkg/db"
	"github.com/swapyard/swapyard-backend/pkg/db/models"
	pkgerrors "github.com/swapyard/swapyard-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes balance reads and the external money boundary. Deposits and
// withdrawals model settled transfers with an outside payment rail; no
// processor integration happens here.
type Service interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Account, error)
	Deposit(ctx context.Context, userID uuid.UUID, amountCents int64) (*models.Account, error)
	Withdraw(ctx context.Context, userID uuid.UUID, amountCents int64) (*models.Account, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds an accounts service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("accounts repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.ensureAccount(ctx, s.repo, userID)
}

func (s *service) Deposit(ctx context.Context, userID uuid.UUID, amountCents int64) (*models.Account, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if amountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deposit amount must be positive")
	}

	var account *models.Account
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.ensureAccount(ctx, repo, userID); err != nil {
			return err
		}
		applied, err := repo.AddSpendable(ctx, userID, amountCents)
		if err != nil {
			return err
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeInvariant, "account row vanished during deposit")
		}
		loaded, err := repo.FindByUserID(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload account")
		}
		account = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *service) Withdraw(ctx context.Context, userID uuid.UUID, amountCents int64) (*models.Account, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if amountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal amount must be positive")
	}

	var account *models.Account
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.ensureAccount(ctx, repo, userID); err != nil {
			return err
		}
		applied, err := repo.DeductSpendable(ctx, userID, amountCents)
		if err != nil {
			return err
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "spendable balance too low").
				WithDetails(map[string]any{"required_cents": amountCents})
		}
		loaded, err := repo.FindByUserID(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload account")
		}
		account = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *service) ensureAccount(ctx context.Context, repo Repository, userID uuid.UUID) (*models.Account, error) {
	account, err := repo.FindByUserID(ctx, userID)
	if err == nil {
		return account, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	fresh := &models.Account{UserID: userID}
	if err := repo.Create(ctx, fresh); err != nil {
		// Lost a create race; the winner's row is the account.
		if dbpkg.IsUniqueViolation(err, "") {
			return repo.FindByUserID(ctx, userID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account")
	}
	return fresh, nil
}
