package accounts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swapyard/swapyard-backend/pkg/db/models"
	pkgerrors "github.com/swapyard/swapyard-backend/pkg/errors"
)

type stubAccountsRepo struct {
	accounts map[uuid.UUID]*models.Account
}

func newStubAccountsRepo() *stubAccountsRepo {
	return &stubAccountsRepo{accounts: map[uuid.UUID]*models.Account{}}
}

func (s *stubAccountsRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubAccountsRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	acct, ok := s.accounts[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *acct
	return &copied, nil
}

func (s *stubAccountsRepo) Create(ctx context.Context, account *models.Account) error {
	if _, ok := s.accounts[account.UserID]; ok {
		return gorm.ErrDuplicatedKey
	}
	copied := *account
	s.accounts[account.UserID] = &copied
	return nil
}

func (s *stubAccountsRepo) AddSpendable(ctx context.Context, userID uuid.UUID, amountCents int64) (bool, error) {
	acct, ok := s.accounts[userID]
	if !ok {
		return false, nil
	}
	acct.SpendableCents += amountCents
	return true, nil
}

func (s *stubAccountsRepo) DeductSpendable(ctx context.Context, userID uuid.UUID, amountCents int64) (bool, error) {
	acct, ok := s.accounts[userID]
	if !ok || acct.SpendableCents < amountCents {
		return false, nil
	}
	acct.SpendableCents -= amountCents
	return true, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newAccountsService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{})
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

func TestGetOrCreateNewAccount(t *testing.T) {
	repo := newStubAccountsRepo()
	svc := newAccountsService(t, repo)
	userID := uuid.New()

	account, err := svc.GetOrCreate(context.Background(), userID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if account.UserID != userID {
		t.Fatalf("unexpected account %+v", account)
	}
	if account.SpendableCents != 0 || account.EscrowCents != 0 {
		t.Fatal("fresh accounts start empty")
	}
}

func TestGetOrCreateExisting(t *testing.T) {
	repo := newStubAccountsRepo()
	userID := uuid.New()
	repo.accounts[userID] = &models.Account{UserID: userID, SpendableCents: 700}
	svc := newAccountsService(t, repo)

	account, err := svc.GetOrCreate(context.Background(), userID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if account.SpendableCents != 700 {
		t.Fatalf("expected existing balance got %d", account.SpendableCents)
	}
}

func TestDeposit(t *testing.T) {
	repo := newStubAccountsRepo()
	svc := newAccountsService(t, repo)
	userID := uuid.New()

	account, err := svc.Deposit(context.Background(), userID, 2500)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if account.SpendableCents != 2500 {
		t.Fatalf("expected 2500 got %d", account.SpendableCents)
	}

	account, err = svc.Deposit(context.Background(), userID, 500)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if account.SpendableCents != 3000 {
		t.Fatalf("expected 3000 got %d", account.SpendableCents)
	}
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	svc := newAccountsService(t, newStubAccountsRepo())

	for _, amount := range []int64{0, -50} {
		_, err := svc.Deposit(context.Background(), uuid.New(), amount)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %d got %v", amount, err)
		}
	}
}

func TestWithdraw(t *testing.T) {
	repo := newStubAccountsRepo()
	userID := uuid.New()
	repo.accounts[userID] = &models.Account{UserID: userID, SpendableCents: 4000}
	svc := newAccountsService(t, repo)

	account, err := svc.Withdraw(context.Background(), userID, 1500)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if account.SpendableCents != 2500 {
		t.Fatalf("expected 2500 got %d", account.SpendableCents)
	}
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	repo := newStubAccountsRepo()
	userID := uuid.New()
	repo.accounts[userID] = &models.Account{UserID: userID, SpendableCents: 100}
	svc := newAccountsService(t, repo)

	_, err := svc.Withdraw(context.Background(), userID, 101)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientFunds {
		t.Fatalf("expected insufficient funds got %v", err)
	}
	if repo.accounts[userID].SpendableCents != 100 {
		t.Fatal("failed withdrawal must not change the balance")
	}
}

func TestWithdrawDoesNotTouchEscrow(t *testing.T) {
	repo := newStubAccountsRepo()
	userID := uuid.New()
	repo.accounts[userID] = &models.Account{UserID: userID, SpendableCents: 100, EscrowCents: 9000}
	svc := newAccountsService(t, repo)

	_, err := svc.Withdraw(context.Background(), userID, 5000)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientFunds {
		t.Fatalf("escrowed funds are not withdrawable, got %v", err)
	}
}
