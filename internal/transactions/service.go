package transactions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swapyard/swapyard-backend/pkg/db/models"
	pkgerrors "github.com/swapyard/swapyard-backend/pkg/errors"
	"github.com/swapyard/swapyard-backend/pkg/pagination"
	"github.com/swapyard/swapyard-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// TransactionList is a single page of transactions plus the next cursor.
type TransactionList struct {
	Transactions []models.Transaction
	NextCursor   string
}

// Service exposes the settlement journal. Rows are created and advanced by
// the settlement engine; this surface only reads them and appends audit
// annotations.
type Service interface {
	Get(ctx context.Context, userID, transactionID uuid.UUID) (*models.Transaction, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*TransactionList, error)
	AppendTimelineEntry(ctx context.Context, userID, transactionID uuid.UUID, note string) (*models.Transaction, error)
}

type service struct {
	repo Repository
	tx   txRunner
	now  func() time.Time
}

// NewService builds a transactions service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transactions repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, now: time.Now}, nil
}

func (s *service) Get(ctx context.Context, userID, transactionID uuid.UUID) (*models.Transaction, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if transactionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}

	txn, err := s.repo.FindByID(ctx, transactionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	if txn.BuyerID != userID && txn.SellerID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "transaction does not involve user")
	}
	return txn, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*TransactionList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	rows, next, err := s.repo.ListForUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}

	list := &TransactionList{Transactions: rows}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

// AppendTimelineEntry adds an audit note carrying the transaction's current
// status. The status itself never moves here.
func (s *service) AppendTimelineEntry(ctx context.Context, userID, transactionID uuid.UUID, note string) (*models.Transaction, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if transactionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "note required")
	}

	var updated *models.Transaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		txn, err := repo.FindByIDForUpdate(ctx, transactionID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
		}
		if txn.BuyerID != userID && txn.SellerID != userID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "transaction does not involve user")
		}

		txn.Timeline = txn.Timeline.Append(types.TimelineEntry{
			Status:    txn.Status,
			Timestamp: s.now().UTC(),
			Note:      note,
		})
		if err := repo.UpdateStatus(ctx, txn.ID, txn.Status, txn.Timeline); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append timeline entry")
		}
		updated = txn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
