package transactions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/swapyard/swapyard-backend/pkg/db/models"
	"github.com/swapyard/swapyard-backend/pkg/enums"
	"github.com/swapyard/swapyard-backend/pkg/pagination"
	"github.com/swapyard/swapyard-backend/pkg/types"
)

// Repository manages persistence for settlement transactions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	FindByOfferID(ctx context.Context, offerID uuid.UUID) (*models.Transaction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.TransactionStatus, timeline types.Timeline) error
	Complete(ctx context.Context, id uuid.UUID, feeCents int64, timeline types.Timeline) error
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Transaction, *pagination.Cursor, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a transactions repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) FindByOfferID(ctx context.Context, offerID uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Where("offer_id = ?", offerID).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// UpdateStatus writes the status together with the grown timeline. Struct
// updates go through the jsonb serializer; map updates would not.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.TransactionStatus, timeline types.Timeline) error {
	return r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ?", id).
		Select("status", "timeline").
		Updates(&models.Transaction{Status: status, Timeline: timeline}).Error
}

// Complete marks the row settled and freezes the final fee alongside it.
func (r *repository) Complete(ctx context.Context, id uuid.UUID, feeCents int64, timeline types.Timeline) error {
	return r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ?", id).
		Select("status", "platform_fee_cents", "timeline").
		Updates(&models.Transaction{
			Status:           enums.TransactionStatusCompleted,
			PlatformFeeCents: feeCents,
			Timeline:         timeline,
		}).Error
}

func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Transaction, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("buyer_id = ? OR seller_id = ?", userID, userID)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		// Expanded tuple comparison so the predicate works on both the
		// postgres and sqlite drivers.
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Transaction
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return rows, nil, nil
}
