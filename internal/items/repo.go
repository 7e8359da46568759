package items

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swapyard/swapyard-backend/pkg/db/models"
	"github.com/swapyard/swapyard-backend/pkg/enums"
	pkgerrors "github.com/swapyard/swapyard-backend/pkg/errors"
)

// Repository manages persistence for marketplace items. Settlement only
// moves an item between availability states; listing management lives in
// another service.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.Item) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.ItemStatus) (bool, error)
	SetStatus(ctx context.Context, id uuid.UUID, status enums.ItemStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an items repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// TransitionStatus moves the item between availability states only when it is
// still in the expected one. A false return means another transition won.
func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.ItemStatus) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE items
		SET status = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`, to, id, from)
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "transition item status")
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) SetStatus(ctx context.Context, id uuid.UUID, status enums.ItemStatus) error {
	err := r.db.WithContext(ctx).Model(&models.Item{}).
		Where("id = ?", id).
		Update("status", status).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set item status")
	}
	return nil
}
