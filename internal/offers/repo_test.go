package offers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/swapyard/swapyard-backend/pkg/db/models"
	"github.com/swapyard/swapyard-backend/pkg/enums"
	"github.com/swapyard/swapyard-backend/pkg/pagination"
)

func setupOffersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	offers := `
CREATE TABLE IF NOT EXISTS offers (
  id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  buyer_id TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  item_id TEXT NOT NULL,
  proposed_value_cents INTEGER NOT NULL,
  offered_item_value_cents INTEGER NOT NULL DEFAULT 0,
  description TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  buyer_confirmed INTEGER NOT NULL DEFAULT 0,
  seller_confirmed INTEGER NOT NULL DEFAULT 0,
  escrow_amount_cents INTEGER NOT NULL DEFAULT 0,
  buyer_held INTEGER NOT NULL DEFAULT 0,
  seller_held INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(offers).Error)
	return db
}

func seedOffer(t *testing.T, db *gorm.DB, buyerID, sellerID uuid.UUID, createdAt time.Time) *models.Offer {
	t.Helper()

	offer := &models.Offer{
		ID:                 uuid.New(),
		Kind:               enums.OfferKindPurchase,
		BuyerID:            buyerID,
		SellerID:           sellerID,
		ItemID:             uuid.New(),
		ProposedValueCents: 5000,
		Status:             enums.OfferStatusPending,
		CreatedAt:          createdAt,
		UpdatedAt:          createdAt,
	}
	require.NoError(t, db.Create(offer).Error)
	return offer
}

func TestRepositoryListForUserPagination(t *testing.T) {
	db := setupOffersTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()
	base := time.Now().Add(-time.Hour).Truncate(time.Millisecond)

	oldest := seedOffer(t, db, userID, uuid.New(), base)
	middle := seedOffer(t, db, uuid.New(), userID, base.Add(time.Minute))
	newest := seedOffer(t, db, userID, uuid.New(), base.Add(2*time.Minute))
	seedOffer(t, db, uuid.New(), uuid.New(), base.Add(3*time.Minute))

	rows, next, err := repo.ListForUser(context.Background(), userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, newest.ID, rows[0].ID)
	assert.Equal(t, middle.ID, rows[1].ID)
	require.NotNil(t, next)

	rows, next, err = repo.ListForUser(context.Background(), userID, pagination.Params{
		Limit:  2,
		Cursor: pagination.EncodeCursor(*next),
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, oldest.ID, rows[0].ID)
	assert.Nil(t, next)
}

func TestRepositoryListForUserCoversBothSides(t *testing.T) {
	db := setupOffersTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()
	base := time.Now().Truncate(time.Millisecond)

	asBuyer := seedOffer(t, db, userID, uuid.New(), base)
	asSeller := seedOffer(t, db, uuid.New(), userID, base.Add(time.Second))

	rows, _, err := repo.ListForUser(context.Background(), userID, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, asSeller.ID, rows[0].ID)
	assert.Equal(t, asBuyer.ID, rows[1].ID)
}

func TestRepositoryUpdate(t *testing.T) {
	db := setupOffersTestDB(t)
	repo := NewRepository(db)
	offer := seedOffer(t, db, uuid.New(), uuid.New(), time.Now())

	err := repo.Update(context.Background(), offer.ID, map[string]any{
		"status":              enums.OfferStatusAccepted,
		"escrow_amount_cents": int64(5000),
		"buyer_held":          true,
	})
	require.NoError(t, err)

	loaded, err := repo.FindByID(context.Background(), offer.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OfferStatusAccepted, loaded.Status)
	assert.Equal(t, int64(5000), loaded.EscrowAmountCents)
	assert.True(t, loaded.BuyerHeld)
}

func TestRepositoryFindByIDMissing(t *testing.T) {
	db := setupOffersTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
