package items

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/swapyard/swapyard-backend/pkg/db/models"
	"github.com/swapyard/swapyard-backend/pkg/enums"
)

func setupItemsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	items := `
CREATE TABLE IF NOT EXISTS items (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  title TEXT NOT NULL,
  list_price_cents INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'available',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(items).Error)
	return db
}

func seedItem(t *testing.T, db *gorm.DB, status enums.ItemStatus) *models.Item {
	t.Helper()

	item := &models.Item{
		ID:             uuid.New(),
		OwnerID:        uuid.New(),
		Title:          "road bike",
		ListPriceCents: 30000,
		Status:         status,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func TestTransitionStatus(t *testing.T) {
	db := setupItemsTestDB(t)
	repo := NewRepository(db)
	item := seedItem(t, db, enums.ItemStatusAvailable)

	ok, err := repo.TransitionStatus(context.Background(), item.ID, enums.ItemStatusAvailable, enums.ItemStatusReserved)
	require.NoError(t, err)
	assert.True(t, ok)

	loaded, err := repo.FindByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ItemStatusReserved, loaded.Status)
}

func TestTransitionStatusGuardsExpectedState(t *testing.T) {
	db := setupItemsTestDB(t)
	repo := NewRepository(db)
	item := seedItem(t, db, enums.ItemStatusSold)

	ok, err := repo.TransitionStatus(context.Background(), item.ID, enums.ItemStatusAvailable, enums.ItemStatusReserved)
	require.NoError(t, err)
	assert.False(t, ok)

	loaded, err := repo.FindByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ItemStatusSold, loaded.Status)
}

func TestTransitionStatusMissingItem(t *testing.T) {
	db := setupItemsTestDB(t)
	repo := NewRepository(db)

	ok, err := repo.TransitionStatus(context.Background(), uuid.New(), enums.ItemStatusAvailable, enums.ItemStatusReserved)
	require.NoError(t, err)
	assert.False(t, ok)
}
