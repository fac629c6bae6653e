package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidaplus/vidaplus-backend/internal/inventory/repository"
	"github.com/vidaplus/vidaplus-backend/internal/inventory/service"
	"github.com/vidaplus/vidaplus-backend/pkg/database"
	"github.com/vidaplus/vidaplus-backend/pkg/errors"
	"github.com/vidaplus/vidaplus-backend/pkg/logger"
	"github.com/vidaplus/vidaplus-backend/pkg/testutil"
)

func newCatalogService(t *testing.T) (*service.CatalogService, *testutil.MockDB) {
	t.Helper()

	mockDB := testutil.NewMockDB(t)
	log := logger.New("test", "test")
	db := database.NewFromSqlx(mockDB.DB, log)

	itemRepo := repository.NewItemRepository(db)
	movementRepo := repository.NewMovementRepository(db)

	return service.NewCatalogService(itemRepo, movementRepo, nil, log), mockDB
}

func TestCreateItem(t *testing.T) {
	svc, mockDB := newCatalogService(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT EXISTS (SELECT 1 FROM items WHERE LOWER(name) = LOWER($1))").
		WithArgs("Gauze").
		WillReturnRows(testutil.MockRows("exists").AddRow(false))
	mockDB.ExpectQuery("INSERT INTO items").
		WithArgs(testutil.AnyUUID{}, "Gauze", nil, "un", 5, true).
		WillReturnRows(testutil.MockRows("created_at", "updated_at").AddRow(time.Now(), time.Now()))

	item, err := svc.CreateItem(context.Background(), service.CreateItemParams{
		Name:     "Gauze",
		Unit:     "un",
		MinStock: 5,
	})

	require.NoError(t, err)
	require.NotNil(t, item)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "Gauze", item.Name)
	assert.True(t, item.IsActive)
	mockDB.ExpectationsWereMet(t)
}

func TestCreateItem_DuplicateNameIsCaseInsensitive(t *testing.T) {
	svc, mockDB := newCatalogService(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT EXISTS (SELECT 1 FROM items WHERE LOWER(name) = LOWER($1))").
		WithArgs("gauze").
		WillReturnRows(testutil.MockRows("exists").AddRow(true))

	item, err := svc.CreateItem(context.Background(), service.CreateItemParams{
		Name: "gauze",
		Unit: "un",
	})

	assert.Nil(t, item)
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "DUPLICATE_NAME", appErr.Code)
	assert.Equal(t, 409, appErr.StatusCode)
	mockDB.ExpectationsWereMet(t)
}

func TestUpdateItem_RenameCollision(t *testing.T) {
	svc, mockDB := newCatalogService(t)
	defer mockDB.Close()

	now := time.Now()
	mockDB.ExpectQuery("SELECT id, name, category, unit, min_stock, is_active, created_at, updated_at").
		WithArgs(testItemID).
		WillReturnRows(testutil.MockRows(
			"id", "name", "category", "unit", "min_stock", "is_active", "created_at", "updated_at",
		).AddRow(testItemID, "Gauze", nil, "un", 5, true, now, now))
	mockDB.ExpectQuery("SELECT EXISTS (SELECT 1 FROM items WHERE LOWER(name) = LOWER($1) AND id <> $2)").
		WithArgs("Saline", testItemID).
		WillReturnRows(testutil.MockRows("exists").AddRow(true))

	newName := "Saline"
	item, err := svc.UpdateItem(context.Background(), testItemID, service.UpdateItemParams{
		Name: &newName,
	})

	assert.Nil(t, item)
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "DUPLICATE_NAME", appErr.Code)
	mockDB.ExpectationsWereMet(t)
}

func TestDeleteItem_RejectedWhenLedgerReferencesIt(t *testing.T) {
	svc, mockDB := newCatalogService(t)
	defer mockDB.Close()

	now := time.Now()
	mockDB.ExpectQuery("SELECT id, name, category, unit, min_stock, is_active, created_at, updated_at").
		WithArgs(testItemID).
		WillReturnRows(testutil.MockRows(
			"id", "name", "category", "unit", "min_stock", "is_active", "created_at", "updated_at",
		).AddRow(testItemID, "Gauze", nil, "un", 5, true, now, now))
	mockDB.ExpectQuery("SELECT EXISTS (SELECT 1 FROM stock_movements WHERE item_id = $1)").
		WithArgs(testItemID).
		WillReturnRows(testutil.MockRows("exists").AddRow(true))

	err := svc.DeleteItem(context.Background(), testItemID)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
	assert.Contains(t, err.Error(), "archive")
	mockDB.ExpectationsWereMet(t)
}

func TestDeleteItem_NoHistory(t *testing.T) {
	svc, mockDB := newCatalogService(t)
	defer mockDB.Close()

	now := time.Now()
	mockDB.ExpectQuery("SELECT id, name, category, unit, min_stock, is_active, created_at, updated_at").
		WithArgs(testItemID).
		WillReturnRows(testutil.MockRows(
			"id", "name", "category", "unit", "min_stock", "is_active", "created_at", "updated_at",
		).AddRow(testItemID, "Gauze", nil, "un", 5, true, now, now))
	mockDB.ExpectQuery("SELECT EXISTS (SELECT 1 FROM stock_movements WHERE item_id = $1)").
		WithArgs(testItemID).
		WillReturnRows(testutil.MockRows("exists").AddRow(false))
	mockDB.ExpectExec("DELETE FROM items WHERE id = $1").
		WithArgs(testItemID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.DeleteItem(context.Background(), testItemID)
	require.NoError(t, err)
	mockDB.ExpectationsWereMet(t)
}

func TestBalance(t *testing.T) {
	svc, mockDB := newCatalogService(t)
	defer mockDB.Close()

	now := time.Now()
	mockDB.ExpectQuery("SELECT id, name, category, unit, min_stock, is_active, created_at, updated_at").
		WithArgs(testItemID).
		WillReturnRows(testutil.MockRows(
			"id", "name", "category", "unit", "min_stock", "is_active", "created_at", "updated_at",
		).AddRow(testItemID, "Gauze", nil, "un", 10, true, now, now))
	mockDB.ExpectQuery("SELECT COALESCE(SUM(CASE WHEN type = 'IN' THEN quantity ELSE -quantity END), 0)").
		WithArgs(testItemID).
		WillReturnRows(testutil.MockRows("coalesce").AddRow(7))

	balance, err := svc.Balance(context.Background(), testItemID)
	require.NoError(t, err)
	require.NotNil(t, balance)
	assert.Equal(t, 7, balance.Balance)
	assert.Equal(t, "Gauze", balance.Name)
	assert.True(t, balance.BelowMinStock)
	mockDB.ExpectationsWereMet(t)
}
