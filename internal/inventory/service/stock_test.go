package service_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidaplus/vidaplus-backend/internal/inventory/repository"
	"github.com/vidaplus/vidaplus-backend/internal/inventory/service"
	"github.com/vidaplus/vidaplus-backend/pkg/actor"
	"github.com/vidaplus/vidaplus-backend/pkg/database"
	"github.com/vidaplus/vidaplus-backend/pkg/errors"
	"github.com/vidaplus/vidaplus-backend/pkg/logger"
	"github.com/vidaplus/vidaplus-backend/pkg/testutil"
)

const testItemID = "11111111-1111-1111-1111-111111111111"

func newStockService(t *testing.T) (*service.StockService, *testutil.MockDB) {
	t.Helper()

	mockDB := testutil.NewMockDB(t)
	log := logger.New("test", "test")
	db := database.NewFromSqlx(mockDB.DB, log)

	itemRepo := repository.NewItemRepository(db)
	movementRepo := repository.NewMovementRepository(db)

	svc := service.NewStockService(db, itemRepo, movementRepo, nil, log, 3*time.Second)
	return svc, mockDB
}

func expectItemLookup(m *testutil.MockDB, id string) {
	m.ExpectQuery("SELECT id, name, category, unit, min_stock, is_active, created_at, updated_at").
		WithArgs(id).
		WillReturnRows(testutil.MockRows(
			"id", "name", "category", "unit", "min_stock", "is_active", "created_at", "updated_at",
		).AddRow(id, "Gauze", nil, "un", 5, true, time.Now(), time.Now()))
}

func expectAdmissionTx(m *testutil.MockDB, itemID string, balance int) {
	m.ExpectBegin()
	m.ExpectLockTimeout()
	m.ExpectQuery("SELECT id FROM items WHERE id = $1 FOR UPDATE").
		WithArgs(itemID).
		WillReturnRows(testutil.MockRows("id").AddRow(itemID))
	m.ExpectQuery("SELECT COALESCE(SUM(CASE WHEN type = 'IN' THEN quantity ELSE -quantity END), 0)").
		WithArgs(itemID).
		WillReturnRows(testutil.MockRows("coalesce").AddRow(balance))
}

func TestAdmit_ItemNotFound(t *testing.T) {
	svc, mockDB := newStockService(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT id, name, category, unit, min_stock, is_active, created_at, updated_at").
		WithArgs(testItemID).
		WillReturnError(sql.ErrNoRows)

	movement, err := svc.Admit(context.Background(), service.AdmitParams{
		ItemID:   testItemID,
		Type:     repository.MovementIn,
		Quantity: 10,
	})

	assert.Nil(t, movement)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	mockDB.ExpectationsWereMet(t)
}

func TestAdmit_RejectsUnknownType(t *testing.T) {
	svc, mockDB := newStockService(t)
	defer mockDB.Close()

	expectItemLookup(mockDB, testItemID)

	movement, err := svc.Admit(context.Background(), service.AdmitParams{
		ItemID:   testItemID,
		Type:     "TRANSFER",
		Quantity: 10,
	})

	assert.Nil(t, movement)
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INVALID_MOVEMENT_TYPE", appErr.Code)
	mockDB.ExpectationsWereMet(t)
}

func TestAdmit_RejectsNonPositiveQuantity(t *testing.T) {
	for _, quantity := range []int{0, -3} {
		svc, mockDB := newStockService(t)

		expectItemLookup(mockDB, testItemID)

		movement, err := svc.Admit(context.Background(), service.AdmitParams{
			ItemID:   testItemID,
			Type:     repository.MovementOut,
			Quantity: quantity,
		})

		assert.Nil(t, movement)
		require.Error(t, err)

		var appErr *errors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "INVALID_QUANTITY", appErr.Code)

		mockDB.ExpectationsWereMet(t)
		mockDB.Close()
	}
}

func TestAdmit_InsufficientStock(t *testing.T) {
	svc, mockDB := newStockService(t)
	defer mockDB.Close()

	expectItemLookup(mockDB, testItemID)
	expectAdmissionTx(mockDB, testItemID, 4)
	mockDB.ExpectRollback()

	movement, err := svc.Admit(context.Background(), service.AdmitParams{
		ItemID:   testItemID,
		Type:     repository.MovementOut,
		Quantity: 10,
	})

	assert.Nil(t, movement)
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INSUFFICIENT_STOCK", appErr.Code)
	assert.Equal(t, "4", appErr.Details["balance"])
	assert.Equal(t, "10", appErr.Details["requested"])
	mockDB.ExpectationsWereMet(t)
}

func TestAdmit_OutWithinBalance(t *testing.T) {
	svc, mockDB := newStockService(t)
	defer mockDB.Close()

	expectItemLookup(mockDB, testItemID)
	expectAdmissionTx(mockDB, testItemID, 10)
	mockDB.ExpectQuery("INSERT INTO stock_movements").
		WithArgs(testutil.AnyUUID{}, testItemID, repository.MovementOut, 4, nil, nil, nil, nil).
		WillReturnRows(testutil.MockRows("created_at").AddRow(time.Now()))
	mockDB.ExpectCommit()

	movement, err := svc.Admit(context.Background(), service.AdmitParams{
		ItemID:   testItemID,
		Type:     repository.MovementOut,
		Quantity: 4,
	})

	require.NoError(t, err)
	require.NotNil(t, movement)
	assert.NotEmpty(t, movement.ID)
	assert.Equal(t, testItemID, movement.ItemID)
	assert.Equal(t, repository.MovementOut, movement.Type)
	assert.Equal(t, 4, movement.Quantity)
	assert.False(t, movement.CreatedAt.IsZero())
	mockDB.ExpectationsWereMet(t)
}

func TestAdmit_FirstMovementIn(t *testing.T) {
	svc, mockDB := newStockService(t)
	defer mockDB.Close()

	userID := "22222222-2222-2222-2222-222222222222"
	ctx := actor.WithActor(context.Background(), &actor.Actor{ID: userID})

	expectItemLookup(mockDB, testItemID)
	expectAdmissionTx(mockDB, testItemID, 0)
	mockDB.ExpectQuery("INSERT INTO stock_movements").
		WithArgs(testutil.AnyUUID{}, testItemID, repository.MovementIn, 100, nil, nil, nil, userID).
		WillReturnRows(testutil.MockRows("created_at").AddRow(time.Now()))
	mockDB.ExpectCommit()

	movement, err := svc.Admit(ctx, service.AdmitParams{
		ItemID:   testItemID,
		Type:     repository.MovementIn,
		Quantity: 100,
	})

	require.NoError(t, err)
	require.NotNil(t, movement)
	require.NotNil(t, movement.UserID)
	assert.Equal(t, userID, *movement.UserID)
	mockDB.ExpectationsWereMet(t)
}

func TestAdmit_LockTimeoutMapsToBusy(t *testing.T) {
	svc, mockDB := newStockService(t)
	defer mockDB.Close()

	expectItemLookup(mockDB, testItemID)
	mockDB.ExpectBegin()
	mockDB.ExpectLockTimeout()
	mockDB.ExpectQuery("SELECT id FROM items WHERE id = $1 FOR UPDATE").
		WithArgs(testItemID).
		WillReturnError(&pq.Error{Code: "55P03", Message: "canceling statement due to lock timeout"})
	mockDB.ExpectRollback()

	movement, err := svc.Admit(context.Background(), service.AdmitParams{
		ItemID:   testItemID,
		Type:     repository.MovementOut,
		Quantity: 1,
	})

	assert.Nil(t, movement)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBusy))

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 409, appErr.StatusCode)
	mockDB.ExpectationsWereMet(t)
}

func TestListMovements_RejectsBadTypeFilter(t *testing.T) {
	svc, mockDB := newStockService(t)
	defer mockDB.Close()

	movements, _, err := svc.ListMovements(context.Background(), repository.ListMovementsParams{
		Type:  "ADJUST",
		Limit: 50,
	})

	assert.Nil(t, movements)
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INVALID_MOVEMENT_TYPE", appErr.Code)
	mockDB.ExpectationsWereMet(t)
}
