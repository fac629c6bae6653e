package service_test

import (
	"context"
	"flag"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidaplus/vidaplus-backend/internal/inventory/repository"
	"github.com/vidaplus/vidaplus-backend/internal/inventory/service"
	"github.com/vidaplus/vidaplus-backend/pkg/errors"
	"github.com/vidaplus/vidaplus-backend/pkg/logger"
	"github.com/vidaplus/vidaplus-backend/pkg/testutil"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()

	var err error
	suite, err = testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatalf("failed to create integration suite: %v", err)
	}

	code := m.Run()
	testutil.TerminateContainer(ctx)
	os.Exit(code)
}

func integrationStockService(t *testing.T) (*service.StockService, *repository.MovementRepository, *repository.ItemRepository) {
	t.Helper()

	itemRepo := repository.NewItemRepository(suite.DB)
	movementRepo := repository.NewMovementRepository(suite.DB)
	logg := logger.New("test", "test")
	svc := service.NewStockService(suite.DB, itemRepo, movementRepo, nil, logg, 3*time.Second)
	return svc, movementRepo, itemRepo
}

func TestAdmit_FoldAcrossMovements(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := testutil.DefaultTestContext(t)
	suite.Reset(t, ctx)

	svc, movementRepo, itemRepo := integrationStockService(t)

	item := &repository.Item{Name: "Dipyrone", Unit: "un", IsActive: true}
	require.NoError(t, itemRepo.Create(ctx, item))

	for _, m := range []struct {
		movementType string
		quantity     int
	}{
		{repository.MovementIn, 100},
		{repository.MovementOut, 30},
		{repository.MovementIn, 5},
	} {
		_, err := svc.Admit(ctx, service.AdmitParams{
			ItemID:   item.ID,
			Type:     m.movementType,
			Quantity: m.quantity,
		})
		require.NoError(t, err)
	}

	balance, err := movementRepo.BalanceOf(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 75, balance)
}

func TestAdmit_InsufficientStockLeavesLedgerUnchanged(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := testutil.DefaultTestContext(t)
	suite.Reset(t, ctx)

	svc, movementRepo, itemRepo := integrationStockService(t)

	item := &repository.Item{Name: "Insulin", Unit: "un", IsActive: true}
	require.NoError(t, itemRepo.Create(ctx, item))

	_, err := svc.Admit(ctx, service.AdmitParams{
		ItemID:   item.ID,
		Type:     repository.MovementIn,
		Quantity: 10,
	})
	require.NoError(t, err)

	_, err = svc.Admit(ctx, service.AdmitParams{
		ItemID:   item.ID,
		Type:     repository.MovementOut,
		Quantity: 30,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientStock))

	// The rejected admission appended nothing
	movements, total, err := movementRepo.List(ctx, repository.ListMovementsParams{
		ItemID: item.ID,
		Limit:  50,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, movements, 1)

	balance, err := movementRepo.BalanceOf(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, balance)
}

// Two concurrent withdrawals race for the last units. The per-item row lock
// serializes them, so exactly one succeeds and the balance never goes
// negative.
func TestAdmit_ConcurrentWithdrawals(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := testutil.DefaultTestContext(t)
	suite.Reset(t, ctx)

	svc, movementRepo, itemRepo := integrationStockService(t)

	item := &repository.Item{Name: "Morphine", Unit: "un", IsActive: true}
	require.NoError(t, itemRepo.Create(ctx, item))

	_, err := svc.Admit(ctx, service.AdmitParams{
		ItemID:   item.ID,
		Type:     repository.MovementIn,
		Quantity: 10,
	})
	require.NoError(t, err)

	const attempts = 2
	results := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Admit(ctx, service.AdmitParams{
				ItemID:   item.ID,
				Type:     repository.MovementOut,
				Quantity: 10,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, errors.ErrInsufficientStock),
			"losing admission should see the drained balance, got: %v", err)
	}
	assert.Equal(t, 1, succeeded, "exactly one withdrawal may win the race")

	balance, err := movementRepo.BalanceOf(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestAdmit_ManyConcurrentWithdrawalsNeverOversell(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := testutil.DefaultTestContext(t)
	suite.Reset(t, ctx)

	svc, movementRepo, itemRepo := integrationStockService(t)

	item := &repository.Item{Name: "Adrenaline", Unit: "un", IsActive: true}
	require.NoError(t, itemRepo.Create(ctx, item))

	_, err := svc.Admit(ctx, service.AdmitParams{
		ItemID:   item.ID,
		Type:     repository.MovementIn,
		Quantity: 5,
	})
	require.NoError(t, err)

	const attempts = 10
	results := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Admit(ctx, service.AdmitParams{
				ItemID:   item.ID,
				Type:     repository.MovementOut,
				Quantity: 1,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 5, succeeded)

	balance, err := movementRepo.BalanceOf(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}
