package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vidaplus/vidaplus-backend/internal/inventory/events"
	"github.com/vidaplus/vidaplus-backend/internal/inventory/repository"
	"github.com/vidaplus/vidaplus-backend/pkg/actor"
	"github.com/vidaplus/vidaplus-backend/pkg/database"
	"github.com/vidaplus/vidaplus-backend/pkg/errors"
	"github.com/vidaplus/vidaplus-backend/pkg/logger"
)

// StockService admits movements into the ledger. Admission is the only write
// path: validation, the sufficiency check and the append run as one atomic
// unit serialized per item by a row lock, so two concurrent withdrawals can
// never both observe the same pre-decrement balance.
type StockService struct {
	db           *database.DB
	itemRepo     *repository.ItemRepository
	movementRepo *repository.MovementRepository
	publisher    *events.InventoryEventPublisher
	logger       *logger.Logger
	lockTimeout  time.Duration
}

// NewStockService creates a new stock service
func NewStockService(
	db *database.DB,
	itemRepo *repository.ItemRepository,
	movementRepo *repository.MovementRepository,
	publisher *events.InventoryEventPublisher,
	log *logger.Logger,
	lockTimeout time.Duration,
) *StockService {
	return &StockService{
		db:           db,
		itemRepo:     itemRepo,
		movementRepo: movementRepo,
		publisher:    publisher,
		logger:       log,
		lockTimeout:  lockTimeout,
	}
}

// AdmitParams holds a movement admission request
type AdmitParams struct {
	ItemID         string
	Type           string
	Quantity       int
	Reason         *string
	Lot            *string
	ExpirationDate *time.Time
}

// Admit validates and appends a movement. Validation order: item existence,
// movement type, quantity, then (for OUT) balance sufficiency. A failed
// admission leaves the ledger unchanged. The acting user, if any, is taken
// from the request context.
func (s *StockService) Admit(ctx context.Context, params AdmitParams) (*repository.StockMovement, error) {
	if _, err := s.itemRepo.GetByID(ctx, params.ItemID); err != nil {
		return nil, err
	}

	if !repository.ValidMovementType(params.Type) {
		return nil, errors.InvalidMovementType(params.Type)
	}

	if params.Quantity <= 0 {
		return nil, errors.InvalidQuantity(params.Quantity)
	}

	movement := &repository.StockMovement{
		ItemID:         params.ItemID,
		Type:           params.Type,
		Quantity:       params.Quantity,
		Reason:         params.Reason,
		Lot:            params.Lot,
		ExpirationDate: params.ExpirationDate,
		UserID:         actor.UserID(ctx),
	}

	var balanceAfter int
	err := s.db.TransactionWithLockTimeout(ctx, s.lockTimeout, func(tx *sqlx.Tx) error {
		// Serialize against other admissions for this item. The lock is held
		// until commit, covering both the balance read and the append.
		if err := s.movementRepo.LockItem(ctx, tx, params.ItemID); err != nil {
			return err
		}

		balance, err := s.movementRepo.BalanceOfTx(ctx, tx, params.ItemID)
		if err != nil {
			return err
		}

		if params.Type == repository.MovementOut && params.Quantity > balance {
			return errors.InsufficientStock(balance, params.Quantity)
		}

		if err := s.movementRepo.Append(ctx, tx, movement); err != nil {
			return err
		}

		if params.Type == repository.MovementIn {
			balanceAfter = balance + params.Quantity
		} else {
			balanceAfter = balance - params.Quantity
		}
		return nil
	})
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}

	s.logger.Info().
		Str("item_id", movement.ItemID).
		Str("movement_id", movement.ID).
		Str("type", movement.Type).
		Int("quantity", movement.Quantity).
		Int("balance", balanceAfter).
		Msg("movement admitted")

	s.publisher.PublishMovementRecorded(ctx, movement, balanceAfter)

	return movement, nil
}

// ListMovements lists ledger entries
func (s *StockService) ListMovements(ctx context.Context, params repository.ListMovementsParams) ([]*repository.StockMovement, int64, error) {
	if params.Type != "" && !repository.ValidMovementType(params.Type) {
		return nil, 0, errors.InvalidMovementType(params.Type)
	}
	return s.movementRepo.List(ctx, params)
}
