package repository

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/vidaplus/vidaplus-backend/pkg/database"
	"github.com/vidaplus/vidaplus-backend/pkg/errors"
)

// Movement types
const (
	MovementIn  = "IN"
	MovementOut = "OUT"
)

// ValidMovementType reports whether t is one of the two admitted types
func ValidMovementType(t string) bool {
	return t == MovementIn || t == MovementOut
}

// StockMovement is one immutable ledger entry. Entries are only ever
// appended; nothing in the codebase updates or deletes a row of this table.
type StockMovement struct {
	ID             string     `db:"id" json:"id"`
	ItemID         string     `db:"item_id" json:"item_id"`
	Type           string     `db:"type" json:"type"`
	Quantity       int        `db:"quantity" json:"quantity"`
	Reason         *string    `db:"reason" json:"reason,omitempty"`
	Lot            *string    `db:"lot" json:"lot,omitempty"`
	ExpirationDate *time.Time `db:"expiration_date" json:"expiration_date,omitempty"`
	UserID         *string    `db:"user_id" json:"user_id,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// ListMovementsParams controls ledger listing
type ListMovementsParams struct {
	ItemID string
	Type   string
	Limit  int
	Offset int
}

// MovementRepository handles the append-only movement ledger
type MovementRepository struct {
	db *database.DB
}

// NewMovementRepository creates a new movement repository
func NewMovementRepository(db *database.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

// balanceQuery folds the ledger: IN adds, OUT subtracts.
const balanceQuery = `
	SELECT COALESCE(SUM(CASE WHEN type = 'IN' THEN quantity ELSE -quantity END), 0)
	FROM stock_movements WHERE item_id = $1
`

// BalanceOf computes the current balance for an item by folding its ledger.
// An item with no movements has balance 0.
func (r *MovementRepository) BalanceOf(ctx context.Context, itemID string) (int, error) {
	var balance int
	if err := r.db.GetContext(ctx, &balance, balanceQuery, itemID); err != nil {
		return 0, err
	}
	return balance, nil
}

// BalanceOfTx computes the balance inside an admission transaction, after the
// item row lock is held, so the value cannot go stale before the append.
func (r *MovementRepository) BalanceOfTx(ctx context.Context, tx *sqlx.Tx, itemID string) (int, error) {
	var balance int
	if err := tx.GetContext(ctx, &balance, balanceQuery, itemID); err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return 0, appErr
		}
		return 0, err
	}
	return balance, nil
}

// LockItem takes the per-item row lock that serializes admissions for the
// item. Concurrent admissions for the same item queue here; a wait past the
// transaction's lock_timeout surfaces as a Busy error via MapPQError.
func (r *MovementRepository) LockItem(ctx context.Context, tx *sqlx.Tx, itemID string) error {
	var id string
	query := `SELECT id FROM items WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &id, query, itemID); err != nil {
		if err == sql.ErrNoRows {
			return errors.NotFound("item")
		}
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// Append inserts a new ledger entry inside an admission transaction.
// This is the ledger's only mutating operation.
func (r *MovementRepository) Append(ctx context.Context, tx *sqlx.Tx, m *StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}

	query := `
		INSERT INTO stock_movements (id, item_id, type, quantity, reason, lot, expiration_date, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := tx.QueryRowxContext(ctx, query,
		m.ID, m.ItemID, m.Type, m.Quantity, m.Reason, m.Lot, m.ExpirationDate, m.UserID,
	).Scan(&m.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// List lists ledger entries with optional filters, most recent first
func (r *MovementRepository) List(ctx context.Context, params ListMovementsParams) ([]*StockMovement, int64, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}

	if params.ItemID != "" {
		args = append(args, params.ItemID)
		where += ` AND item_id = $1`
	}
	if params.Type != "" {
		args = append(args, params.Type)
		if params.ItemID != "" {
			where += ` AND type = $2`
		} else {
			where += ` AND type = $1`
		}
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM stock_movements` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, item_id, type, quantity, reason, lot, expiration_date, user_id, created_at
		FROM stock_movements` + where + `
		ORDER BY created_at DESC, id DESC`

	limitPos := len(args) + 1
	query += ` LIMIT $` + strconv.Itoa(limitPos) + ` OFFSET $` + strconv.Itoa(limitPos+1)
	args = append(args, params.Limit, params.Offset)

	var movements []*StockMovement
	if err := r.db.SelectContext(ctx, &movements, query, args...); err != nil {
		return nil, 0, err
	}

	return movements, total, nil
}

// ListWithExpiry lists every movement carrying an expiration date, oldest
// expiry first. The result is finite and re-queryable.
func (r *MovementRepository) ListWithExpiry(ctx context.Context) ([]*StockMovement, error) {
	var movements []*StockMovement
	query := `
		SELECT id, item_id, type, quantity, reason, lot, expiration_date, user_id, created_at
		FROM stock_movements
		WHERE expiration_date IS NOT NULL
		ORDER BY expiration_date, id
	`
	if err := r.db.SelectContext(ctx, &movements, query); err != nil {
		return nil, err
	}
	return movements, nil
}

// HasMovements reports whether any ledger entry references the item
func (r *MovementRepository) HasMovements(ctx context.Context, itemID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM stock_movements WHERE item_id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, itemID); err != nil {
		return false, err
	}
	return exists, nil
}
