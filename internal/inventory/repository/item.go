package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vidaplus/vidaplus-backend/pkg/database"
	"github.com/vidaplus/vidaplus-backend/pkg/errors"
)

// Item represents a stock-keeping unit in the catalog
type Item struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Category  *string   `db:"category" json:"category,omitempty"`
	Unit      string    `db:"unit" json:"unit"`
	MinStock  int       `db:"min_stock" json:"min_stock"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ListItemsParams controls item listing
type ListItemsParams struct {
	// Query is a case-insensitive substring filter over name and category
	Query   string
	Page    int
	PerPage int
	// OrderBy is "name" or "id"
	OrderBy string
	// Order is "asc" or "desc"
	Order string
}

// ItemRepository handles item catalog persistence
type ItemRepository struct {
	db *database.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *database.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create creates a new catalog item. A case-insensitive unique index on name
// backstops the service-level duplicate check.
func (r *ItemRepository) Create(ctx context.Context, item *Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.Unit == "" {
		item.Unit = "un"
	}

	query := `
		INSERT INTO items (id, name, category, unit, min_stock, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		item.ID, item.Name, item.Category, item.Unit, item.MinStock, item.IsActive,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			if errors.Is(appErr, errors.ErrConflict) {
				return errors.DuplicateName(item.Name)
			}
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets an item by ID
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*Item, error) {
	var item Item
	query := `
		SELECT id, name, category, unit, min_stock, is_active, created_at, updated_at
		FROM items WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("item")
		}
		return nil, err
	}
	return &item, nil
}

// ExistsByName reports whether another item already uses the name,
// compared case-insensitively. excludeID, when set, skips the item being
// renamed; it has to be a valid UUID before it reaches the id column, so an
// empty excludeID takes the query without the exclusion.
func (r *ItemRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	var exists bool
	if excludeID == "" {
		query := `SELECT EXISTS (SELECT 1 FROM items WHERE LOWER(name) = LOWER($1))`
		if err := r.db.GetContext(ctx, &exists, query, name); err != nil {
			return false, err
		}
		return exists, nil
	}
	query := `SELECT EXISTS (SELECT 1 FROM items WHERE LOWER(name) = LOWER($1) AND id <> $2)`
	if err := r.db.GetContext(ctx, &exists, query, name, excludeID); err != nil {
		return false, err
	}
	return exists, nil
}

// List lists catalog items with filtering, pagination and sorting
func (r *ItemRepository) List(ctx context.Context, params ListItemsParams) ([]*Item, int64, error) {
	where := ``
	args := []interface{}{}

	if params.Query != "" {
		where = ` WHERE (name ILIKE $1 OR category ILIKE $1)`
		args = append(args, "%"+params.Query+"%")
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM items` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	// Order columns are whitelisted; user input never reaches the SQL text
	orderBy := "name"
	if params.OrderBy == "id" {
		orderBy = "id"
	}
	order := "ASC"
	if params.Order == "desc" {
		order = "DESC"
	}

	offset := (params.Page - 1) * params.PerPage
	query := fmt.Sprintf(`
		SELECT id, name, category, unit, min_stock, is_active, created_at, updated_at
		FROM items%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, where, orderBy, order, len(args)+1, len(args)+2)
	args = append(args, params.PerPage, offset)

	var items []*Item
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// GetAllActive gets all non-archived items, ordered by name
func (r *ItemRepository) GetAllActive(ctx context.Context) ([]*Item, error) {
	var items []*Item
	query := `
		SELECT id, name, category, unit, min_stock, is_active, created_at, updated_at
		FROM items WHERE is_active = TRUE ORDER BY name
	`
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, err
	}
	return items, nil
}

// Update updates a catalog item
func (r *ItemRepository) Update(ctx context.Context, item *Item) error {
	query := `
		UPDATE items SET
			name = $2, category = $3, unit = $4, min_stock = $5, is_active = $6,
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		item.ID, item.Name, item.Category, item.Unit, item.MinStock, item.IsActive,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			if errors.Is(appErr, errors.ErrConflict) {
				return errors.DuplicateName(item.Name)
			}
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("item")
	}

	return nil
}

// Delete hard-deletes an item. The ON DELETE RESTRICT foreign key on
// stock_movements rejects deletion while ledger entries reference the item;
// callers should check HasMovements first for a friendlier error.
func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM items WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("item")
	}

	return nil
}
