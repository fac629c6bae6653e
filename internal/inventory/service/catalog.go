package service

import (
	"context"

	"github.com/vidaplus/vidaplus-backend/internal/inventory/events"
	"github.com/vidaplus/vidaplus-backend/internal/inventory/repository"
	"github.com/vidaplus/vidaplus-backend/pkg/errors"
	"github.com/vidaplus/vidaplus-backend/pkg/logger"
)

// CatalogService handles item catalog business logic
type CatalogService struct {
	itemRepo     *repository.ItemRepository
	movementRepo *repository.MovementRepository
	publisher    *events.InventoryEventPublisher
	logger       *logger.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	itemRepo *repository.ItemRepository,
	movementRepo *repository.MovementRepository,
	publisher *events.InventoryEventPublisher,
	log *logger.Logger,
) *CatalogService {
	return &CatalogService{
		itemRepo:     itemRepo,
		movementRepo: movementRepo,
		publisher:    publisher,
		logger:       log,
	}
}

// CreateItemParams holds the fields for catalog registration
type CreateItemParams struct {
	Name     string
	Category *string
	Unit     string
	MinStock int
}

// UpdateItemParams holds a partial update; nil fields stay unchanged
type UpdateItemParams struct {
	Name     *string
	Category *string
	Unit     *string
	MinStock *int
	IsActive *bool
}

// ItemBalance is the balance view of a catalog item
type ItemBalance struct {
	ItemID        string `json:"item_id"`
	Name          string `json:"name"`
	Balance       int    `json:"balance"`
	Unit          string `json:"unit"`
	MinStock      int    `json:"min_stock"`
	BelowMinStock bool   `json:"below_min_stock"`
}

// CreateItem registers a new stock-keeping unit. Names are unique
// case-insensitively.
func (s *CatalogService) CreateItem(ctx context.Context, params CreateItemParams) (*repository.Item, error) {
	exists, err := s.itemRepo.ExistsByName(ctx, params.Name, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.DuplicateName(params.Name)
	}

	item := &repository.Item{
		Name:     params.Name,
		Category: params.Category,
		Unit:     params.Unit,
		MinStock: params.MinStock,
		IsActive: true,
	}

	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, err
	}

	s.publisher.PublishItemCreated(ctx, item)

	return item, nil
}

// GetItem gets an item by ID
func (s *CatalogService) GetItem(ctx context.Context, id string) (*repository.Item, error) {
	return s.itemRepo.GetByID(ctx, id)
}

// ListItems lists catalog items
func (s *CatalogService) ListItems(ctx context.Context, params repository.ListItemsParams) ([]*repository.Item, int64, error) {
	return s.itemRepo.List(ctx, params)
}

// UpdateItem applies a partial update to an item
func (s *CatalogService) UpdateItem(ctx context.Context, id string, params UpdateItemParams) (*repository.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil && *params.Name != item.Name {
		exists, err := s.itemRepo.ExistsByName(ctx, *params.Name, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, errors.DuplicateName(*params.Name)
		}
		item.Name = *params.Name
	}
	if params.Category != nil {
		item.Category = params.Category
	}
	if params.Unit != nil {
		item.Unit = *params.Unit
	}
	if params.MinStock != nil {
		item.MinStock = *params.MinStock
	}
	if params.IsActive != nil {
		item.IsActive = *params.IsActive
	}

	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, err
	}

	s.publisher.PublishItemUpdated(ctx, item)

	return item, nil
}

// DeleteItem removes an item from the catalog. Items referenced by ledger
// entries are never deleted: the ledger is the audit history, so deletion is
// rejected and callers should archive the item instead (is_active = false).
func (s *CatalogService) DeleteItem(ctx context.Context, id string) error {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	hasMovements, err := s.movementRepo.HasMovements(ctx, id)
	if err != nil {
		return err
	}
	if hasMovements {
		return errors.Conflict("item has recorded stock movements and cannot be deleted; archive it instead")
	}

	if err := s.itemRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.publisher.PublishItemDeleted(ctx, item)

	return nil
}

// Balance returns the item's current balance together with its threshold view
func (s *CatalogService) Balance(ctx context.Context, id string) (*ItemBalance, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	balance, err := s.movementRepo.BalanceOf(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ItemBalance{
		ItemID:        item.ID,
		Name:          item.Name,
		Balance:       balance,
		Unit:          item.Unit,
		MinStock:      item.MinStock,
		BelowMinStock: balance < item.MinStock,
	}, nil
}
