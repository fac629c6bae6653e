package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ItemFixture represents test catalog item data
type ItemFixture struct {
	ID        string
	Name      string
	Category  *string
	Unit      string
	MinStock  int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MovementFixture represents test ledger entry data
type MovementFixture struct {
	ID             string
	ItemID         string
	Type           string
	Quantity       int
	Reason         *string
	Lot            *string
	ExpirationDate *time.Time
	UserID         *string
	CreatedAt      time.Time
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Item creates an item fixture with defaults
func (f *FixtureFactory) Item(opts ...func(*ItemFixture)) ItemFixture {
	seq := f.nextSeq()

	item := ItemFixture{
		ID:        uuid.New().String(),
		Name:      fmt.Sprintf("Test Item %d", seq),
		Unit:      "un",
		MinStock:  0,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(&item)
	}

	return item
}

// WithItemName sets the item name
func WithItemName(name string) func(*ItemFixture) {
	return func(i *ItemFixture) {
		i.Name = name
	}
}

// WithCategory sets the item category
func WithCategory(category string) func(*ItemFixture) {
	return func(i *ItemFixture) {
		i.Category = &category
	}
}

// WithUnit sets the item unit
func WithUnit(unit string) func(*ItemFixture) {
	return func(i *ItemFixture) {
		i.Unit = unit
	}
}

// WithMinStock sets the item minimum stock threshold
func WithMinStock(min int) func(*ItemFixture) {
	return func(i *ItemFixture) {
		i.MinStock = min
	}
}

// Inactive marks the item as archived
func Inactive() func(*ItemFixture) {
	return func(i *ItemFixture) {
		i.IsActive = false
	}
}

// Movement creates a movement fixture with defaults (an IN of 10)
func (f *FixtureFactory) Movement(itemID string, opts ...func(*MovementFixture)) MovementFixture {
	movement := MovementFixture{
		ID:        uuid.New().String(),
		ItemID:    itemID,
		Type:      "IN",
		Quantity:  10,
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(&movement)
	}

	return movement
}

// WithType sets the movement type
func WithType(movementType string) func(*MovementFixture) {
	return func(m *MovementFixture) {
		m.Type = movementType
	}
}

// WithQuantity sets the movement quantity
func WithQuantity(quantity int) func(*MovementFixture) {
	return func(m *MovementFixture) {
		m.Quantity = quantity
	}
}

// WithLot sets the movement lot and expiration date
func WithLot(lot string, expiration time.Time) func(*MovementFixture) {
	return func(m *MovementFixture) {
		m.Lot = &lot
		m.ExpirationDate = &expiration
	}
}

// WithReason sets the movement reason
func WithReason(reason string) func(*MovementFixture) {
	return func(m *MovementFixture) {
		m.Reason = &reason
	}
}
