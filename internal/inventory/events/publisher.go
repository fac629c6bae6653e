package events

import (
	"context"

	"github.com/vidaplus/vidaplus-backend/internal/inventory/repository"
	"github.com/vidaplus/vidaplus-backend/pkg/logger"
	"github.com/vidaplus/vidaplus-backend/pkg/messaging"
)

// InventoryEventPublisher publishes inventory domain events. Publishing is
// best-effort: a broker failure is logged and never fails the operation that
// produced the event.
type InventoryEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewInventoryEventPublisher creates a new inventory event publisher
func NewInventoryEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*InventoryEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeInventoryEvents, "inventory-service", log)
	if err != nil {
		return nil, err
	}

	return &InventoryEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishMovementRecorded publishes an event for an admitted movement
func (p *InventoryEventPublisher) PublishMovementRecorded(ctx context.Context, m *repository.StockMovement, balance int) {
	if p == nil {
		return
	}

	reason := ""
	if m.Reason != nil {
		reason = *m.Reason
	}
	lot := ""
	if m.Lot != nil {
		lot = *m.Lot
	}

	data := messaging.MovementRecordedEvent{
		MovementID: m.ID,
		ItemID:     m.ItemID,
		Type:       m.Type,
		Quantity:   m.Quantity,
		Balance:    balance,
		Reason:     reason,
		Lot:        lot,
		UserID:     m.UserID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventMovementRecorded, data); err != nil {
		p.logger.Error().Err(err).Str("movement_id", m.ID).Msg("failed to publish movement recorded event")
	}
}

// PublishItemCreated publishes an item created event
func (p *InventoryEventPublisher) PublishItemCreated(ctx context.Context, item *repository.Item) {
	p.publishItemEvent(ctx, messaging.EventItemCreated, item)
}

// PublishItemUpdated publishes an item updated event
func (p *InventoryEventPublisher) PublishItemUpdated(ctx context.Context, item *repository.Item) {
	p.publishItemEvent(ctx, messaging.EventItemUpdated, item)
}

// PublishItemDeleted publishes an item deleted event
func (p *InventoryEventPublisher) PublishItemDeleted(ctx context.Context, item *repository.Item) {
	p.publishItemEvent(ctx, messaging.EventItemDeleted, item)
}

func (p *InventoryEventPublisher) publishItemEvent(ctx context.Context, eventType string, item *repository.Item) {
	if p == nil {
		return
	}

	data := messaging.ItemChangedEvent{
		ItemID: item.ID,
		Name:   item.Name,
	}

	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("item_id", item.ID).Str("event_type", eventType).Msg("failed to publish item event")
	}
}

// PublishLowStockAlert publishes a low stock alert event
func (p *InventoryEventPublisher) PublishLowStockAlert(ctx context.Context, data messaging.LowStockAlertEvent) {
	if p == nil {
		return
	}

	if err := p.publisher.Publish(ctx, messaging.EventLowStockAlert, data); err != nil {
		p.logger.Error().Err(err).Str("item_id", data.ItemID).Msg("failed to publish low stock alert event")
	}
}

// PublishExpiryAlert publishes an expiry alert event
func (p *InventoryEventPublisher) PublishExpiryAlert(ctx context.Context, data messaging.ExpiryAlertEvent) {
	if p == nil {
		return
	}

	if err := p.publisher.Publish(ctx, messaging.EventExpiryAlert, data); err != nil {
		p.logger.Error().Err(err).Str("movement_id", data.MovementID).Msg("failed to publish expiry alert event")
	}
}
