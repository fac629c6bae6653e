package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventMovementRecorded = "inventory.movement.recorded"
	EventItemCreated      = "inventory.item.created"
	EventItemUpdated      = "inventory.item.updated"
	EventItemDeleted      = "inventory.item.deleted"
	EventLowStockAlert    = "inventory.alert.low_stock"
	EventExpiryAlert      = "inventory.alert.expiry"
)

// Exchange names
const (
	ExchangeInventoryEvents = "inventory.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return uuid.New().String()
}

// MovementRecordedEvent is published when a stock movement is admitted
type MovementRecordedEvent struct {
	MovementID string  `json:"movement_id"`
	ItemID     string  `json:"item_id"`
	Type       string  `json:"type"`
	Quantity   int     `json:"quantity"`
	Balance    int     `json:"balance"`
	Reason     string  `json:"reason,omitempty"`
	Lot        string  `json:"lot,omitempty"`
	UserID     *string `json:"user_id,omitempty"`
}

// ItemChangedEvent is published on catalog mutations
type ItemChangedEvent struct {
	ItemID string `json:"item_id"`
	Name   string `json:"name"`
}

// LowStockAlertEvent is published when an item's balance drops below its threshold
type LowStockAlertEvent struct {
	ItemID   string `json:"item_id"`
	Name     string `json:"name"`
	Balance  int    `json:"balance"`
	Unit     string `json:"unit"`
	MinStock int    `json:"min_stock"`
}

// ExpiryAlertEvent is published for expired or soon-to-expire lots
type ExpiryAlertEvent struct {
	ItemID         string `json:"item_id"`
	MovementID     string `json:"movement_id"`
	Lot            string `json:"lot,omitempty"`
	ExpirationDate string `json:"expiration_date"`
	Status         string `json:"status"`
}
