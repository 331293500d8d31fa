package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/inventory/services/inventory/domain/models"
)

// Topics published by the item manager.
const (
	TopicItemCreated = "inventory.item.created"
	TopicItemUpdated = "inventory.item.updated"
	TopicItemDeleted = "inventory.item.deleted"
)

// EventVersion is the schema version of every payload in this package.
const EventVersion = 1

// ItemCreatedEvent is published after a new Item is appended to an inventory.
type ItemCreatedEvent struct {
	EventID    uuid.UUID   `json:"event_id"` // Unique publish-time identifier for deduplication
	Version    int         `json:"version"`
	Inventory  string      `json:"inventory"`
	Item       models.Item `json:"item"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// ItemUpdatedEvent is published after an update changed at least one field.
// Item holds the state after the update; SKU is the key it was looked up by.
type ItemUpdatedEvent struct {
	EventID       uuid.UUID   `json:"event_id"`
	Version       int         `json:"version"`
	Inventory     string      `json:"inventory"`
	SKU           models.SKU  `json:"sku"`
	ChangedFields []string    `json:"changed_fields"`
	Item          models.Item `json:"item"`
	OccurredAt    time.Time   `json:"occurred_at"`
}

// ItemDeletedEvent is published after an Item is removed from an inventory.
type ItemDeletedEvent struct {
	EventID    uuid.UUID   `json:"event_id"`
	Version    int         `json:"version"`
	Inventory  string      `json:"inventory"`
	Item       models.Item `json:"item"`
	OccurredAt time.Time   `json:"occurred_at"`
}
