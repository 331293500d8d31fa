package services

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	pkgevents "github.com/ghuser/inventory/pkg/events"
	"github.com/ghuser/inventory/pkg/logger"
	domainevents "github.com/ghuser/inventory/services/inventory/domain/events"
	"github.com/ghuser/inventory/services/inventory/domain/models"
	domainsvcs "github.com/ghuser/inventory/services/inventory/domain/services"
)

const instrumentationName = "github.com/ghuser/inventory/services/inventory"

// ItemManager owns one inventory's items. Items are kept in arrival order and
// every lookup resolves to the first matching SKU. Callers only ever receive
// copies; the backing slice never leaves the manager.
//
// All methods are safe for concurrent use. Events are published after the
// lock is released.
type ItemManager struct {
	mu    sync.RWMutex
	items []*models.Item

	name    string
	factory *domainsvcs.ItemFactory
	log     logger.Logger
	bus     pkgevents.Publisher
	tracer  trace.Tracer
	metrics managerMetrics
	attrs   metric.MeasurementOption
}

// ManagerOption configures an ItemManager.
type ManagerOption func(*ItemManager)

// WithName labels the inventory in logs, spans, metrics and events.
func WithName(name string) ManagerOption {
	return func(m *ItemManager) { m.name = name }
}

// WithLogger sets the manager's logger. Defaults to a discarding logger.
func WithLogger(log logger.Logger) ManagerOption {
	return func(m *ItemManager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithPublisher makes the manager publish item events to p.
func WithPublisher(p pkgevents.Publisher) ManagerOption {
	return func(m *ItemManager) { m.bus = p }
}

// WithFactory replaces the default ItemFactory.
func WithFactory(f *domainsvcs.ItemFactory) ManagerOption {
	return func(m *ItemManager) { m.factory = f }
}

// NewItemManager returns an empty inventory.
func NewItemManager(opts ...ManagerOption) *ItemManager {
	m := &ItemManager{
		name:    "main",
		factory: domainsvcs.NewItemFactory(),
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With("inventory", m.name)
	m.tracer = otel.Tracer(instrumentationName)
	m.metrics = newManagerMetrics(otel.Meter(instrumentationName), m.log)
	m.attrs = metric.WithAttributes(attribute.String("inventory", m.name))
	return m
}

// Create validates the input and appends the resulting Item. Invalid input
// leaves the inventory unchanged and returns a *domain.ValidationError.
func (m *ItemManager) Create(ctx context.Context, in models.CreateItemInput) (models.Item, error) {
	ctx, span := m.tracer.Start(ctx, "ItemManager.Create")
	defer span.End()

	item, err := m.factory.Create(in)
	if err != nil {
		span.SetStatus(codes.Error, "invalid item")
		m.metrics.rejected.Add(ctx, 1, m.attrs)
		m.log.InfoContext(ctx, "item rejected", "name", in.Name, "category", in.Category, "error", err)
		return models.Item{}, err
	}

	stored := item
	m.mu.Lock()
	m.items = append(m.items, &stored)
	m.mu.Unlock()

	span.SetAttributes(attribute.String("sku", item.SKU.String()))
	m.metrics.created.Add(ctx, 1, m.attrs)
	m.metrics.stored.Add(ctx, 1, m.attrs)
	m.log.DebugContext(ctx, "item created", "sku", item.SKU, "name", item.Name)

	m.publish(ctx, domainevents.TopicItemCreated, domainevents.ItemCreatedEvent{
		EventID:    uuid.New(),
		Version:    domainevents.EventVersion,
		Inventory:  m.name,
		Item:       item,
		OccurredAt: time.Now().UTC(),
	})
	return item, nil
}

// Update overwrites the fields set in patch on the first item with the given
// SKU. It returns false, changing nothing, when no item matches.
func (m *ItemManager) Update(ctx context.Context, sku models.SKU, patch models.ItemPatch) bool {
	ctx, span := m.tracer.Start(ctx, "ItemManager.Update", trace.WithAttributes(attribute.String("sku", sku.String())))
	defer span.End()

	m.mu.Lock()
	i := m.indexOf(sku)
	if i < 0 {
		m.mu.Unlock()
		m.log.DebugContext(ctx, "update skipped, sku not found", "sku", sku)
		return false
	}
	changed := patch.Apply(m.items[i])
	updated := *m.items[i]
	m.mu.Unlock()

	if len(changed) == 0 {
		return true
	}

	m.metrics.updated.Add(ctx, 1, m.attrs)
	m.log.DebugContext(ctx, "item updated", "sku", sku, "fields", changed)

	m.publish(ctx, domainevents.TopicItemUpdated, domainevents.ItemUpdatedEvent{
		EventID:       uuid.New(),
		Version:       domainevents.EventVersion,
		Inventory:     m.name,
		SKU:           sku,
		ChangedFields: changed,
		Item:          updated,
		OccurredAt:    time.Now().UTC(),
	})
	return true
}

// Delete removes the first item with the given SKU. Later items sharing the
// SKU stay. It reports whether an item was removed.
func (m *ItemManager) Delete(ctx context.Context, sku models.SKU) bool {
	ctx, span := m.tracer.Start(ctx, "ItemManager.Delete", trace.WithAttributes(attribute.String("sku", sku.String())))
	defer span.End()

	m.mu.Lock()
	i := m.indexOf(sku)
	if i < 0 {
		m.mu.Unlock()
		return false
	}
	removed := *m.items[i]
	m.items = slices.Delete(m.items, i, i+1)
	m.mu.Unlock()

	m.metrics.deleted.Add(ctx, 1, m.attrs)
	m.metrics.stored.Add(ctx, -1, m.attrs)
	m.log.DebugContext(ctx, "item deleted", "sku", sku)

	m.publish(ctx, domainevents.TopicItemDeleted, domainevents.ItemDeletedEvent{
		EventID:    uuid.New(),
		Version:    domainevents.EventVersion,
		Inventory:  m.name,
		Item:       removed,
		OccurredAt: time.Now().UTC(),
	})
	return true
}

// Items returns every item in arrival order.
func (m *ItemManager) Items() []models.Item {
	return m.filter(func(*models.Item) bool { return true })
}

// InStock returns the items with a quantity above zero, in arrival order.
func (m *ItemManager) InStock() []models.Item {
	return m.filter(func(it *models.Item) bool { return it.Quantity > 0 })
}

// ItemsInCategory returns the items whose category equals category exactly.
func (m *ItemManager) ItemsInCategory(category string) []models.Item {
	return m.filter(func(it *models.Item) bool { return it.Category == category })
}

// Find returns the first item with the given SKU.
func (m *ItemManager) Find(sku models.SKU) (models.Item, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if i := m.indexOf(sku); i >= 0 {
		return *m.items[i], true
	}
	return models.Item{}, false
}

// Len returns the number of items in the inventory.
func (m *ItemManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Ref returns a live handle on the first item with the given SKU. The handle
// keeps following that record through later updates, even ones that change
// its SKU.
func (m *ItemManager) Ref(sku models.SKU) (*ItemRef, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.indexOf(sku)
	if i < 0 {
		return nil, false
	}
	return &ItemRef{m: m, item: m.items[i]}, true
}

func (m *ItemManager) filter(keep func(*models.Item) bool) []models.Item {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Item, 0, len(m.items))
	for _, it := range m.items {
		if keep(it) {
			out = append(out, *it)
		}
	}
	return out
}

// indexOf returns the position of the first item with sku, or -1.
// Callers hold m.mu.
func (m *ItemManager) indexOf(sku models.SKU) int {
	for i, it := range m.items {
		if it.SKU == sku {
			return i
		}
	}
	return -1
}

func (m *ItemManager) contains(item *models.Item) bool {
	for _, it := range m.items {
		if it == item {
			return true
		}
	}
	return false
}

func (m *ItemManager) publish(ctx context.Context, topic string, payload any) {
	if m.bus == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		m.log.ErrorContext(ctx, "marshal event", "topic", topic, "error", err)
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("event_version", "1")
	msg.Metadata.Set("inventory", m.name)
	if err := m.bus.Publish(ctx, topic, msg); err != nil {
		// Events are advisory; the inventory change already happened.
		m.log.WarnContext(ctx, "publish event failed", "topic", topic, "error", err)
	}
}

// ItemRef is a read-only handle on one stored item.
type ItemRef struct {
	m    *ItemManager
	item *models.Item
}

// Get returns the current state of the referenced item, or false once it has
// been deleted.
func (r *ItemRef) Get() (models.Item, bool) {
	if r == nil || r.m == nil {
		return models.Item{}, false
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	if !r.m.contains(r.item) {
		return models.Item{}, false
	}
	return *r.item, true
}
