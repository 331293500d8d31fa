package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/inventory/pkg/config"
	"github.com/ghuser/inventory/pkg/events"
	"github.com/ghuser/inventory/pkg/logger"
	"github.com/ghuser/inventory/pkg/telemetry"
	"github.com/ghuser/inventory/services/inventory/domain"
	domainevents "github.com/ghuser/inventory/services/inventory/domain/events"
	"github.com/ghuser/inventory/services/inventory/domain/models"
)

func input(name, category string, qty int) models.CreateItemInput {
	return models.CreateItemInput{Name: name, Category: category, Quantity: models.Quantity(qty)}
}

func seed(t *testing.T, m *ItemManager, ins ...models.CreateItemInput) {
	t.Helper()
	for _, in := range ins {
		_, err := m.Create(context.Background(), in)
		require.NoError(t, err, "seed %q", in.Name)
	}
}

func names(items []models.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func TestItemManager_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("valid input is appended", func(t *testing.T) {
		m := NewItemManager()
		item, err := m.Create(ctx, input("soccer ball", "sports", 5))
		require.NoError(t, err)

		assert.Equal(t, models.Item{SKU: "SOBSP", Name: "soccer ball", Category: "sports", Quantity: 5}, item)
		assert.Equal(t, 1, m.Len())
		assert.Equal(t, []models.Item{item}, m.Items())
	})

	t.Run("invalid input leaves the inventory unchanged", func(t *testing.T) {
		m := NewItemManager()
		seed(t, m, input("football", "sports", 3))

		cases := []models.CreateItemInput{
			input("ball", "sports", 1),
			input("basket ball", "", 1),
			input("basket ball", "team sports", 1),
			{Name: "basket ball", Category: "sports"},
		}
		for _, in := range cases {
			_, err := m.Create(ctx, in)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidItem)

			var verr *domain.ValidationError
			assert.True(t, errors.As(err, &verr))
		}
		assert.Equal(t, 1, m.Len())
	})

	t.Run("zero quantity is accepted", func(t *testing.T) {
		m := NewItemManager()
		_, err := m.Create(ctx, input("basket ball", "sports", 0))
		require.NoError(t, err)
		assert.Equal(t, 1, m.Len())
	})

	t.Run("arrival order is kept", func(t *testing.T) {
		m := NewItemManager()
		seed(t, m,
			input("basket ball", "sports", 0),
			input("soccer ball", "sports", 5),
			input("football", "sports", 3),
		)
		assert.Equal(t, []string{"basket ball", "soccer ball", "football"}, names(m.Items()))
	})
}

func TestItemManager_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown SKU returns false", func(t *testing.T) {
		m := NewItemManager()
		seed(t, m, input("football", "sports", 3))

		ok := m.Update(ctx, "NOPE1", models.ItemPatch{Quantity: models.Quantity(9)})
		assert.False(t, ok)

		item, found := m.Find("FOOSP")
		require.True(t, found)
		assert.Equal(t, 3, item.Quantity)
	})

	t.Run("lookup is an exact match", func(t *testing.T) {
		m := NewItemManager()
		seed(t, m, input("football", "sports", 3))

		assert.False(t, m.Update(ctx, "foosp", models.ItemPatch{Quantity: models.Quantity(9)}))
	})

	t.Run("quantity to zero drops the item from stock", func(t *testing.T) {
		m := NewItemManager()
		seed(t, m,
			input("soccer ball", "sports", 5),
			input("football", "sports", 3),
		)

		require.True(t, m.Update(ctx, "SOBSP", models.ItemPatch{Quantity: models.Quantity(0)}))

		assert.Equal(t, []string{"football"}, names(m.InStock()))
		assert.Equal(t, 2, m.Len())
	})

	t.Run("unknown patch keys are ignored", func(t *testing.T) {
		m := NewItemManager()
		seed(t, m, input("football", "sports", 3))

		patch, err := models.ParsePatch([]byte(`{"quantity": 7, "colour": "red", "price": 12}`))
		require.NoError(t, err)
		require.True(t, m.Update(ctx, "FOOSP", patch))

		item, found := m.Find("FOOSP")
		require.True(t, found)
		assert.Equal(t, models.Item{SKU: "FOOSP", Name: "football", Category: "sports", Quantity: 7}, item)
	})

	t.Run("empty patch on a known SKU reports true", func(t *testing.T) {
		m := NewItemManager()
		seed(t, m, input("football", "sports", 3))

		assert.True(t, m.Update(ctx, "FOOSP", models.ItemPatch{}))
	})

	t.Run("only the first duplicate is updated", func(t *testing.T) {
		m := NewItemManager()
		seed(t, m,
			input("football", "sports", 3),
			input("football", "sports", 4),
		)

		require.True(t, m.Update(ctx, "FOOSP", models.ItemPatch{Quantity: models.Quantity(1)}))

		items := m.Items()
		assert.Equal(t, 1, items[0].Quantity)
		assert.Equal(t, 4, items[1].Quantity)
	})

	t.Run("returned copies are detached", func(t *testing.T) {
		m := NewItemManager()
		seed(t, m, input("football", "sports", 3))

		items := m.Items()
		items[0].Quantity = 100

		item, _ := m.Find("FOOSP")
		assert.Equal(t, 3, item.Quantity)
	})
}

func TestItemManager_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown SKU returns false", func(t *testing.T) {
		m := NewItemManager()
		seed(t, m, input("football", "sports", 3))

		assert.False(t, m.Delete(ctx, "NOPE1"))
		assert.Equal(t, 1, m.Len())
	})

	t.Run("removes only the first duplicate", func(t *testing.T) {
		m := NewItemManager()
		seed(t, m,
			input("football", "sports", 3),
			input("kitchen pot", "cooking", 2),
			input("football", "sports", 4),
		)

		require.True(t, m.Delete(ctx, "FOOSP"))

		items := m.Items()
		require.Len(t, items, 2)
		assert.Equal(t, "kitchen pot", items[0].Name)
		assert.Equal(t, 4, items[1].Quantity)

		require.True(t, m.Delete(ctx, "FOOSP"))
		assert.False(t, m.Delete(ctx, "FOOSP"))
		assert.Equal(t, 1, m.Len())
	})
}

func TestItemManager_Queries(t *testing.T) {
	m := NewItemManager()
	seed(t, m,
		input("basket ball", "sports", 0),
		input("kitchen pot", "cooking", 2),
		input("soccer ball", "sports", 5),
		input("football", "sports", 3),
	)

	assert.Equal(t, []string{"kitchen pot", "soccer ball", "football"}, names(m.InStock()))
	assert.Equal(t, []string{"basket ball", "soccer ball", "football"}, names(m.ItemsInCategory("sports")))
	assert.Empty(t, m.ItemsInCategory("Sports"))
	assert.Empty(t, m.ItemsInCategory("garden"))

	item, ok := m.Find("KIPCO")
	require.True(t, ok)
	assert.Equal(t, "kitchen pot", item.Name)

	_, ok = m.Find("XXXXX")
	assert.False(t, ok)
}

func TestItemManager_Ref(t *testing.T) {
	ctx := context.Background()
	m := NewItemManager()
	seed(t, m, input("football", "sports", 3))

	ref, ok := m.Ref("FOOSP")
	require.True(t, ok)

	newSKU := models.SKU("FBALL")
	require.True(t, m.Update(ctx, "FOOSP", models.ItemPatch{SKU: &newSKU}))

	item, ok := ref.Get()
	require.True(t, ok)
	assert.Equal(t, newSKU, item.SKU)

	require.True(t, m.Delete(ctx, newSKU))
	_, ok = ref.Get()
	assert.False(t, ok)

	_, ok = m.Ref("FOOSP")
	assert.False(t, ok)
}

func TestItemManager_ConcurrentCreates(t *testing.T) {
	m := NewItemManager()

	const workers = 16
	const perWorker = 25

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWorker {
				_, err := m.Create(context.Background(), input(fmt.Sprintf("widget %02d %02d", w, i), "parts", i))
				assert.NoError(t, err)
				_ = m.InStock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*perWorker, m.Len())
}

func TestItemManager_PublishesEvents(t *testing.T) {
	bus := events.NewEventBus(logger.Nop(), 16)
	defer bus.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *message.Message, 8)
	forward := func(_ context.Context, msg *message.Message) error {
		received <- msg
		return nil
	}
	for _, topic := range []string{
		domainevents.TopicItemCreated,
		domainevents.TopicItemUpdated,
		domainevents.TopicItemDeleted,
	} {
		_, err := bus.Subscribe(ctx, topic, forward)
		require.NoError(t, err)
	}

	m := NewItemManager(WithName("warehouse"), WithPublisher(bus))

	next := func() *message.Message {
		t.Helper()
		select {
		case msg := <-received:
			return msg
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for event")
			return nil
		}
	}

	_, err := m.Create(ctx, input("football", "sports", 3))
	require.NoError(t, err)

	msg := next()
	assert.Equal(t, "warehouse", msg.Metadata.Get("inventory"))
	var created domainevents.ItemCreatedEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &created))
	assert.Equal(t, domainevents.EventVersion, created.Version)
	assert.Equal(t, "warehouse", created.Inventory)
	assert.Equal(t, models.SKU("FOOSP"), created.Item.SKU)

	require.True(t, m.Update(ctx, "FOOSP", models.ItemPatch{Quantity: models.Quantity(0)}))

	var updated domainevents.ItemUpdatedEvent
	require.NoError(t, json.Unmarshal(next().Payload, &updated))
	assert.Equal(t, []string{models.FieldQuantity}, updated.ChangedFields)
	assert.Equal(t, 0, updated.Item.Quantity)

	require.True(t, m.Delete(ctx, "FOOSP"))

	var deleted domainevents.ItemDeletedEvent
	require.NoError(t, json.Unmarshal(next().Payload, &deleted))
	assert.Equal(t, "football", deleted.Item.Name)
}

func TestItemManager_RejectedCreatePublishesNothing(t *testing.T) {
	pub := &recordingPublisher{}
	m := NewItemManager(WithPublisher(pub))

	_, err := m.Create(context.Background(), input("ball", "sports", 1))
	require.Error(t, err)
	assert.False(t, m.Update(context.Background(), "NOPE1", models.ItemPatch{Quantity: models.Quantity(1)}))
	assert.False(t, m.Delete(context.Background(), "NOPE1"))

	assert.Empty(t, pub.topics)
}

func TestItemManager_PublishFailureKeepsChange(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("bus closed")}
	m := NewItemManager(WithPublisher(pub))

	_, err := m.Create(context.Background(), input("football", "sports", 3))
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, []string{domainevents.TopicItemCreated}, pub.topics)
}

func TestItemManager_RecordsMetrics(t *testing.T) {
	ctx := context.Background()
	shutdown, reg, err := telemetry.Setup(ctx, &config.Config{
		ServiceName:    "inventory-test",
		ServiceVersion: "test",
		Environment:    config.EnvTesting,
	})
	require.NoError(t, err)
	defer shutdown(ctx) //nolint:errcheck

	m := NewItemManager(WithName("metrics"))
	seed(t, m, input("football", "sports", 3))
	_, err = m.Create(ctx, input("ball", "sports", 1))
	require.Error(t, err)
	require.True(t, m.Delete(ctx, "FOOSP"))

	var buf bytes.Buffer
	require.NoError(t, telemetry.WriteMetrics(&buf, reg))

	out := buf.String()
	assert.Contains(t, out, "inventory_items_created")
	assert.Contains(t, out, "inventory_items_rejected")
	assert.Contains(t, out, "inventory_items_deleted")
	assert.Contains(t, out, `inventory="metrics"`)
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return p.err
}
