// Copyright 2025 James Ross
package queue

import (
	"context"
	"testing"
	"time"

	"github.com/joltworks/go-brew-queue/internal/config"
	"github.com/joltworks/go-brew-queue/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		Menu: config.Menu{
			Milks:    []string{"Whole", "Oat", "Soy", "Almond", "No Milk"},
			Textures: []string{"Wet", "Dry", "Foamed"},
		},
		SearchDepth:    5,
		MaxBatchVolume: 5,
	}
}

type fakeStore struct {
	orders          []domain.Order
	completedDrinks []int64
	completedOrders []int
}

func (f *fakeStore) AddOrder(ctx context.Context, order domain.Order) error { return nil }
func (f *fakeStore) CompleteDrink(ctx context.Context, identifier int64, at time.Time) error {
	f.completedDrinks = append(f.completedDrinks, identifier)
	return nil
}
func (f *fakeStore) CompleteOrder(ctx context.Context, orderID int, at time.Time) error {
	f.completedOrders = append(f.completedOrders, orderID)
	return nil
}
func (f *fakeStore) GetQueue(ctx context.Context) ([]domain.Order, error) { return f.orders, nil }

func newTestEngine() *Engine {
	return NewEngine(testConfig(), nil, nil, zap.NewNop())
}

func drink(milk, texture string, volume float64) domain.Drink {
	return domain.Drink{Identifier: domain.NextDrinkID(), Milk: milk, Texture: texture, MilkVolume: volume}
}

func TestAddOrderSingleNoMilkDrink(t *testing.T) {
	e := newTestEngine()
	order := domain.NewOrder(1, "Jeff", time.Now(), time.Now(), []domain.Drink{
		{Name: "Double Espresso", Milk: domain.NoMilk, Shots: 2},
	})

	e.AddOrder(context.Background(), &order, false)

	snap := e.Snapshot()
	require.Len(t, snap.Orders, 1)
	assert.Equal(t, domain.ItemKindOrder, snap.Orders[0].Kind)
	assert.Equal(t, 1, snap.TotalDrinks)
}

func TestAddOrderInternalBatching(t *testing.T) {
	e := newTestEngine()
	order := domain.NewOrder(2, "Hannah", time.Now(), time.Now(), []domain.Drink{
		{Name: "Cappuccino", Milk: "Oat", Texture: "Dry", MilkVolume: 2},
		{Name: "Cappuccino", Milk: "Oat", Texture: "Dry", MilkVolume: 2},
		{Name: "Cappuccino", Milk: "Soy", Texture: "Dry", MilkVolume: 2},
	})

	e.AddOrder(context.Background(), &order, false)

	snap := e.Snapshot()
	require.Len(t, snap.Orders, 2)
	require.Equal(t, domain.ItemKindBatch, snap.Orders[0].Kind)
	assert.Equal(t, "Oat", snap.Orders[0].Batch.Milk)
	assert.Len(t, snap.Orders[0].Batch.Drinks, 2)
	require.Equal(t, domain.ItemKindOrder, snap.Orders[1].Kind)
	assert.Len(t, snap.Orders[1].Order.Drinks, 1)
	assert.Equal(t, "Soy", snap.Orders[1].Order.Drinks[0].Milk)
}

func TestAddOrderCrossOrderMerge(t *testing.T) {
	e := newTestEngine()
	adam := domain.NewOrder(1, "Adam", time.Now(), time.Now(), []domain.Drink{
		{Name: "Latte", Milk: "Whole", Texture: "Wet", MilkVolume: 2},
	})
	e.AddOrder(context.Background(), &adam, false)

	kayleigh := domain.NewOrder(2, "Kayleigh", time.Now(), time.Now(), []domain.Drink{
		{Name: "Flat White", Milk: "Whole", Texture: "Wet", MilkVolume: 1},
	})
	e.AddOrder(context.Background(), &kayleigh, false)

	snap := e.Snapshot()
	require.Len(t, snap.Orders, 1)
	require.Equal(t, domain.ItemKindBatch, snap.Orders[0].Kind)
	assert.Equal(t, 3.0, snap.Orders[0].Batch.Volume)
	assert.Len(t, snap.Orders[0].Batch.Drinks, 2)
}

func TestAddOrderCapacityRejection(t *testing.T) {
	e := newTestEngine()
	first := domain.NewOrder(1, "A", time.Now(), time.Now(), []domain.Drink{
		{Name: "Latte", Milk: "Whole", Texture: "Wet", MilkVolume: 2.25},
		{Name: "Latte", Milk: "Whole", Texture: "Wet", MilkVolume: 2.25},
	})
	e.AddOrder(context.Background(), &first, false)

	snap := e.Snapshot()
	require.Equal(t, domain.ItemKindBatch, snap.Orders[0].Kind)
	require.Equal(t, 4.5, snap.Orders[0].Batch.Volume)

	second := domain.NewOrder(2, "B", time.Now(), time.Now(), []domain.Drink{
		{Name: "Latte", Milk: "Whole", Texture: "Wet", MilkVolume: 1},
	})
	e.AddOrder(context.Background(), &second, false)

	snap = e.Snapshot()
	require.Len(t, snap.Orders, 2)
	assert.Equal(t, 4.5, snap.Orders[0].Batch.Volume, "existing batch must not exceed capacity")
	assert.Equal(t, domain.ItemKindOrder, snap.Orders[1].Kind)
}

func TestCompleteDrinksCascadesToOrderCompletion(t *testing.T) {
	e := newTestEngine()
	order := domain.NewOrder(1, "Jeff", time.Now(), time.Now(), []domain.Drink{
		{Name: "Espresso", Milk: domain.NoMilk, Shots: 2},
	})
	e.AddOrder(context.Background(), &order, false)
	id := order.Drinks[0].Identifier

	e.CompleteDrinks(context.Background(), []int64{id})

	snap := e.Snapshot()
	assert.Len(t, snap.Orders, 0)
	assert.Equal(t, 0, snap.TotalDrinks)
	assert.Equal(t, 1, e.CountCompletedOrders())

	completed := e.GetCompletedItems()
	require.Len(t, completed, 1)
	require.Len(t, completed[0].Drinks, 1)
	assert.NotNil(t, completed[0].Drinks[0].TimeComplete)
}

func TestCompleteDrinksIsIdempotent(t *testing.T) {
	e := newTestEngine()
	order := domain.NewOrder(1, "Jeff", time.Now(), time.Now(), []domain.Drink{
		{Name: "Espresso", Milk: domain.NoMilk, Shots: 2},
	})
	e.AddOrder(context.Background(), &order, false)
	id := order.Drinks[0].Identifier

	e.CompleteDrinks(context.Background(), []int64{id})
	before := e.CountCompletedOrders()
	e.CompleteDrinks(context.Background(), []int64{id})
	after := e.CountCompletedOrders()

	assert.Equal(t, before, after)
}

func TestCompleteItemCompletesWholeItem(t *testing.T) {
	e := newTestEngine()
	order := domain.NewOrder(1, "Hannah", time.Now(), time.Now(), []domain.Drink{
		{Name: "Cappuccino", Milk: "Oat", Texture: "Dry", MilkVolume: 2},
		{Name: "Cappuccino", Milk: "Oat", Texture: "Dry", MilkVolume: 2},
	})
	e.AddOrder(context.Background(), &order, false)

	e.CompleteItem(context.Background(), 0)

	snap := e.Snapshot()
	assert.Len(t, snap.Orders, 0)
	assert.Equal(t, 0, snap.TotalDrinks)
}

func TestReplayRebuildsLiveQueueAndCounters(t *testing.T) {
	store := &fakeStore{}
	now := time.Now()
	complete := now.Add(-time.Hour)

	store.orders = []domain.Order{
		{
			OrderID:      1,
			Customer:     "Jeff",
			TimeReceived: now.Add(-2 * time.Hour),
			TimeComplete: &complete,
			Drinks: []domain.Drink{
				{Identifier: 100, OrderID: 1, Milk: domain.NoMilk, TimeComplete: &complete},
			},
		},
		{
			OrderID:      2,
			Customer:     "Hannah",
			TimeReceived: now.Add(-time.Hour),
			Drinks: []domain.Drink{
				{Identifier: 101, OrderID: 2, Milk: "Oat", Texture: "Dry", MilkVolume: 2},
			},
		},
	}

	e := NewEngine(testConfig(), store, nil, zap.NewNop())
	require.NoError(t, e.Replay(context.Background()))

	snap := e.Snapshot()
	assert.Equal(t, 1, snap.TotalDrinks)
	assert.Equal(t, 1, e.CountCompletedOrders())

	completed := e.GetCompletedItems()
	require.Len(t, completed, 1)
	assert.Equal(t, 1, completed[0].OrderID)
}
