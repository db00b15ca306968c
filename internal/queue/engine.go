// Copyright 2025 James Ross
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/joltworks/go-brew-queue/internal/config"
	"github.com/joltworks/go-brew-queue/internal/domain"
	"github.com/joltworks/go-brew-queue/internal/obs"
	"go.uber.org/zap"
)

// Persistence is the durable mirror of orders and drinks (spec §4.5). The
// engine never depends on a concrete store, only this contract, so the
// SQLite adapter in internal/storage can be swapped for a test double.
type Persistence interface {
	AddOrder(ctx context.Context, order domain.Order) error
	CompleteDrink(ctx context.Context, identifier int64, at time.Time) error
	CompleteOrder(ctx context.Context, orderID int, at time.Time) error
	GetQueue(ctx context.Context) ([]domain.Order, error)
}

// Broadcaster pushes a post-mutation snapshot to connected UI clients
// (spec §6 WS /newOrder). A nil Broadcaster is valid; the engine simply
// skips the push.
type Broadcaster interface {
	Broadcast(Snapshot)
}

// Snapshot is the read-only view handed to persistence-free observers:
// HTTP handlers rendering GET /, and the websocket broadcaster.
type Snapshot struct {
	Orders      []domain.Item
	TotalOrders int
	TotalDrinks int
}

type historyEntry struct {
	drinkIDs map[int64]struct{}
	index    int
}

// Engine is the Queue Optimization Engine: the live sequence, its lookup
// index, order history, and counters, all guarded by a single mutex per
// the single cooperative event loop this system emulates (spec §5).
type Engine struct {
	mu sync.Mutex

	orders []domain.Item
	lookup *lookupIndex

	orderHistory      []domain.Order
	orderHistoryIndex map[int]*historyEntry

	totalOrders    int
	totalDrinks    int
	ordersComplete int
	drinksComplete int

	searchDepth    int
	maxBatchVolume float64

	persistence Persistence
	broadcaster Broadcaster
	log         *zap.Logger
}

func NewEngine(cfg *config.Config, persistence Persistence, broadcaster Broadcaster, log *zap.Logger) *Engine {
	return &Engine{
		lookup:            newLookupIndex(cfg.Menu.Milks, cfg.Menu.Textures),
		orderHistoryIndex: make(map[int]*historyEntry),
		searchDepth:       cfg.SearchDepth,
		maxBatchVolume:    cfg.MaxBatchVolume,
		persistence:       persistence,
		broadcaster:       broadcaster,
		log:               log,
	}
}

// AddOrder appends order to the live queue and runs the batching algorithm
// (spec §4.3). updatePersistence controls whether the order is written
// through to the Persistence Adapter; startup replay passes false.
func (e *Engine) AddOrder(ctx context.Context, order *domain.Order, updatePersistence bool) {
	persistCopy := order.Clone()

	e.mu.Lock()
	e.addOrderLocked(order)
	snap := e.snapshotLocked()

	if updatePersistence && e.persistence != nil {
		if err := e.persistence.AddOrder(ctx, persistCopy); err != nil {
			e.log.Error("persist order failed", obs.Int("orderID", persistCopy.OrderID), obs.Err(err))
		}
	}
	e.mu.Unlock()

	obs.OrdersReceived.Inc()
	obs.DrinksReceived.Add(float64(len(persistCopy.Drinks)))
	e.broadcast(snap)
}

func (e *Engine) addOrderLocked(order *domain.Order) {
	e.pushHistory(order)
	e.appendAndBatch(order)
}

// appendAndBatch pushes order onto the live sequence and runs the batching
// algorithm. It never touches orderHistory; callers that need a history
// entry call pushHistory separately (replay needs the full pre-strip order
// in history but only the stripped copy in the live queue).
func (e *Engine) appendAndBatch(order *domain.Order) {
	e.orders = append(e.orders, domain.NewOrderItem(order))
	p := len(e.orders) - 1

	e.totalOrders++
	e.totalDrinks += len(order.Drinks)

	searchDepth := p
	if len(order.Drinks) > 1 {
		searchDepth = e.searchDepth
		e.batchWithinOrder(order, &p)
	}
	e.mergeAcrossOrders(order, &p, searchDepth)
	e.cleanupLocked()
}

// pushHistory inserts a deep copy of order at the front of orderHistory and
// shifts every prior entry's recorded index by one (spec §4.6).
func (e *Engine) pushHistory(order *domain.Order) {
	entryCopy := order.Clone()
	e.orderHistory = append([]domain.Order{entryCopy}, e.orderHistory...)
	for _, entry := range e.orderHistoryIndex {
		entry.index++
	}
	ids := make(map[int64]struct{}, len(order.Drinks))
	for _, d := range order.Drinks {
		ids[d.Identifier] = struct{}{}
	}
	e.orderHistoryIndex[order.OrderID] = &historyEntry{drinkIDs: ids, index: 0}
}

// batchWithinOrder partitions order.Drinks by (milk, texture) and extracts
// every group of size >= 2 into its own Batch, inserted immediately in
// front of the order's current position (spec §4.3 step 2).
func (e *Engine) batchWithinOrder(order *domain.Order, p *int) {
	for _, group := range order.GroupDrinks() {
		if len(group) < 2 {
			continue
		}
		batch := domain.NewBatch("", "")
		for _, d := range group {
			batch.AddDrink(d)
		}
		removeDrinks(order, group)

		e.insertItem(domain.NewBatchItem(batch), *p)
		e.lookup.add(batch.LookupKey(), *p)
		*p++
		obs.BatchesFormed.Inc()
	}
}

// mergeAcrossOrders tries to place every remaining drink into a batch-
// compatible Item within [p-searchDepth, p), closest first (spec §4.3
// step 3).
func (e *Engine) mergeAcrossOrders(order *domain.Order, p *int, searchDepth int) {
	remaining := append([]domain.Drink(nil), order.Drinks...)
	for _, d := range remaining {
		if d.IsNoMilk() {
			continue
		}
		key := d.LookupKey()
		lo := *p - searchDepth
		placed := false

		for _, i := range e.lookup.candidates(key, lo, *p) {
			item := e.orders[i]
			switch item.Kind {
			case domain.ItemKindBatch:
				if item.Batch.CanAdd(d, e.maxBatchVolume) {
					item.Batch.AddDrink(d)
					removeDrink(order, d.Identifier)
					placed = true
				}
			case domain.ItemKindOrder:
				existing := item.Order
				var similar []domain.Drink
				for _, ed := range existing.Drinks {
					if ed.Milk == d.Milk && ed.Texture == d.Texture {
						similar = append(similar, ed)
					}
				}
				if len(similar) > 0 {
					batch := domain.NewBatch("", "")
					for _, sd := range similar {
						batch.AddDrink(sd)
					}
					batch.AddDrink(d)
					removeDrinks(existing, similar)
					removeDrink(order, d.Identifier)

					e.insertItem(domain.NewBatchItem(batch), i)
					e.lookup.add(key, i)
					*p++
					obs.BatchesFormed.Inc()
					placed = true
				}
			}
			if placed {
				break
			}
		}

		if !placed {
			e.lookup.add(key, *p)
		}
	}
}

// insertItem is the single routine allowed to splice the live sequence; it
// shifts the lookup index first so the two representations never disagree
// (spec §9 "Index consistency").
func (e *Engine) insertItem(it domain.Item, at int) {
	e.lookup.insertBefore(at)
	e.orders = append(e.orders, domain.Item{})
	copy(e.orders[at+1:], e.orders[at:])
	e.orders[at] = it
}

// removeItemAt is the matching routine for deletion: strip the position
// from the index, then splice it out of the sequence.
func (e *Engine) removeItemAt(at int) {
	e.lookup.removeAt(at)
	e.orders = append(e.orders[:at], e.orders[at+1:]...)
}

func removeDrink(order *domain.Order, identifier int64) {
	order.RemoveDrink(identifier)
}

func removeDrinks(order *domain.Order, drinks []domain.Drink) {
	drop := make(map[int64]struct{}, len(drinks))
	for _, d := range drinks {
		drop[d.Identifier] = struct{}{}
	}
	out := order.Drinks[:0]
	for _, d := range order.Drinks {
		if _, gone := drop[d.Identifier]; !gone {
			out = append(out, d)
		}
	}
	order.Drinks = out
}

// cleanupLocked drops every Item with no drinks left and recomputes
// totalOrders from the distinct orderIDs still live (spec §4.3 step 4).
// Must be called with e.mu held.
func (e *Engine) cleanupLocked() {
	i := 0
	for i < len(e.orders) {
		if len(e.orders[i].Drinks()) == 0 {
			e.removeItemAt(i)
			continue
		}
		i++
	}

	seen := map[int]struct{}{}
	for _, item := range e.orders {
		for _, d := range item.Drinks() {
			seen[d.OrderID] = struct{}{}
		}
	}
	e.totalOrders = len(seen)
}

// CompleteDrinks marks every drink in ids complete, cascading to orders
// whose every drink is now complete (spec §4.4). Unknown identifiers are
// silently ignored; calling twice with the same ids is idempotent.
func (e *Engine) CompleteDrinks(ctx context.Context, ids []int64) {
	e.completeAndPersist(ctx, func() []int64 { return ids })
}

// CompleteItem completes every drink held by the Item at index (spec §4.4).
// The index is resolved to drink identifiers under the same lock that
// performs the completion, so no other mutation can reorder the queue in
// between (spec §5 "no other mutation runs in this component" between a
// read and its mutation).
func (e *Engine) CompleteItem(ctx context.Context, index int) {
	e.completeAndPersist(ctx, func() []int64 {
		if index < 0 || index >= len(e.orders) {
			return nil
		}
		drinks := e.orders[index].Drinks()
		ids := make([]int64, len(drinks))
		for i, d := range drinks {
			ids[i] = d.Identifier
		}
		return ids
	})
}

// completeAndPersist resolves idsFn under the engine lock, applies the
// completion algorithm and persists the stamps while still holding it, then
// broadcasts after releasing it.
func (e *Engine) completeAndPersist(ctx context.Context, idsFn func() []int64) {
	now := time.Now()

	e.mu.Lock()
	ids := idsFn()
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	affectedOrders := map[int]struct{}{}
	completedCount := 0

	i := 0
	for i < len(e.orders) {
		item := e.orders[i]
		drinks := item.Drinks()
		keep := drinks[:0]
		for _, d := range drinks {
			if _, hit := want[d.Identifier]; hit {
				affectedOrders[d.OrderID] = struct{}{}
				completedCount++
				continue
			}
			keep = append(keep, d)
		}
		item.SetDrinks(keep)
		if len(keep) == 0 {
			e.removeItemAt(i)
			continue
		}
		i++
	}
	e.cleanupLocked()

	type stamp struct {
		identifier int64
		orderID    int
	}
	var drinkStamps []stamp
	var orderStamps []int

	for orderID := range affectedOrders {
		entry, ok := e.orderHistoryIndex[orderID]
		if !ok {
			continue
		}
		hist := &e.orderHistory[entry.index]
		allDone := true
		for i := range hist.Drinks {
			d := &hist.Drinks[i]
			if _, hit := want[d.Identifier]; hit {
				t := now
				d.TimeComplete = &t
				drinkStamps = append(drinkStamps, stamp{d.Identifier, orderID})
			}
			if d.TimeComplete == nil {
				allDone = false
			}
		}
		if allDone {
			t := now
			hist.TimeComplete = &t
			e.ordersComplete++
			orderStamps = append(orderStamps, orderID)
		}
	}

	e.totalDrinks -= completedCount
	e.drinksComplete += completedCount
	snap := e.snapshotLocked()

	if e.persistence != nil {
		for _, s := range drinkStamps {
			if err := e.persistence.CompleteDrink(ctx, s.identifier, now); err != nil {
				e.log.Error("persist drink completion failed", obs.Int("identifier", int(s.identifier)), obs.Err(err))
			}
		}
		for _, orderID := range orderStamps {
			if err := e.persistence.CompleteOrder(ctx, orderID, now); err != nil {
				e.log.Error("persist order completion failed", obs.Int("orderID", orderID), obs.Err(err))
			}
		}
	}
	e.mu.Unlock()

	obs.DrinksCompleted.Add(float64(completedCount))
	obs.OrdersCompleted.Add(float64(len(orderStamps)))
	e.broadcast(snap)
}

// GetCompletedItems returns, for each history entry with at least one
// completed drink, a copy projected to only those drinks (spec §4.6).
func (e *Engine) GetCompletedItems() []domain.Order {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []domain.Order
	for _, order := range e.orderHistory {
		var completed []domain.Drink
		for _, d := range order.Drinks {
			if d.TimeComplete != nil {
				completed = append(completed, d.Clone())
			}
		}
		if len(completed) == 0 {
			continue
		}
		projected := order.Clone()
		projected.Drinks = completed
		out = append(out, projected)
	}
	return out
}

// CountCompletedOrders reports the number of fully completed orders in history.
func (e *Engine) CountCompletedOrders() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ordersComplete
}

// Snapshot returns a deep copy of the live queue and its counters.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	items := make([]domain.Item, len(e.orders))
	for i, it := range e.orders {
		items[i] = it.Clone()
	}
	obs.QueueDepth.Set(float64(len(items)))
	obs.PendingDrinks.Set(float64(e.totalDrinks))
	return Snapshot{Orders: items, TotalOrders: e.totalOrders, TotalDrinks: e.totalDrinks}
}

func (e *Engine) broadcast(snap Snapshot) {
	if e.broadcaster == nil {
		return
	}
	e.broadcaster.Broadcast(snap)
}

// Replay loads today's persisted orders, oldest received first, and for
// each: records the full order (including already-completed drinks) in
// history, then, if it isn't fully complete, runs a copy stripped of
// completed drinks through the batching algorithm with persistence
// disabled (spec §6 "Startup replay"). Processing oldest-first and always
// prepending to history (pushHistory's normal behavior) leaves the newest
// order at index 0, same as the live-traffic path. A single broadcast
// follows replay so late-joining clients see the full rebuilt state (spec
// §9 "Broadcast consistency").
func (e *Engine) Replay(ctx context.Context) error {
	if e.persistence == nil {
		return nil
	}
	orders, err := e.persistence.GetQueue(ctx)
	if err != nil {
		return err
	}

	for _, order := range orders {
		full := order.Clone()

		e.mu.Lock()
		e.pushHistory(&full)

		if order.TimeComplete != nil {
			e.drinksComplete += len(order.Drinks)
			e.ordersComplete++
			e.mu.Unlock()
			continue
		}

		live := order.Clone()
		var pending []domain.Drink
		for _, d := range live.Drinks {
			if d.TimeComplete == nil {
				pending = append(pending, d)
			}
		}
		e.drinksComplete += len(live.Drinks) - len(pending)
		live.Drinks = pending

		e.appendAndBatch(&live)
		e.mu.Unlock()
	}

	e.broadcast(e.Snapshot())
	return nil
}
