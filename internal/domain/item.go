// Copyright 2025 James Ross
package domain

import "encoding/json"

// ItemKind discriminates the two variants an Item can hold. Spec §9's
// "Tagged-variant sequence" note asks for an explicit discriminant instead
// of ad-hoc type assertions scattered through the engine.
type ItemKind int

const (
	ItemKindOrder ItemKind = iota
	ItemKindBatch
)

// Item is a tagged union {Order, Batch}: an element of the live queue.
// Exactly one of Order/Batch is populated, matching Kind.
type Item struct {
	Kind  ItemKind
	Order *Order
	Batch *Batch
}

func NewOrderItem(o *Order) Item { return Item{Kind: ItemKindOrder, Order: o} }
func NewBatchItem(b *Batch) Item { return Item{Kind: ItemKindBatch, Batch: b} }

// Drinks returns the underlying variant's drink list, so callers that only
// need the drinks do not branch on Kind themselves.
func (it Item) Drinks() []Drink {
	switch it.Kind {
	case ItemKindOrder:
		return it.Order.Drinks
	case ItemKindBatch:
		return it.Batch.Drinks
	default:
		return nil
	}
}

// SetDrinks replaces the underlying variant's drink list.
func (it Item) SetDrinks(drinks []Drink) {
	switch it.Kind {
	case ItemKindOrder:
		it.Order.Drinks = drinks
	case ItemKindBatch:
		it.Batch.Drinks = drinks
	}
}

// IsEmpty reports whether the Item has no drinks left, the signal used by
// cleanup to drop it from the live queue (spec §4.3 step 4).
func (it Item) IsEmpty() bool {
	return len(it.Drinks()) == 0
}

// OrderID returns the owning orderID for an Order item, or 0 for a Batch
// (Batches carry no orderID of their own, spec §3).
func (it Item) OrderID() int {
	if it.Kind == ItemKindOrder && it.Order != nil {
		return it.Order.OrderID
	}
	return 0
}

// Clone returns a deep copy safe to hand to callers outside the engine's lock.
func (it Item) Clone() Item {
	switch it.Kind {
	case ItemKindOrder:
		clone := it.Order.Clone()
		return NewOrderItem(&clone)
	case ItemKindBatch:
		return NewBatchItem(it.Batch.Clone())
	default:
		return Item{}
	}
}

// itemWire is the serialized shape sent to UI clients over /newOrder and
// rendered by GET /.
type itemWire struct {
	Type         string     `json:"type"`
	OrderID      int        `json:"orderID,omitempty"`
	Customer     string     `json:"customer,omitempty"`
	DateReceived *string    `json:"dateReceived,omitempty"`
	TimeReceived *string    `json:"timeReceived,omitempty"`
	TimeComplete *string    `json:"timeComplete,omitempty"`
	Milk         string     `json:"milk,omitempty"`
	Texture      string     `json:"texture,omitempty"`
	Volume       *float64   `json:"volume,omitempty"`
	Drinks       []Drink    `json:"drinks"`
}

const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"

func (it Item) MarshalJSON() ([]byte, error) {
	switch it.Kind {
	case ItemKindOrder:
		o := it.Order
		date := o.DateReceived.Format("2006-01-02")
		received := o.TimeReceived.Format(timeLayout)
		w := itemWire{
			Type:         "order",
			OrderID:      o.OrderID,
			Customer:     o.Customer,
			DateReceived: &date,
			TimeReceived: &received,
			Drinks:       o.Drinks,
		}
		if o.TimeComplete != nil {
			s := o.TimeComplete.Format(timeLayout)
			w.TimeComplete = &s
		}
		return json.Marshal(w)
	case ItemKindBatch:
		b := it.Batch
		vol := b.Volume
		w := itemWire{
			Type:    "batch",
			Milk:    b.Milk,
			Texture: b.Texture,
			Volume:  &vol,
			Drinks:  b.Drinks,
		}
		return json.Marshal(w)
	default:
		return []byte("null"), nil
	}
}
