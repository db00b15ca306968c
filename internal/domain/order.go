// Copyright 2025 James Ross
package domain

import "time"

// Order is a customer's submission: one or more Drinks received together.
type Order struct {
	OrderID      int        `json:"orderID"`
	Customer     string     `json:"customer"`
	DateReceived time.Time  `json:"dateReceived"`
	TimeReceived time.Time  `json:"timeReceived"`
	TimeComplete *time.Time `json:"timeComplete,omitempty"`
	Drinks       []Drink    `json:"drinks"`
}

// NewOrder builds an Order and applies the construction rule from spec §3:
// any drink missing customer, orderID, or timeReceived inherits them from
// the order. Inheritance happens once, here, rather than through a
// back-reference from Drink to Order (spec §9 "Cyclic references").
func NewOrder(orderID int, customer string, dateReceived, timeReceived time.Time, drinks []Drink) Order {
	out := make([]Drink, len(drinks))
	for i, d := range drinks {
		if d.Customer == "" {
			d.Customer = customer
		}
		if d.OrderID == 0 {
			d.OrderID = orderID
		}
		if d.TimeReceived.IsZero() {
			d.TimeReceived = timeReceived
		}
		if d.Identifier == 0 {
			d.Identifier = NextDrinkID()
		}
		out[i] = d
	}
	return Order{
		OrderID:      orderID,
		Customer:     customer,
		DateReceived: dateReceived,
		TimeReceived: timeReceived,
		Drinks:       out,
	}
}

// GroupDrinks partitions the order's drinks by (milk, texture), skipping
// "No Milk" drinks, preserving first-seen order of each group and of drinks
// within a group. Mirrors the original's group_drinks.
func (o Order) GroupDrinks() [][]Drink {
	var keys []string
	groups := map[string][]Drink{}
	for _, d := range o.Drinks {
		if d.IsNoMilk() {
			continue
		}
		key := d.LookupKey()
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], d)
	}
	out := make([][]Drink, 0, len(keys))
	for _, k := range keys {
		out = append(out, groups[k])
	}
	return out
}

// RemoveDrink removes the drink with the given identifier from the order in
// place, leaving every other drink's relative order intact.
func (o *Order) RemoveDrink(identifier int64) {
	out := o.Drinks[:0]
	for _, d := range o.Drinks {
		if d.Identifier != identifier {
			out = append(out, d)
		}
	}
	o.Drinks = out
}

// Clone returns a deep copy safe to hand to callers outside the engine's lock.
func (o Order) Clone() Order {
	out := o
	out.Drinks = make([]Drink, len(o.Drinks))
	for i, d := range o.Drinks {
		out.Drinks[i] = d.Clone()
	}
	if o.TimeComplete != nil {
		t := *o.TimeComplete
		out.TimeComplete = &t
	}
	return out
}

// AllComplete reports whether every drink in the order has a TimeComplete.
func (o Order) AllComplete() bool {
	if len(o.Drinks) == 0 {
		return false
	}
	for _, d := range o.Drinks {
		if d.TimeComplete == nil {
			return false
		}
	}
	return true
}
