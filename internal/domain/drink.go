// Copyright 2025 James Ross
package domain

import (
	"sync/atomic"
	"time"
)

// NoMilk is the distinguished milk value meaning the drink takes no milk at
// all; such drinks are never indexed or batched (spec §3, §4.2).
const NoMilk = "No Milk"

var drinkIDCounter atomic.Int64

// NextDrinkID returns a process-wide, monotonically increasing drink
// identifier. The original implementation derived identity from Python
// object addresses; that's an ambient-state hazard with no Go equivalent,
// and the wire format (selectedDrinkIDs as a JSON array of integers) rules
// out a UUID. An atomic counter gives the same "stable for the drink's
// lifetime" guarantee spec §3 asks for.
func NextDrinkID() int64 {
	return drinkIDCounter.Add(1)
}

// Drink is a single beverage moving through the queue.
type Drink struct {
	Identifier   int64      `json:"identifier"`
	OrderID      int        `json:"orderID"`
	Customer     string     `json:"customer"`
	Name         string     `json:"drink"`
	Milk         string     `json:"milk,omitempty"`
	MilkVolume   float64    `json:"milk_volume"`
	Shots        int        `json:"shots"`
	Temperature  string     `json:"temperature,omitempty"`
	Texture      string     `json:"texture,omitempty"`
	Options      []string   `json:"options"`
	TimeReceived time.Time  `json:"timeReceived"`
	TimeComplete *time.Time `json:"timeComplete,omitempty"`
}

// IsNoMilk reports whether the drink takes no milk, and therefore must never
// be batched or indexed (spec §4.2).
func (d Drink) IsNoMilk() bool {
	return d.Milk == "" || d.Milk == NoMilk
}

// LookupKey returns the "<milk>_<texture>" key this drink batches under.
// Callers must check IsNoMilk first; a no-milk drink has no meaningful key.
func (d Drink) LookupKey() string {
	return d.Milk + "_" + d.Texture
}

// Equal compares every attribute, including identifier, per spec §3.
func (d Drink) Equal(o Drink) bool {
	if d.Identifier != o.Identifier ||
		d.OrderID != o.OrderID ||
		d.Customer != o.Customer ||
		d.Name != o.Name ||
		d.Milk != o.Milk ||
		d.MilkVolume != o.MilkVolume ||
		d.Shots != o.Shots ||
		d.Temperature != o.Temperature ||
		d.Texture != o.Texture ||
		!d.TimeReceived.Equal(o.TimeReceived) {
		return false
	}
	if len(d.Options) != len(o.Options) {
		return false
	}
	for i := range d.Options {
		if d.Options[i] != o.Options[i] {
			return false
		}
	}
	switch {
	case d.TimeComplete == nil && o.TimeComplete == nil:
		return true
	case d.TimeComplete == nil || o.TimeComplete == nil:
		return false
	default:
		return d.TimeComplete.Equal(*o.TimeComplete)
	}
}

// Clone returns a deep copy safe to hand to callers outside the engine's lock.
func (d Drink) Clone() Drink {
	out := d
	if d.Options != nil {
		out.Options = append([]string(nil), d.Options...)
	}
	if d.TimeComplete != nil {
		t := *d.TimeComplete
		out.TimeComplete = &t
	}
	return out
}
