// Copyright 2025 James Ross
package domain

// Batch is a synthetic grouping of drinks that share a milk type and
// texture. MaxBatchVolume is enforced through CanAdd when a drink joins an
// existing batch; a batch built in one step from an order's group of drinks,
// or from an order's matching drinks plus a newly arrived one, is not checked
// against it.
type Batch struct {
	Drinks  []Drink `json:"drinks"`
	Milk    string  `json:"milk"`
	Texture string  `json:"texture"`
	Volume  float64 `json:"volume"`
}

// NewBatch returns an empty Batch ready to receive drinks of the given
// milk/texture.
func NewBatch(milk, texture string) *Batch {
	return &Batch{Milk: milk, Texture: texture}
}

// AddDrink appends a drink to the batch and accumulates its volume. It never
// rejects a drink and does not check the volume cap; CanAdd is that check.
func (b *Batch) AddDrink(d Drink) {
	if b.Milk == "" {
		b.Milk = d.Milk
	}
	if b.Texture == "" {
		b.Texture = d.Texture
	}
	b.Drinks = append(b.Drinks, d)
	b.Volume += d.MilkVolume
}

// CanAdd reports whether d shares this batch's milk/texture and fits under
// maxVolume without exceeding it: a total exactly equal to maxVolume is
// accepted.
func (b *Batch) CanAdd(d Drink, maxVolume float64) bool {
	return b.Milk == d.Milk && b.Texture == d.Texture && b.Volume+d.MilkVolume <= maxVolume
}

// LookupKey returns the "<milk>_<texture>" key this batch is indexed under.
func (b *Batch) LookupKey() string {
	return b.Milk + "_" + b.Texture
}

// Clone returns a deep copy safe to hand to callers outside the engine's lock.
func (b *Batch) Clone() *Batch {
	out := &Batch{Milk: b.Milk, Texture: b.Texture, Volume: b.Volume}
	out.Drinks = make([]Drink, len(b.Drinks))
	for i, d := range b.Drinks {
		out.Drinks[i] = d.Clone()
	}
	return out
}
