// Copyright 2025 James Ross
package queue

import "sort"

// lookupIndex maps "<milk>_<texture>" to the set of live-queue positions
// holding un-batched drinks (or a Batch) of that key. It is pre-populated
// at construction with every milk×texture combination from configuration,
// per spec §4.2, so a missing key is never a valid state once built.
//
// All mutation goes through add/removeAt/insertBefore: no other code in
// this package is allowed to touch the underlying maps directly (spec §9
// "Index consistency").
type lookupIndex struct {
	positions map[string]map[int]struct{}
}

func newLookupIndex(milks, textures []string) *lookupIndex {
	idx := &lookupIndex{positions: make(map[string]map[int]struct{})}
	for _, m := range milks {
		for _, t := range textures {
			idx.positions[m+"_"+t] = make(map[int]struct{})
		}
	}
	return idx
}

// add records that key k now has a live presence at position p. Missing
// keys are silently ignored, mirroring the source's try/except KeyError:
// a menu key not present in configuration simply isn't tracked.
func (idx *lookupIndex) add(key string, p int) {
	set, ok := idx.positions[key]
	if !ok {
		return
	}
	set[p] = struct{}{}
}

// removeAt strips position r from every key's set and decrements every
// position greater than r by one, reflecting a live-queue deletion at r
// (spec §4.2).
func (idx *lookupIndex) removeAt(r int) {
	for key, set := range idx.positions {
		if len(set) == 0 {
			continue
		}
		shifted := make(map[int]struct{}, len(set))
		for p := range set {
			switch {
			case p == r:
				continue
			case p > r:
				shifted[p-1] = struct{}{}
			default:
				shifted[p] = struct{}{}
			}
		}
		idx.positions[key] = shifted
	}
}

// insertBefore increments every recorded position >= at by one, making
// room for a new Item inserted at that index (spec §4.2's insertion rule).
// It does not itself record the new Item; callers call add afterward.
func (idx *lookupIndex) insertBefore(at int) {
	for key, set := range idx.positions {
		if len(set) == 0 {
			continue
		}
		shifted := make(map[int]struct{}, len(set))
		for p := range set {
			if p >= at {
				shifted[p+1] = struct{}{}
			} else {
				shifted[p] = struct{}{}
			}
		}
		idx.positions[key] = shifted
	}
}

// candidates returns positions in lookupTable[key] satisfying lo <= i < hi,
// ordered closest-to-hi first (descending), breaking ties numerically —
// the deterministic enumeration spec §4.3's determinism note calls for.
//
// The original source additionally required i > 1, excluding the first two
// queue positions from ever being a merge candidate. The worked examples
// in the spec (a single prior order at position 0 merging with the very
// next order) are only satisfiable without that guard, so it is dropped
// here as a source artifact rather than a real constraint.
func (idx *lookupIndex) candidates(key string, lo, hi int) []int {
	set, ok := idx.positions[key]
	if !ok {
		return nil
	}
	out := make([]int, 0, len(set))
	for p := range set {
		if p >= lo && p < hi {
			out = append(out, p)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}
