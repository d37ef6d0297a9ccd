// Package state implements the State Container (SC, C5, §4.5): a set of
// symbolic heaps attached to one CFG block, de-duplicated either by
// plain structural equality (Union) or by join-widening (WithJoin/
// Marked), plus a per-CFG-block index with an inbound-edge record (Map).
//
// Ported structurally from symstate.cc: linear scan, first-match-wins,
// insertNew/swapExisting semantics kept as written, including the exact
// switch over a join status that symstate.cc's SymStateWithJoin::insert
// uses.
package state

import (
	"symgo/heap"
	"symgo/heap/equal"
)

// Union is SymHeapUnion: a set of heaps deduplicated by Equal, with a
// pending bit per slot (symstate.cc itself has no such bit -- the
// fixpoint driver that consumes this container needs one to know which
// heaps are new since a block was last processed, so it lives here
// rather than as a parallel structure the driver must keep in sync).
type Union struct {
	heaps   []*heap.Heap
	pending []bool
}

// NewUnion creates an empty state container.
func NewUnion() *Union { return &Union{} }

// Size returns the number of heaps currently held.
func (u *Union) Size() int { return len(u.heaps) }

// At returns the nth heap (symstate.cc's operator[]).
func (u *Union) At(idx int) *heap.Heap { return u.heaps[idx] }

// All returns every heap held, in insertion order.
func (u *Union) All() []*heap.Heap { return u.heaps }

// Lookup returns the index of a heap structurally equal to lookFor, or
// -1 if none matches (symstate.cc's SymHeapUnion::lookup).
func (u *Union) Lookup(lookFor *heap.Heap) int {
	for idx, sh := range u.heaps {
		if same, err := equal.Equal(lookFor, sh); err == nil && same {
			return idx
		}
	}
	return -1
}

// Insert adds sh if no structurally-equal heap is already present,
// reporting whether it actually appended one (symstate.cc's
// SymState::insert).
func (u *Union) Insert(sh *heap.Heap) bool {
	if u.Lookup(sh) != -1 {
		return false
	}
	u.insertNew(sh)
	return true
}

// InsertAll merges every heap of other into u (symstate.cc's
// SymState::insert(const SymState&)).
func (u *Union) InsertAll(other *Union) {
	for _, sh := range other.heaps {
		u.Insert(sh)
	}
}

func (u *Union) insertNew(sh *heap.Heap) {
	u.heaps = append(u.heaps, sh)
	u.pending = append(u.pending, true)
}

func (u *Union) swapExisting(idx int, sh *heap.Heap) {
	u.heaps[idx] = sh
	u.pending[idx] = true
}

// FetchPending returns the heaps marked pending, clearing their bits.
func (u *Union) FetchPending() []*heap.Heap {
	var out []*heap.Heap
	for i, p := range u.pending {
		if p {
			out = append(out, u.heaps[i])
			u.pending[i] = false
		}
	}
	return out
}

// MarkAll sets every current slot pending.
func (u *Union) MarkAll() {
	for i := range u.pending {
		u.pending[i] = true
	}
}
