package state

import (
	"symgo/heap"
	"symgo/internal/clir"
	"symgo/internal/cltype"
)

// Map is SymStateMap: a per-CFG-block state container, plus each
// block's set of blocks that have ever sent it a heap -- the inbound-
// edge index exposed by GatherInboundEdges.
//
// Each block starts out backed by a plain Union (cheap equality dedup);
// once its heap count reaches WideningThreshold it is migrated in place
// to a Marked (join-widening) container, so small, finite-shape blocks
// never pay for a join scan they didn't need (§4.6 Widening).
type Map struct {
	types             *cltype.Table
	wideningThreshold int
	cont              map[*clir.Block]*blockState
}

type blockState struct {
	union        *Union // non-nil until widened
	marked       *Marked // non-nil once widened
	inboundSeen  map[*clir.Block]struct{}
	inboundOrder []*clir.Block
}

// NewMap creates an empty per-block state index. threshold <= 0 means
// "never widen" (every block stays a plain Union).
func NewMap(types *cltype.Table, threshold int) *Map {
	return &Map{types: types, wideningThreshold: threshold, cont: map[*clir.Block]*blockState{}}
}

func (m *Map) entry(bb *clir.Block) *blockState {
	bs, ok := m.cont[bb]
	if !ok {
		bs = &blockState{union: NewUnion(), inboundSeen: map[*clir.Block]struct{}{}}
		m.cont[bb] = bs
	}
	return bs
}

// container returns whichever of union/marked is currently active.
func (bs *blockState) container() interface {
	Size() int
	All() []*heap.Heap
	FetchPending() []*heap.Heap
	MarkAll()
} {
	if bs.marked != nil {
		return bs.marked
	}
	return bs.union
}

// Heaps returns every heap currently held for bb.
func (m *Map) Heaps(bb *clir.Block) []*heap.Heap {
	return m.entry(bb).container().All()
}

// FetchPending returns bb's pending heaps, clearing their bits.
func (m *Map) FetchPending(bb *clir.Block) []*heap.Heap {
	return m.entry(bb).container().FetchPending()
}

// MarkAll marks every heap currently held for bb as pending.
func (m *Map) MarkAll(bb *clir.Block) {
	m.entry(bb).container().MarkAll()
}

// Insert inserts sh into dst's container and, unless src is nil (the
// entry-block case), records src as an inbound edge. Returns whether
// dst's container actually changed (symstate.cc's SymStateMap::insert).
func (m *Map) Insert(dst, src *clir.Block, sh *heap.Heap) bool {
	bs := m.entry(dst)

	var changed bool
	if bs.marked != nil {
		changed = bs.marked.Insert(sh)
	} else {
		changed = bs.union.Insert(sh)
		if changed && m.wideningThreshold > 0 && bs.union.Size() >= m.wideningThreshold {
			bs.marked = m.migrate(bs.union)
			bs.union = nil
		}
	}

	if src != nil {
		if _, ok := bs.inboundSeen[src]; !ok {
			bs.inboundSeen[src] = struct{}{}
			bs.inboundOrder = append(bs.inboundOrder, src)
		}
	}
	return changed
}

// migrate replays a plain Union's heaps through join-based insertion,
// switching a block over to widening once it holds enough heaps that
// further plain unioning would never reach a fixed point (e.g. a block
// that re-derives one-longer list shapes on every visit).
func (m *Map) migrate(u *Union) *Marked {
	nm := NewMarked(m.types)
	for _, h := range u.All() {
		nm.Insert(h)
	}
	nm.MarkAll()
	return nm
}

// GatherInboundEdges lists every block that has sent a heap to bb, in
// first-recorded order (symstate.cc's gatherInboundEdges copies a
// std::set; this keeps first-seen insertion order instead, since
// nothing in §4.6 depends on a particular ordering and insertion order
// is both cheaper to produce and deterministic to test against).
func (m *Map) GatherInboundEdges(bb *clir.Block) []*clir.Block {
	bs, ok := m.cont[bb]
	if !ok {
		return nil
	}
	return append([]*clir.Block(nil), bs.inboundOrder...)
}
