package equal

import (
	"symgo/heap"
	"symgo/internal/ids"
)

// matcher drives the lockstep worklist that builds (and checks the
// consistency of) an id bijection between two heaps while deciding
// structural equality. Explicit worklist (popped from the end, so
// depth-first) rather than recursion, matching
// the traversal idiom the rest of this codebase uses for unbounded
// graphs (heap.Destroy, heap.ReachableRoots).
type matcher struct {
	h1, h2 *heap.Heap

	objMap1 map[ids.ObjId]ids.ObjId
	objMap2 map[ids.ObjId]ids.ObjId
	valMap1 map[ids.ValId]ids.ValId
	valMap2 map[ids.ValId]ids.ValId

	objQueue []pairObj
	valQueue []pairVal

	ok bool
}

type pairObj struct{ a, b ids.ObjId }
type pairVal struct{ a, b ids.ValId }

func newMatcher(h1, h2 *heap.Heap) *matcher {
	return &matcher{
		h1: h1, h2: h2,
		objMap1: map[ids.ObjId]ids.ObjId{},
		objMap2: map[ids.ObjId]ids.ObjId{},
		valMap1: map[ids.ValId]ids.ValId{},
		valMap2: map[ids.ValId]ids.ValId{},
		ok:      true,
	}
}

func (m *matcher) pushObj(a, b ids.ObjId) { m.objQueue = append(m.objQueue, pairObj{a, b}) }
func (m *matcher) pushVal(a, b ids.ValId) { m.valQueue = append(m.valQueue, pairVal{a, b}) }

// drain processes every pending pair, interleaving objects and values
// since matching one discovers the other, until both queues are empty or
// a mismatch is found. Returns false as soon as any pair disagrees.
func (m *matcher) drain() bool {
	for len(m.objQueue) > 0 || len(m.valQueue) > 0 {
		for len(m.objQueue) > 0 {
			p := m.objQueue[len(m.objQueue)-1]
			m.objQueue = m.objQueue[:len(m.objQueue)-1]
			if !m.matchObj(p.a, p.b) {
				return false
			}
		}
		for len(m.valQueue) > 0 {
			p := m.valQueue[len(m.valQueue)-1]
			m.valQueue = m.valQueue[:len(m.valQueue)-1]
			if !m.matchVal(p.a, p.b) {
				return false
			}
		}
	}
	return true
}

func (m *matcher) matchObj(a, b ids.ObjId) bool {
	if a.IsSentinel() || b.IsSentinel() {
		return a == b
	}
	if ea, ok := m.objMap1[a]; ok {
		return ea == b
	}
	if eb, ok := m.objMap2[b]; ok {
		return eb == a
	}
	m.objMap1[a] = b
	m.objMap2[b] = a

	h1, h2 := m.h1, m.h2
	if h1.Kind(a) != h2.Kind(b) {
		return false
	}
	if h1.Binding(a) != h2.Binding(b) {
		return false
	}
	if h1.MinLen(a) != h2.MinLen(b) {
		return false
	}
	ta, hasA := h1.ObjType(a)
	tb, hasB := h2.ObjType(b)
	if hasA != hasB {
		return false
	}
	if hasA && ta != tb {
		return false
	}
	na, nb := h1.NumSubFields(a), h2.NumSubFields(b)
	if na != nb {
		return false
	}
	for i := 0; i < na; i++ {
		m.pushObj(h1.SubVar(a, i), h2.SubVar(b, i))
	}
	if na == 0 {
		m.pushVal(h1.ReadValue(a), h2.ReadValue(b))
	}
	return true
}

func (m *matcher) matchVal(a, b ids.ValId) bool {
	if a.IsSentinel() || b.IsSentinel() {
		return a == b
	}
	if ea, ok := m.valMap1[a]; ok {
		return ea == b
	}
	if eb, ok := m.valMap2[b]; ok {
		return eb == a
	}
	m.valMap1[a] = b
	m.valMap2[b] = a

	h1, h2 := m.h1, m.h2
	if h1.ValCode(a) != h2.ValCode(b) {
		return false
	}

	switch h1.ValCode(a) {
	case heap.VHeap, heap.VAbstract:
		if h1.Offset(a) != h2.Offset(b) {
			return false
		}
		m.pushObj(h1.Target(a), h2.Target(b))
	case heap.VComposite:
		m.pushObj(h1.ValGetCompositeObj(a), h2.ValGetCompositeObj(b))
	case heap.VCustom:
		ta, ca, oka := h1.ValGetCustom(a)
		tb, cb, okb := h2.ValGetCustom(b)
		if !oka || !okb || ca != cb || ta != tb {
			return false
		}
	}
	return true
}
