// Package equal implements the Equal-Heaps relation (EH, C3, §4.3): a
// canonical bisimulation-style structural equality over two symbolic
// heaps, plus a fingerprint hash consistent with it (P6: Equal(h1,h2)
// implies Fingerprint(h1) == Fingerprint(h2)).
//
// Only heap's exported contract is used here -- equal is a consumer of
// heap.Heap, not a sibling with internals access, the same separation
// pointer/gen.go keeps between its node storage and the pointer
// analysis built on top of it.
package equal

import (
	"fmt"
	"sort"

	"symgo/heap"
	"symgo/internal/ids"
)

// Equal decides whether h1 and h2 denote the same symbolic heap up to
// renaming of ids (§4.3): program variables are matched first, in
// ascending (cVarUid, inst) order, then the object/value graph reachable
// from them is matched via a worklist bisimulation, and finally dangling
// (variable-less) roots are paired by a local structural fingerprint.
func Equal(h1, h2 *heap.Heap) (bool, error) {
	m := newMatcher(h1, h2)

	cv1, cv2 := h1.GatherCVars(), h2.GatherCVars()
	if len(cv1) != len(cv2) {
		return false, nil
	}
	for i, k := range cv1 {
		if k != cv2[i] {
			return false, nil
		}
		m.pushObj(h1.VarByCVar(k.UID, k.Inst), h2.VarByCVar(k.UID, k.Inst))
	}

	if !m.drain() {
		return false, nil
	}

	if !matchDanglingRoots(m, h1, h2) {
		return false, nil
	}

	if !m.drain() {
		return false, nil
	}

	return neqSetsAgree(m, h1, h2), nil
}

// matchDanglingRoots pairs up heap-allocated roots that are not owned by
// any program variable. Since these have no canonical name, they are
// ordered by a local structural fingerprint (kind/type/field shape) with
// ties broken by first-seen order, giving a deterministic pairing
// independent of each heap's own internal id numbering (§4.3).
func matchDanglingRoots(m *matcher, h1, h2 *heap.Heap) bool {
	r1 := h1.GatherRootObjects()
	r2 := h2.GatherRootObjects()
	if len(r1) != len(r2) {
		return false
	}

	type keyed struct {
		val ids.ValId
		fp  string
	}
	mk := func(h *heap.Heap, vs []ids.ValId) []keyed {
		out := make([]keyed, len(vs))
		for i, v := range vs {
			out[i] = keyed{val: v, fp: localFingerprint(h, h.Target(v))}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].fp < out[j].fp })
		return out
	}
	k1, k2 := mk(h1, r1), mk(h2, r2)
	for i := range k1 {
		if k1[i].fp != k2[i].fp {
			return false
		}
		m.pushVal(k1[i].val, k2[i].val)
	}
	return true
}

// localFingerprint describes one object's immediate shape -- kind,
// abstraction binding, type name/size, field count -- without following
// any edge out of it, so it is cheap and well-defined even on a heap
// with cycles.
func localFingerprint(h *heap.Heap, obj ids.ObjId) string {
	if obj.IsSentinel() {
		return "sentinel:" + obj.String()
	}
	typ, hasType := h.ObjType(obj)
	name := "?"
	if hasType {
		name = typ.String()
	}
	return fmt.Sprintf("%s/%s/%d/%d", h.Kind(obj), name, h.Binding(obj).Next, h.NumSubFields(obj))
}

// neqSetsAgree checks that the disequality relation carries over exactly
// under the bijection m built while matching the reachable graphs.
func neqSetsAgree(m *matcher, h1, h2 *heap.Heap) bool {
	n1 := h1.EnumNeq()
	n2 := h2.EnumNeq()
	if len(n1) != len(n2) {
		return false
	}
	want := make(map[[2]ids.ValId]struct{}, len(n2))
	for _, p := range n2 {
		want[p] = struct{}{}
	}
	for _, p := range n1 {
		a, aok := m.valMap1[p[0]]
		b, bok := m.valMap1[p[1]]
		if !aok || !bok {
			return false
		}
		key := [2]ids.ValId{a, b}
		if key[0] > key[1] {
			key[0], key[1] = key[1], key[0]
		}
		if _, ok := want[key]; !ok {
			return false
		}
	}
	return true
}
