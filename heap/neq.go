package heap

import "symgo/internal/ids"

// NeqAdd records that a and b have been proved unequal (§3.4). Monotone:
// once added, the pair stays until an explicit NeqDel or a join discards
// it (§3.4).
func (h *Heap) NeqAdd(a, b ids.ValId) {
	if a == b {
		return
	}
	h.neq[neqKey(a, b)] = struct{}{}
}

// NeqDel removes a previously recorded disequality, if any.
func (h *Heap) NeqDel(a, b ids.ValId) {
	delete(h.neq, neqKey(a, b))
}

// ProveNeq answers the disequality query (§3.4). Symmetric, irreflexive
// (P4).
func (h *Heap) ProveNeq(a, b ids.ValId) bool {
	if a == b {
		return false
	}
	// VAL_NULL is disequal to any address value known to point at a live,
	// non-null root -- this follows from V1/V4 without needing an
	// explicit recorded pair, matching how a successful `if (p)` branch
	// in sl immediately knows p != NULL for the concrete object case.
	if (a == ids.ValNull) != (b == ids.ValNull) {
		nonNull := a
		if a == ids.ValNull {
			nonNull = b
		}
		if v, ok := h.vals.Get(nonNull); ok && v.code == VHeap {
			if v.pointsTo != ids.ObjInvalid && h.IsLive(v.pointsTo) {
				return true
			}
		}
	}
	_, ok := h.neq[neqKey(a, b)]
	return ok
}

// GatherRelatedValues enumerates every value known unequal to ref,
// ascending id order (§6.2, §9 open question (a): this resolves
// notEqualTo's intended semantics).
func (h *Heap) GatherRelatedValues(ref ids.ValId) []ids.ValId {
	var out []ids.ValId
	for k := range h.neq {
		if k[0] == ref {
			out = append(out, k[1])
		} else if k[1] == ref {
			out = append(out, k[0])
		}
	}
	sortValIds(out)
	return out
}

// EnumNeq lists every recorded disequality pair, each normalized (lower
// id first) and the whole list sorted, for callers (heap/equal,
// heap/join, plot) that need to enumerate the full Neq set rather than
// query a single pair.
func (h *Heap) EnumNeq() [][2]ids.ValId {
	out := make([][2]ids.ValId, 0, len(h.neq))
	for k := range h.neq {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && pairLess(out[j], out[j-1]); j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func pairLess(a, b [2]ids.ValId) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	return a[1] < b[1]
}

func sortValIds(s []ids.ValId) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
