package heap

import "symgo/internal/ids"

// GatherCVars enumerates every live program variable's (cVarUid, inst)
// pair, ascending id order (§6.2).
func (h *Heap) GatherCVars() []CVarKey {
	out := make([]CVarKey, 0, len(h.cVarIndex))
	for k := range h.cVarIndex {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && less(out[j-1], out[j]); j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// less reports whether out[j-1]=a must be swapped past out[j]=b to reach
// ascending (UID, Inst) order; this is the insertion sort's "out of
// order" predicate, not a plain less-than.
func less(a, b CVarKey) bool {
	if a.UID != b.UID {
		return a.UID > b.UID
	}
	return a.Inst > b.Inst
}

// GatherRootObjects enumerates the address value of every live root
// object not owned by a program variable -- i.e. every "dangling"
// allocation, the candidates a leak check inspects for reachability
// (§3.5, §6.2).
func (h *Heap) GatherRootObjects() []ids.ValId {
	var out []ids.ValId
	h.objs.Each(
		func(id ids.ObjId, o *object) bool {
			return o.live && o.parent == ids.ObjInvalid && !o.hasCVar
		},
		func(id ids.ObjId, o *object) {
			out = append(out, o.placedAt)
		},
	)
	sortValIds(out)
	return out
}

// ReachableRoots returns the set of heap-root ObjIds transitively
// reachable from the program's live variables, used by a leak check on
// scope exit (§3.5, §7.1 "Leak").
func (h *Heap) ReachableRoots() map[ids.ObjId]struct{} {
	reached := map[ids.ObjId]struct{}{}
	var stack []ids.ValId
	for _, k := range h.GatherCVars() {
		obj := h.cVarIndex[k]
		stack = append(stack, h.ReadValue(obj))
	}

	seen := map[ids.ValId]struct{}{}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}

		vr, ok := h.vals.Get(v)
		if !ok || vr.code != VHeap {
			continue
		}
		target := vr.pointsTo
		if target == ids.ObjInvalid || target.IsSentinel() {
			continue
		}
		root := h.rootOf(target)
		reached[root] = struct{}{}

		ro, ok := h.objs.Get(root)
		if !ok {
			continue
		}
		stack = append(stack, h.subTreeValues(root, ro)...)
	}
	return reached
}

func (h *Heap) subTreeValues(root ids.ObjId, ro *object) []ids.ValId {
	var out []ids.ValId
	stack := []ids.ObjId{root}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		co, ok := h.objs.Get(cur)
		if !ok {
			continue
		}
		if len(co.subFields) > 0 {
			stack = append(stack, co.subFields...)
			continue
		}
		out = append(out, co.value)
	}
	return out
}
