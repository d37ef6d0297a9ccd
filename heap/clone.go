package heap

import (
	"symgo/diag"
	"symgo/internal/ids"
)

// Clone deep-copies h: new arenas with bit-identical contents and
// preserved ids (§4.1), so ids stay stable across the copy -- required
// by join and by the FPD, which offers independent copies of a heap to
// each CFG successor.
func (h *Heap) Clone() *Heap {
	out := &Heap{
		types:       h.types, // shared, immutable (§5)
		neq:         make(map[[2]ids.ValId]struct{}, len(h.neq)),
		cVarIndex:   make(map[CVarKey]ids.ObjId, len(h.cVarIndex)),
		customIndex: make(map[customKey]ids.ValId, len(h.customIndex)),
		offsetIndex: make(map[offsetKey]ids.ValId, len(h.offsetIndex)),
		nullObj:     h.nullObj,
		retValue:    h.retValue,
		// Each clone gets its own sink rather than sharing h.sink: the FPD
		// clones a heap onto every CFG successor and AnalyzeAll explores
		// functions concurrently, so a shared *diag.Sink would race on
		// Report. fixpoint.Run copies each heap's new defects into its
		// result sink after every block it runs on that heap.
		sink: diag.NewSink(),
	}

	out.objs = *h.objs.Clone(func(o object) object {
		o.subFields = append([]ids.ObjId(nil), o.subFields...)
		return o
	})
	out.vals = *h.vals.Clone(func(v value) value {
		nu := make(map[ids.ObjId]struct{}, len(v.usedBy))
		for k := range v.usedBy {
			nu[k] = struct{}{}
		}
		v.usedBy = nu
		return v
	})

	for k, v := range h.neq {
		out.neq[k] = v
	}
	for k, v := range h.cVarIndex {
		out.cVarIndex[k] = v
	}
	for k, v := range h.customIndex {
		out.customIndex[k] = v
	}
	for k, v := range h.offsetIndex {
		out.offsetIndex[k] = v
	}
	return out
}
