package state

import (
	"symgo/heap"
	"symgo/heap/join"
	"symgo/internal/cltype"
)

// WithJoin is SymStateWithJoin: a Union where Insert first tries to join
// the incoming heap against every existing one, only falling back to a
// plain append when no join succeeds. The widening that makes a fixed
// point reachable over unbounded shapes (e.g. an arbitrarily long list)
// happens here, not in Union.
type WithJoin struct {
	Union
	types *cltype.Table
}

// NewWithJoin creates an empty join-widening state container over the
// given (shared, immutable) type table.
func NewWithJoin(types *cltype.Table) *WithJoin {
	return &WithJoin{types: types}
}

// Insert is symstate.cc's SymStateWithJoin::insert, translated line for
// line: scan for the first heap that successfully joins with shNew, then
// switch on the resulting status to decide whether to keep, replace, or
// widen.
func (w *WithJoin) Insert(shNew *heap.Heap) bool {
	cnt := w.Size()
	if cnt == 0 {
		w.insertNew(shNew)
		return true
	}

	idx := cnt
	var status join.Status
	var result *heap.Heap
	for i := 0; i < cnt; i++ {
		shOld := w.At(i)
		st, res, ok := join.Join(shOld, shNew, w.types)
		if ok {
			idx, status, result = i, st, res
			break
		}
	}

	if idx == cnt {
		// nothing to join here
		w.insertNew(shNew)
		return true
	}

	switch status {
	case join.UseAny, join.UseSH1:
		// just keep the state as it is
		return false
	case join.UseSH2:
		w.swapExisting(idx, shNew)
		return true
	case join.ThreeWay:
		w.swapExisting(idx, result)
		return true
	default:
		return false
	}
}
