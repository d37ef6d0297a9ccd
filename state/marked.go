package state

import "symgo/internal/cltype"

// Marked is WithJoin plus the pending-bit bookkeeping Union already
// carries, exposed under the name symstate.cc's SymStateMap keys its
// per-block containers by. There is no behavioral difference from
// WithJoin; the distinct name exists because the fixpoint driver (the
// only consumer of FetchPending/MarkAll) reasons about these containers
// as "the pending set for block B", not "the join-widened set".
type Marked struct {
	WithJoin
}

// NewMarked creates an empty marked state container over the given
// (shared, immutable) type table.
func NewMarked(types *cltype.Table) *Marked {
	return &Marked{WithJoin: *NewWithJoin(types)}
}
