package heap

import "symgo/internal/ids"

// EdgeKind tags the kind of edge Walk reports, matching §6.3's tuple
// shape: (object, value, pointer-edge, sub-edge, neq-edge).
type EdgeKind int

const (
	EdgePointsTo EdgeKind = iota // value -> object
	EdgeHasValue                 // object -> value
	EdgeSub                      // object -> sub-object
	EdgeNeq                      // value -- value
)

// Edge is one tuple yielded by Walk.
type Edge struct {
	Kind EdgeKind
	From int // ObjId or ValId, interpretation depends on Kind
	To   int
}

// ObjRecord / ValRecord are read-only snapshots exposed to visitors, the
// Go analog of the fields symplot.cc prints per node.
type ObjRecord struct {
	ID      ids.ObjId
	Kind    ObjKind
	Live    bool
	HasType bool
	CVar    CVarKey
	HasCVar bool
	Value   ids.ValId
}

type ValRecord struct {
	ID       ids.ValId
	Code     EValue
	PointsTo ids.ObjId
	Offset   int
}

// Visitor receives the object/value graph of one heap in enumeration
// order. Each method may return false to stop the walk early.
type Visitor struct {
	Object func(ObjRecord) bool
	Value  func(ValRecord) bool
	Edge   func(Edge) bool
}

// Walk is the inspection visitor named in §6.3: an iterator over
// (object, value, pointer-edge, sub-edge, neq-edge) tuples for a given
// SH. plot.Dump and plot.DOT are its only consumers; the core places no
// format/color opinion on the output (those are explicitly out of
// scope, §6.3).
func (h *Heap) Walk(v Visitor) {
	stopped := false
	edge := func(e Edge) {
		if !stopped && !v.Edge(e) {
			stopped = true
		}
	}

	h.objs.Each(nil, func(id ids.ObjId, o *object) {
		if stopped || !o.live {
			return
		}
		if v.Object != nil {
			if !v.Object(ObjRecord{ID: id, Kind: o.kind, Live: o.live, HasType: o.hasType, CVar: o.cVar, HasCVar: o.hasCVar, Value: o.value}) {
				stopped = true
				return
			}
		}
		if v.Edge != nil {
			if o.value != ids.ValInvalid {
				edge(Edge{Kind: EdgeHasValue, From: int(id), To: int(o.value)})
			}
			for _, sub := range o.subFields {
				edge(Edge{Kind: EdgeSub, From: int(id), To: int(sub)})
			}
		}
	})

	h.vals.Each(nil, func(id ids.ValId, val *value) {
		if stopped {
			return
		}
		if v.Value != nil {
			if !v.Value(ValRecord{ID: id, Code: val.code, PointsTo: val.pointsTo, Offset: val.offset}) {
				stopped = true
				return
			}
		}
		if v.Edge != nil && val.code == VHeap && val.pointsTo != ids.ObjInvalid {
			edge(Edge{Kind: EdgePointsTo, From: int(id), To: int(val.pointsTo)})
		}
	})

	if v.Edge != nil {
		for _, k := range h.EnumNeq() {
			edge(Edge{Kind: EdgeNeq, From: int(k[0]), To: int(k[1])})
		}
	}
}
