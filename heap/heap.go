// Package heap implements the Symbolic Heap Core (SHC, C2, §3-§4.2): the
// raw graph of objects, values, points-to/has-value edges, sub-field
// trees, the disequality set, and abstract segment kinds.
//
// Resolving the cyclic object<->value graph with arena ids rather than
// ownership pointers is the design called out in §9: each arena owns its
// records, cross-references are plain ids validated on access. This is
// the same shape as pointer/gen.go's analysis.nodes []*node indexed by
// nodeid, adapted from "one node per scalar SSA value" to "one object
// per typed storage location, one value per abstract scalar/address".
package heap

import (
	"symgo/diag"
	"symgo/internal/cltype"
	"symgo/internal/ids"
)

// ObjKind is the object kind of §3.2: CONCRETE, or one of the abstract
// segment kinds.
type ObjKind int

const (
	Concrete ObjKind = iota
	MayExist
	SLS
	DLS
)

func (k ObjKind) String() string {
	switch k {
	case Concrete:
		return "CONCRETE"
	case MayExist:
		return "MAY_EXIST"
	case SLS:
		return "SLS"
	case DLS:
		return "DLS"
	default:
		return "?"
	}
}

// BindingOff gives the field offsets within an abstracted node that
// define how it participates in a list segment (§3.2, GLOSSARY).
type BindingOff struct {
	Head int
	Next int
	Prev int // DLS only
}

// CVarKey disambiguates a program variable by (cVarUid, call-nest
// level), per §3.2's (cVarUid, inst) pair.
type CVarKey struct {
	UID  int
	Inst int
}

// object is the internal representation of an Object (§3.2).
type object struct {
	typ     cltype.T
	hasType bool // false => anonymous raw region of known size
	size    int  // byte size; authoritative when !hasType

	kind    ObjKind
	binding BindingOff
	minLen  int

	placedAt ids.ValId
	value    ids.ValId

	parent    ids.ObjId
	subFields []ids.ObjId
	root      ids.ObjId // self if this object is itself a root
	fieldOff  int       // offset of this field within the root's type

	cVar    CVarKey
	hasCVar bool
	isAnon  bool // created via RootCreateAnon (no cVarUid, no named type)

	live bool
}

// EValue is the tag of a Value (§3.3).
type EValue int

const (
	VHeap EValue = iota
	VCustom
	VComposite
	VUnknown
	VLost
	VDeleted
	VStatic
	VOnStack
	VOnHeap
	VAbstract
)

func (c EValue) String() string {
	switch c {
	case VHeap:
		return "HEAP"
	case VCustom:
		return "CUSTOM"
	case VComposite:
		return "COMPOSITE"
	case VUnknown:
		return "UNKNOWN"
	case VLost:
		return "LOST"
	case VDeleted:
		return "DELETED"
	case VStatic:
		return "STATIC"
	case VOnStack:
		return "ON_STACK"
	case VOnHeap:
		return "ON_HEAP"
	case VAbstract:
		return "ABSTRACT"
	default:
		return "?"
	}
}

// value is the internal representation of a Value (§3.3).
type value struct {
	code EValue
	typ  cltype.T

	pointsTo ids.ObjId // address values: target object
	root     ids.ValId // the root address value this one is offset from (self if offset==0)
	offset   int

	usedBy map[ids.ObjId]struct{} // reverse index, §3.3 (V2)

	customVal  int       // CUSTOM: opaque scalar payload (e.g. fnc id literal)
	compositeOf ids.ObjId // COMPOSITE: the aggregate object this value denotes
}

// offsetKey hash-conses OffsetBy results (§4.2: "two such queries with
// equal arguments return equal ids").
type offsetKey struct {
	root   ids.ValId
	offset int
}

// Heap is one symbolic heap instance (SH). It owns its arenas
// exclusively; Clone performs a deep copy (§5, "Resource ownership").
type Heap struct {
	objs ids.ObjArena[object]
	vals ids.ValArena[value]

	types *cltype.Table

	neq map[[2]ids.ValId]struct{}

	cVarIndex   map[CVarKey]ids.ObjId
	customIndex map[customKey]ids.ValId
	offsetIndex map[offsetKey]ids.ValId

	nullObj ids.ObjId // the null region, target of VAL_NULL (V4)

	// OBJ_RETURN (§3.2) is a fixed sentinel id, not an arena slot (arenas
	// only index positive ids); its storage lives directly on Heap, the
	// same way symheap.cc's Private::varMap[OBJ_RETURN] is just another
	// map entry keyed by a reserved int rather than a dynamically
	// allocated one.
	retValue ids.ValId

	sink *diag.Sink // category-1 diagnostics accrue here (warnings, not failures)
}

type customKey struct {
	typ cltype.T
	val int
}

// New creates an empty symbolic heap backed by the given shared,
// immutable type table (§5, "types are shared immutable").
func New(types *cltype.Table) *Heap {
	h := &Heap{
		types:       types,
		neq:         map[[2]ids.ValId]struct{}{},
		cVarIndex:   map[CVarKey]ids.ObjId{},
		customIndex: map[customKey]ids.ValId{},
		offsetIndex: map[offsetKey]ids.ValId{},
		sink:        diag.NewSink(),
		retValue:    ids.ValUninitialized,
	}
	// VAL_NULL's root target: an object that no RootCreate can ever
	// produce (V4, "the unique address value whose root target is the
	// null region"). Modeled as a reserved, always-absent object id
	// rather than a real arena slot, so it never collides with a live
	// allocation and destroy never touches it.
	h.nullObj = ids.ObjId(-100)
	return h
}

// Sink returns the diagnostic sink that the transfer functions report
// this heap's defects to.
func (h *Heap) Sink() *diag.Sink { return h.sink }

func neqKey(a, b ids.ValId) [2]ids.ValId {
	if a > b {
		a, b = b, a
	}
	return [2]ids.ValId{a, b}
}
