// Package cltype implements the opaque, immutable ClType handles consumed
// by the symbolic heap (§3.1). Types are shared and outlive every Heap
// that references them; a Heap holds only a T value, a key into a
// *Table owned by the caller (§5, "Resource ownership").
package cltype

import "fmt"

// Kind enumerates the type kinds the heap core cares about (§3.1).
type Kind int

const (
	Void Kind = iota
	Int
	Bool
	Char
	Ptr
	Struct
	Union
	Array
	Fnc
	Enum
	String
	Unknown
)

func (k Kind) String() string {
	switch k {
	case Void:
		return "void"
	case Int:
		return "int"
	case Bool:
		return "bool"
	case Char:
		return "char"
	case Ptr:
		return "ptr"
	case Struct:
		return "struct"
	case Union:
		return "union"
	case Array:
		return "array"
	case Fnc:
		return "fnc"
	case Enum:
		return "enum"
	case String:
		return "string"
	default:
		return "unknown"
	}
}

// FieldInfo describes one field of a struct/union type.
type FieldInfo struct {
	Offset int
	Name   string
	Type   T
}

type record struct {
	kind      Kind
	size      int
	fields    []FieldInfo // struct/union only
	elem      T           // ptr/array element type
	arrayLen  int         // array only
	name      string
}

// T is an opaque, comparable handle into a Table. The zero value is not
// a valid type.
type T struct {
	table *Table
	idx   int32
}

// Valid reports whether t was produced by a Table and still refers to it.
func (t T) Valid() bool { return t.table != nil && t.idx > 0 }

func (t T) rec() record {
	if !t.Valid() {
		panic("cltype: use of invalid/zero type handle")
	}
	return t.table.recs[t.idx]
}

func (t T) Kind() Kind       { return t.rec().kind }
func (t T) SizeBytes() int   { return t.rec().size }
func (t T) Name() string     { return t.rec().name }
func (t T) Elem() T          { return t.rec().elem }
func (t T) ArrayLen() int    { return t.rec().arrayLen }
func (t T) NumFields() int   { return len(t.rec().fields) }
func (t T) Field(i int) FieldInfo {
	return t.rec().fields[i]
}

func (t T) String() string {
	if !t.Valid() {
		return "<invalid type>"
	}
	r := t.rec()
	if r.name != "" {
		return r.name
	}
	return r.kind.String()
}

// IsAggregate reports whether the type has a sub-field tree (§3.2).
func (t T) IsAggregate() bool {
	k := t.Kind()
	return k == Struct || k == Union
}

// IntPromotionMode selects how varCreate treats CL_TYPE_INT (§9 open
// question (b)).
type IntPromotionMode int

const (
	// StrictPointers rejects RootCreate on an Int-kinded type outright;
	// this is the default (see SPEC_FULL.md §5, Open Questions (b)).
	StrictPointers IntPromotionMode = iota
	// PromoteIntToPtr matches the original sl behavior: CL_TYPE_INT is
	// silently treated as CL_TYPE_PTR when creating a variable.
	PromoteIntToPtr
)

// Table owns the set of types known to one analysis run.
type Table struct {
	recs []record // slot 0 unused, mirrors ids.ObjArena
	mode IntPromotionMode
}

// NewTable creates an empty type table with the given int-promotion mode.
func NewTable(mode IntPromotionMode) *Table {
	return &Table{recs: []record{{}}, mode: mode}
}

func (tb *Table) Mode() IntPromotionMode { return tb.mode }

func (tb *Table) alloc(r record) T {
	tb.recs = append(tb.recs, r)
	return T{table: tb, idx: int32(len(tb.recs) - 1)}
}

// Scalar declares a new non-aggregate type of the given kind and size.
func (tb *Table) Scalar(kind Kind, size int, name string) T {
	if kind == Struct || kind == Union {
		panic("cltype: Scalar called with aggregate kind")
	}
	return tb.alloc(record{kind: kind, size: size, name: name})
}

// Pointer declares a pointer-to-elem type.
func (tb *Table) Pointer(elem T, size int) T {
	return tb.alloc(record{kind: Ptr, size: size, elem: elem})
}

// Array declares a fixed-length array-of-elem type.
func (tb *Table) Array(elem T, length int) T {
	return tb.alloc(record{kind: Array, size: elem.SizeBytes() * length, elem: elem, arrayLen: length})
}

// Struct declares a struct type. Field offsets must be supplied by the
// caller (the source IR is the authority on layout, §3.1).
func (tb *Table) Struct(name string, size int, fields []FieldInfo) T {
	return tb.alloc(record{kind: Struct, size: size, name: name, fields: append([]FieldInfo(nil), fields...)})
}

// Union declares a union type: all fields share offset 0.
func (tb *Table) Union(name string, size int, fields []FieldInfo) T {
	return tb.alloc(record{kind: Union, size: size, name: name, fields: append([]FieldInfo(nil), fields...)})
}

// SetFields completes a struct/union type's field list after the fact.
// A field naming the type being declared can only exist once the type's
// own handle is known, so a genuinely self-referential node (a linked-
// list node whose own "next" field points back at itself, the shape
// join.selfPtrField looks for) is declared in two steps: Struct/Union
// with a nil field list to mint the handle, then SetFields once its
// own pointer type can be built from that handle.
func (tb *Table) SetFields(t T, fields []FieldInfo) {
	if !t.Valid() || t.table != tb {
		panic("cltype: SetFields on a type handle this table did not allocate")
	}
	r := t.rec()
	if r.kind != Struct && r.kind != Union {
		panic("cltype: SetFields on a non-aggregate type")
	}
	r.fields = append([]FieldInfo(nil), fields...)
	tb.recs[t.idx] = r
}

// FieldAt resolves the sub-field (if any) of an aggregate type at exactly
// the given byte offset. Used by objAtOffset (§4.2).
func FieldAt(t T, offset int) (FieldInfo, bool) {
	if !t.IsAggregate() {
		return FieldInfo{}, false
	}
	for i := 0; i < t.NumFields(); i++ {
		fi := t.Field(i)
		if fi.Offset == offset {
			return fi, true
		}
	}
	return FieldInfo{}, false
}

// Describe renders a type for diagnostics/logging.
func Describe(t T) string {
	if !t.Valid() {
		return "?"
	}
	return fmt.Sprintf("%s(%dB)", t.String(), t.SizeBytes())
}
