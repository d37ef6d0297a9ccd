package heap

import (
	"symgo/diag"
	"symgo/internal/cltype"
	"symgo/internal/ids"
)

// ReadValue is total (§4.2): VAL_DEREF_FAILED for sentinel/destroyed
// objects, VAL_UNINITIALIZED before any write.
func (h *Heap) ReadValue(obj ids.ObjId) ids.ValId {
	switch obj {
	case ids.ObjInvalid:
		return ids.ValInvalid
	case ids.ObjLost, ids.ObjDeleted, ids.ObjDerefFailed, ids.ObjUnknown:
		return ids.ValDerefFailed
	case ids.ObjReturn:
		return h.retValue
	}
	o, ok := h.objs.Get(obj)
	if !ok || !o.live {
		return ids.ValDerefFailed
	}
	return o.value
}

// WriteValue updates obj.value and maintains the usedBy reverse index
// (§4.2). Idempotent when obj.value == val.
func (h *Heap) WriteValue(obj ids.ObjId, val ids.ValId) error {
	if vrec, ok := h.vals.Get(val); ok && vrec.code == VComposite {
		return diag.ContractViolation("WriteValue", "writing a COMPOSITE value through WriteValue is forbidden (V3)")
	}

	if obj == ids.ObjReturn {
		if h.retValue == val {
			return nil
		}
		h.releaseValueOfVal(obj, h.retValue)
		h.indexValueOf(obj, val)
		h.retValue = val
		return nil
	}

	if obj.IsSentinel() {
		return diag.ContractViolation("WriteValue", "writing through a sentinel object")
	}

	o, ok := h.objs.Get(obj)
	if !ok || !o.live {
		return diag.ContractViolation("WriteValue", "object does not exist or was destroyed")
	}
	if o.value == val {
		return nil
	}
	h.releaseValueOfVal(obj, o.value)
	h.indexValueOf(obj, val)
	o.value = val
	return nil
}

func (h *Heap) releaseValueOfVal(obj ids.ObjId, oldVal ids.ValId) {
	if oldVal <= 0 {
		return
	}
	v, ok := h.vals.Get(oldVal)
	if !ok || v.code == VComposite {
		return
	}
	delete(v.usedBy, obj)
}

func (h *Heap) indexValueOf(obj ids.ObjId, val ids.ValId) {
	if val <= 0 {
		return
	}
	v, ok := h.vals.Get(val)
	if !ok {
		return
	}
	if v.usedBy == nil {
		v.usedBy = map[ids.ObjId]struct{}{}
	}
	v.usedBy[obj] = struct{}{}
}

// AddressOf returns the ValId of obj's address (bidirectional with Target).
func (h *Heap) AddressOf(obj ids.ObjId) ids.ValId {
	if obj == ids.ObjReturn {
		return ids.ValInvalid // OBJ_RETURN is never addressed (matches sl's initReturn)
	}
	o, ok := h.objs.Get(obj)
	if !ok {
		return ids.ValInvalid
	}
	return o.placedAt
}

// Target returns the ObjId a (possibly sentinel) address value points to.
func (h *Heap) Target(val ids.ValId) ids.ObjId {
	v, ok := h.vals.Get(val)
	if !ok {
		return ids.ObjInvalid
	}
	return v.pointsTo
}

// OffsetBy returns the canonical value for root(val)+offset(val)+delta.
// Hash-consed per-heap: two queries with equal arguments return equal
// ids (§4.2).
func (h *Heap) OffsetBy(val ids.ValId, delta int) (ids.ValId, error) {
	v, ok := h.vals.Get(val)
	if !ok {
		return ids.ValInvalid, diag.ContractViolation("OffsetBy", "value does not exist")
	}
	if v.code != VHeap && v.code != VAbstract {
		return ids.ValInvalid, diag.ContractViolation("OffsetBy", "offsetting a non-address value is forbidden")
	}

	root := v.root
	if root == 0 {
		root = val
	}
	newOffset := v.offset + delta
	if newOffset == 0 {
		return root, nil
	}

	key := offsetKey{root: root, offset: newOffset}
	if existing, ok := h.offsetIndex[key]; ok {
		return existing, nil
	}

	rootVal, _ := h.vals.Get(root)
	nv := value{
		code:     VHeap,
		typ:      rootVal.typ,
		pointsTo: rootVal.pointsTo,
		root:     root,
		offset:   newOffset,
		usedBy:   map[ids.ObjId]struct{}{},
	}
	id := h.vals.Alloc(nv)
	h.offsetIndex[key] = id
	return id, nil
}

// ObjAtOffset resolves a (possibly-offset) address to the sub-object of
// matching type/offset within the root, creating it on demand if the
// root is typed and the offset is valid (§4.2). Per boundary case B3, an
// offset equal to the root's size returns OBJ_UNKNOWN, not OBJ_INVALID
// (a one-past-the-end address is a legal but unreadable value, e.g. the
// result of incrementing past an array).
func (h *Heap) ObjAtOffset(val ids.ValId, typ cltype.T, hasType bool) (ids.ObjId, error) {
	v, ok := h.vals.Get(val)
	if !ok {
		return ids.ObjInvalid, diag.ContractViolation("ObjAtOffset", "value does not exist")
	}
	if v.code != VHeap && v.code != VAbstract {
		return ids.ObjInvalid, diag.ContractViolation("ObjAtOffset", "not an address value")
	}

	root := v.pointsTo
	offset := v.offset
	ro, ok := h.objs.Get(root)
	if !ok || !ro.live {
		return ids.ObjDerefFailed, nil
	}

	if offset == 0 {
		return root, nil
	}
	if !ro.hasType {
		return ids.ObjUnknown, nil
	}
	if offset == ro.size {
		return ids.ObjUnknown, nil // B3
	}
	if offset < 0 || offset > ro.size {
		return ids.ObjUnknown, nil
	}

	if sub := h.findSubAt(root, offset); sub != ids.ObjInvalid {
		return sub, nil
	}

	// No sub-object has been materialized for this offset yet -- e.g. an
	// array element, or a field of a raw region that was typed via
	// DefineType but never walked by setType (a scalar-typed root has no
	// pre-built sub-tree). Create it on demand, mirroring setType's
	// per-field construction, and hang it off root's sub-field list so a
	// later access at the same offset finds it via findSubAt.
	fi, found := cltype.FieldAt(ro.typ, offset)
	if !found {
		return ids.ObjUnknown, nil
	}

	sub := h.objs.Alloc(object{live: true, parent: root, fieldOff: offset, hasType: true, typ: fi.Type, size: fi.Type.SizeBytes()})
	so, _ := h.objs.Get(sub)
	so.root = h.rootOf(root)
	subVal := h.vals.Alloc(value{code: VHeap, pointsTo: ids.ObjInvalid, usedBy: map[ids.ObjId]struct{}{}})
	so.placedAt = subVal
	so.value = ids.ValUninitialized

	ro, _ = h.objs.Get(root) // re-fetch: Alloc may have grown the arena's backing slice
	ro.subFields = append(ro.subFields, sub)

	return sub, nil
}

func (h *Heap) findSubAt(root ids.ObjId, offset int) ids.ObjId {
	ro, ok := h.objs.Get(root)
	if !ok {
		return ids.ObjInvalid
	}
	for _, sub := range ro.subFields {
		so, ok := h.objs.Get(sub)
		if !ok {
			continue
		}
		if so.fieldOff == offset {
			return sub
		}
	}
	return ids.ObjInvalid
}

// UsedByCount and EnumUsedBy expose the reverse has-value index.
func (h *Heap) UsedByCount(val ids.ValId) int {
	v, ok := h.vals.Get(val)
	if !ok {
		return 0
	}
	return len(v.usedBy)
}

func (h *Heap) EnumUsedBy(val ids.ValId) []ids.ObjId {
	v, ok := h.vals.Get(val)
	if !ok {
		return nil
	}
	out := make([]ids.ObjId, 0, len(v.usedBy))
	for o := range v.usedBy {
		out = append(out, o)
	}
	sortObjIds(out)
	return out
}

func sortObjIds(s []ids.ObjId) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// ValCreateCustom interns an opaque scalar (e.g. a function id or string
// literal) keyed by (typ, cVal) so repeated creation returns the same
// ValId (symheap.cc's valCreateCustom).
func (h *Heap) ValCreateCustom(typ cltype.T, cVal int) ids.ValId {
	key := customKey{typ: typ, val: cVal}
	if id, ok := h.customIndex[key]; ok {
		return id
	}
	id := h.vals.Alloc(value{code: VCustom, typ: typ, customVal: cVal, usedBy: map[ids.ObjId]struct{}{}})
	h.customIndex[key] = id
	return id
}

// ValGetCustom returns the opaque payload of a CUSTOM value.
func (h *Heap) ValGetCustom(val ids.ValId) (cltype.T, int, bool) {
	v, ok := h.vals.Get(val)
	if !ok || v.code != VCustom {
		return cltype.T{}, 0, false
	}
	return v.typ, v.customVal, true
}

// ObjType / ValType mirror symheap.cc's objType/valType accessors.
func (h *Heap) ObjType(obj ids.ObjId) (cltype.T, bool) {
	o, ok := h.objs.Get(obj)
	if !ok || !o.hasType {
		return cltype.T{}, false
	}
	return o.typ, true
}

func (h *Heap) ValType(val ids.ValId) (cltype.T, bool) {
	v, ok := h.vals.Get(val)
	if !ok {
		return cltype.T{}, false
	}
	return v.typ, v.typ.Valid()
}

// ValGetCompositeObj returns the aggregate object a COMPOSITE value
// denotes.
func (h *Heap) ValGetCompositeObj(val ids.ValId) ids.ObjId {
	v, ok := h.vals.Get(val)
	if !ok || v.code != VComposite {
		return ids.ObjInvalid
	}
	return v.compositeOf
}

// VarByCVar resolves a program variable by (cVarUid, inst).
func (h *Heap) VarByCVar(uid, inst int) ids.ObjId {
	if id, ok := h.cVarIndex[CVarKey{uid, inst}]; ok {
		return id
	}
	return ids.ObjInvalid
}

// SubVar / VarParent expose the sub-field tree (§3.2).
func (h *Heap) SubVar(obj ids.ObjId, nth int) ids.ObjId {
	o, ok := h.objs.Get(obj)
	if !ok || nth < 0 || nth >= len(o.subFields) {
		return ids.ObjInvalid
	}
	return o.subFields[nth]
}

// NumSubFields reports how many sub-objects obj currently has (0 for a
// scalar or not-yet-materialized aggregate field, §3.2).
func (h *Heap) NumSubFields(obj ids.ObjId) int {
	o, ok := h.objs.Get(obj)
	if !ok {
		return 0
	}
	return len(o.subFields)
}

// Offset returns the byte offset an address value carries relative to
// its root address (0 for a root address itself), and RootAddr returns
// that root. Exposed for heap/equal and heap/join, which compare two
// heaps' address values purely through the exported contract (§4.3,
// §4.4) rather than reaching into Heap's internals.
func (h *Heap) Offset(val ids.ValId) int {
	v, ok := h.vals.Get(val)
	if !ok {
		return 0
	}
	return v.offset
}

func (h *Heap) RootAddr(val ids.ValId) ids.ValId {
	v, ok := h.vals.Get(val)
	if !ok || v.root == 0 {
		return val
	}
	return v.root
}

// ValCode exposes a value's tag (§3.3), needed by equal/join to decide
// how two values should be compared.
func (h *Heap) ValCode(val ids.ValId) EValue {
	v, ok := h.vals.Get(val)
	if !ok {
		return VUnknown
	}
	return v.code
}

func (h *Heap) VarParent(obj ids.ObjId) ids.ObjId {
	o, ok := h.objs.Get(obj)
	if !ok {
		return ids.ObjInvalid
	}
	return o.parent
}

// IsLive reports whether obj still denotes a live storage location.
func (h *Heap) IsLive(obj ids.ObjId) bool {
	o, ok := h.objs.Get(obj)
	return ok && o.live
}
