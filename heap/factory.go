package heap

import (
	"symgo/diag"
	"symgo/internal/cltype"
	"symgo/internal/ids"
)

// RootCreate allocates a root object, its address value, and (if typ is
// aggregate) recursively its sub-tree (§4.2). New scalar sub-objects
// take the initial value VAL_UNINITIALIZED.
//
// cVarUID/inst identify a program variable (§3.2); pass hasCVar=false
// for an anonymous heap allocation whose type is known up front (rare;
// most anonymous allocations go through RootCreateAnon then DefineType,
// matching sl's malloc(n) followed by a later cast/use).
func (h *Heap) RootCreate(typ cltype.T, cVarUID int, inst int, hasCVar bool) (ids.ObjId, error) {
	if typ.Kind() == cltype.Int {
		switch h.types.Mode() {
		case cltype.StrictPointers:
			return ids.ObjInvalid, diag.ContractViolation("RootCreate",
				"CL_TYPE_INT used directly as a variable type under strict typing")
		case cltype.PromoteIntToPtr:
			// sl's "CL_TYPE_INT treated as pointer" compatibility hack
			// (§9 open question (b)): fall through, keep typ as-is; the
			// caller already resolved Int to mean "pointer-sized".
		}
	}

	obj := h.newRootSlot(cVarUID, inst, hasCVar, false)
	h.setType(obj, typ)
	return obj, nil
}

// RootCreateAnon allocates a typeless raw region of known byte size
// (§4.2), e.g. the result of malloc(n) before any cast gives it a type.
func (h *Heap) RootCreateAnon(sizeBytes int) ids.ObjId {
	obj := h.newRootSlot(0, 0, false, true)
	o, _ := h.objs.Get(obj)
	o.size = sizeBytes
	return obj
}

func (h *Heap) newRootSlot(cVarUID, inst int, hasCVar, isAnon bool) ids.ObjId {
	id := h.objs.Alloc(object{live: true, cVar: CVarKey{cVarUID, inst}, hasCVar: hasCVar, isAnon: isAnon})
	o, _ := h.objs.Get(id)
	o.root = id
	val := h.vals.Alloc(value{code: VHeap, pointsTo: id, usedBy: map[ids.ObjId]struct{}{}})
	o.placedAt = val
	o.value = ValUninitializedFor(h)
	v, _ := h.vals.Get(val)
	v.root = val
	if hasCVar {
		h.cVarIndex[CVarKey{cVarUID, inst}] = id
	}
	return id
}

// ValUninitializedFor is exported only for use inside the package's own
// sub-files (factory/access split) -- it is simply ids.ValUninitialized,
// kept as a function so a future per-heap uninitialized-value tracking
// scheme (e.g. tagging it with a type) has one call site to extend.
func ValUninitializedFor(h *Heap) ids.ValId { return ids.ValUninitialized }

// DefineType installs typ on an anonymous region and spawns its
// sub-tree; only legal on an anonymous object (§4.2). Fails if already
// typed.
func (h *Heap) DefineType(obj ids.ObjId, typ cltype.T) error {
	o, ok := h.objs.Get(obj)
	if !ok || !o.live {
		return diag.ContractViolation("DefineType", "object does not exist or was destroyed")
	}
	if o.hasType {
		return diag.ContractViolation("DefineType", "type redefinition not allowed")
	}
	h.setType(obj, typ)
	return nil
}

// setType installs typ on obj (already-allocated, typeless) and builds
// its sub-field tree, mirroring symheap.cc's createSubs.
func (h *Heap) setType(obj ids.ObjId, typ cltype.T) {
	o, _ := h.objs.Get(obj)
	o.hasType = true
	o.typ = typ
	o.size = typ.SizeBytes()
	o.isAnon = false

	if typ.Kind() != cltype.Struct && typ.Kind() != cltype.Union {
		return
	}

	// Composite: the object's own "value" becomes a COMPOSITE back-
	// reference to itself (V3), and one sub-object is created per field,
	// iteratively (explicit worklist) rather than recursively -- the
	// same "avoid recursion" idiom symheap.cc's createSubs/destroyVar
	// use via std::stack, kept here because a pointer graph's type tree
	// is not bounded the way a single call frame's locals are.
	compVal := h.vals.Alloc(value{code: VComposite, typ: typ, compositeOf: obj, usedBy: map[ids.ObjId]struct{}{}})
	o.value = compVal

	type pending struct {
		obj ids.ObjId
		typ cltype.T
	}
	stack := []pending{{obj, typ}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.typ.Kind() != cltype.Struct && top.typ.Kind() != cltype.Union {
			continue
		}
		parentObj, _ := h.objs.Get(top.obj)
		n := top.typ.NumFields()
		parentObj.subFields = make([]ids.ObjId, n)
		for i := 0; i < n; i++ {
			fi := top.typ.Field(i)
			sub := h.objs.Alloc(object{live: true, parent: top.obj, fieldOff: fi.Offset})
			subObj, _ := h.objs.Get(sub)
			subObj.root = h.rootOf(top.obj)
			parentObj, _ = h.objs.Get(top.obj) // re-fetch: Alloc may have grown the slice
			parentObj.subFields[i] = sub

			subVal := h.vals.Alloc(value{code: VHeap, pointsTo: ids.ObjInvalid, usedBy: map[ids.ObjId]struct{}{}})
			subObj.placedAt = subVal

			if fi.Type.Kind() == cltype.Struct || fi.Type.Kind() == cltype.Union {
				subObj.hasType = true
				subObj.typ = fi.Type
				subObj.size = fi.Type.SizeBytes()
				stack = append(stack, pending{sub, fi.Type})
			} else {
				subObj.hasType = true
				subObj.typ = fi.Type
				subObj.size = fi.Type.SizeBytes()
				subObj.value = ids.ValUninitialized
			}
		}
	}
}

// rootOf walks the parent chain to find obj's root (I1/I2).
func (h *Heap) rootOf(obj ids.ObjId) ids.ObjId {
	o, ok := h.objs.Get(obj)
	if !ok {
		return obj
	}
	if o.parent == ids.ObjInvalid {
		return obj
	}
	return h.rootOf(o.parent)
}

// Destroy recursively destroys a root object (§3.5, §4.2). Destroying a
// non-root is a category-2 contract violation.
//
// Destroy(OBJ_RETURN) is legal (boundary case B2): it re-initializes the
// return slot to VAL_UNINITIALIZED instead of removing anything from an
// arena, since OBJ_RETURN is never arena-backed.
func (h *Heap) Destroy(obj ids.ObjId) error {
	if obj == ids.ObjReturn {
		h.retValue = ids.ValUninitialized
		return nil
	}

	o, ok := h.objs.Get(obj)
	if !ok {
		return diag.ContractViolation("Destroy", "object does not exist")
	}
	if o.parent != ids.ObjInvalid {
		return diag.ContractViolation("Destroy", "not a root object")
	}

	isHeapVar := !o.hasCVar

	// Explicit-stack traversal to avoid recursion on deep sub-trees,
	// matching symheap.cc's destroyVar.
	stack := []ids.ObjId{obj}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		co, ok := h.objs.Get(cur)
		if !ok {
			continue
		}
		stack = append(stack, co.subFields...)
		h.destroySingle(cur, co, isHeapVar)
	}

	return nil
}

func (h *Heap) destroySingle(id ids.ObjId, o *object, isHeapVar bool) {
	if o.hasCVar {
		delete(h.cVarIndex, o.cVar)
	}

	h.releaseValueOfVal(id, o.value)

	target := ids.ObjDeleted
	if !isHeapVar {
		target = ids.ObjLost
	}
	if pv, ok := h.vals.Get(o.placedAt); ok {
		pv.pointsTo = target
	}

	o.live = false
}
