package heap

import (
	"symgo/diag"
	"symgo/internal/ids"
)

// Abstract promotes obj in place into an abstract segment of the given
// kind/binding/minLen (§4.2, gated by the entailment rules of §4.4). The
// join package is the primary caller: when it decides two lockstep
// objects should collapse into one abstraction in the result heap, it
// builds that single merged node and calls Abstract once to tag it,
// rather than Abstract itself walking a chain -- the chain-walking
// logic belongs to join's lockstep traversal (§4.4 algorithm sketch).
func (h *Heap) Abstract(obj ids.ObjId, kind ObjKind, binding BindingOff, minLen int) error {
	o, ok := h.objs.Get(obj)
	if !ok || !o.live {
		return diag.ContractViolation("Abstract", "object does not exist or was destroyed")
	}
	if minLen < 0 || minLen > 2 {
		return diag.ContractViolation("Abstract", "minLen must be in {0,1,2} (I4)")
	}
	if kind == MayExist && minLen != 0 {
		return diag.ContractViolation("Abstract", "MAY_EXIST requires minLen == 0 (I4)")
	}
	if kind != Concrete {
		if !o.hasType {
			return diag.ContractViolation("Abstract", "a non-concrete kind requires a known type (I3)")
		}
		if binding.Next < 0 || binding.Next >= o.size {
			return diag.ContractViolation("Abstract", "BindingOff.Next must lie inside the object's type (I3)")
		}
	}
	o.kind = kind
	o.binding = binding
	o.minLen = minLen
	return nil
}

// Concretize turns an abstract segment object back into one concrete
// node ("head") plus the remaining abstraction ("rest") (§4.2). rest is
// OBJ_INVALID only when obj was a MAY_EXIST node; a segment always
// yields a rest object, MAY_EXIST when its remaining minLen is 0.
//
// head reuses obj's id, so every existing pointer already targeting
// obj's address keeps working without rewriting -- this is what makes
// R1 (abstract then concretize yields a heap equal to the original)
// hold for the single-fold case this package implements: abstraction
// beyond one fold is built by repeated Abstract/Concretize calls from
// join, not by a single operation walking an arbitrary-length chain.
func (h *Heap) Concretize(obj ids.ObjId) (head ids.ObjId, rest ids.ObjId, err error) {
	o, ok := h.objs.Get(obj)
	if !ok || !o.live {
		return ids.ObjInvalid, ids.ObjInvalid, diag.ContractViolation("Concretize", "object does not exist or was destroyed")
	}
	if o.kind == Concrete {
		return ids.ObjInvalid, ids.ObjInvalid, diag.ContractViolation("Concretize", "object is already concrete")
	}

	kind, binding, minLen, typ, size := o.kind, o.binding, o.minLen, o.typ, o.size
	o.kind = Concrete
	o.binding = BindingOff{}
	o.minLen = 0

	if minLen <= 1 {
		if kind == MayExist {
			return obj, ids.ObjInvalid, nil
		}
	}

	restMinLen := minLen - 1
	if restMinLen < 0 {
		restMinLen = 0
	}
	restKind := kind
	if restMinLen == 0 {
		restKind = MayExist
	}

	rest = h.newRootSlot(0, 0, false, true)
	ro, _ := h.objs.Get(rest)
	ro.hasType = true
	ro.typ = typ
	ro.size = size
	ro.kind = restKind
	ro.binding = binding
	ro.minLen = restMinLen

	// Wire head.next (the field at binding.Next within obj's sub-tree, if
	// any) to rest's address; segments over anonymous/raw regions (no
	// sub-field tree) model the link purely through binding.Next's byte
	// offset rather than a named field object.
	if sub := h.findSubAt(obj, binding.Next); sub != ids.ObjInvalid {
		if err := h.WriteValue(sub, h.AddressOf(rest)); err != nil {
			return ids.ObjInvalid, ids.ObjInvalid, err
		}
	}

	return obj, rest, nil
}

// Kind / Binding / MinLen expose an object's abstraction state, read by
// join and the diagnostic plotter.
func (h *Heap) Kind(obj ids.ObjId) ObjKind {
	o, ok := h.objs.Get(obj)
	if !ok {
		return Concrete
	}
	return o.kind
}

func (h *Heap) Binding(obj ids.ObjId) BindingOff {
	o, ok := h.objs.Get(obj)
	if !ok {
		return BindingOff{}
	}
	return o.binding
}

func (h *Heap) MinLen(obj ids.ObjId) int {
	o, ok := h.objs.Get(obj)
	if !ok {
		return 0
	}
	return o.minLen
}
