package transfer

import (
	"symgo/diag"
	"symgo/heap"
	"symgo/internal/ids"
)

// IntrinsicFunc models a well-known callee's effect on the heap directly,
// the same shortcut pointer/gen.go's findIntrinsic takes for standard-
// library functions whose bodies aren't worth (or able to be) analyzed.
type IntrinsicFunc func(h *heap.Heap, env *Env, loc diag.Loc, args []ids.ValId, dst ids.ObjId, hasDst bool) error

// DefaultIntrinsics recognizes malloc/free by name (§3.7).
func DefaultIntrinsics() map[string]IntrinsicFunc {
	return map[string]IntrinsicFunc{
		"malloc": mallocIntrinsic,
		"free":   freeIntrinsic,
	}
}

func mallocIntrinsic(h *heap.Heap, env *Env, loc diag.Loc, args []ids.ValId, dst ids.ObjId, hasDst bool) error {
	size := 0
	if len(args) > 0 {
		if _, cv, ok := h.ValGetCustom(args[0]); ok {
			size = cv
		}
	}
	obj := h.RootCreateAnon(size)
	if hasDst {
		return h.WriteValue(dst, h.AddressOf(obj))
	}
	return nil
}

func freeIntrinsic(h *heap.Heap, env *Env, loc diag.Loc, args []ids.ValId, dst ids.ObjId, hasDst bool) error {
	if len(args) == 0 {
		return nil
	}
	target := h.Target(args[0])
	if target == ids.ObjInvalid {
		return nil // free(NULL) is a no-op, not a defect
	}
	if target == ids.ObjDeleted {
		h.Sink().Report(diag.DoubleFree, loc, "target already freed")
		return nil
	}
	if target.IsSentinel() || !h.IsLive(target) {
		h.Sink().Report(diag.InvalidDeref, loc, "free of an invalid pointer")
		return nil
	}
	return h.Destroy(target)
}
