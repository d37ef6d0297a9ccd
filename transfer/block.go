package transfer

import (
	"context"

	"symgo/diag"
	"symgo/heap"
	"symgo/internal/clir"
	"symgo/internal/ids"
)

// Block executes bb's instructions against h in order, returning the
// heaps that reach each successor block. Grounded on pointer/gen.go's
// genInstr: one case per instruction kind, each expressed as a handful
// of heap.Heap calls rather than a general interpreter.
func Block(ctx context.Context, env *Env, h *heap.Heap, bb *clir.Block) (map[*clir.Block][]*heap.Heap, error) {
	var call *callState

	for _, instr := range bb.Instrs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		loc := diag.Loc{File: instr.Loc.File, Line: instr.Loc.Line, Col: instr.Loc.Col}

		switch instr.Kind {
		case clir.IUnop:
			if err := execUnop(h, env, loc, instr); err != nil {
				return nil, err
			}

		case clir.IBinop:
			if err := execBinop(h, env, loc, instr); err != nil {
				return nil, err
			}

		case clir.ICallOpen:
			call = &callState{fnc: instr.CallFnc.FncName}
			if instr.CallDst.Kind == clir.OpVar {
				call.dst = resolveLValue(h, instr.CallDst.Var)
				call.hasDst = true
			}

		case clir.ICallArg:
			if call == nil {
				return nil, diag.ContractViolation("transfer.Block", "call_arg outside a call_open/call_close pair")
			}
			call.args = append(call.args, resolveOperand(h, env, instr.CallArg))

		case clir.ICallClose:
			if call == nil {
				return nil, diag.ContractViolation("transfer.Block", "call_close without a matching call_open")
			}
			if err := execCall(h, env, loc, call); err != nil {
				return nil, err
			}
			call = nil

		case clir.IJmp:
			return singleSucc(bb, instr.JmpLabel, h), nil

		case clir.ICond:
			return execCond(h, env, bb, instr), nil

		case clir.IRet:
			if instr.HasRet {
				val := resolveOperand(h, env, instr.RetSrc)
				if err := h.WriteValue(ids.ObjReturn, val); err != nil {
					return nil, err
				}
			}
			checkLeaks(h, loc)
			return nil, nil
		}
	}

	// A block with no terminator instruction (malformed IR) simply has
	// no successors, rather than panicking on a missing case above.
	return nil, nil
}

type callState struct {
	fnc    string
	args   []ids.ValId
	dst    ids.ObjId
	hasDst bool
}

func execCall(h *heap.Heap, env *Env, loc diag.Loc, call *callState) error {
	if fn, ok := env.Intrinsics[call.fnc]; ok {
		return fn(h, env, loc, call.args, call.dst, call.hasDst)
	}
	// Opaque external call: its effect on the heap is unknown, so any
	// destination just gets VAL_UNKNOWN rather than being left stale.
	if call.hasDst {
		return h.WriteValue(call.dst, ids.ValUnknown)
	}
	return nil
}

func execUnop(h *heap.Heap, env *Env, loc diag.Loc, instr clir.Instr) error {
	dstObj := resolveLValue(h, instr.Dst.Var)

	switch instr.UnopOp {
	case clir.UnopAssign:
		return h.WriteValue(dstObj, resolveOperand(h, env, instr.Src))

	case clir.UnopAddrOf:
		srcObj := resolveLValue(h, instr.Src.Var)
		return h.WriteValue(dstObj, h.AddressOf(srcObj))

	case clir.UnopDeref:
		srcVal := resolveOperand(h, env, instr.Src)
		target := h.Target(srcVal)
		if target == ids.ObjInvalid {
			h.Sink().Report(diag.NullDeref, loc, "dereference of a null pointer")
			return h.WriteValue(dstObj, ids.ValUnknown)
		}
		if target.IsSentinel() || !h.IsLive(target) {
			h.Sink().Report(diag.InvalidDeref, loc, "dereference of an invalid pointer")
			return h.WriteValue(dstObj, ids.ValUnknown)
		}
		val := h.ReadValue(target)
		if val == ids.ValUninitialized {
			h.Sink().Report(diag.UseOfUninitialized, loc, "read of an uninitialized value")
		}
		return h.WriteValue(dstObj, val)

	case clir.UnopNot:
		src := resolveOperand(h, env, instr.Src)
		switch src {
		case ids.ValTrue:
			return h.WriteValue(dstObj, ids.ValFalse)
		case ids.ValFalse:
			return h.WriteValue(dstObj, ids.ValTrue)
		default:
			return h.WriteValue(dstObj, ids.ValUnknown)
		}
	}
	return nil
}

func execBinop(h *heap.Heap, env *Env, loc diag.Loc, instr clir.Instr) error {
	dstObj := resolveLValue(h, instr.Dst.Var)
	v1 := resolveOperand(h, env, instr.Src1)
	v2 := resolveOperand(h, env, instr.Src2)

	switch instr.BinopOp {
	case clir.BinopEq, clir.BinopNe:
		eq := sameValue(h, v1, v2)
		neq := h.ProveNeq(v1, v2)
		result := ids.ValUnknown
		switch {
		case eq:
			result = ids.ValTrue
		case neq:
			result = ids.ValFalse
		}
		if instr.BinopOp == clir.BinopNe && result != ids.ValUnknown {
			if result == ids.ValTrue {
				result = ids.ValFalse
			} else {
				result = ids.ValTrue
			}
		}
		return h.WriteValue(dstObj, result)

	case clir.BinopAdd:
		if _, cv, ok := h.ValGetCustom(v2); ok {
			res, err := h.OffsetBy(v1, cv)
			if err != nil {
				return h.WriteValue(dstObj, ids.ValUnknown)
			}
			return h.WriteValue(dstObj, res)
		}
		return h.WriteValue(dstObj, ids.ValUnknown)

	default:
		return h.WriteValue(dstObj, ids.ValUnknown)
	}
}

func sameValue(h *heap.Heap, a, b ids.ValId) bool {
	if a == b {
		return true
	}
	ca, cb := h.ValCode(a), h.ValCode(b)
	if ca != heap.VCustom || cb != heap.VCustom {
		return false
	}
	ta, va, oka := h.ValGetCustom(a)
	tb, vb, okb := h.ValGetCustom(b)
	return oka && okb && ta == tb && va == vb
}

func execCond(h *heap.Heap, env *Env, bb *clir.Block, instr clir.Instr) map[*clir.Block][]*heap.Heap {
	val := resolveOperand(h, env, instr.CondSrc)
	trueBB := findSucc(bb, instr.LabelTrue)
	falseBB := findSucc(bb, instr.LabelFalse)

	out := map[*clir.Block][]*heap.Heap{}
	switch val {
	case ids.ValTrue:
		if trueBB != nil {
			out[trueBB] = []*heap.Heap{h}
		}
	case ids.ValFalse:
		if falseBB != nil {
			out[falseBB] = []*heap.Heap{h}
		}
	default:
		// Unknown truth value: fork, one clone down each edge (§4.6).
		if trueBB != nil {
			out[trueBB] = []*heap.Heap{h.Clone()}
		}
		if falseBB != nil {
			out[falseBB] = []*heap.Heap{h}
		}
	}
	return out
}

func singleSucc(bb *clir.Block, label string, h *heap.Heap) map[*clir.Block][]*heap.Heap {
	target := findSucc(bb, label)
	if target == nil {
		return nil
	}
	return map[*clir.Block][]*heap.Heap{target: {h}}
}

func findSucc(bb *clir.Block, label string) *clir.Block {
	for _, s := range bb.Succs {
		if s.Label == label {
			return s
		}
	}
	return nil
}

func resolveLValue(h *heap.Heap, ref clir.VarRef) ids.ObjId {
	obj := h.VarByCVar(ref.CVarUID, ref.Inst)
	for _, f := range ref.Fields {
		obj = h.SubVar(obj, f)
	}
	return obj
}

func resolveOperand(h *heap.Heap, env *Env, op clir.Operand) ids.ValId {
	switch op.Kind {
	case clir.OpVar:
		return h.ReadValue(resolveLValue(h, op.Var))
	case clir.OpIntLit:
		return h.ValCreateCustom(env.IntType, int(op.IntVal))
	case clir.OpStrLit:
		return h.ValCreateCustom(env.StrType, env.internString(op.StrVal))
	case clir.OpFncLit:
		return h.ValCreateCustom(env.FncType, env.internFnc(op.FncName))
	default:
		return ids.ValUnknown
	}
}

// checkLeaks flags every root the function's own variables no longer
// reach, once it has returned (§7.1 Leak / PossibleLeak, S4/S5 of §8).
func checkLeaks(h *heap.Heap, loc diag.Loc) {
	reached := h.ReachableRoots()
	for _, addr := range h.GatherRootObjects() {
		obj := h.Target(addr)
		if _, ok := reached[obj]; ok {
			continue
		}
		if h.Kind(obj) != heap.Concrete {
			h.Sink().Report(diag.PossibleLeak, loc, "abstract region unreachable at return")
		} else {
			h.Sink().Report(diag.Leak, loc, "heap region unreachable at return")
		}
	}
}
