package transfer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"symgo/diag"
	"symgo/heap"
	"symgo/internal/clir"
	"symgo/internal/cltype"
	"symgo/internal/ids"
)

func newTestEnv() (*cltype.Table, *Env) {
	tb := cltype.NewTable(cltype.StrictPointers)
	return tb, NewEnv(tb)
}

func TestBlockUnopAssignCopiesValue(t *testing.T) {
	tb, env := newTestEnv()
	h := heap.New(tb)
	src, _ := h.RootCreate(env.IntType, 1, 0, true)
	require.NoError(t, h.WriteValue(src, h.ValCreateCustom(env.IntType, 7)))
	dst, _ := h.RootCreate(env.IntType, 2, 0, true)

	bb := &clir.Block{Label: "entry", Instrs: []clir.Instr{
		{Kind: clir.IUnop, UnopOp: clir.UnopAssign, Dst: clir.Var(2), Src: clir.Var(1)},
		{Kind: clir.IRet},
	}}

	_, err := Block(context.Background(), env, h, bb)
	require.NoError(t, err)
	require.Equal(t, h.ReadValue(src), h.ReadValue(dst))
}

func TestBlockUnopAddrOfThenDerefRoundtrips(t *testing.T) {
	tb, env := newTestEnv()
	ptrT := tb.Pointer(env.IntType, 8)
	h := heap.New(tb)
	target, _ := h.RootCreate(env.IntType, 1, 0, true)
	require.NoError(t, h.WriteValue(target, h.ValCreateCustom(env.IntType, 3)))
	ptr, _ := h.RootCreate(ptrT, 2, 0, true)
	deref, _ := h.RootCreate(env.IntType, 3, 0, true)

	bb := &clir.Block{Label: "entry", Instrs: []clir.Instr{
		{Kind: clir.IUnop, UnopOp: clir.UnopAddrOf, Dst: clir.Var(2), Src: clir.Var(1)},
		{Kind: clir.IUnop, UnopOp: clir.UnopDeref, Dst: clir.Var(3), Src: clir.Var(2)},
		{Kind: clir.IRet},
	}}

	_, err := Block(context.Background(), env, h, bb)
	require.NoError(t, err)
	require.Equal(t, h.ReadValue(target), h.ReadValue(deref))
	require.Equal(t, 0, h.Sink().Len())
}

func TestBlockUnopDerefOfNullReportsNullDeref(t *testing.T) {
	tb, env := newTestEnv()
	ptrT := tb.Pointer(env.IntType, 8)
	h := heap.New(tb)
	ptr, _ := h.RootCreate(ptrT, 1, 0, true)
	require.NoError(t, h.WriteValue(ptr, ids.ValNull))
	dst, _ := h.RootCreate(env.IntType, 2, 0, true)

	bb := &clir.Block{Label: "entry", Instrs: []clir.Instr{
		{Kind: clir.IUnop, UnopOp: clir.UnopDeref, Dst: clir.Var(2), Src: clir.Var(1)},
		{Kind: clir.IRet},
	}}

	_, err := Block(context.Background(), env, h, bb)
	require.NoError(t, err)
	require.Equal(t, 1, h.Sink().Len())
	require.Equal(t, diag.NullDeref, h.Sink().Defects()[0].Kind)
	require.Equal(t, ids.ValUnknown, h.ReadValue(dst))
}

func TestBlockUnopDerefOfUninitializedReportsUseOfUninitialized(t *testing.T) {
	tb, env := newTestEnv()
	ptrT := tb.Pointer(env.IntType, 8)
	h := heap.New(tb)
	target := h.RootCreateAnon(4)
	require.NoError(t, h.DefineType(target, env.IntType))
	ptr, _ := h.RootCreate(ptrT, 1, 0, true)
	require.NoError(t, h.WriteValue(ptr, h.AddressOf(target)))
	dst, _ := h.RootCreate(env.IntType, 2, 0, true)

	bb := &clir.Block{Label: "entry", Instrs: []clir.Instr{
		{Kind: clir.IUnop, UnopOp: clir.UnopDeref, Dst: clir.Var(2), Src: clir.Var(1)},
		{Kind: clir.IRet},
	}}

	_, err := Block(context.Background(), env, h, bb)
	require.NoError(t, err)
	require.Equal(t, diag.UseOfUninitialized, h.Sink().Defects()[0].Kind)
}

func TestBlockBinopEqAndNeOnEqualValues(t *testing.T) {
	tb, env := newTestEnv()
	h := heap.New(tb)
	a, _ := h.RootCreate(env.IntType, 1, 0, true)
	b, _ := h.RootCreate(env.IntType, 2, 0, true)
	cust := h.ValCreateCustom(env.IntType, 5)
	require.NoError(t, h.WriteValue(a, cust))
	require.NoError(t, h.WriteValue(b, cust))
	eqDst, _ := h.RootCreate(env.IntType, 3, 0, true)

	bb := &clir.Block{Label: "entry", Instrs: []clir.Instr{
		{Kind: clir.IBinop, BinopOp: clir.BinopEq, Dst: clir.Var(3), Src1: clir.Var(1), Src2: clir.Var(2)},
		{Kind: clir.IRet},
	}}
	_, err := Block(context.Background(), env, h, bb)
	require.NoError(t, err)
	require.Equal(t, ids.ValTrue, h.ReadValue(eqDst))
}

func TestBlockBinopAddOffsetsPointer(t *testing.T) {
	tb, env := newTestEnv()
	arrT := tb.Array(env.IntType, 4)
	ptrT := tb.Pointer(env.IntType, 8)
	h := heap.New(tb)
	arr, _ := h.RootCreate(arrT, 1, 0, true)
	base := h.AddressOf(arr)
	baseVar, _ := h.RootCreate(ptrT, 2, 0, true)
	require.NoError(t, h.WriteValue(baseVar, base))
	offConst, _ := h.RootCreate(env.IntType, 3, 0, true)
	require.NoError(t, h.WriteValue(offConst, h.ValCreateCustom(env.IntType, 4)))
	dst, _ := h.RootCreate(ptrT, 4, 0, true)

	bb := &clir.Block{Label: "entry", Instrs: []clir.Instr{
		{Kind: clir.IBinop, BinopOp: clir.BinopAdd, Dst: clir.Var(4), Src1: clir.Var(2), Src2: clir.Var(3)},
		{Kind: clir.IRet},
	}}
	_, err := Block(context.Background(), env, h, bb)
	require.NoError(t, err)
	require.NotEqual(t, ids.ValUnknown, h.ReadValue(dst))
}

func TestBlockCondForksOnUnknownTruthValue(t *testing.T) {
	tb, env := newTestEnv()
	h := heap.New(tb)
	cond, _ := h.RootCreate(env.IntType, 1, 0, true)
	require.NoError(t, h.WriteValue(cond, ids.ValUnknown))

	tBlk := &clir.Block{Label: "t", Instrs: []clir.Instr{{Kind: clir.IRet}}}
	fBlk := &clir.Block{Label: "f", Instrs: []clir.Instr{{Kind: clir.IRet}}}
	entry := &clir.Block{
		Label:  "entry",
		Instrs: []clir.Instr{{Kind: clir.ICond, CondSrc: clir.Var(1), LabelTrue: "t", LabelFalse: "f"}},
		Succs:  []*clir.Block{tBlk, fBlk},
	}

	succs, err := Block(context.Background(), env, h, entry)
	require.NoError(t, err)
	require.Len(t, succs, 2)
	require.NotSame(t, succs[tBlk][0], succs[fBlk][0], "an unknown condition forks into independent clones")
}

func TestBlockCondTakesKnownBranchOnly(t *testing.T) {
	tb, env := newTestEnv()
	h := heap.New(tb)
	cond, _ := h.RootCreate(env.IntType, 1, 0, true)
	require.NoError(t, h.WriteValue(cond, ids.ValTrue))

	tBlk := &clir.Block{Label: "t"}
	fBlk := &clir.Block{Label: "f"}
	entry := &clir.Block{
		Label:  "entry",
		Instrs: []clir.Instr{{Kind: clir.ICond, CondSrc: clir.Var(1), LabelTrue: "t", LabelFalse: "f"}},
		Succs:  []*clir.Block{tBlk, fBlk},
	}

	succs, err := Block(context.Background(), env, h, entry)
	require.NoError(t, err)
	require.Len(t, succs, 1)
	_, hasTrue := succs[tBlk]
	require.True(t, hasTrue)
}

func TestBlockCallOpenArgCloseInvokesMallocIntrinsic(t *testing.T) {
	tb, env := newTestEnv()
	ptrT := tb.Pointer(env.IntType, 8)
	h := heap.New(tb)
	sizeVar, _ := h.RootCreate(env.IntType, 1, 0, true)
	require.NoError(t, h.WriteValue(sizeVar, h.ValCreateCustom(env.IntType, 4)))
	dst, _ := h.RootCreate(ptrT, 2, 0, true)

	bb := &clir.Block{Label: "entry", Instrs: []clir.Instr{
		{Kind: clir.ICallOpen, CallFnc: clir.FncLit("malloc"), CallDst: clir.Var(2)},
		{Kind: clir.ICallArg, CallArg: clir.Var(1)},
		{Kind: clir.ICallClose},
		{Kind: clir.IRet},
	}}

	_, err := Block(context.Background(), env, h, bb)
	require.NoError(t, err)
	target := h.Target(h.ReadValue(dst))
	require.True(t, h.IsLive(target))
}

func TestBlockCallOpenOfUnknownExternalFuncWritesUnknown(t *testing.T) {
	tb, env := newTestEnv()
	h := heap.New(tb)
	dst, _ := h.RootCreate(env.IntType, 1, 0, true)
	require.NoError(t, h.WriteValue(dst, h.ValCreateCustom(env.IntType, 1)))

	bb := &clir.Block{Label: "entry", Instrs: []clir.Instr{
		{Kind: clir.ICallOpen, CallFnc: clir.FncLit("some_external"), CallDst: clir.Var(1)},
		{Kind: clir.ICallClose},
		{Kind: clir.IRet},
	}}

	_, err := Block(context.Background(), env, h, bb)
	require.NoError(t, err)
	require.Equal(t, ids.ValUnknown, h.ReadValue(dst))
}

func TestBlockCallArgWithoutOpenIsAContractViolation(t *testing.T) {
	tb, env := newTestEnv()
	h := heap.New(tb)
	bb := &clir.Block{Label: "entry", Instrs: []clir.Instr{
		{Kind: clir.ICallArg, CallArg: clir.IntLit(1)},
	}}
	_, err := Block(context.Background(), env, h, bb)
	require.Error(t, err)
}

func TestBlockRetReportsLeakForUnreachableHeapRegion(t *testing.T) {
	tb, env := newTestEnv()
	h := heap.New(tb)
	obj := h.RootCreateAnon(4)
	require.NoError(t, h.DefineType(obj, env.IntType))
	// no program variable points at obj: it is unreachable at return.

	bb := &clir.Block{Label: "entry", Instrs: []clir.Instr{{Kind: clir.IRet}}}
	_, err := Block(context.Background(), env, h, bb)
	require.NoError(t, err)
	require.Equal(t, 1, h.Sink().Len())
	require.Equal(t, diag.Leak, h.Sink().Defects()[0].Kind)
}

func TestBlockRetWritesReturnValueWhenPresent(t *testing.T) {
	tb, env := newTestEnv()
	h := heap.New(tb)
	src, _ := h.RootCreate(env.IntType, 1, 0, true)
	require.NoError(t, h.WriteValue(src, h.ValCreateCustom(env.IntType, 11)))

	bb := &clir.Block{Label: "entry", Instrs: []clir.Instr{
		{Kind: clir.IRet, HasRet: true, RetSrc: clir.Var(1)},
	}}
	_, err := Block(context.Background(), env, h, bb)
	require.NoError(t, err)
	require.Equal(t, h.ReadValue(src), h.ReadValue(ids.ObjReturn))
}

func TestBlockJmpFollowsSingleSuccessor(t *testing.T) {
	tb, env := newTestEnv()
	h := heap.New(tb)
	target := &clir.Block{Label: "target"}
	entry := &clir.Block{
		Label:  "entry",
		Instrs: []clir.Instr{{Kind: clir.IJmp, JmpLabel: "target"}},
		Succs:  []*clir.Block{target},
	}
	succs, err := Block(context.Background(), env, h, entry)
	require.NoError(t, err)
	require.Contains(t, succs, target)
}

func TestResolveOperandLiterals(t *testing.T) {
	tb, env := newTestEnv()
	h := heap.New(tb)

	iv := resolveOperand(h, env, clir.IntLit(42))
	_, n, ok := h.ValGetCustom(iv)
	require.True(t, ok)
	require.Equal(t, 42, n)

	sv := resolveOperand(h, env, clir.StrLit("hi"))
	_, sid, ok := h.ValGetCustom(sv)
	require.True(t, ok)
	require.Equal(t, env.internString("hi"), sid)
}
