package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"symgo/internal/cltype"
)

func TestWithJoinFirstInsertAppends(t *testing.T) {
	tb := newTypes()
	w := NewWithJoin(tb)
	require.True(t, w.Insert(intHeap(tb, 1)))
	require.Equal(t, 1, w.Size())
}

func TestWithJoinIdenticalHeapUsesAnyAndStaysUnchanged(t *testing.T) {
	tb := newTypes()
	w := NewWithJoin(tb)
	w.Insert(intHeap(tb, 1))

	changed := w.Insert(intHeap(tb, 1))
	require.False(t, changed, "USE_ANY: the existing heap already covers the new one")
	require.Equal(t, 1, w.Size())
}

func TestWithJoinDivergentScalarsWidenInPlace(t *testing.T) {
	tb := newTypes()
	w := NewWithJoin(tb)
	w.Insert(intHeap(tb, 1))

	changed := w.Insert(intHeap(tb, 2))
	require.True(t, changed, "THREE_WAY: the joined widening replaces the existing slot")
	require.Equal(t, 1, w.Size(), "joining widens in place rather than appending a second heap")
}

func TestWithJoinMismatchedCVarSetsFallsBackToAppend(t *testing.T) {
	tb := newTypes()
	intT := tb.Scalar(cltype.Int, 4, "int")

	w := NewWithJoin(tb)
	w.Insert(intHeap(tb, 1))

	h2 := intHeap(tb, 1)
	obj2, _ := h2.RootCreate(intT, 2, 0, true)
	h2.WriteValue(obj2, h2.ValCreateCustom(intT, 9))

	changed := w.Insert(h2)
	require.True(t, changed)
	require.Equal(t, 2, w.Size(), "join fails on mismatched cVar sets, so the heap is appended instead")
}
