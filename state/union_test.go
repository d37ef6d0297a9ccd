package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"symgo/heap"
	"symgo/internal/cltype"
)

func newTypes() *cltype.Table { return cltype.NewTable(cltype.StrictPointers) }

// intTypes holds one int handle per table: every Scalar call mints a new
// handle, and heaps typed by different handles never compare equal.
var intTypes = map[*cltype.Table]cltype.T{}

func intHeap(tb *cltype.Table, n int) *heap.Heap {
	intT, ok := intTypes[tb]
	if !ok {
		intT = tb.Scalar(cltype.Int, 4, "int")
		intTypes[tb] = intT
	}
	h := heap.New(tb)
	obj, _ := h.RootCreate(intT, 1, 0, true)
	h.WriteValue(obj, h.ValCreateCustom(intT, n))
	return h
}

func TestUnionInsertDedupsStructurallyEqualHeaps(t *testing.T) {
	tb := newTypes()
	u := NewUnion()
	require.True(t, u.Insert(intHeap(tb, 1)))
	require.False(t, u.Insert(intHeap(tb, 1)))
	require.Equal(t, 1, u.Size())
}

func TestUnionInsertKeepsDistinctHeaps(t *testing.T) {
	tb := newTypes()
	u := NewUnion()
	require.True(t, u.Insert(intHeap(tb, 1)))
	require.True(t, u.Insert(intHeap(tb, 2)))
	require.Equal(t, 2, u.Size())
}

func TestUnionFetchPendingClearsBits(t *testing.T) {
	tb := newTypes()
	u := NewUnion()
	u.Insert(intHeap(tb, 1))

	pending := u.FetchPending()
	require.Len(t, pending, 1)
	require.Empty(t, u.FetchPending(), "bits were cleared by the first fetch")
}

func TestUnionMarkAllResetsPendingBits(t *testing.T) {
	tb := newTypes()
	u := NewUnion()
	u.Insert(intHeap(tb, 1))
	u.FetchPending()
	require.Empty(t, u.FetchPending())

	u.MarkAll()
	require.Len(t, u.FetchPending(), 1)
}

func TestUnionInsertAllMergesDistinctOnly(t *testing.T) {
	tb := newTypes()
	a := NewUnion()
	a.Insert(intHeap(tb, 1))
	b := NewUnion()
	b.Insert(intHeap(tb, 1))
	b.Insert(intHeap(tb, 2))

	a.InsertAll(b)
	require.Equal(t, 2, a.Size())
}
