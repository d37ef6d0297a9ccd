package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"symgo/internal/clir"
)

func TestMapInsertTracksInboundEdgesInFirstSeenOrder(t *testing.T) {
	tb := newTypes()
	m := NewMap(tb, 0)

	entry := &clir.Block{Label: "entry"}
	a := &clir.Block{Label: "a"}
	b := &clir.Block{Label: "b"}
	join := &clir.Block{Label: "join"}

	m.Insert(entry, nil, intHeap(tb, 1))
	m.Insert(join, a, intHeap(tb, 1))
	m.Insert(join, b, intHeap(tb, 2))
	m.Insert(join, a, intHeap(tb, 3))

	require.Equal(t, []*clir.Block{a, b}, m.GatherInboundEdges(join))
	require.Empty(t, m.GatherInboundEdges(entry), "entry has no predecessor edges")
}

func TestMapHeapsAndFetchPendingDelegateToTheActiveContainer(t *testing.T) {
	tb := newTypes()
	m := NewMap(tb, 0)
	bb := &clir.Block{Label: "bb"}

	m.Insert(bb, nil, intHeap(tb, 1))
	require.Len(t, m.Heaps(bb), 1)

	pending := m.FetchPending(bb)
	require.Len(t, pending, 1)
	require.Empty(t, m.FetchPending(bb))

	m.MarkAll(bb)
	require.Len(t, m.FetchPending(bb), 1)
}

func TestMapMigratesToWideningOnceThresholdReached(t *testing.T) {
	tb := newTypes()
	m := NewMap(tb, 2)
	bb := &clir.Block{Label: "bb"}

	m.Insert(bb, nil, intHeap(tb, 1))
	require.Len(t, m.Heaps(bb), 1, "below threshold: still a plain union")

	m.Insert(bb, nil, intHeap(tb, 2))
	require.Len(t, m.Heaps(bb), 1, "at threshold: migrated to widening, which folds the divergent scalar")
}

func TestMapNeverWidensWhenThresholdIsZero(t *testing.T) {
	tb := newTypes()
	m := NewMap(tb, 0)
	bb := &clir.Block{Label: "bb"}

	m.Insert(bb, nil, intHeap(tb, 1))
	m.Insert(bb, nil, intHeap(tb, 2))
	require.Len(t, m.Heaps(bb), 2, "threshold <= 0 means never widen")
}
