package state

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarkedBehavesAsWithJoinWithPendingTracking(t *testing.T) {
	tb := newTypes()
	m := NewMarked(tb)

	require.True(t, m.Insert(intHeap(tb, 1)))
	require.Len(t, m.FetchPending(), 1)
	require.Empty(t, m.FetchPending())

	require.False(t, m.Insert(intHeap(tb, 1)), "USE_ANY: duplicate heap changes nothing")
	require.Empty(t, m.FetchPending())

	m.MarkAll()
	require.Len(t, m.FetchPending(), 1)
}
