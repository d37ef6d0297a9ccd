package fixpoint

import (
	"testing"

	"github.com/stretchr/testify/require"

	"symgo/internal/clir"
)

func TestReversePostorderRanksEntryFirst(t *testing.T) {
	entry := &clir.Block{Label: "entry"}
	mid := &clir.Block{Label: "mid"}
	exit := &clir.Block{Label: "exit"}
	entry.Succs = []*clir.Block{mid}
	mid.Succs = []*clir.Block{exit}

	rank := reversePostorder(entry)
	require.Less(t, rank[entry], rank[mid])
	require.Less(t, rank[mid], rank[exit])
}

func TestReversePostorderHandlesDiamondAndCycles(t *testing.T) {
	entry := &clir.Block{Label: "entry"}
	a := &clir.Block{Label: "a"}
	b := &clir.Block{Label: "b"}
	join := &clir.Block{Label: "join"}
	entry.Succs = []*clir.Block{a, b}
	a.Succs = []*clir.Block{join}
	b.Succs = []*clir.Block{join}
	join.Succs = []*clir.Block{entry} // back edge

	rank := reversePostorder(entry)
	require.Len(t, rank, 4)
	require.Less(t, rank[entry], rank[a])
	require.Less(t, rank[entry], rank[b])
	require.Less(t, rank[a], rank[join])
	require.Less(t, rank[b], rank[join])
}
