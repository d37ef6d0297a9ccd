// Package plot is the diagnostic/exporter hook of §6.3: a minimal DOT
// graph writer and a go-spew dump, both built purely on heap.Walk so
// neither carries any opinion about heap internals beyond what that
// visitor already exposes. Grounded on original_source/sl/symplot.cc's
// GraphViz exporter, kept reference-only -- this is a stand-in, not a
// port: no color, no CLI flags, no incremental re-plotting.
package plot

import (
	"fmt"
	"io"
	"sort"
	"sync/atomic"

	"github.com/davecgh/go-spew/spew"

	"symgo/heap"
)

// counter is the monotone file-scope plot counter named in §9: each
// call to DOT or Dump gets a distinct sequence number, handy for
// naming successive snapshots of the same heap across a run without
// the core needing to know a plot ever happened.
var counter int64

// NextID returns the next plot sequence number, starting at 1.
func NextID() int64 {
	return atomic.AddInt64(&counter, 1)
}

// DOT writes h as a GraphViz digraph: one record node per live object,
// pointer/sub/neq edges in distinct styles. It is a minimal stand-in
// for symplot.cc's exporter (§4 Non-goals) -- no layout hints, no
// color, no legend.
func DOT(h *heap.Heap, w io.Writer) error {
	var objs []heap.ObjRecord
	var vals []heap.ValRecord
	var edges []heap.Edge

	h.Walk(heap.Visitor{
		Object: func(o heap.ObjRecord) bool { objs = append(objs, o); return true },
		Value:  func(v heap.ValRecord) bool { vals = append(vals, v); return true },
		Edge:   func(e heap.Edge) bool { edges = append(edges, e); return true },
	})

	sort.Slice(objs, func(i, j int) bool { return objs[i].ID < objs[j].ID })
	sort.Slice(vals, func(i, j int) bool { return vals[i].ID < vals[j].ID })

	if _, err := fmt.Fprintf(w, "digraph heap%d {\n  node [shape=record];\n", NextID()); err != nil {
		return err
	}

	for _, o := range objs {
		label := fmt.Sprintf("obj%d|kind=%s", o.ID, o.Kind)
		if o.HasCVar {
			label += fmt.Sprintf("|cvar=%d.%d", o.CVar.UID, o.CVar.Inst)
		}
		if _, err := fmt.Fprintf(w, "  obj%d [label=\"%s\"];\n", o.ID, label); err != nil {
			return err
		}
	}
	for _, v := range vals {
		if _, err := fmt.Fprintf(w, "  val%d [shape=ellipse,label=\"val%d\\n%s\"];\n", v.ID, v.ID, v.Code); err != nil {
			return err
		}
	}

	for _, e := range edges {
		var err error
		switch e.Kind {
		case heap.EdgeHasValue:
			_, err = fmt.Fprintf(w, "  obj%d -> val%d [style=solid];\n", e.From, e.To)
		case heap.EdgePointsTo:
			_, err = fmt.Fprintf(w, "  val%d -> obj%d [style=bold];\n", e.From, e.To)
		case heap.EdgeSub:
			_, err = fmt.Fprintf(w, "  obj%d -> obj%d [style=dashed];\n", e.From, e.To)
		case heap.EdgeNeq:
			_, err = fmt.Fprintf(w, "  val%d -> val%d [style=dotted,dir=none,color=red];\n", e.From, e.To)
		}
		if err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w, "}")
	return err
}

// snapshot is the plain-data form Dump feeds to go-spew: stable,
// sorted slices rather than the arena's internal maps, so two calls on
// equal heaps print identically.
type snapshot struct {
	Seq    int64
	Objs   []heap.ObjRecord
	Vals   []heap.ValRecord
	Edges  []heap.Edge
	NeqLen int
}

// Dump renders h as a go-spew dump: a non-graphical sibling to DOT,
// useful in tests and logs where a GraphViz viewer isn't handy.
func Dump(h *heap.Heap) string {
	snap := snapshot{Seq: NextID(), NeqLen: len(h.EnumNeq())}
	h.Walk(heap.Visitor{
		Object: func(o heap.ObjRecord) bool { snap.Objs = append(snap.Objs, o); return true },
		Value:  func(v heap.ValRecord) bool { snap.Vals = append(snap.Vals, v); return true },
		Edge:   func(e heap.Edge) bool { snap.Edges = append(snap.Edges, e); return true },
	})
	sort.Slice(snap.Objs, func(i, j int) bool { return snap.Objs[i].ID < snap.Objs[j].ID })
	sort.Slice(snap.Vals, func(i, j int) bool { return snap.Vals[i].ID < snap.Vals[j].ID })

	cfg := spew.ConfigState{Indent: "  ", DisableMethods: true, SortKeys: true}
	return cfg.Sdump(snap)
}
