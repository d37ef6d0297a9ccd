// Package fixpoint implements the Fixed-Point Driver (FPD, C6, §4.6): a
// per-function worklist over CFG blocks, dequeuing in reverse post-order
// when the CFG has been ranked and falling back to arrival order
// otherwise, feeding each pending heap through a caller-supplied
// transfer function and re-enqueuing whichever successor blocks
// actually changed.
package fixpoint

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"symgo/diag"
	"symgo/heap"
	"symgo/internal/clir"
	"symgo/internal/cltype"
	"symgo/state"
)

// TransferFunc executes one block's instructions against h and reports,
// per successor block, the heaps that should flow there. An IRet block
// returns a nil/empty map: there is nowhere further to propagate.
//
// Any category-1 diagnostics the transfer produces belong on h.Sink();
// Run copies the defects newly added there into the result sink once the
// call returns, so a heap that reaches several blocks has each of its
// defects copied once (§7).
type TransferFunc func(ctx context.Context, h *heap.Heap, bb *clir.Block) (map[*clir.Block][]*heap.Heap, error)

// Options configures one Run.
type Options struct {
	// WideningThreshold is the per-block heap count at which its state
	// container switches from plain equality dedup to join widening
	// (§4.6 Widening). <= 0 disables widening entirely.
	WideningThreshold int
	Logger            *logrus.Logger
}

// Result is one function's analysis outcome: the final per-block state
// and every category-1 diagnostic produced while reaching it.
type Result struct {
	Func   *clir.Function
	States *state.Map
	Sink   *diag.Sink
}

// Run drives one function to a fixed point (§4.6).
func Run(ctx context.Context, fn *clir.Function, entry []*heap.Heap, tf TransferFunc, types *cltype.Table, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.New()
	}
	sc := state.NewMap(types, opts.WideningThreshold)
	sink := diag.NewSink()
	merged := map[*diag.Sink]int{}
	rank := reversePostorder(fn.Entry)

	for _, h := range entry {
		sc.Insert(fn.Entry, nil, h)
	}

	worklist := []*clir.Block{fn.Entry}
	queued := map[*clir.Block]bool{fn.Entry: true}

	for len(worklist) > 0 {
		select {
		case <-ctx.Done():
			return nil, diag.ResourceExhausted("fixpoint.Run", ctx.Err().Error())
		default:
		}

		bb := popLowestRank(worklist, rank)
		worklist = removeBlock(worklist, bb)
		queued[bb] = false

		pending := sc.FetchPending(bb)
		if len(pending) == 0 {
			continue
		}

		log.WithField("block", bb.Label).WithField("heaps", len(pending)).Debug("fixpoint: processing block")

		for _, h := range pending {
			succs, err := tf(ctx, h, bb)
			if err != nil {
				return nil, err
			}
			// A heap that flows on unchanged to a successor keeps its sink,
			// so only the defects added since its last visit are copied.
			hs := h.Sink()
			for _, d := range hs.Defects()[merged[hs]:] {
				sink.Report(d.Kind, d.Loc, "%s", d.Message)
			}
			merged[hs] = hs.Len()

			for succ, heaps := range succs {
				for _, nh := range heaps {
					if sc.Insert(succ, bb, nh) && !queued[succ] {
						worklist = append(worklist, succ)
						queued[succ] = true
					}
				}
			}
		}
	}

	return &Result{Func: fn, States: sc, Sink: sink}, nil
}

func popLowestRank(worklist []*clir.Block, rank map[*clir.Block]int) *clir.Block {
	best := 0
	for i := 1; i < len(worklist); i++ {
		if rank[worklist[i]] < rank[worklist[best]] {
			best = i
		}
	}
	return worklist[best]
}

func removeBlock(worklist []*clir.Block, bb *clir.Block) []*clir.Block {
	for i, b := range worklist {
		if b == bb {
			return append(worklist[:i:i], worklist[i+1:]...)
		}
	}
	return worklist
}

// EntryFunc builds the initial heaps a function's analysis starts from
// (e.g. one heap per tracked call-site context), handed to AnalyzeAll so
// callers decide how a function's parameters become symbolic heap state.
type EntryFunc func(fn *clir.Function, types *cltype.Table) []*heap.Heap

// AnalyzeAll is the supplemented multi-function driver (§5): one
// errgroup.Group runs Run per function concurrently over independent
// heap instances, collecting every function's diagnostics and aborting
// the group on the first category-2/3 error any function's Run returns.
func AnalyzeAll(ctx context.Context, prog *clir.Program, mkEntry EntryFunc, tf TransferFunc, types *cltype.Table, opts Options) ([]*Result, error) {
	results := make([]*Result, len(prog.Functions))

	g, gctx := errgroup.WithContext(ctx)
	for i, fn := range prog.Functions {
		i, fn := i, fn
		g.Go(func() error {
			entry := mkEntry(fn, types)
			res, err := Run(gctx, fn, entry, tf, types, opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Func.Name < results[j].Func.Name })
	return results, nil
}
