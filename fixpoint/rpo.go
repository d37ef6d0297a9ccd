package fixpoint

import "symgo/internal/clir"

// reversePostorder computes a block's RPO rank relative to entry, via an
// iterative post-order DFS (explicit stack, same traversal shape as the
// rest of this codebase uses for unbounded graphs) followed by reversal.
// A worklist dequeuing in RPO order visits a block's predecessors before
// the block itself on the common path, which is what makes most CFGs
// converge in one or two passes instead of needing FIFO's many re-visits.
func reversePostorder(entry *clir.Block) map[*clir.Block]int {
	var post []*clir.Block
	visited := map[*clir.Block]bool{}

	type frame struct {
		bb   *clir.Block
		next int
	}
	stack := []frame{{entry, 0}}
	visited[entry] = true

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.bb.Succs) {
			succ := top.bb.Succs[top.next]
			top.next++
			if !visited[succ] {
				visited[succ] = true
				stack = append(stack, frame{succ, 0})
			}
			continue
		}
		post = append(post, top.bb)
		stack = stack[:len(stack)-1]
	}

	rank := make(map[*clir.Block]int, len(post))
	for i, bb := range post {
		rank[bb] = len(post) - 1 - i
	}
	return rank
}
