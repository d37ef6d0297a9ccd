package join

import (
	"symgo/heap"
	"symgo/heap/equal"
	"symgo/internal/cltype"
	"symgo/internal/ids"
)

// Join merges h1 and h2 (§4.4). It returns ok=false (category-4 join
// failure, a plain bool rather than an error -- §7 of SPEC_FULL.md
// classifies this as an expected, recoverable outcome, not a program
// defect or a contract violation) when the two heaps diverge in a way
// this implementation has no representation for.
//
// Two heaps already known bisimilar short-circuit to USE_ANY over a
// plain clone of h1, guaranteeing Join(H, H) == (USE_ANY, H) (P7)
// without walking the general algorithm at all.
func Join(h1, h2 *heap.Heap, types *cltype.Table) (Status, *heap.Heap, bool) {
	if same, err := equal.Equal(h1, h2); err == nil && same {
		return UseAny, h1.Clone(), true
	}

	cv1, cv2 := h1.GatherCVars(), h2.GatherCVars()
	if len(cv1) != len(cv2) {
		return 0, nil, false
	}
	for i, k := range cv1 {
		if k != cv2[i] {
			return 0, nil, false
		}
	}

	j := &joiner{h1: h1, h2: h2, out: heap.New(types), ptrMemo: map[[2]ids.ObjId]ids.ObjId{}}

	for _, k := range cv1 {
		a := h1.VarByCVar(k.UID, k.Inst)
		b := h2.VarByCVar(k.UID, k.Inst)
		ta, hasA := h1.ObjType(a)
		tb, hasB := h2.ObjType(b)
		if hasA != hasB || (hasA && ta != tb) {
			return 0, nil, false
		}
		outObj, err := j.out.RootCreate(ta, k.UID, k.Inst, true)
		if err != nil {
			return 0, nil, false
		}
		j.push(outObj, a, b)
	}

	if !j.drain() {
		return 0, nil, false
	}

	// A full lockstep walk that never called widen() only establishes
	// that the program-variable-reachable parts of h1 and h2 match; it
	// says nothing about dangling roots the var-rooted walk never
	// visits (§4.3 equality does cover those). Confirm the stronger
	// claim UseAny makes (H1 ≡ H2) before reporting it, so a heap that
	// differs only in unreachable garbage -- e.g. one more leaked
	// object -- is not mistaken for a duplicate and dropped by a state
	// container (state.WithJoin treats UseAny as "no change").
	if j.status == UseAny {
		if same, err := equal.Equal(h1, h2); err != nil || !same {
			j.status = ThreeWay
		}
	}

	return j.status, j.out, true
}

type job struct {
	out  ids.ObjId
	a, b ids.ObjId
}

// joiner walks h1 and h2 in lockstep, building out. Explicit worklist
// rather than recursion, the same idiom heap.Destroy/ReachableRoots use
// for unbounded graphs -- a linked list's length is exactly the case
// this package must not blow the call stack on.
type joiner struct {
	h1, h2 *heap.Heap
	out    *heap.Heap

	status  Status
	ptrMemo map[[2]ids.ObjId]ids.ObjId

	queue []job
}

func (j *joiner) push(outObj, a, b ids.ObjId) {
	j.queue = append(j.queue, job{outObj, a, b})
}

func (j *joiner) widen() { j.status = ThreeWay }

func (j *joiner) drain() bool {
	for len(j.queue) > 0 {
		cur := j.queue[len(j.queue)-1]
		j.queue = j.queue[:len(j.queue)-1]
		if !j.step(cur) {
			return false
		}
	}
	return true
}

func (j *joiner) step(cur job) bool {
	n := j.h1.NumSubFields(cur.a)
	if j.h2.NumSubFields(cur.b) != n {
		return false
	}
	if n == 0 {
		return j.mergeLeaf(cur.out, cur.a, cur.b)
	}
	for i := 0; i < n; i++ {
		subA := j.h1.SubVar(cur.a, i)
		subB := j.h2.SubVar(cur.b, i)
		outSub := j.out.SubVar(cur.out, i)
		j.push(outSub, subA, subB)
	}
	return true
}

// mergeLeaf resolves the scalar value of one already-matched pair of
// leaf objects and writes the merged value into outLeaf.
func (j *joiner) mergeLeaf(outLeaf, a, b ids.ObjId) bool {
	h1, h2, out := j.h1, j.h2, j.out
	val1, val2 := h1.ReadValue(a), h2.ReadValue(b)

	if val1 == val2 && val1.IsSentinel() {
		return out.WriteValue(outLeaf, val1) == nil
	}

	code1, code2 := h1.ValCode(val1), h2.ValCode(val2)

	// NULL against the address of a live node folds that node into a
	// segment; Target(VAL_NULL) is OBJ_INVALID, not a sentinel.
	if (val1 == ids.ValNull && code2 == heap.VHeap) || (val2 == ids.ValNull && code1 == heap.VHeap) {
		live, fromH1 := h2.Target(val2), false
		if val2 == ids.ValNull {
			live, fromH1 = h1.Target(val1), true
		}
		if live != ids.ObjInvalid && !live.IsSentinel() {
			return j.foldIntoSegment(outLeaf, live, fromH1)
		}
	}

	if code1 == heap.VHeap && code2 == heap.VHeap {
		return j.mergePointer(outLeaf, val1, val2)
	}

	if code1 == heap.VCustom && code2 == heap.VCustom {
		t1, c1, _ := h1.ValGetCustom(val1)
		t2, c2, _ := h2.ValGetCustom(val2)
		if t1 == t2 && c1 == c2 {
			return out.WriteValue(outLeaf, out.ValCreateCustom(t1, c1)) == nil
		}
	}

	// Values disagree in a way not covered above: widen to VAL_UNKNOWN
	// rather than fail outright (§7, category 4 is reserved for shapes
	// this package cannot represent at all, not for ordinary scalar
	// divergence, which every abstract interpreter must tolerate).
	j.widen()
	return out.WriteValue(outLeaf, ids.ValUnknown) == nil
}

// mergePointer resolves two address values pointing at (possibly
// divergent) targets. Equal concrete targets of the same type recurse;
// a live target on one side against NULL on the other folds into a
// single-node abstract segment (§4.4's "introduce abstraction" step);
// anything else is outside this package's scope and fails the join.
func (j *joiner) mergePointer(outLeaf ids.ObjId, val1, val2 ids.ValId) bool {
	h1, h2, out := j.h1, j.h2, j.out
	t1, t2 := h1.Target(val1), h2.Target(val2)

	if t1 == ids.ObjInvalid && t2 == ids.ObjInvalid {
		return out.WriteValue(outLeaf, ids.ValNull) == nil
	}
	if t1.IsSentinel() && t2.IsSentinel() {
		// Both dangling (e.g. OBJ_DELETED, OBJ_LOST) but not both simply
		// NULL: widen rather than try to fabricate a dangling address
		// value in out, which has nothing to validate it against.
		j.widen()
		return out.WriteValue(outLeaf, ids.ValUnknown) == nil
	}
	if t1.IsSentinel() != t2.IsSentinel() {
		live, fromH1 := t1, true
		if t1.IsSentinel() {
			live, fromH1 = t2, false
		}
		return j.foldIntoSegment(outLeaf, live, fromH1)
	}

	ty1, ok1 := h1.ObjType(t1)
	ty2, ok2 := h2.ObjType(t2)
	if !ok1 || !ok2 || ty1 != ty2 {
		return false
	}

	key := [2]ids.ObjId{t1, t2}
	if outTarget, seen := j.ptrMemo[key]; seen {
		return out.WriteValue(outLeaf, out.AddressOf(outTarget)) == nil
	}

	// Either side already a segment (from a previous widening join at
	// this same program point, §4.6) takes the chain-absorption/
	// chain-merge bullets of the algorithm sketch instead of rebuilding
	// a plain concrete node and recursing into its still-uninitialized
	// tail, which would lose the abstraction on the very next widen.
	k1, k2 := h1.Kind(t1), h2.Kind(t2)
	if k1 != heap.Concrete || k2 != heap.Concrete {
		return j.mergeChains(outLeaf, t1, t2, ty1, k1, k2)
	}

	outTarget, err := out.RootCreate(ty1, 0, 0, false)
	if err != nil {
		return false
	}
	j.ptrMemo[key] = outTarget
	if err := out.WriteValue(outLeaf, out.AddressOf(outTarget)); err != nil {
		return false
	}
	j.push(outTarget, t1, t2)
	return true
}

// mergeChains folds a pair of pointer targets where at least one side
// is already an abstract segment into a single segment in the result
// heap, rather than recursing field-by-field: "if one side is CONCRETE
// and the other is a SLS/DLS/MAY_EXIST whose binding is consistent ...
// absorb the concrete node into a segment of minLen := min(minLenᵢ,
// countConcreteᵢ)" and "if both sides are chains ... emit a segment of
// length min(len1, len2)" (§4.4).
func (j *joiner) mergeChains(outLeaf ids.ObjId, t1, t2 ids.ObjId, typ cltype.T, k1, k2 heap.ObjKind) bool {
	offset, found := selfPtrField(typ)
	if !found {
		return false
	}
	if k1 != heap.Concrete && j.h1.Binding(t1).Next != offset {
		return false
	}
	if k2 != heap.Concrete && j.h2.Binding(t2).Next != offset {
		return false
	}

	len1 := chainMinLen(j.h1, t1, offset)
	len2 := chainMinLen(j.h2, t2, offset)
	minLen := len1
	if len2 < minLen {
		minLen = len2
	}

	out := j.out
	node, err := out.RootCreate(typ, 0, 0, false)
	if err != nil {
		return false
	}
	kind := heap.SLS
	if minLen == 0 {
		kind = heap.MayExist
	}
	if err := out.Abstract(node, kind, heap.BindingOff{Next: offset}, minLen); err != nil {
		return false
	}
	j.ptrMemo[[2]ids.ObjId{t1, t2}] = node
	j.widen()
	return out.WriteValue(outLeaf, out.AddressOf(node)) == nil
}

// chainMinLen reports how many nodes are guaranteed present starting at
// obj: an already-abstract object reports its own minLen directly; a
// concrete object counts itself plus however far a concrete chain
// continues along the self-pointer field at offset, capped at the
// segment-length bound of 2 (§4.4, "Termination").
func chainMinLen(h *heap.Heap, obj ids.ObjId, offset int) int {
	if h.Kind(obj) != heap.Concrete {
		return h.MinLen(obj)
	}
	cur := obj
	count := 0
	for count < 2 {
		if cur == ids.ObjInvalid || !h.IsLive(cur) {
			break
		}
		count++
		sub, ok := subAtOffset(h, cur, offset)
		if !ok {
			break
		}
		next := h.Target(h.ReadValue(sub))
		if next == ids.ObjInvalid || next.IsSentinel() || h.Kind(next) != heap.Concrete {
			break
		}
		cur = next
	}
	return count
}

// subAtOffset resolves obj's sub-field object at exactly the given byte
// offset, the cross-package equivalent of the heap package's own
// findSubAt (unexported, so join locates the field through the type's
// own field list plus the matching SubVar index instead).
func subAtOffset(h *heap.Heap, obj ids.ObjId, offset int) (ids.ObjId, bool) {
	typ, ok := h.ObjType(obj)
	if !ok || !typ.IsAggregate() {
		return ids.ObjInvalid, false
	}
	for i := 0; i < typ.NumFields(); i++ {
		if typ.Field(i).Offset == offset {
			return h.SubVar(obj, i), true
		}
	}
	return ids.ObjInvalid, false
}

// foldIntoSegment builds a single abstract segment node standing in for
// the side that has a concrete node where the other has NULL, wiring
// outLeaf's address to it. fromH1 only affects which heap's type table
// entry is used to find the node's self-referential field (both heaps
// share one type table, so either side would do).
func (j *joiner) foldIntoSegment(outLeaf ids.ObjId, live ids.ObjId, fromH1 bool) bool {
	src := j.h2
	if fromH1 {
		src = j.h1
	}
	typ, ok := src.ObjType(live)
	if !ok {
		return false
	}
	offset, found := selfPtrField(typ)
	if !found {
		return false // no representable segment shape; outside this package's scope
	}

	out := j.out
	node, err := out.RootCreate(typ, 0, 0, false)
	if err != nil {
		return false
	}
	if err := out.Abstract(node, heap.SLS, heap.BindingOff{Next: offset}, 0); err != nil {
		return false
	}
	j.widen()
	return out.WriteValue(outLeaf, out.AddressOf(node)) == nil
}

// selfPtrField finds a field of t whose type is a pointer back to t
// itself, the field a singly-linked list node uses to chain to the
// next node. Returns its byte offset.
func selfPtrField(t cltype.T) (int, bool) {
	if !t.IsAggregate() {
		return 0, false
	}
	for i := 0; i < t.NumFields(); i++ {
		fi := t.Field(i)
		if fi.Type.Kind() == cltype.Ptr && fi.Type.Elem() == t {
			return fi.Offset, true
		}
	}
	return 0, false
}
