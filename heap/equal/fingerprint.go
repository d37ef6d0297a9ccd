package equal

import (
	"fmt"
	"hash/fnv"
	"sort"

	"symgo/heap"
	"symgo/internal/ids"
)

// Fingerprint computes a hash consistent with Equal (P6: Equal(h1,h2) =>
// Fingerprint(h1) == Fingerprint(h2)): it starts from the same roots, in
// the same order, as Equal -- program variables by ascending (cVarUid,
// inst), then dangling roots by local structural fingerprint -- and,
// draining its queues first-in first-out, assigns each
// newly-seen object/value a sequential canonical label, and folds a
// description of every node and edge into an FNV-1a hash keyed by those
// labels rather than by h's own (arbitrary) ids.
func Fingerprint(h *heap.Heap) uint64 {
	c := &canon{h: h, objLabel: map[ids.ObjId]int{}, valLabel: map[ids.ValId]int{}}

	for _, k := range h.GatherCVars() {
		c.obj(h.VarByCVar(k.UID, k.Inst))
	}

	roots := h.GatherRootObjects()
	type keyed struct {
		val ids.ValId
		fp  string
	}
	ks := make([]keyed, len(roots))
	for i, v := range roots {
		ks[i] = keyed{val: v, fp: localFingerprint(h, h.Target(v))}
	}
	sort.SliceStable(ks, func(i, j int) bool { return ks[i].fp < ks[j].fp })
	for _, k := range ks {
		c.val(k.val)
	}
	c.drain()

	sum := fnv.New64a()
	sum.Write([]byte(c.buf))
	return sum.Sum64()
}

// canon assigns sequential, traversal-order labels to objects/values as
// they're first discovered, and accumulates a textual description of the
// graph keyed by those labels. Breadth-first over one heap; matcher
// instead pops its lockstep pairs from the end of its queues.
type canon struct {
	h        *heap.Heap
	objLabel map[ids.ObjId]int
	valLabel map[ids.ValId]int
	next     int
	buf      string

	objQueue []ids.ObjId
	valQueue []ids.ValId
}

func (c *canon) obj(id ids.ObjId) int {
	if id.IsSentinel() {
		return -int(id) - 1000 // disjoint from real labels, stable per sentinel
	}
	if l, ok := c.objLabel[id]; ok {
		return l
	}
	l := c.next
	c.next++
	c.objLabel[id] = l
	c.objQueue = append(c.objQueue, id)
	return l
}

func (c *canon) val(id ids.ValId) int {
	if id.IsSentinel() {
		return -int(id) - 2000
	}
	if l, ok := c.valLabel[id]; ok {
		return l
	}
	l := c.next
	c.next++
	c.valLabel[id] = l
	c.valQueue = append(c.valQueue, id)
	return l
}

func (c *canon) drain() {
	for len(c.objQueue) > 0 || len(c.valQueue) > 0 {
		for len(c.objQueue) > 0 {
			id := c.objQueue[0]
			c.objQueue = c.objQueue[1:]
			c.describeObj(id)
		}
		for len(c.valQueue) > 0 {
			id := c.valQueue[0]
			c.valQueue = c.valQueue[1:]
			c.describeVal(id)
		}
	}
}

func (c *canon) describeObj(id ids.ObjId) {
	h := c.h
	typ, hasType := h.ObjType(id)
	name := "?"
	if hasType {
		name = typ.String()
	}
	n := h.NumSubFields(id)
	c.buf += fmt.Sprintf("O(%s,%s,%d,%d,%d)", h.Kind(id), name, h.Binding(id).Next, h.MinLen(id), n)
	for i := 0; i < n; i++ {
		c.buf += fmt.Sprintf("[%d]", c.obj(h.SubVar(id, i)))
	}
	if n == 0 {
		c.buf += fmt.Sprintf("=%d", c.val(h.ReadValue(id)))
	}
}

func (c *canon) describeVal(id ids.ValId) {
	h := c.h
	code := h.ValCode(id)
	c.buf += fmt.Sprintf("V(%s", code)
	switch code {
	case heap.VHeap, heap.VAbstract:
		c.buf += fmt.Sprintf(",%d)->%d", h.Offset(id), c.obj(h.Target(id)))
	case heap.VComposite:
		c.buf += fmt.Sprintf(")~%d", c.obj(h.ValGetCompositeObj(id)))
	case heap.VCustom:
		typ, cv, _ := h.ValGetCustom(id)
		c.buf += fmt.Sprintf(",%s,%d)", typ, cv)
	default:
		c.buf += ")"
	}
}
