package clir

import "github.com/pkg/errors"

// Listener is the capability interface named in §9: "model it as a
// capability interface with {Chain, IntegrityCheck, Analyzer}
// implementations and a combinator that broadcasts calls to a list of
// subscribers". One method per event in the consumed IR contract
// (§6.1); grounded directly on cl_chain.cc's ICodeListener.
type Listener interface {
	FileOpen(name string)
	FileClose()
	FncOpen(loc Location, name string)
	FncArgDecl(decl ArgDecl)
	FncClose()
	BBOpen(label string)
	Instr(instr Instr)
}

// BaseListener gives every field a no-op default so implementations
// only override the events they care about, the way cl_chain.cc's
// per-event CL_CHAIN_FOREACH_VA macros forward everything uniformly
// and most concrete listeners only act on a subset.
type BaseListener struct{}

func (BaseListener) FileOpen(string)       {}
func (BaseListener) FileClose()            {}
func (BaseListener) FncOpen(Location, string) {}
func (BaseListener) FncArgDecl(ArgDecl)    {}
func (BaseListener) FncClose()             {}
func (BaseListener) BBOpen(string)         {}
func (BaseListener) Instr(Instr)           {}

// Chain broadcasts every event to its subscribers in order. Grounded on
// cl_chain.cc's ClChain: a plain slice, append-only, FOREACH per event.
type Chain struct {
	subscribers []Listener
}

func NewChain(subscribers ...Listener) *Chain {
	return &Chain{subscribers: append([]Listener(nil), subscribers...)}
}

// Append adds a subscriber to the end of the chain (cl_chain_append).
func (c *Chain) Append(l Listener) {
	c.subscribers = append(c.subscribers, l)
}

func (c *Chain) FileOpen(name string) {
	for _, l := range c.subscribers {
		l.FileOpen(name)
	}
}

func (c *Chain) FileClose() {
	for _, l := range c.subscribers {
		l.FileClose()
	}
}

func (c *Chain) FncOpen(loc Location, name string) {
	for _, l := range c.subscribers {
		l.FncOpen(loc, name)
	}
}

func (c *Chain) FncArgDecl(decl ArgDecl) {
	for _, l := range c.subscribers {
		l.FncArgDecl(decl)
	}
}

func (c *Chain) FncClose() {
	for _, l := range c.subscribers {
		l.FncClose()
	}
}

func (c *Chain) BBOpen(label string) {
	for _, l := range c.subscribers {
		l.BBOpen(label)
	}
}

func (c *Chain) Instr(instr Instr) {
	for _, l := range c.subscribers {
		l.Instr(instr)
	}
}

// IntegrityCheck validates the structural invariants of the event
// stream itself (IR hygiene, external to the SH core) -- grounded on
// cl/clf_intchk.hh, the original's "integrity check" listener that
// wraps another ICodeListener and traps on a malformed event order.
// Here a malformed stream produces an error instead of aborting the
// process, collected by Err() after the stream finishes.
type IntegrityCheck struct {
	BaseListener

	inFile bool
	inFnc  bool
	inBB   bool
	err    error
}

func NewIntegrityCheck() *IntegrityCheck { return &IntegrityCheck{} }

func (c *IntegrityCheck) fail(msg string) {
	if c.err == nil {
		c.err = errors.New(msg)
	}
}

func (c *IntegrityCheck) FileOpen(name string) {
	if c.inFile {
		c.fail("file_open while already inside a file")
	}
	c.inFile = true
}

func (c *IntegrityCheck) FileClose() {
	if !c.inFile {
		c.fail("file_close without matching file_open")
	}
	if c.inFnc {
		c.fail("file_close while a function is still open")
	}
	c.inFile = false
}

func (c *IntegrityCheck) FncOpen(Location, string) {
	if !c.inFile {
		c.fail("fnc_open outside of a file")
	}
	if c.inFnc {
		c.fail("fnc_open while already inside a function")
	}
	c.inFnc = true
}

func (c *IntegrityCheck) FncArgDecl(ArgDecl) {
	if !c.inFnc {
		c.fail("fnc_arg_decl outside of a function")
	}
}

func (c *IntegrityCheck) FncClose() {
	if !c.inFnc {
		c.fail("fnc_close without matching fnc_open")
	}
	if c.inBB {
		c.fail("fnc_close while a basic block is still open")
	}
	c.inFnc = false
}

func (c *IntegrityCheck) BBOpen(string) {
	if !c.inFnc {
		c.fail("bb_open outside of a function")
	}
	c.inBB = true
}

func (c *IntegrityCheck) Instr(instr Instr) {
	if !c.inBB {
		c.fail("instruction outside of a basic block")
		return
	}
	switch instr.Kind {
	case IJmp, ICond, IRet:
		c.inBB = false
	}
}

// Err returns the first structural violation observed, or nil.
func (c *IntegrityCheck) Err() error { return c.err }
