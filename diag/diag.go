// Package diag implements the error taxonomy of §7: program-defect
// diagnostics (category 1, a data outcome, never an exceptional control
// path), SH-contract violations (category 2, fatal within an analysis
// run), resource exhaustion (category 3), and join failure (category 4,
// a plain bool surfaced to state).
//
// Categories 2-3 are built with github.com/pkg/errors so the offending
// operation's name travels with the error the way the original's TRAP
// macro named the violated assumption at the abort site -- except here
// it is a propagating, typed error rather than process termination.
package diag

import (
	"fmt"

	"github.com/pkg/errors"
)

// DefectKind enumerates category-1 program-defect diagnostics (§7.1).
type DefectKind int

const (
	NullDeref DefectKind = iota
	InvalidDeref
	Leak
	DoubleFree
	UseOfUninitialized
	PossibleLeak
)

func (k DefectKind) String() string {
	switch k {
	case NullDeref:
		return "null deref"
	case InvalidDeref:
		return "invalid deref"
	case Leak:
		return "memory leak"
	case DoubleFree:
		return "double free"
	case UseOfUninitialized:
		return "use of uninitialized value"
	case PossibleLeak:
		return "possible memory leak"
	default:
		return "unknown defect"
	}
}

// Loc is a minimal source location, decoupled from internal/clir so
// this package stays a leaf usable by heap/state without import cycles.
// fixpoint/transfer populate it from clir.Location.
type Loc struct {
	File string
	Line int
	Col  int
}

func (l Loc) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
}

// Defect is one category-1 diagnostic.
type Defect struct {
	Kind    DefectKind
	Loc     Loc
	Message string
}

func (d Defect) String() string {
	if d.Message != "" {
		return fmt.Sprintf("%s: %s (%s)", d.Loc, d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Loc, d.Kind)
}

// Sink accumulates category-1 diagnostics for one analysis run. It is
// never used to signal control flow: callers keep going after recording
// a defect, per §7 ("the analysis continues").
type Sink struct {
	defects []Defect
}

func NewSink() *Sink { return &Sink{} }

func (s *Sink) Report(kind DefectKind, loc Loc, format string, args ...interface{}) {
	s.defects = append(s.defects, Defect{Kind: kind, Loc: loc, Message: fmt.Sprintf(format, args...)})
}

func (s *Sink) Defects() []Defect { return append([]Defect(nil), s.defects...) }

func (s *Sink) Len() int { return len(s.defects) }

// Merge appends another sink's defects onto s, preserving order.
func (s *Sink) Merge(other *Sink) {
	s.defects = append(s.defects, other.defects...)
}

// ContractViolation constructs a category-2 error: a programmer error in
// the transfer functions (writing through a sentinel, redefining a
// type, offsetting a non-address value, destroying a non-root, joining
// incompatible universes, etc).
func ContractViolation(op string, reason string) error {
	return errors.Wrapf(errors.New(reason), "contract violation in %s", op)
}

// ResourceExhausted constructs a category-3 error (timeout or
// state-count threshold exceeded), surfaced to the driver to decide
// whether to widen, give up on the function, or abort the run.
func ResourceExhausted(what string, reason string) error {
	return errors.Wrapf(errors.New(reason), "resource exhausted: %s", what)
}

