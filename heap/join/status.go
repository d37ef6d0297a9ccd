// Package join implements the Join-Entailment operator (JE, C4, §4.4):
// merging two symbolic heaps from converging CFG edges into one heap
// that (if the merge is sound) both inputs entail, optionally
// introducing abstract list-segment objects where the two heaps agree
// on shape but differ on length.
package join

// Status classifies how a Join outcome relates to its inputs (§4.4).
type Status int

const (
	// UseAny: h1 and h2 are bisimilar; either could stand in for the
	// join, and the result is (up to renaming) identical to both.
	UseAny Status = iota
	// UseSH1: the join is exactly h1 (h2 added no information this
	// implementation could distinguish from h1). Not separately detected
	// by this package -- see DESIGN.md; falls through to ThreeWay.
	UseSH1
	// UseSH2: symmetric to UseSH1.
	UseSH2
	// ThreeWay: the result is a genuine generalization of both inputs,
	// produced by value widening to VAL_UNKNOWN and/or introducing an
	// abstract segment object.
	ThreeWay
)

func (s Status) String() string {
	switch s {
	case UseAny:
		return "USE_ANY"
	case UseSH1:
		return "USE_SH1"
	case UseSH2:
		return "USE_SH2"
	case ThreeWay:
		return "THREE_WAY"
	default:
		return "?"
	}
}
