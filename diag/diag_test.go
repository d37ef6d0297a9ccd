package diag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSinkReportAccumulatesInOrder(t *testing.T) {
	s := NewSink()
	s.Report(InvalidDeref, Loc{File: "a.c", Line: 1}, "deref of %s", "p")
	s.Report(Leak, Loc{File: "a.c", Line: 2}, "")

	require.Equal(t, 2, s.Len())
	defects := s.Defects()
	require.Equal(t, InvalidDeref, defects[0].Kind)
	require.Equal(t, "deref of p", defects[0].Message)
	require.Equal(t, Leak, defects[1].Kind)
}

func TestSinkDefectsReturnsACopy(t *testing.T) {
	s := NewSink()
	s.Report(DoubleFree, Loc{}, "")
	d := s.Defects()
	d[0].Kind = Leak
	require.Equal(t, DoubleFree, s.Defects()[0].Kind, "mutating the returned slice must not affect the sink")
}

func TestSinkMergePreservesOrder(t *testing.T) {
	a := NewSink()
	a.Report(InvalidDeref, Loc{}, "")
	b := NewSink()
	b.Report(Leak, Loc{}, "")
	b.Report(DoubleFree, Loc{}, "")

	a.Merge(b)
	kinds := make([]DefectKind, 0, 3)
	for _, d := range a.Defects() {
		kinds = append(kinds, d.Kind)
	}
	require.Equal(t, []DefectKind{InvalidDeref, Leak, DoubleFree}, kinds)
}

func TestContractViolationAndResourceExhaustedWrapTheReason(t *testing.T) {
	err := ContractViolation("WriteValue", "writing through a sentinel object")
	require.Error(t, err)
	require.Contains(t, err.Error(), "WriteValue")
	require.Contains(t, err.Error(), "writing through a sentinel object")

	err = ResourceExhausted("fixpoint.Run", "context canceled")
	require.Error(t, err)
	require.Contains(t, err.Error(), "fixpoint.Run")
}

func TestLocStringFallsBackWhenFileEmpty(t *testing.T) {
	require.Equal(t, "<unknown>", Loc{}.String())
	require.Equal(t, "a.c:3:4", Loc{File: "a.c", Line: 3, Col: 4}.String())
}

func TestDefectStringIncludesMessageOnlyWhenPresent(t *testing.T) {
	d := Defect{Kind: Leak, Loc: Loc{File: "a.c", Line: 1, Col: 1}}
	require.NotContains(t, d.String(), "()")

	d.Message = "region X"
	require.Contains(t, d.String(), "region X")
}
