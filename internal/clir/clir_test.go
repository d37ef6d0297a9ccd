package clir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// recorder captures every event Listener delivers, for asserting Chain
// broadcasts in order to every subscriber.
type recorder struct {
	BaseListener
	events []string
}

func (r *recorder) FileOpen(name string)       { r.events = append(r.events, "file_open:"+name) }
func (r *recorder) FncOpen(_ Location, n string) { r.events = append(r.events, "fnc_open:"+n) }
func (r *recorder) BBOpen(label string)        { r.events = append(r.events, "bb_open:"+label) }
func (r *recorder) FncClose()                  { r.events = append(r.events, "fnc_close") }
func (r *recorder) FileClose()                 { r.events = append(r.events, "file_close") }

func TestChainBroadcastsToEverySubscriberInOrder(t *testing.T) {
	r1, r2 := &recorder{}, &recorder{}
	chain := NewChain(r1, r2)

	chain.FileOpen("a.c")
	chain.FncOpen(Location{}, "main")
	chain.BBOpen("entry")
	chain.FncClose()
	chain.FileClose()

	want := []string{"file_open:a.c", "fnc_open:main", "bb_open:entry", "fnc_close", "file_close"}
	require.Equal(t, want, r1.events)
	require.Equal(t, want, r2.events)
}

func TestChainAppend(t *testing.T) {
	r1 := &recorder{}
	chain := NewChain()
	chain.Append(r1)
	chain.FileOpen("a.c")
	require.Equal(t, []string{"file_open:a.c"}, r1.events)
}

func TestIntegrityCheckAcceptsWellFormedStream(t *testing.T) {
	c := NewIntegrityCheck()
	c.FileOpen("a.c")
	c.FncOpen(Location{}, "f")
	c.BBOpen("entry")
	c.Instr(Instr{Kind: IRet, HasRet: false})
	c.FncClose()
	c.FileClose()
	require.NoError(t, c.Err())
}

func TestIntegrityCheckRejectsInstrOutsideBlock(t *testing.T) {
	c := NewIntegrityCheck()
	c.FileOpen("a.c")
	c.FncOpen(Location{}, "f")
	c.Instr(Instr{Kind: IRet})
	require.Error(t, c.Err())
}

func TestIntegrityCheckRejectsNestedFncOpen(t *testing.T) {
	c := NewIntegrityCheck()
	c.FileOpen("a.c")
	c.FncOpen(Location{}, "f")
	c.FncOpen(Location{}, "g")
	require.Error(t, c.Err())
}

func TestIntegrityCheckRejectsUnclosedFunctionAtFileClose(t *testing.T) {
	c := NewIntegrityCheck()
	c.FileOpen("a.c")
	c.FncOpen(Location{}, "f")
	c.FileClose()
	require.Error(t, c.Err())
}

func TestBuilderWiresSuccessorsAndPredecessors(t *testing.T) {
	b := NewBuilder()
	b.FileOpen("a.c")
	b.FncOpen(Location{}, "f")
	b.FncArgDecl(ArgDecl{Pos: 0, Name: "p", UID: 1})

	b.BBOpen("entry")
	b.Instr(Instr{Kind: ICond, CondSrc: Var(1), LabelTrue: "t", LabelFalse: "f2"})

	b.BBOpen("t")
	b.Instr(Instr{Kind: IJmp, JmpLabel: "join"})

	b.BBOpen("f2")
	b.Instr(Instr{Kind: IJmp, JmpLabel: "join"})

	b.BBOpen("join")
	b.Instr(Instr{Kind: IRet})

	b.FncClose()
	b.FileClose()

	prog := b.Program()
	require.Equal(t, "a.c", prog.File)
	require.Len(t, prog.Functions, 1)

	fn := prog.Functions[0]
	require.Equal(t, "entry", fn.Entry.Label)
	require.Len(t, fn.Args, 1)

	var entry, join *Block
	for _, blk := range fn.Blocks {
		switch blk.Label {
		case "entry":
			entry = blk
		case "join":
			join = blk
		}
	}
	require.NotNil(t, entry)
	require.NotNil(t, join)
	require.Len(t, entry.Succs, 2)
	require.Len(t, join.Preds, 2)
}

func TestBuilderDropsDanglingLabelsSilently(t *testing.T) {
	b := NewBuilder()
	b.FileOpen("a.c")
	b.FncOpen(Location{}, "f")
	b.BBOpen("entry")
	b.Instr(Instr{Kind: IJmp, JmpLabel: "nowhere"})
	b.FncClose()
	b.FileClose()

	fn := b.Program().Functions[0]
	require.Empty(t, fn.Entry.Succs, "a jump to an unknown label leaves no successor, left to IntegrityCheck/validation")
}

func TestOperandConstructors(t *testing.T) {
	require.Equal(t, Operand{Kind: OpVar, Var: VarRef{CVarUID: 3, Fields: []int{1}}}, Var(3, 1))
	require.Equal(t, Operand{Kind: OpIntLit, IntVal: 42}, IntLit(42))
	require.Equal(t, Operand{Kind: OpStrLit, StrVal: "x"}, StrLit("x"))
	require.Equal(t, Operand{Kind: OpFncLit, FncName: "g"}, FncLit("g"))
}
