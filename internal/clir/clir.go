// Package clir models the IR contract consumed by the analyzer (§6.1):
// a per-translation-unit event stream produced by an external code
// listener chain, plus the operand sum type those events carry.
//
// The combinator broadcasting events to N subscribers (Chain) and the
// structural-hygiene listener (IntegrityCheck) are grounded on
// cl_chain.cc's ClChain / CL_CHAIN_FOREACH: a slice of listeners, one
// method per event, each forwarding to every subscriber in turn. The
// real parser/normalizer that produces the event stream is external to
// this package (§1 scope) -- clir only defines the contract and a small
// in-memory CFG builder (the Analyzer capability named in §9) used to
// hand fixpoint something to iterate over.
package clir

// Location mirrors the source location the external IR attaches to each
// instruction; symgo never originates locations, only threads them
// through to diagnostics.
type Location struct {
	File string
	Line int
	Col  int
}

func (l Location) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	return l.File + ":" + itoa(l.Line) + ":" + itoa(l.Col)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// OperandKind discriminates the operand sum type (§6.1).
type OperandKind int

const (
	OpVar OperandKind = iota
	OpIntLit
	OpStrLit
	OpFncLit
)

// VarRef names a program variable, optionally through a field-index
// chain for nested access (e.g. p->next->data), per §6.1.
type VarRef struct {
	CVarUID int
	Inst    int // call-nest level, disambiguates recursive frames (§3.2)
	Fields  []int
}

// Operand is one of: variable reference, integer literal, string
// literal, or function reference (§6.1).
type Operand struct {
	Kind    OperandKind
	Var     VarRef
	IntVal  int64
	StrVal  string
	FncName string
}

func Var(uid int, fields ...int) Operand {
	return Operand{Kind: OpVar, Var: VarRef{CVarUID: uid, Fields: fields}}
}

func IntLit(v int64) Operand { return Operand{Kind: OpIntLit, IntVal: v} }
func StrLit(s string) Operand { return Operand{Kind: OpStrLit, StrVal: s} }
func FncLit(name string) Operand { return Operand{Kind: OpFncLit, FncName: name} }

// InstrKind enumerates the typed instructions of §6.1.
type InstrKind int

const (
	IJmp InstrKind = iota
	ICond
	IRet
	IUnop
	IBinop
	ICallOpen
	ICallArg
	ICallClose
)

// UnopKind / BinopKind are left uninterpreted beyond what transfer needs;
// the IR is language-independent (§1), so only the handful of operators
// the reference transfer functions act on are named here.
type UnopKind int

const (
	UnopAssign UnopKind = iota // dst = src (plain copy, including pointer copy)
	UnopDeref                  // dst = *src
	UnopAddrOf                 // dst = &src
	UnopNot
)

type BinopKind int

const (
	BinopEq BinopKind = iota
	BinopNe
	BinopAdd // pointer + offset
	BinopOther
)

// Instr is one three-address instruction, tagged by Kind.
type Instr struct {
	Kind InstrKind
	Loc  Location

	// IJmp
	JmpLabel string

	// ICond
	CondSrc   Operand
	LabelTrue string
	LabelFalse string

	// IRet
	RetSrc Operand
	HasRet bool

	// IUnop
	UnopOp  UnopKind
	Dst     Operand
	Src     Operand

	// IBinop
	BinopOp BinopKind
	Src1    Operand
	Src2    Operand

	// ICallOpen / ICallArg / ICallClose
	CallDst   Operand
	CallFnc   Operand
	CallArgPos int
	CallArg    Operand
}

// Block is a basic block: a label and its straight-line instruction
// sequence, terminated by the last instruction (jmp/cond/ret).
type Block struct {
	Label  string
	Instrs []Instr
	Succs  []*Block
	Preds  []*Block
}

// ArgDecl is a formal parameter declaration (§6.1 fnc_arg_decl).
type ArgDecl struct {
	Pos  int
	Name string
	UID  int
}

// Function is one analyzed function: its CFG plus declared parameters.
type Function struct {
	Name    string
	Args    []ArgDecl
	Entry   *Block
	Blocks  []*Block // all blocks, entry first
}

// Program is a whole translation unit: the functions discovered between
// file_open/file_close.
type Program struct {
	File      string
	Functions []*Function
}
