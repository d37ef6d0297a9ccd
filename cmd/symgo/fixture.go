package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"symgo/internal/clir"
)

// The real C/IR parser and listener/filter normalization chain are out
// of scope (§1); this file stands in for that external producer with a
// small JSON fixture format, replayed through the same Listener events
// a real front-end would emit (file_open/fnc_open/bb_open/instr/...).

type fixtureFile struct {
	File      string             `json:"file"`
	Functions []fixtureFunction  `json:"functions"`
}

type fixtureFunction struct {
	Name   string          `json:"name"`
	Args   []clir.ArgDecl  `json:"args"`
	Blocks []fixtureBlock  `json:"blocks"`
}

type fixtureBlock struct {
	Label  string          `json:"label"`
	Instrs []fixtureInstr  `json:"instrs"`
}

// fixtureInstr mirrors clir.Instr but spells Kind/UnopOp/BinopOp/Operand
// kinds as strings, the natural JSON rendering of those enums.
type fixtureInstr struct {
	Kind string `json:"kind"`

	JmpLabel string `json:"jmp_label,omitempty"`

	CondSrc    fixtureOperand `json:"cond_src,omitempty"`
	LabelTrue  string         `json:"label_true,omitempty"`
	LabelFalse string         `json:"label_false,omitempty"`

	RetSrc fixtureOperand `json:"ret_src,omitempty"`
	HasRet bool           `json:"has_ret,omitempty"`

	UnopOp string         `json:"unop_op,omitempty"`
	Dst    fixtureOperand `json:"dst,omitempty"`
	Src    fixtureOperand `json:"src,omitempty"`

	BinopOp string         `json:"binop_op,omitempty"`
	Src1    fixtureOperand `json:"src1,omitempty"`
	Src2    fixtureOperand `json:"src2,omitempty"`

	CallDst fixtureOperand `json:"call_dst,omitempty"`
	CallFnc fixtureOperand `json:"call_fnc,omitempty"`
	CallArg fixtureOperand `json:"call_arg,omitempty"`
}

type fixtureOperand struct {
	Kind    string `json:"kind,omitempty"`
	CVarUID int    `json:"cvar_uid,omitempty"`
	Fields  []int  `json:"fields,omitempty"`
	IntVal  int64  `json:"int_val,omitempty"`
	StrVal  string `json:"str_val,omitempty"`
	FncName string `json:"fnc_name,omitempty"`
}

func (o fixtureOperand) toOperand() clir.Operand {
	switch o.Kind {
	case "int_lit":
		return clir.IntLit(o.IntVal)
	case "str_lit":
		return clir.StrLit(o.StrVal)
	case "fnc_lit":
		return clir.FncLit(o.FncName)
	default:
		return clir.Var(o.CVarUID, o.Fields...)
	}
}

var unopKinds = map[string]clir.UnopKind{
	"assign":  clir.UnopAssign,
	"deref":   clir.UnopDeref,
	"addr_of": clir.UnopAddrOf,
	"not":     clir.UnopNot,
}

var binopKinds = map[string]clir.BinopKind{
	"eq":    clir.BinopEq,
	"ne":    clir.BinopNe,
	"add":   clir.BinopAdd,
	"other": clir.BinopOther,
}

func (fi fixtureInstr) toInstr() (clir.Instr, error) {
	instr := clir.Instr{}
	switch fi.Kind {
	case "jmp":
		instr.Kind = clir.IJmp
		instr.JmpLabel = fi.JmpLabel
	case "cond":
		instr.Kind = clir.ICond
		instr.CondSrc = fi.CondSrc.toOperand()
		instr.LabelTrue = fi.LabelTrue
		instr.LabelFalse = fi.LabelFalse
	case "ret":
		instr.Kind = clir.IRet
		instr.HasRet = fi.HasRet
		instr.RetSrc = fi.RetSrc.toOperand()
	case "unop":
		op, ok := unopKinds[fi.UnopOp]
		if !ok {
			return instr, errors.Errorf("fixture: unknown unop %q", fi.UnopOp)
		}
		instr.Kind = clir.IUnop
		instr.UnopOp = op
		instr.Dst = fi.Dst.toOperand()
		instr.Src = fi.Src.toOperand()
	case "binop":
		op, ok := binopKinds[fi.BinopOp]
		if !ok {
			return instr, errors.Errorf("fixture: unknown binop %q", fi.BinopOp)
		}
		instr.Kind = clir.IBinop
		instr.BinopOp = op
		instr.Dst = fi.Dst.toOperand()
		instr.Src1 = fi.Src1.toOperand()
		instr.Src2 = fi.Src2.toOperand()
	case "call_open":
		instr.Kind = clir.ICallOpen
		instr.CallDst = fi.CallDst.toOperand()
		instr.CallFnc = fi.CallFnc.toOperand()
	case "call_arg":
		instr.Kind = clir.ICallArg
		instr.CallArg = fi.CallArg.toOperand()
	case "call_close":
		instr.Kind = clir.ICallClose
	default:
		return instr, errors.Errorf("fixture: unknown instruction kind %q", fi.Kind)
	}
	return instr, nil
}

// LoadProgram reads a JSON fixture and replays it through
// clir.IntegrityCheck and clir.Builder exactly as a real listener chain
// would consume it, returning the resulting clir.Program.
func LoadProgram(path string) (*clir.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "fixture: read")
	}

	var ff fixtureFile
	if err := json.Unmarshal(data, &ff); err != nil {
		return nil, errors.Wrap(err, "fixture: parse")
	}

	integrity := clir.NewIntegrityCheck()
	builder := clir.NewBuilder()
	chain := clir.NewChain(integrity, builder)

	chain.FileOpen(ff.File)
	for _, fn := range ff.Functions {
		chain.FncOpen(clir.Location{}, fn.Name)
		for _, arg := range fn.Args {
			chain.FncArgDecl(arg)
		}
		for _, blk := range fn.Blocks {
			chain.BBOpen(blk.Label)
			for _, fi := range blk.Instrs {
				instr, err := fi.toInstr()
				if err != nil {
					return nil, err
				}
				chain.Instr(instr)
			}
		}
		chain.FncClose()
	}
	chain.FileClose()

	if err := integrity.Err(); err != nil {
		return nil, errors.Wrap(err, "fixture: malformed event stream")
	}
	return builder.Program(), nil
}
