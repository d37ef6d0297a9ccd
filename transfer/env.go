// Package transfer supplies a reference set of per-instruction transfer
// functions over internal/clir's instruction kinds, expressed purely
// through heap.Heap's exported contract (§1's "thin layer above the
// core"). It exists so fixpoint.Run has something end-to-end to drive;
// callers with a richer source language are expected to supply their
// own TransferFunc instead.
package transfer

import (
	"sync"

	"symgo/internal/cltype"
)

// Env carries the scalar types literals resolve to, plus the string/
// function-name interning tables ValCreateCustom's integer payload
// needs. Shared across a whole analysis run (possibly by several
// functions analyzed concurrently under fixpoint.AnalyzeAll), so its
// interning maps are mutex-guarded.
type Env struct {
	Types   *cltype.Table
	IntType cltype.T
	StrType cltype.T
	FncType cltype.T

	Intrinsics map[string]IntrinsicFunc

	mu       sync.Mutex
	strIDs   map[string]int
	fncIDs   map[string]int
	nextStr  int
	nextFnc  int
}

// NewEnv builds a default environment: int/string/function literal
// types sized for a typical 64-bit target, and the malloc/free
// intrinsics wired in (§3.7).
func NewEnv(types *cltype.Table) *Env {
	e := &Env{
		Types:   types,
		IntType: types.Scalar(cltype.Int, 8, "int"),
		StrType: types.Scalar(cltype.String, 8, "string"),
		FncType: types.Scalar(cltype.Fnc, 8, "fnc"),
		strIDs:  map[string]int{},
		fncIDs:  map[string]int{},
	}
	e.Intrinsics = DefaultIntrinsics()
	return e
}

func (e *Env) internString(s string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id, ok := e.strIDs[s]; ok {
		return id
	}
	e.nextStr++
	e.strIDs[s] = e.nextStr
	return e.nextStr
}

func (e *Env) internFnc(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id, ok := e.fncIDs[name]; ok {
		return id
	}
	e.nextFnc++
	e.fncIDs[name] = e.nextFnc
	return e.nextFnc
}
