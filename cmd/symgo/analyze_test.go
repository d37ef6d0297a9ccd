package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"symgo/internal/clir"
	"symgo/internal/cltype"
	"symgo/transfer"
)

func TestEntryHeapSeedsOneUninitializedSlotPerArg(t *testing.T) {
	types := cltype.NewTable(cltype.StrictPointers)
	env := transfer.NewEnv(types)
	fn := &clir.Function{Name: "f", Args: []clir.ArgDecl{{Pos: 0, Name: "p", UID: 1}, {Pos: 1, Name: "q", UID: 2}}}

	h := entryHeap(fn, types, env)
	require.Equal(t, h.VarByCVar(1, 0) != 0, true)
	require.Equal(t, h.VarByCVar(2, 0) != 0, true)
}

func TestRunAnalyzeReportsNoDefectsForATrivialFixture(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleFixture), 0o644))

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	err := runAnalyze(cmd, path, "", "")
	require.NoError(t, err)
	require.Contains(t, out.String(), "no defects found")
}
