package transfer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"symgo/internal/cltype"
)

func TestNewEnvWiresDefaultIntrinsics(t *testing.T) {
	env := NewEnv(cltype.NewTable(cltype.StrictPointers))
	_, ok := env.Intrinsics["malloc"]
	require.True(t, ok)
	_, ok = env.Intrinsics["free"]
	require.True(t, ok)
}

func TestInternStringIsStableAndDistinctPerValue(t *testing.T) {
	env := NewEnv(cltype.NewTable(cltype.StrictPointers))
	a := env.internString("hello")
	b := env.internString("hello")
	c := env.internString("world")

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}

func TestInternFncIsStableAndDistinctPerValue(t *testing.T) {
	env := NewEnv(cltype.NewTable(cltype.StrictPointers))
	a := env.internFnc("main")
	b := env.internFnc("main")
	c := env.internFnc("helper")

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}
