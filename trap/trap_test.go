package trap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCode_string(t *testing.T) {
	require.Equal(t, "heap_out_of_bounds", CodeHeapOutOfBounds.String())
	require.Equal(t, "unknown_trap", Code(codeMax).String())
}

func TestExitCode_trapRoundTrip(t *testing.T) {
	e := WithTrap(CodeBadSignature)
	require.Equal(t, ExitCodeTrap, e.Base())
	require.Equal(t, CodeBadSignature, e.TrapCode())
}

func TestExitCode_callGoFunctionIndexRoundTrip(t *testing.T) {
	e := CallGoFunctionWithIndex(42)
	require.Equal(t, ExitCodeCallGoFunction, e.Base())
	require.Equal(t, 42, GoFunctionIndexFromExitCode(e))
}
