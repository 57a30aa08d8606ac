package features_test

import (
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ferrocomb/wazeco/internal/features"
)

func init() {
	os.Setenv(features.EnvVarName, features.PCC+","+features.SpectreMitigation+",bogus")
}

func TestList(t *testing.T) {
	features.EnableFromEnvironment()
	require.ElementsMatch(t, []string{features.PCC, features.SpectreMitigation}, features.List())
}

func TestEnabled(t *testing.T) {
	features.Enable(features.PCC)
	require.True(t, features.Enabled(features.PCC))
	require.False(t, features.Enabled("nope"))
}

func TestAllocsEnabled(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("accessing features allocates memory on windows")
	}
	features.Enable(features.RelaxedSIMDDeterministic)
	require.Equal(t, 0.0, testing.AllocsPerRun(100, func() {
		features.Enabled(features.RelaxedSIMDDeterministic)
	}))
}
