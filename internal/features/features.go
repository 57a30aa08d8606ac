// Package features implements the engine-wide target-description flags the
// translator's env trait exposes: whether proof-carrying-code facts are
// attached to memory accesses, whether Spectre mitigations are lowered at
// bounds checks, and whether relaxed-SIMD operators must produce
// deterministic results. These are process-global because they describe the
// target, not any one module.
package features

import (
	"os"
	"strings"
	"sync"
)

const (
	// EnvVarName is the environment variable carrying a comma-separated
	// list of features to enable at process start.
	EnvVarName = "WAZECO_FEATURES"

	// PCC enables proof-carrying-code memory-type facts on every pointer
	// derived from VMContext, per COMPONENT DESIGN 4.1.
	PCC = "pcc"
	// SpectreMitigation lowers bounds checks with speculation-safe masking
	// instead of a plain conditional trap.
	SpectreMitigation = "spectre-mitigation"
	// RelaxedSIMDDeterministic forces relaxed-SIMD operators to their
	// deterministic (non-fused, non-platform-varying) lowering.
	RelaxedSIMDDeterministic = "relaxed-simd-deterministic"
)

var (
	lock sync.RWMutex
	list []string
)

// EnableFromEnvironment extracts the feature list from EnvVarName.
func EnableFromEnvironment() {
	if v := os.Getenv(EnvVarName); v != "" {
		Enable(strings.Split(v, ",")...)
	}
}

// Enable the named features. Idempotent; unrecognized names are ignored.
func Enable(features ...string) {
	lock.Lock()
	defer lock.Unlock()

	enabled := list
	for _, f := range features {
		if supported(f) && !have(enabled, f) {
			enabled = append(enabled, f)
		}
	}
	list = enabled
}

// List returns the currently enabled features. The caller must treat the
// result as read-only.
func List() []string {
	lock.RLock()
	defer lock.RUnlock()
	return list
}

// Enabled returns true if the given feature is currently enabled.
func Enabled(feature string) bool {
	lock.RLock()
	features := list
	lock.RUnlock()
	return have(features, feature)
}

func have(list []string, feature string) bool {
	for _, f := range list {
		if f == feature {
			return true
		}
	}
	return false
}

func supported(feature string) bool {
	switch feature {
	case PCC, SpectreMitigation, RelaxedSIMDDeterministic:
		return true
	default:
		return false
	}
}
