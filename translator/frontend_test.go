package frontend

import (
	"strings"
	"testing"

	ssa "github.com/ferrocomb/wazeco/ir"
	"github.com/ferrocomb/wazeco/wasmabi"

	"github.com/stretchr/testify/require"
)

// newTestCompiler builds a Compiler over a single-function module whose
// sole type is typ, with one memory if withMemory is set (StaticBound is
// small and fixed so static-overflow scenarios are easy to construct).
func newTestCompiler(t *testing.T, typ wasmabi.FunctionType, localTypes []wasmabi.ValueType, withMemory bool) (*Compiler, *fakeEnv) {
	t.Helper()
	layout := wasmabi.ModuleLayout{LocalFunctionCount: 1, TypeCount: 1}
	if withMemory {
		layout.LocalMemoryCount = 1
	}
	m := &Module{Types: []wasmabi.FunctionType{typ}, Layout: layout}
	env := newFakeEnv()
	c := NewFrontendCompiler(m, ssa.NewBuilder(), env)
	c.Init(0, &m.Types[0], localTypes, nil)
	c.LowerToSSA()
	return c, env
}

func TestLowerToSSA_emptyFunction(t *testing.T) {
	c, _ := newTestCompiler(t, wasmabi.FunctionType{}, nil, false)

	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{Opcode: wasmabi.OpcodeEnd}))

	out := c.formatBuilder()
	require.Contains(t, out, "Return")
}

func TestLowerToSSA_constantReturn(t *testing.T) {
	typ := wasmabi.FunctionType{Results: []wasmabi.ValueType{wasmabi.ValueTypeI32}}
	c, _ := newTestCompiler(t, typ, nil, false)

	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{Opcode: wasmabi.OpcodeI32Const, I32Value: 42}))
	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{Opcode: wasmabi.OpcodeEnd}))

	out := c.formatBuilder()
	require.Contains(t, out, "Iconst_32 0x2a")
	require.Contains(t, out, "Return")
}

func TestLowerToSSA_localArithmetic(t *testing.T) {
	typ := wasmabi.FunctionType{
		Params:  []wasmabi.ValueType{wasmabi.ValueTypeI32, wasmabi.ValueTypeI32},
		Results: []wasmabi.ValueType{wasmabi.ValueTypeI32},
	}
	c, _ := newTestCompiler(t, typ, nil, false)

	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{Opcode: wasmabi.OpcodeLocalGet, LocalIndex: 0}))
	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{Opcode: wasmabi.OpcodeLocalGet, LocalIndex: 1}))
	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{Opcode: wasmabi.OpcodeI32Add}))
	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{Opcode: wasmabi.OpcodeEnd}))

	out := c.formatBuilder()
	require.Contains(t, out, "Iadd")
	require.Contains(t, out, "Return")
}

// TestLowerToSSA_blockFallthrough exercises a block that ends with a plain
// fallthrough End, the common case where no explicit Br ever targets the
// block's successor.
func TestLowerToSSA_blockFallthrough(t *testing.T) {
	typ := wasmabi.FunctionType{Results: []wasmabi.ValueType{wasmabi.ValueTypeI32}}
	c, _ := newTestCompiler(t, typ, nil, false)

	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{
		Opcode:    wasmabi.OpcodeBlock,
		BlockType: wasmabi.BlockType{Results: []wasmabi.ValueType{wasmabi.ValueTypeI32}},
	}))
	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{Opcode: wasmabi.OpcodeI32Const, I32Value: 7}))
	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{Opcode: wasmabi.OpcodeEnd})) // closes the block
	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{Opcode: wasmabi.OpcodeEnd})) // closes the function

	out := c.formatBuilder()
	require.Contains(t, out, "Return")
}

// TestLowerToSSA_unreachableAfterBr checks the reduced reachability machine:
// an unconditional Br makes the rest of the current block dead, so a
// constant pushed afterward must never reach the IR as a live instruction,
// yet the subsequent block/end nesting must still parse without error.
func TestLowerToSSA_unreachableAfterBr(t *testing.T) {
	typ := wasmabi.FunctionType{}
	c, _ := newTestCompiler(t, typ, nil, false)

	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{Opcode: wasmabi.OpcodeBlock}))
	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{Opcode: wasmabi.OpcodeBr, RelativeDepth: 0}))
	require.False(t, c.loweringState.reachable)
	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{Opcode: wasmabi.OpcodeI32Const, I32Value: 1}))

	// Dead code between the Br and the block's End: opening a nested If here
	// must be observed only as a dummy frame, per the reachability machine.
	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{Opcode: wasmabi.OpcodeIf}))
	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{Opcode: wasmabi.OpcodeEnd})) // closes the dummy if
	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{Opcode: wasmabi.OpcodeEnd})) // closes the block
	require.True(t, c.loweringState.reachable)                                            // Br's target was reached
	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{Opcode: wasmabi.OpcodeEnd})) // closes the function

	out := c.formatBuilder()
	require.NotContains(t, out, "Iconst_32")
}

// TestCheckedAddress_staticOverflowTraps is the scenario spec-required
// testable behavior: a load whose statically-known offset+access-size
// exceeds the memory's static bound becomes a single unconditional trap at
// translation time, with no bounds-check comparison ever materialized.
func TestCheckedAddress_staticOverflowTraps(t *testing.T) {
	typ := wasmabi.FunctionType{Params: []wasmabi.ValueType{wasmabi.ValueTypeI32}}
	c, env := newTestCompiler(t, typ, nil, true)
	env.memories[0] = MemoryDescriptor{StaticBound: 8, BaseOffset: 128}

	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{Opcode: wasmabi.OpcodeLocalGet, LocalIndex: 0}))
	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{
		Opcode: wasmabi.OpcodeI32Load,
		MemArg: wasmabi.MemArg{Offset: 100}, // 100 + 4 > StaticBound(8): provably OOB
	}))
	require.False(t, c.loweringState.reachable)
	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{Opcode: wasmabi.OpcodeEnd}))

	out := c.formatBuilder()
	require.Contains(t, out, "Exit")
	require.NotContains(t, out, "Icmp")
	require.NotContains(t, out, "ExitIfTrue")
}

// TestCheckedAddress_inBoundsEmitsNoComparison is the mirror case: when the
// static check passes, only the address computation is emitted and no
// runtime comparison instruction appears anywhere in the function.
func TestCheckedAddress_inBoundsEmitsNoComparison(t *testing.T) {
	typ := wasmabi.FunctionType{Params: []wasmabi.ValueType{wasmabi.ValueTypeI32}, Results: []wasmabi.ValueType{wasmabi.ValueTypeI32}}
	c, env := newTestCompiler(t, typ, nil, true)
	env.memories[0] = MemoryDescriptor{StaticBound: 1 << 16, BaseOffset: 128}

	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{Opcode: wasmabi.OpcodeLocalGet, LocalIndex: 0}))
	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{
		Opcode: wasmabi.OpcodeI32Load,
		MemArg: wasmabi.MemArg{Offset: 4},
	}))
	require.True(t, c.loweringState.reachable)
	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{Opcode: wasmabi.OpcodeEnd}))

	out := c.formatBuilder()
	require.Contains(t, out, "Load")
	require.NotContains(t, out, "Icmp")
	require.NotContains(t, out, "Exit")
}

func TestVecLane_simdAddIsTranslated(t *testing.T) {
	typ := wasmabi.FunctionType{
		Params:  []wasmabi.ValueType{wasmabi.ValueTypeV128, wasmabi.ValueTypeV128},
		Results: []wasmabi.ValueType{wasmabi.ValueTypeV128},
	}
	c, _ := newTestCompiler(t, typ, nil, false)

	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{Opcode: wasmabi.OpcodeLocalGet, LocalIndex: 0}))
	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{Opcode: wasmabi.OpcodeLocalGet, LocalIndex: 1}))
	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{Opcode: wasmabi.OpcodeI32x4Add}))
	require.NoError(t, c.TranslateOperator(&wasmabi.Operator{Opcode: wasmabi.OpcodeEnd}))

	out := c.formatBuilder()
	require.True(t, strings.Contains(out, "VIadd") || strings.Contains(out, "i32x4"))
}
