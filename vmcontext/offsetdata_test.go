package vmcontext

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ferrocomb/wazeco/wasmabi"
)

func TestNewLayout_empty(t *testing.T) {
	l := NewLayout(&wasmabi.ModuleLayout{})
	require.Equal(t, Offset(0), l.MagicWordOffset)
	require.True(t, l.BuiltinFunctionsOffset >= magicWordSize)
	require.Equal(t, l.MemoriesBegin, l.TablesBegin) // no memories or tables
	require.Equal(t, int(l.EngineTypeIDsOffset)+8, l.TotalSize)
}

func TestNewLayout_growsWithCounts(t *testing.T) {
	empty := NewLayout(&wasmabi.ModuleLayout{})
	withMem := NewLayout(&wasmabi.ModuleLayout{LocalMemoryCount: 1})
	require.Greater(t, withMem.TotalSize, empty.TotalSize)
}

func TestLayout_globalsAre16ByteAligned(t *testing.T) {
	l := NewLayout(&wasmabi.ModuleLayout{
		ImportedFunctionCount: 3,
		LocalMemoryCount:      1,
	})
	require.Equal(t, Offset(0), l.GlobalsBegin%16)
}

func TestLayout_memoryOffsetsDistinctAndOrdered(t *testing.T) {
	layout := &wasmabi.ModuleLayout{ImportedMemoryCount: 2, LocalMemoryCount: 3}
	l := NewLayout(layout)
	prev := l.MemoryImportOffset(0)
	for i := wasmabi.Index(1); i < 2; i++ {
		next := l.MemoryImportOffset(i)
		require.Greater(t, next, prev)
		prev = next
	}
	firstLocal := l.MemoryDefinitionOffset(0)
	require.Greater(t, firstLocal, l.MemoryImportOffset(1))
}

func TestLayout_importedFunctionOffsetsFieldOrder(t *testing.T) {
	l := NewLayout(&wasmabi.ModuleLayout{ImportedFunctionCount: 2})
	wasmCall, arrayCall, vmctx := l.ImportedFunctionOffset(1)
	require.Less(t, wasmCall, arrayCall)
	require.Less(t, arrayCall, vmctx)
}
