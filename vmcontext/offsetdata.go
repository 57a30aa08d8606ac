// Package vmcontext computes the field layout of the per-instance VMContext
// block threaded through every compiled Wasm call, and of the VMFuncRef
// record that is the canonical on-heap funcref representation. Nothing here
// allocates or owns the block itself — that lives with the host embedder —
// this package only hands out the Offset each field lives at so the
// translator can emit loads/stores against it.
package vmcontext

import "github.com/ferrocomb/wazeco/wasmabi"

// Offset is the byte offset of a field within VMContext or within one of
// its per-entity element records.
type Offset int32

// U32 encodes an Offset as uint32 for convenience at IR-instruction build sites.
func (o Offset) U32() uint32 { return uint32(o) }

// I64 encodes an Offset as int64.
func (o Offset) I64() int64 { return int64(o) }

// U64 encodes an Offset as uint64.
func (o Offset) U64() uint64 { return uint64(o) }

const (
	// magicWordSize is the 32-bit "core" tag every VMContext begins with,
	// letting a debugger or a misdirected call recognize the block.
	magicWordSize = 4
	// MagicWord is written into the first four bytes of every VMContext.
	MagicWord uint32 = 0x65726f63 // "core" little-endian

	vmMemoryImportSize     = 16 // *VMMemoryDefinition + owning instance ptr
	vmMemoryDefinitionSize = 16 // base ptr + current length
	vmTableImportSize      = 16
	vmTableDefinitionSize  = 16 // base ptr + current element count
	vmGlobalSlotSize       = 16 // 16-byte aligned per DATA MODEL / EXTERNAL INTERFACES
	vmFunctionImportSize   = 24 // wasm_call + array_call + vmctx

	// VMFuncRefSize is the size of the canonical funcref record: array_call,
	// wasm_call, type_index, vmctx.
	VMFuncRefSize = 32
	// VMFuncRefArrayCallOffset, etc. are field offsets within a VMFuncRef.
	VMFuncRefArrayCallOffset = 0
	VMFuncRefWasmCallOffset  = 8
	VMFuncRefTypeIndexOffset = 16
	VMFuncRefVmctxOffset     = 24
)

// Layout is the computed field layout of a module's VMContext instance,
// keyed by its import/definition counts. One Layout is shared by every
// instance of the same module; per-instance state lives in the memory the
// offsets point at, not in this struct.
type Layout struct {
	TotalSize int

	MagicWordOffset       Offset
	BuiltinFunctionsOffset Offset // [vmcontext.BuiltinCount]uintptr

	LastWasmExitFPOffset    Offset
	LastWasmExitPCOffset    Offset
	LastWasmEntryFPOffset   Offset
	FuelOffset              Offset
	EpochDeadlineOffset     Offset
	StackLimitOffset        Offset

	MemoriesBegin  Offset
	TablesBegin    Offset
	GlobalsBegin   Offset
	ImportedFuncsBegin Offset

	EngineTypeIDsOffset Offset // *[]TypeIndex

	layout *wasmabi.ModuleLayout
}

// NewLayout computes the VMContext field layout for a module with the given
// import/definition counts, in the stable region order fixed by EXTERNAL
// INTERFACES: magic, builtins, exit/entry/fuel/epoch/stack bookkeeping,
// then per-memory, per-table, per-global, per-imported-function slots, then
// the engine type-id array pointer.
func NewLayout(m *wasmabi.ModuleLayout) Layout {
	l := Layout{layout: m}
	off := Offset(0)

	l.MagicWordOffset = off
	off += magicWordSize
	off = align(off, 8)

	l.BuiltinFunctionsOffset = off
	off += Offset(BuiltinCount) * 8

	l.LastWasmExitFPOffset = off
	off += 8
	l.LastWasmExitPCOffset = off
	off += 8
	l.LastWasmEntryFPOffset = off
	off += 8
	l.FuelOffset = off
	off += 8
	l.EpochDeadlineOffset = off
	off += 8
	l.StackLimitOffset = off
	off += 8

	l.MemoriesBegin = off
	off += Offset(m.ImportedMemoryCount)*vmMemoryImportSize + Offset(m.LocalMemoryCount)*vmMemoryDefinitionSize

	l.TablesBegin = off
	off += Offset(m.ImportedTableCount)*vmTableImportSize + Offset(m.LocalTableCount)*vmTableDefinitionSize

	off = align(off, 16)
	l.GlobalsBegin = off
	off += Offset(m.TotalGlobals()) * vmGlobalSlotSize

	l.ImportedFuncsBegin = off
	off += Offset(m.ImportedFunctionCount) * vmFunctionImportSize

	off = align(off, 8)
	l.EngineTypeIDsOffset = off
	off += 8

	l.TotalSize = int(off)
	return l
}

func align(o Offset, to Offset) Offset {
	if rem := o % to; rem != 0 {
		return o + (to - rem)
	}
	return o
}

// MemoryImportOffset returns the offset of the i-th imported memory's
// VMMemoryImport slot. Imported memories are laid out before local ones.
func (l *Layout) MemoryImportOffset(i wasmabi.Index) Offset {
	return l.MemoriesBegin + Offset(i)*vmMemoryImportSize
}

// MemoryDefinitionOffset returns the offset of the i-th locally defined
// memory's VMMemoryDefinition slot (i is a local-memory index, not
// counting imports).
func (l *Layout) MemoryDefinitionOffset(i wasmabi.Index) Offset {
	importedBytes := Offset(l.layout.ImportedMemoryCount) * vmMemoryImportSize
	return l.MemoriesBegin + importedBytes + Offset(i)*vmMemoryDefinitionSize
}

// TableOffset returns the offset of the i-th table's slot, whether imported
// or local (both are addressed uniformly by the translator once resolved).
func (l *Layout) TableOffset(i wasmabi.Index) Offset {
	if i < l.layout.ImportedTableCount {
		return l.TablesBegin + Offset(i)*vmTableImportSize
	}
	local := i - l.layout.ImportedTableCount
	importedBytes := Offset(l.layout.ImportedTableCount) * vmTableImportSize
	return l.TablesBegin + importedBytes + Offset(local)*vmTableDefinitionSize
}

// GlobalOffset returns the offset of the i-th global's 16-byte-aligned slot.
func (l *Layout) GlobalOffset(i wasmabi.Index) Offset {
	return l.GlobalsBegin + Offset(i)*vmGlobalSlotSize
}

// ImportedFunctionOffset returns the offsets of the wasm_call, array_call
// and vmctx fields of the i-th VMFunctionImport.
func (l *Layout) ImportedFunctionOffset(i wasmabi.Index) (wasmCall, arrayCall, vmctx Offset) {
	base := l.ImportedFuncsBegin + Offset(i)*vmFunctionImportSize
	return base, base + 8, base + 16
}
