package frontend

import (
	"fmt"

	ssa "github.com/ferrocomb/wazeco/ir"
	"github.com/ferrocomb/wazeco/wasmabi"
)

// TargetDescription is the subset of the compilation target the translator
// consults to pick between alternate lowerings of the same operator (see
// EXTERNAL INTERFACES' "Target description").
type TargetDescription struct {
	PointerBits              byte
	HostIsX86                bool
	HasNativeFMA             bool
	PCCEnabled               bool
	SpectreMitigation        bool
	RelaxedSIMDDeterministic bool
}

// GlobalKind distinguishes the three ways a Wasm global can be backed, per
// the value/memory operators section's GlobalGet/Set dispatch.
type GlobalKind byte

const (
	// GlobalKindConst is a global whose value is known at compile time and
	// never changes; GlobalGet yields the constant directly with no memory
	// access.
	GlobalKindConst GlobalKind = iota
	// GlobalKindMemory is a global backed by a VMContext slot, read/written
	// through the base "global" pointer at a fixed offset.
	GlobalKindMemory
	// GlobalKindHost is a global whose get/set is forwarded to the host
	// environment instead of being inlined.
	GlobalKindHost
)

// GlobalDescriptor is what MakeGlobal returns: everything the translator
// needs to lower a GlobalGet/GlobalSet against this global without knowing
// which kind it is ahead of time.
type GlobalDescriptor struct {
	Kind GlobalKind
	Type wasmabi.ValueType

	// Valid when Kind == GlobalKindConst.
	ConstValue ssa.Value

	// Valid when Kind == GlobalKindMemory: the byte offset of the global's
	// VMGlobalDefinition/VMGlobalImport slot within VMContext.
	MemoryOffset int64
	Mutable      bool

	// Valid when Kind == GlobalKindHost: an opaque handle the Env
	// implementation recognizes in its own TranslateGlobalGet/Set calls.
	HostHandle uint32
}

// TableDescriptor is what MakeTable returns.
type TableDescriptor struct {
	ElementType  wasmabi.TableElementType
	ElementTypeFunc *wasmabi.FunctionType // set when ElementType == TableElementTypedFunc
	BaseOffset   int64                    // VMContext offset of the VMTableDefinition/VMTableImport slot
}

// MemoryDescriptor is what MakeMemory returns.
type MemoryDescriptor struct {
	IndexType     wasmabi.IndexType
	Shared        bool
	PageLog2      byte // typically 16 (64 KiB pages)
	StaticBound   uint64
	BaseOffset    int64 // VMContext offset of the VMMemoryDefinition/VMMemoryImport slot
}

// ErrUnsupported names a Wasm proposal the translator deliberately does not
// lower, per SCOPE's excluded-proposal list.
type ErrUnsupported struct {
	Proposal string
}

func (e *ErrUnsupported) Error() string {
	return fmt.Sprintf("unsupported Wasm proposal: %s", e.Proposal)
}

// Env is the collaborator the translator consults for everything that
// depends on the surrounding module and compilation target: entity
// materialization, call lowering, and built-in operations. Implementations
// must materialize each entity at most once per (function, entity index),
// per DATA MODEL.
type Env interface {
	Target() TargetDescription

	// Entity materialization. Each returns an IR handle for the given
	// module-relative index, calling into vmcontext-offset computation and
	// issuing at most one ssa.Value-producing instruction sequence per
	// (function, index) pair; the frontend Compiler caches the result.
	MakeDirectFunc(idx wasmabi.Index) (ssa.FuncRef, *ssa.Signature, error)
	MakeIndirectSig(typeIdx wasmabi.Index) (*ssa.Signature, error)
	MakeTable(idx wasmabi.Index) (TableDescriptor, error)
	MakeMemory(idx wasmabi.Index) (MemoryDescriptor, error)
	MakeGlobal(idx wasmabi.Index) (GlobalDescriptor, error)

	// TranslateGlobalGet and TranslateGlobalSet handle GlobalKindHost
	// globals, forwarding to whatever host binding the handle identifies
	// instead of a VMContext memory access.
	TranslateGlobalGet(b ssa.Builder, handle uint32) (ssa.Value, error)
	TranslateGlobalSet(b ssa.Builder, handle uint32, value ssa.Value) error

	// Call lowering. Each receives the already-resolved IR signature and
	// lowered arguments (including the two hidden VMContext pointers) and
	// returns the call's results.
	TranslateCall(b ssa.Builder, callee ssa.FuncRef, sig *ssa.Signature, args []ssa.Value) ([]ssa.Value, error)
	TranslateCallIndirect(b ssa.Builder, table TableDescriptor, sig *ssa.Signature, tableIndexValue ssa.Value, args []ssa.Value) ([]ssa.Value, error)
	TranslateCallRef(b ssa.Builder, sig *ssa.Signature, funcRefValue ssa.Value, args []ssa.Value) ([]ssa.Value, error)
	TranslateReturnCall(b ssa.Builder, callee ssa.FuncRef, sig *ssa.Signature, args []ssa.Value) error
	TranslateReturnCallIndirect(b ssa.Builder, table TableDescriptor, sig *ssa.Signature, tableIndexValue ssa.Value, args []ssa.Value) error
	TranslateReturnCallRef(b ssa.Builder, sig *ssa.Signature, funcRefValue ssa.Value, args []ssa.Value) error

	// Built-in ops: memory/table bulk operations and atomics, lowered as
	// calls through the VMContext's builtin-function array.
	TranslateMemoryGrow(b ssa.Builder, mem MemoryDescriptor, delta ssa.Value) (ssa.Value, error)
	TranslateMemorySize(b ssa.Builder, mem MemoryDescriptor) (ssa.Value, error)
	TranslateMemoryCopy(b ssa.Builder, dst, src MemoryDescriptor, dstOff, srcOff, length ssa.Value) error
	TranslateMemoryFill(b ssa.Builder, mem MemoryDescriptor, off, val, length ssa.Value) error
	TranslateMemoryInit(b ssa.Builder, mem MemoryDescriptor, dataIdx wasmabi.Index, dstOff, srcOff, length ssa.Value) error
	TranslateDataDrop(b ssa.Builder, dataIdx wasmabi.Index) error
	TranslateTableCopy(b ssa.Builder, dst, src TableDescriptor, dstOff, srcOff, length ssa.Value) error
	TranslateTableFill(b ssa.Builder, table TableDescriptor, off, val, length ssa.Value) error
	TranslateTableInit(b ssa.Builder, table TableDescriptor, elemIdx wasmabi.Index, dstOff, srcOff, length ssa.Value) error
	TranslateTableGrow(b ssa.Builder, table TableDescriptor, delta, initValue ssa.Value) (ssa.Value, error)
	TranslateElemDrop(b ssa.Builder, elemIdx wasmabi.Index) error
	TranslateAtomicWait32(b ssa.Builder, mem MemoryDescriptor, addr, expected, timeout ssa.Value) (ssa.Value, error)
	TranslateAtomicWait64(b ssa.Builder, mem MemoryDescriptor, addr, expected, timeout ssa.Value) (ssa.Value, error)
	TranslateAtomicNotify(b ssa.Builder, mem MemoryDescriptor, addr, count ssa.Value) (ssa.Value, error)

	// GC ref / array / struct ops are recognized but always unsupported for
	// now (EXTERNAL INTERFACES: "stubbed to unsupported for now").
	TranslateGCOp(b ssa.Builder, op wasmabi.Opcode) error
}
