package wasmabi

// MemArg is the static operand of a load, store, or atomic memory access:
// the declared alignment hint, byte offset, and which memory it addresses
// (always 0 until the multi-memory proposal).
type MemArg struct {
	Offset      uint64
	Align       uint32
	MemoryIndex Index
}

// Operator is one decoded instruction from a validated function body. It is
// the boundary between the external parser/validator (excluded by SCOPE)
// and the translator: every field the translator might need for some
// Opcode is named here, even though any single Operator value only
// populates the fields relevant to its Opcode.
type Operator struct {
	Opcode Opcode

	// Block/Loop/If.
	BlockType BlockType

	// Br/BrIf.
	RelativeDepth uint32

	// BrTable.
	BrTableTargets []uint32
	BrTableDefault uint32

	// Call/ReturnCall/RefFunc.
	FunctionIndex Index

	// CallIndirect/ReturnCallIndirect/CallRef/ReturnCallRef.
	TypeIndex Index

	// CallIndirect/ReturnCallIndirect and table ops; TableIndex2 holds the
	// source table of a table.copy (TableIndex holds the destination).
	TableIndex, TableIndex2 Index

	// LocalGet/LocalSet/LocalTee.
	LocalIndex Index

	// GlobalGet/GlobalSet.
	GlobalIndex Index

	// MemoryInit/DataDrop; MemoryIndex2 is memory.copy's source memory.
	DataIndex    Index
	MemoryIndex2 Index

	// TableInit/ElemDrop.
	ElemIndex Index

	// Loads, stores, AtomicWait/Notify.
	MemArg MemArg

	// AtomicWait distinguishes memory.atomic.wait32 from memory.atomic.wait64.
	AtomicWait64 bool

	// Constants: I32Const/I64Const carry the value directly; F32Const/
	// F64Const carry the raw IEEE-754 bit pattern so NaN payloads survive
	// exactly.
	I32Value int32
	I64Value int64
	F32Bits  uint32
	F64Bits  uint64

	// SelectT's explicit result type annotation.
	SelectTypes []ValueType

	// V128Const carries its 128-bit immediate as two 64-bit halves.
	V128Lo, V128Hi uint64
}
