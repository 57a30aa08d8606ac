package wasmabi

// Opcode is a single Wasm instruction tag as consumed by the translator.
// Only the opcodes the translator actually dispatches on are named here;
// a validated stream may contain others (the prefixed FC/FD/FE extension
// spaces) which the translator resolves by also inspecting a sub-opcode,
// not modeled here since this package is deliberately a thin vocabulary,
// not a decoder.
type Opcode uint16

const (
	OpcodeUnreachable Opcode = iota
	OpcodeNop
	OpcodeBlock
	OpcodeLoop
	OpcodeIf
	OpcodeElse
	OpcodeEnd
	OpcodeBr
	OpcodeBrIf
	OpcodeBrTable
	OpcodeReturn
	OpcodeCall
	OpcodeCallIndirect
	OpcodeReturnCall
	OpcodeReturnCallIndirect
	OpcodeCallRef
	OpcodeReturnCallRef
	OpcodeDrop
	OpcodeSelect
	OpcodeSelectT
	OpcodeLocalGet
	OpcodeLocalSet
	OpcodeLocalTee
	OpcodeGlobalGet
	OpcodeGlobalSet
	OpcodeRefNull
	OpcodeRefIsNull
	OpcodeRefFunc
	OpcodeRefAsNonNull

	OpcodeI32Load
	OpcodeI64Load
	OpcodeF32Load
	OpcodeF64Load
	OpcodeI32Store
	OpcodeI64Store
	OpcodeF32Store
	OpcodeF64Store
	OpcodeMemorySize
	OpcodeMemoryGrow
	OpcodeMemoryCopy
	OpcodeMemoryFill
	OpcodeMemoryInit
	OpcodeDataDrop
	OpcodeTableCopy
	OpcodeTableFill
	OpcodeTableInit
	OpcodeElemDrop
	OpcodeTableGet
	OpcodeTableSet
	OpcodeTableSize
	OpcodeTableGrow

	OpcodeI32Const
	OpcodeI64Const
	OpcodeF32Const
	OpcodeF64Const

	OpcodeI32Add
	OpcodeI32Sub
	OpcodeI32Mul
	OpcodeI32Eq
	OpcodeI32Ne
	OpcodeI32LtS
	OpcodeI32LtU
	OpcodeI32GtS
	OpcodeI32GtU
	OpcodeI32LeS
	OpcodeI32LeU
	OpcodeI32GeS
	OpcodeI32GeU
	OpcodeI64Add
	OpcodeI64Sub
	OpcodeI64Mul
	OpcodeI64Eq
	OpcodeI64Ne
	OpcodeI64LtS
	OpcodeI64LtU
	OpcodeI64GtS
	OpcodeI64GtU
	OpcodeI64LeS
	OpcodeI64LeU
	OpcodeI64GeS
	OpcodeI64GeU
	OpcodeF32Add
	OpcodeF32Sub
	OpcodeF32Mul
	OpcodeF32Eq
	OpcodeF32Ne
	OpcodeF32Lt
	OpcodeF32Gt
	OpcodeF32Le
	OpcodeF32Ge
	OpcodeF64Add
	OpcodeF64Sub
	OpcodeF64Mul
	OpcodeF64Eq
	OpcodeF64Ne
	OpcodeF64Lt
	OpcodeF64Gt
	OpcodeF64Le
	OpcodeF64Ge

	// Bitwise and shift/rotate, shared shape between i32 and i64.
	OpcodeI32And
	OpcodeI32Or
	OpcodeI32Xor
	OpcodeI32Shl
	OpcodeI32ShrS
	OpcodeI32ShrU
	OpcodeI32Rotl
	OpcodeI32Rotr
	OpcodeI32Clz
	OpcodeI32Ctz
	OpcodeI32Popcnt
	OpcodeI32DivS
	OpcodeI32DivU
	OpcodeI32RemS
	OpcodeI32RemU
	OpcodeI64And
	OpcodeI64Or
	OpcodeI64Xor
	OpcodeI64Shl
	OpcodeI64ShrS
	OpcodeI64ShrU
	OpcodeI64Rotl
	OpcodeI64Rotr
	OpcodeI64Clz
	OpcodeI64Ctz
	OpcodeI64Popcnt
	OpcodeI64DivS
	OpcodeI64DivU
	OpcodeI64RemS
	OpcodeI64RemU

	OpcodeF32Abs
	OpcodeF32Neg
	OpcodeF32Sqrt
	OpcodeF32Ceil
	OpcodeF32Floor
	OpcodeF32Trunc
	OpcodeF32Nearest
	OpcodeF32Min
	OpcodeF32Max
	OpcodeF32Copysign
	OpcodeF64Abs
	OpcodeF64Neg
	OpcodeF64Sqrt
	OpcodeF64Ceil
	OpcodeF64Floor
	OpcodeF64Trunc
	OpcodeF64Nearest
	OpcodeF64Min
	OpcodeF64Max
	OpcodeF64Copysign

	// Numeric conversions.
	OpcodeI32WrapI64
	OpcodeI64ExtendI32S
	OpcodeI64ExtendI32U
	OpcodeI32TruncF32S
	OpcodeI32TruncF32U
	OpcodeI32TruncF64S
	OpcodeI32TruncF64U
	OpcodeI64TruncF32S
	OpcodeI64TruncF32U
	OpcodeI64TruncF64S
	OpcodeI64TruncF64U
	OpcodeF32ConvertI32S
	OpcodeF32ConvertI32U
	OpcodeF32ConvertI64S
	OpcodeF32ConvertI64U
	OpcodeF64ConvertI32S
	OpcodeF64ConvertI32U
	OpcodeF64ConvertI64S
	OpcodeF64ConvertI64U
	OpcodeF32DemoteF64
	OpcodeF64PromoteF32
	OpcodeI32ReinterpretF32
	OpcodeI64ReinterpretF64
	OpcodeF32ReinterpretI32
	OpcodeF64ReinterpretI64
	OpcodeI32Extend8S
	OpcodeI32Extend16S
	OpcodeI64Extend8S
	OpcodeI64Extend16S
	OpcodeI64Extend32S

	OpcodeAtomicWait
	OpcodeAtomicNotify

	// The following are recognized by name but always rejected by the
	// translator with an Unsupported error, per SCOPE's excluded proposals.
	OpcodeGCStructNew
	OpcodeGCArrayNew
	OpcodeThrow
	OpcodeTry
	OpcodeStackSwitch
	OpcodeSharedMemoryAtomicRMW
	OpcodeI64Add128 // wide-arithmetic proposal
	OpcodeMemoryDiscard

	// Vector (v128) opcodes. Each concrete opcode fixes its own lane shape
	// (OpcodeI8x16Add always operates on 16 byte lanes, and so on), so the
	// translator resolves ir.VecLane directly from the Opcode rather than
	// needing it threaded through as a separate Operator field.
	OpcodeV128Load
	OpcodeV128Store
	OpcodeV128Const
	OpcodeV128Not
	OpcodeV128And
	OpcodeV128Or
	OpcodeV128Xor
	OpcodeV128AndNot
	OpcodeV128Bitselect
	OpcodeI8x16Add
	OpcodeI8x16Sub
	OpcodeI8x16Abs
	OpcodeI8x16Neg
	OpcodeI8x16Popcnt
	OpcodeI16x8Add
	OpcodeI16x8Sub
	OpcodeI16x8Mul
	OpcodeI16x8Abs
	OpcodeI16x8Neg
	OpcodeI32x4Add
	OpcodeI32x4Sub
	OpcodeI32x4Mul
	OpcodeI32x4Abs
	OpcodeI32x4Neg
	OpcodeI64x2Add
	OpcodeI64x2Sub
	OpcodeI64x2Mul
	OpcodeI64x2Abs
	OpcodeI64x2Neg
)
