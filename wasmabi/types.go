// Package wasmabi defines the small slice of Wasm type and opcode
// vocabulary that the translator and VMContext layout calculator need to
// talk about a validated function body and a module's import/definition
// counts. It does not parse or validate anything: a wasmabi.Module is
// assumed to already have passed an external validator, mirroring this
// package's role as a consumer of, not a replacement for, that validator.
package wasmabi

// ValueType is a Wasm value type as it appears in a FunctionType or a local
// declaration.
type ValueType byte

const (
	ValueTypeI32       ValueType = 0x7f
	ValueTypeI64       ValueType = 0x7e
	ValueTypeF32       ValueType = 0x7d
	ValueTypeF64       ValueType = 0x7c
	ValueTypeV128      ValueType = 0x7b
	ValueTypeFuncref   ValueType = 0x70
	ValueTypeExternref ValueType = 0x6f
)

// String implements fmt.Stringer.
func (v ValueType) String() string {
	switch v {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeV128:
		return "v128"
	case ValueTypeFuncref:
		return "funcref"
	case ValueTypeExternref:
		return "externref"
	default:
		return "unknown"
	}
}

// IsReference reports whether v is one of the two Wasm reference types.
func (v ValueType) IsReference() bool {
	return v == ValueTypeFuncref || v == ValueTypeExternref
}

// Index is an index into one of a module's entity spaces (functions, types,
// tables, memories, globals, elements, data).
type Index = uint32

// FunctionType is a resolved Wasm function signature.
type FunctionType struct {
	Params, Results []ValueType
}

// EqualsSignature reports whether two function types have identical
// params/results, the check call_indirect performs against a table's
// static element type before falling back to a dynamic signature check.
func (f *FunctionType) EqualsSignature(o *FunctionType) bool {
	if len(f.Params) != len(o.Params) || len(f.Results) != len(o.Results) {
		return false
	}
	for i, p := range f.Params {
		if p != o.Params[i] {
			return false
		}
	}
	for i, r := range f.Results {
		if r != o.Results[i] {
			return false
		}
	}
	return true
}

// BlockType describes the param/result shape of a structured control
// instruction (block/loop/if), resolved from the Wasm blocktype immediate
// (empty, a single value type, or a type-section index) down to an ordered
// (params, results) pair, mirroring DATA MODEL's "Block type".
type BlockType struct {
	Params, Results []ValueType
}

// TableElementType distinguishes the three shapes call_indirect's static
// signature check cares about.
type TableElementType byte

const (
	// TableElementFuncref is the general, untyped funcref table element.
	TableElementFuncref TableElementType = iota
	// TableElementTypedFunc is a `(ref null $t)` table with a statically
	// known concrete function type.
	TableElementTypedFunc
	// TableElementNoFunc is a `(ref null nofunc)` table: every indirect
	// call through it unconditionally traps.
	TableElementNoFunc
)

// IndexType distinguishes 32- and 64-bit Wasm memory indices (the
// memory64 proposal).
type IndexType byte

const (
	IndexTypeI32 IndexType = iota
	IndexTypeI64
)

// Bits returns 32 or 64.
func (t IndexType) Bits() byte {
	if t == IndexTypeI64 {
		return 64
	}
	return 32
}
