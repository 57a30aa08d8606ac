// Package frontend implements the Wasm-to-IR translator: it consumes a
// validated sequence of Wasm operators for a single function and emits SSA
// IR through the ssa package's external Builder, generalizing block types,
// control flow, SIMD canonicalization, and the VMContext-backed call ABI
// this module's Env exposes.
package frontend

import (
	ssa "github.com/ferrocomb/wazeco/ir"
	"github.com/ferrocomb/wazeco/vmcontext"
	"github.com/ferrocomb/wazeco/wasmabi"
)

// Module is the slice of a parsed-and-validated Wasm module the frontend
// needs: resolved type section and the layout-relevant counts. The parser
// and validator that produce it are external collaborators (see SCOPE).
type Module struct {
	Types  []wasmabi.FunctionType
	Layout wasmabi.ModuleLayout
}

// Compiler lowers one function body at a time to SSA IR, reusing per-module
// state (signatures, VMContext layout, global/memory variable slots) across
// calls to Init.
type Compiler struct {
	m             *Module
	vmLayout      vmcontext.Layout
	ssaBuilder    ssa.Builder
	env           Env
	signatures    map[*wasmabi.FunctionType]*ssa.Signature
	memoryGrowSig ssa.Signature

	// Reset per function by Init.
	wasmLocalToVariable                   map[wasmabi.Index]ssa.Variable
	wasmLocalFunctionIndex                wasmabi.Index
	wasmFunctionTyp                       *wasmabi.FunctionType
	wasmFunctionLocalTypes                []wasmabi.ValueType
	wasmFunctionBody                      []byte
	memoryBaseVariable, memoryLenVariable ssa.Variable
	needMemory                            bool
	globalVariables                       []ssa.Variable
	globalVariablesTypes                  []ssa.Type
	mutableGlobalVariablesIndexes          []wasmabi.Index

	// Entity materialization caches, cleared by Init: DATA MODEL requires
	// each entity be materialized at most once per (function, index).
	directFuncCache   map[wasmabi.Index]directFuncEntry
	indirectSigCache  map[wasmabi.Index]*ssa.Signature
	tableDescCache    map[wasmabi.Index]TableDescriptor
	memoryDescCache   map[wasmabi.Index]MemoryDescriptor
	globalDescCache   map[wasmabi.Index]GlobalDescriptor

	loweringState loweringState

	execCtxPtrValue, moduleCtxPtrValue ssa.Value
}

type directFuncEntry struct {
	ref ssa.FuncRef
	sig *ssa.Signature
}

// NewFrontendCompiler returns a per-module frontend Compiler.
func NewFrontendCompiler(m *Module, ssaBuilder ssa.Builder, env Env) *Compiler {
	c := &Compiler{
		m:                   m,
		ssaBuilder:          ssaBuilder,
		env:                 env,
		wasmLocalToVariable: make(map[wasmabi.Index]ssa.Variable),
		vmLayout:            vmcontext.NewLayout(&m.Layout),
	}

	c.signatures = make(map[*wasmabi.FunctionType]*ssa.Signature, len(m.Types)+1)
	for i := range m.Types {
		wasmSig := &m.Types[i]
		sig := SignatureForWasmFunctionType(wasmSig)
		sig.ID = ssa.SignatureID(i)
		c.signatures[wasmSig] = &sig
		c.ssaBuilder.DeclareSignature(&sig)
	}

	c.memoryGrowSig = ssa.Signature{
		ID:      ssa.SignatureID(len(m.Types)),
		Params:  []ssa.Type{ssa.TypeI64, ssa.TypeI32},
		Results: []ssa.Type{ssa.TypeI32},
	}
	c.ssaBuilder.DeclareSignature(&c.memoryGrowSig)

	return c
}

// SignatureForWasmFunctionType builds the compiled-function ABI signature
// for a Wasm function type: the two hidden VMContext pointers, per EXTERNAL
// INTERFACES' "Wasm ABI of compiled functions", followed by the Wasm params.
func SignatureForWasmFunctionType(typ *wasmabi.FunctionType) ssa.Signature {
	sig := ssa.Signature{
		Params:  make([]ssa.Type, len(typ.Params)+2),
		Results: make([]ssa.Type, len(typ.Results)),
	}
	sig.Params[0] = executionContextPtrTyp
	sig.Params[1] = moduleContextPtrTyp
	for j, t := range typ.Params {
		sig.Params[j+2] = WasmTypeToSSAType(t)
	}
	for j, t := range typ.Results {
		sig.Results[j] = WasmTypeToSSAType(t)
	}
	return sig
}

// Init readies the Compiler for translating one function.
func (c *Compiler) Init(idx wasmabi.Index, typ *wasmabi.FunctionType, localTypes []wasmabi.ValueType, body []byte) {
	c.ssaBuilder.Init(c.signatures[typ])
	c.loweringState.reset()

	c.wasmLocalFunctionIndex = idx
	c.wasmFunctionTyp = typ
	c.wasmFunctionLocalTypes = localTypes
	c.wasmFunctionBody = body

	c.directFuncCache = make(map[wasmabi.Index]directFuncEntry)
	c.indirectSigCache = make(map[wasmabi.Index]*ssa.Signature)
	c.tableDescCache = make(map[wasmabi.Index]TableDescriptor)
	c.memoryDescCache = make(map[wasmabi.Index]MemoryDescriptor)
	c.globalDescCache = make(map[wasmabi.Index]GlobalDescriptor)

	for k := range c.wasmLocalToVariable {
		delete(c.wasmLocalToVariable, k)
	}
}

// Both VMContext pointers are passed as opaque 64-bit handles regardless of
// host pointer width; see DESIGN NOTES' open question about 32-bit hosts.
const executionContextPtrTyp, moduleContextPtrTyp = ssa.TypeI64, ssa.TypeI64

// LowerToSSA prepares the ssaBuilder for lowering the current function: it
// creates the entry block with the two VMContext parameters and the Wasm
// parameters, zero-initializes the remaining locals, and marks the state
// reachable. The body itself is lowered by subsequent TranslateOperator
// calls; no optimization or layout happens in this package.
func (c *Compiler) LowerToSSA() {
	builder := c.ssaBuilder

	entryBlock := builder.AllocateBasicBlock()
	builder.SetCurrentBlock(entryBlock)

	// Every compiled function takes the two hidden VMContext pointers
	// ahead of its Wasm-level parameters (EXTERNAL INTERFACES: "Wasm ABI
	// of compiled functions").
	c.execCtxPtrValue = entryBlock.AddParam(builder, executionContextPtrTyp)
	c.moduleCtxPtrValue = entryBlock.AddParam(builder, moduleContextPtrTyp)
	builder.AnnotateValue(c.execCtxPtrValue, "exec_ctx")
	builder.AnnotateValue(c.moduleCtxPtrValue, "module_ctx")

	for i, typ := range c.wasmFunctionTyp.Params {
		st := WasmTypeToSSAType(typ)
		variable := builder.DeclareVariable(st)
		value := entryBlock.AddParam(builder, st)
		builder.DefineVariable(variable, value, entryBlock)
		c.wasmLocalToVariable[wasmabi.Index(i)] = variable
	}
	c.declareWasmLocals(entryBlock)
	c.declareNecessaryVariables()

	c.loweringState.reachable = true
}

// localVariable returns the SSA variable bound to a Wasm local index.
func (c *Compiler) localVariable(index wasmabi.Index) ssa.Variable {
	return c.wasmLocalToVariable[index]
}

// declareWasmLocals zero-initializes the function's non-parameter locals.
func (c *Compiler) declareWasmLocals(entry ssa.BasicBlock) {
	localCount := wasmabi.Index(len(c.wasmFunctionTyp.Params))
	for i, typ := range c.wasmFunctionLocalTypes {
		st := WasmTypeToSSAType(typ)
		variable := c.ssaBuilder.DeclareVariable(st)
		c.wasmLocalToVariable[wasmabi.Index(i)+localCount] = variable

		zeroInst := c.ssaBuilder.AllocateInstruction()
		switch st {
		case ssa.TypeI32:
			zeroInst.AsIconst32(0)
		case ssa.TypeI64:
			zeroInst.AsIconst64(0)
		case ssa.TypeF32:
			zeroInst.AsF32const(0)
		case ssa.TypeF64:
			zeroInst.AsF64const(0)
		case ssa.TypeV128:
			zeroInst.AsVconst(0, 0)
		default:
			panic("BUG: unexpected local type " + st.String())
		}

		c.ssaBuilder.InsertInstruction(zeroInst)
		value := zeroInst.Return()
		c.ssaBuilder.DefineVariable(variable, value, entry)
	}
}

func (c *Compiler) declareNecessaryVariables() {
	c.needMemory = c.m.Layout.TotalMemories() > 0
	if c.needMemory {
		c.memoryBaseVariable = c.ssaBuilder.DeclareVariable(ssa.TypeI64)
		c.memoryLenVariable = c.ssaBuilder.DeclareVariable(ssa.TypeI64)
	}

	c.globalVariables = c.globalVariables[:0]
	c.mutableGlobalVariablesIndexes = c.mutableGlobalVariablesIndexes[:0]
	c.globalVariablesTypes = c.globalVariablesTypes[:0]
}

// declareWasmGlobal registers a variable slot for one global and returns its
// index. Nothing in this package calls it; global.get/global.set resolve
// globals through the Env instead.
func (c *Compiler) declareWasmGlobal(typ wasmabi.ValueType, mutable bool) wasmabi.Index {
	st := WasmTypeToSSAType(typ)
	v := c.ssaBuilder.DeclareVariable(st)
	index := wasmabi.Index(len(c.globalVariables))
	c.globalVariables = append(c.globalVariables, v)
	c.globalVariablesTypes = append(c.globalVariablesTypes, st)
	if mutable {
		c.mutableGlobalVariablesIndexes = append(c.mutableGlobalVariablesIndexes, index)
	}
	return index
}

// WasmTypeToSSAType converts a Wasm value type to its IR type. v128 maps
// directly to the single opaque vector type: Wasm source locals/globals
// never observe a narrower lane type, only operators that read/write them
// carry a VecLane immediate.
func WasmTypeToSSAType(vt wasmabi.ValueType) ssa.Type {
	switch vt {
	case wasmabi.ValueTypeI32:
		return ssa.TypeI32
	case wasmabi.ValueTypeI64:
		return ssa.TypeI64
	case wasmabi.ValueTypeF32:
		return ssa.TypeF32
	case wasmabi.ValueTypeF64:
		return ssa.TypeF64
	case wasmabi.ValueTypeV128:
		return ssa.CanonicalVector
	case wasmabi.ValueTypeFuncref, wasmabi.ValueTypeExternref:
		return ssa.TypeI64 // stored as a tagged pointer-sized handle.
	default:
		panic("BUG: unexpected value type " + vt.String())
	}
}

// addBlockParamsFromWasmTypes adds one block parameter per Wasm type in tps,
// converted with WasmTypeToSSAType (v128 maps to the canonical vector type).
func (c *Compiler) addBlockParamsFromWasmTypes(tps []wasmabi.ValueType, blk ssa.BasicBlock) {
	for _, typ := range tps {
		st := WasmTypeToSSAType(typ)
		blk.AddParam(c.ssaBuilder, st)
	}
}

// formatBuilder outputs the constructed SSA function as a string.
func (c *Compiler) formatBuilder() string {
	return c.ssaBuilder.Format()
}
