package frontend

import (
	"fmt"

	ssa "github.com/ferrocomb/wazeco/ir"
	"github.com/ferrocomb/wazeco/wasmabi"
)

// fakeEnv is a minimal Env for exercising the translator in isolation: it
// answers entity materialization queries with deterministic, made-up
// descriptors and panics on anything a given test doesn't expect to reach,
// so an unexpectedly-exercised code path fails loudly instead of silently.
type fakeEnv struct {
	memories map[wasmabi.Index]MemoryDescriptor
}

func newFakeEnv() *fakeEnv {
	return &fakeEnv{memories: make(map[wasmabi.Index]MemoryDescriptor)}
}

func (f *fakeEnv) Target() TargetDescription {
	return TargetDescription{PointerBits: 64}
}

func (f *fakeEnv) MakeDirectFunc(idx wasmabi.Index) (ssa.FuncRef, *ssa.Signature, error) {
	return ssa.FuncRef(idx), &ssa.Signature{ID: ssa.SignatureID(idx)}, nil
}

func (f *fakeEnv) MakeIndirectSig(typeIdx wasmabi.Index) (*ssa.Signature, error) {
	return &ssa.Signature{ID: ssa.SignatureID(typeIdx)}, nil
}

func (f *fakeEnv) MakeTable(idx wasmabi.Index) (TableDescriptor, error) {
	return TableDescriptor{ElementType: wasmabi.TableElementFuncref, BaseOffset: int64(idx) * 16}, nil
}

func (f *fakeEnv) MakeMemory(idx wasmabi.Index) (MemoryDescriptor, error) {
	if d, ok := f.memories[idx]; ok {
		return d, nil
	}
	return MemoryDescriptor{StaticBound: 1 << 16, BaseOffset: 128}, nil
}

func (f *fakeEnv) MakeGlobal(idx wasmabi.Index) (GlobalDescriptor, error) {
	return GlobalDescriptor{Kind: GlobalKindMemory, Type: wasmabi.ValueTypeI32, MemoryOffset: int64(idx) * 8}, nil
}

func (f *fakeEnv) TranslateGlobalGet(b ssa.Builder, handle uint32) (ssa.Value, error) {
	panic("fakeEnv: TranslateGlobalGet not expected in this test")
}

func (f *fakeEnv) TranslateGlobalSet(b ssa.Builder, handle uint32, value ssa.Value) error {
	panic("fakeEnv: TranslateGlobalSet not expected in this test")
}

func (f *fakeEnv) TranslateCall(b ssa.Builder, callee ssa.FuncRef, sig *ssa.Signature, args []ssa.Value) ([]ssa.Value, error) {
	inst := b.AllocateInstruction()
	inst.AsCall(callee, sig, args)
	b.InsertInstruction(inst)
	return inst.ReturnVals(), nil
}

func (f *fakeEnv) TranslateCallIndirect(b ssa.Builder, table TableDescriptor, sig *ssa.Signature, tableIndexValue ssa.Value, args []ssa.Value) ([]ssa.Value, error) {
	panic("fakeEnv: TranslateCallIndirect not expected in this test")
}

func (f *fakeEnv) TranslateCallRef(b ssa.Builder, sig *ssa.Signature, funcRefValue ssa.Value, args []ssa.Value) ([]ssa.Value, error) {
	panic("fakeEnv: TranslateCallRef not expected in this test")
}

func (f *fakeEnv) TranslateReturnCall(b ssa.Builder, callee ssa.FuncRef, sig *ssa.Signature, args []ssa.Value) error {
	panic("fakeEnv: TranslateReturnCall not expected in this test")
}

func (f *fakeEnv) TranslateReturnCallIndirect(b ssa.Builder, table TableDescriptor, sig *ssa.Signature, tableIndexValue ssa.Value, args []ssa.Value) error {
	panic("fakeEnv: TranslateReturnCallIndirect not expected in this test")
}

func (f *fakeEnv) TranslateReturnCallRef(b ssa.Builder, sig *ssa.Signature, funcRefValue ssa.Value, args []ssa.Value) error {
	panic("fakeEnv: TranslateReturnCallRef not expected in this test")
}

func (f *fakeEnv) TranslateMemoryGrow(b ssa.Builder, mem MemoryDescriptor, delta ssa.Value) (ssa.Value, error) {
	panic("fakeEnv: TranslateMemoryGrow not expected in this test")
}

func (f *fakeEnv) TranslateMemorySize(b ssa.Builder, mem MemoryDescriptor) (ssa.Value, error) {
	panic("fakeEnv: TranslateMemorySize not expected in this test")
}

func (f *fakeEnv) TranslateMemoryCopy(b ssa.Builder, dst, src MemoryDescriptor, dstOff, srcOff, length ssa.Value) error {
	panic("fakeEnv: TranslateMemoryCopy not expected in this test")
}

func (f *fakeEnv) TranslateMemoryFill(b ssa.Builder, mem MemoryDescriptor, off, val, length ssa.Value) error {
	panic("fakeEnv: TranslateMemoryFill not expected in this test")
}

func (f *fakeEnv) TranslateMemoryInit(b ssa.Builder, mem MemoryDescriptor, dataIdx wasmabi.Index, dstOff, srcOff, length ssa.Value) error {
	panic("fakeEnv: TranslateMemoryInit not expected in this test")
}

func (f *fakeEnv) TranslateDataDrop(b ssa.Builder, dataIdx wasmabi.Index) error {
	panic("fakeEnv: TranslateDataDrop not expected in this test")
}

func (f *fakeEnv) TranslateTableCopy(b ssa.Builder, dst, src TableDescriptor, dstOff, srcOff, length ssa.Value) error {
	panic("fakeEnv: TranslateTableCopy not expected in this test")
}

func (f *fakeEnv) TranslateTableFill(b ssa.Builder, table TableDescriptor, off, val, length ssa.Value) error {
	panic("fakeEnv: TranslateTableFill not expected in this test")
}

func (f *fakeEnv) TranslateTableInit(b ssa.Builder, table TableDescriptor, elemIdx wasmabi.Index, dstOff, srcOff, length ssa.Value) error {
	panic("fakeEnv: TranslateTableInit not expected in this test")
}

func (f *fakeEnv) TranslateTableGrow(b ssa.Builder, table TableDescriptor, delta, initValue ssa.Value) (ssa.Value, error) {
	panic("fakeEnv: TranslateTableGrow not expected in this test")
}

func (f *fakeEnv) TranslateElemDrop(b ssa.Builder, elemIdx wasmabi.Index) error {
	panic("fakeEnv: TranslateElemDrop not expected in this test")
}

func (f *fakeEnv) TranslateAtomicWait32(b ssa.Builder, mem MemoryDescriptor, addr, expected, timeout ssa.Value) (ssa.Value, error) {
	panic("fakeEnv: TranslateAtomicWait32 not expected in this test")
}

func (f *fakeEnv) TranslateAtomicWait64(b ssa.Builder, mem MemoryDescriptor, addr, expected, timeout ssa.Value) (ssa.Value, error) {
	panic("fakeEnv: TranslateAtomicWait64 not expected in this test")
}

func (f *fakeEnv) TranslateAtomicNotify(b ssa.Builder, mem MemoryDescriptor, addr, count ssa.Value) (ssa.Value, error) {
	panic("fakeEnv: TranslateAtomicNotify not expected in this test")
}

func (f *fakeEnv) TranslateGCOp(b ssa.Builder, op wasmabi.Opcode) error {
	return &ErrUnsupported{Proposal: fmt.Sprintf("opcode %d", op)}
}
