package frontend

import (
	ssa "github.com/ferrocomb/wazeco/ir"
	"github.com/ferrocomb/wazeco/trap"
	"github.com/ferrocomb/wazeco/wasmabi"
)

// translateBlock opens a `block`: a successor block is allocated up front
// (carrying the block's result types as parameters) and becomes the new
// current block once this frame's End runs.
func (c *Compiler) translateBlock(b ssa.Builder, st *loweringState, bt wasmabi.BlockType) error {
	successor := b.AllocateBasicBlock()
	c.addBlockParamsFromWasmTypes(bt.Results, successor)

	st.framePush(controlFrame{
		kind:             frameBlock,
		paramTypes:       bt.Params,
		resultTypes:      bt.Results,
		successor:        successor,
		originalStackLen: len(st.values) - len(bt.Params),
	})
	return nil
}

// translateLoop opens a `loop`: besides the exit successor, a header block
// is allocated and entered immediately by a fallthrough jump, since Br at
// depth 0 inside the loop must target the header (the "continue" edge),
// per COMPONENT DESIGN's reachability machine.
func (c *Compiler) translateLoop(b ssa.Builder, st *loweringState, bt wasmabi.BlockType) error {
	header := b.AllocateBasicBlock()
	c.addBlockParamsFromWasmTypes(bt.Params, header)

	successor := b.AllocateBasicBlock()
	c.addBlockParamsFromWasmTypes(bt.Results, successor)

	args := st.popN(len(bt.Params))
	jump := b.AllocateInstruction()
	jump.AsJump(args, header)
	b.InsertInstruction(jump)

	b.SetCurrentBlock(header)
	for i := range bt.Params {
		st.push(header.Param(i))
	}

	st.framePush(controlFrame{
		kind:             frameLoop,
		paramTypes:       bt.Params,
		resultTypes:      bt.Results,
		successor:        successor,
		loopHeader:       header,
		originalStackLen: len(st.values) - len(bt.Params),
	})
	return nil
}

// translateIf opens an `if`: both branches are allocated as unconditional
// single-predecessor successors of the current block, so neither needs
// block parameters of its own (they are dominated by the head and can
// reference live SSA values directly); the else branch is only actually
// entered (by AsBrz) once we know whether an explicit Else operator shows
// up, which translateElse/translateEnd resolve.
func (c *Compiler) translateIf(b ssa.Builder, st *loweringState, bt wasmabi.BlockType) error {
	cond := st.pop()

	successor := b.AllocateBasicBlock()
	c.addBlockParamsFromWasmTypes(bt.Results, successor)

	thenBlk := b.AllocateBasicBlock()
	elseBlk := b.AllocateBasicBlock()

	args := st.peekN(len(bt.Params))
	argsCopy := append([]ssa.Value(nil), args...)

	// Neither thenBlk nor elseBlk declares block params: each has exactly
	// one predecessor (the head), so they are dominated by it and can
	// reference the if's live param values directly instead of threading
	// them through as block arguments.
	brz := b.AllocateInstruction()
	brz.AsBrz(cond, nil, elseBlk)
	b.InsertInstruction(brz)
	fall := b.AllocateInstruction()
	fall.AsJump(nil, thenBlk)
	fall.AsFallthroughJump()
	b.InsertInstruction(fall)

	b.SetCurrentBlock(thenBlk)

	st.framePush(controlFrame{
		kind:             frameIf,
		paramTypes:       bt.Params,
		resultTypes:      bt.Results,
		successor:        successor,
		originalStackLen: len(st.values) - len(bt.Params),
		elseBlock:        elseBlk,
		ifElseArgs:       argsCopy,
	})
	return nil
}

// translateElse closes the consequent arm and switches translation to the
// alternative arm.
func (c *Compiler) translateElse(b ssa.Builder, st *loweringState) error {
	f := st.frameTop()
	if f.dummy {
		return nil
	}

	if st.reachable {
		jumpArgs := st.popN(len(f.resultTypes))
		jmp := b.AllocateInstruction()
		jmp.AsJump(jumpArgs, f.successor)
		b.InsertInstruction(jmp)
		f.successorReached = true
	}

	f.elseSeen = true
	b.SetCurrentBlock(f.elseBlock)
	st.truncateTo(f.originalStackLen)
	for _, v := range f.ifElseArgs {
		st.push(v)
	}
	st.reachable = true
	return nil
}

// translateEnd closes the innermost frame, restoring reachability exactly
// when its successor was reached by some live edge (fallthrough or
// explicit branch): COMPONENT DESIGN's unified "reachable after End" rule.
func (c *Compiler) translateEnd(b ssa.Builder, st *loweringState) error {
	if len(st.frames) == 0 {
		// The (absent) function-level frame is modeled implicitly by an
		// empty frame stack (see loweringState's doc comment): this End
		// closes the function body itself, not a block/loop/if, so it is
		// just an ordinary Return over whatever is left reachable.
		return c.emitReturn(b, st)
	}

	f := st.framePop()
	if f.dummy {
		return nil
	}

	if st.reachable {
		jumpArgs := st.popN(len(f.resultTypes))
		jmp := b.AllocateInstruction()
		jmp.AsJump(jumpArgs, f.successor)
		b.InsertInstruction(jmp)
		f.successorReached = true
	}
	if f.kind == frameIf && !f.elseSeen {
		// No explicit Else: Wasm's implicit else is an identity passthrough
		// of the if's own block arguments.
		b.SetCurrentBlock(f.elseBlock)
		jmp := b.AllocateInstruction()
		jmp.AsJump(f.ifElseArgs, f.successor)
		b.InsertInstruction(jmp)
		f.successorReached = true
	}

	b.SetCurrentBlock(f.successor)
	st.truncateTo(f.originalStackLen)
	for i := range f.resultTypes {
		st.push(f.successor.Param(i))
	}
	st.reachable = f.successorReached
	return nil
}

func (c *Compiler) emitReturn(b ssa.Builder, st *loweringState) error {
	if !st.reachable {
		return nil
	}
	n := len(c.wasmFunctionTyp.Results)
	vs := st.popN(n)
	ret := b.AllocateInstruction()
	ret.AsReturn(vs)
	b.InsertInstruction(ret)
	st.reachable = false
	return nil
}

func (c *Compiler) translateReturn(b ssa.Builder, st *loweringState) error {
	if err := c.emitReturn(b, st); err != nil {
		return err
	}
	return nil
}

// translateBr lowers an unconditional branch to the frame at depth.
func (c *Compiler) translateBr(b ssa.Builder, st *loweringState, depth uint32) error {
	f := st.frameAt(depth)
	target, n, _ := branchTarget(f)
	args := append([]ssa.Value(nil), st.peekN(n)...)
	jmp := b.AllocateInstruction()
	jmp.AsJump(args, target)
	b.InsertInstruction(jmp)
	f.successorReached = f.successorReached || target == f.successor
	st.reachable = false
	return nil
}

func (c *Compiler) translateBrIf(b ssa.Builder, st *loweringState, depth uint32) error {
	cond := st.pop()
	f := st.frameAt(depth)
	target, n, _ := branchTarget(f)
	args := append([]ssa.Value(nil), st.peekN(n)...)
	brnz := b.AllocateInstruction()
	brnz.AsBrnz(cond, args, target)
	b.InsertInstruction(brnz)
	if target == f.successor {
		f.successorReached = true
	}
	return nil
}

func (c *Compiler) translateBrTable(b ssa.Builder, st *loweringState, op *wasmabi.Operator) error {
	index := st.pop()

	// A bare BrTable target can carry no per-target arguments, so each depth
	// gets its own trampoline block that does the real argument-carrying
	// Jump; BrTable itself only ever branches between argument-free blocks.
	depths := append(append([]uint32(nil), op.BrTableTargets...), op.BrTableDefault)
	targets := make([]ssa.BasicBlock, len(depths))
	currentBlk := b.CurrentBlock()
	for i, depth := range depths {
		f := st.frameAt(depth)
		target, n, _ := branchTarget(f)
		args := append([]ssa.Value(nil), st.peekN(n)...)

		trampoline := b.AllocateBasicBlock()
		b.SetCurrentBlock(trampoline)
		jmp := b.AllocateInstruction()
		jmp.AsJump(args, target)
		b.InsertInstruction(jmp)
		b.Seal(trampoline)

		targets[i] = trampoline
		if target == f.successor {
			f.successorReached = true
		}
	}
	b.SetCurrentBlock(currentBlk)

	brt := b.AllocateInstruction()
	brt.AsBrTable(index, targets)
	b.InsertInstruction(brt)
	st.reachable = false
	return nil
}

// --- Calls ---

func (c *Compiler) wasmArgs(st *loweringState, sig *ssa.Signature) []ssa.Value {
	n := wasmArgCount(sig)
	wasmVals := st.popN(n)
	return append(c.hiddenArgs(), wasmVals...)
}

func (c *Compiler) pushCallResults(st *loweringState, inst *ssa.Instruction) {
	first, rest := inst.Returns()
	if first.Valid() {
		st.push(first)
	}
	for _, v := range rest {
		st.push(v)
	}
}

func (c *Compiler) translateCall(b ssa.Builder, st *loweringState, idx wasmabi.Index) error {
	ref, sig, err := c.resolveDirectFunc(idx)
	if err != nil {
		return err
	}
	args := c.wasmArgs(st, sig)
	inst := b.AllocateInstruction()
	inst.AsCall(ref, sig, args)
	b.InsertInstruction(inst)
	c.pushCallResults(st, inst)
	return nil
}

func (c *Compiler) translateReturnCall(b ssa.Builder, st *loweringState, idx wasmabi.Index) error {
	ref, sig, err := c.resolveDirectFunc(idx)
	if err != nil {
		return err
	}
	args := c.wasmArgs(st, sig)
	if err := c.env.TranslateReturnCall(b, ref, sig, args); err != nil {
		return err
	}
	st.reachable = false
	return nil
}

func (c *Compiler) translateCallIndirect(b ssa.Builder, st *loweringState, op *wasmabi.Operator) error {
	sig, err := c.resolveIndirectSig(op.TypeIndex)
	if err != nil {
		return err
	}
	table, err := c.resolveTable(op.TableIndex)
	if err != nil {
		return err
	}
	tableIndexValue := st.pop()
	args := c.wasmArgs(st, sig)
	results, err := c.env.TranslateCallIndirect(b, table, sig, tableIndexValue, args)
	if err != nil {
		return err
	}
	for _, v := range results {
		st.push(v)
	}
	return nil
}

func (c *Compiler) translateReturnCallIndirect(b ssa.Builder, st *loweringState, op *wasmabi.Operator) error {
	sig, err := c.resolveIndirectSig(op.TypeIndex)
	if err != nil {
		return err
	}
	table, err := c.resolveTable(op.TableIndex)
	if err != nil {
		return err
	}
	tableIndexValue := st.pop()
	args := c.wasmArgs(st, sig)
	if err := c.env.TranslateReturnCallIndirect(b, table, sig, tableIndexValue, args); err != nil {
		return err
	}
	st.reachable = false
	return nil
}

func (c *Compiler) translateCallRef(b ssa.Builder, st *loweringState, typeIdx wasmabi.Index) error {
	sig, err := c.resolveIndirectSig(typeIdx)
	if err != nil {
		return err
	}
	funcRefValue := st.pop()
	args := c.wasmArgs(st, sig)
	results, err := c.env.TranslateCallRef(b, sig, funcRefValue, args)
	if err != nil {
		return err
	}
	for _, v := range results {
		st.push(v)
	}
	return nil
}

func (c *Compiler) translateReturnCallRef(b ssa.Builder, st *loweringState, typeIdx wasmabi.Index) error {
	sig, err := c.resolveIndirectSig(typeIdx)
	if err != nil {
		return err
	}
	funcRefValue := st.pop()
	args := c.wasmArgs(st, sig)
	if err := c.env.TranslateReturnCallRef(b, sig, funcRefValue, args); err != nil {
		return err
	}
	st.reachable = false
	return nil
}

// --- Globals ---

func (c *Compiler) translateGlobalGet(b ssa.Builder, st *loweringState, idx wasmabi.Index) error {
	g, err := c.resolveGlobal(idx)
	if err != nil {
		return err
	}
	switch g.Kind {
	case GlobalKindConst:
		st.push(g.ConstValue)
	case GlobalKindMemory:
		addr := b.AllocateInstruction()
		addr.AsIconst64(uint64(g.MemoryOffset))
		b.InsertInstruction(addr)
		ptr := b.AllocateInstruction()
		ptr.AsIadd(c.moduleCtxPtrValue, addr.Return())
		b.InsertInstruction(ptr)
		load := b.AllocateInstruction()
		load.AsLoad(ptr.Return(), 0, WasmTypeToSSAType(g.Type))
		b.InsertInstruction(load)
		st.push(load.Return())
	case GlobalKindHost:
		v, err := c.env.TranslateGlobalGet(b, g.HostHandle)
		if err != nil {
			return err
		}
		st.push(v)
	}
	return nil
}

func (c *Compiler) translateGlobalSet(b ssa.Builder, st *loweringState, idx wasmabi.Index) error {
	g, err := c.resolveGlobal(idx)
	if err != nil {
		return err
	}
	v := st.pop()
	switch g.Kind {
	case GlobalKindMemory:
		addr := b.AllocateInstruction()
		addr.AsIconst64(uint64(g.MemoryOffset))
		b.InsertInstruction(addr)
		ptr := b.AllocateInstruction()
		ptr.AsIadd(c.moduleCtxPtrValue, addr.Return())
		b.InsertInstruction(ptr)
		store := b.AllocateInstruction()
		store.AsStore(ssa.OpcodeStore, v, ptr.Return(), 0)
		b.InsertInstruction(store)
	case GlobalKindHost:
		return c.env.TranslateGlobalSet(b, g.HostHandle, v)
	case GlobalKindConst:
		panic("BUG: global.set on an immutable const global")
	}
	return nil
}

// --- Loads / Stores ---

// translateLoad lowers a load through checkedAddress: an access that
// provably exceeds the memory's StaticBound becomes an unconditional trap
// at translation time; any other access gets no runtime comparison and
// relies on the guard region beyond the static bound.
func (c *Compiler) translateLoad(b ssa.Builder, st *loweringState, op *wasmabi.Operator) error {
	mem, err := c.resolveMemory(op.MemArg.MemoryIndex)
	if err != nil {
		return err
	}
	addr := st.pop()
	typ := loadResultType(op.Opcode)

	ptr, reachable, err := c.checkedAddress(b, mem, addr, op.MemArg.Offset, typ.Size())
	if err != nil {
		return err
	}
	if !reachable {
		st.reachable = false
		return nil
	}

	load := b.AllocateInstruction()
	load.AsLoad(ptr, 0, typ)
	b.InsertInstruction(load)
	st.push(load.Return())
	return nil
}

func (c *Compiler) translateStore(b ssa.Builder, st *loweringState, op *wasmabi.Operator) error {
	mem, err := c.resolveMemory(op.MemArg.MemoryIndex)
	if err != nil {
		return err
	}
	value := st.pop()
	addr := st.pop()

	ptr, reachable, err := c.checkedAddress(b, mem, addr, op.MemArg.Offset, value.Type().Size())
	if err != nil {
		return err
	}
	if !reachable {
		st.reachable = false
		return nil
	}

	store := b.AllocateInstruction()
	store.AsStore(storeOpcodeFor(op.Opcode), value, ptr, 0)
	b.InsertInstruction(store)
	return nil
}

// checkedAddress computes memoryBase + addr (+ offset, if non-zero) into a
// bounds-checked machine address. The check happens entirely at translation
// time, following index2addr in the ground-truth translator
// (cranelift-wasm's translate_inst.rs): if offset+accessSize provably
// overflows the memory's static bound, this emits a single unconditional
// trap and marks the block unreachable — no Load/Store is ever materialized
// for that access. Otherwise it emits only the address computation, with
// no runtime comparison at all: an in-bounds-by-construction access is
// allowed to rely on the guard region beyond the static bound (backed by
// unmapped virtual memory) to catch anything the static check missed.
//
// reachable is false exactly when the unconditional trap was taken; callers
// must not emit the load/store in that case.
func (c *Compiler) checkedAddress(b ssa.Builder, mem MemoryDescriptor, addr ssa.Value, offset uint64, accessSize byte) (ptr ssa.Value, reachable bool, err error) {
	if offset+uint64(accessSize) > mem.StaticBound {
		trapInst := b.AllocateInstruction()
		trapInst.AsExitWithCode(c.execCtxPtrValue, trap.WithTrap(trap.CodeHeapOutOfBounds))
		b.InsertInstruction(trapInst)
		return ssa.ValueInvalid, false, nil
	}

	addr64 := addr
	if addr.Type() == ssa.TypeI32 {
		ext := b.AllocateInstruction()
		ext.AsUExtend(addr, 32, 64)
		b.InsertInstruction(ext)
		addr64 = ext.Return()
	}

	baseConst := b.AllocateInstruction()
	baseConst.AsIconst64(uint64(mem.BaseOffset))
	b.InsertInstruction(baseConst)
	basePtr := b.AllocateInstruction()
	basePtr.AsIadd(c.moduleCtxPtrValue, baseConst.Return())
	b.InsertInstruction(basePtr)
	heapBase := b.AllocateInstruction()
	heapBase.AsLoad(basePtr.Return(), 0, ssa.TypeI64)
	b.InsertInstruction(heapBase)

	baseAndIndex := b.AllocateInstruction()
	baseAndIndex.AsIadd(heapBase.Return(), addr64)
	b.InsertInstruction(baseAndIndex)

	if offset == 0 {
		return baseAndIndex.Return(), true, nil
	}

	offConst := b.AllocateInstruction()
	offConst.AsIconst64(offset)
	b.InsertInstruction(offConst)

	full := b.AllocateInstruction()
	full.AsIadd(baseAndIndex.Return(), offConst.Return())
	b.InsertInstruction(full)
	return full.Return(), true, nil
}

func loadResultType(op wasmabi.Opcode) ssa.Type {
	switch op {
	case wasmabi.OpcodeI32Load:
		return ssa.TypeI32
	case wasmabi.OpcodeI64Load:
		return ssa.TypeI64
	case wasmabi.OpcodeF32Load:
		return ssa.TypeF32
	case wasmabi.OpcodeF64Load:
		return ssa.TypeF64
	case wasmabi.OpcodeV128Load:
		return ssa.CanonicalVector
	default:
		panic("BUG: unexpected load opcode")
	}
}

func storeOpcodeFor(op wasmabi.Opcode) ssa.Opcode {
	switch op {
	case wasmabi.OpcodeI32Store, wasmabi.OpcodeI64Store, wasmabi.OpcodeF32Store, wasmabi.OpcodeF64Store,
		wasmabi.OpcodeV128Store:
		return ssa.OpcodeStore
	default:
		panic("BUG: unexpected store opcode")
	}
}
