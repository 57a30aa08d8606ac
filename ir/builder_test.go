package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilder_blockIteration(t *testing.T) {
	b := NewBuilder().(*builder)
	b.Init(&Signature{ID: 0})

	entry := b.AllocateBasicBlock()
	b.SetCurrentBlock(entry)
	b.Seal(entry)

	second := b.AllocateBasicBlock()
	b.Seal(second)

	require.Equal(t, 2, b.Blocks())

	var seen []BasicBlock
	for blk := b.BlockIteratorBegin(); blk != nil; blk = b.BlockIteratorNext() {
		seen = append(seen, blk)
	}
	require.Len(t, seen, 2)
	require.Equal(t, entry.ID(), seen[0].ID())
	require.Equal(t, second.ID(), seen[1].ID())
}

func TestBuilder_declareAndFindVariable(t *testing.T) {
	b := NewBuilder().(*builder)
	b.Init(&Signature{ID: 0})

	entry := b.AllocateBasicBlock()
	b.SetCurrentBlock(entry)
	b.Seal(entry)

	v := b.DeclareVariable(TypeI32)
	val := b.allocateValue(TypeI32)
	b.DefineVariableInCurrentBB(v, val)

	require.Equal(t, val, b.FindValue(v))
}
