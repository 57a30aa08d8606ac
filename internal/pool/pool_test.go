package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPool_allocateAcrossPages(t *testing.T) {
	p := NewPool[int]()
	for i := 0; i < poolPageSize+5; i++ {
		v := p.Allocate()
		*v = i
	}
	require.Equal(t, poolPageSize+5, p.Allocated())
	require.Equal(t, 3, *p.View(3))
	require.Equal(t, poolPageSize, *p.View(poolPageSize))
}

func TestPool_resetReusesPages(t *testing.T) {
	p := NewPool[int]()
	v := p.Allocate()
	*v = 42
	p.Reset()
	require.Equal(t, 0, p.Allocated())
	v2 := p.Allocate()
	require.Equal(t, 0, *v2) // zeroed on reset
}
