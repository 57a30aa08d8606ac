package wavl

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

type intKey int

func (k intKey) Less(other intKey) bool { return k < other }

func TestTree_insertFindOrder(t *testing.T) {
	tr := New[intKey, string]()
	require.True(t, tr.Insert(5, "five"))
	require.True(t, tr.Insert(2, "two"))
	require.True(t, tr.Insert(8, "eight"))
	require.False(t, tr.Insert(5, "FIVE")) // overwrite, not a new key

	v, ok := tr.Find(5)
	require.True(t, ok)
	require.Equal(t, "FIVE", v)

	_, ok = tr.Find(99)
	require.False(t, ok)

	require.Equal(t, 3, tr.Len())
}

func TestTree_ascendingWalkIsSorted(t *testing.T) {
	tr := New[intKey, int]()
	values := []int{42, 7, 19, 3, 55, 1, 30, 8}
	for _, v := range values {
		tr.Insert(intKey(v), v)
	}

	var seen []int
	tr.Walk(func(k intKey, v int) bool {
		seen = append(seen, int(k))
		return true
	})

	for i := 1; i < len(seen); i++ {
		require.Less(t, seen[i-1], seen[i])
	}
	require.Len(t, seen, len(values))
}

func TestTree_minMax(t *testing.T) {
	tr := New[intKey, int]()
	_, _, ok := tr.Min()
	require.False(t, ok)

	for _, v := range []int{10, 3, 77, 1, 42} {
		tr.Insert(intKey(v), v)
	}
	minK, _, ok := tr.Min()
	require.True(t, ok)
	require.Equal(t, intKey(1), minK)

	maxK, _, ok := tr.Max()
	require.True(t, ok)
	require.Equal(t, intKey(77), maxK)
}

func TestTree_deleteShrinksAndPreservesOrder(t *testing.T) {
	tr := New[intKey, int]()
	for _, v := range []int{10, 5, 15, 3, 7, 12, 20} {
		tr.Insert(intKey(v), v)
	}
	require.True(t, tr.Delete(5))
	require.False(t, tr.Delete(5)) // already gone
	require.Equal(t, 6, tr.Len())

	_, ok := tr.Find(5)
	require.False(t, ok)

	var seen []int
	tr.Walk(func(k intKey, _ int) bool {
		seen = append(seen, int(k))
		return true
	})
	for i := 1; i < len(seen); i++ {
		require.Less(t, seen[i-1], seen[i])
	}
}

func TestTree_randomizedInsertDeleteStaysConsistent(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	tr := New[intKey, int]()
	present := map[int]bool{}

	for i := 0; i < 500; i++ {
		v := r.Intn(200)
		if present[v] {
			require.True(t, tr.Delete(intKey(v)))
			delete(present, v)
		} else {
			tr.Insert(intKey(v), v)
			present[v] = true
		}
	}

	require.Equal(t, len(present), tr.Len())
	var seen []int
	tr.Walk(func(k intKey, _ int) bool {
		seen = append(seen, int(k))
		return true
	})
	require.Len(t, seen, len(present))
	for i := 1; i < len(seen); i++ {
		require.Less(t, seen[i-1], seen[i])
	}
	for v := range present {
		_, ok := tr.Find(intKey(v))
		require.True(t, ok)
	}
}
