package bptree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborix/bptree/common"
	"github.com/arborix/bptree/store"
)

func TestForEachPtrVisitsEveryReachableNode(t *testing.T) {
	st := store.NewMemStore()
	tr := New(st, smallConfig())
	for _, k := range []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10} {
		_, _, err := tr.Set(k, k, Insert)
		require.NoError(t, err)
	}

	visited := map[common.Pointer]int{}
	err := tr.ForEachPtr(func(ptr common.Pointer, depth int) bool {
		visited[ptr] = depth
		return false
	})
	require.NoError(t, err)
	require.Contains(t, visited, tr.RootPointer())
	require.Greater(t, len(visited), 1)
}

func TestForEachPtrSkipPrunesSubtree(t *testing.T) {
	st := store.NewMemStore()
	tr := New(st, smallConfig())
	for _, k := range []float64{1, 2, 3, 4, 5, 6, 7, 8} {
		_, _, err := tr.Set(k, k, Insert)
		require.NoError(t, err)
	}

	fullCount := 0
	require.NoError(t, tr.ForEachPtr(func(ptr common.Pointer, depth int) bool {
		fullCount++
		return false
	}))

	prunedCount := 0
	require.NoError(t, tr.ForEachPtr(func(ptr common.Pointer, depth int) bool {
		prunedCount++
		return depth == 0
	}))
	require.Equal(t, 1, prunedCount)
	require.Greater(t, fullCount, prunedCount)
}

func TestForEachPtrOnEmptyTree(t *testing.T) {
	st := store.NewMemStore()
	tr := New(st, smallConfig())
	count := 0
	require.NoError(t, tr.ForEachPtr(func(common.Pointer, int) bool {
		count++
		return false
	}))
	require.Zero(t, count)
}

type fakeMarker struct {
	marked map[common.Pointer]bool
}

func (m *fakeMarker) Mark(ptr common.Pointer) error {
	m.marked[ptr] = true
	return nil
}

func TestGarbageCollectMarksThenSweeps(t *testing.T) {
	st := store.NewMemStore()
	tr := New(st, smallConfig())
	for _, k := range []float64{1, 2, 3, 4, 5} {
		_, _, err := tr.Set(k, k, Insert)
		require.NoError(t, err)
	}

	marker := &fakeMarker{marked: map[common.Pointer]bool{}}
	swept := false
	removed, err := GarbageCollect(marker, func(mark func(common.Pointer) error) error {
		return tr.ForEachPtr(func(ptr common.Pointer, depth int) bool {
			_ = mark(ptr)
			return false
		})
	}, func() (int, error) {
		swept = true
		return 0, nil
	})
	require.NoError(t, err)
	require.Zero(t, removed)
	require.True(t, swept)
	require.Contains(t, marker.marked, tr.RootPointer())
}
