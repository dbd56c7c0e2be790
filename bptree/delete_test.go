package bptree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborix/bptree/common"
	"github.com/arborix/bptree/node"
	"github.com/arborix/bptree/store"
)

func TestDeleteMissingKeyIsNoopNoError(t *testing.T) {
	st := store.NewMemStore()
	tr := New(st, smallConfig())
	_, _, err := tr.Set(1.0, "a", Insert)
	require.NoError(t, err)

	rootBefore := tr.RootPointer()
	before := st.Len()

	old, removed, err := tr.Delete(99.0)
	require.NoError(t, err)
	require.False(t, removed)
	require.Nil(t, old)
	require.Equal(t, rootBefore, tr.RootPointer())
	require.Equal(t, before, st.Len())
}

func TestDeletePresentKeyRemovesIt(t *testing.T) {
	st := store.NewMemStore()
	tr := New(st, smallConfig())
	_, _, err := tr.Set(1.0, "a", Insert)
	require.NoError(t, err)

	old, removed, err := tr.Delete(1.0)
	require.NoError(t, err)
	require.True(t, removed)
	require.Equal(t, "a", old)

	_, ok, err := tr.Get(1.0)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDeleteToEmptyTreeCollapsesRootToNull(t *testing.T) {
	st := store.NewMemStore()
	tr := New(st, smallConfig())
	_, _, err := tr.Set(1.0, "a", Insert)
	require.NoError(t, err)

	_, removed, err := tr.Delete(1.0)
	require.NoError(t, err)
	require.True(t, removed)
	require.True(t, tr.RootPointer().IsNull())
}

func TestDeleteAfterManyInsertsPreservesInvariants(t *testing.T) {
	st := store.NewMemStore()
	tr := New(st, smallConfig())

	keys := []float64{50, 10, 40, 20, 30, 5, 45, 25, 35, 15, 60, 70, 1, 2, 3, 4, 80, 90, 100, 8}
	for _, k := range keys {
		_, _, err := tr.Set(k, k, Insert)
		require.NoError(t, err)
	}

	toDelete := []float64{20, 45, 5, 70, 100, 2, 35}
	for _, k := range toDelete {
		_, removed, err := tr.Delete(k)
		require.NoError(t, err)
		require.True(t, removed)
	}

	remaining := map[float64]bool{}
	for _, k := range keys {
		remaining[k] = true
	}
	for _, k := range toDelete {
		delete(remaining, k)
	}

	var seen []float64
	err := tr.RangeEach(nil, nil, func(k, v common.Value) error {
		seen = append(seen, k.(float64))
		return nil
	})
	require.NoError(t, err)
	require.Len(t, seen, len(remaining))
	for i := 1; i < len(seen); i++ {
		require.Less(t, seen[i-1], seen[i])
	}
	for _, k := range seen {
		require.True(t, remaining[k])
	}

	if !tr.RootPointer().IsNull() {
		assertFillBounds(t, tr.store, tr.RootPointer(), tr.cfg.Order)
	}
}

// treeShape is a comparable structural snapshot of a (sub)tree, used to pin
// down an exact expected leaf/key/child layout rather than just invariants.
type treeShape struct {
	Leaf     bool
	Keys     []float64
	Children []treeShape
}

func leafShape(keys ...float64) treeShape {
	return treeShape{Leaf: true, Keys: keys}
}

func internalShape(keys []float64, children ...treeShape) treeShape {
	return treeShape{Leaf: false, Keys: keys, Children: children}
}

func dumpShape(t *testing.T, st store.Store, ptr common.Pointer) treeShape {
	t.Helper()
	n, err := st.Read(ptr)
	require.NoError(t, err)
	keys := make([]float64, len(n.Keys))
	for i, k := range n.Keys {
		keys[i] = k.(float64)
	}
	if n.Leaf {
		return treeShape{Leaf: true, Keys: keys}
	}
	children := make([]treeShape, len(n.Children))
	for i, c := range n.Children {
		children[i] = dumpShape(t, st, c)
	}
	return treeShape{Leaf: false, Keys: keys, Children: children}
}

// TestTwoLevelSplitThenRedistributeThenMerge pins down §8 scenarios 2, 3 and
// 4 against each other's exact literal results, in sequence on one tree:
// starting from scenario 2's explicit tree, insert(12) must produce its
// two-level split, delete(13) from that result must produce scenario 3's
// redistribute, and delete(15) from that result must produce scenario 4's
// merge.
func TestTwoLevelSplitThenRedistributeThenMerge(t *testing.T) {
	st := store.NewMemStore()

	leaf0 := node.NewLeaf([]common.Value{1.0, 4.0}, []common.Value{1.0, 4.0})
	leaf1 := node.NewLeaf([]common.Value{9.0, 10.0, 11.0}, []common.Value{9.0, 10.0, 11.0})
	leaf2 := node.NewLeaf([]common.Value{13.0, 15.0}, []common.Value{13.0, 15.0})
	leaf3 := node.NewLeaf([]common.Value{16.0, 20.0, 25.0}, []common.Value{16.0, 20.0, 25.0})

	leaf0Ptr, err := st.Write(leaf0)
	require.NoError(t, err)
	leaf1Ptr, err := st.Write(leaf1)
	require.NoError(t, err)
	leaf2Ptr, err := st.Write(leaf2)
	require.NoError(t, err)
	leaf3Ptr, err := st.Write(leaf3)
	require.NoError(t, err)

	root := node.NewInternal(
		[]common.Value{9.0, 13.0, 16.0},
		[]common.Pointer{leaf0Ptr, leaf1Ptr, leaf2Ptr, leaf3Ptr},
	)
	rootPtr, err := st.Write(root)
	require.NoError(t, err)

	tr := Open(st, rootPtr, Config{Order: 2})

	// Scenario 2: two-level split on insert(12).
	_, _, err = tr.Set(12.0, 12.0, Insert)
	require.NoError(t, err)
	require.Equal(t,
		internalShape([]float64{13},
			internalShape([]float64{9, 11}, leafShape(1, 4), leafShape(9, 10), leafShape(11, 12)),
			internalShape([]float64{16}, leafShape(13, 15), leafShape(16, 20, 25)),
		),
		dumpShape(t, tr.store, tr.RootPointer()),
	)

	// Scenario 3: redistribute on delete(13).
	_, _, err = tr.Delete(13.0)
	require.NoError(t, err)
	require.Equal(t,
		internalShape([]float64{13},
			internalShape([]float64{9, 11}, leafShape(1, 4), leafShape(9, 10), leafShape(11, 12)),
			internalShape([]float64{20}, leafShape(15, 16), leafShape(20, 25)),
		),
		dumpShape(t, tr.store, tr.RootPointer()),
	)

	// Scenario 4: merge on delete(15).
	_, _, err = tr.Delete(15.0)
	require.NoError(t, err)
	require.Equal(t,
		internalShape([]float64{11},
			internalShape([]float64{9}, leafShape(1, 4), leafShape(9, 10)),
			internalShape([]float64{13}, leafShape(11, 12), leafShape(16, 20, 25)),
		),
		dumpShape(t, tr.store, tr.RootPointer()),
	)
}

// TestTransactionRollbackLeavesNoOrphans mirrors §8 scenario 6: a
// transaction that writes the leaf an insert of (2,20) would produce leaves
// no orphan files and no observable root change when it is rolled back
// instead of committed.
func TestTransactionRollbackLeavesNoOrphans(t *testing.T) {
	st := store.NewMemStore()
	tr := New(st, smallConfig())

	_, _, err := tr.Set(1.0, 10.0, Insert)
	require.NoError(t, err)

	rootAfterFirst := tr.RootPointer()
	filesAfterFirst := st.Len()

	_, err = tr.store.Read(tr.RootPointer())
	require.NoError(t, err)

	tx := tr.newOverlay()
	_, err = tx.Write(node.NewLeaf([]common.Value{1.0, 2.0}, []common.Value{10.0, 20.0}))
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	require.Equal(t, rootAfterFirst, tr.RootPointer())
	require.Equal(t, filesAfterFirst, st.Len())

	v, ok, err := tr.Get(1.0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 10.0, v)

	_, ok, err = tr.Get(2.0)
	require.NoError(t, err)
	require.False(t, ok)
}
