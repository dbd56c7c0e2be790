// Package treeindex implements the named-tree index described in §4.9: a
// small B+tree mapping treeName → {rootPtr, config}, itself persisted
// through the backing store's meta record under a distinguished path.
package treeindex

import (
	"fmt"

	"github.com/arborix/bptree/bptree"
	"github.com/arborix/bptree/common"
	"github.com/arborix/bptree/store"
)

// MetaPath is the distinguished meta record path the index's own root
// pointer is written under.
const MetaPath = "treeindex"

// Index is a handle onto the named-tree directory for one store.
type Index struct {
	st    store.Store
	inner *bptree.Tree
}

// Open reads the index's root pointer from the store's meta record (absent
// meaning an empty index) and returns a handle over it.
func Open(st store.Store) (*Index, error) {
	raw, err := st.ReadMeta(MetaPath)
	if err != nil {
		return nil, fmt.Errorf("treeindex.Open: %w", err)
	}
	cfg := bptree.Config{Order: bptree.DefaultOrder}
	if len(raw) == 0 {
		return &Index{st: st, inner: bptree.New(st, cfg)}, nil
	}
	rootPtr := common.Pointer(raw)
	return &Index{st: st, inner: bptree.Open(st, rootPtr, cfg)}, nil
}

// record is the directory entry stored under each tree's name: its root
// pointer and the order it was configured with, so OpenTree can reopen a
// tree without the caller having to remember its configuration.
type record struct {
	rootPtr common.Pointer
	order   int
}

func encodeRecord(r record) common.Value {
	return map[string]common.Value{
		"rootPtr": string(r.rootPtr),
		"order":   float64(r.order),
	}
}

func decodeRecord(v common.Value) (record, error) {
	m, ok := v.(map[string]common.Value)
	if !ok {
		return record{}, fmt.Errorf("treeindex: malformed directory entry %#v", v)
	}
	ptrStr, _ := m["rootPtr"].(string)
	order, _ := m["order"].(float64)
	return record{rootPtr: common.Pointer(ptrStr), order: int(order)}, nil
}

// Entries describes one named tree's state for a Commit call: Tree set and
// non-nil means "create or update this name to the tree's current root";
// Tree nil means "remove this name from the index".
type Entries map[string]*bptree.Tree

// Empty returns a fresh, empty tree handle that becomes durable only once
// it is passed to Commit under some name.
func Empty(st store.Store, cfg bptree.Config) *bptree.Tree {
	return bptree.New(st, cfg)
}

// OpenTree returns a handle onto the tree currently registered under name,
// or (nil, false) if no such entry exists.
func (idx *Index) OpenTree(name string) (*bptree.Tree, bool, error) {
	v, ok, err := idx.inner.Get(name)
	if err != nil {
		return nil, false, fmt.Errorf("treeindex.OpenTree: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	rec, err := decodeRecord(v)
	if err != nil {
		return nil, false, fmt.Errorf("treeindex.OpenTree: %w", err)
	}
	cfg := bptree.Config{Order: rec.order}
	return bptree.Open(idx.st, rec.rootPtr, cfg), true, nil
}

// Commit applies a bulk update to the directory (per §4.9: "applies a bulk
// update, delete when value is absent") and then atomically republishes the
// index's own root pointer via the store's meta record. On success the
// Index reflects the committed state. If the bulk update fails, the index's
// in-memory handle is unchanged; if only the meta write fails, the
// in-memory handle already holds the new root while the meta record still
// names the previous one.
func (idx *Index) Commit(entries Entries) error {
	ops := make([]bptree.BulkOp, 0, len(entries))
	for name, tree := range entries {
		if tree == nil {
			ops = append(ops, bptree.BulkOp{Key: name, Delete: true})
			continue
		}
		rec := record{rootPtr: tree.RootPointer(), order: tree.Config().Order}
		ops = append(ops, bptree.BulkOp{Key: name, Value: encodeRecord(rec)})
	}
	if err := idx.inner.Bulk(ops); err != nil {
		return fmt.Errorf("treeindex.Commit: %w", err)
	}
	future := idx.st.WriteMeta(MetaPath, []byte(idx.inner.RootPointer()))
	if err := future.Wait(); err != nil {
		return fmt.Errorf("treeindex.Commit: %w", err)
	}
	return nil
}

// List returns every registered tree name, in ascending key order. It is a
// debugging/introspection aid, not part of the durable contract, grounded
// on the value of a cheap whole-index enumeration for operators inspecting
// a store.
func (idx *Index) List() ([]string, error) {
	var names []string
	err := idx.inner.RangeEach(nil, nil, func(key, _ common.Value) error {
		name, _ := key.(string)
		names = append(names, name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("treeindex.List: %w", err)
	}
	return names, nil
}
