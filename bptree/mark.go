package bptree

import (
	"fmt"

	"github.com/arborix/bptree/common"
)

// Marker is anything that can record a pointer as reachable ahead of a
// sweep (§4.1 "Mark", §4.7). filestore.Store satisfies it via Mark.
type Marker interface {
	Mark(ptr common.Pointer) error
}

// ForEachPtr performs the preorder traversal described in §4.7: cb is
// invoked with every reachable node pointer and its depth from the root
// (root is depth 0). Returning true from cb prunes that subtree — the
// traversal does not descend into it. Every visited node, leaves included,
// is read from the store to learn whether it has children; the tree height
// is not computed up front, so leaf-depth reads are not skipped.
func (t *Tree) ForEachPtr(cb func(ptr common.Pointer, depth int) (skip bool)) error {
	root := t.RootPointer()
	if root.IsNull() {
		return nil
	}
	return t.walkPtr(root, 0, cb)
}

func (t *Tree) walkPtr(ptr common.Pointer, depth int, cb func(common.Pointer, int) bool) error {
	if cb(ptr, depth) {
		return nil
	}
	n, err := t.store.Read(ptr)
	if err != nil {
		return fmt.Errorf("bptree.ForEachPtr: %w", err)
	}
	if n.Leaf {
		return nil
	}
	for _, child := range n.Children {
		if child.IsNull() {
			continue
		}
		if err := t.walkPtr(child, depth+1, cb); err != nil {
			return err
		}
	}
	return nil
}

// GarbageCollect implements §4.7's consumer-facing entry point: userCb is
// given the chance to mark every pointer reachable from whichever named
// trees it considers live (typically by calling ForEachPtr on each and
// forwarding to marker.Mark), after which sweep removes anything that
// was not touched during this pass. GarbageCollect takes no cutoff itself:
// sweep is called with no arguments, so a sweep closure that needs one
// (e.g. around filestore.Store.Sweep) must capture a timestamp taken before
// userCb ran, so that nodes marked during this pass are never mistaken for
// garbage.
func GarbageCollect(marker Marker, userCb func(mark func(common.Pointer) error) error, sweep func() (int, error)) (int, error) {
	if err := userCb(marker.Mark); err != nil {
		return 0, fmt.Errorf("bptree.GarbageCollect: %w", err)
	}
	removed, err := sweep()
	if err != nil {
		return removed, fmt.Errorf("bptree.GarbageCollect: %w", err)
	}
	return removed, nil
}
