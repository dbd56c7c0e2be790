package bptree

import (
	"fmt"

	"github.com/arborix/bptree/common"
)

// Get returns the value stored under key, or (nil, false) if absent. Per
// §4.6 it is implemented as a depth-first descent equivalent to
// rangeEach(key, key, …) collecting the first yield, but specialized to
// avoid the traversal overhead. It does not take the re-entrancy guard:
// published nodes are immutable, so a concurrent Get observes a consistent
// snapshot even alongside a single in-flight mutation.
func (t *Tree) Get(key common.Value) (common.Value, bool, error) {
	cmp := t.cfg.Comparator
	ptr := t.RootPointer()
	for {
		if ptr.IsNull() {
			return nil, false, nil
		}
		n, err := t.store.Read(ptr)
		if err != nil {
			return nil, false, fmt.Errorf("bptree.Get: %w", err)
		}
		if n.Leaf {
			idx, equal := findKeyLeaf(n.Keys, key, cmp)
			if !equal {
				return nil, false, nil
			}
			return n.Values[idx], true, nil
		}
		idx, _ := findKeyInternal(n.Keys, key, cmp)
		ptr = n.Children[idx]
	}
}

// RangeEach performs the depth-first in-order traversal described in §4.6.
// lower and upper are both inclusive bounds; either may be nil to leave
// that side unbounded. cb may return common.ErrBreak to end iteration
// early without that being reported as a failure.
func (t *Tree) RangeEach(lower, upper *common.Value, cb func(key, value common.Value) error) error {
	root := t.RootPointer()
	if root.IsNull() {
		return nil
	}
	err := t.rangeNode(root, lower, upper, cb)
	if err != nil && common.IsBreak(err) {
		return nil
	}
	return err
}

func (t *Tree) rangeNode(ptr common.Pointer, lower, upper *common.Value, cb func(key, value common.Value) error) error {
	n, err := t.store.Read(ptr)
	if err != nil {
		return fmt.Errorf("bptree.RangeEach: %w", err)
	}
	cmp := t.cfg.Comparator

	if n.Leaf {
		start := 0
		if lower != nil {
			start, _ = findKeyLeaf(n.Keys, *lower, cmp)
		}
		for i := start; i < len(n.Keys); i++ {
			if upper != nil && cmp(n.Keys[i], *upper) > 0 {
				return nil
			}
			if err := cb(n.Keys[i], n.Values[i]); err != nil {
				return err
			}
		}
		return nil
	}

	start := 0
	if lower != nil {
		start, _ = findKeyInternal(n.Keys, *lower, cmp)
	}
	for i := start; i < len(n.Children); i++ {
		if err := t.rangeNode(n.Children[i], lower, upper, cb); err != nil {
			return err
		}
		if i < len(n.Keys) && upper != nil && cmp(n.Keys[i], *upper) > 0 {
			return nil
		}
	}
	return nil
}
