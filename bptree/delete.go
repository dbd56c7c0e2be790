package bptree

import (
	"fmt"

	"github.com/arborix/bptree/common"
	"github.com/arborix/bptree/node"
	"github.com/arborix/bptree/overlay"
)

// Delete removes key from the tree, per §4.5. If key is absent, the
// operation is a no-op: the root is rolled back to its pre-call value and
// (oldValue, false) is returned with no error — the resolved reading of
// §9's "Unresolved source ambiguity".
func (t *Tree) Delete(key common.Value) (oldValue common.Value, removed bool, err error) {
	prevRoot, err := t.begin()
	if err != nil {
		return nil, false, err
	}
	tx := t.newOverlay()

	clone, removed, oldValue, err := t.deleteRecursive(tx, prevRoot, key)
	if err != nil {
		_ = tx.Rollback()
		t.end(prevRoot, false)
		return nil, false, err
	}
	if !removed {
		_ = tx.Rollback()
		t.end(prevRoot, false)
		return oldValue, false, nil
	}

	newRootPtr, err := t.collapseRoot(tx, prevRoot, clone)
	if err != nil {
		_ = tx.Rollback()
		t.end(prevRoot, false)
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		t.end(prevRoot, false)
		return nil, false, fmt.Errorf("bptree.Delete: %w", err)
	}
	t.end(newRootPtr, true)
	return oldValue, true, nil
}

// collapseRoot implements §4.5 step 5: when the new root (after deletion)
// is an internal node with exactly one child, the tree collapses to that
// child directly rather than publishing a redundant wrapper. An empty leaf
// collapses to NullPointer (empty tree).
func (t *Tree) collapseRoot(tx *overlay.Overlay, prevRoot common.Pointer, clone *node.Node) (common.Pointer, error) {
	var newRootPtr common.Pointer
	var err error
	switch {
	case clone.Leaf && len(clone.Keys) == 0:
		newRootPtr = common.NullPointer
	case !clone.Leaf && len(clone.Children) == 1:
		newRootPtr = clone.Children[0]
	default:
		newRootPtr, err = tx.Write(clone)
		if err != nil {
			return "", err
		}
	}
	if !prevRoot.IsNull() {
		if err := tx.Delete(prevRoot); err != nil {
			return "", err
		}
	}
	return newRootPtr, nil
}

// deleteRecursive returns the mutated clone of the node at ptr (with any
// necessary rebalancing of its children already applied), whether key was
// actually found and removed, and the removed value. When removed is
// false, clone is the unmodified original node and no writes have been
// issued anywhere in the subtree.
func (t *Tree) deleteRecursive(tx *overlay.Overlay, ptr common.Pointer, key common.Value) (clone *node.Node, removed bool, oldValue common.Value, err error) {
	n, err := t.readOrEmpty(tx, ptr)
	if err != nil {
		return nil, false, nil, err
	}
	cmp := t.cfg.Comparator

	if n.Leaf {
		idx, equal := findKeyLeaf(n.Keys, key, cmp)
		if !equal {
			return n, false, nil, nil
		}
		oldValue = n.Values[idx]
		n2 := n.Clone()
		n2.Keys = append(n2.Keys[:idx], n2.Keys[idx+1:]...)
		n2.Values = append(n2.Values[:idx], n2.Values[idx+1:]...)
		return n2, true, oldValue, nil
	}

	idx, _ := findKeyInternal(n.Keys, key, cmp)
	childPtr := n.Children[idx]
	childResult, removed, oldValue, err := t.deleteRecursive(tx, childPtr, key)
	if err != nil {
		return nil, false, nil, err
	}
	if !removed {
		return n, false, nil, nil
	}

	n2, err := t.rebalance(tx, n.Clone(), idx, childPtr, childResult)
	if err != nil {
		return nil, false, nil, err
	}
	return n2, true, oldValue, nil
}

// rebalance implements §4.5 step 4: having just recomputed the child at
// idx (childResult, replacing the pointer childPtr), check whether it is
// underfilled and, if so, redistribute or merge with an adjacent sibling
// per the deterministic tie-break policy (prefer the right sibling unless
// the child is rightmost).
func (t *Tree) rebalance(tx *overlay.Overlay, n2 *node.Node, idx int, childPtr common.Pointer, childResult *node.Node) (*node.Node, error) {
	order := t.cfg.Order
	if childResult.Size() >= order {
		newChildPtr, err := tx.Write(childResult)
		if err != nil {
			return nil, err
		}
		if !childPtr.IsNull() {
			if err := tx.Delete(childPtr); err != nil {
				return nil, err
			}
		}
		n2.Children[idx] = newChildPtr
		return n2, nil
	}

	isRight := idx != len(n2.Children)-1
	siblingIdx := idx + 1
	if !isRight {
		siblingIdx = idx - 1
	}
	siblingPtr := n2.Children[siblingIdx]
	siblingNode, err := tx.Read(siblingPtr)
	if err != nil {
		return nil, err
	}
	sibling := siblingNode.Clone()
	separatorIdx := idx
	if !isRight {
		separatorIdx = siblingIdx
	}
	separator := n2.Keys[separatorIdx]

	if sibling.Size() > order {
		return t.redistribute(tx, n2, childPtr, childResult, siblingPtr, sibling, idx, siblingIdx, separatorIdx, separator, isRight)
	}
	return t.merge(tx, n2, childPtr, childResult, siblingPtr, sibling, separatorIdx, isRight)
}

func (t *Tree) redistribute(tx *overlay.Overlay, n2 *node.Node, childPtr common.Pointer, child *node.Node, siblingPtr common.Pointer, sibling *node.Node, idx, siblingIdx, separatorIdx int, separator common.Value, isRight bool) (*node.Node, error) {
	var newSeparator common.Value
	if isRight {
		// sibling is to the right and has spare capacity.
		if child.Leaf {
			movedKey, movedVal := sibling.Keys[0], sibling.Values[0]
			child.Keys = append(child.Keys, movedKey)
			child.Values = append(child.Values, movedVal)
			sibling.Keys = sibling.Keys[1:]
			sibling.Values = sibling.Values[1:]
			newSeparator = sibling.Keys[0]
		} else {
			movedKey, movedChild := sibling.Keys[0], sibling.Children[0]
			child.Keys = append(child.Keys, separator)
			child.Children = append(child.Children, movedChild)
			sibling.Keys = sibling.Keys[1:]
			sibling.Children = sibling.Children[1:]
			newSeparator = movedKey
		}
	} else {
		// sibling is to the left and has spare capacity.
		if child.Leaf {
			last := len(sibling.Keys) - 1
			movedKey, movedVal := sibling.Keys[last], sibling.Values[last]
			child.Keys = append([]common.Value{movedKey}, child.Keys...)
			child.Values = append([]common.Value{movedVal}, child.Values...)
			sibling.Keys = sibling.Keys[:last]
			sibling.Values = sibling.Values[:last]
			newSeparator = child.Keys[0]
		} else {
			lastKey := len(sibling.Keys) - 1
			lastChild := len(sibling.Children) - 1
			movedKey, movedChild := sibling.Keys[lastKey], sibling.Children[lastChild]
			child.Keys = append([]common.Value{separator}, child.Keys...)
			child.Children = append([]common.Pointer{movedChild}, child.Children...)
			sibling.Keys = sibling.Keys[:lastKey]
			sibling.Children = sibling.Children[:lastChild]
			newSeparator = movedKey
		}
	}

	newChildPtr, err := tx.Write(child)
	if err != nil {
		return nil, err
	}
	newSiblingPtr, err := tx.Write(sibling)
	if err != nil {
		return nil, err
	}
	if !childPtr.IsNull() {
		if err := tx.Delete(childPtr); err != nil {
			return nil, err
		}
	}
	if !siblingPtr.IsNull() {
		if err := tx.Delete(siblingPtr); err != nil {
			return nil, err
		}
	}
	n2.Children[idx] = newChildPtr
	n2.Children[siblingIdx] = newSiblingPtr
	n2.Keys[separatorIdx] = newSeparator
	return n2, nil
}

func (t *Tree) merge(tx *overlay.Overlay, n2 *node.Node, childPtr common.Pointer, child *node.Node, siblingPtr common.Pointer, sibling *node.Node, separatorIdx int, isRight bool) (*node.Node, error) {
	left, right := child, sibling
	leftPtr, rightPtr := childPtr, siblingPtr
	if !isRight {
		left, right = sibling, child
		leftPtr, rightPtr = siblingPtr, childPtr
	}

	var merged *node.Node
	if left.Leaf {
		merged = node.NewLeaf(
			append(append([]common.Value(nil), left.Keys...), right.Keys...),
			append(append([]common.Value(nil), left.Values...), right.Values...),
		)
	} else {
		separator := n2.Keys[separatorIdx]
		keys := append(append([]common.Value(nil), left.Keys...), separator)
		keys = append(keys, right.Keys...)
		children := append(append([]common.Pointer(nil), left.Children...), right.Children...)
		merged = node.NewInternal(keys, children)
	}

	mergedPtr, err := tx.Write(merged)
	if err != nil {
		return nil, err
	}
	if !leftPtr.IsNull() {
		if err := tx.Delete(leftPtr); err != nil {
			return nil, err
		}
	}
	if !rightPtr.IsNull() {
		if err := tx.Delete(rightPtr); err != nil {
			return nil, err
		}
	}

	removeIdx := separatorIdx
	n2.Children[removeIdx] = mergedPtr
	n2.Children = append(n2.Children[:removeIdx+1], n2.Children[removeIdx+2:]...)
	n2.Keys = append(n2.Keys[:separatorIdx], n2.Keys[separatorIdx+1:]...)
	return n2, nil
}
