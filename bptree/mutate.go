package bptree

import (
	"fmt"

	"github.com/arborix/bptree/bptreeerr"
	"github.com/arborix/bptree/common"
	"github.com/arborix/bptree/node"
	"github.com/arborix/bptree/overlay"
)

// Set is the single entry point for insert/update/upsert (§4.4). It returns
// the value that occupied key before the call (hadOld reports whether one
// existed). On DuplicateKey/MissingKey, or any I/O error, the enclosing
// transaction is rolled back and the tree's observable root is unchanged.
func (t *Tree) Set(key, value common.Value, mode Mode) (oldValue common.Value, hadOld bool, err error) {
	prevRoot, err := t.begin()
	if err != nil {
		return nil, false, err
	}
	tx := t.newOverlay()

	childClone, childSplitRight, promoted, changed, oldValue, hadOld, err := t.setRecursive(tx, prevRoot, key, value, mode)
	if err != nil {
		_ = tx.Rollback()
		t.end(prevRoot, false)
		return nil, false, err
	}
	if !changed {
		_ = tx.Commit()
		t.end(prevRoot, false)
		return oldValue, hadOld, nil
	}

	newRootPtr, err := t.publishNewRoot(tx, prevRoot, childClone, childSplitRight, promoted)
	if err != nil {
		_ = tx.Rollback()
		t.end(prevRoot, false)
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		t.end(prevRoot, false)
		return nil, false, fmt.Errorf("bptree.Set: %w", err)
	}
	t.end(newRootPtr, true)
	return oldValue, hadOld, nil
}

// publishNewRoot implements §4.4 steps 5-6: it plays the role of the
// "synthetic parent with one child pointer = root, zero keys" by writing
// the returned child clone (and its split sibling, if any) and computing
// the tree's new root pointer.
func (t *Tree) publishNewRoot(tx *overlay.Overlay, prevRoot common.Pointer, clone, splitRight *node.Node, promoted common.Value) (common.Pointer, error) {
	if splitRight == nil {
		newPtr, err := tx.Write(clone)
		if err != nil {
			return "", err
		}
		if !prevRoot.IsNull() {
			if err := tx.Delete(prevRoot); err != nil {
				return "", err
			}
		}
		return newPtr, nil
	}

	leftPtr, err := tx.Write(clone)
	if err != nil {
		return "", err
	}
	rightPtr, err := tx.Write(splitRight)
	if err != nil {
		return "", err
	}
	if !prevRoot.IsNull() {
		if err := tx.Delete(prevRoot); err != nil {
			return "", err
		}
	}
	newRoot := node.NewInternal([]common.Value{promoted}, []common.Pointer{leftPtr, rightPtr})
	return tx.Write(newRoot)
}

// setRecursive implements §4.4's copy-on-write descent. It returns the
// mutated clone of the node at ptr (unpublished), its split-off right
// sibling when the clone overflowed (nil otherwise), the key promoted to
// the parent on split, whether anything actually changed (false suppresses
// all writes up the call chain — the equal-value optimization), and the
// value that previously occupied key.
func (t *Tree) setRecursive(tx *overlay.Overlay, ptr common.Pointer, key, value common.Value, mode Mode) (clone, splitRight *node.Node, promoted common.Value, changed bool, oldValue common.Value, hadOld bool, err error) {
	n, err := t.readOrEmpty(tx, ptr)
	if err != nil {
		return nil, nil, nil, false, nil, false, err
	}
	cmp := t.cfg.Comparator

	if n.Leaf {
		return t.setLeaf(n, key, value, mode, cmp)
	}

	idx, _ := findKeyInternal(n.Keys, key, cmp)
	childPtr := n.Children[idx]
	childClone, childSplitRight, childPromoted, childChanged, oldValue, hadOld, err := t.setRecursive(tx, childPtr, key, value, mode)
	if err != nil {
		return nil, nil, nil, false, nil, false, err
	}
	if !childChanged {
		return n, nil, nil, false, oldValue, hadOld, nil
	}

	n2 := n.Clone()
	if childSplitRight == nil {
		newChildPtr, err := tx.Write(childClone)
		if err != nil {
			return nil, nil, nil, false, nil, false, err
		}
		if !childPtr.IsNull() {
			if err := tx.Delete(childPtr); err != nil {
				return nil, nil, nil, false, nil, false, err
			}
		}
		n2.Children[idx] = newChildPtr
	} else {
		leftPtr, err := tx.Write(childClone)
		if err != nil {
			return nil, nil, nil, false, nil, false, err
		}
		rightPtr, err := tx.Write(childSplitRight)
		if err != nil {
			return nil, nil, nil, false, nil, false, err
		}
		if !childPtr.IsNull() {
			if err := tx.Delete(childPtr); err != nil {
				return nil, nil, nil, false, nil, false, err
			}
		}
		n2.Children[idx] = leftPtr
		n2.Children = insertPointerAt(n2.Children, idx+1, rightPtr)
		n2.Keys = insertValueAt(n2.Keys, idx, childPromoted)
	}

	order := t.cfg.Order
	if len(n2.Keys) >= 2*order {
		left, right, sep := splitInternal(n2, order)
		return left, right, sep, true, oldValue, hadOld, nil
	}
	return n2, nil, nil, true, oldValue, hadOld, nil
}

// readOrEmpty reads ptr through the transaction, treating NullPointer as an
// empty leaf (used only for an empty tree's root).
func (t *Tree) readOrEmpty(tx *overlay.Overlay, ptr common.Pointer) (*node.Node, error) {
	if ptr.IsNull() {
		return node.NewLeaf(nil, nil), nil
	}
	return tx.Read(ptr)
}

func (t *Tree) setLeaf(n *node.Node, key, value common.Value, mode Mode, cmp common.Comparator) (clone, splitRight *node.Node, promoted common.Value, changed bool, oldValue common.Value, hadOld bool, err error) {
	idx, equal := findKeyLeaf(n.Keys, key, cmp)

	switch mode {
	case Insert:
		if equal {
			return nil, nil, nil, false, nil, false, bptreeerr.DuplicateKey(key)
		}
	case Update:
		if !equal {
			return nil, nil, nil, false, nil, false, bptreeerr.MissingKey(key)
		}
		oldValue, hadOld = n.Values[idx], true
		if t.cfg.ValueEqual(cmp, oldValue, value) {
			return n, nil, nil, false, oldValue, true, nil
		}
	case Upsert:
		if equal {
			oldValue, hadOld = n.Values[idx], true
			if t.cfg.ValueEqual(cmp, oldValue, value) {
				return n, nil, nil, false, oldValue, true, nil
			}
		}
	}

	n2 := n.Clone()
	if equal {
		n2.Values[idx] = value
	} else {
		n2.Keys = insertValueAt(n2.Keys, idx, key)
		n2.Values = insertValueAt(n2.Values, idx, value)
	}

	order := t.cfg.Order
	if len(n2.Keys) >= 2*order {
		left, right, sep := splitLeaf(n2, order)
		return left, right, sep, true, oldValue, hadOld, nil
	}
	return n2, nil, nil, true, oldValue, hadOld, nil
}

// splitLeaf splits an overflowed leaf at index order: the new right sibling
// receives the upper half; its first key is duplicated into the promoted
// separator (§4.4 step 4).
func splitLeaf(n *node.Node, order int) (left, right *node.Node, promoted common.Value) {
	mid := order
	leftKeys := append([]common.Value(nil), n.Keys[:mid]...)
	leftValues := append([]common.Value(nil), n.Values[:mid]...)
	rightKeys := append([]common.Value(nil), n.Keys[mid:]...)
	rightValues := append([]common.Value(nil), n.Values[mid:]...)
	left = node.NewLeaf(leftKeys, leftValues)
	right = node.NewLeaf(rightKeys, rightValues)
	return left, right, rightKeys[0]
}

// splitInternal splits an overflowed internal node around keys[order]: the
// promoted key is not duplicated, unlike the leaf case (§4.4 step 4).
func splitInternal(n *node.Node, order int) (left, right *node.Node, promoted common.Value) {
	mid := order
	leftKeys := append([]common.Value(nil), n.Keys[:mid]...)
	leftChildren := append([]common.Pointer(nil), n.Children[:mid+1]...)
	rightKeys := append([]common.Value(nil), n.Keys[mid+1:]...)
	rightChildren := append([]common.Pointer(nil), n.Children[mid+1:]...)
	left = node.NewInternal(leftKeys, leftChildren)
	right = node.NewInternal(rightKeys, rightChildren)
	return left, right, n.Keys[mid]
}

func insertValueAt(s []common.Value, idx int, v common.Value) []common.Value {
	s = append(s, nil)
	copy(s[idx+1:], s[idx:])
	s[idx] = v
	return s
}

func insertPointerAt(s []common.Pointer, idx int, p common.Pointer) []common.Pointer {
	s = append(s, "")
	copy(s[idx+1:], s[idx:])
	s[idx] = p
	return s
}
