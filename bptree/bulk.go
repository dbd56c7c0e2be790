package bptree

import (
	"fmt"
	"sort"

	"github.com/arborix/bptree/common"
)

// BulkOp is a single entry in a Bulk call: a delete when Delete is true
// (Value is then ignored), otherwise an upsert of Value, nil included.
type BulkOp struct {
	Key    common.Value
	Value  common.Value
	Delete bool
}

// Bulk applies a sequence of upserts/deletes against a single transaction,
// per §4.8. The list is stably sorted by key first — stability preserves
// submission order for repeated operations on the same key, and the sort
// itself is purely a cache-locality optimization for the underlying
// descents. The result is one commit and one new root; on any error the
// whole batch rolls back and the root is unchanged.
func (t *Tree) Bulk(ops []BulkOp) error {
	prevRoot, err := t.begin()
	if err != nil {
		return err
	}

	sorted := make([]BulkOp, len(ops))
	copy(sorted, ops)
	cmp := t.cfg.Comparator
	sort.SliceStable(sorted, func(i, j int) bool {
		return cmp(sorted[i].Key, sorted[j].Key) < 0
	})

	tx := t.newOverlay()
	root := prevRoot
	for _, op := range sorted {
		if op.Delete {
			clone, removed, _, err := t.deleteRecursive(tx, root, op.Key)
			if err != nil {
				_ = tx.Rollback()
				t.end(prevRoot, false)
				return err
			}
			if removed {
				root, err = t.collapseRoot(tx, root, clone)
				if err != nil {
					_ = tx.Rollback()
					t.end(prevRoot, false)
					return err
				}
			}
			continue
		}

		childClone, childSplitRight, promoted, changed, _, _, err := t.setRecursive(tx, root, op.Key, op.Value, Upsert)
		if err != nil {
			_ = tx.Rollback()
			t.end(prevRoot, false)
			return err
		}
		if changed {
			root, err = t.publishNewRoot(tx, root, childClone, childSplitRight, promoted)
			if err != nil {
				_ = tx.Rollback()
				t.end(prevRoot, false)
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		t.end(prevRoot, false)
		return fmt.Errorf("bptree.Bulk: %w", err)
	}
	t.end(root, true)
	return nil
}
