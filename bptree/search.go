package bptree

import "github.com/arborix/bptree/common"

// findKeyLeaf finds the leftmost position where key could be inserted into
// a leaf's sorted key array: the binary search moves low while
// cmp(keys[mid], key) < 0 (§4.3 "Leaf node"). equal is true iff the
// resulting index holds a key comparing equal to key.
func findKeyLeaf(keys []common.Value, key common.Value, cmp common.Comparator) (idx int, equal bool) {
	low, high := 0, len(keys)
	for low < high {
		mid := (low + high) / 2
		if cmp(keys[mid], key) < 0 {
			low = mid + 1
		} else {
			high = mid
		}
	}
	equal = low < len(keys) && cmp(keys[low], key) == 0
	return low, equal
}

// findKeyInternal finds the rightmost child index whose subtree may contain
// key: the binary search moves low while cmp(keys[mid], key) <= 0 (§4.3
// "Internal node"). The result is always a valid child index in
// [0, len(keys)]. equal is a debugging aid only, per spec.
func findKeyInternal(keys []common.Value, key common.Value, cmp common.Comparator) (idx int, equal bool) {
	low, high := 0, len(keys)
	for low < high {
		mid := (low + high) / 2
		if cmp(keys[mid], key) <= 0 {
			low = mid + 1
		} else {
			high = mid
		}
	}
	equal = low > 0 && cmp(keys[low-1], key) == 0
	return low, equal
}
