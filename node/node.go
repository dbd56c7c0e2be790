// Package node defines the on-disk and in-memory node model: internal and
// leaf records carrying a pointer tag once published.
package node

import "github.com/arborix/bptree/common"

// Node is either an internal node (Leaf == false, Children populated) or a
// leaf node (Leaf == true, Values populated). It always carries its own
// Pointer once written; the zero Pointer marks a node still being built in
// memory (§9 "Pointer identity vs. embedded tag" — a record field, not a
// side-channel attribute).
type Node struct {
	Ptr      common.Pointer
	Leaf     bool
	Keys     []common.Value
	Values   []common.Value   // leaf only; len(Values) == len(Keys)
	Children []common.Pointer // internal only; len(Children) == len(Keys)+1
}

// NewLeaf builds an unpublished leaf node.
func NewLeaf(keys, values []common.Value) *Node {
	common.Assert(len(keys) == len(values), "node.NewLeaf: keys/values length mismatch")
	return &Node{Leaf: true, Keys: keys, Values: values}
}

// NewInternal builds an unpublished internal node.
func NewInternal(keys []common.Value, children []common.Pointer) *Node {
	common.Assert(len(children) == len(keys)+1, "node.NewInternal: children must outnumber keys by one")
	return &Node{Leaf: false, Keys: keys, Children: children}
}

// Size returns the node's fill: number of keys (leaf) or number of children
// (internal) used by the tree invariants in §3.
func (n *Node) Size() int {
	if n.Leaf {
		return len(n.Keys)
	}
	return len(n.Children)
}

// Clone returns a node whose Keys/Values/Children slices are independent of
// n's, per §9 "Copy-on-write clones": keys/values themselves are opaque and
// not deep-copied, only the sequences that hold them. The clone's Ptr is
// cleared — it is not yet published.
func (n *Node) Clone() *Node {
	c := &Node{Leaf: n.Leaf}
	if len(n.Keys) > 0 {
		c.Keys = append([]common.Value(nil), n.Keys...)
	}
	if n.Leaf {
		if len(n.Values) > 0 {
			c.Values = append([]common.Value(nil), n.Values...)
		}
	} else {
		if len(n.Children) > 0 {
			c.Children = append([]common.Pointer(nil), n.Children...)
		}
	}
	return c
}

// Equal reports whether two nodes have the same shape and content,
// regardless of their Ptr tag (used by the round-trip test property).
func (n *Node) Equal(other *Node) bool {
	if n.Leaf != other.Leaf || len(n.Keys) != len(other.Keys) {
		return false
	}
	for i := range n.Keys {
		if common.DefaultComparator(n.Keys[i], other.Keys[i]) != 0 {
			return false
		}
	}
	if n.Leaf {
		if len(n.Values) != len(other.Values) {
			return false
		}
		for i := range n.Values {
			if common.DefaultComparator(n.Values[i], other.Values[i]) != 0 {
				return false
			}
		}
		return true
	}
	if len(n.Children) != len(other.Children) {
		return false
	}
	for i := range n.Children {
		if n.Children[i] != other.Children[i] {
			return false
		}
	}
	return true
}
