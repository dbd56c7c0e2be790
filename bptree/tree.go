// Package bptree implements the persistent, copy-on-write B+tree engine:
// search, insert/update/delete with split/merge/redistribute, range
// iteration, bulk application and pointer enumeration for garbage
// collection.
package bptree

import (
	"sync"

	"github.com/arborix/bptree/bptreeerr"
	"github.com/arborix/bptree/common"
	"github.com/arborix/bptree/overlay"
	"github.com/arborix/bptree/store"
)

// DefaultOrder is the minimum node fill used when a Config omits Order.
const DefaultOrder = 1024

// Config pins a tree's persistent configuration (§3 "Tree metadata";
// §6 "Configuration" covers the store-level options, not these).
type Config struct {
	// Order is the minimum number of keys (leaves) or children (internals)
	// in a non-root node; the maximum is 2*Order.
	Order int
	// Comparator totally orders keys and values. Defaults to
	// common.DefaultComparator.
	Comparator common.Comparator
	// ValueEqual decides whether an update's new value is indistinguishable
	// from the old one, in which case the write is elided (§4.4
	// "Equal-value optimization"). Defaults to comparator-equality.
	ValueEqual func(cmp common.Comparator, a, b common.Value) bool
}

func (c Config) withDefaults() Config {
	if c.Order <= 0 {
		c.Order = DefaultOrder
	}
	if c.Comparator == nil {
		c.Comparator = common.DefaultComparator
	}
	if c.ValueEqual == nil {
		c.ValueEqual = common.ValueEqual
	}
	return c
}

// Mode selects Set's behavior for an existing vs. absent key (§4.4).
type Mode int

const (
	// Insert fails with DuplicateKey if the key already exists.
	Insert Mode = iota
	// Update fails with MissingKey if the key is absent.
	Update
	// Upsert overwrites an existing key or inserts a new one.
	Upsert
)

// Tree is a handle onto one persistent version of a B+tree. At most one
// mutating operation (Set, Delete, Bulk) may be in flight through a handle
// at a time; an overlapping mutation returns InProgress (§4.2 "Re-entrancy
// guard", §5 "Scheduling model"). Get, RangeEach and ForEachPtr do not take
// the guard.
type Tree struct {
	store store.Store
	cfg   Config

	guard   sync.Mutex
	busy    bool
	rootPtr common.Pointer
}

// New returns a handle onto a brand-new, empty tree backed by st. The tree
// becomes durable only once a caller persists its RootPointer (e.g. via
// treeindex.Commit) — no node is written until the first mutation.
func New(st store.Store, cfg Config) *Tree {
	return &Tree{store: st, cfg: cfg.withDefaults(), rootPtr: common.NullPointer}
}

// Open returns a handle onto an existing tree whose root is rootPtr.
func Open(st store.Store, rootPtr common.Pointer, cfg Config) *Tree {
	return &Tree{store: st, cfg: cfg.withDefaults(), rootPtr: rootPtr}
}

// RootPointer returns the tree's current root pointer. NullPointer means an
// empty tree.
func (t *Tree) RootPointer() common.Pointer {
	t.guard.Lock()
	defer t.guard.Unlock()
	return t.rootPtr
}

// Config returns the tree's configuration.
func (t *Tree) Config() Config { return t.cfg }

// begin acquires the cooperative mutual-exclusion guard (§4.2 "Re-entrancy
// guard"), returning the root pointer captured at the start of the
// operation, or InProgress if another operation is already in flight.
func (t *Tree) begin() (common.Pointer, error) {
	t.guard.Lock()
	defer t.guard.Unlock()
	if t.busy {
		return "", bptreeerr.InProgress()
	}
	t.busy = true
	return t.rootPtr, nil
}

// end releases the guard, installing newRoot when commit is true.
func (t *Tree) end(newRoot common.Pointer, commit bool) {
	t.guard.Lock()
	if commit {
		t.rootPtr = newRoot
	}
	t.busy = false
	t.guard.Unlock()
}

func (t *Tree) newOverlay() *overlay.Overlay {
	return overlay.Begin(t.store)
}
