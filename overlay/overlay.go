// Package overlay implements the nestable transaction wrapper described in
// §4.2: a layer above a store (or another overlay) that buffers writes as
// undos and defers parent deletes as applies, composing correctly across
// commit and rollback.
package overlay

import (
	"fmt"
	"sync"

	"github.com/arborix/bptree/bptreeerr"
	"github.com/arborix/bptree/common"
	"github.com/arborix/bptree/node"
	"github.com/arborix/bptree/store"
)

// Parent is whatever an Overlay wraps: either a store.Store or another
// Overlay. Both satisfy store.Reader/Writer, which is all an Overlay needs
// from its parent.
type Parent interface {
	store.Reader
	store.Writer
}

// Overlay is a single nestable transaction layer. It is not safe for
// concurrent use by multiple goroutines — the tree engine guarantees at
// most one operation per handle is ever in flight (§5 "Scheduling model").
type Overlay struct {
	mu      sync.Mutex
	parent  Parent
	undos   map[common.Pointer]struct{}
	applies map[common.Pointer]struct{}
	active  bool
}

// Begin opens a new transaction layered over parent.
func Begin(parent Parent) *Overlay {
	return &Overlay{
		parent:  parent,
		undos:   make(map[common.Pointer]struct{}),
		applies: make(map[common.Pointer]struct{}),
		active:  true,
	}
}

func (o *Overlay) requireActive() {
	common.Assert(o.active, "overlay: use of a committed or rolled-back transaction")
}

// Read delegates to the parent (§4.2 "read(ptr) — delegates to parent"),
// except for a pointer this transaction has already told the parent to
// discard on commit: resolving that would silently hand back a node this
// session considers gone, so it fails Deleted instead (§7 "attempt to
// resolve a pointer already discarded in this session").
func (o *Overlay) Read(ptr common.Pointer) (*node.Node, error) {
	o.requireActive()
	o.mu.Lock()
	_, isApplied := o.applies[ptr]
	o.mu.Unlock()
	if isApplied {
		return nil, bptreeerr.Deleted(ptr)
	}
	return o.parent.Read(ptr)
}

// Write delegates to the parent's write and records the produced pointer
// in undos (§4.2 "write(node) — delegates to parent's write"). If the
// produced pointer is one this transaction had deferred to applies (the
// same content as a parent node it deleted earlier), the write revives that
// node: the deferred delete is cancelled and the pointer is not an undo.
func (o *Overlay) Write(n *node.Node) (common.Pointer, error) {
	o.requireActive()
	ptr, err := o.parent.Write(n)
	if err != nil {
		return "", err
	}
	o.mu.Lock()
	if _, isApplied := o.applies[ptr]; isApplied {
		delete(o.applies, ptr)
	} else {
		o.undos[ptr] = struct{}{}
	}
	o.mu.Unlock()
	return ptr, nil
}

// Delete implements §4.2's delete(ptr): if ptr was written by this
// transaction, it is retracted immediately (removed from undos and
// propagated to the parent as a real delete); otherwise it belongs to the
// parent and is deferred to applies until commit.
func (o *Overlay) Delete(ptr common.Pointer) error {
	o.requireActive()
	o.mu.Lock()
	_, isUndo := o.undos[ptr]
	if isUndo {
		delete(o.undos, ptr)
	} else {
		o.applies[ptr] = struct{}{}
	}
	o.mu.Unlock()
	if isUndo {
		return o.parent.Delete(ptr)
	}
	return nil
}

// Commit executes every deferred apply-delete against the parent, then
// merges this transaction into it: if the parent is itself an Overlay, this
// transaction's undos are unioned into the parent's undos and any remaining
// applies are propagated as parent deletes, so the parent either rolls them
// back too or actually removes them on its own commit (§4.2 "commit").
func (o *Overlay) Commit() error {
	o.requireActive()
	o.mu.Lock()
	applies := o.applies
	undos := o.undos
	o.applies = make(map[common.Pointer]struct{})
	o.undos = make(map[common.Pointer]struct{})
	o.active = false
	o.mu.Unlock()

	for ptr := range applies {
		if err := o.parent.Delete(ptr); err != nil {
			return fmt.Errorf("overlay.Commit: %w", err)
		}
	}

	if parentOverlay, ok := o.parent.(*Overlay); ok {
		parentOverlay.mu.Lock()
		for ptr := range undos {
			parentOverlay.undos[ptr] = struct{}{}
		}
		parentOverlay.mu.Unlock()
	}
	return nil
}

// Rollback deletes every pointer in undos via the parent, discards applies
// (they were never executed), and reports the first deletion error, if any
// (§4.2 "rollback").
func (o *Overlay) Rollback() error {
	o.requireActive()
	o.mu.Lock()
	undos := o.undos
	o.applies = make(map[common.Pointer]struct{})
	o.undos = make(map[common.Pointer]struct{})
	o.active = false
	o.mu.Unlock()

	var firstErr error
	for ptr := range undos {
		if err := o.parent.Delete(ptr); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("overlay.Rollback: %w", err)
		}
	}
	return firstErr
}

// InProgress builds the InProgress error kind. An Overlay itself never
// returns it: using an Overlay after it has been committed or rolled back
// panics instead.
func InProgress() error { return bptreeerr.InProgress() }
