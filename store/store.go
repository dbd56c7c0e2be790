// Package store defines the backing-store contract nodes are read from and
// written to: content-addressed by pointer, with deferred writes surfaced
// as a Future and a small atomically-written meta document.
package store

import (
	"github.com/arborix/bptree/common"
	"github.com/arborix/bptree/node"
)

// Future represents a pending asynchronous operation (§4.1 "flush() →
// future"). Wait blocks until the operation has completed and returns its
// error, if any. Calling Wait more than once returns the same result.
type Future interface {
	Wait() error
}

// doneFuture is an already-resolved Future, used by synchronous store
// implementations (e.g. memstore) that have no real deferral to offer.
type doneFuture struct{ err error }

func (f doneFuture) Wait() error { return f.err }

// Done returns a Future that is already resolved with err.
func Done(err error) Future { return doneFuture{err} }

// Store is the pluggable node-storage contract described in §4.1. Reader
// is the read path, Writer the write/delete path; Store composes both plus
// the meta record operations and flush.
type Reader interface {
	// Read returns the node whose pointer tag equals ptr, or a bptreeerr
	// NotFound/Corrupt/Io error.
	Read(ptr common.Pointer) (*node.Node, error)
}

type Writer interface {
	// Write computes the digest of n's serialized bytes, tags n, registers
	// a pending write and returns the pointer synchronously.
	Write(n *node.Node) (common.Pointer, error)
	// Delete removes a previously written node (or cancels a pending write
	// that never reached disk).
	Delete(ptr common.Pointer) error
}

type Store interface {
	Reader
	Writer
	// Flush ensures every pending write has reached the filesystem.
	Flush() Future
	// ReadMeta returns the bytes of the document at path, or nil if absent.
	ReadMeta(path string) ([]byte, error)
	// WriteMeta atomically replaces the document at path.
	WriteMeta(path string, value []byte) Future
}
