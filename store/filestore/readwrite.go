package filestore

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/arborix/bptree/bptreeerr"
	"github.com/arborix/bptree/common"
	"github.com/arborix/bptree/node"
)

// Read returns the node at ptr, checking the cache before falling back to
// the file at pathFor(ptr). When verifyHash is enabled the digest of the
// decoded bytes is recomputed and compared against ptr, failing Corrupt on
// mismatch (§4.1 "Contract").
func (s *Store) Read(ptr common.Pointer) (*node.Node, error) {
	if ptr.IsNull() {
		return nil, bptreeerr.NotFound(ptr)
	}
	s.mu.Lock()
	if entry, ok := s.pending[ptr]; ok {
		s.mu.Unlock()
		s.cache.Add(ptr, entry)
		n := entry.n
		return n, nil
	}
	s.mu.Unlock()

	if entry, ok := s.cache.Get(ptr); ok {
		return entry.n, nil
	}

	onDisk, err := os.ReadFile(s.pathFor(ptr))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, bptreeerr.NotFound(ptr)
		}
		return nil, bptreeerr.Io(fmt.Errorf("filestore.Read: %w", err))
	}
	raw, err := s.decodeFromDisk(onDisk)
	if err != nil {
		return nil, bptreeerr.Corrupt(ptr)
	}
	if s.verifyHash {
		if got := s.hasher(raw); got != ptr {
			s.log.WithFields(logrus.Fields{"ptr": ptr.String(), "recomputed": got.String()}).Warn("hash verification failed")
			return nil, bptreeerr.Corrupt(ptr)
		}
	}
	n, err := node.Decode(raw)
	if err != nil {
		return nil, bptreeerr.Corrupt(ptr)
	}
	n.Ptr = ptr
	s.cache.Add(ptr, &cacheEntry{n: n, raw: raw, mustWrite: false})
	return n, nil
}

// Write serializes n, computes its pointer, tags n, and registers the node
// as a pending (must-write) cache entry. The file write itself is deferred
// until eviction or Flush (§4.1 "write(node) → ptr"). Writing identical
// bytes twice is idempotent: the second call resolves to the same pointer
// and does not duplicate the pending task.
func (s *Store) Write(n *node.Node) (common.Pointer, error) {
	raw, err := node.Encode(n)
	if err != nil {
		return "", fmt.Errorf("filestore.Write: %w", err)
	}
	ptr := s.hasher(raw)
	n.Ptr = ptr

	s.mu.Lock()
	entry, already := s.pending[ptr]
	if !already {
		entry = &cacheEntry{n: n, raw: raw, mustWrite: true}
		s.pending[ptr] = entry
	} else {
		entry.n = n
	}
	s.mu.Unlock()
	s.cache.Add(ptr, entry)
	return ptr, nil
}

// Delete removes a previously written node. The pending-or-on-disk check
// and the removal itself run inside the same per-path serialization that
// flushPointer's write uses, so a write actively being published for ptr is
// genuinely chained after rather than raced: whichever of the write or the
// delete takes the path's baton first fully completes before the other
// runs, and the loser of that race always sees the winner's effect (§4.1
// "delete(ptr)").
func (s *Store) Delete(ptr common.Pointer) error {
	if ptr.IsNull() {
		return nil
	}
	s.cache.Remove(ptr)

	path := s.pathFor(ptr)
	err := s.paths.run(path, func() error {
		s.mu.Lock()
		if _, ok := s.pending[ptr]; ok {
			delete(s.pending, ptr)
			s.mu.Unlock()
			return nil
		}
		s.mu.Unlock()

		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	})
	if err != nil {
		return bptreeerr.Io(fmt.Errorf("filestore.Delete: %w", err))
	}
	return nil
}

// flushPointer publishes a single pending entry and clears its pending
// status, used by both Flush and onEvict. The pending check, the write, and
// the pending clear all run inside one s.paths.run(path, …) section so a
// concurrent Delete for the same ptr either sees the entry still pending
// (and retracts it before this write ever happens) or sees it already
// cleared (and removes the file this write just published) — never a state
// where Delete's fast path and this write can interleave.
func (s *Store) flushPointer(ctx context.Context, ptr common.Pointer) error {
	path := s.pathFor(ptr)
	return s.paths.run(path, func() error {
		s.mu.Lock()
		entry, ok := s.pending[ptr]
		s.mu.Unlock()
		if !ok {
			return nil
		}

		onDisk, err := s.encodeForDisk(entry.raw)
		if err != nil {
			return fmt.Errorf("filestore.flushPointer: %w", err)
		}
		if err := s.writeFile(ctx, path, onDisk, s.fileMode); err != nil {
			return err
		}

		s.mu.Lock()
		if e, ok := s.pending[ptr]; ok && e == entry {
			delete(s.pending, ptr)
		}
		s.mu.Unlock()
		entry.mustWrite = false
		return nil
	})
}
