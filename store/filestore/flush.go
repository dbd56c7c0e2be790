package filestore

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/arborix/bptree/common"
	"github.com/arborix/bptree/store"
)

// Flush ensures every pending write has reached the filesystem and been
// fsynced (§4.1 "flush() → future"). Pending writes are fanned out
// concurrently, bounded by maxConcurrentIO via the store's semaphore
// (acquired inside writeFile), and the returned Future resolves once every
// one of them has completed or the first error occurs.
func (s *Store) Flush() store.Future {
	s.mu.Lock()
	ptrs := make([]common.Pointer, 0, len(s.pending))
	for ptr := range s.pending {
		ptrs = append(ptrs, ptr)
	}
	s.mu.Unlock()

	g, ctx := errgroup.WithContext(context.Background())
	for _, ptr := range ptrs {
		ptr := ptr
		g.Go(func() error {
			return s.flushPointer(ctx, ptr)
		})
	}
	return store.Done(g.Wait())
}
