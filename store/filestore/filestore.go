// Package filestore implements the content-addressed node store described
// in §4.1: nodes are published as files named by the hash of their
// serialized bytes under a two-level shard directory, with a bounded LRU
// cache, deferred writes, atomic rename publication and optional
// compression and hash verification.
package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/arborix/bptree/bptreeerr"
	"github.com/arborix/bptree/common"
	"github.com/arborix/bptree/node"
)

const (
	// MetaFileName is the single atomically-written document at
	// <storeRoot>/meta (§6 "Meta file").
	MetaFileName = "meta"
	// gzSuffix is appended to node file paths when compression is on.
	gzSuffix = ".gz"
	// defaultNodeFileMode is read-only to all, safe since nodes are
	// immutable once published (§6 "File modes").
	defaultNodeFileMode os.FileMode = 0o444
	defaultMetaFileMode os.FileMode = 0o644
)

type cacheEntry struct {
	n         *node.Node
	raw       []byte
	mustWrite bool
}

// Store is the filesystem-backed implementation of store.Store.
type Store struct {
	root            string
	tempDir         string
	fileMode        os.FileMode
	compress        bool
	verifyHash      bool
	maxConcurrentIO int
	hasher          common.Hasher
	log             logrus.FieldLogger

	cache *lru.Cache[common.Pointer, *cacheEntry]
	paths *pathSerializer
	sem   *semaphore.Weighted

	mu       sync.Mutex
	pending  map[common.Pointer]*cacheEntry
	tempSeq  uint64
	metaOnce sync.Mutex
	metaVal  map[string][]byte
}

// Option configures a Store at construction, per §6 "Configuration".
type Option func(*Store) error

// WithCacheSize sets the max resident node count before LRU eviction.
func WithCacheSize(n int) Option {
	return func(s *Store) error {
		if n <= 0 {
			return bptreeerr.Config("cacheSize must be positive")
		}
		cache, err := lru.NewWithEvict[common.Pointer, *cacheEntry](n, s.onEvict)
		if err != nil {
			return bptreeerr.Config(fmt.Sprintf("cacheSize: %v", err))
		}
		s.cache = cache
		return nil
	}
}

// WithCompress enables gzip compression of node bytes on disk.
func WithCompress(on bool) Option {
	return func(s *Store) error { s.compress = on; return nil }
}

// WithVerifyHash enables digest recomputation on read, failing Corrupt on
// mismatch.
func WithVerifyHash(on bool) Option {
	return func(s *Store) error { s.verifyHash = on; return nil }
}

// WithFileMode sets the POSIX mode applied to published node files. The
// store refuses configurations omitting user read+write (0o600).
func WithFileMode(mode os.FileMode) Option {
	return func(s *Store) error {
		if mode&0o600 != 0o600 {
			return bptreeerr.Config("fileMode must include user read+write (0o600)")
		}
		s.fileMode = mode
		return nil
	}
}

// WithMaxConcurrentIO caps simultaneous in-flight filesystem tasks.
func WithMaxConcurrentIO(n int) Option {
	return func(s *Store) error {
		if n <= 0 {
			return bptreeerr.Config("maxConcurrentIO must be positive")
		}
		s.maxConcurrentIO = n
		return nil
	}
}

// WithHasher overrides the default (non-adversarial) digest function, e.g.
// with a keyed MAC for deployments exposed to adversarial inputs.
func WithHasher(h common.Hasher) Option {
	return func(s *Store) error { s.hasher = h; return nil }
}

// WithLogger overrides the default logrus logger used for eviction
// writebacks, hard-link fallbacks, sweep results and corruption detections.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) error { s.log = l; return nil }
}

// New opens (creating if absent) a content-addressed store rooted at dir.
func New(dir string, opts ...Option) (*Store, error) {
	s := &Store{
		root:            dir,
		fileMode:        defaultNodeFileMode,
		maxConcurrentIO: 32,
		hasher:          common.DefaultHasher,
		log:             logrus.StandardLogger(),
		paths:           newPathSerializer(),
		pending:         make(map[common.Pointer]*cacheEntry),
		metaVal:         make(map[string][]byte),
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, bptreeerr.Io(fmt.Errorf("filestore.New: %w", err))
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.cache == nil {
		cache, err := lru.NewWithEvict[common.Pointer, *cacheEntry](4096, s.onEvict)
		if err != nil {
			return nil, bptreeerr.Config(err.Error())
		}
		s.cache = cache
	}
	s.sem = semaphore.NewWeighted(int64(s.maxConcurrentIO))
	tempDir, err := os.MkdirTemp(dir, ".tmp-")
	if err != nil {
		return nil, bptreeerr.Io(fmt.Errorf("filestore.New: %w", err))
	}
	s.tempDir = tempDir
	return s, nil
}

// Close removes the store's private temp directory (§9 "Per-store temp
// directory"). Best-effort, matching the source's orderly-shutdown cleanup.
func (s *Store) Close() error {
	return os.RemoveAll(s.tempDir)
}

func (s *Store) pathFor(ptr common.Pointer) string {
	p := filepath.Join(s.root, filepath.FromSlash(ptr.String()))
	if s.compress {
		p += gzSuffix
	}
	return p
}

// onEvict is the LRU eviction hook: a must-write entry is flushed to disk
// synchronously before it is dropped from cache, per §4.1 "Cache". Routed
// through flushPointer so the pending-check/write/pending-clear sequence is
// serialized against Delete the same way Flush's fan-out is.
func (s *Store) onEvict(ptr common.Pointer, entry *cacheEntry) {
	if !entry.mustWrite {
		return
	}
	s.log.WithFields(logrus.Fields{"ptr": ptr.String()}).Debug("evicting must-write node, scheduling writeback")
	if err := s.flushPointer(context.Background(), ptr); err != nil {
		s.log.WithFields(logrus.Fields{"ptr": ptr.String(), "err": err}).Error("writeback on eviction failed")
	}
}
