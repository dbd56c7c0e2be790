package store

import (
	"sync"

	"github.com/arborix/bptree/bptreeerr"
	"github.com/arborix/bptree/common"
	"github.com/arborix/bptree/node"
)

// MemStore is an in-memory Store used by the engine's own tests and by
// callers that do not need durability. All operations are synchronous;
// Flush and WriteMeta return an already-resolved Future.
type MemStore struct {
	mu     sync.Mutex
	nodes  map[common.Pointer][]byte
	meta   map[string][]byte
	hasher common.Hasher
}

// NewMemStore builds an empty in-memory store using the default hasher.
func NewMemStore() *MemStore {
	return &MemStore{
		nodes:  make(map[common.Pointer][]byte),
		meta:   make(map[string][]byte),
		hasher: common.DefaultHasher,
	}
}

func (s *MemStore) Read(ptr common.Pointer) (*node.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.nodes[ptr]
	if !ok {
		return nil, bptreeerr.NotFound(ptr)
	}
	n, err := node.Decode(raw)
	if err != nil {
		return nil, bptreeerr.Corrupt(ptr)
	}
	n.Ptr = ptr
	return n, nil
}

func (s *MemStore) Write(n *node.Node) (common.Pointer, error) {
	raw, err := node.Encode(n)
	if err != nil {
		return "", err
	}
	ptr := s.hasher(raw)
	s.mu.Lock()
	s.nodes[ptr] = raw
	s.mu.Unlock()
	n.Ptr = ptr
	return ptr, nil
}

func (s *MemStore) Delete(ptr common.Pointer) error {
	s.mu.Lock()
	delete(s.nodes, ptr)
	s.mu.Unlock()
	return nil
}

func (s *MemStore) Flush() Future { return Done(nil) }

func (s *MemStore) ReadMeta(path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.meta[path]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *MemStore) WriteMeta(path string, value []byte) Future {
	s.mu.Lock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.meta[path] = cp
	s.mu.Unlock()
	return Done(nil)
}

// Len returns the number of live node files, for test assertions about
// orphan cleanup after rollback.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nodes)
}

// Has reports whether ptr currently resolves to a node.
func (s *MemStore) Has(ptr common.Pointer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.nodes[ptr]
	return ok
}
