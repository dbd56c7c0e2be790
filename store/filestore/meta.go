package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arborix/bptree/bptreeerr"
	"github.com/arborix/bptree/store"
)

func (s *Store) metaPath(path string) string {
	return filepath.Join(s.root, filepath.FromSlash(path))
}

// ReadMeta returns the bytes of the document at path, or nil if absent.
// Reads cache the most recent written value, per §4.1's meta contract.
func (s *Store) ReadMeta(path string) ([]byte, error) {
	s.metaOnce.Lock()
	if v, ok := s.metaVal[path]; ok {
		s.metaOnce.Unlock()
		out := make([]byte, len(v))
		copy(out, v)
		return out, nil
	}
	s.metaOnce.Unlock()

	raw, err := os.ReadFile(s.metaPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, bptreeerr.Io(fmt.Errorf("filestore.ReadMeta: %w", err))
	}
	s.metaOnce.Lock()
	s.metaVal[path] = raw
	s.metaOnce.Unlock()
	return raw, nil
}

// WriteMeta atomically replaces the document at path (temp + rename) with
// 0o644 permissions (§6 "File modes").
func (s *Store) WriteMeta(path string, value []byte) store.Future {
	err := s.publishAt(context.Background(), s.metaPath(path), value, defaultMetaFileMode)
	if err == nil {
		s.metaOnce.Lock()
		cp := make([]byte, len(value))
		copy(cp, value)
		s.metaVal[path] = cp
		s.metaOnce.Unlock()
	} else {
		err = bptreeerr.Io(fmt.Errorf("filestore.WriteMeta: %w", err))
	}
	return store.Done(err)
}
