package filestore

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	kgzip "github.com/klauspost/compress/gzip"
)

// nextTempName returns a unique path under the store's private temp
// directory, using an incrementing counter the way the source guarantees
// uniqueness within a single process (§5 "Shared resources").
func (s *Store) nextTempName() string {
	n := atomic.AddUint64(&s.tempSeq, 1)
	return filepath.Join(s.tempDir, fmt.Sprintf("node-%d.tmp", n))
}

// encodeForDisk gzip-compresses raw when compression is enabled.
func (s *Store) encodeForDisk(raw []byte) ([]byte, error) {
	if !s.compress {
		return raw, nil
	}
	var buf bytes.Buffer
	w, err := kgzip.NewWriterLevel(&buf, kgzip.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeFromDisk reverses encodeForDisk.
func (s *Store) decodeFromDisk(onDisk []byte) ([]byte, error) {
	if !s.compress {
		return onDisk, nil
	}
	r, err := gzip.NewReader(bytes.NewReader(onDisk))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// publishAt atomically writes already-encoded bytes to finalPath, serialized
// against any other task (write or delete) for the same path. Callers that
// need on-disk compression (node files) apply it before calling this; meta
// documents are always written uncompressed.
func (s *Store) publishAt(ctx context.Context, finalPath string, onDisk []byte, mode os.FileMode) error {
	return s.paths.run(finalPath, func() error {
		return s.writeFile(ctx, finalPath, onDisk, mode)
	})
}

// writeFile performs the raw create-exclusive-temp+fsync+rename write.
// Callers must already hold finalPath's serialization baton (via
// s.paths.run) — this lets flushPointer fold the pending-map check, the
// write itself, and the pending-map clear into one atomic-per-path section,
// so a concurrent Delete for the same path genuinely chains rather than
// racing the in-flight publish (§4.1 "delete(ptr)").
func (s *Store) writeFile(ctx context.Context, finalPath string, onDisk []byte, mode os.FileMode) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("filestore.writeFile: %w", err)
	}
	defer s.sem.Release(1)

	tmp := s.nextTempName()
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, mode)
	if err != nil {
		return fmt.Errorf("filestore.writeFile: create temp: %w", err)
	}
	writeErr := func() error {
		if _, err := f.Write(onDisk); err != nil {
			return err
		}
		return f.Sync()
	}()
	closeErr := f.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmp)
		if writeErr != nil {
			return fmt.Errorf("filestore.writeFile: write temp: %w", writeErr)
		}
		return fmt.Errorf("filestore.writeFile: close temp: %w", closeErr)
	}

	if err := os.Rename(tmp, finalPath); err != nil {
		if os.IsNotExist(err) {
			if mkErr := os.MkdirAll(filepath.Dir(finalPath), 0o755); mkErr != nil && !os.IsExist(mkErr) {
				os.Remove(tmp)
				return fmt.Errorf("filestore.writeFile: mkdir retry: %w", mkErr)
			}
			if err := os.Rename(tmp, finalPath); err != nil {
				os.Remove(tmp)
				return fmt.Errorf("filestore.writeFile: rename after mkdir: %w", err)
			}
			return nil
		}
		os.Remove(tmp)
		return fmt.Errorf("filestore.writeFile: rename: %w", err)
	}
	return nil
}
