package filestore

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arborix/bptree/bptreeerr"
	"github.com/arborix/bptree/common"
)

// CopyOptions configures cross-store node duplication (§4.1 "Copy/link").
type CopyOptions struct {
	// TryLink attempts a hard link before falling back to a byte copy.
	TryLink bool
	// Touch updates the destination's mtime without rewriting content,
	// used as the mark-and-sweep liveness signal.
	Touch bool
}

// Copy duplicates the node at ptr from src into s, honoring TryLink/Touch.
func (s *Store) Copy(src *Store, ptr common.Pointer, opts CopyOptions) error {
	srcPath := src.pathFor(ptr)
	dstPath := s.pathFor(ptr)

	if _, err := os.Stat(dstPath); err == nil {
		if opts.Touch {
			return touch(dstPath)
		}
		return nil
	}

	if err := os.MkdirAll(parentOf(dstPath), 0o755); err != nil {
		return bptreeerr.Io(fmt.Errorf("filestore.Copy: mkdir: %w", err))
	}

	if opts.TryLink {
		if err := os.Link(srcPath, dstPath); err == nil {
			if opts.Touch {
				return touch(dstPath)
			}
			return nil
		}
		s.log.WithFields(logrus.Fields{"ptr": ptr.String()}).Debug("hard link unavailable, falling back to copy")
	}

	in, err := os.Open(srcPath)
	if err != nil {
		return bptreeerr.Io(fmt.Errorf("filestore.Copy: open source: %w", err))
	}
	defer in.Close()

	out, err := os.OpenFile(dstPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, s.fileMode)
	if err != nil {
		return bptreeerr.Io(fmt.Errorf("filestore.Copy: create dest: %w", err))
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return bptreeerr.Io(fmt.Errorf("filestore.Copy: %w", err))
	}
	if err := out.Close(); err != nil {
		return bptreeerr.Io(fmt.Errorf("filestore.Copy: close dest: %w", err))
	}
	if opts.Touch {
		return touch(dstPath)
	}
	return nil
}

func touch(path string) error {
	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		return bptreeerr.Io(fmt.Errorf("filestore.touch: %w", err))
	}
	return nil
}

func parentOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == os.PathSeparator {
			return path[:i]
		}
	}
	return "."
}

// Mark touches the file backing ptr, recording it as reachable for the
// current sweep pass (§4.1 "Sweep", §4.7 "garbageCollect").
func (s *Store) Mark(ptr common.Pointer) error {
	if ptr.IsNull() {
		return nil
	}
	return touch(s.pathFor(ptr))
}

// Sweep removes every node file under the store root whose mtime is older
// than cutoff, per §4.1 "Sweep". It is the caller's responsibility to Mark
// every pointer reachable from whichever named trees should survive before
// calling Sweep (see bptree.GarbageCollect).
func (s *Store) Sweep(cutoff time.Time) (removed int, err error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, bptreeerr.Io(fmt.Errorf("filestore.Sweep: %w", err))
	}
	for _, shard := range entries {
		if !shard.IsDir() {
			continue
		}
		shardPath := s.root + string(os.PathSeparator) + shard.Name()
		files, err := os.ReadDir(shardPath)
		if err != nil {
			return removed, bptreeerr.Io(fmt.Errorf("filestore.Sweep: %w", err))
		}
		for _, f := range files {
			info, err := f.Info()
			if err != nil {
				continue
			}
			if info.ModTime().Before(cutoff) {
				path := shardPath + string(os.PathSeparator) + f.Name()
				if err := os.Remove(path); err == nil {
					removed++
					s.log.WithFields(logrus.Fields{"path": path}).Debug("swept stale node file")
				}
			}
		}
	}
	return removed, nil
}
