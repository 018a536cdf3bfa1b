package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/maauso/videosend/internal/id"
)

// DefaultDirName is the name of the scratch directory under the temp root.
const DefaultDirName = "tmpVideoCreator"

// Compile-time check that LocalScratch implements Scratch.
var _ Scratch = (*LocalScratch)(nil)

// LocalScratch implements Scratch on local disk.
// The directory is created lazily, so allocating after a purge recreates it.
type LocalScratch struct {
	dir string
}

// NewLocalScratch creates a new LocalScratch rooted at root/name.
// If root is empty, os.TempDir() is used. If name is empty, DefaultDirName is used.
func NewLocalScratch(root, name string) *LocalScratch {
	if root == "" {
		root = os.TempDir()
	}
	if name == "" {
		name = DefaultDirName
	}
	return &LocalScratch{dir: filepath.Join(root, name)}
}

// Dir returns the scratch directory path.
func (s *LocalScratch) Dir() string {
	return s.dir
}

// AllocatePath returns <dir>/<random name>.<ext>.
func (s *LocalScratch) AllocatePath(ext string) (string, error) {
	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return "", fmt.Errorf("%w: create directory %s: %w", ErrStorage, s.dir, err)
	}

	name := id.Name(id.NameLength)
	if ext = strings.TrimPrefix(ext, "."); ext != "" {
		name += "." + ext
	}
	return filepath.Join(s.dir, name), nil
}

// WriteTemp writes data to a freshly allocated path and returns it.
// The partially written file is removed on failure.
func (s *LocalScratch) WriteTemp(ctx context.Context, data io.Reader, ext string) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	path, err := s.AllocatePath(ext)
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600) // #nosec G304 - path is allocated inside the scratch dir
	if err != nil {
		return "", fmt.Errorf("%w: create file: %w", ErrStorage, err)
	}

	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("%w: write file: %w", ErrStorage, err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("%w: close file: %w", ErrStorage, err)
	}

	return path, nil
}

// Cleanup removes the specified files.
// It continues cleanup even if some files fail to delete,
// returning the first error encountered.
func (s *LocalScratch) Cleanup(ctx context.Context, paths []string) error {
	var firstErr error
	for _, p := range paths {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: remove %s: %w", ErrStorage, p, err)
			}
		}
	}
	return firstErr
}

// Purge recursively removes the scratch directory.
// A missing directory is reported rather than ignored.
func (s *LocalScratch) Purge() error {
	if _, err := os.Stat(s.dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: purge %s: %w", ErrStorage, s.dir, err)
		}
		return fmt.Errorf("%w: stat %s: %w", ErrStorage, s.dir, err)
	}
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("%w: purge %s: %w", ErrStorage, s.dir, err)
	}
	return nil
}
