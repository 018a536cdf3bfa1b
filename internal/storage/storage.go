// Package storage provides the pipeline's scratch directory and remote asset
// sources. It defines the Scratch and Source ports and implementations for
// local disk and S3.
package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
)

// ErrStorage is wrapped by every scratch directory failure (creation, write, purge).
var ErrStorage = errors.New("scratch storage failure")

// Scratch owns a pipeline-scoped ephemeral directory.
// Any goroutine may allocate paths concurrently. Purge must not race with an
// in-flight allocation or write; callers ensure no conversion is running.
type Scratch interface {
	// Dir returns the scratch directory path. It may not exist yet.
	Dir() string

	// AllocatePath returns a fresh path inside the scratch directory with the
	// given extension, creating the directory if needed. No file is created.
	AllocatePath(ext string) (string, error)

	// WriteTemp writes data to a freshly allocated path and returns it.
	WriteTemp(ctx context.Context, data io.Reader, ext string) (string, error)

	// Cleanup removes the specified files.
	// It continues cleanup even if some files fail to delete.
	Cleanup(ctx context.Context, paths []string) error

	// Purge recursively removes the scratch directory.
	Purge() error
}

// Source downloads a remote asset reference to a local path.
type Source interface {
	// Fetch writes the object addressed by ref to dst.
	Fetch(ctx context.Context, ref *url.URL, dst string) error
}
