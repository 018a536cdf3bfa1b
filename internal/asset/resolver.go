package asset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/maauso/videosend/internal/storage"
)

// ErrFetch is returned when a remote reference cannot be downloaded.
var ErrFetch = errors.New("fetch remote asset")

// Resolver rewrites remote references into local file references by
// downloading them into the scratch directory.
type Resolver struct {
	scratch storage.Scratch
	sources map[string]storage.Source
	logger  *slog.Logger
}

// NewResolver creates a Resolver with no remote sources registered.
func NewResolver(scratch storage.Scratch, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		scratch: scratch,
		sources: make(map[string]storage.Source),
		logger:  logger,
	}
}

// Register makes references with the given scheme resolvable through src.
// It is not safe to call concurrently with Resolve.
func (r *Resolver) Register(scheme string, src storage.Source) {
	r.sources[strings.ToLower(scheme)] = src
}

// Resolve returns a local reference for ref. References whose scheme has no
// registered source are returned unchanged for the Validator to judge.
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" {
		return ref, nil
	}
	src, ok := r.sources[strings.ToLower(u.Scheme)]
	if !ok {
		return ref, nil
	}

	ext := path.Ext(u.Path)
	if ext == "" {
		ext = ".mp4"
	}
	dst, err := r.scratch.AllocatePath(ext)
	if err != nil {
		return "", err
	}

	r.logger.Info("fetching remote asset",
		slog.String("ref", ref),
		slog.String("dst", dst),
	)

	if err := src.Fetch(ctx, u, dst); err != nil {
		return "", fmt.Errorf("%w %s: %w", ErrFetch, ref, err)
	}
	return fileReference(dst), nil
}

// Discard removes a copy previously returned by Resolve. References that
// Resolve passed through unchanged are never touched.
func (r *Resolver) Discard(ctx context.Context, original, local string) error {
	if original == local {
		return nil
	}
	u, err := url.Parse(local)
	if err != nil || !strings.EqualFold(u.Scheme, SchemeFile) {
		return nil
	}
	return r.scratch.Cleanup(ctx, []string{u.Path})
}
