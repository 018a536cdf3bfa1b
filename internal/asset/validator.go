package asset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/maauso/videosend/internal/media"
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("invalid asset")

// Reason identifies which rule rejected a reference.
type Reason string

const (
	// ReasonMissingScheme means the reference is neither a URL nor an absolute path.
	ReasonMissingScheme Reason = "missing_scheme"
	// ReasonUnsupportedScheme means the reference uses a scheme other than file.
	ReasonUnsupportedScheme Reason = "unsupported_scheme"
	// ReasonNotFound means the referenced file does not exist.
	ReasonNotFound Reason = "not_found"
	// ReasonNotRegularFile means the reference points at a directory or device.
	ReasonNotRegularFile Reason = "not_regular_file"
	// ReasonNotVideo means the file content is not a media container.
	ReasonNotVideo Reason = "not_video"
	// ReasonProbeFailed means the file could not be probed.
	ReasonProbeFailed Reason = "probe_failed"
	// ReasonNotExportable means the file has no video stream or no duration.
	ReasonNotExportable Reason = "not_exportable"
)

// ValidationError reports why a reference was rejected.
type ValidationError struct {
	Ref    string
	Reason Reason
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid asset %q: %s: %v", e.Ref, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid asset %q: %s", e.Ref, e.Reason)
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func reject(ref string, reason Reason, err error) *ValidationError {
	return &ValidationError{Ref: ref, Reason: reason, Err: err}
}

// Validator checks that media references are usable by the pipeline.
// It never modifies the files it inspects.
type Validator struct {
	prober media.Prober
	logger *slog.Logger
}

// NewValidator creates a Validator that probes files with prober.
func NewValidator(prober media.Prober, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{prober: prober, logger: logger}
}

// Validate resolves ref to a local file and checks, in order, its scheme,
// existence, content type and exportability.
func (v *Validator) Validate(ctx context.Context, ref string) (*Asset, error) {
	path, verr := localPath(ref)
	if verr != nil {
		return nil, verr
	}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, reject(ref, ReasonNotFound, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, reject(ref, ReasonNotRegularFile, nil)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, reject(ref, ReasonNotFound, err)
	}
	if !isMedia(mt) {
		return nil, reject(ref, ReasonNotVideo, fmt.Errorf("detected %s", mt.String()))
	}

	info, err := v.prober.Probe(ctx, path)
	if err != nil {
		return nil, reject(ref, ReasonProbeFailed, err)
	}
	if !info.Exportable() {
		return nil, reject(ref, ReasonNotExportable, nil)
	}

	v.logger.Debug("asset validated",
		slog.String("ref", ref),
		slog.String("mime", mt.String()),
		slog.Duration("duration", info.Duration),
	)

	return &Asset{ref: ref, path: path, info: info}, nil
}

// Check validates an already constructed asset handle.
func (v *Validator) Check(a *Asset) error {
	if a == nil {
		return reject("", ReasonNotExportable, nil)
	}
	if !a.IsExportable() {
		return reject(a.Reference(), ReasonNotExportable, nil)
	}
	return nil
}

// localPath maps a reference to a local path. Bare absolute paths are
// treated as file references.
func localPath(ref string) (string, *ValidationError) {
	if ref == "" {
		return "", reject(ref, ReasonMissingScheme, nil)
	}
	if filepath.IsAbs(ref) {
		return filepath.Clean(ref), nil
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", reject(ref, ReasonMissingScheme, err)
	}
	if u.Scheme == "" {
		return "", reject(ref, ReasonMissingScheme, nil)
	}
	if !strings.EqualFold(u.Scheme, SchemeFile) {
		return "", reject(ref, ReasonUnsupportedScheme, fmt.Errorf("scheme %q", u.Scheme))
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", reject(ref, ReasonUnsupportedScheme, fmt.Errorf("remote host %q", u.Host))
	}
	if u.Path == "" {
		return "", reject(ref, ReasonNotFound, nil)
	}
	return filepath.Clean(u.Path), nil
}

// isMedia reports whether mt, or any type it derives from, is audio or video.
func isMedia(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		s := m.String()
		if strings.HasPrefix(s, "video/") || strings.HasPrefix(s, "audio/") {
			return true
		}
	}
	return false
}

// isVideo reports whether mt, or any type it derives from, is video.
func isVideo(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "video/") {
			return true
		}
	}
	return false
}
