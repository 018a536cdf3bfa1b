// Package asset validates user-supplied media references and turns them into
// opaque Asset handles the pipeline can export.
package asset

import (
	"net/url"
	"time"

	"github.com/maauso/videosend/internal/media"
)

// SchemeFile is the only reference scheme the pipeline reads directly.
const SchemeFile = "file"

// Asset is an opaque handle to a validated local media file.
type Asset struct {
	ref  string
	path string
	info *media.ProbeResult
}

// New builds an Asset for a local path with already probed media info.
// It performs no validation; use Validator.Check before exporting it.
func New(path string, info *media.ProbeResult) *Asset {
	return &Asset{
		ref:  fileReference(path),
		path: path,
		info: info,
	}
}

// Path returns the local file path.
func (a *Asset) Path() string { return a.path }

// Reference returns the reference the asset was created from.
func (a *Asset) Reference() string { return a.ref }

// Info returns the probe result, which may be nil.
func (a *Asset) Info() *media.ProbeResult { return a.info }

// Duration returns the media duration, or zero if unknown.
func (a *Asset) Duration() time.Duration {
	if a.info == nil {
		return 0
	}
	return a.info.Duration
}

// IsExportable reports whether the asset has a video stream and a positive duration.
func (a *Asset) IsExportable() bool {
	return a.info.Exportable()
}

func fileReference(path string) string {
	return (&url.URL{Scheme: SchemeFile, Path: path}).String()
}
