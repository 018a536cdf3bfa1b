// Package media provides the encoder capability the video pipeline drives:
// export sessions that normalize a source into an MP4 file, single-frame
// extraction for previews, and media probing.
package media

import (
	"context"
	"time"
)

// ExportStatus is the terminal status reported by an Export.
type ExportStatus string

const (
	// ExportCompleted indicates the encoder finished writing the output.
	ExportCompleted ExportStatus = "completed"
	// ExportFailed indicates the encoder stopped with a failure.
	ExportFailed ExportStatus = "failed"
	// ExportCancelled indicates the encode was aborted through its context.
	ExportCancelled ExportStatus = "cancelled"
)

// Outcome is the terminal result of Export.Run.
// A failed outcome may carry a nil Err when the encoder gives no detail.
type Outcome struct {
	Status     ExportStatus
	OutputPath string
	Err        error
}

// Progress is a single progress report from a running export.
type Progress struct {
	// Fraction is the completed share of the source duration, in [0, 1].
	Fraction float64
	// OutTime is the media time written so far.
	OutTime time.Duration
	// TotalSize is the number of bytes written so far.
	TotalSize int64
	// Speed is the encoder's reported speed, e.g. "2.5x".
	Speed string
}

// Export is one configured encode bound to an input and an output path.
type Export interface {
	// Run drives the encode to a terminal outcome. onProgress is invoked
	// synchronously, in order, and never after Run returns.
	Run(ctx context.Context, onProgress func(Progress)) Outcome

	// OutputPath returns the path the export writes to.
	OutputPath() string
}

// Encoder constructs exports and extracts preview frames.
// Implementations should use ffmpeg or similar tools for media manipulation.
type Encoder interface {
	// NewExport prepares an export of input into output using preset.
	// It does not start encoding.
	NewExport(ctx context.Context, input, output string, preset Preset) (Export, error)

	// ExtractFrame returns the frame at the given offset as JPEG data.
	ExtractFrame(ctx context.Context, input string, at time.Duration) ([]byte, error)
}
