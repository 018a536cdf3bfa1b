// Package pipeline turns validated video assets into sendable items. It
// drives encoder sessions, republishes their progress, extracts preview
// thumbnails and offers blocking entry points for synchronous callers.
package pipeline

import (
	"errors"
	"fmt"
)

// Static errors for pipeline stages.
var (
	// ErrThumbnailCreationFailed is returned when no preview frame could be produced.
	ErrThumbnailCreationFailed = errors.New("thumbnail creation failed")
	// ErrExportSessionCreationFailed is returned when the encoder could not be
	// set up for an asset and output pairing.
	ErrExportSessionCreationFailed = errors.New("export session creation failed")
	// ErrConversionFailed is the general conversion failure used when the
	// encoder gives no detail or reports success without an output.
	ErrConversionFailed = errors.New("conversion failed")
	// ErrEncoderFailed marks conversions where the encoder reported a specific error.
	ErrEncoderFailed = errors.New("encoder failed")
	// ErrConversionCancelled is returned when the conversion context is cancelled.
	ErrConversionCancelled = errors.New("conversion cancelled")
)

// Kind classifies a ConversionError.
type Kind string

const (
	// KindSessionCreation means no encoder session could be created.
	KindSessionCreation Kind = "session_creation"
	// KindUnderlying means the encoder failed with a specific error.
	KindUnderlying Kind = "underlying"
	// KindGeneral means the encoder failed without detail.
	KindGeneral Kind = "general"
	// KindCancelled means the conversion was aborted.
	KindCancelled Kind = "cancelled"
)

// sentinel returns the static error matching a kind.
func (k Kind) sentinel() error {
	switch k {
	case KindSessionCreation:
		return ErrExportSessionCreationFailed
	case KindUnderlying:
		return ErrEncoderFailed
	case KindCancelled:
		return ErrConversionCancelled
	default:
		return ErrConversionFailed
	}
}

// ConversionError is returned by Converter and Builder. It matches both the
// sentinel of its Kind and the underlying error, if any.
type ConversionError struct {
	Kind Kind
	Err  error
}

func (e *ConversionError) Error() string {
	if e.Err == nil {
		return e.Kind.sentinel().Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind.sentinel(), e.Err)
}

func (e *ConversionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

func conversionError(kind Kind, err error) *ConversionError {
	return &ConversionError{Kind: kind, Err: err}
}
