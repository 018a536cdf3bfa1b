package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maauso/videosend/internal/asset"
	"github.com/maauso/videosend/internal/media"
	"github.com/maauso/videosend/internal/session"
	"github.com/maauso/videosend/internal/storage"
)

// OutputExtension is the extension of every encoded file.
const OutputExtension = "mp4"

// SessionFactory builds encoder sessions whose output lives in the scratch directory.
type SessionFactory struct {
	encoder media.Encoder
	scratch storage.Scratch
	preset  media.Preset
	logger  *slog.Logger
}

// NewSessionFactory creates a SessionFactory.
func NewSessionFactory(encoder media.Encoder, scratch storage.Scratch, preset media.Preset, logger *slog.Logger) *SessionFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionFactory{
		encoder: encoder,
		scratch: scratch,
		preset:  preset,
		logger:  logger,
	}
}

// Create allocates an output path and prepares an export of a into it.
// The session is returned in CREATED state; nothing is encoded yet.
func (f *SessionFactory) Create(ctx context.Context, a *asset.Asset) (*session.Session, error) {
	output, err := f.scratch.AllocatePath(OutputExtension)
	if err != nil {
		return nil, fmt.Errorf("%w: allocate output: %w", ErrExportSessionCreationFailed, err)
	}

	export, err := f.encoder.NewExport(ctx, a.Path(), output, f.preset)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExportSessionCreationFailed, err)
	}

	s := session.New(a.Path(), export)
	f.logger.Debug("export session created",
		slog.String("session_id", s.ID()),
		slog.String("asset", a.Reference()),
		slog.String("output", s.OutputPath()),
	)
	return s, nil
}

// CreateAsync runs Create in the background.
func (f *SessionFactory) CreateAsync(ctx context.Context, a *asset.Asset) *Future[*session.Session] {
	return Go(func() (*session.Session, error) {
		return f.Create(ctx, a)
	})
}
