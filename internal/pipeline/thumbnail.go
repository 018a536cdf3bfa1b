package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"time"

	"github.com/maauso/videosend/internal/asset"
	"github.com/maauso/videosend/internal/media"
)

// maxThumbnailOffset is the latest point a preview frame is taken from.
const maxThumbnailOffset = time.Second

// ThumbnailExtractor produces still previews of assets. It holds no per-asset
// state, so calls may run concurrently with each other and with encodes.
type ThumbnailExtractor struct {
	encoder media.Encoder
	logger  *slog.Logger
}

// NewThumbnailExtractor creates a ThumbnailExtractor backed by encoder.
func NewThumbnailExtractor(encoder media.Encoder, logger *slog.Logger) *ThumbnailExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ThumbnailExtractor{encoder: encoder, logger: logger}
}

// Extract returns the frame at min(1s, duration/2) as an image.
// Any failure is reported as ErrThumbnailCreationFailed.
func (t *ThumbnailExtractor) Extract(ctx context.Context, a *asset.Asset) (image.Image, error) {
	d := a.Duration()
	if d <= 0 {
		return nil, fmt.Errorf("%w: %s has no duration", ErrThumbnailCreationFailed, a.Reference())
	}

	at := min(maxThumbnailOffset, d/2)
	data, err := t.encoder.ExtractFrame(ctx, a.Path(), at)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrThumbnailCreationFailed, err)
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode frame: %w", ErrThumbnailCreationFailed, err)
	}

	t.logger.Debug("thumbnail extracted",
		slog.String("asset", a.Reference()),
		slog.Duration("at", at),
		slog.Int("width", img.Bounds().Dx()),
		slog.Int("height", img.Bounds().Dy()),
	)
	return img, nil
}

// ExtractAsync runs Extract in the background.
func (t *ThumbnailExtractor) ExtractAsync(ctx context.Context, a *asset.Asset) *Future[image.Image] {
	return Go(func() (image.Image, error) {
		return t.Extract(ctx, a)
	})
}
