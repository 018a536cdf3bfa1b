package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/maauso/videosend/internal/asset"
	"github.com/maauso/videosend/internal/session"
)

const (
	// MediaTypeMP4 is the media type of every produced item.
	MediaTypeMP4 = "video/mp4"
	// RenderTypeVideo tells receivers to render the item as a video.
	RenderTypeVideo = 1
)

// SenderItem describes an encoded file ready to be handed to a messaging layer.
type SenderItem struct {
	Path       string `json:"path"`
	MediaType  string `json:"media_type"`
	RenderType int    `json:"render_type"`
	SendAsFile bool   `json:"send_as_file"`
}

// NewSenderItem wraps an encoded file. The file must exist and be non-empty.
func NewSenderItem(path string) (SenderItem, error) {
	info, err := os.Stat(path)
	if err != nil {
		return SenderItem{}, conversionError(KindGeneral, fmt.Errorf("output %s: %w", path, err))
	}
	if !info.Mode().IsRegular() || info.Size() == 0 {
		return SenderItem{}, conversionError(KindGeneral, fmt.Errorf("output %s is empty", path))
	}
	return SenderItem{
		Path:       path,
		MediaType:  MediaTypeMP4,
		RenderType: RenderTypeVideo,
		SendAsFile: true,
	}, nil
}

// Builder composes session creation and conversion into a SenderItem.
type Builder struct {
	converter *Converter
	logger    *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(converter *Converter, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{converter: converter, logger: logger}
}

// Build converts a and wraps the result.
func (b *Builder) Build(ctx context.Context, a *asset.Asset, opts ...ConvertOption) (SenderItem, error) {
	path, err := b.converter.Convert(ctx, a, opts...)
	if err != nil {
		return SenderItem{}, err
	}
	return NewSenderItem(path)
}

// BuildSession converts an existing CREATED session and wraps the result.
func (b *Builder) BuildSession(ctx context.Context, s *session.Session, opts ...ConvertOption) (SenderItem, error) {
	path, err := b.converter.ConvertSession(ctx, s, opts...)
	if err != nil {
		return SenderItem{}, err
	}
	return NewSenderItem(path)
}

// BuildAsync runs Build in the background.
func (b *Builder) BuildAsync(ctx context.Context, a *asset.Asset, opts ...ConvertOption) *Future[SenderItem] {
	return Go(func() (SenderItem, error) {
		return b.Build(ctx, a, opts...)
	})
}
