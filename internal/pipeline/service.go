package pipeline

import (
	"context"
	"image"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/maauso/videosend/internal/asset"
)

// Prepared is the outcome of Service.Prepare. Thumbnail is nil when no
// preview could be extracted.
type Prepared struct {
	Asset     *asset.Asset
	Item      SenderItem
	Thumbnail image.Image
}

// ServiceConfig holds the collaborators of a Service.
type ServiceConfig struct {
	// Resolver localizes remote references. Optional.
	Resolver   *asset.Resolver
	Validator  *asset.Validator
	Thumbnails *ThumbnailExtractor
	Factory    *SessionFactory
	Builder    *Builder
	Logger     *slog.Logger
}

// Service is the asynchronous entry point of the pipeline: reference in,
// validated asset, preview and sender item out.
type Service struct {
	resolver   *asset.Resolver
	validator  *asset.Validator
	thumbnails *ThumbnailExtractor
	factory    *SessionFactory
	builder    *Builder
	logger     *slog.Logger
}

// NewService creates a Service from cfg.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		resolver:   cfg.Resolver,
		validator:  cfg.Validator,
		thumbnails: cfg.Thumbnails,
		factory:    cfg.Factory,
		builder:    cfg.Builder,
		logger:     logger,
	}
}

// Validate resolves ref and validates the resulting local asset.
func (s *Service) Validate(ctx context.Context, ref string) (*asset.Asset, error) {
	local := ref
	if s.resolver != nil {
		var err error
		if local, err = s.resolver.Resolve(ctx, ref); err != nil {
			return nil, err
		}
	}
	a, err := s.validator.Validate(ctx, local)
	if err != nil && s.resolver != nil {
		// A rejected download must not linger in scratch.
		if derr := s.resolver.Discard(ctx, ref, local); derr != nil {
			s.logger.Warn("failed to discard rejected download",
				slog.String("ref", ref),
				slog.String("error", derr.Error()),
			)
		}
	}
	return a, err
}

// Build converts a into a SenderItem.
func (s *Service) Build(ctx context.Context, a *asset.Asset, opts ...ConvertOption) (SenderItem, error) {
	return s.builder.Build(ctx, a, opts...)
}

// Thumbnail extracts a preview image of a.
func (s *Service) Thumbnail(ctx context.Context, a *asset.Asset) (image.Image, error) {
	return s.thumbnails.Extract(ctx, a)
}

// Prepare validates ref, then extracts a thumbnail and builds the sender item
// concurrently. A failed thumbnail is logged and does not fail the call.
func (s *Service) Prepare(ctx context.Context, ref string, opts ...ConvertOption) (*Prepared, error) {
	a, err := s.Validate(ctx, ref)
	if err != nil {
		return nil, err
	}

	p := &Prepared{Asset: a}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		img, err := s.thumbnails.Extract(gctx, a)
		if err != nil {
			s.logger.Warn("continuing without thumbnail",
				slog.String("asset", a.Reference()),
				slog.String("error", err.Error()),
			)
			return nil
		}
		p.Thumbnail = img
		return nil
	})

	g.Go(func() error {
		item, err := s.builder.Build(gctx, a, opts...)
		if err != nil {
			return err
		}
		p.Item = item
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return p, nil
}
