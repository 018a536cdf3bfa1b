// Package bootstrap provides dependency initialization for videosend.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/maauso/videosend/internal/asset"
	"github.com/maauso/videosend/internal/config"
	"github.com/maauso/videosend/internal/conversion"
	"github.com/maauso/videosend/internal/media"
	"github.com/maauso/videosend/internal/pipeline"
	"github.com/maauso/videosend/internal/storage"
)

// Dependencies holds all initialized dependencies for the binaries.
type Dependencies struct {
	Scratch     *storage.LocalScratch
	Conversions *conversion.Service
	Pipeline    *pipeline.Service
	Bridge      *pipeline.Bridge

	pool *pipeline.WorkerPool
}

// NewDependencies creates and initializes all dependencies for the application.
// The bridge worker pool is started; call Close to stop it.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	preset, err := initPreset(cfg, logger)
	if err != nil {
		return nil, err
	}

	// Scratch directory for downloads and encoded output
	scratch := storage.NewLocalScratch(cfg.ScratchRoot, cfg.ScratchDir)
	logger.Info("scratch directory configured",
		slog.String("dir", scratch.Dir()),
	)

	// Media tooling
	prober := media.NewFFprobeProber(cfg.FFprobePath)
	encoder := media.NewFFmpegEncoder(cfg.FFmpegPath, prober)

	// Asset resolution and validation
	resolver := asset.NewResolver(scratch, logger)
	if cfg.S3Enabled() {
		src, err := storage.NewS3Source(storage.S3Config{
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create S3 source: %w", err)
		}
		resolver.Register(storage.SchemeS3, src)
		logger.Info("S3 asset source configured",
			slog.String("region", cfg.S3Region),
			slog.String("endpoint", cfg.S3Endpoint),
		)
	}
	validator := asset.NewValidator(prober, logger)

	// Conversion records
	conversions := conversion.NewService(conversion.NewMemoryRepository(), logger)

	// Pipeline stages
	factory := pipeline.NewSessionFactory(encoder, scratch, preset, logger)
	converter := pipeline.NewConverter(factory, conversions, logger)
	builder := pipeline.NewBuilder(converter, logger)
	svc := pipeline.NewService(pipeline.ServiceConfig{
		Resolver:   resolver,
		Validator:  validator,
		Thumbnails: pipeline.NewThumbnailExtractor(encoder, logger),
		Factory:    factory,
		Builder:    builder,
		Logger:     logger,
	})

	// Blocking entry points run on their own pool
	pool := pipeline.NewWorkerPool(cfg.BridgeWorkers)
	pool.Start()

	return &Dependencies{
		Scratch:     scratch,
		Conversions: conversions,
		Pipeline:    svc,
		Bridge:      pipeline.NewBridge(pool, svc, logger),
		pool:        pool,
	}, nil
}

// Close stops background workers.
func (d *Dependencies) Close() {
	d.pool.Stop()
}

// initPreset loads the export preset from PRESET_FILE, or the default preset.
func initPreset(cfg *config.Config, logger *slog.Logger) (media.Preset, error) {
	if cfg.PresetFile == "" {
		return media.DefaultPreset(), nil
	}
	preset, err := media.LoadPreset(cfg.PresetFile)
	if err != nil {
		return media.Preset{}, fmt.Errorf("load preset: %w", err)
	}
	logger.Info("export preset loaded",
		slog.String("file", cfg.PresetFile),
		slog.String("name", preset.Name),
		slog.Int("max_width", preset.MaxWidth),
		slog.Int("max_height", preset.MaxHeight),
	)
	return preset, nil
}
