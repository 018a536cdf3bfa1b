package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/maauso/videosend/internal/asset"
	"github.com/maauso/videosend/internal/conversion"
	"github.com/maauso/videosend/internal/media"
	"github.com/maauso/videosend/internal/session"
)

// ConvertOption configures a single conversion.
type ConvertOption func(*convertOptions)

type convertOptions struct {
	listener Listener
	record   *conversion.Conversion
}

// WithListener attaches l to the conversion's progress monitor.
func WithListener(l Listener) ConvertOption {
	return func(o *convertOptions) { o.listener = l }
}

// WithConversion mirrors state changes and progress onto c.
func WithConversion(c *conversion.Conversion) ConvertOption {
	return func(o *convertOptions) { o.record = c }
}

func applyOptions(opts []ConvertOption) convertOptions {
	var o convertOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Converter drives one encode per call from session creation to a terminal
// state. Failed attempts are not retried and partial output is left in place.
type Converter struct {
	factory *SessionFactory
	records *conversion.Service
	logger  *slog.Logger
}

// NewConverter creates a Converter. records may be nil, in which case
// conversion records passed with WithConversion are updated but not persisted.
func NewConverter(factory *SessionFactory, records *conversion.Service, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{
		factory: factory,
		records: records,
		logger:  logger,
	}
}

// Convert creates a session for a and encodes it. It returns the path of the
// encoded file inside the scratch directory.
func (c *Converter) Convert(ctx context.Context, a *asset.Asset, opts ...ConvertOption) (string, error) {
	o := applyOptions(opts)
	c.track(ctx, o.record, (*conversion.Conversion).RequestSession)

	s, err := c.factory.Create(ctx, a)
	if err != nil {
		if ctx.Err() != nil {
			c.track(ctx, o.record, (*conversion.Conversion).Cancel)
			return "", conversionError(KindCancelled, ctx.Err())
		}
		c.track(ctx, o.record, func(r *conversion.Conversion) error { return r.Fail(err.Error()) })
		c.logger.Error("export session creation failed",
			slog.String("asset", a.Reference()),
			slog.String("error", err.Error()),
		)
		return "", conversionError(KindSessionCreation, err)
	}

	return c.run(ctx, s, o)
}

// ConvertSession encodes an existing session that is still in CREATED state.
func (c *Converter) ConvertSession(ctx context.Context, s *session.Session, opts ...ConvertOption) (string, error) {
	o := applyOptions(opts)
	c.track(ctx, o.record, (*conversion.Conversion).RequestSession)
	return c.run(ctx, s, o)
}

func (c *Converter) run(ctx context.Context, s *session.Session, o convertOptions) (string, error) {
	log := c.logger.With(slog.String("session_id", s.ID()))

	if err := s.Start(); err != nil {
		c.track(ctx, o.record, func(r *conversion.Conversion) error { return r.Fail(err.Error()) })
		return "", conversionError(KindGeneral, err)
	}
	c.track(ctx, o.record, func(r *conversion.Conversion) error { return r.StartExporting(s.ID()) })
	log.Info("export started",
		slog.String("asset", s.AssetPath()),
		slog.String("output", s.OutputPath()),
	)

	mon := NewMonitor(s)
	if o.listener != nil {
		mon.Attach(o.listener)
	}

	out := s.Export().Run(ctx, func(p media.Progress) {
		mon.Update(p)
		if o.record != nil {
			c.trackProgress(ctx, o.record, s.Progress())
		}
	})

	path, err := c.finish(s, out)
	mon.Detach()

	switch {
	case err == nil:
		c.track(ctx, o.record, func(r *conversion.Conversion) error { return r.Succeed(path) })
		log.Info("export completed", slog.String("output", path))
	case errors.Is(err, ErrConversionCancelled):
		c.track(ctx, o.record, (*conversion.Conversion).Cancel)
		log.Warn("export cancelled")
	default:
		c.track(ctx, o.record, func(r *conversion.Conversion) error { return r.Fail(err.Error()) })
		log.Error("export failed", slog.String("error", err.Error()))
	}
	return path, err
}

// finish moves s into the terminal state matching out.
func (c *Converter) finish(s *session.Session, out media.Outcome) (string, error) {
	switch out.Status {
	case media.ExportCompleted:
		if out.OutputPath == "" {
			_ = s.Fail(nil)
			return "", conversionError(KindGeneral, nil)
		}
		_ = s.Complete()
		return out.OutputPath, nil
	case media.ExportCancelled:
		_ = s.Cancel()
		return "", conversionError(KindCancelled, out.Err)
	default:
		_ = s.Fail(out.Err)
		if out.Err == nil {
			return "", conversionError(KindGeneral, nil)
		}
		return "", conversionError(KindUnderlying, out.Err)
	}
}

// track applies a state change to the conversion record, if any, and persists it.
func (c *Converter) track(ctx context.Context, r *conversion.Conversion, change func(*conversion.Conversion) error) {
	if r == nil {
		return
	}
	if err := change(r); err != nil {
		c.logger.Warn("conversion record not updated",
			slog.String("conversion_id", r.ID),
			slog.String("state", string(r.GetState())),
			slog.String("error", err.Error()),
		)
		return
	}
	c.persist(ctx, r)
}

// trackProgress persists progress only when the whole percentage moves.
func (c *Converter) trackProgress(ctx context.Context, r *conversion.Conversion, fraction float64) {
	if r.UpdateProgress(int(fraction * 100)) {
		c.persist(ctx, r)
	}
}

func (c *Converter) persist(ctx context.Context, r *conversion.Conversion) {
	if c.records == nil {
		return
	}
	// Terminal states must be recorded even when ctx was cancelled.
	_ = c.records.Record(context.WithoutCancel(ctx), r)
}
