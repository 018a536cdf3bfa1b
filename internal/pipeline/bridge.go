package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maauso/videosend/internal/asset"
	"github.com/maauso/videosend/internal/session"
)

// ErrSessionMismatch is returned when a session was not created for the given asset.
var ErrSessionMismatch = errors.New("session does not belong to asset")

// Bridge offers blocking entry points for callers that cannot consume
// Futures. Work runs on a dedicated WorkerPool while the caller waits.
// Failures are logged and reported as a nil result.
type Bridge struct {
	pool   *WorkerPool
	svc    *Service
	logger *slog.Logger
}

// NewBridge creates a Bridge that runs svc operations on pool.
// The pool must be started by the caller.
func NewBridge(pool *WorkerPool, svc *Service, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{pool: pool, svc: svc, logger: logger}
}

// SenderItem converts a and returns the item, or nil on any failure.
func (b *Bridge) SenderItem(ctx context.Context, a *asset.Asset) *SenderItem {
	item, err := b.SenderItemWithError(ctx, a)
	if err != nil {
		b.logFailure("sender item", a.Reference(), err)
		return nil
	}
	return item
}

// SenderItemWithError is SenderItem with the failure returned to the caller.
func (b *Bridge) SenderItemWithError(ctx context.Context, a *asset.Asset) (*SenderItem, error) {
	item, err := await(ctx, b, func(wctx context.Context) (SenderItem, error) {
		return b.svc.Build(wctx, a)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SenderItemFromURL validates ref and converts it. Rejected references,
// like every other failure, yield nil.
func (b *Bridge) SenderItemFromURL(ctx context.Context, ref string) *SenderItem {
	item, err := await(ctx, b, func(wctx context.Context) (SenderItem, error) {
		a, err := b.svc.Validate(wctx, ref)
		if err != nil {
			return SenderItem{}, err
		}
		return b.svc.Build(wctx, a)
	})
	if err != nil {
		b.logFailure("sender item from url", ref, err)
		return nil
	}
	return &item
}

// ExportSession creates an encoder session for a without starting it.
func (b *Bridge) ExportSession(ctx context.Context, a *asset.Asset) *session.Session {
	s, err := await(ctx, b, func(wctx context.Context) (*session.Session, error) {
		return b.svc.factory.Create(wctx, a)
	})
	if err != nil {
		b.logFailure("export session", a.Reference(), err)
		return nil
	}
	return s
}

// SenderItemOnSession encodes a session previously returned by
// ExportSession for a and wraps the result.
func (b *Bridge) SenderItemOnSession(ctx context.Context, a *asset.Asset, s *session.Session) *SenderItem {
	item, err := await(ctx, b, func(wctx context.Context) (SenderItem, error) {
		if s.AssetPath() != a.Path() {
			return SenderItem{}, fmt.Errorf("%w: session %s is for %s", ErrSessionMismatch, s.ID(), s.AssetPath())
		}
		return b.svc.builder.BuildSession(wctx, s)
	})
	if err != nil {
		b.logFailure("sender item on session", a.Reference(), err)
		return nil
	}
	return &item
}

func (b *Bridge) logFailure(op, ref string, err error) {
	b.logger.Error("blocking pipeline call failed",
		slog.String("op", op),
		slog.String("ref", ref),
		slog.String("error", err.Error()),
	)
}

// await hands fn to the bridge pool and blocks until it returns or ctx is
// done. A worker only starts fn on its own goroutine and moves on, so no
// worker is held for the duration of a conversion and a bridge call made
// from inside fn (a progress listener, say) always finds a free worker.
// Work submitted to the pool directly is not dispatched this way; a bridge
// call from such work runs outside the pool.
func await[T any](ctx context.Context, b *Bridge, fn func(context.Context) (T, error)) (T, error) {
	started := make(chan *Future[T], 1)
	start := func() {
		started <- Go(func() (T, error) { return fn(ctx) })
	}

	var zero T
	if b.pool.InWorker(ctx) {
		b.logger.Warn("blocking pipeline call made from a bridge worker, running outside the pool")
		start()
	} else if err := b.pool.Submit(ctx, func(context.Context) { start() }); err != nil {
		return zero, err
	}

	select {
	case f := <-started:
		return f.Await(ctx)
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
