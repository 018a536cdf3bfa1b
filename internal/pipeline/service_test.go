package pipeline

import (
	"context"
	"errors"
	"net/url"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maauso/videosend/internal/asset"
	"github.com/maauso/videosend/internal/storage"
)

func TestService_Prepare(t *testing.T) {
	env := newTestEnv(t)
	env.expectExport(succeeding(0.5, 1))
	env.encoder.On("ExtractFrame", mock.Anything, mock.Anything, mock.Anything).Return(jpegFrame(t), nil)
	path := env.videoFile(t)

	p, err := env.svc.Prepare(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, path, p.Asset.Path())
	assert.NotNil(t, p.Thumbnail)
	assert.True(t, p.Item.SendAsFile)
	assert.FileExists(t, p.Item.Path)
}

func TestService_Prepare_ThumbnailFailureTolerated(t *testing.T) {
	env := newTestEnv(t)
	env.expectExport(succeeding(1))
	env.encoder.On("ExtractFrame", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("no frame"))
	path := env.videoFile(t)

	p, err := env.svc.Prepare(context.Background(), "file://"+path)
	require.NoError(t, err)

	assert.Nil(t, p.Thumbnail)
	assert.FileExists(t, p.Item.Path)
}

func TestService_Prepare_ValidationError(t *testing.T) {
	env := newTestEnv(t)

	p, err := env.svc.Prepare(context.Background(), "ftp://example.com/clip.mp4")

	assert.Nil(t, p)
	assert.ErrorIs(t, err, asset.ErrValidation)
	var verr *asset.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, asset.ReasonUnsupportedScheme, verr.Reason)
	env.encoder.AssertNotCalled(t, "NewExport", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, env.scratchFiles(t))
}

func TestService_Prepare_BuildError(t *testing.T) {
	env := newTestEnv(t)
	env.expectExport(failing(nil))
	env.encoder.On("ExtractFrame", mock.Anything, mock.Anything, mock.Anything).Return(jpegFrame(t), nil)
	path := env.videoFile(t)

	p, err := env.svc.Prepare(context.Background(), path)

	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrConversionFailed)
}

func TestService_Thumbnail(t *testing.T) {
	env := newTestEnv(t)
	env.encoder.On("ExtractFrame", mock.Anything, "/videos/clip.mov", mock.Anything).Return(jpegFrame(t), nil)

	img, err := env.svc.Thumbnail(context.Background(), testAsset())
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
}

type fetchFunc func(ctx context.Context, ref *url.URL, dst string) error

func (f fetchFunc) Fetch(ctx context.Context, ref *url.URL, dst string) error { return f(ctx, ref, dst) }

func TestService_Validate_RejectedDownloadRemoved(t *testing.T) {
	env := newTestEnv(t)
	resolver := asset.NewResolver(env.scratch, nil)
	resolver.Register(storage.SchemeS3, fetchFunc(func(_ context.Context, _ *url.URL, dst string) error {
		return os.WriteFile(dst, []byte("this is not a video"), 0600)
	}))
	svc := NewService(ServiceConfig{
		Resolver:  resolver,
		Validator: asset.NewValidator(env.prober, nil),
		Factory:   env.factory,
		Builder:   env.builder,
	})

	_, err := svc.Validate(context.Background(), "s3://bucket/clip.mp4")

	require.ErrorIs(t, err, asset.ErrValidation)
	assert.Empty(t, env.scratchFiles(t))
}

func TestService_Validate_AcceptedDownloadKept(t *testing.T) {
	env := newTestEnv(t)
	resolver := asset.NewResolver(env.scratch, nil)
	resolver.Register(storage.SchemeS3, fetchFunc(func(_ context.Context, _ *url.URL, dst string) error {
		env.prober.On("Probe", mock.Anything, dst).Return(exportableInfo(), nil)
		return os.WriteFile(dst, mp4Header, 0600)
	}))
	svc := NewService(ServiceConfig{
		Resolver:  resolver,
		Validator: asset.NewValidator(env.prober, nil),
		Factory:   env.factory,
		Builder:   env.builder,
	})

	a, err := svc.Validate(context.Background(), "s3://bucket/clip.mp4")

	require.NoError(t, err)
	assert.FileExists(t, a.Path())
	assert.Len(t, env.scratchFiles(t), 1)
}
