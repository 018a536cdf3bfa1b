package asset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maauso/videosend/internal/media"
)

// mp4Header is the smallest ftyp box mimetype recognizes as video/mp4.
var mp4Header = []byte("\x00\x00\x00\x18ftypisom\x00\x00\x02\x00isomiso2")

type mockProber struct {
	mock.Mock
}

func (m *mockProber) Probe(ctx context.Context, path string) (*media.ProbeResult, error) {
	args := m.Called(ctx, path)
	if r := args.Get(0); r != nil {
		return r.(*media.ProbeResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func exportableInfo() *media.ProbeResult {
	return &media.ProbeResult{
		FormatName: "mov,mp4,m4a,3gp,3g2,mj2",
		Duration:   3 * time.Second,
		Video:      &media.VideoStream{Codec: "h264", Width: 640, Height: 360},
		HasAudio:   true,
	}
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func assertReason(t *testing.T, err error, want Reason) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %T", err)
	assert.Equal(t, want, verr.Reason)
}

func TestValidator_Validate_Rejections(t *testing.T) {
	dir := t.TempDir()
	textFile := writeFile(t, "notes.txt", []byte("just some plain text, not a video"))

	tests := []struct {
		name string
		ref  string
		want Reason
	}{
		{"empty reference", "", ReasonMissingScheme},
		{"relative path", "videos/clip.mp4", ReasonMissingScheme},
		{"ftp scheme", "ftp://example.com/clip.mp4", ReasonUnsupportedScheme},
		{"https scheme", "https://example.com/clip.mp4", ReasonUnsupportedScheme},
		{"remote file host", "file://otherhost/clip.mp4", ReasonUnsupportedScheme},
		{"missing file", "file://" + filepath.Join(dir, "missing.mp4"), ReasonNotFound},
		{"missing bare path", filepath.Join(dir, "missing.mp4"), ReasonNotFound},
		{"directory", "file://" + dir, ReasonNotRegularFile},
		{"text content", "file://" + textFile, ReasonNotVideo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prober := new(mockProber)
			v := NewValidator(prober, nil)

			a, err := v.Validate(context.Background(), tt.ref)

			assert.Nil(t, a)
			assertReason(t, err, tt.want)
			prober.AssertNotCalled(t, "Probe", mock.Anything, mock.Anything)
		})
	}
}

func TestValidator_Validate_ProbeFailed(t *testing.T) {
	path := writeFile(t, "clip.mp4", mp4Header)
	probeErr := errors.New("moov atom not found")

	prober := new(mockProber)
	prober.On("Probe", mock.Anything, path).Return(nil, probeErr)

	_, err := NewValidator(prober, nil).Validate(context.Background(), "file://"+path)

	assertReason(t, err, ReasonProbeFailed)
	assert.ErrorIs(t, err, probeErr)
	prober.AssertExpectations(t)
}

func TestValidator_Validate_NotExportable(t *testing.T) {
	path := writeFile(t, "clip.mp4", mp4Header)

	tests := []struct {
		name string
		info *media.ProbeResult
	}{
		{"no video stream", &media.ProbeResult{Duration: time.Second, HasAudio: true}},
		{"zero duration", &media.ProbeResult{Video: &media.VideoStream{Codec: "h264"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prober := new(mockProber)
			prober.On("Probe", mock.Anything, path).Return(tt.info, nil)

			_, err := NewValidator(prober, nil).Validate(context.Background(), "file://"+path)
			assertReason(t, err, ReasonNotExportable)
		})
	}
}

func TestValidator_Validate_Success(t *testing.T) {
	path := writeFile(t, "clip.mp4", mp4Header)

	for _, ref := range []string{"file://" + path, path, "FILE://" + path} {
		t.Run(ref, func(t *testing.T) {
			prober := new(mockProber)
			prober.On("Probe", mock.Anything, path).Return(exportableInfo(), nil)

			a, err := NewValidator(prober, nil).Validate(context.Background(), ref)

			require.NoError(t, err)
			assert.Equal(t, path, a.Path())
			assert.Equal(t, ref, a.Reference())
			assert.Equal(t, 3*time.Second, a.Duration())
			assert.True(t, a.IsExportable())
		})
	}
}

func TestValidator_Validate_NoSideEffects(t *testing.T) {
	path := writeFile(t, "clip.mp4", mp4Header)
	before, err := os.Stat(path)
	require.NoError(t, err)

	prober := new(mockProber)
	prober.On("Probe", mock.Anything, path).Return(exportableInfo(), nil)

	_, err = NewValidator(prober, nil).Validate(context.Background(), path)
	require.NoError(t, err)

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
	assert.Equal(t, before.Size(), after.Size())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestValidator_Check(t *testing.T) {
	v := NewValidator(new(mockProber), nil)

	assert.NoError(t, v.Check(New("/videos/a.mp4", exportableInfo())))
	assertReason(t, v.Check(New("/videos/a.mp4", nil)), ReasonNotExportable)
	assertReason(t, v.Check(nil), ReasonNotExportable)
}

func TestNew(t *testing.T) {
	a := New("/videos/a b.mp4", nil)

	assert.Equal(t, "/videos/a b.mp4", a.Path())
	assert.Equal(t, "file:///videos/a%20b.mp4", a.Reference())
	assert.Zero(t, a.Duration())
	assert.False(t, a.IsExportable())
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Ref: "ftp://x/y", Reason: ReasonUnsupportedScheme}
	assert.Equal(t, `invalid asset "ftp://x/y": unsupported_scheme`, err.Error())

	wrapped := &ValidationError{Ref: "/a", Reason: ReasonNotFound, Err: os.ErrNotExist}
	assert.ErrorIs(t, wrapped, os.ErrNotExist)
	assert.Contains(t, wrapped.Error(), "not_found")
}
