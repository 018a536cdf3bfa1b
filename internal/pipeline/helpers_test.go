package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maauso/videosend/internal/asset"
	"github.com/maauso/videosend/internal/conversion"
	"github.com/maauso/videosend/internal/media"
	"github.com/maauso/videosend/internal/storage"
)

// mp4Header is the smallest ftyp box recognized as video/mp4.
var mp4Header = []byte("\x00\x00\x00\x18ftypisom\x00\x00\x02\x00isomiso2")

// exportFunc lets a mocked NewExport build its Export from the allocated output path.
type exportFunc func(output string) media.Export

type mockEncoder struct {
	mock.Mock
}

func (m *mockEncoder) NewExport(ctx context.Context, input, output string, preset media.Preset) (media.Export, error) {
	args := m.Called(ctx, input, output, preset)
	switch v := args.Get(0).(type) {
	case exportFunc:
		return v(output), args.Error(1)
	case media.Export:
		return v, args.Error(1)
	default:
		return nil, args.Error(1)
	}
}

func (m *mockEncoder) ExtractFrame(ctx context.Context, input string, at time.Duration) ([]byte, error) {
	args := m.Called(ctx, input, at)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

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

// fakeExport replays progress fractions and finishes with a scripted outcome.
type fakeExport struct {
	output   string
	progress []float64
	status   media.ExportStatus
	err      error
	// write creates a non-empty output file before finishing.
	write bool
	// noPath reports completion without an output path.
	noPath bool
	// block waits for ctx cancellation after replaying progress.
	block bool
}

func (e *fakeExport) OutputPath() string { return e.output }

func (e *fakeExport) Run(ctx context.Context, onProgress func(media.Progress)) media.Outcome {
	for _, f := range e.progress {
		onProgress(media.Progress{Fraction: f})
	}
	if e.block {
		<-ctx.Done()
		return media.Outcome{Status: media.ExportCancelled, Err: ctx.Err()}
	}
	if e.write {
		_ = os.WriteFile(e.output, []byte("encoded video"), 0600)
	}
	out := media.Outcome{Status: e.status, Err: e.err}
	if e.status == media.ExportCompleted && !e.noPath {
		out.OutputPath = e.output
	}
	return out
}

func succeeding(progress ...float64) exportFunc {
	return func(output string) media.Export {
		return &fakeExport{output: output, progress: progress, status: media.ExportCompleted, write: true}
	}
}

func failing(err error) exportFunc {
	return func(output string) media.Export {
		return &fakeExport{output: output, progress: []float64{0.2}, status: media.ExportFailed, err: err, write: true}
	}
}

func exportableInfo() *media.ProbeResult {
	return &media.ProbeResult{
		FormatName: "mov,mp4,m4a,3gp,3g2,mj2",
		Duration:   4 * time.Second,
		Video:      &media.VideoStream{Codec: "h264", Width: 1920, Height: 1080},
		HasAudio:   true,
	}
}

func testAsset() *asset.Asset {
	return asset.New("/videos/clip.mov", exportableInfo())
}

func jpegFrame(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 18))
	for x := 0; x < 32; x++ {
		img.Set(x, x%18, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

// testEnv wires the pipeline against a mocked encoder and prober.
type testEnv struct {
	scratch    *storage.LocalScratch
	encoder    *mockEncoder
	prober     *mockProber
	repo       *conversion.MemoryRepository
	records    *conversion.Service
	factory    *SessionFactory
	converter  *Converter
	builder    *Builder
	thumbnails *ThumbnailExtractor
	svc        *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	e := &testEnv{
		scratch: storage.NewLocalScratch(t.TempDir(), ""),
		encoder: new(mockEncoder),
		prober:  new(mockProber),
		repo:    conversion.NewMemoryRepository(),
	}
	e.records = conversion.NewService(e.repo, nil)
	e.factory = NewSessionFactory(e.encoder, e.scratch, media.DefaultPreset(), nil)
	e.converter = NewConverter(e.factory, e.records, nil)
	e.builder = NewBuilder(e.converter, nil)
	e.thumbnails = NewThumbnailExtractor(e.encoder, nil)
	e.svc = NewService(ServiceConfig{
		Resolver:   asset.NewResolver(e.scratch, nil),
		Validator:  asset.NewValidator(e.prober, nil),
		Thumbnails: e.thumbnails,
		Factory:    e.factory,
		Builder:    e.builder,
	})
	return e
}

func (e *testEnv) expectExport(fn exportFunc) {
	e.encoder.On("NewExport", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(fn, nil)
}

// videoFile writes a file the validator accepts and registers its probe result.
func (e *testEnv) videoFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, mp4Header, 0600))
	e.prober.On("Probe", mock.Anything, path).Return(exportableInfo(), nil)
	return path
}

// scratchFiles lists the files currently in the scratch directory.
func (e *testEnv) scratchFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(e.scratch.Dir())
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}
