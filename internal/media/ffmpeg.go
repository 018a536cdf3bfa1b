package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// Static errors for media operations.
var (
	// ErrNoVideoStream is returned when the input has no usable video stream.
	ErrNoVideoStream = errors.New("input has no video stream")
	// ErrOutputNotWritable is returned when the export output directory cannot be written.
	ErrOutputNotWritable = errors.New("output location is not writable")
	// ErrNoFrame is returned when ffmpeg produced no frame data.
	ErrNoFrame = errors.New("no frame extracted")
	// ErrInvalidOffset is returned when a frame offset is negative.
	ErrInvalidOffset = errors.New("invalid offset: must not be negative")
)

// Compile-time check that FFmpegEncoder implements Encoder.
var _ Encoder = (*FFmpegEncoder)(nil)

// FFmpegEncoder implements Encoder using the ffmpeg CLI.
type FFmpegEncoder struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	prober     Prober
}

// NewFFmpegEncoder creates a new FFmpegEncoder.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
// If prober is nil, an FFprobeProber using PATH is used.
func NewFFmpegEncoder(ffmpegPath string, prober Prober) *FFmpegEncoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if prober == nil {
		prober = NewFFprobeProber("")
	}
	return &FFmpegEncoder{ffmpegPath: ffmpegPath, prober: prober}
}

// NewExport probes input, checks that output can be written and returns an
// export configured for preset. Nothing is encoded until Run.
func (e *FFmpegEncoder) NewExport(ctx context.Context, input, output string, preset Preset) (Export, error) {
	if err := preset.Validate(); err != nil {
		return nil, err
	}

	info, err := e.prober.Probe(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("probe input: %w", err)
	}
	if info.Video == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoVideoStream, input)
	}

	if err := checkWritable(filepath.Dir(output)); err != nil {
		return nil, err
	}

	return &ffmpegExport{
		ffmpegPath: e.ffmpegPath,
		output:     output,
		duration:   info.Duration,
		args:       exportArgs(input, output, preset),
	}, nil
}

// exportArgs builds the ffmpeg arguments for a normalized MP4 export.
func exportArgs(input, output string, preset Preset) []string {
	// Fit within the preset bounds without upscaling; libx264 needs even sizes.
	filter := fmt.Sprintf(
		"scale=w='min(%d,iw)':h='min(%d,ih)':force_original_aspect_ratio=decrease:force_divisible_by=2",
		preset.MaxWidth, preset.MaxHeight,
	)

	args := []string{
		"-y",       // Overwrite output file without asking
		"-nostdin", // Never wait for console input
		"-hide_banner",
		"-i", input, // Input file
		"-vf", filter, // Video filter
		"-c:v", preset.VideoCodec, // Video codec
		"-b:v", preset.VideoBitrate, // Video bitrate
		"-pix_fmt", "yuv420p", // Pixel format for compatibility
	}
	if preset.EncoderPreset != "" {
		args = append(args, "-preset", preset.EncoderPreset)
	}
	if preset.FrameRate > 0 {
		args = append(args, "-r", strconv.Itoa(preset.FrameRate))
	}
	args = append(args,
		"-c:a", preset.AudioCodec, // Audio codec
		"-b:a", preset.AudioBitrate, // Audio bitrate
		"-movflags", "+faststart", // Moov atom first for progressive playback
		"-f", "mp4",
		"-progress", "pipe:1", // Machine-readable progress on stdout
		"-nostats",
		output,
	)
	return args
}

// checkWritable verifies that files can be created in dir.
func checkWritable(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutputNotWritable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrOutputNotWritable, dir)
	}

	f, err := os.CreateTemp(dir, ".writable-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutputNotWritable, err)
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return nil
}

// ffmpegExport is a single configured ffmpeg invocation.
type ffmpegExport struct {
	ffmpegPath string
	output     string
	duration   time.Duration
	args       []string
}

// OutputPath returns the path the export writes to.
func (x *ffmpegExport) OutputPath() string {
	return x.output
}

// Run starts ffmpeg, forwards progress blocks to onProgress and waits for exit.
// Stdout is drained before Wait so every progress report precedes the outcome.
func (x *ffmpegExport) Run(ctx context.Context, onProgress func(Progress)) Outcome {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, x.ffmpegPath, x.args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Outcome{Status: ExportFailed, Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		if ctx.Err() != nil {
			return Outcome{Status: ExportCancelled, Err: fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())}
		}
		return Outcome{Status: ExportFailed, Err: fmt.Errorf("start ffmpeg: %w", err)}
	}

	ParseProgress(stdout, x.duration, onProgress)

	err = cmd.Wait()
	if ctx.Err() != nil {
		return Outcome{Status: ExportCancelled, Err: fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())}
	}
	if err != nil {
		return Outcome{Status: ExportFailed, Err: &FFmpegError{
			Args:   x.args,
			Stderr: stderr.String(),
			Err:    err,
		}}
	}

	// ffmpeg can exit cleanly without writing anything, e.g. for empty inputs.
	if info, statErr := os.Stat(x.output); statErr != nil || info.Size() == 0 {
		return Outcome{Status: ExportCompleted}
	}

	return Outcome{Status: ExportCompleted, OutputPath: x.output}
}

// ExtractFrame grabs one frame at offset at and returns it as JPEG data.
func (e *FFmpegEncoder) ExtractFrame(ctx context.Context, input string, at time.Duration) ([]byte, error) {
	if at < 0 {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidOffset, at)
	}

	args := []string{
		"-nostdin",
		"-hide_banner",
		"-ss", fmt.Sprintf("%.3f", at.Seconds()), // Seek before input for speed
		"-i", input, // Input file
		"-frames:v", "1", // Output single frame (image)
		"-f", "image2pipe",
		"-c:v", "mjpeg",
		"-q:v", "3",
		"pipe:1",
	}

	out, err := e.runFFmpeg(ctx, args)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s at %s", ErrNoFrame, input, at)
	}
	return out, nil
}

// runFFmpeg executes ffmpeg with the given arguments and returns stdout, or an
// error containing stderr output if the command fails.
func (e *FFmpegEncoder) runFFmpeg(ctx context.Context, args []string) ([]byte, error) {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// Check if context was cancelled
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return nil, &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return stdout.Bytes(), nil
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}
