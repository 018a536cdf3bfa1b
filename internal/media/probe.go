package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// ErrFFprobeExecution is returned when the ffprobe command fails.
var ErrFFprobeExecution = errors.New("ffprobe execution failed")

// Prober inspects a media file.
type Prober interface {
	// Probe returns container and stream information for the file at path.
	Probe(ctx context.Context, path string) (*ProbeResult, error)
}

// ProbeResult is the subset of ffprobe output the pipeline relies on.
type ProbeResult struct {
	FormatName string
	Duration   time.Duration
	Size       int64
	Video      *VideoStream
	HasAudio   bool
}

// VideoStream describes the primary video stream of a file.
type VideoStream struct {
	Codec  string
	Width  int
	Height int
}

// Exportable reports whether the file has a video stream with a positive duration.
func (r *ProbeResult) Exportable() bool {
	return r != nil && r.Video != nil && r.Duration > 0
}

// FFprobeProber implements Prober using the ffprobe CLI.
type FFprobeProber struct {
	// ffprobePath is the path to the ffprobe binary. Defaults to "ffprobe".
	ffprobePath string
}

// NewFFprobeProber creates a new FFprobeProber.
// If ffprobePath is empty, it defaults to "ffprobe" (found via PATH).
func NewFFprobeProber(ffprobePath string) *FFprobeProber {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFprobeProber{ffprobePath: ffprobePath}
}

// Probe runs a single ffprobe JSON call against path and returns the parsed result.
func (p *FFprobeProber) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: %w, stderr: %s", ErrFFprobeExecution, err, stderr.String())
	}

	return ParseProbeJSON(stdout.Bytes())
}

// ParseProbeJSON converts raw ffprobe JSON output into a ProbeResult.
// Exported for testing without a real ffprobe binary.
func ParseProbeJSON(data []byte) (*ProbeResult, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}

	res := &ProbeResult{
		FormatName: raw.Format.FormatName,
		Duration:   parseSeconds(raw.Format.Duration),
		Size:       parseInt64(raw.Format.Size),
	}

	for i := range raw.Streams {
		s := &raw.Streams[i]
		switch s.CodecType {
		case "video":
			// Cover art is reported as a video stream.
			if s.Disposition["attached_pic"] == 1 || res.Video != nil {
				continue
			}
			res.Video = &VideoStream{
				Codec:  s.CodecName,
				Width:  s.Width,
				Height: s.Height,
			}
			if res.Duration == 0 {
				res.Duration = parseSeconds(s.Duration)
			}
		case "audio":
			res.HasAudio = true
		}
	}

	return res, nil
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
}

type ffprobeStream struct {
	CodecName   string         `json:"codec_name"`
	CodecType   string         `json:"codec_type"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	Duration    string         `json:"duration"`
	Disposition map[string]int `json:"disposition"`
}

func parseSeconds(s string) time.Duration {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0
	}
	return time.Duration(v * float64(time.Second))
}

func parseInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
