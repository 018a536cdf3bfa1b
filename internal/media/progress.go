package media

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
)

// ParseProgress reads ffmpeg "-progress" key=value blocks from r and invokes fn
// once per block. total is the source duration used to compute Fraction; when
// it is zero Fraction stays 0 until the final block.
// It returns when r is exhausted. Input the scanner cannot handle, such as an
// overlong line, is discarded so the writer never blocks on a full pipe.
func ParseProgress(r io.Reader, total time.Duration, fn func(Progress)) {
	defer func() { _, _ = io.Copy(io.Discard, r) }()

	scanner := bufio.NewScanner(r)
	var current Progress

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)

		switch key {
		case "out_time_us", "out_time_ms":
			// out_time_ms is also reported in microseconds by ffmpeg.
			if v, err := strconv.ParseInt(val, 10, 64); err == nil && v >= 0 {
				current.OutTime = time.Duration(v) * time.Microsecond
			}
		case "total_size":
			if v, err := strconv.ParseInt(val, 10, 64); err == nil {
				current.TotalSize = v
			}
		case "speed":
			current.Speed = val
		case "progress":
			// End of a report block
			switch val {
			case "continue":
				current.Fraction = fraction(current.OutTime, total)
			case "end":
				current.Fraction = 1
			default:
				continue
			}
			if fn != nil {
				fn(current)
			}
		}
	}
}

// fraction returns done/total clamped to [0, 1].
func fraction(done, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	f := float64(done) / float64(total)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
