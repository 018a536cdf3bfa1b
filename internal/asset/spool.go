package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	"github.com/maauso/videosend/internal/storage"
)

// ErrNotVideoData is returned when in-memory data is not a video container.
var ErrNotVideoData = errors.New("data is not a video")

// Spool writes in-memory video data to a fresh .mp4 file in the scratch
// directory and returns its path.
func Spool(ctx context.Context, scratch storage.Scratch, data []byte) (string, error) {
	mt := mimetype.Detect(data)
	if !isVideo(mt) {
		return "", fmt.Errorf("%w: detected %s", ErrNotVideoData, mt.String())
	}
	return scratch.WriteTemp(ctx, bytes.NewReader(data), "mp4")
}
