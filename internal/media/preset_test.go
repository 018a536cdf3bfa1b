package media

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPreset_Valid(t *testing.T) {
	require.NoError(t, DefaultPreset().Validate())
}

func TestPreset_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Preset)
	}{
		{"missing name", func(p *Preset) { p.Name = "" }},
		{"width too small", func(p *Preset) { p.MaxWidth = 8 }},
		{"height too large", func(p *Preset) { p.MaxHeight = 10000 }},
		{"unsupported video codec", func(p *Preset) { p.VideoCodec = "mpeg2video" }},
		{"malformed video bitrate", func(p *Preset) { p.VideoBitrate = "fast" }},
		{"zero audio bitrate", func(p *Preset) { p.AudioBitrate = "0k" }},
		{"unknown encoder preset", func(p *Preset) { p.EncoderPreset = "ludicrous" }},
		{"negative frame rate", func(p *Preset) { p.FrameRate = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPreset()
			tt.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestLoadPreset(t *testing.T) {
	dir := t.TempDir()

	t.Run("overlays defaults", func(t *testing.T) {
		path := filepath.Join(dir, "preset.yaml")
		content := "name: small\nmax_width: 640\nmax_height: 640\nvideo_bitrate: 800k\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))

		p, err := LoadPreset(path)
		require.NoError(t, err)
		assert.Equal(t, "small", p.Name)
		assert.Equal(t, 640, p.MaxWidth)
		assert.Equal(t, 640, p.MaxHeight)
		assert.Equal(t, "800k", p.VideoBitrate)
		assert.Equal(t, "libx264", p.VideoCodec)
		assert.Equal(t, "128k", p.AudioBitrate)
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("video_codec: vp9\n"), 0600))

		_, err := LoadPreset(path)
		require.Error(t, err)
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		path := filepath.Join(dir, "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("max_width: [1, 2\n"), 0600))

		_, err := LoadPreset(path)
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPreset(filepath.Join(dir, "absent.yaml"))
		require.Error(t, err)
	})
}
