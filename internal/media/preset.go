package media

import (
	"fmt"
	"os"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Preset describes the normalized output an export produces.
type Preset struct {
	Name          string `yaml:"name" validate:"required"`
	MaxWidth      int    `yaml:"max_width" validate:"required,min=16,max=7680"`
	MaxHeight     int    `yaml:"max_height" validate:"required,min=16,max=7680"`
	FrameRate     int    `yaml:"frame_rate" validate:"min=0,max=120"` // 0 keeps the source rate
	VideoCodec    string `yaml:"video_codec" validate:"required,oneof=libx264 libx265"`
	VideoBitrate  string `yaml:"video_bitrate" validate:"required,bitrate"`
	EncoderPreset string `yaml:"encoder_preset" validate:"omitempty,oneof=ultrafast superfast veryfast faster fast medium slow slower veryslow"`
	AudioCodec    string `yaml:"audio_codec" validate:"required,oneof=aac"`
	AudioBitrate  string `yaml:"audio_bitrate" validate:"required,bitrate"`
}

// DefaultPreset returns the preset used when no preset file is configured.
func DefaultPreset() Preset {
	return Preset{
		Name:          "default",
		MaxWidth:      1280,
		MaxHeight:     1280,
		FrameRate:     30,
		VideoCodec:    "libx264",
		VideoBitrate:  "1500k",
		EncoderPreset: "fast",
		AudioCodec:    "aac",
		AudioBitrate:  "128k",
	}
}

var bitrateRe = regexp.MustCompile(`^[1-9][0-9]*[kKmM]?$`)

var (
	presetValidator     *validator.Validate
	presetValidatorOnce sync.Once
)

func getPresetValidator() *validator.Validate {
	presetValidatorOnce.Do(func() {
		v := validator.New()
		_ = v.RegisterValidation("bitrate", func(fl validator.FieldLevel) bool {
			return bitrateRe.MatchString(fl.Field().String())
		})
		presetValidator = v
	})
	return presetValidator
}

// Validate checks that all preset fields are usable by the encoder.
func (p Preset) Validate() error {
	if err := getPresetValidator().Struct(p); err != nil {
		return fmt.Errorf("invalid preset %q: %w", p.Name, err)
	}
	return nil
}

// LoadPreset reads a YAML preset file. Fields absent from the file keep the
// values from DefaultPreset.
func LoadPreset(path string) (Preset, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from configuration
	if err != nil {
		return Preset{}, fmt.Errorf("read preset file: %w", err)
	}

	preset := DefaultPreset()
	if err := yaml.Unmarshal(data, &preset); err != nil {
		return Preset{}, fmt.Errorf("parse preset file: %w", err)
	}
	if err := preset.Validate(); err != nil {
		return Preset{}, err
	}
	return preset, nil
}
