package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	// RemoteProviderConfig describes a remote asset search service (stock
	// images, stickers) and the pacing of its panel.
	RemoteProviderConfig struct {
		Endpoint     string       `yaml:"endpoint" validate:"required,url"`
		APIKey       SecretString `yaml:"api_key"`
		Limit        int          `yaml:"limit" validate:"min=1,max=200"`
		DebounceMS   int          `yaml:"debounce_ms" validate:"min=0,max=5000"`
		MinDwellMS   int          `yaml:"min_dwell_ms" validate:"min=0,max=5000"`
		DefaultQuery string       `yaml:"default_query" validate:"required"`
		MinQueryLen  int          `yaml:"min_query_len" validate:"min=0"`
		RatePerSec   float64      `yaml:"rate_per_sec" validate:"gte=0"`
	}

	// EmojiProviderConfig paces the bundled emoji dataset panel.
	EmojiProviderConfig struct {
		DebounceMS int `yaml:"debounce_ms" validate:"min=0,max=5000"`
		Limit      int `yaml:"limit" validate:"min=1,max=1000"`
	}

	// ShapesProviderConfig controls the bundled shape dataset panel. Shape
	// search filters locally and is not debounced.
	ShapesProviderConfig struct {
		RasterSize int `yaml:"raster_size" validate:"min=16,max=1024"`
		Limit      int `yaml:"limit" validate:"min=1,max=1000"`
	}

	ProvidersConfig struct {
		Images   RemoteProviderConfig `yaml:"images"`
		Stickers RemoteProviderConfig `yaml:"stickers"`
		Emoji    EmojiProviderConfig  `yaml:"emoji"`
		Shapes   ShapesProviderConfig `yaml:"shapes"`
	}

	// ResizeConfig bounds interactive embed resizing.
	ResizeConfig struct {
		MinWidth  int `yaml:"min_width" validate:"min=1"`
		MinHeight int `yaml:"min_height" validate:"min=1"`
		MaxWidth  int `yaml:"max_width" validate:"gtefield=MinWidth"`
		MaxHeight int `yaml:"max_height" validate:"gtefield=MinHeight"`
	}

	// UploadsConfig controls the local upload provider. When WatchDir is set
	// image files appearing in that directory are ingested automatically.
	UploadsConfig struct {
		WatchDir string `yaml:"watch_dir,omitempty" sanitize:"path_clean" validate:"omitempty,dirpath"`
		MaxBytes int64  `yaml:"max_bytes" validate:"min=1024"`
	}

	EditorConfig struct {
		Placeholder string `yaml:"placeholder"`
		DefaultTab  string `yaml:"default_tab" validate:"oneof=images sticker emoji design upload"`
	}

	Config struct {
		Version   int             `yaml:"version" validate:"eq=1"`
		Editor    EditorConfig    `yaml:"editor"`
		Providers ProvidersConfig `yaml:"providers"`
		Resize    ResizeConfig    `yaml:"resize"`
		Uploads   UploadsConfig   `yaml:"uploads"`
		Logging   LoggingConfig   `yaml:"logging"`
		Reporting ReporterConfig  `yaml:"reporting"`
	}
)

func (c *RemoteProviderConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

func (c *RemoteProviderConfig) MinDwell() time.Duration {
	return time.Duration(c.MinDwellMS) * time.Millisecond
}

func (c *EmojiProviderConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
