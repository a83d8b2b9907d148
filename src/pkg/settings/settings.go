package settings

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	MinMaxImages = 1
	MaxMaxImages = 100
)

// Config holds the daemon configuration read from a yaml file.
// Missing fields keep their defaults.
type Config struct {
	// Port the HTTP server listens on.
	Port int `yaml:"port"`
	// Root directory holding the ledger and all item files side by side.
	Root string `yaml:"root"`
	// MaxImages is the rolling-window capacity (1-100).
	MaxImages int `yaml:"max_images"`
	// Width and Height of the canonical raster output.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	// MaxUploadBytes is the upload size limit, checked before decoding.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	// HistoryDB is the path of the sqlite history database.
	// Empty disables history recording.
	HistoryDB string `yaml:"history_db"`
}

func Default() Config {
	return Config{
		Port:           8099,
		Root:           "images",
		MaxImages:      25,
		Width:          3840,
		Height:         2160,
		MaxUploadBytes: 50 * 1024 * 1024,
	}
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if c.Root == "" {
		return fmt.Errorf("root directory is not set")
	}
	if c.MaxImages < MinMaxImages || c.MaxImages > MaxMaxImages {
		return fmt.Errorf("max_images out of range [%d, %d]: %d", MinMaxImages, MaxMaxImages, c.MaxImages)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid target resolution: %dx%d", c.Width, c.Height)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive: %d", c.MaxUploadBytes)
	}
	return nil
}

// Load reads the yaml config at path, merged over the defaults.
func Load(path string) (_ Config, retErr error) {
	file, openErr := os.Open(path)
	if openErr != nil {
		return Config{}, fmt.Errorf("failed to open config: %w", openErr)
	}

	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			if retErr == nil {
				retErr = closeErr
			} else {
				retErr = errors.Join(retErr, closeErr)
			}
		}
	}()

	contents, readErr := io.ReadAll(file)
	if readErr != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", readErr)
	}

	config := Default()
	if unmarshalErr := yaml.Unmarshal(contents, &config); unmarshalErr != nil {
		return Config{}, fmt.Errorf("wrong config file format: %w", unmarshalErr)
	}

	if validateErr := config.Validate(); validateErr != nil {
		return Config{}, validateErr
	}

	return config, nil
}
