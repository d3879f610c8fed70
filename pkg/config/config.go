// Package config loads kiln.toml, the optional per-project settings file.
// Command-line flags override what it sets.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
)

// FileName is the settings file looked up next to the render script.
const FileName = "kiln.toml"

// Backend names.
const (
	BackendRaster  = "raster"
	BackendBlender = "blender"
)

// Config is the effective kiln configuration.
type Config struct {
	// Backend selects the host: "raster" or "blender".
	Backend string `toml:"backend"`
	// DisableImporter forces the fallback OBJ parser.
	DisableImporter bool `toml:"disable_importer"`
	// LogLevel is a charmbracelet/log level name.
	LogLevel string `toml:"log_level"`
	// Timeout bounds a whole run, as a Go duration string. Empty means none.
	Timeout string `toml:"timeout"`
	// OutputDir, when set, replaces the script directory as the base for
	// relative paths.
	OutputDir string `toml:"output_dir,omitempty"`

	Raster  RasterConfig  `toml:"raster"`
	Blender BlenderConfig `toml:"blender"`
	Watch   WatchConfig   `toml:"watch"`
}

// RasterConfig tunes the software rasterizer.
type RasterConfig struct {
	MaxSupersample int     `toml:"max_supersample"`
	SmoothAngle    float64 `toml:"smooth_angle"`
}

// BlenderConfig locates and runs Blender.
type BlenderConfig struct {
	Binary string   `toml:"binary"`
	Args   []string `toml:"args,omitempty"`
	Stream bool     `toml:"stream"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	// Debounce is the quiet period before a re-run, as a duration string.
	Debounce string `toml:"debounce"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend:  BackendRaster,
		LogLevel: "info",
		Raster: RasterConfig{
			MaxSupersample: 4,
			SmoothAngle:    30,
		},
		Blender: BlenderConfig{
			Binary: "blender",
		},
		Watch: WatchConfig{
			Debounce: "250ms",
		},
	}
}

// Load reads path over the defaults. Keys not present in the file keep
// their default values; unknown keys are an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) {
			return nil, fmt.Errorf("config: %s: unknown keys:\n%s", path, serr.String())
		}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("config: %s:%d:%d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Find loads FileName from dir, or returns the defaults when dir has none.
// The second result is the path that was loaded, if any.
func Find(dir string) (*Config, string, error) {
	path := filepath.Join(dir, FileName)
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendRaster, BackendBlender:
	default:
		return fmt.Errorf("unknown backend %q, want %q or %q", c.Backend, BackendRaster, BackendBlender)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.DebounceDuration(); err != nil {
		return err
	}
	if c.Raster.MaxSupersample < 0 {
		return fmt.Errorf("raster.max_supersample must not be negative")
	}
	if c.Raster.SmoothAngle < 0 || c.Raster.SmoothAngle > 180 {
		return fmt.Errorf("raster.smooth_angle must be in [0, 180]")
	}
	return nil
}

// TimeoutDuration parses Timeout. Empty means zero.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	return parseDuration("timeout", c.Timeout)
}

// DebounceDuration parses Watch.Debounce. Empty means zero.
func (c *Config) DebounceDuration() (time.Duration, error) {
	return parseDuration("watch.debounce", c.Watch.Debounce)
}

func parseDuration(key, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

// Marshal renders c as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
