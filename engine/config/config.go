// Package config loads the YAML manifest that configures the window, renderer, loader, engine and scene.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultManifest []byte

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the full manifest.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Renderer RendererConfig `yaml:"renderer"`
	Loader   LoaderConfig   `yaml:"loader"`
	Engine   EngineConfig   `yaml:"engine"`
	Meshes   []MeshConfig   `yaml:"meshes"`
}

// WindowConfig configures the desktop window.
type WindowConfig struct {
	Title       string `yaml:"title"`
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	Transparent bool   `yaml:"transparent"`
}

// RendererConfig configures the GPU backend.
type RendererConfig struct {
	// PresentMode is "vsync" or "uncapped".
	PresentMode   string     `yaml:"present_mode"`
	MSAA          uint32     `yaml:"msaa"`
	ClearColor    [4]float64 `yaml:"clear_color"`
	ForceSoftware bool       `yaml:"force_software"`
}

// LoaderConfig configures the texture decode worker pool.
type LoaderConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

// EngineConfig configures the frame loop.
type EngineConfig struct {
	// FrameLimit caps frames per second. 0 leaves the loop uncapped.
	FrameLimit float64 `yaml:"frame_limit"`
	// MaxFrames stops the loop after this many frames. 0 runs until the window closes.
	MaxFrames uint64 `yaml:"max_frames"`
	Profiling bool   `yaml:"profiling"`
}

// MeshConfig places one textured quad.
type MeshConfig struct {
	Path        string     `yaml:"path"`
	Scale       [3]float32 `yaml:"scale"`
	Translation [3]float32 `yaml:"translation"`
}

// Default returns the embedded default manifest.
func Default() *Config {
	cfg := &Config{}
	if err := decode(bytes.NewReader(defaultManifest), cfg); err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load reads the manifest at path over the defaults and validates the result.
// An empty path returns the defaults.
//
// Parameters:
//   - path: the YAML file to read, or ""
//
// Returns:
//   - *Config: the merged configuration
//   - error: error if the file cannot be read, has unknown fields, or fails validation
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a manifest from r over the defaults and validates it. Fields absent from r keep
// their default values; unknown fields are an error.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := decode(r, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		problems = append(problems, fmt.Sprintf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	switch strings.ToLower(c.Renderer.PresentMode) {
	case "vsync", "uncapped":
	default:
		problems = append(problems, fmt.Sprintf("unknown present_mode %q", c.Renderer.PresentMode))
	}
	if !slices.Contains([]uint32{1, 4, 8, 16}, c.Renderer.MSAA) {
		problems = append(problems, fmt.Sprintf("msaa %d must be 1, 4, 8 or 16", c.Renderer.MSAA))
	}
	for i, v := range c.Renderer.ClearColor {
		if v < 0 || v > 1 {
			problems = append(problems, fmt.Sprintf("clear_color[%d] = %g is outside [0, 1]", i, v))
		}
	}
	if c.Loader.Workers < 1 {
		problems = append(problems, "loader.workers must be at least 1")
	}
	if c.Loader.QueueSize < 1 {
		problems = append(problems, "loader.queue_size must be at least 1")
	}
	if c.Engine.FrameLimit < 0 {
		problems = append(problems, "engine.frame_limit must not be negative")
	}
	for i, m := range c.Meshes {
		if strings.TrimSpace(m.Path) == "" {
			problems = append(problems, fmt.Sprintf("meshes[%d] has an empty path", i))
		}
		// The quad lies in the XY plane, so only a zero Z scale is harmless.
		if m.Scale[0] == 0 || m.Scale[1] == 0 {
			problems = append(problems, fmt.Sprintf("meshes[%d] scale %v must be non-zero in x and y", i, m.Scale))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
