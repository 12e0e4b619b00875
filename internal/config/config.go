package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/democam/internal/camera"
)

// Config is the full application configuration. Camera tuning lives in
// camera.Config; everything else describes how recordings are planned and
// where results go.
type Config struct {
	Camera  camera.Config `yaml:"camera"`
	Render  Render        `yaml:"render"`
	Logging Logging       `yaml:"logging"`
	Store   Store         `yaml:"store"`
	Server  Server        `yaml:"server"`
	Workers int           `yaml:"workers"`
	Source  string        `yaml:"source"` // directory searched for recordings
	Output  string        `yaml:"output"` // directory scenarios are written to

	BuildVersion string `yaml:"-"`
}

// Render describes the planning clock and the fallback viewport.
type Render struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	FPS    int     `yaml:"fps"`
	Tail   float64 `yaml:"tail"` // seconds planned past the last event

	// MaxDuration bounds the planned length of one recording in seconds.
	MaxDuration float64 `yaml:"max_duration"`
}

// Viewport returns the render size as a camera viewport.
func (r Render) Viewport() camera.Viewport {
	return camera.Viewport{Width: float64(r.Width), Height: float64(r.Height)}
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Store struct {
	Path    string `yaml:"path"`
	Profile string `yaml:"profile"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Camera: camera.DefaultConfig(),
		Render: Render{Width: 1920, Height: 1080, FPS: 30, Tail: 4, MaxDuration: 3600},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Store:   Store{Path: "data/preferences.db", Profile: "default"},
		Server:  Server{Addr: ":8080"},
		Workers: runtime.NumCPU(),
		Source:  "input/recordings",
		Output:  "output",
	}
}

// Load reads a YAML file over the defaults. Fields the file omits keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the fields the camera does not normalize itself.
func (c Config) Validate() error {
	var errs []error
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		errs = append(errs, fmt.Errorf("render size %dx%d must be positive", c.Render.Width, c.Render.Height))
	}
	if c.Render.FPS <= 0 || c.Render.FPS > 240 {
		errs = append(errs, fmt.Errorf("render fps %d out of range (1..240)", c.Render.FPS))
	}
	if c.Render.Tail < 0 {
		errs = append(errs, fmt.Errorf("render tail %.2f must not be negative", c.Render.Tail))
	}
	if !(c.Render.MaxDuration > 0) || math.IsInf(c.Render.MaxDuration, 1) {
		errs = append(errs, fmt.Errorf("render max_duration %.2f must be a positive number of seconds", c.Render.MaxDuration))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers %d must be at least 1", c.Workers))
	}
	return errors.Join(errs...)
}
