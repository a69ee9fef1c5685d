package core

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
)

type ApplicationConfig struct {
	Name   string `toml:"name"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
}

type RendererConfig struct {
	// Number of frames the device may keep in flight. Deferred releases wait
	// this many frames before running.
	FramesInFlight uint32 `toml:"frames_in_flight"`
	Validation     bool   `toml:"validation"`
	// Panics when a frame slot is recycled before its fence signalled. The
	// renderer waits on that fence first, so this only trips when the wait
	// returned without the fence being signalled.
	DebugRetirementCheck bool `toml:"debug_retirement_check"`
}

type AssetsConfig struct {
	Root         string `toml:"root"`
	Watch        bool   `toml:"watch"`
	GenerateMips bool   `toml:"generate_mips"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type Config struct {
	Application ApplicationConfig `toml:"application"`
	Renderer    RendererConfig    `toml:"renderer"`
	Assets      AssetsConfig      `toml:"assets"`
	Log         LogConfig         `toml:"log"`
}

func DefaultConfig() *Config {
	return &Config{
		Application: ApplicationConfig{
			Name:   "LoveVK",
			Width:  1280,
			Height: 720,
		},
		Renderer: RendererConfig{
			FramesInFlight:       3,
			Validation:           true,
			DebugRetirementCheck: true,
		},
		Assets: AssetsConfig{
			Root:         "assets",
			Watch:        true,
			GenerateMips: true,
		},
		Log: LogConfig{
			Level: "debug",
		},
	}
}

// LoadConfig reads a TOML file on top of the defaults. A missing file is not
// an error: the defaults are returned as they are.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			LogWarn("config file `%s` not found, using defaults", path)
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config `%s`: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Renderer.FramesInFlight == 0 {
		return errors.New("renderer.frames_in_flight must be at least 1")
	}
	if c.Application.Width == 0 || c.Application.Height == 0 {
		return fmt.Errorf("invalid window size %dx%d", c.Application.Width, c.Application.Height)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level `%s`: %w", c.Log.Level, err)
	}
	return nil
}
