// Package config holds the viewer settings: mouse look, movement keys and
// frame pacing. Settings are read from a YAML file layered over defaults.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// Mouse button names accepted for CameraMoveButton.
const (
	ButtonLeft   = "left"
	ButtonMiddle = "middle"
	ButtonRight  = "right"
	ButtonNone   = "none"
)

// Config is the viewer configuration.
type Config struct {
	// MouseSensitivity is the look speed in degrees per pixel (or cell)
	// of mouse motion.
	MouseSensitivity float64 `yaml:"mouse_sensitivity"`
	// CameraMoveButton must be held to look and move.
	CameraMoveButton string        `yaml:"camera_move_button"`
	RefreshRate      time.Duration `yaml:"refresh_rate"`
	// MoveSpeed is the distance moved per tick with a key held.
	MoveSpeed float64 `yaml:"move_speed"`
	// Smoothing eases movement in and out with a spring.
	Smoothing   bool        `yaml:"smoothing"`
	Keybindings Keybindings `yaml:"keybindings"`
}

// Keybindings names the key for each movement. An empty name leaves the
// movement unbound.
type Keybindings struct {
	MoveForward  string `yaml:"move_forward"`
	MoveBackward string `yaml:"move_backward"`
	MoveLeft     string `yaml:"move_left"`
	MoveRight    string `yaml:"move_right"`
	MoveUp       string `yaml:"move_up"`
	MoveDown     string `yaml:"move_down"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MouseSensitivity: 0.5,
		CameraMoveButton: ButtonRight,
		RefreshRate:      time.Second / 60,
		MoveSpeed:        1,
		Keybindings: Keybindings{
			MoveForward:  "w",
			MoveBackward: "s",
			MoveLeft:     "a",
			MoveRight:    "d",
			MoveUp:       "shift",
			MoveDown:     "ctrl",
		},
	}
}

// DefaultPath is ~/.config/emcee/config.yaml.
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "emcee", "config.yaml"), nil
}

// Load reads path over the defaults. An empty path or a missing file
// yields the defaults. A leading ~ in path is expanded.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg.Normalize()
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// Save writes c to path as YAML, creating parent directories.
func (c Config) Save(path string) error {
	path, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Normalize lower-cases names and fills unset timing values.
func (c *Config) Normalize() {
	if c == nil {
		return
	}
	c.CameraMoveButton = strings.ToLower(strings.TrimSpace(c.CameraMoveButton))
	if c.CameraMoveButton == "" {
		c.CameraMoveButton = ButtonNone
	}
	if c.RefreshRate <= 0 {
		c.RefreshRate = Default().RefreshRate
	}
	if c.MoveSpeed == 0 {
		c.MoveSpeed = Default().MoveSpeed
	}
	for _, k := range c.Keybindings.all() {
		*k = strings.ToLower(strings.TrimSpace(*k))
	}
}

// Validate reports settings the viewer cannot use.
func (c Config) Validate() error {
	if !(c.MouseSensitivity > 0) || math.IsInf(c.MouseSensitivity, 0) {
		return fmt.Errorf("mouse_sensitivity must be positive, got %v", c.MouseSensitivity)
	}
	switch c.CameraMoveButton {
	case ButtonLeft, ButtonMiddle, ButtonRight, ButtonNone:
	default:
		return fmt.Errorf("camera_move_button: unknown button %q", c.CameraMoveButton)
	}
	if !(c.MoveSpeed > 0) || math.IsInf(c.MoveSpeed, 0) {
		return fmt.Errorf("move_speed must be positive, got %v", c.MoveSpeed)
	}
	seen := map[string]bool{}
	for _, k := range c.Keybindings.all() {
		if *k == "" {
			continue
		}
		if seen[*k] {
			return fmt.Errorf("keybindings: %q is bound more than once", *k)
		}
		seen[*k] = true
	}
	return nil
}

func (k *Keybindings) all() []*string {
	return []*string{&k.MoveForward, &k.MoveBackward, &k.MoveLeft, &k.MoveRight, &k.MoveUp, &k.MoveDown}
}
