package ui

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Config contains window/input/audio related settings. It is persisted
// as JSON between runs.
type Config struct {
	Title           string `json:"title"`
	Scale           int    `json:"scale"`         // integer upscaling factor
	AudioStereo     bool   `json:"audio_stereo"`  // false folds both channels to mono
	AudioMuted      bool   `json:"audio_muted"`
	AudioBufferMs   int    `json:"audio_buffer_ms"`
	AudioLowLatency bool   `json:"audio_low_latency"`
	ROMsDir         string `json:"roms_dir"` // directory to browse for cartridges
	// Keys maps pad button names to ebiten key names.
	Keys map[string]string `json:"keys"`
}

// Button names used in Config.Keys.
var buttonNames = []string{
	"up", "down", "left", "right",
	"a", "b", "x", "y", "l", "r",
	"start", "select",
}

func defaultKeys() map[string]string {
	return map[string]string{
		"up": "ArrowUp", "down": "ArrowDown", "left": "ArrowLeft", "right": "ArrowRight",
		"a": "X", "b": "Z", "x": "S", "y": "A",
		"l": "Q", "r": "W",
		"start": "Enter", "select": "Space",
	}
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "x65emu"
	}
	if c.Scale <= 0 {
		c.Scale = 3
	}
	if c.AudioBufferMs <= 0 {
		c.AudioBufferMs = 40
	}
	if c.ROMsDir == "" {
		c.ROMsDir = "roms"
	}
	def := defaultKeys()
	if c.Keys == nil {
		c.Keys = def
	}
	for _, name := range buttonNames {
		if c.Keys[name] == "" {
			c.Keys[name] = def[name]
		}
	}
}

// LoadSettings reads a JSON settings file over the defaults. A missing
// file is not an error.
func LoadSettings(path string) (Config, error) {
	c := Config{AudioStereo: true}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return c, fmt.Errorf("read settings: %w", err)
	default:
		if err := json.Unmarshal(data, &c); err != nil {
			c.Defaults()
			return c, fmt.Errorf("parse settings %s: %w", path, err)
		}
	}
	c.Defaults()
	return c, nil
}

func (c *Config) SaveSettings(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
