// Package config loads the tapflow configuration from ~/.tapflow/config.yaml,
// falling back to defaults when the file is absent.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DataDirName is the directory under the user's home that holds the database,
// config file, and sidecar scripts.
const DataDirName = ".tapflow"

// Config models config.yaml.
type Config struct {
	// CameraID is the video capture device index.
	CameraID int `yaml:"camera_id"`
	// ListenAddr is the HTTP server bind address.
	ListenAddr string `yaml:"listen_addr"`
	// FireThreshold is the tap confidence the gate requires, on the model's
	// native scale.
	FireThreshold float64 `yaml:"fire_threshold"`
	// CooldownMs is the post-fire suppression period in milliseconds.
	CooldownMs int `yaml:"cooldown_ms"`
	// MotionThreshold is the percentage of changed pixels that counts as
	// motion for the capture prefilter.
	MotionThreshold float64 `yaml:"motion_threshold"`
	// PluginDir is where action plugins are discovered.
	PluginDir string `yaml:"plugin_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		CameraID:        0,
		ListenAddr:      ":8080",
		FireThreshold:   1.9,
		CooldownMs:      1000,
		MotionThreshold: 1.0,
	}
}

// Cooldown returns the cooldown as a duration.
func (c Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownMs) * time.Millisecond
}

// DataDir returns the tapflow data directory, creating it if needed.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(home, DataDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dir, nil
}

// Load reads config.yaml from the given directory, merged over defaults.
// A missing file is not an error; a malformed one is.
func Load(dir string) (Config, error) {
	cfg := Default()
	if cfg.PluginDir == "" {
		cfg.PluginDir = filepath.Join(dir, "plugins")
	}

	path := filepath.Join(dir, "config.yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.CameraID < 0 {
		return fmt.Errorf("camera_id must not be negative")
	}
	if c.FireThreshold <= 0 {
		return fmt.Errorf("fire_threshold must be positive")
	}
	if c.CooldownMs <= 0 {
		return fmt.Errorf("cooldown_ms must be positive")
	}
	return nil
}
