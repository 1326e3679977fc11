// Package config persists the user's chosen devices, window title and
// reconnect tuning as a YAML file under the OS user config directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coolreader18/capturecard-display/media"
)

// ErrInvalidConfig indicates a config file that exists but cannot be
// parsed. Callers decide whether to fall back to defaults or abort;
// the capture core never sees this error.
var ErrInvalidConfig = errors.New("invalid config")

// Duration wraps time.Duration so the YAML form is a human-readable
// string ("500ms", "5s") instead of integer nanoseconds.
type Duration time.Duration

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Reconnect tunes the supervisor retry schedule. Zero values mean
// "use the built-in default" (500ms initial, 5s cap).
type Reconnect struct {
	InitialDelay Duration `yaml:"initial_delay,omitempty"`
	MaxDelay     Duration `yaml:"max_delay,omitempty"`
}

// Config is the persisted application configuration.
type Config struct {
	// WindowTitle is the display window title.
	WindowTitle string `yaml:"window_title"`
	// VideoDevice is the stable video device path
	// (e.g. /dev/v4l/by-id/usb-...-video-index0). Empty = none chosen.
	VideoDevice string `yaml:"video_device,omitempty"`
	// AudioDevice is the audio capture device name as reported by the
	// audio backend. Empty = none chosen.
	AudioDevice string `yaml:"audio_device,omitempty"`
	// Reconnect tunes the auto-reconnect poll interval.
	Reconnect Reconnect `yaml:"reconnect,omitempty"`
}

// Default returns the configuration used when no file exists yet.
func Default() Config {
	return Config{WindowTitle: "CCDisplay"}
}

// VideoIdentity returns the configured video device identity.
func (c Config) VideoIdentity() media.DeviceIdentity {
	return media.DeviceIdentity{Kind: media.KindVideo, ID: c.VideoDevice}
}

// AudioIdentity returns the configured audio device identity.
func (c Config) AudioIdentity() media.DeviceIdentity {
	return media.DeviceIdentity{Kind: media.KindAudio, ID: c.AudioDevice}
}

// Store loads and saves the config file.
type Store struct {
	path string
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolving user config dir: %w", err)
	}
	return filepath.Join(dir, "ccdisplay", "config.yaml"), nil
}

// NewStore creates a store for the given path. An empty path selects
// DefaultPath.
func NewStore(path string) (*Store, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return &Store{path: path}, nil
}

// Path returns the file location backing this store.
func (s *Store) Path() string { return s.path }

// Load reads the config file. A missing file is not an error: the
// defaults are returned so first launch works out of the box. A file
// that exists but fails to parse returns ErrInvalidConfig (wrapped).
func (s *Store) Load() (Config, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("config: reading %s: %w", s.path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("config: parsing %s: %v: %w", s.path, err, ErrInvalidConfig)
	}
	return cfg, nil
}

// Save writes the config atomically: marshal to a temp file in the
// same directory, then rename over the target. A crash mid-save never
// leaves a truncated config behind.
func (s *Store) Save(cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("config: creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("config: writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("config: closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("config: replacing %s: %w", s.path, err)
	}
	return nil
}
