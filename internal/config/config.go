// Package config loads the limg command configuration from JSONC files.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/coreos/pkg/capnslog"
	"github.com/tailscale/hujson"

	"github.com/arloliu/limg/format"
)

// FileName is the project config file looked up in the working directory.
const FileName = ".limg.json"

var (
	ErrNotFound = errors.New("config file not found")
	ErrRead     = errors.New("cannot read config file")
	ErrInvalid  = errors.New("invalid config")
)

// Config holds the resolved settings.
type Config struct {
	Codec         string        // payload codec name, see format.ParseCompressionType
	FrameInterval time.Duration // delay between frames during playback
	LogLevel      string        // capnslog level name
	HistoryFile   string        // REPL history, empty disables it
}

// Overrides holds the settings a single layer sets. Nil fields leave lower
// layers untouched.
type Overrides struct {
	Codec         *string `json:"codec,omitempty"`
	FrameInterval *string `json:"frame_interval,omitempty"` //nolint: tagliatelle
	LogLevel      *string `json:"log_level,omitempty"`      //nolint: tagliatelle
	HistoryFile   *string `json:"history_file,omitempty"`   //nolint: tagliatelle
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global  string // global config path if loaded
	Project string // project or explicit config path if loaded
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Codec:         "none",
		FrameInterval: 20 * time.Millisecond,
		LogLevel:      "warning",
	}
}

// GlobalPath returns $XDG_CONFIG_HOME/limg/config.json, falling back to
// ~/.config/limg/config.json. env entries take precedence over the process
// environment. It returns "" when no home directory is known.
func GlobalPath(env []string) string {
	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "XDG_CONFIG_HOME="); ok && after != "" {
			return filepath.Join(after, "limg", "config.json")
		}
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "limg", "config.json")
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "limg", "config.json")
	}

	return ""
}

// Load resolves the configuration, highest precedence last:
//  1. Defaults
//  2. Global config (GlobalPath)
//  3. Project config (.limg.json in workDir), or explicitPath when set
//  4. flags
//
// An explicit path must exist; the global and project files are optional.
func Load(workDir, explicitPath string, flags Overrides, env []string) (Config, Sources, error) {
	cfg := Default()

	var src Sources

	if path := GlobalPath(env); path != "" {
		layer, loaded, err := loadFile(path, false)
		if err != nil {
			return Config{}, Sources{}, err
		}
		if loaded {
			if cfg, err = apply(cfg, layer); err != nil {
				return Config{}, Sources{}, fmt.Errorf("%w %s: %w", ErrInvalid, path, err)
			}
			src.Global = path
		}
	}

	projectPath := filepath.Join(workDir, FileName)
	mustExist := false
	if explicitPath != "" {
		projectPath = explicitPath
		if !filepath.IsAbs(projectPath) {
			projectPath = filepath.Join(workDir, projectPath)
		}
		mustExist = true
	}

	layer, loaded, err := loadFile(projectPath, mustExist)
	if err != nil {
		return Config{}, Sources{}, err
	}
	if loaded {
		if cfg, err = apply(cfg, layer); err != nil {
			return Config{}, Sources{}, fmt.Errorf("%w %s: %w", ErrInvalid, projectPath, err)
		}
		src.Project = projectPath
	}

	if cfg, err = apply(cfg, flags); err != nil {
		return Config{}, Sources{}, fmt.Errorf("%w: flags: %w", ErrInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, Sources{}, err
	}

	return cfg, src, nil
}

func loadFile(path string, mustExist bool) (Overrides, bool, error) {
	data, err := os.ReadFile(path) //nolint: gosec
	if err != nil {
		switch {
		case os.IsNotExist(err) && mustExist:
			return Overrides{}, false, fmt.Errorf("%w: %s", ErrNotFound, path)
		case os.IsNotExist(err):
			return Overrides{}, false, nil
		default:
			return Overrides{}, false, fmt.Errorf("%w %s: %w", ErrRead, path, err)
		}
	}

	layer, err := Parse(data)
	if err != nil {
		return Overrides{}, false, fmt.Errorf("%w %s: %w", ErrInvalid, path, err)
	}

	return layer, true, nil
}

// Parse decodes a JSONC config layer. Comments and trailing commas are
// allowed; unknown keys are rejected.
func Parse(data []byte) (Overrides, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Overrides{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var layer Overrides

	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&layer); err != nil {
		return Overrides{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return layer, nil
}

func apply(cfg Config, layer Overrides) (Config, error) {
	if layer.Codec != nil {
		cfg.Codec = *layer.Codec
	}

	if layer.FrameInterval != nil {
		d, err := time.ParseDuration(*layer.FrameInterval)
		if err != nil {
			return Config{}, fmt.Errorf("frame_interval: %w", err)
		}
		cfg.FrameInterval = d
	}

	if layer.LogLevel != nil {
		cfg.LogLevel = *layer.LogLevel
	}

	if layer.HistoryFile != nil {
		cfg.HistoryFile = *layer.HistoryFile
	}

	return cfg, nil
}

// Validate checks that every setting can be used.
func (c Config) Validate() error {
	if _, err := format.ParseCompressionType(c.Codec); err != nil {
		return fmt.Errorf("%w: codec: %w", ErrInvalid, err)
	}

	if c.FrameInterval <= 0 {
		return fmt.Errorf("%w: frame_interval must be positive, got %s", ErrInvalid, c.FrameInterval)
	}

	if _, err := c.Level(); err != nil {
		return fmt.Errorf("%w: log_level: %w", ErrInvalid, err)
	}

	return nil
}

// Level returns LogLevel as a capnslog level. Names are case-insensitive.
func (c Config) Level() (capnslog.LogLevel, error) {
	return capnslog.ParseLevel(strings.ToUpper(c.LogLevel))
}

// Format returns the resolved configuration as indented JSON.
func Format(c Config) (string, error) {
	out := struct {
		Codec         string `json:"codec"`
		FrameInterval string `json:"frame_interval"` //nolint: tagliatelle
		LogLevel      string `json:"log_level"`      //nolint: tagliatelle
		HistoryFile   string `json:"history_file"`   //nolint: tagliatelle
	}{
		Codec:         c.Codec,
		FrameInterval: c.FrameInterval.String(),
		LogLevel:      c.LogLevel,
		HistoryFile:   c.HistoryFile,
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("format config: %w", err)
	}

	return string(data), nil
}
