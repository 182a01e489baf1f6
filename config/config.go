// Package config provides configuration loading for condec.
package config

import (
	"condec/editor"
	"condec/layout"
	"condec/storage"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the complete condec configuration
type Config struct {
	Editor  EditorConfig  `yaml:"editor"`
	Layout  LayoutConfig  `yaml:"layout"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// EditorConfig configures interactive sessions
type EditorConfig struct {
	// AlignThreshold is the snap distance for alignment guides
	AlignThreshold float64 `yaml:"align_threshold" validate:"gte=0"`
	// GridSize is the spacing used by grid snapping
	GridSize float64 `yaml:"grid_size" validate:"gt=0"`
	// HistoryLimit caps the undo stack (0 = unlimited)
	HistoryLimit int     `yaml:"history_limit" validate:"gte=0"`
	MinZoom      float64 `yaml:"min_zoom" validate:"gt=0"`
	MaxZoom      float64 `yaml:"max_zoom" validate:"gtfield=MinZoom"`
}

// LayoutConfig configures the force-directed layout used by importers
type LayoutConfig struct {
	Width      float64 `yaml:"width" validate:"gt=0"`
	Height     float64 `yaml:"height" validate:"gt=0"`
	Iterations int     `yaml:"iterations" validate:"gte=1"`
	// Seed makes layouts reproducible (0 = time-based)
	Seed int64 `yaml:"seed"`
}

// StorageConfig configures the persisted document store
type StorageConfig struct {
	Path     string `yaml:"path" validate:"required_without=InMemory"`
	InMemory bool   `yaml:"in_memory"`
}

// LogConfig configures the process logger
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

var validate = validator.New()

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	def := editor.DefaultOptions()
	return &Config{
		Editor: EditorConfig{
			AlignThreshold: def.AlignThreshold,
			GridSize:       def.GridSize,
			HistoryLimit:   0,
			MinZoom:        def.MinZoom,
			MaxZoom:        def.MaxZoom,
		},
		Layout: LayoutConfig{
			Width:      1600,
			Height:     1200,
			Iterations: 900,
		},
		Storage: StorageConfig{
			Path: defaultStoragePath(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".condec", "data")
	}
	return filepath.Join(home, ".local", "share", "condec")
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file over the defaults
func LoadFromFile(path string) (*Config, error) {
	config := DefaultConfig()
	if err := config.mergeFile(path); err != nil {
		return nil, err
	}
	return config, nil
}

// mergeFile overlays the keys present in the file onto c.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SessionOptions returns editor options for this configuration.
func (c *Config) SessionOptions(logger *slog.Logger) editor.Options {
	return editor.Options{
		Logger:         logger,
		HistoryLimit:   c.Editor.HistoryLimit,
		AlignThreshold: c.Editor.AlignThreshold,
		GridSize:       c.Editor.GridSize,
		MinZoom:        c.Editor.MinZoom,
		MaxZoom:        c.Editor.MaxZoom,
	}
}

// LayoutEngine returns the force-directed layout the importers use.
func (c *Config) LayoutEngine() *layout.ForceDirected {
	f := layout.NewForceDirected(c.Layout.Seed)
	f.Width = c.Layout.Width
	f.Height = c.Layout.Height
	f.Iterations = c.Layout.Iterations
	return f
}

// StoreConfig returns the storage configuration.
func (c *Config) StoreConfig(logger *slog.Logger) storage.Config {
	return storage.Config{
		Path:     c.Storage.Path,
		InMemory: c.Storage.InMemory,
		Logger:   logger,
	}
}

// NewLogger builds the process logger described by the Log section.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch c.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
