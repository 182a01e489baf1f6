package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "condec.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/condec"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger  *slog.Logger
	home    string
	workDir string
}

// NewLoader creates a new configuration loader rooted at the user's home
// and the current directory
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	home, _ := os.UserHomeDir()
	cwd, _ := os.Getwd()
	return &Loader{logger: logger, home: home, workDir: cwd}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/condec/config.yaml)
// 3. Project config (condec.yaml in current or parent directories)
// 4. The explicit path, when not empty
//
// Each layer only overrides the keys it sets. A missing user or project
// file is skipped; a missing explicit file is an error.
func (l *Loader) Load(explicit string) (*Config, error) {
	config := DefaultConfig()

	if path := l.userConfigPath(); path != "" {
		if err := config.mergeFile(path); err == nil {
			l.logger.Debug("loaded user config", slog.String("path", path))
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("user config %s: %w", path, err)
		}
	}

	if path := l.findProjectConfig(); path != "" {
		if err := config.mergeFile(path); err != nil {
			return nil, fmt.Errorf("project config %s: %w", path, err)
		}
		l.logger.Debug("loaded project config", slog.String("path", path))
	}

	if explicit != "" {
		if err := config.mergeFile(explicit); err != nil {
			return nil, fmt.Errorf("config %s: %w", explicit, err)
		}
		l.logger.Debug("loaded config", slog.String("path", explicit))
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist
func (l *Loader) EnsureUserConfig() (string, error) {
	path := l.userConfigPath()
	if path == "" {
		return "", errors.New("no home directory")
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := DefaultConfig().SaveToFile(path); err != nil {
		return "", err
	}
	l.logger.Info("created default user config", slog.String("path", path))
	return path, nil
}

func (l *Loader) userConfigPath() string {
	if l.home == "" {
		return ""
	}
	return filepath.Join(l.home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for condec.yaml in the working directory and
// its parents
func (l *Loader) findProjectConfig() string {
	if l.workDir == "" {
		return ""
	}

	dir := l.workDir
	for {
		path := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
