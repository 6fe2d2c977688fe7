// Package config loads modbridge settings and reads and writes portable preset files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config file path errors
var (
	ErrPathEmpty     = errors.New("config path cannot be empty")
	ErrPathRelative  = errors.New("config path must be absolute")
	ErrPathTraversal = errors.New("config path contains invalid traversal")
	ErrPathMissing   = errors.New("config file does not exist")
	ErrPathIsDir     = errors.New("config path is a directory, not a file")
	ErrPathExt       = errors.New("config file must have .yaml or .yml extension")
)

// ParseConfigPath validates a --config-file value and returns it unchanged if usable.
func ParseConfigPath(path string) (string, error) {
	switch {
	case path == "":
		return "", ErrPathEmpty
	case !filepath.IsAbs(path):
		return "", ErrPathRelative
	case strings.Contains(path, ".."):
		return "", ErrPathTraversal
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrPathMissing
		}
		return "", fmt.Errorf("checking config path: %w", err)
	}
	if info.IsDir() {
		return "", ErrPathIsDir
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext != ".yaml" && ext != ".yml" {
		return "", ErrPathExt
	}

	return path, nil
}

// Dirs holds the resolved per-user directories
type Dirs struct {
	Config string
	Data   string
}

// DefaultDirs returns ~/.config/modbridge and ~/.local/share/modbridge, honouring XDG variables
func DefaultDirs() (Dirs, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Dirs{}, fmt.Errorf("home directory: %w", err)
	}

	dirs := Dirs{
		Config: filepath.Join(home, ".config", "modbridge"),
		Data:   filepath.Join(home, ".local", "share", "modbridge"),
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs.Config = filepath.Join(xdg, "modbridge")
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		dirs.Data = filepath.Join(xdg, "modbridge")
	}
	return dirs, nil
}
