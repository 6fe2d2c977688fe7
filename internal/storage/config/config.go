package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modbridge/internal/domain"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up inside the config directory
const FileName = "config.yaml"

// EnvPrefix prefixes every environment override, e.g. MODBRIDGE_BACKEND_URL
const EnvPrefix = "MODBRIDGE"

// Slot modes
const (
	SlotModeSplit   = "split"
	SlotModeUnified = "unified"
)

// Defaults
const (
	DefaultBackendURL     = "http://127.0.0.1:8484"
	DefaultListenAddr     = "127.0.0.1:8484"
	DefaultRequestTimeout = 30 * time.Second
)

// Config holds global application settings
type Config struct {
	BackendURL        string        `yaml:"backend_url"`
	RequestTimeout    time.Duration `yaml:"-"`
	RequestTimeoutStr string        `yaml:"request_timeout"`
	SlotMode          string        `yaml:"slot_mode"`
	Keybindings       string        `yaml:"keybindings"`
	LogLevel          string        `yaml:"log_level"`
	LogFile           string        `yaml:"log_file,omitempty"`
	DatabasePath      string        `yaml:"database_path,omitempty"` // Used by serve and --local; defaults to <data dir>/modbridge.db
	ListenAddr        string        `yaml:"listen_addr"`
	APIToken          string        `yaml:"api_token,omitempty"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		BackendURL:     DefaultBackendURL,
		RequestTimeout: DefaultRequestTimeout,
		SlotMode:       SlotModeSplit,
		Keybindings:    "vim",
		LogLevel:       "info",
		ListenAddr:     DefaultListenAddr,
	}
}

// Load reads configuration from the given directory
func Load(configDir string) (*Config, error) {
	cfg, err := readFile(filepath.Join(configDir, FileName), true)
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadFile reads configuration from an explicit file, which must exist
func LoadFile(path string) (*Config, error) {
	cfg, err := readFile(path, false)
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadWithEnv reads the config file (configFile wins over configDir when set) and
// overlays MODBRIDGE_* environment variables.
func LoadWithEnv(configDir, configFile string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if configFile != "" {
		cfg, err = readFile(configFile, false)
	} else {
		cfg, err = readFile(filepath.Join(configDir, FileName), true)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func readFile(path string, allowMissing bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if allowMissing && errors.Is(err, os.ErrNotExist) {
			return cfg, nil // Return defaults
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.RequestTimeoutStr != "" {
		d, err := time.ParseDuration(cfg.RequestTimeoutStr)
		if err != nil {
			return nil, fmt.Errorf("%w: request_timeout %q: %v", domain.ErrInvalidConfig, cfg.RequestTimeoutStr, err)
		}
		cfg.RequestTimeout = d
	}

	return cfg, nil
}

// applyEnv overlays environment variables bound through viper
func (c *Config) applyEnv() error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)

	strs := map[string]*string{
		"backend_url":   &c.BackendURL,
		"slot_mode":     &c.SlotMode,
		"keybindings":   &c.Keybindings,
		"log_level":     &c.LogLevel,
		"log_file":      &c.LogFile,
		"database_path": &c.DatabasePath,
		"listen_addr":   &c.ListenAddr,
		"api_token":     &c.APIToken,
	}
	for key := range strs {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}
	if err := v.BindEnv("request_timeout"); err != nil {
		return fmt.Errorf("binding request_timeout: %w", err)
	}

	for key, field := range strs {
		if v.IsSet(key) {
			*field = v.GetString(key)
		}
	}

	if v.IsSet("request_timeout") {
		raw := v.GetString("request_timeout")
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("%w: %s_REQUEST_TIMEOUT %q: %v", domain.ErrInvalidConfig, EnvPrefix, raw, err)
		}
		c.RequestTimeout = d
		c.RequestTimeoutStr = raw
	}

	return nil
}

// Validate checks values that would otherwise fail late
func (c *Config) Validate() error {
	c.SlotMode = strings.ToLower(strings.TrimSpace(c.SlotMode))
	switch c.SlotMode {
	case "":
		c.SlotMode = SlotModeSplit
	case SlotModeSplit, SlotModeUnified:
	default:
		return fmt.Errorf("%w: slot_mode must be %q or %q, got %q", domain.ErrInvalidConfig, SlotModeSplit, SlotModeUnified, c.SlotMode)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request_timeout must be positive", domain.ErrInvalidConfig)
	}
	if strings.TrimSpace(c.BackendURL) == "" {
		return fmt.Errorf("%w: backend_url is empty", domain.ErrInvalidConfig)
	}
	return nil
}

// Save writes configuration to the given directory
func (c *Config) Save(configDir string) error {
	c.RequestTimeoutStr = c.RequestTimeout.String()

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	configPath := filepath.Join(configDir, FileName)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}
