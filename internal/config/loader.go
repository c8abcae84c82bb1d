package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// AppName is the directory name used under the XDG config home.
const AppName = "sitescan"

// DefaultConfigFile is the per-directory configuration file name.
const DefaultConfigFile = ".sitescan.yaml"

// TrackerEntry is one registry rule as written in the configuration file.
type TrackerEntry struct {
	Domain   string `yaml:"domain"`
	Type     string `yaml:"type"`
	Risk     string `yaml:"risk"`
	Category string `yaml:"category"`
}

// File is the on-disk configuration. Unset fields leave the environment value in place.
type File struct {
	Port              *int   `yaml:"port"`
	Engine            string `yaml:"engine"`
	ChromePath        string `yaml:"chrome_path"`
	BrowserPoolSize   *int   `yaml:"browser_pool_size"`
	ScanQueueSize     *int   `yaml:"scan_queue_size"`
	NavigationTimeout string `yaml:"navigation_timeout"`
	SettleDelay       string `yaml:"settle_delay"`
	ResponseWindow    string `yaml:"response_window"`
	UserAgent         string `yaml:"user_agent"`
	LogLevel          string `yaml:"log_level"`
	LogFormat         string `yaml:"log_format"`

	// Trackers replaces the built-in registry, in declaration order.
	Trackers []TrackerEntry `yaml:"trackers"`
}

// LoadConfigFile parses a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-provided path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &f, nil
}

// LoadRegistryFile reads a standalone tracker list, either a bare YAML
// sequence or a document with a top-level "trackers" key.
func LoadRegistryFile(path string) ([]TrackerEntry, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-provided path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var entries []TrackerEntry
	if err := yaml.Unmarshal(data, &entries); err == nil {
		return entries, nil
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return f.Trackers, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .sitescan.yaml in the current directory
// 3. Look for config.yaml in $XDG_CONFIG_HOME/sitescan
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		local := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(local); err == nil {
			return local
		}
	}

	userConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(userConfig); err == nil {
		return userConfig
	}

	return ""
}

// ConfigDir returns the per-user configuration directory.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Apply overlays the values set in f onto c.
func (c *Config) Apply(f *File) error {
	if f == nil {
		return nil
	}
	if f.Port != nil {
		c.Port = *f.Port
	}
	if f.Engine != "" {
		c.Engine = f.Engine
	}
	if f.ChromePath != "" {
		c.ChromePath = f.ChromePath
	}
	if f.BrowserPoolSize != nil {
		c.BrowserPoolSize = *f.BrowserPoolSize
	}
	if f.ScanQueueSize != nil {
		c.ScanQueueSize = *f.ScanQueueSize
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if f.LogLevel != "" {
		c.LogLevel = f.LogLevel
	}
	if f.LogFormat != "" {
		c.LogFormat = f.LogFormat
	}

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"navigation_timeout", f.NavigationTimeout, &c.NavigationTimeout},
		{"settle_delay", f.SettleDelay, &c.SettleDelay},
		{"response_window", f.ResponseWindow, &c.ResponseWindow},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	if len(f.Trackers) > 0 {
		c.Trackers = f.Trackers
	}
	return nil
}

// LoadWithFile reads the environment, then overlays the configuration file
// found via FindConfigFile and the registry file named by REGISTRY_FILE.
// An explicit configPath that does not exist is an error; a missing default file is not.
func LoadWithFile(configPath string) (*Config, error) {
	cfg := Load()

	path := FindConfigFile(configPath)
	if path == "" && configPath != "" {
		return nil, fmt.Errorf("%s: %w", configPath, ErrConfigNotFound)
	}
	if path != "" {
		f, err := LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.Apply(f); err != nil {
			return nil, err
		}
	}

	if cfg.RegistryFile != "" {
		entries, err := LoadRegistryFile(cfg.RegistryFile)
		if err != nil {
			return nil, fmt.Errorf("registry file %s: %w", cfg.RegistryFile, err)
		}
		cfg.Trackers = entries
	}

	return cfg, nil
}
