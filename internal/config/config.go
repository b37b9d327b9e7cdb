// Package config loads the application configuration file and resolves
// the data directory layout.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the main mcpdepot configuration
type Config struct {
	// DataPath is the bolt database file holding all collections
	DataPath string `yaml:"dataPath,omitempty"`
	// Listen is the address the HTTP API binds to
	Listen string `yaml:"listen,omitempty"`
	// PassphraseEnv names the environment variable holding the
	// encryption passphrase
	PassphraseEnv string `yaml:"passphraseEnv,omitempty"`
	// BackupRetention caps how many backups are kept
	BackupRetention int `yaml:"backupRetention,omitempty"`

	// Path info (not serialized)
	Path      string `yaml:"-"`
	ConfigDir string `yaml:"-"`
}

// DefaultConfigDir returns the default configuration directory
func DefaultConfigDir() string {
	// Check MCPDEPOT_HOME first
	if home := os.Getenv("MCPDEPOT_HOME"); home != "" {
		return home
	}

	// Check XDG_CONFIG_HOME
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "mcpdepot")
	}

	// Default to ~/.config/mcpdepot
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".mcpdepot"
	}
	return filepath.Join(homeDir, ".config", "mcpdepot")
}

// Default returns the built-in configuration
func Default() *Config {
	dir := DefaultConfigDir()
	return &Config{
		DataPath:        filepath.Join(dir, "mcpdepot.db"),
		Listen:          "127.0.0.1:8765",
		PassphraseEnv:   "MCPDEPOT_PASSPHRASE",
		BackupRetention: 10,
		Path:            filepath.Join(dir, "config.yaml"),
		ConfigDir:       dir,
	}
}

// Load loads the configuration from the default location
func Load() (*Config, error) {
	return LoadFrom(filepath.Join(DefaultConfigDir(), "config.yaml"))
}

// LoadFrom loads configuration from a specific path, falling back to
// defaults for anything the file leaves unset.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	cfg.Path = path
	cfg.ConfigDir = filepath.Dir(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.Path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(c.Path, data, 0644)
}

// Passphrase reads the encryption passphrase from the configured
// environment variable. Empty means encryption is disabled.
func (c *Config) Passphrase() string {
	if c.PassphraseEnv == "" {
		return ""
	}
	return os.Getenv(c.PassphraseEnv)
}
