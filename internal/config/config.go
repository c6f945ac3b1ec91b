// Package config loads the vault's file configuration from
// ~/.otpvault/config.yaml and watches it for changes.
//
// The config file holds non-secret application settings. The auto-lock
// timeout configured by the user at runtime lives in the secret store
// (secrets.Settings); the value here is the default applied when
// nothing has been stored yet.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds persistent application configuration.
type Config struct {
	// AutoLock is the default inactivity timeout; zero disables.
	AutoLock Duration `yaml:"auto_lock,omitempty"`
	// ClipboardClear is how long copied codes stay on the clipboard.
	ClipboardClear Duration `yaml:"clipboard_clear,omitempty"`
	// KDFIterations overrides the PBKDF2 iteration count for PIN
	// hashing and backup encryption. Values below the enforced floor
	// are ignored.
	KDFIterations int `yaml:"kdf_iterations,omitempty"`
	// AuditLog is the audit log path.
	AuditLog string `yaml:"audit_log,omitempty"`
}

// Duration is a time.Duration that marshals as a string ("5m", "30s").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

// Dir returns the vault's config directory: ~/.otpvault.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".otpvault")
}

// DefaultPath returns the default config file path: ~/.otpvault/config.yaml.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads a YAML config file from path. If the file does not exist,
// it returns defaults and no error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AutoLock.Duration == 0 {
		c.AutoLock.Duration = 5 * time.Minute
	}
	if c.ClipboardClear.Duration == 0 {
		c.ClipboardClear.Duration = 30 * time.Second
	}
	if c.AuditLog == "" {
		c.AuditLog = filepath.Join(Dir(), "audit.log")
	}
}
