// ABOUTME: Configuration for the Charm KV preference backend
// ABOUTME: Reads and writes charm-config.json next to the rest of dealflow's local data

package charm

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/charm/kv"
)

const (
	// DefaultCharmHost is the self-hosted 2389 research server.
	DefaultCharmHost = "charm.2389.dev"

	// AppName names both the charm KV database and the local data directory.
	AppName = "dealflow"

	ConfigFileName = "charm-config.json"
)

// Config holds charm connection settings.
type Config struct {
	Host string `json:"host,omitempty"`

	// AutoSync pushes every preference write to the charm server.
	AutoSync bool `json:"auto_sync"`

	StaleThreshold time.Duration `json:"stale_threshold,omitempty"`

	path string
}

func DefaultConfig() *Config {
	return &Config{
		Host:           DefaultCharmHost,
		AutoSync:       true,
		StaleThreshold: kv.DefaultStaleThreshold,
	}
}

// DefaultDir is where dealflow keeps local data when nothing else is configured.
func DefaultDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// LoadConfig loads the config from the default data directory.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultDir())
}

// LoadConfigFrom loads charm-config.json from dir. A missing or unreadable
// file yields defaults bound to that path so a later Save creates it.
func LoadConfigFrom(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := DefaultConfig()
			cfg.path = path
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read charm config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		cfg = DefaultConfig()
	}
	if cfg.Host == "" {
		cfg.Host = DefaultCharmHost
	}
	if cfg.StaleThreshold == 0 {
		cfg.StaleThreshold = kv.DefaultStaleThreshold
	}
	cfg.path = path
	return cfg, nil
}

// Save persists the config to the file it was loaded from.
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		path = filepath.Join(DefaultDir(), ConfigFileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) SetHost(host string) error {
	c.Host = host
	return c.Save()
}

func (c *Config) SetAutoSync(enabled bool) error {
	c.AutoSync = enabled
	return c.Save()
}
