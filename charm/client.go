// ABOUTME: Charm KV client used as an opt-in preference backend
// ABOUTME: Wraps charm kv (or a plain badger store in tests) behind one byte-keyed API

package charm

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
)

// ErrNotFound is returned by Get for keys that were never written.
var ErrNotFound = errors.New("key not found")

// store is the subset of charm's kv.KV the client relies on.
type store interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
	Reset() error
}

type Client struct {
	mu     sync.RWMutex
	kv     store
	config *Config
	remote bool
}

// NewClient opens the charm KV database for dealflow against cfg.Host.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	// charm reads its host from the environment when the KV is opened.
	_ = os.Setenv("CHARM_HOST", cfg.Host)

	db, err := kv.OpenWithDefaults(AppName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	if cfg.AutoSync {
		_ = db.Sync()
	}

	return &Client{kv: db, config: cfg, remote: true}, nil
}

func (c *Client) Config() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// ID returns the charm account ID for this device.
func (c *Client) ID() (string, error) {
	if !c.remote {
		return "local", nil
	}
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

func (c *Client) IsConnected() bool {
	_, err := c.ID()
	return err == nil
}

func (c *Client) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Sync()
}

func (c *Client) Get(key []byte) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, err := c.kv.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return value, err
}

// Set stores a value and syncs when auto-sync is on.
func (c *Client) Set(key, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Set(key, value); err != nil {
		return err
	}
	if c.config.AutoSync {
		_ = c.kv.Sync()
	}
	return nil
}

func (c *Client) Delete(key []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Delete(key); err != nil {
		return err
	}
	if c.config.AutoSync {
		_ = c.kv.Sync()
	}
	return nil
}

func (c *Client) KeysWithPrefix(prefix []byte) ([][]byte, error) {
	c.mu.RLock()
	all, err := c.kv.Keys()
	c.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	var matched [][]byte
	for _, k := range all {
		if bytes.HasPrefix(k, prefix) {
			matched = append(matched, k)
		}
	}
	return matched, nil
}

// Reset wipes every key in the database.
func (c *Client) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Reset()
}
