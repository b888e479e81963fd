// ABOUTME: Shared runtime wiring for CLI commands
// ABOUTME: Opens the deal gateway and preference storage, and builds per-profile stores
package cli

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/harperreed/dealflow/charm"
	"github.com/harperreed/dealflow/config"
	"github.com/harperreed/dealflow/gateway"
	"github.com/harperreed/dealflow/kanban"
	"github.com/harperreed/dealflow/prefs"
	"github.com/harperreed/dealflow/store"
)

// Env holds what every command needs: where deals live and where preferences live.
type Env struct {
	Config  *config.Config
	Gateway gateway.Gateway
	Storage prefs.Storage
	Policy  kanban.Policy

	closer func() error
}

// OpenEnv connects to the deal API and opens the configured preference backend.
func OpenEnv(ctx context.Context, cfg *config.Config) (*Env, error) {
	policy, err := kanban.ParsePolicy(cfg.PipelinePolicy)
	if err != nil {
		return nil, err
	}

	storage, closer, err := OpenStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var opts []gateway.Option
	if cfg.GatewayTimeout > 0 {
		opts = append(opts, gateway.WithTimeout(cfg.GatewayTimeout))
	}

	return &Env{
		Config:  cfg,
		Gateway: gateway.NewHTTPClient(cfg.APIURL, opts...),
		Storage: storage,
		Policy:  policy,
		closer:  closer,
	}, nil
}

// OpenStorage opens the preference backend named by cfg.PrefsBackend.
// The returned func releases it and may be nil.
func OpenStorage(ctx context.Context, cfg *config.Config) (prefs.Storage, func() error, error) {
	switch cfg.PrefsBackend {
	case config.BackendMemory:
		return prefs.NewMemoryStorage(), nil, nil

	case config.BackendBadger:
		dir := filepath.Join(cfg.DataDir, "prefs")
		b, err := prefs.OpenBadger(dir)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil

	case config.BackendRedis:
		r, err := prefs.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil

	case config.BackendCharm:
		charmCfg, err := charm.LoadConfigFrom(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load charm config: %w", err)
		}
		client, err := charm.NewClient(charmCfg)
		if err != nil {
			return nil, nil, err
		}
		return prefs.FromKV(client, charm.ErrNotFound), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown preference backend %q", cfg.PrefsBackend)
	}
}

// NewStore builds a deal store whose preferences are kept under profile.
func (e *Env) NewStore(profile string) *store.Store {
	return store.New(e.Gateway, prefs.NewManager(prefs.Scoped(e.Storage, profile)))
}

// NewEngine builds a drag engine over s using the configured pipeline policy.
func (e *Env) NewEngine(s *store.Store) *kanban.Engine {
	return kanban.NewEngine(s, kanban.WithPolicy(e.Policy))
}

func (e *Env) Close() error {
	if e.closer == nil {
		return nil
	}
	if err := e.closer(); err != nil {
		log.Printf("[cli] error closing preference storage: %v", err)
		return err
	}
	return nil
}
