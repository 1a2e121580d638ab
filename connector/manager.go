package connector

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

type standardConnector struct {
	provider Provider
	config   Config
}

var globalManager = &Manager{
	providers: make(map[string]Provider),
}

// Manager is the registry of providers by driver name.
type Manager struct {
	providers map[string]Provider
	mu        sync.RWMutex
}

// Register makes a provider available under name. A second registration
// replaces the first.
func Register(name string, provider Provider) {
	globalManager.mu.Lock()
	defer globalManager.mu.Unlock()
	globalManager.providers[name] = provider
}

// Providers returns the registered driver names, sorted.
func Providers() []string {
	globalManager.mu.RLock()
	defer globalManager.mu.RUnlock()
	names := make([]string, 0, len(globalManager.providers))
	for name := range globalManager.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New returns a connector for the provider registered as name.
func New(name string, config Config) (Connector, error) {
	globalManager.mu.RLock()
	provider, ok := globalManager.providers[name]
	globalManager.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("provider %s not registered", name)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &standardConnector{provider: provider, config: config}, nil
}

// Open connects through the provider registered as name, retrying when
// config.Retry is set.
func Open(ctx context.Context, name string, config Config) (Connection, error) {
	c, err := New(name, config)
	if err != nil {
		return nil, err
	}
	if config.Retry != nil {
		return c.ConnectWithRetry(ctx, *config.Retry)
	}
	return c.Connect(ctx)
}

func (c *standardConnector) Connect(ctx context.Context) (Connection, error) {
	if c.config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.ConnectTimeout)
		defer cancel()
	}
	conn, err := c.provider.Connect(ctx, c.config)
	if err != nil {
		return nil, err
	}
	if err := conn.Health(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("health check failed: %w", err)
	}
	return conn, nil
}

func (c *standardConnector) ConnectWithRetry(ctx context.Context, opts RetryConfig) (Connection, error) {
	return retryConnect(ctx, opts, c.Connect)
}

func (c *standardConnector) Close() error {
	return nil
}
