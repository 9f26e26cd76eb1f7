package cache

import (
	"context"
	"log/slog"
	"time"
)

// Key namespaces. Component-scoped entries embed the component full name
// (project.component) so they can be invalidated together.
const (
	keyPrefixStats   = "stats:"
	keyPrefixContent = "content:"
	keyPrefixConfig  = "config:"
)

// Manager wraps a cache backend and owns the domain key namespaces:
// per-component translation statistics, served file content, and site
// configuration values.
type Manager struct {
	backend Cacher

	statsTTL   time.Duration
	contentTTL time.Duration
	configTTL  time.Duration
}

// NewManager creates a cache manager on top of the given backend.
func NewManager(backend Cacher, defaultTTL time.Duration) *Manager {
	if defaultTTL == 0 {
		defaultTTL = time.Hour
	}
	return &Manager{
		backend:    backend,
		statsTTL:   defaultTTL,
		contentTTL: defaultTTL,
		configTTL:  5 * time.Minute,
	}
}

// GetStats returns cached serialized statistics for a component.
func (m *Manager) GetStats(ctx context.Context, fullName string) ([]byte, error) {
	return m.backend.Get(ctx, keyPrefixStats+fullName)
}

// SetStats caches serialized statistics for a component.
func (m *Manager) SetStats(ctx context.Context, fullName string, data []byte) error {
	return m.backend.Set(ctx, keyPrefixStats+fullName, data, m.statsTTL)
}

// GetContent returns cached file content for a component file.
func (m *Manager) GetContent(ctx context.Context, fullName, filename string) ([]byte, error) {
	return m.backend.Get(ctx, contentKey(fullName, filename))
}

// SetContent caches file content for a component file.
func (m *Manager) SetContent(ctx context.Context, fullName, filename string, data []byte) error {
	return m.backend.Set(ctx, contentKey(fullName, filename), data, m.contentTTL)
}

// GetConfig returns a cached configuration value.
func (m *Manager) GetConfig(ctx context.Context, key string) ([]byte, error) {
	return m.backend.Get(ctx, keyPrefixConfig+key)
}

// SetConfig caches a configuration value.
func (m *Manager) SetConfig(ctx context.Context, key string, value []byte) error {
	return m.backend.Set(ctx, keyPrefixConfig+key, value, m.configTTL)
}

// InvalidateComponent removes all cached entries for a component: its
// statistics and any served file content.
func (m *Manager) InvalidateComponent(ctx context.Context, fullName string) error {
	if err := m.backend.Delete(ctx, keyPrefixStats+fullName); err != nil {
		return err
	}
	return m.backend.DeleteByPrefix(ctx, keyPrefixContent+fullName+"/")
}

// InvalidateConfig removes all cached configuration values.
func (m *Manager) InvalidateConfig(ctx context.Context) error {
	return m.backend.DeleteByPrefix(ctx, keyPrefixConfig)
}

// ClearAll clears the whole cache and resets statistics.
func (m *Manager) ClearAll(ctx context.Context) error {
	if err := m.backend.Clear(ctx); err != nil {
		return err
	}
	if sp, ok := m.backend.(StatsProvider); ok {
		sp.ResetStats()
	}
	slog.Info("cache cleared", "category", "cache")
	return nil
}

// Stats returns backend statistics, or the zero value when the backend
// does not track them.
func (m *Manager) Stats() Stats {
	if sp, ok := m.backend.(StatsProvider); ok {
		return sp.Stats()
	}
	return Stats{}
}

// Close releases the backend.
func (m *Manager) Close() error {
	return m.backend.Close()
}

func contentKey(fullName, filename string) string {
	return keyPrefixContent + fullName + "/" + filename
}
