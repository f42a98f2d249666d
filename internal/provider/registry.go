// internal/provider/registry.go
package provider

import (
	"sync"

	"go.uber.org/zap"

	"fiscal-bridge/internal/model"
	"fiscal-bridge/pkg/fiscal"
)

// ProviderFactory creates protocol dialect instances
type ProviderFactory func(logger *zap.Logger) fiscal.Provider

// Registry manages provider registration and lookup
type Registry struct {
	providers map[model.ProviderName]fiscal.Provider
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewRegistry creates a new provider registry
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		providers: make(map[model.ProviderName]fiscal.Provider),
		logger:    logger,
	}
}

// Register registers a provider factory
func (r *Registry) Register(name model.ProviderName, factory ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[name] = factory(r.logger)
	r.logger.Info("Provider registered",
		zap.String("provider", string(name)),
	)
}

// Get returns the dialect for a provider name. Unknown providers are an
// explicit error rather than a silent skip.
func (r *Registry) Get(name model.ProviderName) (fiscal.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.providers[name]
	if !exists {
		return nil, &model.UnsupportedProviderError{Provider: name}
	}
	return p, nil
}

// IsSupported checks if a provider is registered
func (r *Registry) IsSupported(name model.ProviderName) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.providers[name]
	return exists
}

// ListProviders returns all registered provider names
func (r *Registry) ListProviders() []model.ProviderName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]model.ProviderName, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
