// internal/provider/registry_init.go
package provider

import (
	"go.uber.org/zap"

	"fiscal-bridge/internal/model"
	"fiscal-bridge/internal/provider/caspos"
	"fiscal-bridge/internal/provider/omnitech"
	"fiscal-bridge/pkg/fiscal"
)

// RegisterDefaultProviders registers all supported protocol dialects
func RegisterDefaultProviders(registry *Registry, logger *zap.Logger) {
	registry.Register(model.ProviderCaspos, func(l *zap.Logger) fiscal.Provider {
		return caspos.New(l)
	})

	registry.Register(model.ProviderOmnitech, func(l *zap.Logger) fiscal.Provider {
		return omnitech.New(l)
	})

	logger.Info("Default providers registered",
		zap.Int("providers", len(registry.ListProviders())),
	)
}
