package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fiscal-bridge/internal/model"
)

func TestRegistry_DefaultProviders(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	RegisterDefaultProviders(registry, zap.NewNop())

	assert.True(t, registry.IsSupported(model.ProviderCaspos))
	assert.True(t, registry.IsSupported(model.ProviderOmnitech))
	assert.Len(t, registry.ListProviders(), 2)

	p, err := registry.Get(model.ProviderCaspos)
	require.NoError(t, err)
	assert.Equal(t, model.ProviderCaspos, p.Name())
	assert.True(t, p.RequiresLogin())
}

func TestRegistry_UnsupportedProvider(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	RegisterDefaultProviders(registry, zap.NewNop())

	_, err := registry.Get(model.ProviderName("frontol"))
	require.Error(t, err)

	var unsupported *model.UnsupportedProviderError
	require.ErrorAs(t, err, &unsupported)
	assert.Contains(t, err.Error(), "frontol")
	assert.False(t, registry.IsSupported("frontol"))
}
