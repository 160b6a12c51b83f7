package data

import (
	"os"
	"testing"

	"kire/cmd/routing-engine/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProviders() []conf.ProviderConfig {
	return []conf.ProviderConfig{
		{Name: "anthropic", Capabilities: []string{"text", "code"}, DefaultModel: "claude-sonnet", Priority: 20, Enabled: true},
		{Name: "openai", Capabilities: []string{"text", "code", "vision"}, DefaultModel: "gpt-4o", Priority: 10, Enabled: true},
		{Name: "disabled", Capabilities: []string{"text"}, DefaultModel: "x", Priority: 5, Enabled: false},
	}
}

func TestConfigProviderRegistry_PriorityOrder(t *testing.T) {
	logger := log.NewStdLogger(os.Stdout)
	registry := NewConfigProviderRegistry(testProviders(), logger)

	order := registry.PriorityOrder()
	require.Len(t, order, 2, "disabled providers are invisible")
	assert.Equal(t, []string{"openai", "anthropic"}, order)
}

func TestConfigProviderRegistry_Get(t *testing.T) {
	logger := log.NewStdLogger(os.Stdout)
	registry := NewConfigProviderRegistry(testProviders(), logger)

	provider, ok := registry.Get("openai")
	require.True(t, ok)
	assert.Equal(t, "gpt-4o", provider.DefaultModel)
	assert.True(t, provider.HasCapability("vision"))

	_, ok = registry.Get("disabled")
	assert.False(t, ok, "disabled provider must not resolve")

	_, ok = registry.Get("missing")
	assert.False(t, ok)
}

func TestConfigProviderRegistry_Swap(t *testing.T) {
	logger := log.NewStdLogger(os.Stdout)
	registry := NewConfigProviderRegistry(testProviders(), logger)

	registry.Swap([]conf.ProviderConfig{
		{Name: "local", Capabilities: []string{"embedding"}, DefaultModel: "llama3", Priority: 1, Enabled: true},
	})

	order := registry.PriorityOrder()
	assert.Equal(t, []string{"local"}, order, "swap replaces the whole table")

	_, ok := registry.Get("openai")
	assert.False(t, ok, "old providers gone after swap")
}
