package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewFactory_UnknownProvider(t *testing.T) {
	_, err := NewFactory("cohere", "https://example.com", "key", zap.NewNop())
	assert.Error(t, err)
}

func TestFactory_OpenAIProvider(t *testing.T) {
	factory, err := NewFactory(ProviderOpenAI, "https://integrate.api.nvidia.com/v1", "key", zap.NewNop())
	require.NoError(t, err)

	client, err := factory.ClientFor("nvidia/llama-3.1-nemotron-ultra-253b-v1")
	require.NoError(t, err)

	rc, ok := client.(*retryClient)
	require.True(t, ok)
	assert.IsType(t, &OpenAIClient{}, rc.inner)
	assert.Equal(t, "nvidia/llama-3.1-nemotron-ultra-253b-v1", client.GetModel())
}

func TestFactory_AnthropicProvider(t *testing.T) {
	factory, err := NewFactory(ProviderAnthropic, "", "key", zap.NewNop())
	require.NoError(t, err)

	client, err := factory.ClientFor("claude-sonnet-4-20250514")
	require.NoError(t, err)

	rc, ok := client.(*retryClient)
	require.True(t, ok)
	assert.IsType(t, &AnthropicClient{}, rc.inner)
	assert.Equal(t, "claude-sonnet-4-20250514", client.GetModel())
}

func TestFactory_PerModelClients(t *testing.T) {
	factory, err := NewFactory(ProviderOpenAI, "https://example.com/v1", "key", zap.NewNop())
	require.NoError(t, err)

	schema, err := factory.ClientFor("small-model")
	require.NoError(t, err)
	sql, err := factory.ClientFor("big-model")
	require.NoError(t, err)

	assert.Equal(t, "small-model", schema.GetModel())
	assert.Equal(t, "big-model", sql.GetModel())
}
