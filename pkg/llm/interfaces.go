// Package llm provides clients for OpenAI-compatible and Anthropic LLM endpoints.
package llm

import (
	"context"
)

// Client defines the text-completion capability every AI-backed agent
// consumes. The pipeline does not care which model or provider backs it, only
// that it returns text. Use this interface for dependency injection to enable
// mocking in tests.
type Client interface {
	// GenerateResponse generates a chat completion response.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// GetModel returns the configured model name.
	GetModel() string
}

// Config holds configuration for creating an LLM client.
type Config struct {
	Endpoint string // Base URL, e.g. "https://integrate.api.nvidia.com/v1"
	Model    string // Model name
	APIKey   string // Optional for local endpoints
}
