package llms

import (
	"context"
	"testing"

	"github.com/rasphia/rasphia/config"

	"github.com/stretchr/testify/assert"
)

func TestNewLLMClient(t *testing.T) {
	testCases := []struct {
		name        string
		cfg         *config.Config
		wantErr     bool
		errContains string
	}{
		{
			name: "OpenAI LLM",
			cfg: &config.Config{
				LLM: config.LLM{
					Service:      "openai",
					Model:        "gpt-3.5-turbo",
					OpenAIAPIKey: "test-key",
				},
			},
			wantErr: false,
		},
		{
			name: "Invalid OpenAI model",
			cfg: &config.Config{
				LLM: config.LLM{
					Service:      "openai",
					Model:        "not-a-model",
					OpenAIAPIKey: "test-key",
				},
			},
			wantErr:     true,
			errContains: "invalid llm model",
		},
		{
			name: "OpenAI custom endpoint skips model validation",
			cfg: &config.Config{
				LLM: config.LLM{
					Service:        "openai",
					Model:          "some-custom-model",
					OpenAIAPIKey:   "test-key",
					OpenAIEndpoint: "https://localhost:8080",
				},
			},
			wantErr: false,
		},
		{
			name: "Anthropic LLM",
			cfg: &config.Config{
				LLM: config.LLM{
					Service:         "anthropic",
					Model:           "claude-2",
					AnthropicAPIKey: "test-key",
				},
			},
			wantErr: false,
		},
		{
			name: "Invalid service",
			cfg: &config.Config{
				LLM: config.LLM{
					Service: "gemini",
					Model:   "gemini-pro",
				},
			},
			wantErr:     true,
			errContains: "invalid LLM service",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client, err := NewLLMClient(context.Background(), tc.cfg)
			if tc.wantErr {
				assert.Error(t, err)
				if tc.errContains != "" {
					assert.ErrorContains(t, err, tc.errContains)
				}
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestLLMError_Unwrap(t *testing.T) {
	original := assert.AnError
	err := NewLLMError("call failed", original)

	assert.ErrorContains(t, err, "call failed")
	assert.ErrorIs(t, err, original)
}
