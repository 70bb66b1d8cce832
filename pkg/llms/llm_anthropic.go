package llms

import (
	"context"
	"time"

	"github.com/rasphia/rasphia/config"
	"github.com/rasphia/rasphia/pkg/models"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
)

const AnthropicAPITimeout = 30 * time.Second
const AnthropicAPIKeyNotSetError = "RASPHIA_ANTHROPIC_API_KEY is not set" //nolint:gosec

var _ models.LLMClient = &AnthropicLLM{}

func NewAnthropicLLM(ctx context.Context, cfg *config.Config) (*AnthropicLLM, error) {
	llm := &AnthropicLLM{}
	err := llm.Init(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return llm, nil
}

type AnthropicLLM struct {
	client *anthropic.LLM
}

func (ac *AnthropicLLM) Init(_ context.Context, cfg *config.Config) error {
	options := ac.configureClient(cfg)

	// Create a new client instance with options
	llm, err := anthropic.New(options...)
	if err != nil {
		return err
	}
	ac.client = llm

	return nil
}

func (ac *AnthropicLLM) Call(ctx context.Context,
	prompt string,
	options ...llms.CallOption,
) (string, error) {
	// If the LLM is not initialized, return an error
	if ac.client == nil {
		return "", NewLLMError(InvalidLLMModelError, nil)
	}

	if len(options) == 0 {
		options = append(options, llms.WithTemperature(DefaultTemperature))
	}

	thisCtx, cancel := context.WithTimeout(ctx, AnthropicAPITimeout)
	defer cancel()

	prompt = "Human: " + prompt + "\nAssistant:"

	completion, err := ac.client.Call(thisCtx, prompt, options...)
	if err != nil {
		return "", err
	}

	return completion, nil
}

// GetTokenCount returns the number of tokens in the text.
// Return 0 for now, since we don't have a token count function for Anthropic
func (ac *AnthropicLLM) GetTokenCount(_ string) (int, error) {
	return 0, nil
}

func (ac *AnthropicLLM) configureClient(cfg *config.Config) []anthropic.Option {
	apiKey := cfg.LLM.AnthropicAPIKey
	// If the key is not set, log a fatal error and exit
	if apiKey == "" {
		log.Fatal(AnthropicAPIKeyNotSetError)
	}

	options := make([]anthropic.Option, 0)
	options = append(
		options,
		anthropic.WithModel(cfg.LLM.Model),
		anthropic.WithToken(apiKey),
	)

	return options
}
