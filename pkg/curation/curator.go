package curation

import (
	"context"

	"github.com/rasphia/rasphia/config"
	"github.com/rasphia/rasphia/pkg/models"

	"github.com/tmc/langchaingo/llms"
)

const (
	DefaultMaxResponseTokens = 512
	defaultTemperature       = 0.7
)

// Curator runs one conversation turn through the retrieval and generation
// pipeline: latest user text to query vector, query vector to a candidate
// product set, candidate set plus history to a grounded reply. It holds no
// per-turn state and is safe for concurrent use.
type Curator struct {
	appState *models.AppState
}

func NewCurator(appState *models.AppState) *Curator {
	return &Curator{appState: appState}
}

// Curate runs a structured turn and always returns a well-formed Message,
// unless the history carries no user text, in which case ErrEmptyQuery is
// returned and no provider call is made. Embedding and retrieval failures
// yield the unavailable fallback, an empty retrieval yields the clarifying
// fallback, and generation or parse failures yield the unclear fallback.
func (c *Curator) Curate(ctx context.Context, history models.ChatHistory) (*models.Message, error) {
	query, err := history.LatestUserText()
	if err != nil {
		return nil, err
	}

	results, fallback := c.retrieve(ctx, query)
	if fallback != nil {
		return fallback, nil
	}

	message, err := c.generateStructured(ctx, history, results)
	if err != nil {
		log.Errorf("curate generation failed: %v", err)
		return fallbackMessage(FallbackUnclearText), nil
	}

	return message, nil
}

// CurateStream runs a streaming turn, forwarding model tokens to streamFn as
// they arrive. Only the latest user message is sent to the model; this trades
// conversational context for latency on chat channels. Fallback states are
// delivered as a single streamed chunk. Context cancellation aborts the
// underlying model call and is returned as the context's error.
func (c *Curator) CurateStream(
	ctx context.Context,
	history models.ChatHistory,
	streamFn func(ctx context.Context, chunk []byte) error,
) error {
	query, err := history.LatestUserText()
	if err != nil {
		return err
	}

	results, fallback := c.retrieve(ctx, query)
	if fallback != nil {
		return streamFn(ctx, []byte(fallback.Text))
	}

	prompt, err := renderStreamingPrompt(query, results)
	if err != nil {
		log.Errorf("curate stream prompt failed: %v", err)
		return streamFn(ctx, []byte(FallbackUnclearText))
	}

	var streamed bool
	forward := func(ctx context.Context, chunk []byte) error {
		streamed = true
		return streamFn(ctx, chunk)
	}

	_, err = c.appState.LLMClient.Call(
		ctx,
		prompt,
		llms.WithTemperature(c.temperature()),
		llms.WithMaxTokens(c.maxResponseTokens()),
		llms.WithStreamingFunc(forward),
	)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Errorf("curate stream generation failed: %v", err)
		if streamed {
			// The stream is already committed; nothing coherent to append.
			return nil
		}
		return streamFn(ctx, []byte(FallbackUnclearText))
	}

	return nil
}

// retrieve embeds the query and searches the catalog. A non-nil fallback
// message means the turn is over: either a provider failed or nothing
// matched. Both conditions are logged and absorbed, never returned as errors.
func (c *Curator) retrieve(
	ctx context.Context,
	query string,
) ([]models.ProductSearchResult, *models.Message) {
	embeddings, err := c.appState.EmbeddingsClient.EmbedTexts(ctx, []string{query})
	if err != nil {
		log.Errorf("curate query embedding failed: %v", err)
		return nil, fallbackMessage(FallbackUnavailableText)
	}

	results, err := c.appState.CatalogStore.SearchByVector(
		ctx,
		embeddings[0],
		c.candidatePool(),
		c.resultLimit(),
	)
	if err != nil {
		log.Errorf("curate catalog search failed: %v", err)
		return nil, fallbackMessage(FallbackUnavailableText)
	}

	if len(results) == 0 {
		log.Debugf("curate found no catalog matches for query")
		return nil, fallbackMessage(FallbackNoMatchText)
	}

	log.Debugf("curate retrieved %d products", len(results))

	return results, nil
}

func fallbackMessage(text string) *models.Message {
	return &models.Message{Author: models.AuthorAI, Text: text}
}

func (c *Curator) candidatePool() int {
	if n := c.appState.Config.Curator.CandidatePool; n > 0 {
		return n
	}
	return config.DefaultCandidatePool
}

func (c *Curator) resultLimit() int {
	if n := c.appState.Config.Curator.ResultLimit; n > 0 {
		return n
	}
	return config.DefaultResultLimit
}

func (c *Curator) maxRecommendations() int {
	if n := c.appState.Config.Curator.MaxRecommendations; n > 0 {
		return n
	}
	return config.DefaultMaxRecommendations
}

func (c *Curator) temperature() float64 {
	if t := c.appState.Config.Curator.Temperature; t > 0 {
		return t
	}
	return defaultTemperature
}

func (c *Curator) maxResponseTokens() int {
	if n := c.appState.Config.Curator.MaxResponseTokens; n > 0 {
		return n
	}
	return DefaultMaxResponseTokens
}
