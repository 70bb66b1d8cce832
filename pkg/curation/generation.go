package curation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/rasphia/rasphia/internal"
	"github.com/rasphia/rasphia/pkg/models"

	"github.com/invopop/jsonschema"
	"github.com/tmc/langchaingo/llms"
)

var log = internal.GetLogger()

// GenerationError wraps provider failures and schema-parse failures from the
// generation stage. Callers absorb it into a fallback message, never surface
// it to the end user.
type GenerationError struct {
	message       string
	originalError error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation error: %s (original error: %v)", e.message, e.originalError)
}

func (e *GenerationError) Unwrap() error {
	return e.originalError
}

func NewGenerationError(message string, originalError error) *GenerationError {
	return &GenerationError{message: message, originalError: originalError}
}

// CuratedResponse is the strict output contract of structured generation.
// Products carries names only; they are resolved back to full records against
// the retrieved set, never against the whole catalog.
type CuratedResponse struct {
	Response        string                  `json:"response"                  jsonschema:"required" jsonschema_description:"A warm, story-driven conversational reply ending with a question."`
	Products        []string                `json:"products"                  jsonschema:"required" jsonschema_description:"Up to 3 product names you are recommending, taken exactly from the product list."`
	ComparisonTable *models.ComparisonTable `json:"comparisonTable,omitempty" jsonschema_description:"An optional comparison of the recommended products. Every row must have one cell per header."`
}

var (
	responseSchemaOnce sync.Once
	responseSchemaJSON string
	responseSchemaErr  error
)

// CuratedResponseSchema returns the JSON schema of CuratedResponse rendered
// for inclusion in the prompt. The schema is immutable after construction and
// safe for concurrent reuse.
func CuratedResponseSchema() (string, error) {
	responseSchemaOnce.Do(func() {
		reflector := jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
		schema := reflector.Reflect(&CuratedResponse{})
		b, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			responseSchemaErr = err
			return
		}
		responseSchemaJSON = string(b)
	})
	return responseSchemaJSON, responseSchemaErr
}

func (c *Curator) generateStructured(
	ctx context.Context,
	history models.ChatHistory,
	results []models.ProductSearchResult,
) (*models.Message, error) {
	schema, err := CuratedResponseSchema()
	if err != nil {
		return nil, NewGenerationError("render response schema", err)
	}

	prompt, err := internal.ParsePrompt(structuredCuratorPrompt, structuredPromptData{
		ProductContext: renderProductContext(results),
		Conversation:   renderConversation(history),
		Schema:         schema,
	})
	if err != nil {
		return nil, NewGenerationError("render curator prompt", err)
	}

	if tokens, err := c.appState.LLMClient.GetTokenCount(prompt); err == nil && tokens > 0 {
		log.Debugf("curator prompt token count: %d", tokens)
	}

	completion, err := c.appState.LLMClient.Call(
		ctx,
		prompt,
		llms.WithTemperature(c.temperature()),
		llms.WithMaxTokens(c.maxResponseTokens()),
	)
	if err != nil {
		return nil, NewGenerationError("curator completion failed", err)
	}

	parsed, err := parseCuratedResponse(completion)
	if err != nil {
		log.Warnf("failed to parse curator completion: %v. raw: %s", err, completion)
		return nil, err
	}

	return &models.Message{
		Author:          models.AuthorAI,
		Text:            parsed.Response,
		Products:        groundProducts(parsed.Products, results, c.maxRecommendations()),
		ComparisonTable: normalizeTable(parsed.ComparisonTable),
	}, nil
}

// parseCuratedResponse parses a model completion into a CuratedResponse.
// Models routinely wrap JSON in markdown fences; strip them before parsing.
func parseCuratedResponse(completion string) (*CuratedResponse, error) {
	text := strings.TrimSpace(completion)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var parsed CuratedResponse
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, NewGenerationError("unmarshal curator completion", err)
	}
	if strings.TrimSpace(parsed.Response) == "" {
		return nil, NewGenerationError("curator completion has no response text", nil)
	}
	return &parsed, nil
}

// groundProducts resolves recommended names back to records from the
// retrieved set. Names the model invented are dropped silently; the result is
// capped at maxRecommendations.
func groundProducts(
	names []string,
	results []models.ProductSearchResult,
	maxRecommendations int,
) []models.Product {
	var products []models.Product
	for _, name := range names {
		if len(products) == maxRecommendations {
			break
		}
		product, ok := models.FindByName(results, name)
		if !ok {
			log.Debugf("dropping recommendation %q: not in the retrieved set", name)
			continue
		}
		products = append(products, product)
	}
	return products
}

// normalizeTable strips rows whose cell count does not match the headers.
// A table without headers, or with no well-formed rows, is dropped entirely.
func normalizeTable(table *models.ComparisonTable) *models.ComparisonTable {
	if table == nil || len(table.Headers) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		if len(row) != len(table.Headers) {
			log.Debugf("dropping comparison table row with %d cells, want %d", len(row), len(table.Headers))
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil
	}
	return &models.ComparisonTable{Headers: table.Headers, Rows: rows}
}
