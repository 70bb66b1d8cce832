package curation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rasphia/rasphia/internal"
	"github.com/rasphia/rasphia/pkg/models"
)

// Fallback texts. These are part of the conversation contract: the curator
// always answers in persona, never with a raw error. The clarifying text must
// stay distinct from the unavailable text so callers can tell "no match" from
// "provider down".
const (
	FallbackUnavailableText = "Rasphia is currently unavailable. Please try again in a moment."

	FallbackNoMatchText = "Hmm, I couldn't find any products for that right now. " +
		"Could you tell me a bit more about what you're looking for?"

	FallbackUnclearText = "I couldn't quite form a clear response. " +
		"Could you describe what kind of vibe or person this gift is for?"
)

const structuredCuratorPrompt = `You are Rasphia, an elegant AI shopping curator.
You combine taste ("Rasa") with thought ("Sophia") to help users find meaningful gifts and perfumes.

- Speak warmly, naturally, and with empathy.
- Always weave sensory and emotional storytelling into your suggestions.
- Suggest from the provided product list only. Never invent products.
- Recommend at most three products, by their exact names.
- End your reply with an open-ended question.

Here are relevant products found from the catalog:
{{.ProductContext}}

Conversation so far:
{{.Conversation}}

Respond with a single JSON object conforming to this schema:
{{.Schema}}

Respond strictly as valid JSON per the schema. Do not include any other text.`

const streamingCuratorPrompt = `You are Rasphia, a warm, elegant AI shopping curator.
You use empathy, sensory storytelling, and taste-driven reasoning to help users find the perfect gifts or perfumes.

- Suggest from the provided product list only. Never invent products.
- Respond in natural, elegant prose, never JSON.
- Always end your response with a graceful, open-ended question.

Here are relevant products found from the catalog:
{{.ProductContext}}

User: {{.Query}}
Rasphia:`

// renderStreamingPrompt builds the single-turn streaming prompt. Streaming
// deliberately sends only the latest user message, not the full history.
func renderStreamingPrompt(query string, results []models.ProductSearchResult) (string, error) {
	return internal.ParsePrompt(streamingCuratorPrompt, streamingPromptData{
		ProductContext: renderProductContext(results),
		Query:          query,
	})
}

type structuredPromptData struct {
	ProductContext string
	Conversation   string
	Schema         string
}

type streamingPromptData struct {
	ProductContext string
	Query          string
}

// renderProductContext renders the retrieved products as a numbered list for
// the prompt. The rendering mirrors what grounding expects: the exact product
// name leads each line.
func renderProductContext(results []models.ProductSearchResult) string {
	var b strings.Builder
	for i, r := range results {
		p := r.Product
		category := p.Category
		if category == "" {
			category = "General"
		}
		price := "N/A"
		if p.Price > 0 {
			price = strconv.FormatFloat(p.Price, 'f', -1, 64)
		}
		fmt.Fprintf(&b, "%d. %s — %s (Category: %s, ₹%s)\n", i+1, p.Name, p.Description, category, price)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderConversation(history models.ChatHistory) string {
	lines := make([]string, len(history))
	for i, m := range history {
		author := "Rasphia"
		if m.Author == models.AuthorUser {
			author = "User"
		}
		lines[i] = author + ": " + m.Text
	}
	return strings.Join(lines, "\n")
}
