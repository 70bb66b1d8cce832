package models

import "strings"

type MessageAuthor string

const (
	AuthorUser MessageAuthor = "user"
	AuthorAI   MessageAuthor = "ai"
)

// Message is a single conversation turn. AI-authored turns may carry the
// recommended products and an optional comparison table.
type Message struct {
	Author          MessageAuthor    `json:"author"`
	Text            string           `json:"text"`
	Products        []Product        `json:"products,omitempty"`
	ComparisonTable *ComparisonTable `json:"comparisonTable,omitempty"`
}

// ComparisonTable is a small tabular rendering of product attributes.
// Every row must have exactly as many cells as there are headers.
type ComparisonTable struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// IsValid reports whether every row length matches the header length.
func (t *ComparisonTable) IsValid() bool {
	if t == nil || len(t.Headers) == 0 {
		return false
	}
	for _, row := range t.Rows {
		if len(row) != len(t.Headers) {
			return false
		}
	}
	return true
}

// ChatHistory is the caller-supplied ordered conversation, oldest first.
type ChatHistory []Message

// LatestUserText returns the text of the most recent user-authored turn.
// It returns ErrEmptyQuery when no user turn exists or the latest user turn
// is empty or whitespace-only.
func (h ChatHistory) LatestUserText() (string, error) {
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].Author != AuthorUser {
			continue
		}
		text := strings.TrimSpace(h[i].Text)
		if text == "" {
			return "", ErrEmptyQuery
		}
		return text, nil
	}
	return "", ErrEmptyQuery
}
