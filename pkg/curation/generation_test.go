package curation

import (
	"testing"

	"github.com/rasphia/rasphia/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCuratedResponse(t *testing.T) {
	testCases := []struct {
		name       string
		completion string
		wantErr    bool
		want       string
	}{
		{
			name:       "bare json",
			completion: `{"response": "Lovely choice. For whom?", "products": ["Cedar Trail"]}`,
			want:       "Lovely choice. For whom?",
		},
		{
			name:       "json fence",
			completion: "```json\n{\"response\": \"Lovely choice. For whom?\", \"products\": []}\n```",
			want:       "Lovely choice. For whom?",
		},
		{
			name:       "plain fence",
			completion: "```\n{\"response\": \"Lovely choice. For whom?\", \"products\": []}\n```",
			want:       "Lovely choice. For whom?",
		},
		{
			name:       "not json",
			completion: "I would suggest the Cedar Trail!",
			wantErr:    true,
		},
		{
			name:       "empty response text",
			completion: `{"response": "  ", "products": []}`,
			wantErr:    true,
		},
		{
			name:       "empty completion",
			completion: "",
			wantErr:    true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := parseCuratedResponse(tc.completion)
			if tc.wantErr {
				assert.Error(t, err)
				var genErr *GenerationError
				assert.ErrorAs(t, err, &genErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, parsed.Response)
		})
	}
}

func TestGroundProducts(t *testing.T) {
	results := []models.ProductSearchResult{
		{Product: models.Product{Name: "Monsoon Memoir"}, Score: 0.95},
		{Product: models.Product{Name: "Cedar Trail"}, Score: 0.90},
		{Product: models.Product{Name: "Gilded Hour"}, Score: 0.85},
		{Product: models.Product{Name: "Velvet Ledger"}, Score: 0.80},
	}

	t.Run("drops names outside the retrieved set", func(t *testing.T) {
		got := groundProducts([]string{"Monsoon Memoir", "Imaginary Item", "Cedar Trail"}, results, 3)
		require.Len(t, got, 2)
		assert.Equal(t, "Monsoon Memoir", got[0].Name)
		assert.Equal(t, "Cedar Trail", got[1].Name)
	})

	t.Run("caps at the recommendation limit", func(t *testing.T) {
		got := groundProducts(
			[]string{"Monsoon Memoir", "Cedar Trail", "Gilded Hour", "Velvet Ledger"},
			results,
			3,
		)
		assert.Len(t, got, 3)
	})

	t.Run("matching is exact, not fuzzy", func(t *testing.T) {
		got := groundProducts([]string{"monsoon memoir", "Cedar Trail "}, results, 3)
		assert.Empty(t, got)
	})

	t.Run("no names", func(t *testing.T) {
		assert.Empty(t, groundProducts(nil, results, 3))
	})
}

func TestNormalizeTable(t *testing.T) {
	t.Run("nil table", func(t *testing.T) {
		assert.Nil(t, normalizeTable(nil))
	})

	t.Run("no headers", func(t *testing.T) {
		assert.Nil(t, normalizeTable(&models.ComparisonTable{Rows: [][]string{{"a"}}}))
	})

	t.Run("strips malformed rows", func(t *testing.T) {
		got := normalizeTable(&models.ComparisonTable{
			Headers: []string{"Name", "Price"},
			Rows: [][]string{
				{"Monsoon Memoir", "4200"},
				{"Cedar Trail"},
				{"Gilded Hour", "5600", "extra"},
				{"Velvet Ledger", "1800"},
			},
		})
		require.NotNil(t, got)
		assert.True(t, got.IsValid())
		assert.Equal(t, [][]string{
			{"Monsoon Memoir", "4200"},
			{"Velvet Ledger", "1800"},
		}, got.Rows)
	})

	t.Run("all rows malformed", func(t *testing.T) {
		got := normalizeTable(&models.ComparisonTable{
			Headers: []string{"Name", "Price"},
			Rows:    [][]string{{"Cedar Trail"}},
		})
		assert.Nil(t, got)
	})
}

func TestCuratedResponseSchema(t *testing.T) {
	schema, err := CuratedResponseSchema()
	require.NoError(t, err)

	assert.Contains(t, schema, `"response"`)
	assert.Contains(t, schema, `"products"`)
	assert.Contains(t, schema, `"comparisonTable"`)
	assert.Contains(t, schema, `"required"`)
}

func TestRenderProductContext(t *testing.T) {
	results := []models.ProductSearchResult{
		{Product: models.Product{Name: "Monsoon Memoir", Description: "Petrichor and old paper", Category: "Perfume", Price: 4200}},
		{Product: models.Product{Name: "Mystery Box", Description: "Unpriced and uncategorized"}},
	}

	got := renderProductContext(results)

	assert.Contains(t, got, "1. Monsoon Memoir — Petrichor and old paper (Category: Perfume, ₹4200)")
	assert.Contains(t, got, "2. Mystery Box — Unpriced and uncategorized (Category: General, ₹N/A)")
}
