package memstore

import (
	"context"
	"testing"

	"github.com/rasphia/rasphia/pkg/models"
	"github.com/rasphia/rasphia/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCtx = context.Background()

func newTestStore(t *testing.T, products ...*models.Product) *MemoryCatalogStore {
	t.Helper()
	s := NewMemoryCatalogStore(3)
	for _, p := range products {
		require.NoError(t, s.CreateProduct(testCtx, p))
	}
	return s
}

func TestSearchByVector_TopResult(t *testing.T) {
	p1 := &models.Product{Name: "Cedar Trail", Embedding: []float32{1, 0, 0}}
	p2 := &models.Product{Name: "Ocean Drift", Embedding: []float32{0, 1, 0}}
	p3 := &models.Product{Name: "Monsoon Memoir", Embedding: []float32{0, 0, 1}}
	s := newTestStore(t, p1, p2, p3)

	// Query vector constructed to be closest to p3.
	results, err := s.SearchByVector(testCtx, []float32{0.1, 0.1, 0.9}, 100, 8)
	require.NoError(t, err)

	require.NotEmpty(t, results)
	assert.Equal(t, "Monsoon Memoir", results[0].Product.Name)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestSearchByVector_ExcludesNilEmbeddings(t *testing.T) {
	embedded := &models.Product{Name: "Embedded", Embedding: []float32{1, 0, 0}}
	stale := &models.Product{Name: "Stale"}
	s := newTestStore(t, embedded, stale)

	results, err := s.SearchByVector(testCtx, []float32{1, 0, 0}, 100, 8)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "Embedded", results[0].Product.Name)
}

func TestSearchByVector_EmptyCatalogIsNotAnError(t *testing.T) {
	s := NewMemoryCatalogStore(3)

	results, err := s.SearchByVector(testCtx, []float32{1, 0, 0}, 100, 8)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchByVector_StableTieBreakByInsertionOrder(t *testing.T) {
	// Identical embeddings produce identical scores. The earliest-inserted
	// product must win the tie.
	first := &models.Product{Name: "First", Embedding: []float32{1, 0, 0}}
	second := &models.Product{Name: "Second", Embedding: []float32{1, 0, 0}}
	third := &models.Product{Name: "Third", Embedding: []float32{1, 0, 0}}
	s := newTestStore(t, first, second, third)

	results, err := s.SearchByVector(testCtx, []float32{1, 0, 0}, 100, 8)
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, "First", results[0].Product.Name)
	assert.Equal(t, "Second", results[1].Product.Name)
	assert.Equal(t, "Third", results[2].Product.Name)
}

func TestSearchByVector_RespectsResultLimit(t *testing.T) {
	s := NewMemoryCatalogStore(3)
	for i := 0; i < 10; i++ {
		require.NoError(t, s.CreateProduct(testCtx, &models.Product{
			Name:      uuid.NewString(),
			Embedding: []float32{1, float32(i) / 10, 0},
		}))
	}

	results, err := s.SearchByVector(testCtx, []float32{1, 0, 0}, 100, 4)
	require.NoError(t, err)
	assert.Len(t, results, 4)
}

func TestSearchByVector_DimensionMismatch(t *testing.T) {
	s := newTestStore(t, &models.Product{Name: "P", Embedding: []float32{1, 0, 0}})

	_, err := s.SearchByVector(testCtx, []float32{1, 0}, 100, 8)
	assert.ErrorIs(t, err, store.ErrEmbeddingMismatch)
}

func TestUpdateEmbedding(t *testing.T) {
	p := &models.Product{Name: "P"}
	s := newTestStore(t, p)

	err := s.UpdateEmbedding(testCtx, p.UUID, []float32{0.5, 0.5, 0})
	require.NoError(t, err)

	got, err := s.GetProduct(testCtx, p.UUID)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5, 0}, got.Embedding)

	// Wrong width is rejected.
	err = s.UpdateEmbedding(testCtx, p.UUID, []float32{0.5, 0.5})
	assert.ErrorIs(t, err, store.ErrEmbeddingMismatch)
}

func TestUpdateProduct_PreservesReviews(t *testing.T) {
	p := &models.Product{Name: "P", Description: "old"}
	s := newTestStore(t, p)

	require.NoError(t, s.AddReview(testCtx, p.UUID, models.Review{
		AuthorName: "Asha",
		Rating:     5,
		Comment:    "Lovely",
	}))

	updated := *p
	updated.Description = "new"
	updated.Embedding = nil
	require.NoError(t, s.UpdateProduct(testCtx, &updated))

	got, err := s.GetProduct(testCtx, p.UUID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Description)
	require.Len(t, got.Reviews, 1)
	assert.Equal(t, "Asha", got.Reviews[0].AuthorName)
}

func TestGetProductByName(t *testing.T) {
	p := &models.Product{Name: "Monsoon Memoir"}
	s := newTestStore(t, p)

	got, err := s.GetProductByName(testCtx, "Monsoon Memoir")
	require.NoError(t, err)
	assert.Equal(t, p.UUID, got.UUID)

	_, err = s.GetProductByName(testCtx, "Nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteProduct(t *testing.T) {
	p := &models.Product{Name: "P"}
	s := newTestStore(t, p)

	require.NoError(t, s.DeleteProduct(testCtx, p.UUID))

	_, err := s.GetProduct(testCtx, p.UUID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = s.DeleteProduct(testCtx, p.UUID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStoreIsolation_CallerCannotMutateStoreState(t *testing.T) {
	p := &models.Product{Name: "P", Tags: []string{"woody"}, Embedding: []float32{1, 0, 0}}
	s := newTestStore(t, p)

	got, err := s.GetProduct(testCtx, p.UUID)
	require.NoError(t, err)
	got.Tags[0] = "mutated"
	got.Embedding[0] = 99

	again, err := s.GetProduct(testCtx, p.UUID)
	require.NoError(t, err)
	assert.Equal(t, "woody", again.Tags[0])
	assert.Equal(t, float32(1), again.Embedding[0])
}
