package models

import (
	"context"

	"github.com/google/uuid"
)

// CatalogStore persists products and serves similarity search over their
// embeddings. Implementations must be safe for concurrent use.
type CatalogStore interface {
	CreateProduct(ctx context.Context, product *Product) error
	UpdateProduct(ctx context.Context, product *Product) error
	DeleteProduct(ctx context.Context, productUUID uuid.UUID) error
	GetProduct(ctx context.Context, productUUID uuid.UUID) (*Product, error)
	GetProductByName(ctx context.Context, name string) (*Product, error)
	ListProducts(ctx context.Context, limit, offset int) ([]Product, error)
	AddReview(ctx context.Context, productUUID uuid.UUID, review Review) error
	// UpdateEmbedding stores the embedding for a product without touching
	// its descriptive fields.
	UpdateEmbedding(ctx context.Context, productUUID uuid.UUID, embedding []float32) error
	// SearchByVector returns up to resultLimit products ordered by descending
	// cosine similarity to queryVector, scanning at most candidatePool
	// approximate neighbors. Products with a nil embedding are excluded.
	// An empty result set is a valid outcome, not an error.
	SearchByVector(
		ctx context.Context,
		queryVector []float32,
		candidatePool int,
		resultLimit int,
	) ([]ProductSearchResult, error)
	Close() error
}
