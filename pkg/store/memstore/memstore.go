package memstore

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rasphia/rasphia/pkg/models"
	"github.com/rasphia/rasphia/pkg/store"

	"github.com/google/uuid"
	"github.com/viterin/vek/vek32"
)

// MemoryCatalogStore is an in-process CatalogStore. It is used for local
// development and tests, and brute-force scans the catalog on search.
// Safe for concurrent use.
type MemoryCatalogStore struct {
	mu sync.RWMutex
	// products preserves catalog insertion order. Search tie-breaks on equal
	// similarity are stable by this order, earliest first.
	products []*models.Product
	byUUID   map[uuid.UUID]*models.Product
	// dimensions is the embedding width enforced on writes. Zero disables
	// the check.
	dimensions int
}

var _ models.CatalogStore = &MemoryCatalogStore{}

func NewMemoryCatalogStore(dimensions int) *MemoryCatalogStore {
	return &MemoryCatalogStore{
		byUUID:     make(map[uuid.UUID]*models.Product),
		dimensions: dimensions,
	}
}

// LoadFixtures loads a JSON array of products from path into the store.
func (s *MemoryCatalogStore) LoadFixtures(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return store.NewStorageError("failed to read fixture file", err)
	}

	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return store.NewStorageError("failed to unmarshal fixture file", err)
	}

	for i := range products {
		if err := s.CreateProduct(ctx, &products[i]); err != nil {
			return err
		}
	}

	return nil
}

func (s *MemoryCatalogStore) CreateProduct(_ context.Context, product *models.Product) error {
	if err := s.validateEmbedding(product.Embedding); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if product.UUID == uuid.Nil {
		product.UUID = uuid.New()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now()
	}
	product.UpdatedAt = product.CreatedAt

	p := clone(product)
	s.products = append(s.products, p)
	s.byUUID[p.UUID] = p

	return nil
}

func (s *MemoryCatalogStore) UpdateProduct(_ context.Context, product *models.Product) error {
	if err := s.validateEmbedding(product.Embedding); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byUUID[product.UUID]
	if !ok {
		return models.NewNotFoundError("product " + product.UUID.String())
	}

	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now()
	product.Reviews = existing.Reviews
	*existing = *clone(product)

	return nil
}

func (s *MemoryCatalogStore) DeleteProduct(_ context.Context, productUUID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUUID[productUUID]; !ok {
		return models.NewNotFoundError("product " + productUUID.String())
	}

	delete(s.byUUID, productUUID)
	for i, p := range s.products {
		if p.UUID == productUUID {
			s.products = append(s.products[:i], s.products[i+1:]...)
			break
		}
	}

	return nil
}

func (s *MemoryCatalogStore) GetProduct(_ context.Context, productUUID uuid.UUID) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byUUID[productUUID]
	if !ok {
		return nil, models.NewNotFoundError("product " + productUUID.String())
	}

	return clone(p), nil
}

func (s *MemoryCatalogStore) GetProductByName(_ context.Context, name string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.Name == name {
			return clone(p), nil
		}
	}

	return nil, models.NewNotFoundError("product " + name)
}

func (s *MemoryCatalogStore) ListProducts(_ context.Context, limit, offset int) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if offset >= len(s.products) {
		return []models.Product{}, nil
	}

	end := len(s.products)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	products := make([]models.Product, 0, end-offset)
	for _, p := range s.products[offset:end] {
		products = append(products, *clone(p))
	}

	return products, nil
}

func (s *MemoryCatalogStore) AddReview(
	_ context.Context,
	productUUID uuid.UUID,
	review models.Review,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byUUID[productUUID]
	if !ok {
		return models.NewNotFoundError("product " + productUUID.String())
	}

	if review.Date.IsZero() {
		review.Date = time.Now()
	}
	p.Reviews = append(p.Reviews, review)

	return nil
}

func (s *MemoryCatalogStore) UpdateEmbedding(
	_ context.Context,
	productUUID uuid.UUID,
	embedding []float32,
) error {
	if err := s.validateEmbedding(embedding); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byUUID[productUUID]
	if !ok {
		return models.NewNotFoundError("product " + productUUID.String())
	}

	p.Embedding = append([]float32(nil), embedding...)
	p.UpdatedAt = time.Now()

	return nil
}

// SearchByVector brute-force scans the catalog, scoring each embedded product
// by cosine similarity. Products with a nil embedding are excluded. Results
// are ordered by descending score; ties preserve catalog insertion order.
// An empty catalog yields an empty result, not an error.
func (s *MemoryCatalogStore) SearchByVector(
	_ context.Context,
	queryVector []float32,
	candidatePool int,
	resultLimit int,
) ([]models.ProductSearchResult, error) {
	if len(queryVector) == 0 {
		return nil, store.NewStorageError("query vector is empty", nil)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]models.ProductSearchResult, 0, len(s.products))
	for _, p := range s.products {
		if p.Embedding == nil {
			continue
		}
		if len(p.Embedding) != len(queryVector) {
			return nil, store.NewEmbeddingMismatchError(nil)
		}
		score := float64(vek32.CosineSimilarity(queryVector, p.Embedding))
		results = append(results, models.ProductSearchResult{
			Product: *clone(p),
			Score:   score,
		})
	}

	// The results slice is in catalog insertion order, so a stable sort
	// keeps earliest-inserted products first on score ties.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if candidatePool > 0 && len(results) > candidatePool {
		results = results[:candidatePool]
	}
	if resultLimit > 0 && len(results) > resultLimit {
		results = results[:resultLimit]
	}

	return results, nil
}

func (s *MemoryCatalogStore) Close() error {
	return nil
}

func (s *MemoryCatalogStore) validateEmbedding(embedding []float32) error {
	if embedding == nil || s.dimensions == 0 {
		return nil
	}
	if len(embedding) != s.dimensions {
		return store.NewEmbeddingMismatchError(nil)
	}
	return nil
}

// clone deep-copies a product so callers can't mutate store state.
func clone(p *models.Product) *models.Product {
	c := *p
	if p.Embedding != nil {
		c.Embedding = append([]float32(nil), p.Embedding...)
	}
	if p.Tags != nil {
		c.Tags = append([]string(nil), p.Tags...)
	}
	if p.Occasion != nil {
		c.Occasion = append([]string(nil), p.Occasion...)
	}
	if p.Reviews != nil {
		c.Reviews = append([]models.Review(nil), p.Reviews...)
	}
	return &c
}
