package postgres

import (
	"context"

	"github.com/rasphia/rasphia/pkg/models"
	"github.com/rasphia/rasphia/pkg/store"

	"github.com/pgvector/pgvector-go"
	"github.com/uptrace/bun"
)

type productSearchRow struct {
	ProductSchema
	Score float64 `bun:"score"`
}

// SearchByVector runs a two-stage cosine similarity search: an inner query
// scans up to candidatePool approximate neighbors ordered by vector distance,
// and the outer query re-orders that pool by score with a stable serial-id
// tie-break before truncating to resultLimit. Products with a null embedding
// never enter the pool. An empty result set is a valid outcome.
func (pcs *PostgresCatalogStore) SearchByVector(
	ctx context.Context,
	queryVector []float32,
	candidatePool int,
	resultLimit int,
) ([]models.ProductSearchResult, error) {
	if len(queryVector) == 0 {
		return nil, store.NewStorageError("query vector is empty", nil)
	}
	if candidatePool <= 0 {
		candidatePool = DefaultCandidatePool
	}
	if resultLimit <= 0 {
		resultLimit = DefaultResultLimit
	}

	v := pgvector.NewVector(queryVector)

	// Cosine similarity is 1 - (a <=> b). Ordering the inner query by the
	// distance operator is required for a pgvector index to be used.
	candidates := pcs.Client.NewSelect().
		Model((*ProductSchema)(nil)).
		ColumnExpr("p.*").
		ColumnExpr("1 - (embedding <=> ?) AS score", v).
		Where("embedding IS NOT NULL").
		OrderExpr("embedding <=> ?", v).
		Limit(candidatePool)

	var rows []productSearchRow
	err := pcs.Client.NewSelect().
		TableExpr("(?) AS c", candidates).
		ColumnExpr("c.*").
		OrderExpr("c.score DESC, c.id ASC").
		Limit(resultLimit).
		Scan(ctx, &rows)
	if err != nil {
		return nil, store.NewStorageError("product vector search failed", err)
	}

	results := make([]models.ProductSearchResult, len(rows))
	for i := range rows {
		results[i] = models.ProductSearchResult{
			Product: *productFromProductSchema(&rows[i].ProductSchema),
			Score:   rows[i].Score,
		}
	}

	return results, nil
}

const (
	DefaultCandidatePool = 100
	DefaultResultLimit   = 8
)

// CreateProductIndex creates an ivfflat index over the product embedding
// column. Call this once the catalog is large enough for approximate search
// to pay off.
func CreateProductIndex(ctx context.Context, db *bun.DB, listCount int) error {
	if listCount <= 0 {
		listCount = 100
	}
	_, err := db.ExecContext(
		ctx,
		"CREATE INDEX IF NOT EXISTS product_embedding_idx ON product USING ivfflat (embedding vector_cosine_ops) WITH (lists = ?)",
		listCount,
	)
	if err != nil {
		return store.NewStorageError("failed to create product embedding index", err)
	}

	return nil
}
