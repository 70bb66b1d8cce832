package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rasphia/rasphia/pkg/models"
	"github.com/rasphia/rasphia/pkg/store"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/uptrace/bun"
)

// NewPostgresCatalogStore returns a new PostgresCatalogStore. Use this to
// correctly initialize the store.
func NewPostgresCatalogStore(
	appState *models.AppState,
	client *bun.DB,
) (*PostgresCatalogStore, error) {
	if appState == nil {
		return nil, store.NewStorageError("nil appState received", nil)
	}

	pcs := &PostgresCatalogStore{
		BaseCatalogStore: store.BaseCatalogStore[*bun.DB]{Client: client},
		appState:         appState,
	}

	err := pcs.OnStart(context.Background())
	if err != nil {
		return nil, store.NewStorageError("failed to run OnStart", err)
	}
	return pcs, nil
}

// Force compiler to validate that PostgresCatalogStore implements the CatalogStore interface.
var _ models.CatalogStore = &PostgresCatalogStore{}

type PostgresCatalogStore struct {
	store.BaseCatalogStore[*bun.DB]
	appState *models.AppState
}

func (pcs *PostgresCatalogStore) OnStart(ctx context.Context) error {
	err := CreateSchema(ctx, pcs.appState, pcs.Client)
	if err != nil {
		return store.NewStorageError("failed to ensure postgres schema setup", err)
	}

	return nil
}

func (pcs *PostgresCatalogStore) CreateProduct(
	ctx context.Context,
	product *models.Product,
) error {
	row := productSchemaFromProduct(product)
	_, err := pcs.Client.NewInsert().
		Model(row).
		Returning("uuid, created_at").
		Exec(ctx)
	if err != nil {
		return store.NewStorageError("failed to create product", err)
	}

	product.UUID = row.UUID
	product.CreatedAt = row.CreatedAt

	return nil
}

func (pcs *PostgresCatalogStore) UpdateProduct(
	ctx context.Context,
	product *models.Product,
) error {
	row := productSchemaFromProduct(product)
	r, err := pcs.Client.NewUpdate().
		Model(row).
		Column(
			"name",
			"description",
			"brand",
			"category",
			"price",
			"story",
			"tags",
			"occasion",
			"recipient",
			"image_url",
			"embedding",
			"updated_at",
		).
		Where("uuid = ?", product.UUID).
		Exec(ctx)
	if err != nil {
		return store.NewStorageError("failed to update product", err)
	}

	return rowsUpdatedOrNotFound(r, "product")
}

func (pcs *PostgresCatalogStore) DeleteProduct(
	ctx context.Context,
	productUUID uuid.UUID,
) error {
	r, err := pcs.Client.NewDelete().
		Model((*ProductSchema)(nil)).
		Where("uuid = ?", productUUID).
		Exec(ctx)
	if err != nil {
		return store.NewStorageError("failed to delete product", err)
	}

	return rowsUpdatedOrNotFound(r, "product")
}

func (pcs *PostgresCatalogStore) GetProduct(
	ctx context.Context,
	productUUID uuid.UUID,
) (*models.Product, error) {
	row := &ProductSchema{}
	err := pcs.Client.NewSelect().
		Model(row).
		Relation("Reviews").
		Where("p.uuid = ?", productUUID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("product " + productUUID.String())
		}
		return nil, store.NewStorageError("failed to get product", err)
	}

	return productFromProductSchema(row), nil
}

func (pcs *PostgresCatalogStore) GetProductByName(
	ctx context.Context,
	name string,
) (*models.Product, error) {
	row := &ProductSchema{}
	err := pcs.Client.NewSelect().
		Model(row).
		Relation("Reviews").
		Where("p.name = ?", name).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("product " + name)
		}
		return nil, store.NewStorageError("failed to get product by name", err)
	}

	return productFromProductSchema(row), nil
}

func (pcs *PostgresCatalogStore) ListProducts(
	ctx context.Context,
	limit int,
	offset int,
) ([]models.Product, error) {
	var rows []ProductSchema
	query := pcs.Client.NewSelect().
		Model(&rows).
		Relation("Reviews").
		Order("id ASC").
		Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, store.NewStorageError("failed to list products", err)
	}

	products := make([]models.Product, len(rows))
	for i := range rows {
		products[i] = *productFromProductSchema(&rows[i])
	}

	return products, nil
}

func (pcs *PostgresCatalogStore) AddReview(
	ctx context.Context,
	productUUID uuid.UUID,
	review models.Review,
) error {
	if review.Date.IsZero() {
		review.Date = time.Now()
	}
	row := &ReviewSchema{
		ProductUUID: productUUID,
		AuthorName:  review.AuthorName,
		Rating:      review.Rating,
		Comment:     review.Comment,
		Date:        review.Date,
	}
	_, err := pcs.Client.NewInsert().Model(row).Exec(ctx)
	if err != nil {
		return store.NewStorageError("failed to add review", err)
	}

	return nil
}

// UpdateEmbedding stores the embedding for a product. A nil embedding marks
// the product stale, excluding it from retrieval until recomputed.
func (pcs *PostgresCatalogStore) UpdateEmbedding(
	ctx context.Context,
	productUUID uuid.UUID,
	embedding []float32,
) error {
	var vec *pgvector.Vector
	if embedding != nil {
		if len(embedding) != pcs.appState.Config.Embeddings.Dimensions {
			return store.NewEmbeddingMismatchError(nil)
		}
		v := pgvector.NewVector(embedding)
		vec = &v
	}

	r, err := pcs.Client.NewUpdate().
		Model((*ProductSchema)(nil)).
		Set("embedding = ?", vec).
		Set("updated_at = ?", time.Now()).
		Where("uuid = ?", productUUID).
		Exec(ctx)
	if err != nil {
		return store.NewStorageError("failed to update embedding", err)
	}

	return rowsUpdatedOrNotFound(r, "product")
}

func (pcs *PostgresCatalogStore) Close() error {
	if pcs.Client != nil {
		return pcs.Client.Close()
	}
	return nil
}

func rowsUpdatedOrNotFound(r sql.Result, resource string) error {
	rows, err := r.RowsAffected()
	if err != nil {
		return store.NewStorageError("failed to get affected rows", err)
	}
	if rows == 0 {
		return models.NewNotFoundError(resource)
	}
	return nil
}

func productSchemaFromProduct(product *models.Product) *ProductSchema {
	var vec *pgvector.Vector
	if product.Embedding != nil {
		v := pgvector.NewVector(product.Embedding)
		vec = &v
	}
	return &ProductSchema{
		UUID:        product.UUID,
		CreatedAt:   product.CreatedAt,
		Name:        product.Name,
		Description: product.Description,
		Brand:       product.Brand,
		Category:    product.Category,
		Price:       product.Price,
		Story:       product.Story,
		Tags:        product.Tags,
		Occasion:    product.Occasion,
		Recipient:   string(product.Recipient),
		ImageURL:    product.ImageURL,
		Embedding:   vec,
	}
}

func productFromProductSchema(row *ProductSchema) *models.Product {
	var embedding []float32
	if row.Embedding != nil {
		embedding = row.Embedding.Slice()
	}
	reviews := make([]models.Review, len(row.Reviews))
	for i, r := range row.Reviews {
		reviews[i] = models.Review{
			AuthorName: r.AuthorName,
			Rating:     r.Rating,
			Comment:    r.Comment,
			Date:       r.Date,
		}
	}
	return &models.Product{
		UUID:        row.UUID,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		Name:        row.Name,
		Description: row.Description,
		Brand:       row.Brand,
		Category:    row.Category,
		Price:       row.Price,
		Story:       row.Story,
		Tags:        row.Tags,
		Occasion:    row.Occasion,
		Recipient:   models.Recipient(row.Recipient),
		ImageURL:    row.ImageURL,
		Embedding:   embedding,
		Reviews:     reviews,
	}
}
