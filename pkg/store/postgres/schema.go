package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"time"

	"github.com/rasphia/rasphia/internal"
	"github.com/rasphia/rasphia/pkg/models"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

var log = internal.GetLogger()

type ProductSchema struct {
	bun.BaseModel `bun:"table:product,alias:p"`

	UUID uuid.UUID `bun:",pk,type:uuid,default:gen_random_uuid()"`
	// ID is used as a stable tie-break for equal similarity scores; it
	// reflects catalog insertion order.
	ID          int64     `bun:",autoincrement"`
	CreatedAt   time.Time `bun:"type:timestamptz,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"type:timestamptz,nullzero,default:current_timestamp"`
	DeletedAt   time.Time `bun:"type:timestamptz,soft_delete,nullzero"`
	Name        string    `bun:",notnull,unique"`
	Description string    `bun:",notnull"`
	Brand       string    `bun:",nullzero"`
	Category    string    `bun:",nullzero"`
	Price       float64   `bun:",nullzero"`
	Story       string    `bun:",nullzero"`
	Tags        []string  `bun:",array"`
	Occasion    []string  `bun:",array"`
	Recipient   string    `bun:",nullzero"`
	ImageURL    string    `bun:",nullzero"`
	// Embedding is null while the product awaits lazy recompute. Null rows
	// are excluded from retrieval.
	Embedding *pgvector.Vector `bun:"type:vector(1536)"`
	Reviews   []*ReviewSchema  `bun:"rel:has-many,join:uuid=product_uuid"`
}

var _ bun.BeforeAppendModelHook = (*ProductSchema)(nil)

func (s *ProductSchema) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.UpdateQuery); ok {
		s.UpdatedAt = time.Now()
	}
	return nil
}

type ReviewSchema struct {
	bun.BaseModel `bun:"table:review,alias:r"`

	UUID        uuid.UUID      `bun:",pk,type:uuid,default:gen_random_uuid()"`
	CreatedAt   time.Time      `bun:"type:timestamptz,notnull,default:current_timestamp"`
	ProductUUID uuid.UUID      `bun:"type:uuid,notnull"`
	AuthorName  string         `bun:",notnull"`
	Rating      int            `bun:",notnull"`
	Comment     string         `bun:",nullzero"`
	Date        time.Time      `bun:"type:timestamptz,notnull,default:current_timestamp"`
	Product     *ProductSchema `bun:"rel:belongs-to,join:product_uuid=uuid,on_delete:cascade"`
}

var tableList = []any{
	(*ReviewSchema)(nil),
	(*ProductSchema)(nil),
}

// CreateSchema creates the db schema if it does not exist.
func CreateSchema(
	ctx context.Context,
	appState *models.AppState,
	db *bun.DB,
) error {
	// Create tables in reverse order, so that foreign keys are created after
	// the tables they reference.
	for i := len(tableList) - 1; i >= 0; i-- {
		schema := tableList[i]
		_, err := db.NewCreateTable().
			Model(schema).
			IfNotExists().
			WithForeignKeys().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("error creating table for schema %T: %w", schema, err)
		}
	}

	if err := checkProductEmbeddingDims(ctx, appState, db); err != nil {
		return fmt.Errorf("error checking product embedding dimensions: %w", err)
	}

	return nil
}

// checkProductEmbeddingDims checks the width of the product embedding column
// against the configured embedding model dimensions. If they do not match, the
// column is dropped and recreated, which discards any stored vectors.
func checkProductEmbeddingDims(
	ctx context.Context,
	appState *models.AppState,
	db *bun.DB,
) error {
	width, err := getEmbeddingColumnWidth(ctx, "product", db)
	if err != nil {
		return fmt.Errorf("error getting embedding column width: %w", err)
	}

	dimensions := appState.Config.Embeddings.Dimensions
	if width != dimensions {
		log.Warnf(
			"product embedding dimensions are %d, expected %d. migrating embedding column width to %d. this discards existing embedding vectors",
			width,
			dimensions,
			dimensions,
		)
		if err := migrateProductEmbeddingDims(ctx, db, dimensions); err != nil {
			return fmt.Errorf("error migrating product embedding dimensions: %w", err)
		}
	}
	return nil
}

// getEmbeddingColumnWidth returns the width of the embedding column in the provided table.
func getEmbeddingColumnWidth(ctx context.Context, tableName string, db *bun.DB) (int, error) {
	var width int
	err := db.NewSelect().
		Table("pg_attribute").
		ColumnExpr("atttypmod"). // vector width is stored in atttypmod
		Where("attrelid = ?::regclass", tableName).
		Where("attname = 'embedding'").
		Scan(ctx, &width)
	if err != nil {
		return 0, fmt.Errorf("error getting embedding column width: %w", err)
	}
	return width, nil
}

// migrateProductEmbeddingDims drops the old embedding column and creates a new
// one with the correct dimensions.
func migrateProductEmbeddingDims(
	ctx context.Context,
	db *bun.DB,
	dimensions int,
) error {
	columnQuery := `DO $$
BEGIN
    IF EXISTS (
        SELECT 1
        FROM   information_schema.columns
        WHERE  table_name = 'product'
        AND    column_name = 'embedding'
    ) THEN
        ALTER TABLE product DROP COLUMN embedding;
    END IF;
END $$;`

	_, err := db.ExecContext(ctx, columnQuery)
	if err != nil {
		return fmt.Errorf("error dropping column embedding: %w", err)
	}
	_, err = db.NewAddColumn().
		Model((*ProductSchema)(nil)).
		ColumnExpr(fmt.Sprintf("embedding vector(%d)", dimensions)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("error adding column embedding: %w", err)
	}

	return nil
}

// NewPostgresConn creates a new bun.DB connection to a postgres database using
// the provided DSN. The connection is configured to pool connections based on
// the number of PROCs available.
func NewPostgresConn(dsn string) (*bun.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	maxOpenConns := 4 * runtime.GOMAXPROCS(0)

	sqldb := sql.OpenDB(
		pgdriver.NewConnector(
			pgdriver.WithDSN(dsn),
			pgdriver.WithReadTimeout(1*time.Minute),
		),
	)
	sqldb.SetMaxOpenConns(maxOpenConns)
	sqldb.SetMaxIdleConns(maxOpenConns)

	db := bun.NewDB(sqldb, pgdialect.New())

	// Enable pgvector extension
	if err := enablePgVectorExtension(ctx, db); err != nil {
		return nil, fmt.Errorf("error enabling pgvector extension: %w", err)
	}

	return db, nil
}

func enablePgVectorExtension(ctx context.Context, db *bun.DB) error {
	_, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("error creating pgvector extension: %w", err)
	}
	return nil
}
