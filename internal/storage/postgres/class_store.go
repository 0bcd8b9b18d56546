package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"near-sft-market/internal/domain"
	"near-sft-market/internal/storage"
)

// ClassStore implements storage.ClassStore using PostgreSQL.
type ClassStore struct {
	pool *Pool
}

// NewClassStore creates a new ClassStore.
func NewClassStore(pool *Pool) *ClassStore {
	return &ClassStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ClassStore = (*ClassStore)(nil)

const classColumns = `
	token_class_id, title, description, media, media_hash,
	price_per_copy, cover_photo, creator_id, indexed_at
`

// Upsert inserts or replaces a class by its token_class_id.
func (s *ClassStore) Upsert(ctx context.Context, c *domain.TokenClass) error {
	if c == nil || c.TokenClassID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO token_classes (
			token_class_id, title, description, media, media_hash,
			price_per_copy, cover_photo, creator_id, indexed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (token_class_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			media = EXCLUDED.media,
			media_hash = EXCLUDED.media_hash,
			price_per_copy = EXCLUDED.price_per_copy,
			cover_photo = EXCLUDED.cover_photo,
			creator_id = EXCLUDED.creator_id,
			indexed_at = EXCLUDED.indexed_at
	`

	_, err := s.pool.Exec(ctx, query,
		c.TokenClassID,
		c.Metadata.Title,
		c.Metadata.Description,
		c.Metadata.Media,
		c.Metadata.MediaHash,
		c.Metadata.PricePerCopy,
		c.Metadata.CoverPhoto,
		c.CreatorID,
		c.IndexedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert class: %w", err)
	}
	return nil
}

// GetByID retrieves a class by its ID. Returns ErrNotFound if not exists.
func (s *ClassStore) GetByID(ctx context.Context, tokenClassID string) (*domain.TokenClass, error) {
	query := `SELECT ` + classColumns + ` FROM token_classes WHERE token_class_id = $1`

	row := s.pool.QueryRow(ctx, query, tokenClassID)
	c, err := scanClass(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get class by id: %w", err)
	}
	return c, nil
}

// GetAll retrieves all classes, ordered by token_class_id ASC.
func (s *ClassStore) GetAll(ctx context.Context) ([]*domain.TokenClass, error) {
	query := `SELECT ` + classColumns + ` FROM token_classes ORDER BY token_class_id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all classes: %w", err)
	}
	defer rows.Close()

	return scanClasses(rows)
}

// scanClass scans a single row into a TokenClass.
func scanClass(row pgx.Row) (*domain.TokenClass, error) {
	var c domain.TokenClass

	err := row.Scan(
		&c.TokenClassID,
		&c.Metadata.Title,
		&c.Metadata.Description,
		&c.Metadata.Media,
		&c.Metadata.MediaHash,
		&c.Metadata.PricePerCopy,
		&c.Metadata.CoverPhoto,
		&c.CreatorID,
		&c.IndexedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// scanClasses scans multiple rows into a slice of TokenClass.
func scanClasses(rows pgx.Rows) ([]*domain.TokenClass, error) {
	var classes []*domain.TokenClass

	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("scan class row: %w", err)
		}
		classes = append(classes, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate class rows: %w", err)
	}

	return classes, nil
}
