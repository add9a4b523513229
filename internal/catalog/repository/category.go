package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/wareflow/wareflow-backend/pkg/database"
	"github.com/wareflow/wareflow-backend/pkg/errors"
)

// Category groups products
type Category struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Summary   *string   `db:"summary" json:"summary,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CategoryRepository handles category persistence
type CategoryRepository struct {
	db *database.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *database.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create creates a new category
func (r *CategoryRepository) Create(ctx context.Context, category *Category) error {
	query := `
		INSERT INTO categories (name, summary)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`

	return r.db.QueryRowxContext(ctx, query,
		category.Name, category.Summary,
	).Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
}

// GetByID gets a category by ID
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*Category, error) {
	var category Category

	query := `SELECT id, name, summary, created_at, updated_at FROM categories WHERE id = $1`
	err := r.db.GetContext(ctx, &category, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("category")
	}
	if err != nil {
		return nil, err
	}

	return &category, nil
}

// List lists all categories
func (r *CategoryRepository) List(ctx context.Context) ([]*Category, error) {
	var categories []*Category

	query := `SELECT id, name, summary, created_at, updated_at FROM categories ORDER BY name`
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, err
	}

	return categories, nil
}

// Update updates a category
func (r *CategoryRepository) Update(ctx context.Context, category *Category) error {
	query := `
		UPDATE categories SET name = $2, summary = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		category.ID, category.Name, category.Summary,
	).Scan(&category.UpdatedAt)
	if err == sql.ErrNoRows {
		return errors.NotFound("category")
	}
	return err
}

// Exists reports whether a category with the given ID exists
func (r *CategoryRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, err
	}
	return exists, nil
}
