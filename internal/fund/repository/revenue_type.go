package repository

import (
	"context"
	"time"

	"github.com/wareflow/wareflow-backend/pkg/database"
)

// Revenue type categories
const (
	CategoryRevenue = "revenue"
	CategoryExpense = "expense"
)

// RevenueType classifies receipts
type RevenueType struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Category  string    `db:"category" json:"category"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RevenueTypeRepository handles revenue type persistence
type RevenueTypeRepository struct {
	db *database.DB
}

// NewRevenueTypeRepository creates a new revenue type repository
func NewRevenueTypeRepository(db *database.DB) *RevenueTypeRepository {
	return &RevenueTypeRepository{db: db}
}

// Create creates a new revenue type
func (r *RevenueTypeRepository) Create(ctx context.Context, revenueType *RevenueType) error {
	query := `
		INSERT INTO revenue_types (name, category)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		revenueType.Name, revenueType.Category,
	).Scan(&revenueType.ID, &revenueType.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// List lists all revenue types
func (r *RevenueTypeRepository) List(ctx context.Context) ([]*RevenueType, error) {
	var revenueTypes []*RevenueType

	query := `SELECT id, name, category, created_at FROM revenue_types ORDER BY name`
	if err := r.db.SelectContext(ctx, &revenueTypes, query); err != nil {
		return nil, err
	}

	return revenueTypes, nil
}

// Exists reports whether a revenue type with the given ID exists
func (r *RevenueTypeRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM revenue_types WHERE id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, err
	}
	return exists, nil
}
