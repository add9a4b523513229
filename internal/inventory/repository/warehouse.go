package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/wareflow/wareflow-backend/pkg/database"
	"github.com/wareflow/wareflow-backend/pkg/errors"
)

// Warehouse represents a storage location
type Warehouse struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Location  *string   `db:"location" json:"location,omitempty"`
	Capacity  int       `db:"capacity" json:"capacity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// WarehouseRepository handles warehouse persistence
type WarehouseRepository struct {
	db *database.DB
}

// NewWarehouseRepository creates a new warehouse repository
func NewWarehouseRepository(db *database.DB) *WarehouseRepository {
	return &WarehouseRepository{db: db}
}

// Create creates a new warehouse
func (r *WarehouseRepository) Create(ctx context.Context, warehouse *Warehouse) error {
	query := `
		INSERT INTO warehouses (name, location, capacity)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		warehouse.Name, warehouse.Location, warehouse.Capacity,
	).Scan(&warehouse.ID, &warehouse.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a warehouse by ID
func (r *WarehouseRepository) GetByID(ctx context.Context, id int64) (*Warehouse, error) {
	var warehouse Warehouse

	query := `SELECT id, name, location, capacity, created_at FROM warehouses WHERE id = $1`
	err := r.db.GetContext(ctx, &warehouse, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("warehouse")
	}
	if err != nil {
		return nil, err
	}

	return &warehouse, nil
}

// List lists all warehouses
func (r *WarehouseRepository) List(ctx context.Context) ([]*Warehouse, error) {
	var warehouses []*Warehouse

	query := `SELECT id, name, location, capacity, created_at FROM warehouses ORDER BY name`
	if err := r.db.SelectContext(ctx, &warehouses, query); err != nil {
		return nil, err
	}

	return warehouses, nil
}

// Exists reports whether a warehouse with the given ID exists
func (r *WarehouseRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM warehouses WHERE id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, err
	}
	return exists, nil
}
