package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/wareflow/wareflow-backend/pkg/database"
	"github.com/wareflow/wareflow-backend/pkg/errors"
)

// Supplier represents a goods supplier
type Supplier struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Contact   *string   `db:"contact" json:"contact,omitempty"`
	Address   *string   `db:"address" json:"address,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SupplierRepository handles supplier persistence
type SupplierRepository struct {
	db *database.DB
}

// NewSupplierRepository creates a new supplier repository
func NewSupplierRepository(db *database.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

// Create creates a new supplier
func (r *SupplierRepository) Create(ctx context.Context, supplier *Supplier) error {
	query := `
		INSERT INTO suppliers (name, contact, address)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	return r.db.QueryRowxContext(ctx, query,
		supplier.Name, supplier.Contact, supplier.Address,
	).Scan(&supplier.ID, &supplier.CreatedAt)
}

// GetByID gets a supplier by ID
func (r *SupplierRepository) GetByID(ctx context.Context, id int64) (*Supplier, error) {
	var supplier Supplier

	query := `SELECT id, name, contact, address, created_at FROM suppliers WHERE id = $1`
	err := r.db.GetContext(ctx, &supplier, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("supplier")
	}
	if err != nil {
		return nil, err
	}

	return &supplier, nil
}

// List lists all suppliers
func (r *SupplierRepository) List(ctx context.Context) ([]*Supplier, error) {
	var suppliers []*Supplier

	query := `SELECT id, name, contact, address, created_at FROM suppliers ORDER BY name`
	if err := r.db.SelectContext(ctx, &suppliers, query); err != nil {
		return nil, err
	}

	return suppliers, nil
}

// Exists reports whether a supplier with the given ID exists
func (r *SupplierRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM suppliers WHERE id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, err
	}
	return exists, nil
}
