package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/wareflow/wareflow-backend/pkg/database"
)

// ShippingCarrier represents a delivery company
type ShippingCarrier struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CarrierRepository handles shipping carrier persistence
type CarrierRepository struct {
	db *database.DB
}

// NewCarrierRepository creates a new carrier repository
func NewCarrierRepository(db *database.DB) *CarrierRepository {
	return &CarrierRepository{db: db}
}

// placeholder returns the positional bind parameter for argument n
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// Create creates a new shipping carrier
func (r *CarrierRepository) Create(ctx context.Context, carrier *ShippingCarrier) error {
	query := `
		INSERT INTO shipping_carriers (name, phone)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	return r.db.QueryRowxContext(ctx, query,
		carrier.Name, carrier.Phone,
	).Scan(&carrier.ID, &carrier.CreatedAt)
}

// List lists all shipping carriers
func (r *CarrierRepository) List(ctx context.Context) ([]*ShippingCarrier, error) {
	var carriers []*ShippingCarrier

	query := `SELECT id, name, phone, created_at FROM shipping_carriers ORDER BY name`
	if err := r.db.SelectContext(ctx, &carriers, query); err != nil {
		return nil, err
	}

	return carriers, nil
}

// Exists reports whether a carrier with the given ID exists
func (r *CarrierRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM shipping_carriers WHERE id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, err
	}
	return exists, nil
}
