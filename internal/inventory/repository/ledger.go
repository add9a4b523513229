package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/wareflow/wareflow-backend/pkg/database"
)

// StockPair identifies a product/warehouse combination that has appeared
// in the movement log or the stock projection.
type StockPair struct {
	ProductID   int64 `db:"product_id"`
	WarehouseID int64 `db:"warehouse_id"`
}

// CheckSnapshot is the most recent counted quantity for a pair before a cutoff
type CheckSnapshot struct {
	CheckedAt time.Time `db:"created_at"`
	Quantity  int       `db:"actual_quantity"`
}

// MovementSums aggregates movement quantities for one pair over a window
type MovementSums struct {
	Imports      int
	Exports      int
	TransfersIn  int
	TransfersOut int
}

// LedgerRepository reads the movement log for historical reconstruction.
// Reconstruction replays movements backwards from the current projection,
// or forwards from the latest check snapshot when one exists.
type LedgerRepository struct {
	db *database.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// CandidatePairs returns every product/warehouse pair that could have had
// stock at any point: pairs present in the projection plus pairs touched
// by any movement.
func (r *LedgerRepository) CandidatePairs(ctx context.Context, warehouseID int64) ([]StockPair, error) {
	query := `
		SELECT product_id, warehouse_id FROM stock
		UNION
		SELECT d.product_id, i.warehouse_id
		FROM import_details d JOIN imports i ON i.id = d.import_id
		UNION
		SELECT d.product_id, e.warehouse_id
		FROM export_details d JOIN exports e ON e.id = d.export_id
		UNION
		SELECT d.product_id, t.from_warehouse_id
		FROM transfer_details d JOIN transfers t ON t.id = d.transfer_id
		UNION
		SELECT d.product_id, t.to_warehouse_id
		FROM transfer_details d JOIN transfers t ON t.id = d.transfer_id
		WHERE t.to_warehouse_id IS NOT NULL
	`
	args := []interface{}{}
	if warehouseID != 0 {
		query = `SELECT product_id, warehouse_id FROM (` + query + `) pairs WHERE warehouse_id = $1`
		args = append(args, warehouseID)
	}

	var pairs []StockPair
	if err := r.db.SelectContext(ctx, &pairs, query, args...); err != nil {
		return nil, err
	}

	return pairs, nil
}

// LatestCheckBefore returns the newest check snapshot for a pair strictly
// before the cutoff, or nil when the pair has never been counted.
func (r *LedgerRepository) LatestCheckBefore(ctx context.Context, productID, warehouseID int64, cutoff time.Time) (*CheckSnapshot, error) {
	query := `
		SELECT c.created_at, d.actual_quantity
		FROM inventory_check_details d
		JOIN inventory_checks c ON c.id = d.check_id
		WHERE d.product_id = $1 AND c.warehouse_id = $2 AND c.created_at < $3
		ORDER BY c.created_at DESC
		LIMIT 1
	`

	var snapshot CheckSnapshot
	err := r.db.GetContext(ctx, &snapshot, query, productID, warehouseID, cutoff)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &snapshot, nil
}

// SumsSince aggregates movements for a pair with created_at >= since
func (r *LedgerRepository) SumsSince(ctx context.Context, productID, warehouseID int64, since time.Time) (MovementSums, error) {
	cond := `created_at >= $3`
	return r.sums(ctx, cond, productID, warehouseID, since)
}

// SumsBetween aggregates movements for a pair with created_at > after
// and created_at < until
func (r *LedgerRepository) SumsBetween(ctx context.Context, productID, warehouseID int64, after, until time.Time) (MovementSums, error) {
	cond := `created_at > $3 AND m.created_at < $4`
	return r.sums(ctx, cond, productID, warehouseID, after, until)
}

// sums runs the four window aggregates. Each movement table is aliased m
// so the time condition applies uniformly.
func (r *LedgerRepository) sums(ctx context.Context, cond string, args ...interface{}) (MovementSums, error) {
	var sums MovementSums

	importQuery := `
		SELECT COALESCE(SUM(d.quantity), 0)
		FROM import_details d JOIN imports m ON m.id = d.import_id
		WHERE d.product_id = $1 AND m.warehouse_id = $2 AND m.` + cond
	if err := r.db.GetContext(ctx, &sums.Imports, importQuery, args...); err != nil {
		return sums, err
	}

	exportQuery := `
		SELECT COALESCE(SUM(d.quantity), 0)
		FROM export_details d JOIN exports m ON m.id = d.export_id
		WHERE d.product_id = $1 AND m.warehouse_id = $2 AND m.` + cond
	if err := r.db.GetContext(ctx, &sums.Exports, exportQuery, args...); err != nil {
		return sums, err
	}

	inQuery := `
		SELECT COALESCE(SUM(d.quantity), 0)
		FROM transfer_details d JOIN transfers m ON m.id = d.transfer_id
		WHERE d.product_id = $1 AND m.to_warehouse_id = $2 AND m.` + cond
	if err := r.db.GetContext(ctx, &sums.TransfersIn, inQuery, args...); err != nil {
		return sums, err
	}

	outQuery := `
		SELECT COALESCE(SUM(d.quantity), 0)
		FROM transfer_details d JOIN transfers m ON m.id = d.transfer_id
		WHERE d.product_id = $1 AND m.from_warehouse_id = $2 AND m.` + cond
	if err := r.db.GetContext(ctx, &sums.TransfersOut, outQuery, args...); err != nil {
		return sums, err
	}

	return sums, nil
}

// ProductTitles resolves product IDs to titles for reconstruction output
func (r *LedgerRepository) ProductTitles(ctx context.Context, ids []int64) (map[int64]string, error) {
	titles := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return titles, nil
	}

	query, args, err := sqlx.In(`SELECT id, title FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, err
		}
		titles[id] = title
	}

	return titles, rows.Err()
}
