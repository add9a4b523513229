package service

import (
	"context"
	"sort"
	"time"

	"github.com/wareflow/wareflow-backend/internal/inventory/repository"
	"github.com/wareflow/wareflow-backend/pkg/logger"
)

// LedgerStore reads the movement log for reconstruction
type LedgerStore interface {
	CandidatePairs(ctx context.Context, warehouseID int64) ([]repository.StockPair, error)
	LatestCheckBefore(ctx context.Context, productID, warehouseID int64, cutoff time.Time) (*repository.CheckSnapshot, error)
	SumsSince(ctx context.Context, productID, warehouseID int64, since time.Time) (repository.MovementSums, error)
	SumsBetween(ctx context.Context, productID, warehouseID int64, after, until time.Time) (repository.MovementSums, error)
	ProductTitles(ctx context.Context, ids []int64) (map[int64]string, error)
}

// StockReader reads the current stock projection
type StockReader interface {
	Get(ctx context.Context, productID, warehouseID int64) (int, error)
}

// InitialStock is the reconstructed quantity of a product in a warehouse
// at the end of a target day
type InitialStock struct {
	ProductID    int64  `json:"product_id"`
	ProductTitle string `json:"name"`
	WarehouseID  int64  `json:"warehouse_id"`
	Quantity     int    `json:"quantity"`
}

// LedgerService reconstructs historical stock levels from the movement
// log. For each product/warehouse pair it either replays movements
// forward from the latest check snapshot before the target day's end, or
// replays backwards from the current projection when the pair has never
// been counted.
type LedgerService struct {
	ledger LedgerStore
	stock  StockReader
	logger *logger.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(ledger LedgerStore, stock StockReader, log *logger.Logger) *LedgerService {
	return &LedgerService{
		ledger: ledger,
		stock:  stock,
		logger: log,
	}
}

// InitialInventory reconstructs stock levels as of the end of the target
// day, optionally filtered by warehouse. Asking for today's date returns
// the live projection. Only pairs with a positive reconstructed quantity
// are returned.
func (s *LedgerService) InitialInventory(ctx context.Context, date time.Time, warehouseID int64) ([]InitialStock, error) {
	// End of the target day, exclusive. Movements created on the target
	// day itself are part of that day's closing balance.
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	cutoff := day.Add(24 * time.Hour)

	pairs, err := s.ledger.CandidatePairs(ctx, warehouseID)
	if err != nil {
		return nil, err
	}

	results := make([]InitialStock, 0, len(pairs))
	productIDs := make([]int64, 0, len(pairs))
	for _, pair := range pairs {
		quantity, err := s.reconstruct(ctx, pair.ProductID, pair.WarehouseID, cutoff)
		if err != nil {
			return nil, err
		}
		if quantity <= 0 {
			continue
		}
		results = append(results, InitialStock{
			ProductID:   pair.ProductID,
			WarehouseID: pair.WarehouseID,
			Quantity:    quantity,
		})
		productIDs = append(productIDs, pair.ProductID)
	}

	titles, err := s.ledger.ProductTitles(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].ProductTitle = titles[results[i].ProductID]
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].WarehouseID != results[j].WarehouseID {
			return results[i].WarehouseID < results[j].WarehouseID
		}
		return results[i].ProductTitle < results[j].ProductTitle
	})

	return results, nil
}

// reconstruct computes the quantity of one pair at the cutoff instant.
func (s *LedgerService) reconstruct(ctx context.Context, productID, warehouseID int64, cutoff time.Time) (int, error) {
	snapshot, err := s.ledger.LatestCheckBefore(ctx, productID, warehouseID, cutoff)
	if err != nil {
		return 0, err
	}

	if snapshot != nil {
		// Forward replay from the counted quantity. The snapshot absorbs
		// any drift the count corrected, so movements before it are
		// irrelevant.
		sums, err := s.ledger.SumsBetween(ctx, productID, warehouseID, snapshot.CheckedAt, cutoff)
		if err != nil {
			return 0, err
		}
		return snapshot.Quantity + sums.Imports - sums.Exports - sums.TransfersOut + sums.TransfersIn, nil
	}

	// Backward replay: undo every movement at or after the cutoff from
	// the current projection.
	current, err := s.stock.Get(ctx, productID, warehouseID)
	if err != nil {
		return 0, err
	}
	sums, err := s.ledger.SumsSince(ctx, productID, warehouseID, cutoff)
	if err != nil {
		return 0, err
	}
	return current - sums.Imports + sums.Exports + sums.TransfersOut - sums.TransfersIn, nil
}
