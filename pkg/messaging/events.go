package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Inventory ledger events
	EventImportRecorded   = "inventory.import.recorded"
	EventExportRecorded   = "inventory.export.recorded"
	EventTransferRecorded = "inventory.transfer.recorded"
	EventCheckRecorded    = "inventory.check.recorded"

	// Order events
	EventOrderConfirmed = "order.confirmed"
)

// Exchange names
const (
	ExchangeInventoryEvents = "inventory.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Inventory Events

// MovementLine is one product line of a recorded movement
type MovementLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// ImportRecordedEvent is published when goods are received into a warehouse
type ImportRecordedEvent struct {
	ImportID    int64          `json:"import_id"`
	WarehouseID int64          `json:"warehouse_id"`
	SupplierID  int64          `json:"supplier_id"`
	TotalAmount string         `json:"total_amount"`
	Lines       []MovementLine `json:"lines"`
}

// ExportRecordedEvent is published when goods leave a warehouse
type ExportRecordedEvent struct {
	ExportID    int64          `json:"export_id"`
	WarehouseID int64          `json:"warehouse_id"`
	Reference   string         `json:"reference,omitempty"`
	Lines       []MovementLine `json:"lines"`
}

// TransferRecordedEvent is published when goods move between warehouses
// or out for repair/discard
type TransferRecordedEvent struct {
	TransferID      int64          `json:"transfer_id"`
	Type            string         `json:"type"`
	FromWarehouseID int64          `json:"from_warehouse_id"`
	ToWarehouseID   *int64         `json:"to_warehouse_id,omitempty"`
	Lines           []MovementLine `json:"lines"`
}

// CheckDiscrepancy is one product whose counted quantity differed from
// the projection
type CheckDiscrepancy struct {
	ProductID  int64 `json:"product_id"`
	Expected   int   `json:"expected"`
	Actual     int   `json:"actual"`
	Difference int   `json:"difference"`
}

// CheckRecordedEvent is published when a physical inventory check is recorded
type CheckRecordedEvent struct {
	CheckID       int64              `json:"check_id"`
	WarehouseID   int64              `json:"warehouse_id"`
	Discrepancies []CheckDiscrepancy `json:"discrepancies,omitempty"`
}

// Order Events

// OrderConfirmedEvent is published when an order is confirmed and its
// stock is committed
type OrderConfirmedEvent struct {
	OrderID     int64  `json:"order_id"`
	WarehouseID int64  `json:"warehouse_id"`
	ExportID    int64  `json:"export_id"`
	TotalAmount string `json:"total_amount"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return uuid.New().String()
}
