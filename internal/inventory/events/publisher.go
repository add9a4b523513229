package events

import (
	"context"

	"github.com/wareflow/wareflow-backend/internal/inventory/repository"
	"github.com/wareflow/wareflow-backend/pkg/logger"
	"github.com/wareflow/wareflow-backend/pkg/messaging"
)

// InventoryEventPublisher publishes inventory movement events
type InventoryEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewInventoryEventPublisher creates a new inventory event publisher
func NewInventoryEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*InventoryEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeInventoryEvents, "backoffice-service", log)
	if err != nil {
		return nil, err
	}

	return &InventoryEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishImportRecorded publishes an import recorded event
func (p *InventoryEventPublisher) PublishImportRecorded(ctx context.Context, imp *repository.Import) {
	if p == nil {
		return
	}

	data := messaging.ImportRecordedEvent{
		ImportID:    imp.ID,
		WarehouseID: imp.WarehouseID,
		SupplierID:  imp.SupplierID,
		TotalAmount: imp.TotalAmount.String(),
		Lines:       importLines(imp.Details),
	}

	if err := p.publisher.Publish(ctx, messaging.EventImportRecorded, data); err != nil {
		p.logger.Error().Err(err).Int64("import_id", imp.ID).Msg("failed to publish import recorded event")
	}
}

// PublishExportRecorded publishes an export recorded event
func (p *InventoryEventPublisher) PublishExportRecorded(ctx context.Context, exp *repository.Export) {
	if p == nil {
		return
	}

	reference := ""
	if exp.Reference != nil {
		reference = *exp.Reference
	}

	data := messaging.ExportRecordedEvent{
		ExportID:    exp.ID,
		WarehouseID: exp.WarehouseID,
		Reference:   reference,
		Lines:       exportLines(exp.Details),
	}

	if err := p.publisher.Publish(ctx, messaging.EventExportRecorded, data); err != nil {
		p.logger.Error().Err(err).Int64("export_id", exp.ID).Msg("failed to publish export recorded event")
	}
}

// PublishTransferRecorded publishes a transfer recorded event
func (p *InventoryEventPublisher) PublishTransferRecorded(ctx context.Context, transfer *repository.Transfer) {
	if p == nil {
		return
	}

	lines := make([]messaging.MovementLine, 0, len(transfer.Details))
	for _, d := range transfer.Details {
		lines = append(lines, messaging.MovementLine{ProductID: d.ProductID, Quantity: d.Quantity})
	}

	data := messaging.TransferRecordedEvent{
		TransferID:      transfer.ID,
		Type:            transfer.Type,
		FromWarehouseID: transfer.FromWarehouseID,
		ToWarehouseID:   transfer.ToWarehouseID,
		Lines:           lines,
	}

	if err := p.publisher.Publish(ctx, messaging.EventTransferRecorded, data); err != nil {
		p.logger.Error().Err(err).Int64("transfer_id", transfer.ID).Msg("failed to publish transfer recorded event")
	}
}

// PublishCheckRecorded publishes a check recorded event carrying the
// discrepancies found during the count
func (p *InventoryEventPublisher) PublishCheckRecorded(ctx context.Context, check *repository.InventoryCheck, discrepancies []messaging.CheckDiscrepancy) {
	if p == nil {
		return
	}

	data := messaging.CheckRecordedEvent{
		CheckID:       check.ID,
		WarehouseID:   check.WarehouseID,
		Discrepancies: discrepancies,
	}

	if err := p.publisher.Publish(ctx, messaging.EventCheckRecorded, data); err != nil {
		p.logger.Error().Err(err).Int64("check_id", check.ID).Msg("failed to publish check recorded event")
	}
}

func importLines(details []repository.ImportDetail) []messaging.MovementLine {
	lines := make([]messaging.MovementLine, 0, len(details))
	for _, d := range details {
		lines = append(lines, messaging.MovementLine{ProductID: d.ProductID, Quantity: d.Quantity})
	}
	return lines
}

func exportLines(details []repository.ExportDetail) []messaging.MovementLine {
	lines := make([]messaging.MovementLine, 0, len(details))
	for _, d := range details {
		lines = append(lines, messaging.MovementLine{ProductID: d.ProductID, Quantity: d.Quantity})
	}
	return lines
}
