package consumers

import (
	"context"

	"github.com/wareflow/wareflow-backend/pkg/logger"
	"github.com/wareflow/wareflow-backend/pkg/messaging"
)

// CheckEventConsumer consumes inventory check events and surfaces count
// discrepancies in the structured log, so shrinkage is visible without
// anyone polling check results.
type CheckEventConsumer struct {
	consumer *messaging.Consumer
	logger   *logger.Logger
}

// NewCheckEventConsumer creates a new check event consumer
func NewCheckEventConsumer(rmq *messaging.RabbitMQ, log *logger.Logger) (*CheckEventConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, "backoffice-service.check-events", log)
	if err != nil {
		return nil, err
	}

	// Subscribe to check events
	if err := consumer.Subscribe(messaging.ExchangeInventoryEvents, "inventory.check.*"); err != nil {
		return nil, err
	}

	c := &CheckEventConsumer{
		consumer: consumer,
		logger:   log,
	}

	consumer.RegisterHandler(messaging.EventCheckRecorded, c.handleCheckRecorded)

	return c, nil
}

// Start starts consuming messages
func (c *CheckEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

func (c *CheckEventConsumer) handleCheckRecorded(ctx context.Context, event *messaging.Event) error {
	var data messaging.CheckRecordedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	if len(data.Discrepancies) == 0 {
		c.logger.Info().
			Int64("check_id", data.CheckID).
			Int64("warehouse_id", data.WarehouseID).
			Msg("inventory check matched the projection")
		return nil
	}

	for _, d := range data.Discrepancies {
		c.logger.Warn().
			Int64("check_id", data.CheckID).
			Int64("warehouse_id", data.WarehouseID).
			Int64("product_id", d.ProductID).
			Int("expected", d.Expected).
			Int("actual", d.Actual).
			Int("difference", d.Difference).
			Msg("inventory check discrepancy")
	}

	return nil
}
