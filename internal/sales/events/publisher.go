package events

import (
	"context"

	"github.com/wareflow/wareflow-backend/internal/sales/repository"
	"github.com/wareflow/wareflow-backend/pkg/logger"
	"github.com/wareflow/wareflow-backend/pkg/messaging"
)

// OrderEventPublisher publishes order lifecycle events
type OrderEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewOrderEventPublisher creates a new order event publisher
func NewOrderEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*OrderEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeInventoryEvents, "backoffice-service", log)
	if err != nil {
		return nil, err
	}

	return &OrderEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishOrderConfirmed publishes an order confirmed event naming the
// export movement that carried the stock decrement
func (p *OrderEventPublisher) PublishOrderConfirmed(ctx context.Context, order *repository.Order, exportID int64) {
	if p == nil {
		return
	}

	data := messaging.OrderConfirmedEvent{
		OrderID:     order.ID,
		WarehouseID: order.WarehouseID,
		ExportID:    exportID,
		TotalAmount: order.TotalAmount.String(),
	}

	if err := p.publisher.Publish(ctx, messaging.EventOrderConfirmed, data); err != nil {
		p.logger.Error().Err(err).Int64("order_id", order.ID).Msg("failed to publish order confirmed event")
	}
}
