package service

import (
	"context"
	"time"

	"commerce-graph/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// publishTimeout bounds how long a mutation waits on the broker after its
// write has committed
const publishTimeout = 2 * time.Second

// publishContext outlives a cancelled request but not publishTimeout
func publishContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

func newOrderEvent(eventType string, order *models.Order) *models.OrderEvent {
	items := make([]models.OrderItemData, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, models.OrderItemData{
			ProductID: item.Product.Hex(),
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		})
	}

	return &models.OrderEvent{
		BaseEvent:         newBaseEvent(eventType),
		OrderID:           order.ID.Hex(),
		SellerID:          order.Seller.Hex(),
		ClientID:          order.Client.Hex(),
		Total:             order.Total,
		TotalWithDiscount: order.TotalWithDiscount,
		Status:            order.Status,
		Items:             items,
	}
}

// publishOrderEvent never fails the caller; the write already happened
func publishOrderEvent(ctx context.Context, publisher EventPublisher, logger *zap.Logger, eventType string, order *models.Order) {
	ctx, cancel := publishContext(ctx)
	defer cancel()
	if err := publisher.PublishOrderEvent(ctx, newOrderEvent(eventType, order)); err != nil {
		logger.Error("Failed to publish order event",
			zap.String("event_type", eventType),
			zap.String("order_id", order.ID.Hex()),
			zap.Error(err))
	}
}

func publishStockAdjusted(ctx context.Context, publisher EventPublisher, logger *zap.Logger, product *models.Product, delta int) {
	event := &models.StockAdjustedEvent{
		BaseEvent: newBaseEvent(models.EventTypeStockAdjusted),
		ProductID: product.ID.Hex(),
		SellerID:  product.Seller.Hex(),
		Delta:     delta,
		Stock:     product.Stock,
	}
	ctx, cancel := publishContext(ctx)
	defer cancel()
	if err := publisher.PublishStockAdjusted(ctx, event); err != nil {
		logger.Error("Failed to publish stock event",
			zap.String("product_id", product.ID.Hex()),
			zap.Error(err))
	}
}
