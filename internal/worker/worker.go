package worker

import (
	"context"
	"time"

	"commerce-graph/internal/broker"
	"commerce-graph/internal/models"
	"commerce-graph/internal/util"

	"go.uber.org/zap"
)

const processedTTL = 24 * time.Hour

// Deduper remembers which events were already handled
type Deduper interface {
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
}

// StockAlertWorker consumes commerce events and raises an alert whenever a
// product's stock drops to the threshold or below
type StockAlertWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	deduper      Deduper
	threshold    int
	logger       *zap.Logger
}

// NewStockAlertWorker creates a new worker. deduper may be nil, in which case
// redelivered events are handled again.
func NewStockAlertWorker(consumer *broker.Consumer, deduper Deduper, threshold int) *StockAlertWorker {
	w := &StockAlertWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		deduper:      deduper,
		threshold:    threshold,
		logger:       util.Named("stock_alert_worker"),
	}

	w.eventHandler.OnStockAdjusted(w.HandleStockAdjusted)
	w.eventHandler.OnOrderEvent(w.HandleOrderEvent)
	return w
}

// Start starts the worker
func (w *StockAlertWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting stock alert worker", zap.Int("threshold", w.threshold))
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *StockAlertWorker) Stop() error {
	w.logger.Info("Stopping stock alert worker")
	return w.consumer.Close()
}

// HandleStockAdjusted raises a low stock alert for stock decreases that end
// at or below the threshold
func (w *StockAlertWorker) HandleStockAdjusted(ctx context.Context, event *models.StockAdjustedEvent) error {
	util.EventsConsumedTotal.WithLabelValues(event.EventType).Inc()

	if event.Delta >= 0 || event.Stock > w.threshold {
		return nil
	}

	first, err := w.firstDelivery(ctx, event.EventID)
	if err != nil {
		return err
	}
	if !first {
		return nil
	}

	util.LowStockAlertsTotal.Inc()
	w.logger.Warn("Low stock",
		zap.String("product_id", event.ProductID),
		zap.String("seller_id", event.SellerID),
		zap.Int("stock", event.Stock),
		zap.Int("threshold", w.threshold))
	return nil
}

// HandleOrderEvent records order lifecycle events
func (w *StockAlertWorker) HandleOrderEvent(_ context.Context, event *models.OrderEvent) error {
	util.EventsConsumedTotal.WithLabelValues(event.EventType).Inc()
	w.logger.Debug("Order event",
		zap.String("type", event.EventType),
		zap.String("order_id", event.OrderID),
		zap.String("status", event.Status))
	return nil
}

func (w *StockAlertWorker) firstDelivery(ctx context.Context, eventID string) (bool, error) {
	if w.deduper == nil || eventID == "" {
		return true, nil
	}
	return w.deduper.MarkProcessed(ctx, eventID, processedTTL)
}
