package service

import (
	"context"
	"errors"
	"time"

	"commerce-graph/internal/apperr"
	"commerce-graph/internal/auth"
	"commerce-graph/internal/models"
	"commerce-graph/internal/store"
	"commerce-graph/internal/util"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const defaultOrderLockTTL = 10 * time.Second

// OrderService handles the order workflow: ownership checks, stock
// reservation, totals and stock restore on deletion
type OrderService struct {
	orders    OrderRepository
	clients   ClientRepository
	guard     *auth.Guard
	publisher EventPublisher
	locker    Locker
	lockTTL   time.Duration
	logger    *zap.Logger
}

// NewOrderService creates a new order service. A nil locker disables order
// locking.
func NewOrderService(
	orders OrderRepository,
	clients ClientRepository,
	guard *auth.Guard,
	publisher EventPublisher,
	locker Locker,
	lockTTL time.Duration,
) *OrderService {
	if locker == nil {
		locker = NopLocker{}
	}
	if lockTTL <= 0 {
		lockTTL = defaultOrderLockTTL
	}
	return &OrderService{
		orders:    orders,
		clients:   clients,
		guard:     guard,
		publisher: publisher,
		locker:    locker,
		lockTTL:   lockTTL,
		logger:    util.Named("order_service"),
	}
}

// OrderItemInput is one requested line item
type OrderItemInput struct {
	ProductID string `validate:"required"`
	Quantity  int    `validate:"gte=1"`
}

// CreateOrderInput is the order placement payload
type CreateOrderInput struct {
	ClientID       string           `validate:"required"`
	Items          []OrderItemInput `validate:"required,min=1,dive"`
	Status         string
	IdempotencyKey string
}

// UpdateOrderInput holds the fields to change. Nil fields are left alone.
type UpdateOrderInput struct {
	ClientID *string
	Items    []OrderItemInput `validate:"omitempty,min=1,dive"`
	Status   *string
}

// CreateOrder places an order for one of the caller's clients. Stock for
// all items is reserved as a unit; totals come from the reserved products.
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	var err error
	defer func() { util.EndSpan(span, err) }()

	caller, err := auth.RequireCaller(ctx)
	if err != nil {
		return nil, err
	}
	if err = validateInput(input); err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_input").Inc()
		return nil, err
	}

	status := models.OrderStatusPending
	if input.Status != "" {
		if !models.IsValidOrderStatus(input.Status) {
			err = apperr.BadRequest("Invalid order status")
			return nil, err
		}
		status = input.Status
	}

	changes, err := parseItems(input.Items)
	if err != nil {
		return nil, err
	}

	if input.IdempotencyKey != "" {
		existing, lookupErr := s.orders.GetOrderByIdempotencyKey(ctx, caller.ID, input.IdempotencyKey)
		if lookupErr != nil {
			err = internal(s.logger, lookupErr, "Error Creating Order")
			return nil, err
		}
		if existing != nil {
			s.logger.Info("Duplicate order request detected",
				zap.String("idempotency_key", input.IdempotencyKey),
				zap.String("order_id", existing.ID.Hex()))
			return existing, nil
		}
	}

	client, err := s.loadClient(ctx, input.ClientID)
	if err != nil {
		return nil, err
	}
	if err = s.guard.CheckOwner(caller, client.Seller); err != nil {
		return nil, err
	}

	reserved, err := s.reserveStock(ctx, changes)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		Client:         client.ID,
		Seller:         caller.ID,
		Status:         status,
		IdempotencyKey: input.IdempotencyKey,
	}
	order.Items, order.Total, order.TotalWithDiscount = buildItems(changes, reserved)

	if createErr := s.orders.CreateOrder(ctx, order); createErr != nil {
		s.releaseStock(ctx, changes)
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()

		if errors.Is(createErr, store.ErrDuplicate) && input.IdempotencyKey != "" {
			existing, lookupErr := s.orders.GetOrderByIdempotencyKey(ctx, caller.ID, input.IdempotencyKey)
			if lookupErr == nil && existing != nil {
				return existing, nil
			}
		}
		err = internal(s.logger, createErr, "Error Creating Order")
		return nil, err
	}

	util.OrdersCreatedTotal.Inc()
	span.SetAttributes(attribute.String("order_id", order.ID.Hex()))
	s.logger.Info("Order created",
		zap.String("order_id", order.ID.Hex()),
		zap.Float64("total", order.Total))

	publishOrderEvent(ctx, s.publisher, s.logger, models.EventTypeOrderCreated, order)
	s.publishStock(ctx, reserved, changes, -1)
	return order, nil
}

// UpdateOrder changes an order's client, status or items. A new item set
// reserves further stock and recomputes the totals; stock held by the
// previous items is not given back.
func (s *OrderService) UpdateOrder(ctx context.Context, id string, input UpdateOrderInput) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateOrder", attribute.String("order_id", id))
	var err error
	defer func() { util.EndSpan(span, err) }()

	caller, err := auth.RequireCaller(ctx)
	if err != nil {
		return nil, err
	}
	oid, err := parseID(id, "order")
	if err != nil {
		return nil, err
	}
	if err = validateInput(input); err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, oid)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, lookupErr := s.orders.GetOrderByID(ctx, oid)
	if lookupErr != nil {
		err = lookup(s.logger, lookupErr, "Order not found", "Error Updating Order")
		return nil, err
	}

	clientID := order.Client.Hex()
	if input.ClientID != nil {
		clientID = *input.ClientID
	}
	client, err := s.loadClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if err = s.guard.CheckOrderUpdate(caller, order.Seller, client.Seller); err != nil {
		return nil, err
	}

	if input.Status != nil {
		if !models.IsValidOrderStatus(*input.Status) {
			err = apperr.BadRequest("Invalid order status")
			return nil, err
		}
		order.Status = *input.Status
	}
	order.Client = client.ID

	var (
		changes  []models.StockChange
		reserved []models.Product
	)
	if input.Items != nil {
		if changes, err = parseItems(input.Items); err != nil {
			return nil, err
		}
		if reserved, err = s.reserveStock(ctx, changes); err != nil {
			return nil, err
		}
		order.Items, order.Total, order.TotalWithDiscount = buildItems(changes, reserved)
	}

	if updateErr := s.orders.UpdateOrder(ctx, order); updateErr != nil {
		if changes != nil {
			s.releaseStock(ctx, changes)
		}
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		err = lookup(s.logger, updateErr, "Order not found", "Error Updating Order")
		return nil, err
	}

	util.OrdersUpdatedTotal.Inc()
	publishOrderEvent(ctx, s.publisher, s.logger, models.EventTypeOrderUpdated, order)
	if changes != nil {
		s.publishStock(ctx, reserved, changes, -1)
	}
	return order, nil
}

// DeleteOrder removes one of the caller's orders and gives its quantities
// back to the products
func (s *OrderService) DeleteOrder(ctx context.Context, id string) (string, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.DeleteOrder", attribute.String("order_id", id))
	var err error
	defer func() { util.EndSpan(span, err) }()

	caller, err := auth.RequireCaller(ctx)
	if err != nil {
		return "", err
	}
	oid, err := parseID(id, "order")
	if err != nil {
		return "", err
	}

	unlock, err := s.lock(ctx, oid)
	if err != nil {
		return "", err
	}
	defer unlock()

	order, lookupErr := s.orders.GetOrderByID(ctx, oid)
	if lookupErr != nil {
		err = lookup(s.logger, lookupErr, "Order not found", "Error Deleting Order")
		return "", err
	}
	if err = s.guard.CheckOwner(caller, order.Seller); err != nil {
		return "", err
	}

	changes := order.StockChanges()
	restored, restoreErr := s.orders.RestoreStock(ctx, changes)
	if restoreErr != nil {
		err = internal(s.logger, restoreErr, "Error Deleting Order")
		return "", err
	}

	if deleteErr := s.orders.DeleteOrder(ctx, oid); deleteErr != nil {
		// put the order's quantities back on hold
		if _, rollbackErr := s.orders.ReserveStock(ctx, changes); rollbackErr != nil {
			s.logger.Error("Failed to re-reserve stock after delete failure",
				zap.String("order_id", oid.Hex()),
				zap.Error(rollbackErr))
		}
		err = lookup(s.logger, deleteErr, "Order not found", "Error Deleting Order")
		return "", err
	}

	util.OrdersDeletedTotal.Inc()
	s.logger.Info("Order deleted", zap.String("order_id", oid.Hex()))

	publishOrderEvent(ctx, s.publisher, s.logger, models.EventTypeOrderDeleted, order)
	s.publishStock(ctx, restored, restoredChanges(changes, restored), 1)
	return "Order deleted successfully", nil
}

// GetOrders lists every order, newest first
func (s *OrderService) GetOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.GetOrders(ctx)
	if err != nil {
		return nil, internal(s.logger, err, "Error Fetching Orders")
	}
	return orders, nil
}

// GetSellerOrders lists the caller's orders, newest first
func (s *OrderService) GetSellerOrders(ctx context.Context) ([]models.Order, error) {
	caller, err := auth.RequireCaller(ctx)
	if err != nil {
		return nil, err
	}

	orders, err := s.orders.GetOrdersBySeller(ctx, caller.ID)
	if err != nil {
		return nil, internal(s.logger, err, "Error Fetching Orders")
	}
	return orders, nil
}

// GetOrderByID returns one of the caller's orders
func (s *OrderService) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	caller, err := auth.RequireCaller(ctx)
	if err != nil {
		return nil, err
	}
	oid, err := parseID(id, "order")
	if err != nil {
		return nil, err
	}

	order, err := s.orders.GetOrderByID(ctx, oid)
	if err != nil {
		return nil, lookup(s.logger, err, "Order not found", "Error Fetching Order")
	}
	if err := s.guard.CheckOwner(caller, order.Seller); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrdersByStatus lists the caller's orders with the given status
func (s *OrderService) GetOrdersByStatus(ctx context.Context, status string) ([]models.Order, error) {
	caller, err := auth.RequireCaller(ctx)
	if err != nil {
		return nil, err
	}
	if !models.IsValidOrderStatus(status) {
		return nil, apperr.BadRequest("Invalid order status")
	}

	orders, err := s.orders.GetOrdersBySellerAndStatus(ctx, caller.ID, status)
	if err != nil {
		return nil, internal(s.logger, err, "Error Fetching Orders")
	}
	return orders, nil
}

// GetOrdersByClient lists the caller's orders for one client
func (s *OrderService) GetOrdersByClient(ctx context.Context, clientID string) ([]models.Order, error) {
	caller, err := auth.RequireCaller(ctx)
	if err != nil {
		return nil, err
	}
	oid, err := parseID(clientID, "client")
	if err != nil {
		return nil, err
	}

	orders, err := s.orders.GetOrdersBySellerAndClient(ctx, caller.ID, oid)
	if err != nil {
		return nil, internal(s.logger, err, "Error Fetching Orders")
	}
	return orders, nil
}

func (s *OrderService) loadClient(ctx context.Context, id string) (*models.Client, error) {
	oid, err := parseID(id, "client")
	if err != nil {
		return nil, err
	}

	client, err := s.clients.GetClientByID(ctx, oid)
	if err != nil {
		return nil, lookup(s.logger, err, "Client not found", "Error fetching client")
	}
	return client, nil
}

// reserveStock takes the quantities from stock and maps store failures to
// NotFound and StockError
func (s *OrderService) reserveStock(ctx context.Context, changes []models.StockChange) ([]models.Product, error) {
	start := time.Now()
	defer func() {
		util.StockReserveLatency.Observe(time.Since(start).Seconds())
	}()

	reserved, err := s.orders.ReserveStock(ctx, changes)
	if err == nil {
		return reserved, nil
	}

	var stockErr *store.StockError
	errors.As(err, &stockErr)

	switch {
	case errors.Is(err, store.ErrInsufficientStock):
		util.StockReservationsFailed.WithLabelValues("insufficient_stock").Inc()
		util.OrdersFailedTotal.WithLabelValues("insufficient_stock").Inc()
		if stockErr != nil {
			s.logger.Info("Insufficient stock",
				zap.String("product_id", stockErr.Change.ProductID.Hex()),
				zap.Int("quantity", stockErr.Change.Quantity))
		}
		return nil, apperr.Stock("Insufficient stock")
	case errors.Is(err, store.ErrNotFound):
		util.StockReservationsFailed.WithLabelValues("product_not_found").Inc()
		util.OrdersFailedTotal.WithLabelValues("product_not_found").Inc()
		return nil, apperr.NotFound("Product not found")
	default:
		util.StockReservationsFailed.WithLabelValues("error").Inc()
		return nil, internal(s.logger, err, "Error reserving stock")
	}
}

// releaseStock gives back a reservation whose order was never written
func (s *OrderService) releaseStock(ctx context.Context, changes []models.StockChange) {
	if _, err := s.orders.RestoreStock(ctx, changes); err != nil {
		s.logger.Error("Failed to release reserved stock", zap.Error(err))
	}
}

// lock takes the per-order lock and returns its release func
func (s *OrderService) lock(ctx context.Context, id primitive.ObjectID) (func(), error) {
	key := "order:" + id.Hex()

	token, acquired, err := s.locker.AcquireLock(ctx, key, s.lockTTL)
	if err != nil {
		return nil, internal(s.logger, err, "Error locking order")
	}
	if !acquired {
		return nil, apperr.Conflict("Order is being modified, try again")
	}

	return func() {
		if err := s.locker.ReleaseLock(context.Background(), key, token); err != nil {
			s.logger.Warn("Failed to release order lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

func (s *OrderService) publishStock(ctx context.Context, products []models.Product, changes []models.StockChange, sign int) {
	for i := 0; i < len(products) && i < len(changes); i++ {
		publishStockAdjusted(ctx, s.publisher, s.logger, &products[i], sign*changes[i].Quantity)
	}
}

func parseItems(items []OrderItemInput) ([]models.StockChange, error) {
	changes := make([]models.StockChange, 0, len(items))
	for _, item := range items {
		oid, err := parseID(item.ProductID, "product")
		if err != nil {
			return nil, err
		}
		changes = append(changes, models.StockChange{ProductID: oid, Quantity: item.Quantity})
	}
	return changes, nil
}

// buildItems snapshots the reserved products into line items and sums the
// totals. reserved is index aligned with changes.
func buildItems(changes []models.StockChange, reserved []models.Product) ([]models.OrderItem, float64, float64) {
	items := make([]models.OrderItem, 0, len(changes))
	var total, totalWithDiscount float64

	for i, change := range changes {
		product := reserved[i]
		items = append(items, models.OrderItem{
			Product:           product.ID,
			Name:              product.Name,
			Price:             product.Price,
			Discount:          product.Discount,
			PriceWithDiscount: product.PriceWithDiscount,
			Quantity:          change.Quantity,
		})
		total += product.Price * float64(change.Quantity)
		totalWithDiscount += product.PriceWithDiscount * float64(change.Quantity)
	}
	return items, total, totalWithDiscount
}

// restoredChanges lines changes up with the products RestoreStock returned,
// which omits products that no longer exist
func restoredChanges(changes []models.StockChange, restored []models.Product) []models.StockChange {
	if len(changes) == len(restored) {
		return changes
	}

	aligned := make([]models.StockChange, 0, len(restored))
	next := 0
	for _, product := range restored {
		for next < len(changes) && changes[next].ProductID != product.ID {
			next++
		}
		if next == len(changes) {
			break
		}
		aligned = append(aligned, changes[next])
		next++
	}
	return aligned
}
