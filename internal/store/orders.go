package store

import (
	"context"
	"fmt"

	"commerce-graph/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateOrder inserts a new order
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	now := s.now()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	order.CreatedAt = now
	order.UpdatedAt = now

	if _, err := s.orders.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("failed to insert order: %w", duplicate(err))
	}
	return nil
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	if err := s.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// GetOrderByIdempotencyKey retrieves a seller's order by idempotency key.
// Returns nil, nil when there is none.
func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, seller primitive.ObjectID, key string) (*models.Order, error) {
	order, err := s.findOrder(ctx, bson.M{"seller": seller, "idempotencyKey": key})
	if err == ErrNotFound {
		return nil, nil
	}
	return order, err
}

func (s *Store) findOrder(ctx context.Context, filter bson.M) (*models.Order, error) {
	var order models.Order
	if err := s.orders.FindOne(ctx, filter).Decode(&order); err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// GetOrders retrieves every order, newest first
func (s *Store) GetOrders(ctx context.Context) ([]models.Order, error) {
	return s.findOrders(ctx, bson.M{}, 0)
}

// GetOrdersBySeller retrieves a seller's orders, newest first
func (s *Store) GetOrdersBySeller(ctx context.Context, seller primitive.ObjectID) ([]models.Order, error) {
	return s.findOrders(ctx, bson.M{"seller": seller}, 0)
}

// GetOrdersBySellerAndStatus retrieves a seller's orders in one status
func (s *Store) GetOrdersBySellerAndStatus(ctx context.Context, seller primitive.ObjectID, status string) ([]models.Order, error) {
	return s.findOrders(ctx, bson.M{"seller": seller, "status": status}, 0)
}

// GetOrdersBySellerAndClient retrieves a seller's orders for one client
func (s *Store) GetOrdersBySellerAndClient(ctx context.Context, seller, client primitive.ObjectID) ([]models.Order, error) {
	return s.findOrders(ctx, bson.M{"seller": seller, "client": client}, 0)
}

// RecentOrders retrieves the latest orders of a seller
func (s *Store) RecentOrders(ctx context.Context, seller primitive.ObjectID, limit int) ([]models.Order, error) {
	return s.findOrders(ctx, bson.M{"seller": seller}, limit)
}

func (s *Store) findOrders(ctx context.Context, filter bson.M, limit int) ([]models.Order, error) {
	opts := newestFirst()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.orders.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

// UpdateOrder writes the line items, totals, client and status
func (s *Store) UpdateOrder(ctx context.Context, order *models.Order) error {
	order.UpdatedAt = s.now()

	res, err := s.orders.UpdateOne(ctx, bson.M{"_id": order.ID}, bson.M{"$set": bson.M{
		"order":             order.Items,
		"total":             order.Total,
		"totalWithDiscount": order.TotalWithDiscount,
		"client":            order.Client,
		"status":            order.Status,
		"updatedAt":         order.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOrder removes an order
func (s *Store) DeleteOrder(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.orders.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
