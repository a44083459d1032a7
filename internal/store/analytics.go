package store

import (
	"context"
	"fmt"
	"time"

	"commerce-graph/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TopSellers returns the sellers with the highest completed sales
func (s *Store) TopSellers(ctx context.Context, limit int) ([]models.SellerRanking, error) {
	cursor, err := s.orders.Aggregate(ctx, TopSellersPipeline(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate top sellers: %w", err)
	}

	rankings := []models.SellerRanking{}
	if err := cursor.All(ctx, &rankings); err != nil {
		return nil, fmt.Errorf("failed to decode top sellers: %w", err)
	}
	return rankings, nil
}

// TopClients returns the clients with the highest completed spend
func (s *Store) TopClients(ctx context.Context, limit int) ([]models.ClientRanking, error) {
	cursor, err := s.orders.Aggregate(ctx, TopClientsPipeline(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate top clients: %w", err)
	}

	rankings := []models.ClientRanking{}
	if err := cursor.All(ctx, &rankings); err != nil {
		return nil, fmt.Errorf("failed to decode top clients: %w", err)
	}
	return rankings, nil
}

// Revenue sums a seller's completed order totals since the given time.
// Returns 0 when nothing matches.
func (s *Store) Revenue(ctx context.Context, seller primitive.ObjectID, since time.Time) (float64, error) {
	cursor, err := s.orders.Aggregate(ctx, RevenuePipeline(seller, since))
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate revenue: %w", err)
	}

	var rows []struct {
		Revenue float64 `bson:"revenue"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("failed to decode revenue: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Revenue, nil
}

// CountOrdersByStatus counts a seller's orders per status
func (s *Store) CountOrdersByStatus(ctx context.Context, seller primitive.ObjectID) (map[string]int64, error) {
	cursor, err := s.orders.Aggregate(ctx, OrderStatusCountsPipeline(seller))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate order counts: %w", err)
	}

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode order counts: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
