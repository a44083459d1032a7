package store

import (
	"context"
	"fmt"

	"commerce-graph/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateClient inserts a new client
func (s *Store) CreateClient(ctx context.Context, client *models.Client) error {
	now := s.now()
	if client.ID.IsZero() {
		client.ID = primitive.NewObjectID()
	}
	client.CreatedAt = now
	client.UpdatedAt = now

	if _, err := s.clients.InsertOne(ctx, client); err != nil {
		return fmt.Errorf("failed to insert client: %w", err)
	}
	return nil
}

// GetClientByID retrieves a client by ID
func (s *Store) GetClientByID(ctx context.Context, id primitive.ObjectID) (*models.Client, error) {
	var client models.Client
	if err := s.clients.FindOne(ctx, bson.M{"_id": id}).Decode(&client); err != nil {
		return nil, notFound(err)
	}
	return &client, nil
}

// GetClientBySellerAndEmail finds a seller's client by email
func (s *Store) GetClientBySellerAndEmail(ctx context.Context, seller primitive.ObjectID, email string) (*models.Client, error) {
	var client models.Client
	err := s.clients.FindOne(ctx, bson.M{"seller": seller, "email": email}).Decode(&client)
	if err != nil {
		return nil, notFound(err)
	}
	return &client, nil
}

// GetClients retrieves every client, newest first
func (s *Store) GetClients(ctx context.Context) ([]models.Client, error) {
	return s.findClients(ctx, bson.M{}, 0)
}

// GetClientsBySeller retrieves a seller's clients, newest first
func (s *Store) GetClientsBySeller(ctx context.Context, seller primitive.ObjectID) ([]models.Client, error) {
	return s.findClients(ctx, bson.M{"seller": seller}, 0)
}

// RecentClients retrieves the latest clients of a seller
func (s *Store) RecentClients(ctx context.Context, seller primitive.ObjectID, limit int) ([]models.Client, error) {
	return s.findClients(ctx, bson.M{"seller": seller}, limit)
}

func (s *Store) findClients(ctx context.Context, filter bson.M, limit int) ([]models.Client, error) {
	opts := newestFirst()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.clients.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find clients: %w", err)
	}

	clients := []models.Client{}
	if err := cursor.All(ctx, &clients); err != nil {
		return nil, fmt.Errorf("failed to decode clients: %w", err)
	}
	return clients, nil
}

// UpdateClient writes the editable client fields
func (s *Store) UpdateClient(ctx context.Context, client *models.Client) error {
	client.UpdatedAt = s.now()

	res, err := s.clients.UpdateOne(ctx, bson.M{"_id": client.ID}, bson.M{"$set": bson.M{
		"name":         client.Name,
		"surname":      client.Surname,
		"businessName": client.BusinessName,
		"role":         client.Role,
		"email":        client.Email,
		"phone":        client.Phone,
		"address":      client.Address,
		"updatedAt":    client.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteClient removes a client
func (s *Store) DeleteClient(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.clients.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountClients counts a seller's clients
func (s *Store) CountClients(ctx context.Context, seller primitive.ObjectID) (int64, error) {
	return s.clients.CountDocuments(ctx, bson.M{"seller": seller})
}
