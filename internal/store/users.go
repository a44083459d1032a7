package store

import (
	"context"
	"fmt"

	"commerce-graph/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateUser inserts a new user. Returns ErrDuplicate when the email is taken.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	now := s.now()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := s.users.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("failed to insert user: %w", duplicate(err))
	}
	return nil
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// UpdateUser writes the mutable profile fields and the password hash
func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = s.now()

	res, err := s.users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"name":         user.Name,
		"surname":      user.Surname,
		"email":        user.Email,
		"password":     user.PasswordHash,
		"phone":        user.Phone,
		"businessName": user.BusinessName,
		"role":         user.Role,
		"address":      user.Address,
		"updatedAt":    user.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("failed to update user: %w", duplicate(err))
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
