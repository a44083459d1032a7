package store

import (
	"context"
	"errors"
	"fmt"

	"commerce-graph/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StockError identifies the item a reservation failed on
type StockError struct {
	Change models.StockChange
	Err    error
}

func (e *StockError) Error() string {
	return fmt.Sprintf("product %s: %v", e.Change.ProductID.Hex(), e.Err)
}

func (e *StockError) Unwrap() error {
	return e.Err
}

// ReserveStock takes the requested quantities from the products as one unit.
// Each decrement only applies while the stock covers it, so stock never goes
// negative. If any item fails, the decrements already applied for this call
// are given back (or rolled back by the session when transactions are on) and
// a *StockError wrapping ErrNotFound or ErrInsufficientStock is returned.
// The returned products reflect the stock after the reservation, in the
// order of changes.
func (s *Store) ReserveStock(ctx context.Context, changes []models.StockChange) ([]models.Product, error) {
	var reserved []models.Product

	err := s.withTransaction(ctx, func(ctx context.Context, transactional bool) error {
		reserved = reserved[:0]
		applied := make([]models.StockChange, 0, len(changes))

		for _, change := range changes {
			product, err := s.adjustStock(ctx, change, -change.Quantity)
			if err != nil {
				if !transactional {
					if compErr := s.compensate(ctx, applied); compErr != nil {
						return errors.Join(err, compErr)
					}
				}
				return err
			}
			applied = append(applied, change)
			reserved = append(reserved, *product)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reserved, nil
}

// RestoreStock gives quantities back to the products. Products that no
// longer exist are skipped.
func (s *Store) RestoreStock(ctx context.Context, changes []models.StockChange) ([]models.Product, error) {
	var restored []models.Product

	err := s.withTransaction(ctx, func(ctx context.Context, _ bool) error {
		restored = restored[:0]
		for _, change := range changes {
			product, err := s.adjustStock(ctx, change, change.Quantity)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			restored = append(restored, *product)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return restored, nil
}

// adjustStock applies delta to a product's stock. Negative deltas only match
// when the current stock covers them.
func (s *Store) adjustStock(ctx context.Context, change models.StockChange, delta int) (*models.Product, error) {
	filter := bson.M{"_id": change.ProductID}
	if delta < 0 {
		filter["stock"] = bson.M{"$gte": -delta}
	}
	update := bson.M{
		"$inc": bson.M{"stock": delta},
		"$set": bson.M{"updatedAt": s.now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var product models.Product
	err := s.products.FindOneAndUpdate(ctx, filter, update, opts).Decode(&product)
	if err == nil {
		return &product, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}

	exists, err := s.products.CountDocuments(ctx, bson.M{"_id": change.ProductID})
	if err != nil {
		return nil, fmt.Errorf("failed to check product: %w", err)
	}
	if exists == 0 {
		return nil, &StockError{Change: change, Err: ErrNotFound}
	}
	return nil, &StockError{Change: change, Err: ErrInsufficientStock}
}

// compensate gives back quantities taken earlier in a failed reservation
func (s *Store) compensate(ctx context.Context, applied []models.StockChange) error {
	var errs []error
	for _, change := range applied {
		if _, err := s.adjustStock(ctx, change, change.Quantity); err != nil {
			errs = append(errs, fmt.Errorf("failed to release product %s: %w", change.ProductID.Hex(), err))
		}
	}
	return errors.Join(errs...)
}
