package store

import (
	"context"
	"fmt"

	"commerce-graph/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateProduct inserts a new product
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	now := s.now()
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	product.CreatedAt = now
	product.UpdatedAt = now

	if _, err := s.products.InsertOne(ctx, product); err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	if err := s.products.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

// GetProducts retrieves all products, newest first
func (s *Store) GetProducts(ctx context.Context) ([]models.Product, error) {
	return s.findProducts(ctx, bson.M{}, newestFirst())
}

// GetProductsBySeller retrieves a seller's products, newest first
func (s *Store) GetProductsBySeller(ctx context.Context, seller primitive.ObjectID) ([]models.Product, error) {
	return s.findProducts(ctx, bson.M{"seller": seller}, newestFirst())
}

// RecentProducts retrieves the latest products of a seller
func (s *Store) RecentProducts(ctx context.Context, seller primitive.ObjectID, limit int) ([]models.Product, error) {
	return s.findProducts(ctx, bson.M{"seller": seller}, newestFirst().SetLimit(int64(limit)))
}

// SearchProducts runs a case-insensitive text search on product names,
// most relevant first.
func (s *Store) SearchProducts(ctx context.Context, text string, limit int) ([]models.Product, error) {
	score := bson.M{"score": bson.M{"$meta": "textScore"}}
	opts := options.Find().
		SetProjection(score).
		SetSort(score).
		SetLimit(int64(limit))

	filter := bson.M{"$text": bson.M{"$search": text, "$caseSensitive": false}}
	return s.findProducts(ctx, filter, opts)
}

func (s *Store) findProducts(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Product, error) {
	cursor, err := s.products.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

// UpdateProduct writes the editable product fields. The discounted price is
// written as given; callers decide whether it changes.
func (s *Store) UpdateProduct(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = s.now()

	res, err := s.products.UpdateOne(ctx, bson.M{"_id": product.ID}, bson.M{"$set": bson.M{
		"name":              product.Name,
		"stock":             product.Stock,
		"price":             product.Price,
		"discount":          product.Discount,
		"priceWithDiscount": product.PriceWithDiscount,
		"description":       product.Description,
		"updatedAt":         product.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProduct removes a product
func (s *Store) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.products.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountProducts counts a seller's products
func (s *Store) CountProducts(ctx context.Context, seller primitive.ObjectID) (int64, error) {
	return s.products.CountDocuments(ctx, bson.M{"seller": seller})
}
