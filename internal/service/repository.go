// Package service implements the account, catalog, directory, order and
// analytics operations on top of the store.
package service

import (
	"context"
	"errors"
	"time"

	"commerce-graph/internal/apperr"
	"commerce-graph/internal/models"
	"commerce-graph/internal/store"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// UserRepository persists seller accounts
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
}

// ProductRepository persists catalog items
type ProductRepository interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	GetProducts(ctx context.Context) ([]models.Product, error)
	GetProductsBySeller(ctx context.Context, seller primitive.ObjectID) ([]models.Product, error)
	SearchProducts(ctx context.Context, text string, limit int) ([]models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error
}

// ClientRepository persists client records
type ClientRepository interface {
	CreateClient(ctx context.Context, client *models.Client) error
	GetClientByID(ctx context.Context, id primitive.ObjectID) (*models.Client, error)
	GetClientBySellerAndEmail(ctx context.Context, seller primitive.ObjectID, email string) (*models.Client, error)
	GetClients(ctx context.Context) ([]models.Client, error)
	GetClientsBySeller(ctx context.Context, seller primitive.ObjectID) ([]models.Client, error)
	UpdateClient(ctx context.Context, client *models.Client) error
	DeleteClient(ctx context.Context, id primitive.ObjectID) error
}

// OrderRepository persists orders and moves stock on their behalf
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, seller primitive.ObjectID, key string) (*models.Order, error)
	GetOrders(ctx context.Context) ([]models.Order, error)
	GetOrdersBySeller(ctx context.Context, seller primitive.ObjectID) ([]models.Order, error)
	GetOrdersBySellerAndStatus(ctx context.Context, seller primitive.ObjectID, status string) ([]models.Order, error)
	GetOrdersBySellerAndClient(ctx context.Context, seller, client primitive.ObjectID) ([]models.Order, error)
	UpdateOrder(ctx context.Context, order *models.Order) error
	DeleteOrder(ctx context.Context, id primitive.ObjectID) error
	ReserveStock(ctx context.Context, changes []models.StockChange) ([]models.Product, error)
	RestoreStock(ctx context.Context, changes []models.StockChange) ([]models.Product, error)
}

// AnalyticsRepository runs the read-only aggregations
type AnalyticsRepository interface {
	TopSellers(ctx context.Context, limit int) ([]models.SellerRanking, error)
	TopClients(ctx context.Context, limit int) ([]models.ClientRanking, error)
	Revenue(ctx context.Context, seller primitive.ObjectID, since time.Time) (float64, error)
	CountOrdersByStatus(ctx context.Context, seller primitive.ObjectID) (map[string]int64, error)
	CountProducts(ctx context.Context, seller primitive.ObjectID) (int64, error)
	CountClients(ctx context.Context, seller primitive.ObjectID) (int64, error)
	RecentOrders(ctx context.Context, seller primitive.ObjectID, limit int) ([]models.Order, error)
	RecentProducts(ctx context.Context, seller primitive.ObjectID, limit int) ([]models.Product, error)
	RecentClients(ctx context.Context, seller primitive.ObjectID, limit int) ([]models.Client, error)
}

// EventPublisher emits domain events after successful writes
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event *models.OrderEvent) error
	PublishStockAdjusted(ctx context.Context, event *models.StockAdjustedEvent) error
}

// Locker serializes work on a single key across instances. AcquireLock
// returns a token identifying the holder; ReleaseLock only frees the lock
// while that token still holds it.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (token string, acquired bool, err error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// NopLocker always grants the lock. Used when Redis is not configured.
type NopLocker struct{}

func (NopLocker) AcquireLock(context.Context, string, time.Duration) (string, bool, error) {
	return "", true, nil
}
func (NopLocker) ReleaseLock(context.Context, string, string) error { return nil }

var validate = validator.New()

// validateInput turns validator failures into a BadRequest naming the first
// offending field
func validateInput(input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return apperr.BadRequest("Invalid input: " + fe.Field() + " failed " + fe.Tag())
	}
	return apperr.BadRequest("Invalid input")
}

// parseID converts a hex id from the API into an ObjectID
func parseID(id, what string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperr.BadRequest("Invalid " + what + " id")
	}
	return oid, nil
}

// internal logs err and converts it unless it is already typed
func internal(logger *zap.Logger, err error, message string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); !ok {
		logger.Error(message, zap.Error(err))
	}
	return apperr.Wrap(err, message)
}

// lookup maps store.ErrNotFound to a NotFound error and everything else
// through internal
func lookup(logger *zap.Logger, err error, notFound, message string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(notFound)
	}
	return internal(logger, err, message)
}
