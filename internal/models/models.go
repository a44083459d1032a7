package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a seller account
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Surname      string             `bson:"surname" json:"surname"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password" json:"-"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	BusinessName string             `bson:"businessName,omitempty" json:"business_name,omitempty"`
	Role         string             `bson:"role,omitempty" json:"role,omitempty"`
	Address      string             `bson:"address,omitempty" json:"address,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updated_at"`
}

// Client represents a customer record owned by a seller
type Client struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Surname      string             `bson:"surname" json:"surname"`
	BusinessName string             `bson:"businessName" json:"business_name"`
	Role         string             `bson:"role,omitempty" json:"role,omitempty"`
	Email        string             `bson:"email" json:"email"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Address      string             `bson:"address,omitempty" json:"address,omitempty"`
	Seller       primitive.ObjectID `bson:"seller" json:"seller"`
	CreatedAt    time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updated_at"`
}

// Product represents a catalog item owned by a seller
type Product struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name              string             `bson:"name" json:"name"`
	Stock             int                `bson:"stock" json:"stock"`
	Price             float64            `bson:"price" json:"price"`
	Discount          float64            `bson:"discount" json:"discount"`
	PriceWithDiscount float64            `bson:"priceWithDiscount" json:"price_with_discount"`
	Description       string             `bson:"description,omitempty" json:"description,omitempty"`
	Seller            primitive.ObjectID `bson:"seller" json:"seller"`
	CreatedAt         time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updated_at"`
}

// DiscountedPrice applies a percentage discount to a price
func DiscountedPrice(price, discount float64) float64 {
	return price - price*discount/100
}

// OrderItem is a line item with the product data captured at order time
type OrderItem struct {
	Product           primitive.ObjectID `bson:"product" json:"product"`
	Name              string             `bson:"name" json:"name"`
	Price             float64            `bson:"price" json:"price"`
	Discount          float64            `bson:"discount" json:"discount"`
	PriceWithDiscount float64            `bson:"priceWithDiscount" json:"price_with_discount"`
	Quantity          int                `bson:"quantity" json:"quantity"`
}

// Order represents a commercial transaction between a seller and a client
type Order struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Items             []OrderItem        `bson:"order" json:"items"`
	Total             float64            `bson:"total" json:"total"`
	TotalWithDiscount float64            `bson:"totalWithDiscount" json:"total_with_discount"`
	Client            primitive.ObjectID `bson:"client" json:"client"`
	Seller            primitive.ObjectID `bson:"seller" json:"seller"`
	Status            string             `bson:"status" json:"status"`
	IdempotencyKey    string             `bson:"idempotencyKey,omitempty" json:"idempotency_key,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updated_at"`
}

// StockChanges returns the per-product quantities recorded in the order
func (o *Order) StockChanges() []StockChange {
	changes := make([]StockChange, 0, len(o.Items))
	for _, item := range o.Items {
		changes = append(changes, StockChange{ProductID: item.Product, Quantity: item.Quantity})
	}
	return changes
}

// StockChange is a quantity to take from or give back to a product
type StockChange struct {
	ProductID primitive.ObjectID
	Quantity  int
}

// Order statuses
const (
	OrderStatusPending   = "PENDING"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

// OrderStatuses lists every accepted order status
var OrderStatuses = []string{OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled}

// IsValidOrderStatus reports whether status is one of OrderStatuses
func IsValidOrderStatus(status string) bool {
	for _, s := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}
