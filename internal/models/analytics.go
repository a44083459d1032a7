package models

import "time"

// SellerRanking is one row of the best sellers report
type SellerRanking struct {
	Seller      User    `bson:"seller" json:"seller"`
	TotalSales  float64 `bson:"totalSales" json:"total_sales"`
	TotalOrders int     `bson:"totalOrders" json:"total_orders"`
}

// ClientRanking is one row of the best clients report
type ClientRanking struct {
	Client      Client  `bson:"client" json:"client"`
	TotalSpent  float64 `bson:"totalSpent" json:"total_spent"`
	TotalOrders int     `bson:"totalOrders" json:"total_orders"`
}

// ActivityKind tags an Activity entry
type ActivityKind string

const (
	ActivityOrder   ActivityKind = "ORDER"
	ActivityProduct ActivityKind = "PRODUCT"
	ActivityClient  ActivityKind = "CLIENT"
)

// Activity is a recently created entity. Exactly one of Order, Product or
// Client is set, matching Kind.
type Activity struct {
	Kind      ActivityKind
	CreatedAt time.Time
	Order     *Order
	Product   *Product
	Client    *Client
}

// GeneralActivity summarizes a seller's business
type GeneralActivity struct {
	MonthlyRevenue  float64 `json:"monthly_revenue"`
	TotalRevenue    float64 `json:"total_revenue"`
	Products        int64   `json:"products"`
	Clients         int64   `json:"clients"`
	PendingOrders   int64   `json:"pending_orders"`
	CompletedOrders int64   `json:"completed_orders"`
	CancelledOrders int64   `json:"cancelled_orders"`
}
