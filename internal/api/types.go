package api

import (
	"time"

	"commerce-graph/internal/models"

	"github.com/graph-gophers/graphql-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// optional maps empty strings to null
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func timestamp(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func objectID(id primitive.ObjectID) graphql.ID {
	return graphql.ID(id.Hex())
}

type userResolver struct {
	u *models.User
}

func (r *userResolver) ID() graphql.ID        { return objectID(r.u.ID) }
func (r *userResolver) Name() string          { return r.u.Name }
func (r *userResolver) Surname() string       { return r.u.Surname }
func (r *userResolver) Email() string         { return r.u.Email }
func (r *userResolver) Phone() *string        { return optional(r.u.Phone) }
func (r *userResolver) BusinessName() *string { return optional(r.u.BusinessName) }
func (r *userResolver) Role() *string         { return optional(r.u.Role) }
func (r *userResolver) Address() *string      { return optional(r.u.Address) }
func (r *userResolver) CreatedAt() *string    { return timestamp(r.u.CreatedAt) }

type tokenResolver struct {
	token string
}

func (r *tokenResolver) Token() string { return r.token }

type productResolver struct {
	p *models.Product
}

func productList(products []models.Product) []*productResolver {
	out := make([]*productResolver, 0, len(products))
	for i := range products {
		out = append(out, &productResolver{&products[i]})
	}
	return out
}

func (r *productResolver) ID() graphql.ID             { return objectID(r.p.ID) }
func (r *productResolver) Name() string               { return r.p.Name }
func (r *productResolver) Stock() int32               { return int32(r.p.Stock) }
func (r *productResolver) Price() float64             { return r.p.Price }
func (r *productResolver) Discount() float64          { return r.p.Discount }
func (r *productResolver) PriceWithDiscount() float64 { return r.p.PriceWithDiscount }
func (r *productResolver) Description() *string       { return optional(r.p.Description) }
func (r *productResolver) Seller() graphql.ID         { return objectID(r.p.Seller) }
func (r *productResolver) CreatedAt() *string         { return timestamp(r.p.CreatedAt) }

type clientResolver struct {
	c *models.Client
}

func clientList(clients []models.Client) []*clientResolver {
	out := make([]*clientResolver, 0, len(clients))
	for i := range clients {
		out = append(out, &clientResolver{&clients[i]})
	}
	return out
}

func (r *clientResolver) ID() graphql.ID       { return objectID(r.c.ID) }
func (r *clientResolver) Name() string         { return r.c.Name }
func (r *clientResolver) Surname() string      { return r.c.Surname }
func (r *clientResolver) BusinessName() string { return r.c.BusinessName }
func (r *clientResolver) Role() *string        { return optional(r.c.Role) }
func (r *clientResolver) Email() string        { return r.c.Email }
func (r *clientResolver) Phone() *string       { return optional(r.c.Phone) }
func (r *clientResolver) Address() *string     { return optional(r.c.Address) }
func (r *clientResolver) Seller() graphql.ID   { return objectID(r.c.Seller) }
func (r *clientResolver) CreatedAt() *string   { return timestamp(r.c.CreatedAt) }

type orderItemResolver struct {
	item *models.OrderItem
}

func (r *orderItemResolver) Product() graphql.ID        { return objectID(r.item.Product) }
func (r *orderItemResolver) Name() string               { return r.item.Name }
func (r *orderItemResolver) Price() float64             { return r.item.Price }
func (r *orderItemResolver) Discount() float64          { return r.item.Discount }
func (r *orderItemResolver) PriceWithDiscount() float64 { return r.item.PriceWithDiscount }
func (r *orderItemResolver) Quantity() int32            { return int32(r.item.Quantity) }

type orderResolver struct {
	o *models.Order
}

func orderList(orders []models.Order) []*orderResolver {
	out := make([]*orderResolver, 0, len(orders))
	for i := range orders {
		out = append(out, &orderResolver{&orders[i]})
	}
	return out
}

func (r *orderResolver) ID() graphql.ID { return objectID(r.o.ID) }

func (r *orderResolver) Order() []*orderItemResolver {
	out := make([]*orderItemResolver, 0, len(r.o.Items))
	for i := range r.o.Items {
		out = append(out, &orderItemResolver{&r.o.Items[i]})
	}
	return out
}

func (r *orderResolver) Total() float64             { return r.o.Total }
func (r *orderResolver) TotalWithDiscount() float64 { return r.o.TotalWithDiscount }
func (r *orderResolver) Client() graphql.ID         { return objectID(r.o.Client) }
func (r *orderResolver) Seller() graphql.ID         { return objectID(r.o.Seller) }
func (r *orderResolver) Status() string             { return r.o.Status }
func (r *orderResolver) CreatedAt() *string         { return timestamp(r.o.CreatedAt) }
func (r *orderResolver) UpdatedAt() *string         { return timestamp(r.o.UpdatedAt) }

type topSellerResolver struct {
	row *models.SellerRanking
}

func (r *topSellerResolver) Seller() *userResolver { return &userResolver{&r.row.Seller} }
func (r *topSellerResolver) TotalSales() float64   { return r.row.TotalSales }
func (r *topSellerResolver) TotalOrders() int32    { return int32(r.row.TotalOrders) }

type topClientResolver struct {
	row *models.ClientRanking
}

func (r *topClientResolver) Client() *clientResolver { return &clientResolver{&r.row.Client} }
func (r *topClientResolver) TotalSpent() float64     { return r.row.TotalSpent }
func (r *topClientResolver) TotalOrders() int32      { return int32(r.row.TotalOrders) }

type activityResolver struct {
	a *models.Activity
}

func (r *activityResolver) Kind() string { return string(r.a.Kind) }

func (r *activityResolver) CreatedAt() string {
	return r.a.CreatedAt.UTC().Format(time.RFC3339)
}

func (r *activityResolver) Item() *activityItemResolver { return &activityItemResolver{r.a} }

// activityItemResolver resolves the ActivityItem union
type activityItemResolver struct {
	a *models.Activity
}

func (r *activityItemResolver) ToOrder() (*orderResolver, bool) {
	if r.a.Order == nil {
		return nil, false
	}
	return &orderResolver{r.a.Order}, true
}

func (r *activityItemResolver) ToProduct() (*productResolver, bool) {
	if r.a.Product == nil {
		return nil, false
	}
	return &productResolver{r.a.Product}, true
}

func (r *activityItemResolver) ToClient() (*clientResolver, bool) {
	if r.a.Client == nil {
		return nil, false
	}
	return &clientResolver{r.a.Client}, true
}

type generalActivityResolver struct {
	g *models.GeneralActivity
}

func (r *generalActivityResolver) MonthlyRevenue() float64 { return r.g.MonthlyRevenue }
func (r *generalActivityResolver) TotalRevenue() float64   { return r.g.TotalRevenue }
func (r *generalActivityResolver) Products() int32         { return int32(r.g.Products) }
func (r *generalActivityResolver) Clients() int32          { return int32(r.g.Clients) }
func (r *generalActivityResolver) PendingOrders() int32    { return int32(r.g.PendingOrders) }
func (r *generalActivityResolver) CompletedOrders() int32  { return int32(r.g.CompletedOrders) }
func (r *generalActivityResolver) CancelledOrders() int32  { return int32(r.g.CancelledOrders) }
