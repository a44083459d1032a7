package api

import (
	"context"

	"commerce-graph/internal/models"
	"commerce-graph/internal/service"

	"github.com/graph-gophers/graphql-go"
)

// UserService is the account surface used by the resolvers
type UserService interface {
	CreateUser(ctx context.Context, input service.CreateUserInput) (*models.User, error)
	Authenticate(ctx context.Context, input service.AuthInput) (string, error)
	GetUser(ctx context.Context) (*models.User, error)
	UpdateUser(ctx context.Context, input service.UpdateUserInput) (*models.User, error)
	ChangePassword(ctx context.Context, input service.ChangePasswordInput) (string, error)
}

// ProductService is the catalog surface used by the resolvers
type ProductService interface {
	CreateProduct(ctx context.Context, input service.ProductInput) (*models.Product, error)
	GetProducts(ctx context.Context) ([]models.Product, error)
	GetSellerProducts(ctx context.Context) ([]models.Product, error)
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
	SearchByName(ctx context.Context, text string) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id string, input service.ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) (string, error)
}

// ClientService is the client directory surface used by the resolvers
type ClientService interface {
	CreateClient(ctx context.Context, input service.ClientInput) (*models.Client, error)
	GetClients(ctx context.Context) ([]models.Client, error)
	GetSellerClients(ctx context.Context) ([]models.Client, error)
	GetClientByID(ctx context.Context, id string) (*models.Client, error)
	UpdateClient(ctx context.Context, id string, input service.ClientInput) (*models.Client, error)
	DeleteClient(ctx context.Context, id string) (string, error)
}

// OrderService is the order surface used by the resolvers
type OrderService interface {
	CreateOrder(ctx context.Context, input service.CreateOrderInput) (*models.Order, error)
	UpdateOrder(ctx context.Context, id string, input service.UpdateOrderInput) (*models.Order, error)
	DeleteOrder(ctx context.Context, id string) (string, error)
	GetOrders(ctx context.Context) ([]models.Order, error)
	GetSellerOrders(ctx context.Context) ([]models.Order, error)
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrdersByStatus(ctx context.Context, status string) ([]models.Order, error)
	GetOrdersByClient(ctx context.Context, clientID string) ([]models.Order, error)
}

// AnalyticsService is the reporting surface used by the resolvers
type AnalyticsService interface {
	BestSellers(ctx context.Context) ([]models.SellerRanking, error)
	BestClients(ctx context.Context) ([]models.ClientRanking, error)
	RecentActivity(ctx context.Context) ([]models.Activity, error)
	GeneralActivity(ctx context.Context) (*models.GeneralActivity, error)
}

// Services groups everything the GraphQL root resolver delegates to
type Services struct {
	Users     UserService
	Products  ProductService
	Clients   ClientService
	Orders    OrderService
	Analytics AnalyticsService
}

// Resolver is the root resolver for both Query and Mutation
type Resolver struct {
	svc Services
}

func newResolver(svc Services) *Resolver {
	return &Resolver{svc: svc}
}

type idArgs struct {
	ID graphql.ID
}

type userInput struct {
	Name     string
	Surname  string
	Email    string
	Password string
}

type authInput struct {
	Email    string
	Password string
}

type updateUserInput struct {
	Name         string
	Surname      string
	Email        string
	Phone        *string
	BusinessName *string
	Role         *string
	Address      *string
}

type passwordInput struct {
	CurrentPassword string
	NewPassword     string
}

type productInput struct {
	Name        string
	Stock       int32
	Price       float64
	Discount    *float64
	Description *string
}

func (in productInput) toService() service.ProductInput {
	return service.ProductInput{
		Name:        in.Name,
		Stock:       int(in.Stock),
		Price:       in.Price,
		Discount:    in.Discount,
		Description: deref(in.Description),
	}
}

type clientInput struct {
	Name         string
	Surname      string
	BusinessName string
	Role         *string
	Email        string
	Phone        *string
	Address      *string
}

func (in clientInput) toService() service.ClientInput {
	return service.ClientInput{
		Name:         in.Name,
		Surname:      in.Surname,
		BusinessName: in.BusinessName,
		Role:         deref(in.Role),
		Email:        in.Email,
		Phone:        deref(in.Phone),
		Address:      deref(in.Address),
	}
}

type orderItemInput struct {
	Product  graphql.ID
	Quantity int32
}

type orderInput struct {
	Order          []orderItemInput
	Client         graphql.ID
	Status         *string
	IdempotencyKey *string
}

type updateOrderInput struct {
	Order  *[]orderItemInput
	Client *graphql.ID
	Status *string
}

func toOrderItems(items []orderItemInput) []service.OrderItemInput {
	out := make([]service.OrderItemInput, 0, len(items))
	for _, item := range items {
		out = append(out, service.OrderItemInput{
			ProductID: string(item.Product),
			Quantity:  int(item.Quantity),
		})
	}
	return out
}

// Account

func (r *Resolver) GetUser(ctx context.Context) (*userResolver, error) {
	user, err := r.svc.Users.GetUser(ctx)
	if err != nil {
		return nil, err
	}
	return &userResolver{user}, nil
}

func (r *Resolver) CreateUser(ctx context.Context, args struct{ Input userInput }) (*userResolver, error) {
	user, err := r.svc.Users.CreateUser(ctx, service.CreateUserInput{
		Name:     args.Input.Name,
		Surname:  args.Input.Surname,
		Email:    args.Input.Email,
		Password: args.Input.Password,
	})
	if err != nil {
		return nil, err
	}
	return &userResolver{user}, nil
}

func (r *Resolver) AuthenticateUser(ctx context.Context, args struct{ Input authInput }) (*tokenResolver, error) {
	token, err := r.svc.Users.Authenticate(ctx, service.AuthInput{
		Email:    args.Input.Email,
		Password: args.Input.Password,
	})
	if err != nil {
		return nil, err
	}
	return &tokenResolver{token}, nil
}

func (r *Resolver) UpdateUser(ctx context.Context, args struct{ Input updateUserInput }) (*userResolver, error) {
	in := args.Input
	user, err := r.svc.Users.UpdateUser(ctx, service.UpdateUserInput{
		Name:         in.Name,
		Surname:      in.Surname,
		Email:        in.Email,
		Phone:        deref(in.Phone),
		BusinessName: deref(in.BusinessName),
		Role:         deref(in.Role),
		Address:      deref(in.Address),
	})
	if err != nil {
		return nil, err
	}
	return &userResolver{user}, nil
}

func (r *Resolver) ChangePassword(ctx context.Context, args struct{ Input passwordInput }) (string, error) {
	return r.svc.Users.ChangePassword(ctx, service.ChangePasswordInput{
		CurrentPassword: args.Input.CurrentPassword,
		NewPassword:     args.Input.NewPassword,
	})
}

// Catalog

func (r *Resolver) GetProducts(ctx context.Context) ([]*productResolver, error) {
	products, err := r.svc.Products.GetProducts(ctx)
	if err != nil {
		return nil, err
	}
	return productList(products), nil
}

func (r *Resolver) GetSellerProducts(ctx context.Context) ([]*productResolver, error) {
	products, err := r.svc.Products.GetSellerProducts(ctx)
	if err != nil {
		return nil, err
	}
	return productList(products), nil
}

func (r *Resolver) GetProductByID(ctx context.Context, args idArgs) (*productResolver, error) {
	product, err := r.svc.Products.GetProductByID(ctx, string(args.ID))
	if err != nil {
		return nil, err
	}
	return &productResolver{product}, nil
}

func (r *Resolver) GetProductsByName(ctx context.Context, args struct{ Text string }) ([]*productResolver, error) {
	products, err := r.svc.Products.SearchByName(ctx, args.Text)
	if err != nil {
		return nil, err
	}
	return productList(products), nil
}

func (r *Resolver) CreateProduct(ctx context.Context, args struct{ Input productInput }) (*productResolver, error) {
	product, err := r.svc.Products.CreateProduct(ctx, args.Input.toService())
	if err != nil {
		return nil, err
	}
	return &productResolver{product}, nil
}

func (r *Resolver) UpdateProduct(ctx context.Context, args struct {
	ID    graphql.ID
	Input productInput
}) (*productResolver, error) {
	product, err := r.svc.Products.UpdateProduct(ctx, string(args.ID), args.Input.toService())
	if err != nil {
		return nil, err
	}
	return &productResolver{product}, nil
}

func (r *Resolver) DeleteProduct(ctx context.Context, args idArgs) (string, error) {
	return r.svc.Products.DeleteProduct(ctx, string(args.ID))
}

// Clients

func (r *Resolver) GetClients(ctx context.Context) ([]*clientResolver, error) {
	clients, err := r.svc.Clients.GetClients(ctx)
	if err != nil {
		return nil, err
	}
	return clientList(clients), nil
}

func (r *Resolver) GetSellerClients(ctx context.Context) ([]*clientResolver, error) {
	clients, err := r.svc.Clients.GetSellerClients(ctx)
	if err != nil {
		return nil, err
	}
	return clientList(clients), nil
}

func (r *Resolver) GetClientByID(ctx context.Context, args idArgs) (*clientResolver, error) {
	client, err := r.svc.Clients.GetClientByID(ctx, string(args.ID))
	if err != nil {
		return nil, err
	}
	return &clientResolver{client}, nil
}

func (r *Resolver) CreateClient(ctx context.Context, args struct{ Input clientInput }) (*clientResolver, error) {
	client, err := r.svc.Clients.CreateClient(ctx, args.Input.toService())
	if err != nil {
		return nil, err
	}
	return &clientResolver{client}, nil
}

func (r *Resolver) UpdateClient(ctx context.Context, args struct {
	ID    graphql.ID
	Input clientInput
}) (*clientResolver, error) {
	client, err := r.svc.Clients.UpdateClient(ctx, string(args.ID), args.Input.toService())
	if err != nil {
		return nil, err
	}
	return &clientResolver{client}, nil
}

func (r *Resolver) DeleteClient(ctx context.Context, args idArgs) (string, error) {
	return r.svc.Clients.DeleteClient(ctx, string(args.ID))
}

// Orders

func (r *Resolver) GetOrders(ctx context.Context) ([]*orderResolver, error) {
	orders, err := r.svc.Orders.GetOrders(ctx)
	if err != nil {
		return nil, err
	}
	return orderList(orders), nil
}

func (r *Resolver) GetSellerOrders(ctx context.Context) ([]*orderResolver, error) {
	orders, err := r.svc.Orders.GetSellerOrders(ctx)
	if err != nil {
		return nil, err
	}
	return orderList(orders), nil
}

func (r *Resolver) GetOrderByID(ctx context.Context, args idArgs) (*orderResolver, error) {
	order, err := r.svc.Orders.GetOrderByID(ctx, string(args.ID))
	if err != nil {
		return nil, err
	}
	return &orderResolver{order}, nil
}

func (r *Resolver) GetOrdersByStatus(ctx context.Context, args struct{ Status string }) ([]*orderResolver, error) {
	orders, err := r.svc.Orders.GetOrdersByStatus(ctx, args.Status)
	if err != nil {
		return nil, err
	}
	return orderList(orders), nil
}

func (r *Resolver) GetOrdersByClient(ctx context.Context, args struct{ Client graphql.ID }) ([]*orderResolver, error) {
	orders, err := r.svc.Orders.GetOrdersByClient(ctx, string(args.Client))
	if err != nil {
		return nil, err
	}
	return orderList(orders), nil
}

func (r *Resolver) CreateOrder(ctx context.Context, args struct{ Input orderInput }) (*orderResolver, error) {
	in := args.Input
	order, err := r.svc.Orders.CreateOrder(ctx, service.CreateOrderInput{
		ClientID:       string(in.Client),
		Items:          toOrderItems(in.Order),
		Status:         deref(in.Status),
		IdempotencyKey: deref(in.IdempotencyKey),
	})
	if err != nil {
		return nil, err
	}
	return &orderResolver{order}, nil
}

func (r *Resolver) UpdateOrder(ctx context.Context, args struct {
	ID    graphql.ID
	Input updateOrderInput
}) (*orderResolver, error) {
	in := args.Input
	input := service.UpdateOrderInput{Status: in.Status}
	if in.Client != nil {
		client := string(*in.Client)
		input.ClientID = &client
	}
	if in.Order != nil {
		input.Items = toOrderItems(*in.Order)
	}

	order, err := r.svc.Orders.UpdateOrder(ctx, string(args.ID), input)
	if err != nil {
		return nil, err
	}
	return &orderResolver{order}, nil
}

func (r *Resolver) DeleteOrder(ctx context.Context, args idArgs) (string, error) {
	return r.svc.Orders.DeleteOrder(ctx, string(args.ID))
}

// Analytics

func (r *Resolver) GetBestSellers(ctx context.Context) ([]*topSellerResolver, error) {
	rows, err := r.svc.Analytics.BestSellers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*topSellerResolver, 0, len(rows))
	for i := range rows {
		out = append(out, &topSellerResolver{&rows[i]})
	}
	return out, nil
}

func (r *Resolver) GetBestClients(ctx context.Context) ([]*topClientResolver, error) {
	rows, err := r.svc.Analytics.BestClients(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*topClientResolver, 0, len(rows))
	for i := range rows {
		out = append(out, &topClientResolver{&rows[i]})
	}
	return out, nil
}

func (r *Resolver) GetRecentActivity(ctx context.Context) ([]*activityResolver, error) {
	entries, err := r.svc.Analytics.RecentActivity(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*activityResolver, 0, len(entries))
	for i := range entries {
		out = append(out, &activityResolver{&entries[i]})
	}
	return out, nil
}

func (r *Resolver) GetGeneralActivity(ctx context.Context) (*generalActivityResolver, error) {
	activity, err := r.svc.Analytics.GeneralActivity(ctx)
	if err != nil {
		return nil, err
	}
	return &generalActivityResolver{activity}, nil
}
