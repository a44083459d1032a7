package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"commerce-graph/internal/models"
	"commerce-graph/internal/store"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory stand-in for store.Store with the same error
// contract
type memStore struct {
	mu       sync.Mutex
	clock    time.Time
	users    map[primitive.ObjectID]models.User
	clients  map[primitive.ObjectID]models.Client
	products map[primitive.ObjectID]models.Product
	orders   map[primitive.ObjectID]models.Order

	failCreateOrder error
	lastLimit       int
}

func newMemStore() *memStore {
	return &memStore{
		clock:    time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
		users:    map[primitive.ObjectID]models.User{},
		clients:  map[primitive.ObjectID]models.Client{},
		products: map[primitive.ObjectID]models.Product{},
		orders:   map[primitive.ObjectID]models.Order{},
	}
}

// tick hands out strictly increasing timestamps so newest-first is stable
func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return store.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = m.tick()
	m.users[user.ID] = *user
	return nil
}

func (m *memStore) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) UpdateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return store.ErrNotFound
	}
	m.users[user.ID] = *user
	return nil
}

func (m *memStore) CreateProduct(_ context.Context, product *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = m.tick()
	m.products[product.ID] = *product
	return nil
}

func (m *memStore) GetProductByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (m *memStore) GetProducts(ctx context.Context) ([]models.Product, error) {
	return m.RecentProducts(ctx, primitive.NilObjectID, 0)
}

func (m *memStore) GetProductsBySeller(ctx context.Context, seller primitive.ObjectID) ([]models.Product, error) {
	return m.RecentProducts(ctx, seller, 0)
}

func (m *memStore) SearchProducts(_ context.Context, text string, limit int) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = limit
	var out []models.Product
	for _, p := range m.products {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(text)) {
			out = append(out, p)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) UpdateProduct(_ context.Context, product *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[product.ID]; !ok {
		return store.ErrNotFound
	}
	m.products[product.ID] = *product
	return nil
}

func (m *memStore) DeleteProduct(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *memStore) CountProducts(_ context.Context, seller primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.products {
		if p.Seller == seller {
			n++
		}
	}
	return n, nil
}

func (m *memStore) RecentProducts(_ context.Context, seller primitive.ObjectID, limit int) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Product{}
	for _, p := range m.products {
		if seller.IsZero() || p.Seller == seller {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) CreateClient(_ context.Context, client *models.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	client.ID = primitive.NewObjectID()
	client.CreatedAt = m.tick()
	m.clients[client.ID] = *client
	return nil
}

func (m *memStore) GetClientByID(_ context.Context, id primitive.ObjectID) (*models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (m *memStore) GetClientBySellerAndEmail(_ context.Context, seller primitive.ObjectID, email string) (*models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.clients {
		if c.Seller == seller && c.Email == email {
			c := c
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) GetClients(ctx context.Context) ([]models.Client, error) {
	return m.RecentClients(ctx, primitive.NilObjectID, 0)
}

func (m *memStore) GetClientsBySeller(ctx context.Context, seller primitive.ObjectID) ([]models.Client, error) {
	return m.RecentClients(ctx, seller, 0)
}

func (m *memStore) RecentClients(_ context.Context, seller primitive.ObjectID, limit int) ([]models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Client{}
	for _, c := range m.clients {
		if seller.IsZero() || c.Seller == seller {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) UpdateClient(_ context.Context, client *models.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[client.ID]; !ok {
		return store.ErrNotFound
	}
	m.clients[client.ID] = *client
	return nil
}

func (m *memStore) DeleteClient(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.clients, id)
	return nil
}

func (m *memStore) CountClients(_ context.Context, seller primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range m.clients {
		if c.Seller == seller {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CreateOrder(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreateOrder != nil {
		return m.failCreateOrder
	}
	order.ID = primitive.NewObjectID()
	order.CreatedAt = m.tick()
	m.orders[order.ID] = *order
	return nil
}

func (m *memStore) GetOrderByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &o, nil
}

func (m *memStore) GetOrderByIdempotencyKey(_ context.Context, seller primitive.ObjectID, key string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.Seller == seller && o.IdempotencyKey == key {
			o := o
			return &o, nil
		}
	}
	return nil, nil
}

func (m *memStore) filterOrders(keep func(models.Order) bool, limit int) []models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Order{}
	for _, o := range m.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *memStore) GetOrders(context.Context) ([]models.Order, error) {
	return m.filterOrders(func(models.Order) bool { return true }, 0), nil
}

func (m *memStore) GetOrdersBySeller(_ context.Context, seller primitive.ObjectID) ([]models.Order, error) {
	return m.filterOrders(func(o models.Order) bool { return o.Seller == seller }, 0), nil
}

func (m *memStore) GetOrdersBySellerAndStatus(_ context.Context, seller primitive.ObjectID, status string) ([]models.Order, error) {
	return m.filterOrders(func(o models.Order) bool { return o.Seller == seller && o.Status == status }, 0), nil
}

func (m *memStore) GetOrdersBySellerAndClient(_ context.Context, seller, client primitive.ObjectID) ([]models.Order, error) {
	return m.filterOrders(func(o models.Order) bool { return o.Seller == seller && o.Client == client }, 0), nil
}

func (m *memStore) RecentOrders(_ context.Context, seller primitive.ObjectID, limit int) ([]models.Order, error) {
	return m.filterOrders(func(o models.Order) bool { return o.Seller == seller }, limit), nil
}

func (m *memStore) UpdateOrder(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; !ok {
		return store.ErrNotFound
	}
	m.orders[order.ID] = *order
	return nil
}

func (m *memStore) DeleteOrder(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

// ReserveStock mirrors the all-or-nothing contract of store.ReserveStock
func (m *memStore) ReserveStock(_ context.Context, changes []models.StockChange) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending := map[primitive.ObjectID]int{}
	for _, change := range changes {
		p, ok := m.products[change.ProductID]
		if !ok {
			return nil, &store.StockError{Change: change, Err: store.ErrNotFound}
		}
		pending[change.ProductID] += change.Quantity
		if p.Stock < pending[change.ProductID] {
			return nil, &store.StockError{Change: change, Err: store.ErrInsufficientStock}
		}
	}

	reserved := make([]models.Product, 0, len(changes))
	for _, change := range changes {
		p := m.products[change.ProductID]
		p.Stock -= change.Quantity
		m.products[change.ProductID] = p
		reserved = append(reserved, p)
	}
	return reserved, nil
}

func (m *memStore) RestoreStock(_ context.Context, changes []models.StockChange) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	restored := make([]models.Product, 0, len(changes))
	for _, change := range changes {
		p, ok := m.products[change.ProductID]
		if !ok {
			continue
		}
		p.Stock += change.Quantity
		m.products[change.ProductID] = p
		restored = append(restored, p)
	}
	return restored, nil
}

func (m *memStore) TopSellers(_ context.Context, limit int) ([]models.SellerRanking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = limit

	bySeller := map[primitive.ObjectID]*models.SellerRanking{}
	for _, o := range m.orders {
		if o.Status != models.OrderStatusCompleted {
			continue
		}
		r, ok := bySeller[o.Seller]
		if !ok {
			u, found := m.users[o.Seller]
			if !found {
				continue
			}
			u.PasswordHash = ""
			r = &models.SellerRanking{Seller: u}
			bySeller[o.Seller] = r
		}
		r.TotalSales += o.Total
		r.TotalOrders++
	}

	out := make([]models.SellerRanking, 0, len(bySeller))
	for _, r := range bySeller {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalSales > out[j].TotalSales })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) TopClients(_ context.Context, limit int) ([]models.ClientRanking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = limit

	byClient := map[primitive.ObjectID]*models.ClientRanking{}
	for _, o := range m.orders {
		if o.Status != models.OrderStatusCompleted {
			continue
		}
		r, ok := byClient[o.Client]
		if !ok {
			c, found := m.clients[o.Client]
			if !found {
				continue
			}
			r = &models.ClientRanking{Client: c}
			byClient[o.Client] = r
		}
		r.TotalSpent += o.Total
		r.TotalOrders++
	}

	out := make([]models.ClientRanking, 0, len(byClient))
	for _, r := range byClient {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalSpent > out[j].TotalSpent })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) Revenue(_ context.Context, seller primitive.ObjectID, since time.Time) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum float64
	for _, o := range m.orders {
		if o.Seller == seller && o.Status == models.OrderStatusCompleted && !o.CreatedAt.Before(since) {
			sum += o.Total
		}
	}
	return sum, nil
}

func (m *memStore) CountOrdersByStatus(_ context.Context, seller primitive.ObjectID) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{}
	for _, o := range m.orders {
		if o.Seller == seller {
			counts[o.Status]++
		}
	}
	return counts, nil
}

func (m *memStore) stockOf(id primitive.ObjectID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Stock
}

func (m *memStore) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

// mockPublisher records published events
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishOrderEvent(ctx context.Context, event *models.OrderEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockPublisher) PublishStockAdjusted(ctx context.Context, event *models.StockAdjustedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// newMockPublisher accepts any event
func newMockPublisher() *mockPublisher {
	p := &mockPublisher{}
	p.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(nil).Maybe()
	p.On("PublishStockAdjusted", mock.Anything, mock.Anything).Return(nil).Maybe()
	return p
}

type mockLocker struct {
	mock.Mock
}

func (m *mockLocker) AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockLocker) ReleaseLock(ctx context.Context, key, token string) error {
	args := m.Called(ctx, key, token)
	return args.Error(0)
}
