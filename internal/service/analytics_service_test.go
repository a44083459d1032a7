package service

import (
	"context"
	"testing"
	"time"

	"commerce-graph/internal/apperr"
	"commerce-graph/internal/auth"
	"commerce-graph/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seedCompletedOrder(t *testing.T, s *memStore, seller, client primitive.ObjectID, total float64) {
	t.Helper()
	require.NoError(t, s.CreateOrder(context.Background(), &models.Order{
		Seller: seller,
		Client: client,
		Status: models.OrderStatusCompleted,
		Total:  total,
	}))
}

func TestGeneralActivityWithoutOrders(t *testing.T) {
	s := newMemStore()
	svc := NewAnalyticsService(s, 0)
	seller := primitive.NewObjectID()
	ctx := auth.WithCaller(context.Background(), auth.Caller{ID: seller})

	summary, err := svc.GeneralActivity(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.MonthlyRevenue)
	assert.Zero(t, summary.TotalRevenue)
	assert.Zero(t, summary.PendingOrders)

	_, err = svc.GeneralActivity(context.Background())
	assertKind(t, err, apperr.KindUnauthenticated)
}

func TestGeneralActivity(t *testing.T) {
	s := newMemStore()
	svc := NewAnalyticsService(s, 0)
	svc.now = func() time.Time { return time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC) }

	seller := primitive.NewObjectID()
	client := primitive.NewObjectID()
	ctx := auth.WithCaller(context.Background(), auth.Caller{ID: seller})

	// the memStore clock starts in March
	seedCompletedOrder(t, s, seller, client, 100)
	s.clock = time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
	seedCompletedOrder(t, s, seller, client, 50)
	require.NoError(t, s.CreateOrder(context.Background(), &models.Order{Seller: seller, Status: models.OrderStatusPending, Total: 999}))
	require.NoError(t, s.CreateOrder(context.Background(), &models.Order{Seller: seller, Status: models.OrderStatusCancelled, Total: 999}))
	require.NoError(t, s.CreateProduct(context.Background(), &models.Product{Seller: seller}))
	require.NoError(t, s.CreateClient(context.Background(), &models.Client{Seller: seller}))

	summary, err := svc.GeneralActivity(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50.0, summary.MonthlyRevenue)
	assert.Equal(t, 150.0, summary.TotalRevenue)
	assert.Equal(t, int64(1), summary.Products)
	assert.Equal(t, int64(1), summary.Clients)
	assert.Equal(t, int64(1), summary.PendingOrders)
	assert.Equal(t, int64(2), summary.CompletedOrders)
	assert.Equal(t, int64(1), summary.CancelledOrders)
}

func TestGeneralActivityMonthIsUTC(t *testing.T) {
	s := newMemStore()
	svc := NewAnalyticsService(s, 0)
	// 1 May 02:00 at +05:00 is still 30 April in UTC
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 2, 0, 0, 0, time.FixedZone("UTC+5", 5*3600)) }

	seller := primitive.NewObjectID()
	ctx := auth.WithCaller(context.Background(), auth.Caller{ID: seller})

	s.clock = time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
	seedCompletedOrder(t, s, seller, primitive.NewObjectID(), 50)

	summary, err := svc.GeneralActivity(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50.0, summary.MonthlyRevenue)
}

func TestBestSellers(t *testing.T) {
	s := newMemStore()
	svc := NewAnalyticsService(s, 0)

	var sellers []primitive.ObjectID
	for i := 0; i < 5; i++ {
		u := &models.User{Name: "Seller", Email: primitive.NewObjectID().Hex() + "@example.com", PasswordHash: "hash"}
		require.NoError(t, s.CreateUser(context.Background(), u))
		sellers = append(sellers, u.ID)
		seedCompletedOrder(t, s, u.ID, primitive.NewObjectID(), float64(100*(i+1)))
	}
	// pending orders do not count
	require.NoError(t, s.CreateOrder(context.Background(), &models.Order{Seller: sellers[0], Status: models.OrderStatusPending, Total: 10000}))

	ctx := auth.WithCaller(context.Background(), auth.Caller{ID: sellers[0]})
	ranking, err := svc.BestSellers(ctx)
	require.NoError(t, err)

	assert.Equal(t, bestSellersLimit, s.lastLimit)
	require.Len(t, ranking, 3)
	assert.Equal(t, 500.0, ranking[0].TotalSales)
	for i := 1; i < len(ranking); i++ {
		assert.Greater(t, ranking[i-1].TotalSales, ranking[i].TotalSales)
	}
	assert.Empty(t, ranking[0].Seller.PasswordHash)

	_, err = svc.BestSellers(context.Background())
	assertKind(t, err, apperr.KindUnauthenticated)
}

func TestBestClients(t *testing.T) {
	s := newMemStore()
	svc := NewAnalyticsService(s, 0)
	seller := primitive.NewObjectID()

	client := &models.Client{Name: "Ana", Seller: seller}
	require.NoError(t, s.CreateClient(context.Background(), client))
	seedCompletedOrder(t, s, seller, client.ID, 70)
	seedCompletedOrder(t, s, seller, client.ID, 30)

	ranking, err := svc.BestClients(auth.WithCaller(context.Background(), auth.Caller{ID: seller}))
	require.NoError(t, err)
	assert.Equal(t, bestClientsLimit, s.lastLimit)
	require.Len(t, ranking, 1)
	assert.Equal(t, 100.0, ranking[0].TotalSpent)
	assert.Equal(t, 2, ranking[0].TotalOrders)
}

func TestRecentActivity(t *testing.T) {
	s := newMemStore()
	svc := NewAnalyticsService(s, 4)
	seller := primitive.NewObjectID()
	ctx := auth.WithCaller(context.Background(), auth.Caller{ID: seller})

	require.NoError(t, s.CreateProduct(context.Background(), &models.Product{Name: "old product", Seller: seller}))
	require.NoError(t, s.CreateClient(context.Background(), &models.Client{Name: "client", Seller: seller}))
	require.NoError(t, s.CreateOrder(context.Background(), &models.Order{Seller: seller, Status: models.OrderStatusPending}))
	require.NoError(t, s.CreateProduct(context.Background(), &models.Product{Name: "new product", Seller: seller}))
	require.NoError(t, s.CreateProduct(context.Background(), &models.Product{Name: "newest product", Seller: seller}))
	require.NoError(t, s.CreateProduct(context.Background(), &models.Product{Name: "other seller", Seller: primitive.NewObjectID()}))

	feed, err := svc.RecentActivity(ctx)
	require.NoError(t, err)
	require.Len(t, feed, 4)

	kinds := make([]models.ActivityKind, 0, len(feed))
	for _, a := range feed {
		kinds = append(kinds, a.Kind)
	}
	assert.Equal(t, []models.ActivityKind{
		models.ActivityProduct, models.ActivityProduct, models.ActivityOrder, models.ActivityClient,
	}, kinds)
	assert.Equal(t, "newest product", feed[0].Product.Name)
	assert.NotNil(t, feed[2].Order)
	assert.Nil(t, feed[2].Product)
}

func TestMergeActivityTruncates(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	orders := []models.Order{{CreatedAt: base.Add(3 * time.Hour)}}
	products := []models.Product{{CreatedAt: base.Add(2 * time.Hour)}, {CreatedAt: base}}
	clients := []models.Client{{CreatedAt: base.Add(4 * time.Hour)}}

	feed := mergeActivity(orders, products, clients, 3)
	require.Len(t, feed, 3)
	assert.Equal(t, models.ActivityClient, feed[0].Kind)
	assert.Equal(t, models.ActivityOrder, feed[1].Kind)
	assert.Equal(t, models.ActivityProduct, feed[2].Kind)
}
