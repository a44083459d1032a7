package service

import (
	"context"
	"sort"
	"time"

	"commerce-graph/internal/auth"
	"commerce-graph/internal/models"
	"commerce-graph/internal/store"
	"commerce-graph/internal/util"

	"go.uber.org/zap"
)

const (
	bestSellersLimit           = 3
	bestClientsLimit           = 10
	defaultRecentActivityLimit = 10
)

// AnalyticsService serves the read-only reports
type AnalyticsService struct {
	repo        AnalyticsRepository
	recentLimit int
	now         func() time.Time
	logger      *zap.Logger
}

// NewAnalyticsService creates a new analytics service. recentLimit bounds
// the recent activity feed.
func NewAnalyticsService(repo AnalyticsRepository, recentLimit int) *AnalyticsService {
	if recentLimit <= 0 {
		recentLimit = defaultRecentActivityLimit
	}
	return &AnalyticsService{
		repo:        repo,
		recentLimit: recentLimit,
		now:         time.Now,
		logger:      util.Named("analytics_service"),
	}
}

// BestSellers ranks sellers by completed sales
func (s *AnalyticsService) BestSellers(ctx context.Context) ([]models.SellerRanking, error) {
	ctx, span := util.StartSpan(ctx, "AnalyticsService.BestSellers")
	var err error
	defer func() { util.EndSpan(span, err) }()

	if _, err = auth.RequireCaller(ctx); err != nil {
		return nil, err
	}

	rankings, queryErr := s.repo.TopSellers(ctx, bestSellersLimit)
	if queryErr != nil {
		err = internal(s.logger, queryErr, "Error fetching best sellers")
		return nil, err
	}
	return rankings, nil
}

// BestClients ranks clients by completed spend
func (s *AnalyticsService) BestClients(ctx context.Context) ([]models.ClientRanking, error) {
	ctx, span := util.StartSpan(ctx, "AnalyticsService.BestClients")
	var err error
	defer func() { util.EndSpan(span, err) }()

	if _, err = auth.RequireCaller(ctx); err != nil {
		return nil, err
	}

	rankings, queryErr := s.repo.TopClients(ctx, bestClientsLimit)
	if queryErr != nil {
		err = internal(s.logger, queryErr, "Error fetching best clients")
		return nil, err
	}
	return rankings, nil
}

// RecentActivity merges the caller's newest orders, products and clients
// into a single feed, newest first
func (s *AnalyticsService) RecentActivity(ctx context.Context) ([]models.Activity, error) {
	ctx, span := util.StartSpan(ctx, "AnalyticsService.RecentActivity")
	var err error
	defer func() { util.EndSpan(span, err) }()

	caller, err := auth.RequireCaller(ctx)
	if err != nil {
		return nil, err
	}

	k := s.recentLimit
	orders, queryErr := s.repo.RecentOrders(ctx, caller.ID, k)
	if queryErr != nil {
		err = internal(s.logger, queryErr, "Error fetching recent activity")
		return nil, err
	}
	products, queryErr := s.repo.RecentProducts(ctx, caller.ID, k)
	if queryErr != nil {
		err = internal(s.logger, queryErr, "Error fetching recent activity")
		return nil, err
	}
	clients, queryErr := s.repo.RecentClients(ctx, caller.ID, k)
	if queryErr != nil {
		err = internal(s.logger, queryErr, "Error fetching recent activity")
		return nil, err
	}

	return mergeActivity(orders, products, clients, k), nil
}

func mergeActivity(orders []models.Order, products []models.Product, clients []models.Client, limit int) []models.Activity {
	feed := make([]models.Activity, 0, len(orders)+len(products)+len(clients))
	for i := range orders {
		feed = append(feed, models.Activity{Kind: models.ActivityOrder, CreatedAt: orders[i].CreatedAt, Order: &orders[i]})
	}
	for i := range products {
		feed = append(feed, models.Activity{Kind: models.ActivityProduct, CreatedAt: products[i].CreatedAt, Product: &products[i]})
	}
	for i := range clients {
		feed = append(feed, models.Activity{Kind: models.ActivityClient, CreatedAt: clients[i].CreatedAt, Client: &clients[i]})
	}

	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].CreatedAt.After(feed[j].CreatedAt)
	})

	if len(feed) > limit {
		feed = feed[:limit]
	}
	return feed
}

// GeneralActivity summarizes the caller's revenue and record counts.
// Revenue only counts completed orders.
func (s *AnalyticsService) GeneralActivity(ctx context.Context) (*models.GeneralActivity, error) {
	ctx, span := util.StartSpan(ctx, "AnalyticsService.GeneralActivity")
	var err error
	defer func() { util.EndSpan(span, err) }()

	caller, err := auth.RequireCaller(ctx)
	if err != nil {
		return nil, err
	}

	summary := &models.GeneralActivity{}
	fail := func(queryErr error) (*models.GeneralActivity, error) {
		err = internal(s.logger, queryErr, "Error fetching general activity")
		return nil, err
	}

	var queryErr error
	if summary.MonthlyRevenue, queryErr = s.repo.Revenue(ctx, caller.ID, store.StartOfMonth(s.now().UTC())); queryErr != nil {
		return fail(queryErr)
	}
	if summary.TotalRevenue, queryErr = s.repo.Revenue(ctx, caller.ID, time.Time{}); queryErr != nil {
		return fail(queryErr)
	}
	if summary.Products, queryErr = s.repo.CountProducts(ctx, caller.ID); queryErr != nil {
		return fail(queryErr)
	}
	if summary.Clients, queryErr = s.repo.CountClients(ctx, caller.ID); queryErr != nil {
		return fail(queryErr)
	}

	counts, queryErr := s.repo.CountOrdersByStatus(ctx, caller.ID)
	if queryErr != nil {
		return fail(queryErr)
	}
	summary.PendingOrders = counts[models.OrderStatusPending]
	summary.CompletedOrders = counts[models.OrderStatusCompleted]
	summary.CancelledOrders = counts[models.OrderStatusCancelled]

	return summary, nil
}
