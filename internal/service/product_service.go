package service

import (
	"context"
	"strings"

	"commerce-graph/internal/auth"
	"commerce-graph/internal/models"
	"commerce-graph/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const productSearchLimit = 10

// ProductService manages the catalog
type ProductService struct {
	products  ProductRepository
	guard     *auth.Guard
	publisher EventPublisher
	logger    *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(products ProductRepository, guard *auth.Guard, publisher EventPublisher) *ProductService {
	return &ProductService{
		products:  products,
		guard:     guard,
		publisher: publisher,
		logger:    util.Named("product_service"),
	}
}

// ProductInput is the create and update payload
type ProductInput struct {
	Name        string   `validate:"required"`
	Stock       int      `validate:"gte=0"`
	Price       float64  `validate:"gte=0"`
	Discount    *float64 `validate:"omitempty,gte=0,lte=100"`
	Description string
}

// CreateProduct adds a product owned by the caller. The discounted price is
// fixed here and not recomputed by later updates.
func (s *ProductService) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.CreateProduct")
	var err error
	defer func() { util.EndSpan(span, err) }()

	caller, err := auth.RequireCaller(ctx)
	if err != nil {
		return nil, err
	}
	if err = validateInput(input); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:              input.Name,
		Stock:             input.Stock,
		Price:             input.Price,
		PriceWithDiscount: input.Price,
		Description:       input.Description,
		Seller:            caller.ID,
	}
	if input.Discount != nil {
		product.Discount = *input.Discount
		product.PriceWithDiscount = models.DiscountedPrice(input.Price, *input.Discount)
	}

	if createErr := s.products.CreateProduct(ctx, product); createErr != nil {
		err = internal(s.logger, createErr, "Error creating product")
		return nil, err
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.Hex()),
		zap.Int("stock", product.Stock))
	return product, nil
}

// GetProducts lists every product, newest first
func (s *ProductService) GetProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.products.GetProducts(ctx)
	if err != nil {
		return nil, internal(s.logger, err, "Error fetching products")
	}
	return products, nil
}

// GetSellerProducts lists the caller's products, newest first
func (s *ProductService) GetSellerProducts(ctx context.Context) ([]models.Product, error) {
	caller, err := auth.RequireCaller(ctx)
	if err != nil {
		return nil, err
	}

	products, err := s.products.GetProductsBySeller(ctx, caller.ID)
	if err != nil {
		return nil, internal(s.logger, err, "Error fetching products")
	}
	return products, nil
}

// GetProductByID returns a single product
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := parseID(id, "product")
	if err != nil {
		return nil, err
	}

	product, err := s.products.GetProductByID(ctx, oid)
	if err != nil {
		return nil, lookup(s.logger, err, "Product not found", "Error fetching product")
	}
	return product, nil
}

// SearchByName runs a relevance ordered text search over product names
func (s *ProductService) SearchByName(ctx context.Context, text string) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.SearchByName", attribute.String("text", text))
	var err error
	defer func() { util.EndSpan(span, err) }()

	if _, err = auth.RequireCaller(ctx); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return []models.Product{}, nil
	}

	products, searchErr := s.products.SearchProducts(ctx, text, productSearchLimit)
	if searchErr != nil {
		err = internal(s.logger, searchErr, "Error searching products")
		return nil, err
	}
	return products, nil
}

// UpdateProduct replaces the product fields. The discounted price keeps the
// value computed at creation.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input ProductInput) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.UpdateProduct", attribute.String("product_id", id))
	var err error
	defer func() { util.EndSpan(span, err) }()

	product, err := s.loadForChange(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = validateInput(input); err != nil {
		return nil, err
	}

	previousStock := product.Stock
	product.Name = input.Name
	product.Stock = input.Stock
	product.Price = input.Price
	product.Description = input.Description
	if input.Discount != nil {
		product.Discount = *input.Discount
	}

	if updateErr := s.products.UpdateProduct(ctx, product); updateErr != nil {
		err = lookup(s.logger, updateErr, "Product not found", "Error updating product")
		return nil, err
	}

	if delta := product.Stock - previousStock; delta != 0 {
		publishStockAdjusted(ctx, s.publisher, s.logger, product, delta)
	}
	return product, nil
}

// DeleteProduct removes a product
func (s *ProductService) DeleteProduct(ctx context.Context, id string) (string, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.DeleteProduct", attribute.String("product_id", id))
	var err error
	defer func() { util.EndSpan(span, err) }()

	product, err := s.loadForChange(ctx, id)
	if err != nil {
		return "", err
	}

	if deleteErr := s.products.DeleteProduct(ctx, product.ID); deleteErr != nil {
		err = lookup(s.logger, deleteErr, "Product not found", "Error deleting product")
		return "", err
	}
	return "Product deleted successfully", nil
}

// loadForChange fetches the product and applies the ownership policy
func (s *ProductService) loadForChange(ctx context.Context, id string) (*models.Product, error) {
	enforced := s.guard.ProductOwnershipEnforced()

	var caller auth.Caller
	if enforced {
		c, err := auth.RequireCaller(ctx)
		if err != nil {
			return nil, err
		}
		caller = c
	}

	oid, err := parseID(id, "product")
	if err != nil {
		return nil, err
	}

	product, err := s.products.GetProductByID(ctx, oid)
	if err != nil {
		return nil, lookup(s.logger, err, "Product not found", "Error fetching product")
	}

	if enforced {
		if err := s.guard.CheckOwner(caller, product.Seller); err != nil {
			return nil, err
		}
	}
	return product, nil
}
