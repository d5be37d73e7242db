package catalog

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xGLETONAx/billares-chapinlandia/internal/common"
)

// Product is a catalog entry. The price is stored in integer cents.
type Product struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Category   string    `json:"category,omitempty"`
	PriceCents int64     `json:"price_cents"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store defines the persistence operations the catalog needs.
type Store interface {
	ListProducts(ctx context.Context, activeOnly bool) ([]Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (Product, error)
	InsertProduct(ctx context.Context, p Product) (Product, error)
	UpdateProduct(ctx context.Context, p Product) (Product, error)
}

// ProductInput captures payload for creating or updating a product.
type ProductInput struct {
	Name       string
	Category   string
	PriceCents int64
	Active     bool
}

const listCacheKey = "cat:products"

// Service provides cached catalog access.
type Service struct {
	Store Store
	Cache *Cache
}

// List returns active products, serving from cache when possible.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	if s == nil || s.Store == nil {
		return nil, common.NewAppError("INTERNAL", "catalog not configured", http.StatusInternalServerError, nil)
	}
	var cached []Product
	if ok, err := s.Cache.GetJSON(ctx, listCacheKey, &cached); err == nil && ok {
		return cached, nil
	}
	rows, err := s.Store.ListProducts(ctx, true)
	if err != nil {
		return nil, err
	}
	_ = s.Cache.SetJSON(ctx, listCacheKey, rows)
	return rows, nil
}

// Get returns a single product by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	if s == nil || s.Store == nil {
		return Product{}, common.NewAppError("INTERNAL", "catalog not configured", http.StatusInternalServerError, nil)
	}
	return s.Store.GetProduct(ctx, id)
}

// Create inserts a new product and invalidates the list cache.
func (s *Service) Create(ctx context.Context, input ProductInput) (Product, error) {
	if err := validateInput(input); err != nil {
		return Product{}, err
	}
	created, err := s.Store.InsertProduct(ctx, Product{
		ID:         uuid.New(),
		Name:       strings.TrimSpace(input.Name),
		Category:   strings.TrimSpace(input.Category),
		PriceCents: input.PriceCents,
		Active:     input.Active,
	})
	if err != nil {
		return Product{}, err
	}
	_ = s.Cache.Invalidate(ctx, listCacheKey)
	return created, nil
}

// Update modifies an existing product and invalidates the list cache.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input ProductInput) (Product, error) {
	if err := validateInput(input); err != nil {
		return Product{}, err
	}
	current, err := s.Store.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	current.Name = strings.TrimSpace(input.Name)
	current.Category = strings.TrimSpace(input.Category)
	current.PriceCents = input.PriceCents
	current.Active = input.Active
	updated, err := s.Store.UpdateProduct(ctx, current)
	if err != nil {
		return Product{}, err
	}
	_ = s.Cache.Invalidate(ctx, listCacheKey)
	return updated, nil
}

func validateInput(input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return common.NewAppError("VALIDATION_ERROR", "name is required", http.StatusBadRequest, nil)
	}
	if input.PriceCents < 0 {
		return common.NewAppError("VALIDATION_ERROR", "price must not be negative", http.StatusBadRequest, nil)
	}
	return nil
}
