package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	CreateProduct(ctx context.Context, p Product) (Product, error)
	GetProduct(ctx context.Context, tenantID uuid.UUID, id int64) (Product, error)
	ListProducts(ctx context.Context, filter ListFilter) ([]Product, int, error)
	CreateWarehouse(ctx context.Context, w Warehouse) (Warehouse, error)
	GetWarehouse(ctx context.Context, tenantID uuid.UUID, id int64) (Warehouse, error)
	ListWarehouses(ctx context.Context, tenantID uuid.UUID) ([]Warehouse, error)
}

// Service coordinates catalog operations.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateProduct validates and stores a new product.
func (s *Service) CreateProduct(ctx context.Context, p Product) (Product, error) {
	p.SKU = strings.TrimSpace(strings.ToUpper(p.SKU))
	if p.SKU == "" || p.Name == "" {
		return Product{}, errors.New("catalog: sku and name required")
	}
	if p.MinStock.IsNegative() || p.MaxStock.IsNegative() {
		return Product{}, errors.New("catalog: thresholds must be >= 0")
	}
	if p.MaxStock.IsPositive() && p.MaxStock.LessThan(p.MinStock) {
		return Product{}, ErrInvalidThresholds
	}
	p.IsActive = true
	return s.repo.CreateProduct(ctx, p)
}

// GetProduct fetches one product.
func (s *Service) GetProduct(ctx context.Context, tenantID uuid.UUID, id int64) (Product, error) {
	return s.repo.GetProduct(ctx, tenantID, id)
}

// ListProducts lists products.
func (s *Service) ListProducts(ctx context.Context, filter ListFilter) ([]Product, int, error) {
	return s.repo.ListProducts(ctx, filter)
}

// CreateWarehouse validates and stores a new warehouse.
func (s *Service) CreateWarehouse(ctx context.Context, w Warehouse) (Warehouse, error) {
	w.Code = strings.TrimSpace(strings.ToUpper(w.Code))
	if w.Code == "" || w.Name == "" {
		return Warehouse{}, errors.New("catalog: code and name required")
	}
	w.IsActive = true
	return s.repo.CreateWarehouse(ctx, w)
}

// GetWarehouse fetches one warehouse.
func (s *Service) GetWarehouse(ctx context.Context, tenantID uuid.UUID, id int64) (Warehouse, error) {
	return s.repo.GetWarehouse(ctx, tenantID, id)
}

// ListWarehouses lists warehouses.
func (s *Service) ListWarehouses(ctx context.Context, tenantID uuid.UUID) ([]Warehouse, error) {
	return s.repo.ListWarehouses(ctx, tenantID)
}
