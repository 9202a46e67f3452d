package services

import (
	"context"
	"fmt"

	"order-lifecycle/internal/domain"
	"order-lifecycle/internal/repository"
)

// ProductService is the administrative entry point to the product store:
// seeding and restocking.
type ProductService struct {
	repo repository.ProductRepository
}

func NewProductService(r repository.ProductRepository) *ProductService {
	return &ProductService{repo: r}
}

func (s *ProductService) SaveProducts(ctx context.Context, products []domain.Product) error {
	for _, p := range products {
		if p.ID == "" {
			return fmt.Errorf("%w: id is required", domain.ErrInvalidProduct)
		}
		if p.Stock < 0 {
			return fmt.Errorf("%w: stock of %s must not be negative", domain.ErrInvalidProduct, p.ID)
		}
	}
	return s.repo.SaveAll(ctx, products)
}

func (s *ProductService) GetProducts(ctx context.Context, ids []string) ([]domain.Product, error) {
	return s.repo.FindByIDs(ctx, ids)
}
