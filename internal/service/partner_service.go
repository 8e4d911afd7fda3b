package service

import (
	"context"
	"fmt"

	"couponhub/internal/repository"

	"github.com/google/uuid"
)

type PartnerSearchItem struct {
	PartnerID string `json:"partner_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
}

type ProductSearchItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
}

// PartnerService serves the vendor-facing lookups used when composing an
// issue request.
type PartnerService interface {
	Search(ctx context.Context, keyword string, page, size int) ([]PartnerSearchItem, int64, error)
	SearchProducts(ctx context.Context, partnerID uuid.UUID, keyword string, page, size int) ([]ProductSearchItem, int64, error)
}

type partnerService struct {
	partnerRepo repository.PartnerRepository
	productRepo repository.ProductRepository
}

func NewPartnerService(partnerRepo repository.PartnerRepository, productRepo repository.ProductRepository) PartnerService {
	return &partnerService{partnerRepo: partnerRepo, productRepo: productRepo}
}

func (s *partnerService) Search(ctx context.Context, keyword string, page, size int) ([]PartnerSearchItem, int64, error) {
	partners, total, err := s.partnerRepo.Search(ctx, keyword, page, size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search partners: %w", err)
	}
	items := make([]PartnerSearchItem, 0, len(partners))
	for _, p := range partners {
		items = append(items, PartnerSearchItem{
			PartnerID: p.ID.String(),
			Name:      p.Name,
			Phone:     p.Phone,
		})
	}
	return items, total, nil
}

func (s *partnerService) SearchProducts(ctx context.Context, partnerID uuid.UUID, keyword string, page, size int) ([]ProductSearchItem, int64, error) {
	products, total, err := s.productRepo.Search(ctx, partnerID, keyword, page, size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search products: %w", err)
	}
	items := make([]ProductSearchItem, 0, len(products))
	for _, p := range products {
		items = append(items, ProductSearchItem{
			ProductID: p.ID.String(),
			Name:      p.Name,
		})
	}
	return items, total, nil
}
