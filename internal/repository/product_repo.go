package repository

import (
	"context"

	"couponhub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByPartnerAndName(ctx context.Context, partnerID uuid.UUID, name string) (*model.Product, error)
	Search(ctx context.Context, partnerID uuid.UUID, keyword string, page, size int) ([]model.Product, int64, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Create(product).Error
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindByPartnerAndName(ctx context.Context, partnerID uuid.UUID, name string) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).
		First(&product, "partner_id = ? AND name = ?", partnerID, name).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) Search(ctx context.Context, partnerID uuid.UUID, keyword string, page, size int) ([]model.Product, int64, error) {
	db := GetDB(ctx, r.db)

	query := db.Model(&model.Product{}).Where("partner_id = ?", partnerID)
	if keyword != "" {
		query = query.Where("name ILIKE ?", "%"+keyword+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []model.Product
	if err := query.
		Order("name ASC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}
