package repository

import (
	"context"

	"couponhub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PartnerRepository interface {
	Create(ctx context.Context, partner *model.Partner) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Partner, error)
	FindByEmail(ctx context.Context, email string) (*model.Partner, error)
	FindByPhone(ctx context.Context, phone string) (*model.Partner, error)
	Search(ctx context.Context, keyword string, page, size int) ([]model.Partner, int64, error)
}

type partnerRepository struct {
	db *gorm.DB
}

func NewPartnerRepository(db *gorm.DB) PartnerRepository {
	return &partnerRepository{db: db}
}

func (r *partnerRepository) Create(ctx context.Context, partner *model.Partner) error {
	return GetDB(ctx, r.db).Create(partner).Error
}

func (r *partnerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Partner, error) {
	var partner model.Partner
	if err := GetDB(ctx, r.db).First(&partner, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &partner, nil
}

func (r *partnerRepository) FindByEmail(ctx context.Context, email string) (*model.Partner, error) {
	var partner model.Partner
	if err := GetDB(ctx, r.db).First(&partner, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &partner, nil
}

func (r *partnerRepository) FindByPhone(ctx context.Context, phone string) (*model.Partner, error) {
	var partner model.Partner
	if err := GetDB(ctx, r.db).First(&partner, "phone = ?", phone).Error; err != nil {
		return nil, err
	}
	return &partner, nil
}

func (r *partnerRepository) Search(ctx context.Context, keyword string, page, size int) ([]model.Partner, int64, error) {
	db := GetDB(ctx, r.db)

	query := db.Model(&model.Partner{})
	if keyword != "" {
		query = query.Where("name ILIKE ?", "%"+keyword+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var partners []model.Partner
	if err := query.
		Order("name ASC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&partners).Error; err != nil {
		return nil, 0, err
	}

	return partners, total, nil
}
