package repository

import (
	"context"
	"time"

	"couponhub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CouponRepository interface {
	CreateBatch(ctx context.Context, coupons []model.Coupon) error
	CodeExists(ctx context.Context, code string) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error)
	// FindByIDForUpdate locks the coupon row for the rest of the transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Coupon, error)
	FindByRegistrationCode(ctx context.Context, code string) (*model.Coupon, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Coupon, error)
	// FindDetail loads the coupon with product, partner, register and log
	// relations; soft-deleted registrations are not filtered here.
	FindDetail(ctx context.Context, id uuid.UUID) (*model.Coupon, error)
	Save(ctx context.Context, coupon *model.Coupon) error
	// ListByRegister pages the consumer's coupons, excluding those whose
	// register log is soft-deleted.
	ListByRegister(ctx context.Context, memberID uuid.UUID, page, size int) ([]model.Coupon, int64, error)
	// ListUsedByRegister pages the consumer's settled coupons.
	ListUsedByRegister(ctx context.Context, memberID uuid.UUID, page, size int) ([]model.Coupon, int64, error)
	// CountUnusedByIssue counts coupons of the issue with no use log yet.
	CountUnusedByIssue(ctx context.Context, issueID uuid.UUID) (int64, error)

	CreateRegisterLog(ctx context.Context, log *model.RegisterLog) error
	SoftDeleteRegisterLogs(ctx context.Context, logIDs []uuid.UUID, at time.Time) error
	CreateUseLog(ctx context.Context, log *model.UseLog) error
}

type couponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) CreateBatch(ctx context.Context, coupons []model.Coupon) error {
	return GetDB(ctx, r.db).Create(&coupons).Error
}

func (r *couponRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Coupon{}).
		Where("registration_code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *couponRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	var coupon model.Coupon
	if err := GetDB(ctx, r.db).First(&coupon, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	var coupon model.Coupon
	if err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&coupon, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) FindByRegistrationCode(ctx context.Context, code string) (*model.Coupon, error) {
	var coupon model.Coupon
	if err := GetDB(ctx, r.db).
		Preload("Product").
		Preload("Partner").
		First(&coupon, "registration_code = ?", code).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Coupon, error) {
	var coupons []model.Coupon
	if err := GetDB(ctx, r.db).
		Preload("Product").
		Preload("Partner").
		Preload("RegisterLog").
		Preload("UseLog").
		Where("id IN ?", ids).Find(&coupons).Error; err != nil {
		return nil, err
	}
	return coupons, nil
}

func (r *couponRepository) FindDetail(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	var coupon model.Coupon
	if err := GetDB(ctx, r.db).
		Preload("Product").
		Preload("Partner").
		Preload("Register").
		Preload("RegisterLog").
		Preload("UseLog").
		First(&coupon, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) Save(ctx context.Context, coupon *model.Coupon) error {
	return GetDB(ctx, r.db).Save(coupon).Error
}

func (r *couponRepository) ListByRegister(ctx context.Context, memberID uuid.UUID, page, size int) ([]model.Coupon, int64, error) {
	db := GetDB(ctx, r.db)

	scope := func(q *gorm.DB) *gorm.DB {
		return q.
			Joins("LEFT JOIN register_logs rl ON rl.id = coupons.register_log_id").
			Where("coupons.register_id = ? AND rl.deleted_at IS NULL", memberID)
	}

	var total int64
	if err := scope(db.Model(&model.Coupon{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var coupons []model.Coupon
	if err := scope(db.Model(&model.Coupon{})).
		Preload("Product").
		Preload("Partner").
		Order("coupons.created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&coupons).Error; err != nil {
		return nil, 0, err
	}

	return coupons, total, nil
}

func (r *couponRepository) ListUsedByRegister(ctx context.Context, memberID uuid.UUID, page, size int) ([]model.Coupon, int64, error) {
	db := GetDB(ctx, r.db)

	scope := func(q *gorm.DB) *gorm.DB {
		return q.
			Joins("INNER JOIN use_logs ul ON ul.id = coupons.use_log_id").
			Where("coupons.register_id = ?", memberID)
	}

	var total int64
	if err := scope(db.Model(&model.Coupon{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var coupons []model.Coupon
	if err := scope(db.Model(&model.Coupon{})).
		Preload("Product").
		Preload("Partner").
		Preload("UseLog").
		Order("ul.used_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&coupons).Error; err != nil {
		return nil, 0, err
	}

	return coupons, total, nil
}

func (r *couponRepository) CountUnusedByIssue(ctx context.Context, issueID uuid.UUID) (int64, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Coupon{}).
		Where("issue_id = ? AND use_log_id IS NULL", issueID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *couponRepository) CreateRegisterLog(ctx context.Context, log *model.RegisterLog) error {
	return GetDB(ctx, r.db).Create(log).Error
}

func (r *couponRepository) SoftDeleteRegisterLogs(ctx context.Context, logIDs []uuid.UUID, at time.Time) error {
	if len(logIDs) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Model(&model.RegisterLog{}).
		Where("id IN ? AND deleted_at IS NULL", logIDs).
		Update("deleted_at", at).Error
}

func (r *couponRepository) CreateUseLog(ctx context.Context, log *model.UseLog) error {
	return GetDB(ctx, r.db).Create(log).Error
}
