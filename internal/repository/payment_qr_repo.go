package repository

import (
	"context"
	"time"

	"couponhub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentQrRepository interface {
	Create(ctx context.Context, qr *model.PaymentQr) error
	// ExpireActiveByCoupon kills every still-valid token of the coupon. Must
	// run before a new token is written so at most one stays active.
	ExpireActiveByCoupon(ctx context.Context, couponID uuid.UUID, at time.Time) error
	// FindValidByCode returns the token only while it is unexpired.
	FindValidByCode(ctx context.Context, code string, at time.Time) (*model.PaymentQr, error)
	DeleteByCode(ctx context.Context, code string) error
}

type paymentQrRepository struct {
	db *gorm.DB
}

func NewPaymentQrRepository(db *gorm.DB) PaymentQrRepository {
	return &paymentQrRepository{db: db}
}

func (r *paymentQrRepository) Create(ctx context.Context, qr *model.PaymentQr) error {
	return GetDB(ctx, r.db).Create(qr).Error
}

func (r *paymentQrRepository) ExpireActiveByCoupon(ctx context.Context, couponID uuid.UUID, at time.Time) error {
	return GetDB(ctx, r.db).Model(&model.PaymentQr{}).
		Where("coupon_id = ? AND expired_at > ?", couponID, at).
		Update("expired_at", at).Error
}

func (r *paymentQrRepository) FindValidByCode(ctx context.Context, code string, at time.Time) (*model.PaymentQr, error) {
	var qr model.PaymentQr
	if err := GetDB(ctx, r.db).
		Where("payment_code = ? AND expired_at > ?", code, at).
		First(&qr).Error; err != nil {
		return nil, err
	}
	return &qr, nil
}

func (r *paymentQrRepository) DeleteByCode(ctx context.Context, code string) error {
	return GetDB(ctx, r.db).Delete(&model.PaymentQr{}, "payment_code = ?", code).Error
}
