package database

import (
	"couponhub/internal/model"
	"couponhub/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.Member{},
		&model.Partner{},
		&model.Product{},
		&model.IssueRequest{},
		&model.IssueProductLine{},
		&model.Coupon{},
		&model.RegisterLog{},
		&model.UseLog{},
		&model.PaymentQr{},
		&model.RefreshToken{},
		&model.AuditLog{},
	)
	if err != nil {
		logger.L().Warn("failed to auto-migrate models", zap.Error(err))
	}

	return db, nil
}
