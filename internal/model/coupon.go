package model

import (
	"time"

	"github.com/google/uuid"
)

// RegistrationCodeLength is the fixed length of the numeric code printed on a
// coupon. Codes are globally unique for the lifetime of the system.
const RegistrationCodeLength = 12

// Coupon is one minted coupon instance under an issue request.
type Coupon struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	IssueID   uuid.UUID `gorm:"type:uuid;not null;index" json:"issue_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	PartnerID uuid.UUID `gorm:"type:uuid;not null;index" json:"partner_id"`
	Partner   *Partner  `gorm:"foreignKey:PartnerID" json:"partner,omitempty"`

	RegistrationCode string `gorm:"type:varchar(16);uniqueIndex;not null" json:"registration_code"`

	RegisterID    *uuid.UUID   `gorm:"type:uuid;index" json:"register_id"` // consumer who claimed it
	Register      *Member      `gorm:"foreignKey:RegisterID" json:"register,omitempty"`
	RegisterLogID *uuid.UUID   `gorm:"type:uuid" json:"register_log_id"`
	RegisterLog   *RegisterLog `gorm:"foreignKey:RegisterLogID" json:"register_log,omitempty"`
	UseLogID      *uuid.UUID   `gorm:"type:uuid" json:"use_log_id"`
	UseLog        *UseLog      `gorm:"foreignKey:UseLogID" json:"use_log,omitempty"`
	SignatureCode *string      `gorm:"type:varchar(255)" json:"signature_code,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	ExpiredAt time.Time `gorm:"not null" json:"expired_at"`
}

// IsUsed reports whether the coupon has been redeemed. The use log's
// existence is the redemption flag.
func (c *Coupon) IsUsed() bool {
	return c.UseLogID != nil
}

// IsRegistered reports whether any consumer has claimed the coupon.
func (c *Coupon) IsRegistered() bool {
	return c.RegisterID != nil
}

// RegisterLog records a consumer claiming a coupon. Soft delete of the
// registration sets DeletedAt here; the coupon row itself is never removed.
type RegisterLog struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RegisterUserID uuid.UUID  `gorm:"type:uuid;not null;index" json:"register_user_id"`
	RegisterUser   *Member    `gorm:"foreignKey:RegisterUserID" json:"register_user,omitempty"`
	RegisteredAt   time.Time  `gorm:"not null" json:"registered_at"`
	DeletedAt      *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// UseLog records a coupon redemption. Created at most once per coupon.
type UseLog struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CouponID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"coupon_id"`
	UsedAt   time.Time `gorm:"not null;index" json:"used_at"`
}

// PaymentQr is a short-lived single-use payment token for one coupon. At most
// one unexpired row may exist per coupon at any instant; re-issuing expires
// the prior row before the new one is written.
type PaymentQr struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CouponID    uuid.UUID `gorm:"type:uuid;not null;index" json:"coupon_id"`
	PaymentCode string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"payment_code"`
	ExpiredAt   time.Time `gorm:"not null;index" json:"expired_at"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
