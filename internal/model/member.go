package model

import (
	"time"

	"github.com/google/uuid"
)

// Member is an individual account. The same account acts as a vendor when it
// requests coupon issues and as a consumer when it registers coupons.
type Member struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string     `gorm:"type:varchar(255);not null" json:"name"`
	Email     string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone     string     `gorm:"type:varchar(20);not null" json:"phone"` // digits only
	Password  string     `gorm:"type:varchar(255);not null" json:"-"`
	Birth     *time.Time `json:"birth,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// RefreshToken stores long-lived tokens allowing accounts to request new access tokens
type RefreshToken struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SubjectType string    `gorm:"type:varchar(20);not null;index" json:"subject_type"` // member or partner
	SubjectID   uuid.UUID `gorm:"type:uuid;not null;index" json:"subject_id"`
	Token       string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt   time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
