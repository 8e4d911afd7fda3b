package model

import (
	"time"

	"github.com/google/uuid"
)

// Actor role constants carried in tokens and audit rows
const (
	ActorMember  = "member"
	ActorPartner = "partner"
)

const (
	ActionCreateIssueRequest = "CREATE_ISSUE_REQUEST"
	ActionApproveIssue       = "APPROVE_ISSUE"
	ActionRejectIssue        = "REJECT_ISSUE"
	ActionSelfIssue          = "SELF_ISSUE"
	ActionWithdrawIssue      = "WITHDRAW_ISSUE"
	ActionRegisterCoupon     = "REGISTER_COUPON"
	ActionDeleteCoupons      = "DELETE_COUPONS"
	ActionConfirmPayment     = "CONFIRM_PAYMENT"
)

// AuditLog tracks who did what to the coupon lifecycle and when
type AuditLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ActorRole string     `gorm:"type:varchar(20);index" json:"actor_role"`
	ActorID   *uuid.UUID `gorm:"type:uuid;index" json:"actor_id"` // null for unauthenticated settlement terminals
	Action    string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID  string     `gorm:"type:varchar(50);index" json:"entity_id"`
	Details   string     `gorm:"type:jsonb" json:"details"` // serialized JSON payload of the action
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}
