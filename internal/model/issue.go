package model

import (
	"time"

	"github.com/google/uuid"
)

// Issue status enum constants
const (
	IssueStatusPending  = "PENDING"
	IssueStatusIssued   = "ISSUED"
	IssueStatusRejected = "REJECTED"
	// IssueStatusCompleted is derived, never stored: an ISSUED request whose
	// coupons are all used reads as COMPLETED via completed_at.
	IssueStatusCompleted = "COMPLETED"
)

// Product line stage constants
const (
	ProductLineStageRequest = "REQUEST"
	ProductLineStageApprove = "APPROVE"
)

// IssueRequest is one vendor-to-partner coupon request and its lifecycle.
// Rows are never physically removed once decided; each side hides decided
// rows from its own view through the soft-delete timestamps.
type IssueRequest struct {
	ID       uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title    string     `gorm:"type:varchar(255);not null" json:"title"`
	VendorID *uuid.UUID `gorm:"type:uuid;index" json:"vendor_id"` // null for partner self-issues
	Vendor   *Member    `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`

	// PartnerID stays null until a pending partner registers; until then the
	// request carries the name/phone the vendor entered.
	PartnerID    *uuid.UUID `gorm:"type:uuid;index" json:"partner_id"`
	Partner      *Partner   `gorm:"foreignKey:PartnerID" json:"partner,omitempty"`
	PartnerName  string     `gorm:"type:varchar(255)" json:"partner_name,omitempty"`
	PartnerPhone string     `gorm:"type:varchar(20);index" json:"partner_phone,omitempty"` // digits only

	Status      string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Reason      string     `gorm:"type:text" json:"reason,omitempty"` // set only when REJECTED
	RequestedAt time.Time  `gorm:"not null" json:"requested_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	ValidDays           int `gorm:"not null" json:"valid_days"`
	RequestedIssueCount int `gorm:"not null" json:"requested_issue_count"`
	ApprovedIssueCount  int `gorm:"not null;default:0" json:"approved_issue_count"`
	ProductKindCount    int `gorm:"not null" json:"product_kind_count"`

	VendorDeletedAt  *time.Time `json:"-"`
	PartnerDeletedAt *time.Time `json:"-"`

	ProductLines []IssueProductLine `gorm:"foreignKey:IssueID" json:"product_lines,omitempty"`
}

// EffectiveStatus derives COMPLETED from completed_at; the stored status for
// a completed request stays ISSUED.
func (r *IssueRequest) EffectiveStatus() string {
	if r.Status == IssueStatusIssued && r.CompletedAt != nil {
		return IssueStatusCompleted
	}
	return r.Status
}

// DeletedFor reports whether the actor's own soft-delete flag is set.
func (r *IssueRequest) DeletedFor(role string) bool {
	switch role {
	case ActorMember:
		return r.VendorDeletedAt != nil
	case ActorPartner:
		return r.PartnerDeletedAt != nil
	}
	return false
}

// IssueProductLine records one (product, count) pair of a request or of its
// grant. REQUEST-stage lines persist what was asked, APPROVE-stage lines what
// was granted, so the two can diverge and be audited.
type IssueProductLine struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	IssueID uuid.UUID `gorm:"type:uuid;not null;index" json:"issue_id"`

	// ProductID is null while the line names a product that does not exist
	// yet; ProductName carries the requested name in that case.
	ProductID   *uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	Product     *Product   `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	ProductName string     `gorm:"type:varchar(255)" json:"product_name,omitempty"`

	Stage     string    `gorm:"type:varchar(10);not null;index" json:"stage"` // REQUEST or APPROVE
	Count     int       `gorm:"not null" json:"count"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
