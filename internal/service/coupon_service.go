package service

import (
	"context"
	"fmt"
	"time"

	"couponhub/internal/model"
	"couponhub/internal/repository"
	"couponhub/pkg/apperr"

	"github.com/google/uuid"
)

// --- DTOs ---

// CouponPreview is what an anonymous code lookup reveals before registration.
type CouponPreview struct {
	ProductName string `json:"product_name"`
	PartnerName string `json:"partner_name"`
	ExpiredAt   string `json:"expired_at"`
	IsExpired   bool   `json:"is_expired"`
}

type CouponListItem struct {
	CouponID    string `json:"coupon_id"`
	ProductName string `json:"product_name"`
	PartnerName string `json:"partner_name"`
	ExpiredAt   string `json:"expired_at"`
	IsUsed      bool   `json:"is_used"`
}

type CouponDetail struct {
	CouponID         string `json:"coupon_id"`
	RegistrationCode string `json:"registration_code"`
	ProductName      string `json:"product_name"`
	PartnerName      string `json:"partner_name"`
	PartnerPhone     string `json:"partner_phone"`
	RegisteredAt     string `json:"registered_at"`
	ExpiredAt        string `json:"expired_at"`
	IsExpired        bool   `json:"is_expired"`
	IsUsed           bool   `json:"is_used"`
	UsedAt           string `json:"used_at,omitempty"`
}

type UsageHistoryItem struct {
	CouponID    string `json:"coupon_id"`
	ProductName string `json:"product_name"`
	PartnerName string `json:"partner_name"`
	UsedAt      string `json:"used_at"`
}

// --- Interface ---

type CouponService interface {
	// PreviewByCode resolves a printed code for an anonymous holder. Codes
	// already claimed by someone are not previewable.
	PreviewByCode(ctx context.Context, code string) (*CouponPreview, error)
	// Register claims the coupon for the member. Registering a code the same
	// member already holds is a no-op success.
	Register(ctx context.Context, code, signatureCode string, memberID uuid.UUID) (*CouponDetail, error)
	Detail(ctx context.Context, couponID, memberID uuid.UUID) (*CouponDetail, error)
	List(ctx context.Context, memberID uuid.UUID, page, size int) ([]CouponListItem, int64, error)
	// SoftDelete hides the coupons from the member's wallet. The batch is
	// all-or-nothing; it returns the detail of every hidden coupon that was
	// never redeemed.
	SoftDelete(ctx context.Context, memberID uuid.UUID, couponIDs []uuid.UUID) ([]CouponDetail, error)
	UsageHistory(ctx context.Context, memberID uuid.UUID, page, size int) ([]UsageHistoryItem, int64, error)
}

type couponService struct {
	couponRepo repository.CouponRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	now        func() time.Time
}

func NewCouponService(
	couponRepo repository.CouponRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) CouponService {
	return &couponService{
		couponRepo: couponRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		now:        time.Now,
	}
}

func (s *couponService) PreviewByCode(ctx context.Context, code string) (*CouponPreview, error) {
	coupon, err := s.couponRepo.FindByRegistrationCode(ctx, code)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.New(apperr.CodeInvalidValue, "unknown registration code")
		}
		return nil, fmt.Errorf("failed to look up registration code: %w", err)
	}
	if coupon.IsRegistered() {
		return nil, apperr.ErrNotYours
	}

	return &CouponPreview{
		ProductName: productName(coupon),
		PartnerName: partnerName(coupon),
		ExpiredAt:   coupon.ExpiredAt.Format(time.RFC3339),
		IsExpired:   coupon.ExpiredAt.Before(s.now()),
	}, nil
}

func (s *couponService) Register(ctx context.Context, code, signatureCode string, memberID uuid.UUID) (*CouponDetail, error) {
	resolved, err := s.couponRepo.FindByRegistrationCode(ctx, code)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.New(apperr.CodeInvalidValue, "unknown registration code")
		}
		return nil, fmt.Errorf("failed to look up registration code: %w", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// Re-read under lock: the unlocked lookup above may have raced a
		// concurrent claim on the same code.
		coupon, err := s.couponRepo.FindByIDForUpdate(txCtx, resolved.ID)
		if err != nil {
			return fmt.Errorf("failed to lock coupon: %w", err)
		}
		if coupon.IsRegistered() {
			if *coupon.RegisterID == memberID {
				return nil
			}
			return apperr.ErrNotYours
		}
		if coupon.IsUsed() {
			return apperr.ErrAlreadyUsed
		}
		now := s.now()
		if coupon.ExpiredAt.Before(now) {
			return apperr.New(apperr.CodeInvalidValue, "coupon is expired")
		}

		regLog := &model.RegisterLog{RegisterUserID: memberID, RegisteredAt: now}
		if err := s.couponRepo.CreateRegisterLog(txCtx, regLog); err != nil {
			return fmt.Errorf("failed to create register log: %w", err)
		}
		coupon.RegisterID = &memberID
		coupon.RegisterLogID = &regLog.ID
		if signatureCode != "" {
			coupon.SignatureCode = &signatureCode
		}
		if err := s.couponRepo.Save(txCtx, coupon); err != nil {
			return fmt.Errorf("failed to save registration: %w", err)
		}

		entry := &model.AuditLog{
			ActorRole: model.ActorMember,
			ActorID:   &memberID,
			Action:    model.ActionRegisterCoupon,
			EntityID:  coupon.ID.String(),
			Details:   "{}",
		}
		if err := s.auditRepo.Create(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Detail(ctx, resolved.ID, memberID)
}

func (s *couponService) Detail(ctx context.Context, couponID, memberID uuid.UUID) (*CouponDetail, error) {
	coupon, err := s.couponRepo.FindDetail(ctx, couponID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.New(apperr.CodeInvalidValue, "unknown coupon")
		}
		return nil, fmt.Errorf("failed to load coupon: %w", err)
	}
	if coupon.RegisterLog != nil && coupon.RegisterLog.DeletedAt != nil {
		return nil, apperr.New(apperr.CodeInvalidValue, "unknown coupon")
	}
	if coupon.RegisterID == nil || *coupon.RegisterID != memberID {
		return nil, apperr.ErrNotYours
	}

	return s.detailOf(coupon), nil
}

func (s *couponService) detailOf(coupon *model.Coupon) *CouponDetail {
	detail := &CouponDetail{
		CouponID:         coupon.ID.String(),
		RegistrationCode: coupon.RegistrationCode,
		ProductName:      productName(coupon),
		PartnerName:      partnerName(coupon),
		ExpiredAt:        coupon.ExpiredAt.Format(time.RFC3339),
		IsExpired:        coupon.ExpiredAt.Before(s.now()),
		IsUsed:           coupon.IsUsed(),
	}
	if coupon.Partner != nil {
		detail.PartnerPhone = coupon.Partner.Phone
	}
	if coupon.RegisterLog != nil {
		detail.RegisteredAt = coupon.RegisterLog.RegisteredAt.Format(time.RFC3339)
	}
	if coupon.UseLog != nil {
		detail.UsedAt = coupon.UseLog.UsedAt.Format(time.RFC3339)
	}
	return detail
}

func (s *couponService) List(ctx context.Context, memberID uuid.UUID, page, size int) ([]CouponListItem, int64, error) {
	coupons, total, err := s.couponRepo.ListByRegister(ctx, memberID, page, size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list coupons: %w", err)
	}
	items := make([]CouponListItem, 0, len(coupons))
	for i := range coupons {
		items = append(items, listItem(&coupons[i]))
	}
	return items, total, nil
}

func (s *couponService) SoftDelete(ctx context.Context, memberID uuid.UUID, couponIDs []uuid.UUID) ([]CouponDetail, error) {
	if len(couponIDs) == 0 {
		return nil, apperr.New(apperr.CodeInvalidValue, "no coupon ids given")
	}
	// Repeating an id must not read as reaching for a foreign coupon.
	seen := make(map[uuid.UUID]struct{}, len(couponIDs))
	ids := make([]uuid.UUID, 0, len(couponIDs))
	for _, id := range couponIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	var unused []CouponDetail
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		coupons, err := s.couponRepo.FindByIDs(txCtx, ids)
		if err != nil {
			return fmt.Errorf("failed to load coupons: %w", err)
		}

		logIDs := make([]uuid.UUID, 0, len(coupons))
		for i := range coupons {
			coupon := &coupons[i]
			if coupon.RegisterID == nil || *coupon.RegisterID != memberID || coupon.RegisterLogID == nil {
				continue
			}
			logIDs = append(logIDs, *coupon.RegisterLogID)
			if !coupon.IsUsed() {
				unused = append(unused, *s.detailOf(coupon))
			}
		}
		// The batch is atomic: when none of the ids resolve to the member's
		// coupons the request itself is malformed; when only part of it does,
		// the member is reaching for someone else's and nothing is hidden.
		if len(logIDs) == 0 {
			return apperr.New(apperr.CodeInvalidValue, "no coupons to delete")
		}
		if len(logIDs) != len(ids) {
			return apperr.ErrNotYours
		}

		if err := s.couponRepo.SoftDeleteRegisterLogs(txCtx, logIDs, s.now()); err != nil {
			return fmt.Errorf("failed to soft delete registrations: %w", err)
		}

		entry := &model.AuditLog{
			ActorRole: model.ActorMember,
			ActorID:   &memberID,
			Action:    model.ActionDeleteCoupons,
			EntityID:  fmt.Sprintf("%d coupons", len(ids)),
			Details:   "{}",
		}
		if err := s.auditRepo.Create(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return unused, nil
}

func (s *couponService) UsageHistory(ctx context.Context, memberID uuid.UUID, page, size int) ([]UsageHistoryItem, int64, error) {
	coupons, total, err := s.couponRepo.ListUsedByRegister(ctx, memberID, page, size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list usage history: %w", err)
	}
	items := make([]UsageHistoryItem, 0, len(coupons))
	for i := range coupons {
		coupon := &coupons[i]
		item := UsageHistoryItem{
			CouponID:    coupon.ID.String(),
			ProductName: productName(coupon),
			PartnerName: partnerName(coupon),
		}
		if coupon.UseLog != nil {
			item.UsedAt = coupon.UseLog.UsedAt.Format(time.RFC3339)
		}
		items = append(items, item)
	}
	return items, total, nil
}

func listItem(coupon *model.Coupon) CouponListItem {
	return CouponListItem{
		CouponID:    coupon.ID.String(),
		ProductName: productName(coupon),
		PartnerName: partnerName(coupon),
		ExpiredAt:   coupon.ExpiredAt.Format(time.RFC3339),
		IsUsed:      coupon.IsUsed(),
	}
}

func productName(coupon *model.Coupon) string {
	if coupon.Product != nil {
		return coupon.Product.Name
	}
	return ""
}

func partnerName(coupon *model.Coupon) string {
	if coupon.Partner != nil {
		return coupon.Partner.Name
	}
	return ""
}
