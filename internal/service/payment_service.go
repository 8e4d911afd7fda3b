package service

import (
	"context"
	"fmt"
	"time"

	"couponhub/internal/model"
	"couponhub/internal/repository"
	ws "couponhub/internal/websocket"
	"couponhub/pkg/apperr"
	"couponhub/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentQrTTL is how long a payment token stays scannable.
const PaymentQrTTL = 60 * time.Second

// QrRenderer turns a payment code into a scannable image.
type QrRenderer interface {
	RenderQr(ctx context.Context, data, fileName string) (string, error)
}

// --- DTOs ---

type PaymentQrView struct {
	PaymentCode string `json:"payment_code"`
	ImageURL    string `json:"image_url"`
	ExpiredAt   string `json:"expired_at"`
}

// PaymentResolution is what the settlement terminal sees after scanning.
type PaymentResolution struct {
	CouponID     string `json:"coupon_id"`
	ProductName  string `json:"product_name"`
	PartnerName  string `json:"partner_name"`
	RegisterName string `json:"register_name"`
	ExpiredAt    string `json:"expired_at"`
}

type PaymentConfirmation struct {
	CouponID       string `json:"coupon_id"`
	UsedAt         string `json:"used_at"`
	IssueCompleted bool   `json:"issue_completed"`
}

// --- Interface ---

type PaymentService interface {
	// CreateQr rotates the coupon's payment token: any still-active token
	// dies the moment the new one is born.
	CreateQr(ctx context.Context, couponID, memberID uuid.UUID) (*PaymentQrView, error)
	// Resolve looks a scanned payment code up for the settlement terminal.
	Resolve(ctx context.Context, paymentCode string) (*PaymentResolution, error)
	// Confirm settles the coupon behind the payment code, at most once.
	Confirm(ctx context.Context, paymentCode string) (*PaymentConfirmation, error)
}

type paymentService struct {
	couponRepo repository.CouponRepository
	qrRepo     repository.PaymentQrRepository
	issueRepo  repository.IssueRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	renderer   QrRenderer
	hub        *ws.Hub
	now        func() time.Time
}

func NewPaymentService(
	couponRepo repository.CouponRepository,
	qrRepo repository.PaymentQrRepository,
	issueRepo repository.IssueRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	renderer QrRenderer,
	hub *ws.Hub,
) PaymentService {
	return &paymentService{
		couponRepo: couponRepo,
		qrRepo:     qrRepo,
		issueRepo:  issueRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		renderer:   renderer,
		hub:        hub,
		now:        time.Now,
	}
}

func (s *paymentService) CreateQr(ctx context.Context, couponID, memberID uuid.UUID) (*PaymentQrView, error) {
	var (
		qr        model.PaymentQr
		expiredAt time.Time
	)

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		coupon, err := s.couponRepo.FindByIDForUpdate(txCtx, couponID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperr.New(apperr.CodeInvalidValue, "unknown coupon")
			}
			return fmt.Errorf("failed to lock coupon: %w", err)
		}
		if coupon.RegisterID == nil || *coupon.RegisterID != memberID {
			return apperr.ErrNotYours
		}
		if coupon.IsUsed() {
			return apperr.New(apperr.CodeInvalidValue, "coupon is already used")
		}
		now := s.now()
		if coupon.ExpiredAt.Before(now) {
			return apperr.New(apperr.CodeInvalidValue, "coupon is expired")
		}

		if err := s.qrRepo.ExpireActiveByCoupon(txCtx, coupon.ID, now); err != nil {
			return fmt.Errorf("failed to expire active payment tokens: %w", err)
		}

		expiredAt = now.Add(PaymentQrTTL)
		qr = model.PaymentQr{
			CouponID:    coupon.ID,
			PaymentCode: uuid.NewString(),
			ExpiredAt:   expiredAt,
		}
		if err := s.qrRepo.Create(txCtx, &qr); err != nil {
			return fmt.Errorf("failed to create payment token: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The image render happens outside the transaction; the token is undone
	// when the render fails so the member can simply retry.
	imageURL, err := s.renderer.RenderQr(ctx, qr.PaymentCode, qr.PaymentCode+".png")
	if err != nil {
		if delErr := s.qrRepo.DeleteByCode(ctx, qr.PaymentCode); delErr != nil {
			logger.L().Error("failed to undo payment token after render failure",
				zap.String("payment_code", qr.PaymentCode), zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to render payment qr: %w", err)
	}

	return &PaymentQrView{
		PaymentCode: qr.PaymentCode,
		ImageURL:    imageURL,
		ExpiredAt:   expiredAt.Format(time.RFC3339),
	}, nil
}

func (s *paymentService) Resolve(ctx context.Context, paymentCode string) (*PaymentResolution, error) {
	qr, err := s.qrRepo.FindValidByCode(ctx, paymentCode, s.now())
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.New(apperr.CodeInvalidValue, "unknown or expired payment code")
		}
		return nil, fmt.Errorf("failed to look up payment code: %w", err)
	}

	coupon, err := s.couponRepo.FindDetail(ctx, qr.CouponID)
	if err != nil {
		return nil, fmt.Errorf("failed to load coupon: %w", err)
	}
	if coupon.IsUsed() {
		return nil, apperr.ErrAlreadyUsed
	}

	resolution := &PaymentResolution{
		CouponID:    coupon.ID.String(),
		ProductName: productName(coupon),
		PartnerName: partnerName(coupon),
		ExpiredAt:   coupon.ExpiredAt.Format(time.RFC3339),
	}
	if coupon.Register != nil {
		resolution.RegisterName = coupon.Register.Name
	}
	return resolution, nil
}

func (s *paymentService) Confirm(ctx context.Context, paymentCode string) (*PaymentConfirmation, error) {
	var (
		confirmation PaymentConfirmation
		completed    *model.IssueRequest
	)

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		now := s.now()
		qr, err := s.qrRepo.FindValidByCode(txCtx, paymentCode, now)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperr.New(apperr.CodeInvalidValue, "unknown or expired payment code")
			}
			return fmt.Errorf("failed to look up payment code: %w", err)
		}

		coupon, err := s.couponRepo.FindByIDForUpdate(txCtx, qr.CouponID)
		if err != nil {
			return fmt.Errorf("failed to lock coupon: %w", err)
		}
		if coupon.IsUsed() {
			return apperr.ErrAlreadyUsed
		}

		useLog := &model.UseLog{CouponID: coupon.ID, UsedAt: now}
		if err := s.couponRepo.CreateUseLog(txCtx, useLog); err != nil {
			return fmt.Errorf("failed to create use log: %w", err)
		}
		coupon.UseLogID = &useLog.ID
		if err := s.couponRepo.Save(txCtx, coupon); err != nil {
			return fmt.Errorf("failed to save settlement: %w", err)
		}

		// The token is left to expire on its own; a replay of the same code
		// hits the used coupon and reports AlreadyUsed rather than a vanished
		// token.
		//
		// The rollup must hold the issue row: two settlements of the same
		// issue each see only their own use log before commit, so an unlocked
		// count lets the last two coupons both report remaining=1 and the
		// issue never completes.
		issue, err := s.issueRepo.FindByIDForUpdate(txCtx, coupon.IssueID)
		if err != nil {
			return fmt.Errorf("failed to lock issue: %w", err)
		}
		remaining, err := s.couponRepo.CountUnusedByIssue(txCtx, coupon.IssueID)
		if err != nil {
			return fmt.Errorf("failed to count remaining coupons: %w", err)
		}
		if remaining == 0 {
			if err := s.issueRepo.SetCompleted(txCtx, coupon.IssueID, now); err != nil {
				return fmt.Errorf("failed to mark issue completed: %w", err)
			}
			issue.CompletedAt = &now
			completed = issue
		}

		entry := &model.AuditLog{
			ActorRole: model.ActorPartner,
			Action:    model.ActionConfirmPayment,
			EntityID:  coupon.ID.String(),
			Details:   "{}",
		}
		if err := s.auditRepo.Create(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		confirmation = PaymentConfirmation{
			CouponID:       coupon.ID.String(),
			UsedAt:         now.Format(time.RFC3339),
			IssueCompleted: remaining == 0,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if completed != nil {
		publishIssueEvent(s.hub, IssueEvent{
			Type:    EventIssueCompleted,
			IssueID: completed.ID.String(),
			Title:   completed.Title,
			Status:  completed.EffectiveStatus(),
		})
	}
	return &confirmation, nil
}
