package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"couponhub/internal/model"
	"couponhub/pkg/apperr"

	"github.com/google/uuid"
)

var paymentTestNow = time.Date(2026, 6, 1, 15, 0, 0, 0, time.UTC)

type paymentFixture struct {
	svc        *paymentService
	couponRepo *fakeCouponRepo
	qrRepo     *fakeQrRepo
	issueRepo  *fakeIssueRepo
	renderer   *fakeRenderer
	memberID   uuid.UUID
	coupon     *model.Coupon
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	f := &paymentFixture{
		couponRepo: newFakeCouponRepo(),
		qrRepo:     &fakeQrRepo{},
		issueRepo:  newFakeIssueRepo(),
		renderer:   &fakeRenderer{},
		memberID:   uuid.New(),
	}
	svc := NewPaymentService(f.couponRepo, f.qrRepo, f.issueRepo, &fakeAuditRepo{}, passTx{}, f.renderer, nil)
	f.svc = svc.(*paymentService)
	f.svc.now = func() time.Time { return paymentTestNow }

	issue := &model.IssueRequest{
		Title:       "settled promo",
		Status:      model.IssueStatusIssued,
		RequestedAt: paymentTestNow.AddDate(0, 0, -1),
	}
	if err := f.issueRepo.Create(context.Background(), issue); err != nil {
		t.Fatalf("seed issue: %v", err)
	}

	coupon := model.Coupon{
		ID:               uuid.New(),
		IssueID:          issue.ID,
		ProductID:        uuid.New(),
		PartnerID:        uuid.New(),
		RegistrationCode: "999988887777",
		RegisterID:       &f.memberID,
		ExpiredAt:        paymentTestNow.AddDate(0, 0, 14),
	}
	f.couponRepo.coupons[coupon.ID] = &coupon
	f.coupon = &coupon
	return f
}

func TestCreateQrRotatesActiveToken(t *testing.T) {
	f := newPaymentFixture(t)

	first, err := f.svc.CreateQr(context.Background(), f.coupon.ID, f.memberID)
	if err != nil {
		t.Fatalf("first CreateQr: %v", err)
	}
	second, err := f.svc.CreateQr(context.Background(), f.coupon.ID, f.memberID)
	if err != nil {
		t.Fatalf("second CreateQr: %v", err)
	}

	if first.PaymentCode == second.PaymentCode {
		t.Fatalf("payment codes must differ per issuance")
	}
	if n := f.qrRepo.activeCount(f.coupon.ID, paymentTestNow); n != 1 {
		t.Fatalf("active tokens = %d, want exactly 1", n)
	}
	if _, err := f.qrRepo.FindValidByCode(context.Background(), first.PaymentCode, paymentTestNow); err == nil {
		t.Fatalf("first token should be dead after rotation")
	}
	if f.renderer.calls != 2 {
		t.Fatalf("renderer calls = %d, want 2", f.renderer.calls)
	}
}

func TestCreateQrGuards(t *testing.T) {
	f := newPaymentFixture(t)

	if _, err := f.svc.CreateQr(context.Background(), f.coupon.ID, uuid.New()); !errors.Is(err, apperr.ErrNotYours) {
		t.Fatalf("foreign coupon: err = %v, want NotYours", err)
	}

	useLogID := uuid.New()
	f.coupon.UseLogID = &useLogID
	f.couponRepo.coupons[f.coupon.ID] = f.coupon
	if _, err := f.svc.CreateQr(context.Background(), f.coupon.ID, f.memberID); !errors.Is(err, apperr.ErrInvalidValue) {
		t.Fatalf("used coupon: err = %v, want InvalidValue", err)
	}

	f.coupon.UseLogID = nil
	f.coupon.ExpiredAt = paymentTestNow.Add(-time.Minute)
	f.couponRepo.coupons[f.coupon.ID] = f.coupon
	if _, err := f.svc.CreateQr(context.Background(), f.coupon.ID, f.memberID); !errors.Is(err, apperr.ErrInvalidValue) {
		t.Fatalf("expired coupon: err = %v, want InvalidValue", err)
	}
}

func TestCreateQrUndoneWhenRenderFails(t *testing.T) {
	f := newPaymentFixture(t)
	f.renderer.fail = true

	if _, err := f.svc.CreateQr(context.Background(), f.coupon.ID, f.memberID); err == nil {
		t.Fatalf("expected render failure to surface")
	}
	if n := f.qrRepo.activeCount(f.coupon.ID, paymentTestNow); n != 0 {
		t.Fatalf("active tokens = %d after failed render, want 0", n)
	}
}

func TestResolvePaymentCode(t *testing.T) {
	f := newPaymentFixture(t)
	view, err := f.svc.CreateQr(context.Background(), f.coupon.ID, f.memberID)
	if err != nil {
		t.Fatalf("CreateQr: %v", err)
	}

	resolution, err := f.svc.Resolve(context.Background(), view.PaymentCode)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolution.CouponID != f.coupon.ID.String() {
		t.Fatalf("resolution coupon = %q, want %q", resolution.CouponID, f.coupon.ID)
	}

	if _, err := f.svc.Resolve(context.Background(), "no-such-code"); !errors.Is(err, apperr.ErrInvalidValue) {
		t.Fatalf("unknown code: err = %v, want InvalidValue", err)
	}
}

func TestConfirmSettlesExactlyOnce(t *testing.T) {
	f := newPaymentFixture(t)
	view, err := f.svc.CreateQr(context.Background(), f.coupon.ID, f.memberID)
	if err != nil {
		t.Fatalf("CreateQr: %v", err)
	}

	confirmation, err := f.svc.Confirm(context.Background(), view.PaymentCode)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if confirmation.CouponID != f.coupon.ID.String() {
		t.Fatalf("confirmed coupon = %q, want %q", confirmation.CouponID, f.coupon.ID)
	}
	stored := f.couponRepo.coupons[f.coupon.ID]
	if stored.UseLogID == nil {
		t.Fatalf("use log not linked")
	}

	_, err = f.svc.Confirm(context.Background(), view.PaymentCode)
	if !errors.Is(err, apperr.ErrAlreadyUsed) {
		t.Fatalf("replayed confirm: err = %v, want AlreadyUsed", err)
	}
}

func TestConfirmLocksIssueRowForRollup(t *testing.T) {
	f := newPaymentFixture(t)

	// Two settlements of the same issue must serialize on the issue row
	// before counting: without the lock, each transaction still sees the
	// other's coupon as unused and neither completes the issue.
	sibling := model.Coupon{
		ID:               uuid.New(),
		IssueID:          f.coupon.IssueID,
		ProductID:        f.coupon.ProductID,
		PartnerID:        f.coupon.PartnerID,
		RegistrationCode: "333344445555",
		RegisterID:       &f.memberID,
		ExpiredAt:        f.coupon.ExpiredAt,
	}
	f.couponRepo.coupons[sibling.ID] = &sibling

	for _, couponID := range []uuid.UUID{f.coupon.ID, sibling.ID} {
		view, err := f.svc.CreateQr(context.Background(), couponID, f.memberID)
		if err != nil {
			t.Fatalf("CreateQr: %v", err)
		}
		if _, err := f.svc.Confirm(context.Background(), view.PaymentCode); err != nil {
			t.Fatalf("Confirm: %v", err)
		}
	}

	if len(f.issueRepo.locked) != 2 {
		t.Fatalf("issue row locked %d times, want once per settlement", len(f.issueRepo.locked))
	}
	for _, id := range f.issueRepo.locked {
		if id != f.coupon.IssueID {
			t.Fatalf("locked issue = %s, want %s", id, f.coupon.IssueID)
		}
	}
	if f.issueRepo.issues[f.coupon.IssueID].CompletedAt == nil {
		t.Fatalf("issue not completed after the last settlement")
	}
}

func TestConfirmCompletesIssueWhenLastCouponSettles(t *testing.T) {
	f := newPaymentFixture(t)

	// A sibling coupon keeps the issue open after the first settlement.
	sibling := model.Coupon{
		ID:               uuid.New(),
		IssueID:          f.coupon.IssueID,
		ProductID:        f.coupon.ProductID,
		PartnerID:        f.coupon.PartnerID,
		RegistrationCode: "111100002222",
		RegisterID:       &f.memberID,
		ExpiredAt:        f.coupon.ExpiredAt,
	}
	f.couponRepo.coupons[sibling.ID] = &sibling

	view, err := f.svc.CreateQr(context.Background(), f.coupon.ID, f.memberID)
	if err != nil {
		t.Fatalf("CreateQr: %v", err)
	}
	confirmation, err := f.svc.Confirm(context.Background(), view.PaymentCode)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if confirmation.IssueCompleted {
		t.Fatalf("issue must stay open while a coupon is unredeemed")
	}

	view, err = f.svc.CreateQr(context.Background(), sibling.ID, f.memberID)
	if err != nil {
		t.Fatalf("CreateQr: %v", err)
	}
	confirmation, err = f.svc.Confirm(context.Background(), view.PaymentCode)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if !confirmation.IssueCompleted {
		t.Fatalf("issue should roll up to COMPLETED on the last settlement")
	}

	issue := f.issueRepo.issues[f.coupon.IssueID]
	if issue.CompletedAt == nil {
		t.Fatalf("completed_at not stamped")
	}
	if issue.Status != model.IssueStatusIssued {
		t.Fatalf("stored status = %q, want ISSUED (COMPLETED is derived)", issue.Status)
	}
	if issue.EffectiveStatus() != model.IssueStatusCompleted {
		t.Fatalf("effective status = %q, want COMPLETED", issue.EffectiveStatus())
	}
}
