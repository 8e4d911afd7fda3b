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

func newAuthFixture(t *testing.T) (*authService, *fakeMemberRepo, *fakePartnerRepo, *fakeTokenRepo, *fakeIssueRepo) {
	t.Helper()
	memberRepo := newFakeMemberRepo()
	partnerRepo := newFakePartnerRepo()
	tokenRepo := newFakeTokenRepo()
	issueRepo := newFakeIssueRepo()
	issueSvc := NewIssueService(issueRepo, partnerRepo, newFakeProductRepo(), &fakeAuditRepo{},
		NewMintingService(newFakeCouponRepo()), passTx{}, nil)

	svc := NewAuthService(memberRepo, partnerRepo, tokenRepo, issueSvc, passTx{},
		"test-secret", time.Hour, 24*time.Hour).(*authService)
	return svc, memberRepo, partnerRepo, tokenRepo, issueRepo
}

func TestJoinMemberAndLogin(t *testing.T) {
	svc, _, _, tokenRepo, _ := newAuthFixture(t)

	pair, err := svc.JoinMember(context.Background(), MemberJoinRequest{
		Name:     "Kim",
		Email:    "Kim@Example.com",
		Phone:    "010-1234-5678",
		Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("JoinMember: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("token pair incomplete: %+v", pair)
	}
	if _, ok := tokenRepo.tokens[pair.RefreshToken]; !ok {
		t.Fatalf("refresh token not stored")
	}

	// Email is case-normalized on join, so the original casing logs in too.
	if _, err := svc.LoginMember(context.Background(), LoginRequest{Email: "kim@example.com", Password: "hunter2hunter2"}); err != nil {
		t.Fatalf("LoginMember: %v", err)
	}
	_, err = svc.LoginMember(context.Background(), LoginRequest{Email: "kim@example.com", Password: "wrong"})
	if !errors.Is(err, apperr.ErrInvalidValue) {
		t.Fatalf("wrong password: err = %v, want InvalidValue", err)
	}
}

func TestJoinMemberRejectsDuplicateEmail(t *testing.T) {
	svc, _, _, _, _ := newAuthFixture(t)
	req := MemberJoinRequest{Name: "Kim", Email: "kim@example.com", Phone: "01012345678", Password: "hunter2hunter2"}

	if _, err := svc.JoinMember(context.Background(), req); err != nil {
		t.Fatalf("first join: %v", err)
	}
	_, err := svc.JoinMember(context.Background(), req)
	if !errors.Is(err, apperr.ErrInvalidValue) {
		t.Fatalf("duplicate join: err = %v, want InvalidValue", err)
	}
}

func TestJoinPartnerBindsPendingRequests(t *testing.T) {
	svc, _, partnerRepo, _, issueRepo := newAuthFixture(t)

	pending := &model.IssueRequest{
		Title:        "waiting promo",
		Status:       model.IssueStatusPending,
		PartnerName:  "future cafe",
		PartnerPhone: "01099990000",
		RequestedAt:  time.Now(),
	}
	if err := issueRepo.Create(context.Background(), pending); err != nil {
		t.Fatalf("seed pending issue: %v", err)
	}

	if _, err := svc.JoinPartner(context.Background(), PartnerJoinRequest{
		Name:     "future cafe",
		Email:    "cafe@example.com",
		Phone:    "010-9999-0000",
		Password: "hunter2hunter2",
	}); err != nil {
		t.Fatalf("JoinPartner: %v", err)
	}

	partner, err := partnerRepo.FindByPhone(context.Background(), "01099990000")
	if err != nil {
		t.Fatalf("partner not stored: %v", err)
	}
	issue := issueRepo.issues[pending.ID]
	if issue.PartnerID == nil || *issue.PartnerID != partner.ID {
		t.Fatalf("pending request not bound to the new partner")
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _, _, tokenRepo, _ := newAuthFixture(t)
	pair, err := svc.JoinMember(context.Background(), MemberJoinRequest{
		Name: "Kim", Email: "kim@example.com", Phone: "01012345678", Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("JoinMember: %v", err)
	}

	next, err := svc.Refresh(context.Background(), RefreshRequest{RefreshToken: pair.RefreshToken})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatalf("refresh token must rotate")
	}
	if _, ok := tokenRepo.tokens[pair.RefreshToken]; ok {
		t.Fatalf("old refresh token should be gone")
	}

	_, err = svc.Refresh(context.Background(), RefreshRequest{RefreshToken: pair.RefreshToken})
	if !errors.Is(err, apperr.ErrInvalidValue) {
		t.Fatalf("replayed refresh: err = %v, want InvalidValue", err)
	}
}

func TestRefreshRejectsUnknownSubjectlessToken(t *testing.T) {
	svc, _, _, _, _ := newAuthFixture(t)
	_, err := svc.Refresh(context.Background(), RefreshRequest{RefreshToken: uuid.NewString()})
	if !errors.Is(err, apperr.ErrInvalidValue) {
		t.Fatalf("err = %v, want InvalidValue", err)
	}
}
