package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"couponhub/internal/model"
	"couponhub/internal/repository"
	"couponhub/pkg/apperr"
	"couponhub/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// --- DTOs ---

type MemberJoinRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Birth    string `json:"birth"` // YYYY-MM-DD, optional
}

type PartnerJoinRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

// --- Interface ---

type AuthService interface {
	JoinMember(ctx context.Context, req MemberJoinRequest) (*TokenPair, error)
	// JoinPartner registers the partner and binds any PENDING issue requests
	// addressed to its phone in the same transaction. The signup fails when
	// the binding fails.
	JoinPartner(ctx context.Context, req PartnerJoinRequest) (*TokenPair, error)
	LoginMember(ctx context.Context, req LoginRequest) (*TokenPair, error)
	LoginPartner(ctx context.Context, req LoginRequest) (*TokenPair, error)
	Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error)
}

type authService struct {
	memberRepo  repository.MemberRepository
	partnerRepo repository.PartnerRepository
	tokenRepo   repository.RefreshTokenRepository
	issueSvc    IssueService
	txManager   repository.TransactionManager

	jwtSecret      []byte
	tokenExpires   time.Duration
	refreshExpires time.Duration
	now            func() time.Time
}

func NewAuthService(
	memberRepo repository.MemberRepository,
	partnerRepo repository.PartnerRepository,
	tokenRepo repository.RefreshTokenRepository,
	issueSvc IssueService,
	txManager repository.TransactionManager,
	jwtSecret string,
	tokenExpires, refreshExpires time.Duration,
) AuthService {
	return &authService{
		memberRepo:     memberRepo,
		partnerRepo:    partnerRepo,
		tokenRepo:      tokenRepo,
		issueSvc:       issueSvc,
		txManager:      txManager,
		jwtSecret:      []byte(jwtSecret),
		tokenExpires:   tokenExpires,
		refreshExpires: refreshExpires,
		now:            time.Now,
	}
}

func (s *authService) JoinMember(ctx context.Context, req MemberJoinRequest) (*TokenPair, error) {
	if !emailRegex.MatchString(req.Email) {
		return nil, apperr.New(apperr.CodeInvalidValue, "invalid email format")
	}
	if _, err := s.memberRepo.FindByEmail(ctx, req.Email); err == nil {
		return nil, apperr.New(apperr.CodeInvalidValue, "email already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	member := &model.Member{
		Name:     req.Name,
		Email:    strings.ToLower(req.Email),
		Phone:    normalizePhone(req.Phone),
		Password: string(hashed),
	}
	if req.Birth != "" {
		birth, err := time.Parse("2006-01-02", req.Birth)
		if err != nil {
			return nil, apperr.New(apperr.CodeInvalidValue, "birth must be YYYY-MM-DD")
		}
		member.Birth = &birth
	}

	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}
	return s.issueTokens(ctx, model.ActorMember, member.ID)
}

func (s *authService) JoinPartner(ctx context.Context, req PartnerJoinRequest) (*TokenPair, error) {
	if !emailRegex.MatchString(req.Email) {
		return nil, apperr.New(apperr.CodeInvalidValue, "invalid email format")
	}
	if _, err := s.partnerRepo.FindByEmail(ctx, req.Email); err == nil {
		return nil, apperr.New(apperr.CodeInvalidValue, "email already exists")
	}
	phone := normalizePhone(req.Phone)
	if _, err := s.partnerRepo.FindByPhone(ctx, phone); err == nil {
		return nil, apperr.New(apperr.CodeInvalidValue, "phone already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	partner := &model.Partner{
		Name:     req.Name,
		Email:    strings.ToLower(req.Email),
		Phone:    phone,
		Password: string(hashed),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.partnerRepo.Create(txCtx, partner); err != nil {
			return fmt.Errorf("failed to create partner: %w", err)
		}
		linked, err := s.issueSvc.LinkPendingToPartner(txCtx, phone, partner.ID)
		if err != nil {
			return err
		}
		if linked > 0 {
			logger.L().Info("linked pending issue requests on partner signup",
				zap.String("partner_id", partner.ID.String()), zap.Int("linked", linked))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, model.ActorPartner, partner.ID)
}

func (s *authService) LoginMember(ctx context.Context, req LoginRequest) (*TokenPair, error) {
	member, err := s.memberRepo.FindByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		return nil, apperr.New(apperr.CodeInvalidValue, "invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(member.Password), []byte(req.Password)); err != nil {
		return nil, apperr.New(apperr.CodeInvalidValue, "invalid email or password")
	}
	return s.issueTokens(ctx, model.ActorMember, member.ID)
}

func (s *authService) LoginPartner(ctx context.Context, req LoginRequest) (*TokenPair, error) {
	partner, err := s.partnerRepo.FindByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		return nil, apperr.New(apperr.CodeInvalidValue, "invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(partner.Password), []byte(req.Password)); err != nil {
		return nil, apperr.New(apperr.CodeInvalidValue, "invalid email or password")
	}
	return s.issueTokens(ctx, model.ActorPartner, partner.ID)
}

func (s *authService) Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error) {
	stored, err := s.tokenRepo.FindValid(ctx, req.RefreshToken, s.now())
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.New(apperr.CodeInvalidValue, "invalid refresh token")
		}
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	// Rotate: the old token dies with the new pair's birth.
	if err := s.tokenRepo.Delete(ctx, stored.Token); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	return s.issueTokens(ctx, stored.SubjectType, stored.SubjectID)
}

func (s *authService) issueTokens(ctx context.Context, role string, subjectID uuid.UUID) (*TokenPair, error) {
	now := s.now()
	expiresAt := now.Add(s.tokenExpires)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subjectID.String(),
		"role": role,
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	})
	accessToken, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh := &model.RefreshToken{
		SubjectType: role,
		SubjectID:   subjectID,
		Token:       uuid.NewString(),
		ExpiresAt:   now.Add(s.refreshExpires),
	}
	if err := s.tokenRepo.Create(ctx, refresh); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refresh.Token,
		ExpiresAt:    expiresAt.Format(time.RFC3339),
	}, nil
}
