package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"couponhub/internal/model"
	"couponhub/internal/repository"

	"github.com/google/uuid"
)

// codeCollisionRetries bounds the retry loop when a generated registration
// code already exists.
const codeCollisionRetries = 10

// MintAllocation is one resolved (product, count) pair to mint coupons for.
type MintAllocation struct {
	ProductID uuid.UUID
	Count     int
}

// MintingService turns an approved allocation into coupon rows. Mint must be
// called inside the caller's transaction so a failure partway never leaves a
// partially minted batch visible.
type MintingService interface {
	Mint(ctx context.Context, issueID, partnerID uuid.UUID, allocations []MintAllocation, validDays int, decidedAt time.Time) (int, error)
}

type mintingService struct {
	couponRepo repository.CouponRepository
}

func NewMintingService(couponRepo repository.CouponRepository) MintingService {
	return &mintingService{couponRepo: couponRepo}
}

func (s *mintingService) Mint(ctx context.Context, issueID, partnerID uuid.UUID, allocations []MintAllocation, validDays int, decidedAt time.Time) (int, error) {
	expiredAt := decidedAt.AddDate(0, 0, validDays)

	total := 0
	for _, a := range allocations {
		total += a.Count
	}
	if total == 0 {
		return 0, nil
	}

	coupons := make([]model.Coupon, 0, total)
	seen := make(map[string]struct{}, total)
	for _, a := range allocations {
		for i := 0; i < a.Count; i++ {
			code, err := s.uniqueCode(ctx, seen)
			if err != nil {
				return 0, err
			}
			seen[code] = struct{}{}
			coupons = append(coupons, model.Coupon{
				IssueID:          issueID,
				ProductID:        a.ProductID,
				PartnerID:        partnerID,
				RegistrationCode: code,
				CreatedAt:        decidedAt,
				ExpiredAt:        expiredAt,
			})
		}
	}

	if err := s.couponRepo.CreateBatch(ctx, coupons); err != nil {
		return 0, fmt.Errorf("failed to mint coupon batch: %w", err)
	}
	return len(coupons), nil
}

// uniqueCode draws fixed-length numeric codes until one collides neither with
// the store nor with the batch being built.
func (s *mintingService) uniqueCode(ctx context.Context, batch map[string]struct{}) (string, error) {
	for attempt := 0; attempt < codeCollisionRetries; attempt++ {
		code, err := randomNumericCode(model.RegistrationCodeLength)
		if err != nil {
			return "", err
		}
		if _, dup := batch[code]; dup {
			continue
		}
		exists, err := s.couponRepo.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique registration code after %d attempts", codeCollisionRetries)
}

func randomNumericCode(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to draw code digit: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
