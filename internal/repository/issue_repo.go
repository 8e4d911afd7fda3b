package repository

import (
	"context"
	"errors"
	"time"

	"couponhub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IssueFilter narrows actor-scoped issue queries.
type IssueFilter struct {
	Status string // effective status: PENDING, ISSUED, REJECTED, COMPLETED
	Title  string // substring match
	Page   int
	Size   int
}

type IssueRepository interface {
	Create(ctx context.Context, issue *model.IssueRequest) error
	CreateLines(ctx context.Context, lines []model.IssueProductLine) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.IssueRequest, error)
	// FindByIDForUpdate locks the issue row for the rest of the transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.IssueRequest, error)
	FindWithDetail(ctx context.Context, id uuid.UUID) (*model.IssueRequest, error)
	Save(ctx context.Context, issue *model.IssueRequest) error
	DeleteHard(ctx context.Context, id uuid.UUID) error
	ListForActor(ctx context.Context, role string, actorID uuid.UUID, filter IssueFilter) ([]model.IssueRequest, int64, error)
	// FindPendingByPartnerPhone returns PENDING requests addressed to a
	// not-yet-registered partner with this phone.
	FindPendingByPartnerPhone(ctx context.Context, phone string) ([]model.IssueRequest, error)
	AssignPartner(ctx context.Context, issueIDs []uuid.UUID, partnerID uuid.UUID) error
	// SetCompleted stamps completed_at if it is still null.
	SetCompleted(ctx context.Context, id uuid.UUID, at time.Time) error
}

type issueRepository struct {
	db *gorm.DB
}

func NewIssueRepository(db *gorm.DB) IssueRepository {
	return &issueRepository{db: db}
}

func (r *issueRepository) Create(ctx context.Context, issue *model.IssueRequest) error {
	return GetDB(ctx, r.db).Create(issue).Error
}

func (r *issueRepository) CreateLines(ctx context.Context, lines []model.IssueProductLine) error {
	return GetDB(ctx, r.db).Create(&lines).Error
}

func (r *issueRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.IssueRequest, error) {
	var issue model.IssueRequest
	if err := GetDB(ctx, r.db).First(&issue, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &issue, nil
}

func (r *issueRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.IssueRequest, error) {
	var issue model.IssueRequest
	if err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&issue, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &issue, nil
}

func (r *issueRepository) FindWithDetail(ctx context.Context, id uuid.UUID) (*model.IssueRequest, error) {
	var issue model.IssueRequest
	if err := GetDB(ctx, r.db).
		Preload("Vendor").
		Preload("Partner").
		Preload("ProductLines").
		Preload("ProductLines.Product").
		First(&issue, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &issue, nil
}

func (r *issueRepository) Save(ctx context.Context, issue *model.IssueRequest) error {
	return GetDB(ctx, r.db).Save(issue).Error
}

func (r *issueRepository) DeleteHard(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("issue_id = ?", id).Delete(&model.IssueProductLine{}).Error; err != nil {
		return err
	}
	return db.Delete(&model.IssueRequest{}, "id = ?", id).Error
}

func (r *issueRepository) ListForActor(ctx context.Context, role string, actorID uuid.UUID, filter IssueFilter) ([]model.IssueRequest, int64, error) {
	db := GetDB(ctx, r.db)

	scope := func(q *gorm.DB) *gorm.DB {
		switch role {
		case model.ActorPartner:
			q = q.Where("partner_id = ? AND partner_deleted_at IS NULL", actorID)
		default:
			q = q.Where("vendor_id = ? AND vendor_deleted_at IS NULL", actorID)
		}
		switch filter.Status {
		case "":
		case model.IssueStatusCompleted:
			q = q.Where("status = ? AND completed_at IS NOT NULL", model.IssueStatusIssued)
		case model.IssueStatusIssued:
			q = q.Where("status = ? AND completed_at IS NULL", model.IssueStatusIssued)
		default:
			q = q.Where("status = ?", filter.Status)
		}
		if filter.Title != "" {
			q = q.Where("title ILIKE ?", "%"+filter.Title+"%")
		}
		return q
	}

	var total int64
	if err := scope(db.Model(&model.IssueRequest{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Size <= 0 {
		filter.Size = 10
	}

	var issues []model.IssueRequest
	if err := scope(db.Model(&model.IssueRequest{})).
		Preload("Vendor").
		Preload("Partner").
		Order("requested_at DESC").
		Offset((filter.Page - 1) * filter.Size).
		Limit(filter.Size).
		Find(&issues).Error; err != nil {
		return nil, 0, err
	}

	return issues, total, nil
}

func (r *issueRepository) FindPendingByPartnerPhone(ctx context.Context, phone string) ([]model.IssueRequest, error) {
	var issues []model.IssueRequest
	if err := GetDB(ctx, r.db).
		Where("partner_id IS NULL AND partner_phone = ? AND status = ?", phone, model.IssueStatusPending).
		Find(&issues).Error; err != nil {
		return nil, err
	}
	return issues, nil
}

func (r *issueRepository) AssignPartner(ctx context.Context, issueIDs []uuid.UUID, partnerID uuid.UUID) error {
	if len(issueIDs) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Model(&model.IssueRequest{}).
		Where("id IN ?", issueIDs).
		Update("partner_id", partnerID).Error
}

func (r *issueRepository) SetCompleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	return GetDB(ctx, r.db).Model(&model.IssueRequest{}).
		Where("id = ? AND completed_at IS NULL", id).
		Update("completed_at", at).Error
}

// IsNotFound reports whether err is the store's missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
