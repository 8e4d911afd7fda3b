package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"couponhub/internal/model"
	"couponhub/internal/repository"
	ws "couponhub/internal/websocket"
	"couponhub/pkg/apperr"

	"github.com/google/uuid"
)

// --- DTOs ---

// PartnerRef identifies the partner of a new request: either an existing
// partner id or a (name, phone) pair for a not-yet-registered partner.
type PartnerRef struct {
	IsNew        bool    `json:"is_new"`
	PartnerID    *string `json:"partner_id"`
	PartnerName  string  `json:"partner_name"`
	PartnerPhone string  `json:"partner_phone"`
}

// ProductLineInput is one requested or approved (product, count) pair.
type ProductLineInput struct {
	IsNew       bool    `json:"is_new"`
	ProductID   *string `json:"product_id"`
	ProductName string  `json:"product_name"`
	Count       int     `json:"count"`
}

type CreateIssueRequestDTO struct {
	Title     string             `json:"title" binding:"required"`
	Partner   PartnerRef         `json:"partner"`
	Products  []ProductLineInput `json:"products" binding:"required"`
	ValidDays int                `json:"valid_days" binding:"required"`
}

type DecideIssueDTO struct {
	IsApproved bool               `json:"is_approved"`
	Products   []ProductLineInput `json:"products"` // required when approving
	Reason     string             `json:"reason"`   // required when rejecting
}

type SelfIssueDTO struct {
	Title     string             `json:"title" binding:"required"`
	Products  []ProductLineInput `json:"products" binding:"required"`
	ValidDays int                `json:"valid_days" binding:"required"`
}

type IssueListItem struct {
	IssueID          string `json:"issue_id"`
	Title            string `json:"title"`
	ProductKindCount int    `json:"product_kind_count"`
	Status           string `json:"status"`
	RequestedAt      string `json:"requested_at"`
}

type PartyInfo struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

type ProductLineInfo struct {
	ProductID   string `json:"product_id,omitempty"`
	ProductName string `json:"product_name"`
	Count       int    `json:"count"`
}

// IssueRequestSheet is the read of the original request as it was asked.
type IssueRequestSheet struct {
	IssueID     string            `json:"issue_id"`
	Title       string            `json:"title"`
	Status      string            `json:"status"`
	Vendor      *PartyInfo        `json:"vendor,omitempty"`
	Partner     PartyInfo         `json:"partner"`
	Products    []ProductLineInfo `json:"products"`
	RequestedAt string            `json:"requested_at"`
}

// IssueDecisionView is the read of a decided request: the grant when
// approved, the rejection otherwise.
type IssueDecisionView struct {
	IsApproved bool            `json:"is_approved"`
	IssueInfo  *IssueGrantInfo `json:"issue_info,omitempty"`
	RejectInfo *RejectInfo     `json:"reject_info,omitempty"`
}

type IssueGrantInfo struct {
	RequestedIssueCount int               `json:"requested_issue_count"`
	ApprovedIssueCount  int               `json:"approved_issue_count"`
	ValidDays           int               `json:"valid_days"`
	Vendor              *PartyInfo        `json:"vendor,omitempty"`
	Partner             PartyInfo         `json:"partner"`
	Products            []ProductLineInfo `json:"products"`
	RequestedAt         string            `json:"requested_at"`
	DecidedAt           string            `json:"decided_at"`
	ExpiredAt           string            `json:"expired_at"`
}

type RejectInfo struct {
	RequestedIssueCount int    `json:"requested_issue_count"`
	Reason              string `json:"reason"`
	RequestedAt         string `json:"requested_at"`
	DecidedAt           string `json:"decided_at"`
}

// --- Interface ---

type IssueService interface {
	CreateRequest(ctx context.Context, vendorID uuid.UUID, req CreateIssueRequestDTO) (uuid.UUID, error)
	Decide(ctx context.Context, issueID, partnerID uuid.UUID, req DecideIssueDTO) error
	SelfIssue(ctx context.Context, partnerID uuid.UUID, req SelfIssueDTO) (uuid.UUID, error)
	Delete(ctx context.Context, role string, actorID uuid.UUID, issueIDs []uuid.UUID) error
	List(ctx context.Context, role string, actorID uuid.UUID, filter repository.IssueFilter) ([]IssueListItem, int64, error)
	GetRequest(ctx context.Context, issueID uuid.UUID, role string, actorID uuid.UUID) (*IssueRequestSheet, error)
	GetDecision(ctx context.Context, issueID uuid.UUID, role string, actorID uuid.UUID) (*IssueDecisionView, error)
	// LinkPendingToPartner attaches PENDING requests addressed to this phone
	// to the newly registered partner. Runs inside the caller's transaction.
	LinkPendingToPartner(ctx context.Context, phone string, partnerID uuid.UUID) (int, error)
}

type issueService struct {
	issueRepo   repository.IssueRepository
	partnerRepo repository.PartnerRepository
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
	minter      MintingService
	txManager   repository.TransactionManager
	hub         *ws.Hub
	now         func() time.Time
}

func NewIssueService(
	issueRepo repository.IssueRepository,
	partnerRepo repository.PartnerRepository,
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	minter MintingService,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) IssueService {
	return &issueService{
		issueRepo:   issueRepo,
		partnerRepo: partnerRepo,
		productRepo: productRepo,
		auditRepo:   auditRepo,
		minter:      minter,
		txManager:   txManager,
		hub:         hub,
		now:         time.Now,
	}
}

// --- Implementation ---

func (s *issueService) CreateRequest(ctx context.Context, vendorID uuid.UUID, req CreateIssueRequestDTO) (uuid.UUID, error) {
	if err := validateProductLines(req.Products); err != nil {
		return uuid.Nil, err
	}
	if req.ValidDays <= 0 {
		return uuid.Nil, apperr.New(apperr.CodeInvalidValue, "valid_days must be positive")
	}

	now := s.now()
	issue := model.IssueRequest{
		Title:       req.Title,
		VendorID:    &vendorID,
		Status:      model.IssueStatusPending,
		RequestedAt: now,
		ValidDays:   req.ValidDays,
	}

	// Resolve the partner reference. A "new" partner may in fact already be
	// registered under the given phone, in which case the request binds to it
	// directly instead of waiting for signup linking.
	if req.Partner.IsNew {
		phone := normalizePhone(req.Partner.PartnerPhone)
		if req.Partner.PartnerName == "" || phone == "" {
			return uuid.Nil, apperr.New(apperr.CodeInvalidValue, "new partner requires name and phone")
		}
		existing, err := s.partnerRepo.FindByPhone(ctx, phone)
		switch {
		case err == nil:
			issue.PartnerID = &existing.ID
		case repository.IsNotFound(err):
			issue.PartnerName = req.Partner.PartnerName
			issue.PartnerPhone = phone
		default:
			return uuid.Nil, fmt.Errorf("failed to resolve partner phone: %w", err)
		}
	} else {
		if req.Partner.PartnerID == nil {
			return uuid.Nil, apperr.New(apperr.CodeInvalidValue, "partner_id is required")
		}
		partnerID, err := uuid.Parse(*req.Partner.PartnerID)
		if err != nil {
			return uuid.Nil, apperr.New(apperr.CodeInvalidValue, "malformed partner_id")
		}
		if _, err := s.partnerRepo.FindByID(ctx, partnerID); err != nil {
			if repository.IsNotFound(err) {
				return uuid.Nil, apperr.New(apperr.CodeInvalidValue, "unknown partner")
			}
			return uuid.Nil, fmt.Errorf("failed to load partner: %w", err)
		}
		issue.PartnerID = &partnerID
	}

	lines := make([]model.IssueProductLine, 0, len(req.Products))
	total := 0
	for _, p := range req.Products {
		line := model.IssueProductLine{
			Stage: model.ProductLineStageRequest,
			Count: p.Count,
		}
		if p.IsNew {
			line.ProductName = p.ProductName
		} else {
			productID, err := uuid.Parse(*p.ProductID)
			if err != nil {
				return uuid.Nil, apperr.New(apperr.CodeInvalidValue, "malformed product_id")
			}
			product, err := s.productRepo.FindByID(ctx, productID)
			if err != nil {
				if repository.IsNotFound(err) {
					return uuid.Nil, apperr.New(apperr.CodeInvalidValue, "unknown product")
				}
				return uuid.Nil, fmt.Errorf("failed to load product: %w", err)
			}
			line.ProductID = &product.ID
			line.ProductName = product.Name
		}
		total += p.Count
		lines = append(lines, line)
	}
	issue.RequestedIssueCount = total
	issue.ProductKindCount = len(lines)

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.issueRepo.Create(txCtx, &issue); err != nil {
			return fmt.Errorf("failed to create issue request: %w", err)
		}
		for i := range lines {
			lines[i].IssueID = issue.ID
		}
		if err := s.issueRepo.CreateLines(txCtx, lines); err != nil {
			return fmt.Errorf("failed to create product lines: %w", err)
		}
		return s.audit(txCtx, model.ActorMember, &vendorID, model.ActionCreateIssueRequest, issue.ID.String(), map[string]interface{}{
			"title":                 issue.Title,
			"requested_issue_count": issue.RequestedIssueCount,
		})
	})
	if err != nil {
		return uuid.Nil, err
	}

	publishIssueEvent(s.hub, IssueEvent{
		Type:    EventIssueRequested,
		IssueID: issue.ID.String(),
		Title:   issue.Title,
		Status:  issue.Status,
	})
	return issue.ID, nil
}

func (s *issueService) Decide(ctx context.Context, issueID, partnerID uuid.UUID, req DecideIssueDTO) error {
	var allocations []ProductLineInput
	if req.IsApproved {
		if err := validateProductLines(req.Products); err != nil {
			return err
		}
		allocations = req.Products
	} else if strings.TrimSpace(req.Reason) == "" {
		return apperr.New(apperr.CodeInvalidValue, "rejection requires a reason")
	}

	var decided model.IssueRequest
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		issue, err := s.issueRepo.FindByIDForUpdate(txCtx, issueID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperr.New(apperr.CodeInvalidValue, "unknown issue")
			}
			return fmt.Errorf("failed to load issue: %w", err)
		}
		if issue.PartnerID == nil || *issue.PartnerID != partnerID {
			return apperr.ErrNotYours
		}
		if issue.Status != model.IssueStatusPending {
			return apperr.Newf(apperr.CodeAlreadyDecided, "issue is already %s", issue.Status)
		}

		now := s.now()
		issue.DecidedAt = &now

		if !req.IsApproved {
			issue.Status = model.IssueStatusRejected
			issue.Reason = req.Reason
			if err := s.issueRepo.Save(txCtx, issue); err != nil {
				return fmt.Errorf("failed to save rejection: %w", err)
			}
			decided = *issue
			return s.audit(txCtx, model.ActorPartner, &partnerID, model.ActionRejectIssue, issue.ID.String(), map[string]interface{}{
				"reason": req.Reason,
			})
		}

		approveLines, mintAllocs, approvedTotal, err := s.resolveAllocations(txCtx, partnerID, allocations)
		if err != nil {
			return err
		}
		for i := range approveLines {
			approveLines[i].IssueID = issue.ID
		}
		if err := s.issueRepo.CreateLines(txCtx, approveLines); err != nil {
			return fmt.Errorf("failed to create approve lines: %w", err)
		}

		minted, err := s.minter.Mint(txCtx, issue.ID, partnerID, mintAllocs, issue.ValidDays, now)
		if err != nil {
			return err
		}

		issue.Status = model.IssueStatusIssued
		issue.ApprovedIssueCount = approvedTotal
		if err := s.issueRepo.Save(txCtx, issue); err != nil {
			return fmt.Errorf("failed to save approval: %w", err)
		}
		decided = *issue
		return s.audit(txCtx, model.ActorPartner, &partnerID, model.ActionApproveIssue, issue.ID.String(), map[string]interface{}{
			"approved_issue_count": approvedTotal,
			"minted":               minted,
		})
	})
	if err != nil {
		return err
	}

	eventType := EventIssueApproved
	if decided.Status == model.IssueStatusRejected {
		eventType = EventIssueRejected
	}
	publishIssueEvent(s.hub, IssueEvent{
		Type:    eventType,
		IssueID: decided.ID.String(),
		Title:   decided.Title,
		Status:  decided.Status,
	})
	return nil
}

func (s *issueService) SelfIssue(ctx context.Context, partnerID uuid.UUID, req SelfIssueDTO) (uuid.UUID, error) {
	if err := validateProductLines(req.Products); err != nil {
		return uuid.Nil, err
	}
	if req.ValidDays <= 0 {
		return uuid.Nil, apperr.New(apperr.CodeInvalidValue, "valid_days must be positive")
	}

	now := s.now()
	issue := model.IssueRequest{
		Title:       req.Title,
		PartnerID:   &partnerID,
		Status:      model.IssueStatusIssued,
		RequestedAt: now,
		DecidedAt:   &now,
		ValidDays:   req.ValidDays,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		approveLines, mintAllocs, approvedTotal, err := s.resolveAllocations(txCtx, partnerID, req.Products)
		if err != nil {
			return err
		}

		issue.RequestedIssueCount = approvedTotal
		issue.ApprovedIssueCount = approvedTotal
		issue.ProductKindCount = len(approveLines)
		if err := s.issueRepo.Create(txCtx, &issue); err != nil {
			return fmt.Errorf("failed to create self-issue: %w", err)
		}
		for i := range approveLines {
			approveLines[i].IssueID = issue.ID
		}
		if err := s.issueRepo.CreateLines(txCtx, approveLines); err != nil {
			return fmt.Errorf("failed to create approve lines: %w", err)
		}
		if _, err := s.minter.Mint(txCtx, issue.ID, partnerID, mintAllocs, issue.ValidDays, now); err != nil {
			return err
		}
		return s.audit(txCtx, model.ActorPartner, &partnerID, model.ActionSelfIssue, issue.ID.String(), map[string]interface{}{
			"title":                issue.Title,
			"approved_issue_count": approvedTotal,
		})
	})
	if err != nil {
		return uuid.Nil, err
	}

	publishIssueEvent(s.hub, IssueEvent{
		Type:    EventIssueApproved,
		IssueID: issue.ID.String(),
		Title:   issue.Title,
		Status:  issue.Status,
	})
	return issue.ID, nil
}

// Delete applies the visibility state machine row by row; the whole batch is
// rejected when any id is not the actor's.
func (s *issueService) Delete(ctx context.Context, role string, actorID uuid.UUID, issueIDs []uuid.UUID) error {
	if len(issueIDs) == 0 {
		return apperr.New(apperr.CodeInvalidValue, "no issue ids given")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		now := s.now()
		for _, id := range issueIDs {
			issue, err := s.issueRepo.FindByIDForUpdate(txCtx, id)
			if err != nil {
				if repository.IsNotFound(err) {
					return apperr.ErrNotYours
				}
				return fmt.Errorf("failed to load issue: %w", err)
			}
			if !ownedBy(issue, role, actorID) {
				return apperr.ErrNotYours
			}

			switch {
			case issue.Status == model.IssueStatusPending && role == model.ActorMember:
				// Withdrawn before any decision: the row disappears for both sides.
				if err := s.issueRepo.DeleteHard(txCtx, issue.ID); err != nil {
					return fmt.Errorf("failed to withdraw issue: %w", err)
				}
				if err := s.audit(txCtx, role, &actorID, model.ActionWithdrawIssue, issue.ID.String(), nil); err != nil {
					return err
				}
			case issue.Status == model.IssueStatusPending && role == model.ActorPartner:
				// The vendor keeps seeing it, as rejected; the partner does not.
				issue.Status = model.IssueStatusRejected
				issue.DecidedAt = &now
				issue.PartnerDeletedAt = &now
				if err := s.issueRepo.Save(txCtx, issue); err != nil {
					return fmt.Errorf("failed to reject issue on delete: %w", err)
				}
				if err := s.audit(txCtx, role, &actorID, model.ActionRejectIssue, issue.ID.String(), nil); err != nil {
					return err
				}
			case role == model.ActorMember:
				issue.VendorDeletedAt = &now
				if err := s.issueRepo.Save(txCtx, issue); err != nil {
					return fmt.Errorf("failed to hide issue from vendor: %w", err)
				}
			default:
				issue.PartnerDeletedAt = &now
				if err := s.issueRepo.Save(txCtx, issue); err != nil {
					return fmt.Errorf("failed to hide issue from partner: %w", err)
				}
			}
		}
		return nil
	})
}

func (s *issueService) List(ctx context.Context, role string, actorID uuid.UUID, filter repository.IssueFilter) ([]IssueListItem, int64, error) {
	issues, total, err := s.issueRepo.ListForActor(ctx, role, actorID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list issues: %w", err)
	}

	items := make([]IssueListItem, 0, len(issues))
	for _, issue := range issues {
		items = append(items, IssueListItem{
			IssueID:          issue.ID.String(),
			Title:            issue.Title,
			ProductKindCount: issue.ProductKindCount,
			Status:           issue.EffectiveStatus(),
			RequestedAt:      issue.RequestedAt.Format(time.RFC3339),
		})
	}
	return items, total, nil
}

func (s *issueService) GetRequest(ctx context.Context, issueID uuid.UUID, role string, actorID uuid.UUID) (*IssueRequestSheet, error) {
	issue, err := s.loadVisible(ctx, issueID, role, actorID)
	if err != nil {
		return nil, err
	}

	sheet := &IssueRequestSheet{
		IssueID:     issue.ID.String(),
		Title:       issue.Title,
		Status:      issue.EffectiveStatus(),
		Vendor:      vendorInfo(issue),
		Partner:     partnerInfo(issue),
		Products:    lineInfos(issue.ProductLines, model.ProductLineStageRequest),
		RequestedAt: issue.RequestedAt.Format(time.RFC3339),
	}
	return sheet, nil
}

func (s *issueService) GetDecision(ctx context.Context, issueID uuid.UUID, role string, actorID uuid.UUID) (*IssueDecisionView, error) {
	issue, err := s.loadVisible(ctx, issueID, role, actorID)
	if err != nil {
		return nil, err
	}

	switch issue.Status {
	case model.IssueStatusPending:
		return nil, apperr.ErrNotDecided
	case model.IssueStatusRejected:
		return &IssueDecisionView{
			IsApproved: false,
			RejectInfo: &RejectInfo{
				RequestedIssueCount: issue.RequestedIssueCount,
				Reason:              issue.Reason,
				RequestedAt:         issue.RequestedAt.Format(time.RFC3339),
				DecidedAt:           formatTimePtr(issue.DecidedAt),
			},
		}, nil
	default:
		expiredAt := ""
		if issue.DecidedAt != nil {
			expiredAt = issue.DecidedAt.AddDate(0, 0, issue.ValidDays).Format(time.RFC3339)
		}
		return &IssueDecisionView{
			IsApproved: true,
			IssueInfo: &IssueGrantInfo{
				RequestedIssueCount: issue.RequestedIssueCount,
				ApprovedIssueCount:  issue.ApprovedIssueCount,
				ValidDays:           issue.ValidDays,
				Vendor:              vendorInfo(issue),
				Partner:             partnerInfo(issue),
				Products:            lineInfos(issue.ProductLines, model.ProductLineStageApprove),
				RequestedAt:         issue.RequestedAt.Format(time.RFC3339),
				DecidedAt:           formatTimePtr(issue.DecidedAt),
				ExpiredAt:           expiredAt,
			},
		}, nil
	}
}

func (s *issueService) LinkPendingToPartner(ctx context.Context, phone string, partnerID uuid.UUID) (int, error) {
	pending, err := s.issueRepo.FindPendingByPartnerPhone(ctx, normalizePhone(phone))
	if err != nil {
		return 0, fmt.Errorf("failed to find pending issues for phone: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}
	ids := make([]uuid.UUID, 0, len(pending))
	for _, issue := range pending {
		ids = append(ids, issue.ID)
	}
	if err := s.issueRepo.AssignPartner(ctx, ids, partnerID); err != nil {
		return 0, fmt.Errorf("failed to link pending issues: %w", err)
	}
	return len(ids), nil
}

// --- Helpers ---

// resolveAllocations turns allocation inputs into APPROVE-stage lines plus
// concrete mint allocations, creating named-new products under the partner.
func (s *issueService) resolveAllocations(ctx context.Context, partnerID uuid.UUID, inputs []ProductLineInput) ([]model.IssueProductLine, []MintAllocation, int, error) {
	lines := make([]model.IssueProductLine, 0, len(inputs))
	allocs := make([]MintAllocation, 0, len(inputs))
	total := 0

	for _, in := range inputs {
		var product *model.Product
		if in.IsNew {
			existing, err := s.productRepo.FindByPartnerAndName(ctx, partnerID, in.ProductName)
			switch {
			case err == nil:
				product = existing
			case repository.IsNotFound(err):
				created := &model.Product{PartnerID: partnerID, Name: in.ProductName}
				if err := s.productRepo.Create(ctx, created); err != nil {
					return nil, nil, 0, fmt.Errorf("failed to create product: %w", err)
				}
				product = created
			default:
				return nil, nil, 0, fmt.Errorf("failed to look up product by name: %w", err)
			}
		} else {
			productID, err := uuid.Parse(*in.ProductID)
			if err != nil {
				return nil, nil, 0, apperr.New(apperr.CodeInvalidValue, "malformed product_id")
			}
			existing, err := s.productRepo.FindByID(ctx, productID)
			if err != nil {
				if repository.IsNotFound(err) {
					return nil, nil, 0, apperr.New(apperr.CodeInvalidValue, "unknown product")
				}
				return nil, nil, 0, fmt.Errorf("failed to load product: %w", err)
			}
			if existing.PartnerID != partnerID {
				return nil, nil, 0, apperr.ErrNotYours
			}
			product = existing
		}

		lines = append(lines, model.IssueProductLine{
			ProductID:   &product.ID,
			ProductName: product.Name,
			Stage:       model.ProductLineStageApprove,
			Count:       in.Count,
		})
		allocs = append(allocs, MintAllocation{ProductID: product.ID, Count: in.Count})
		total += in.Count
	}
	return lines, allocs, total, nil
}

func (s *issueService) loadVisible(ctx context.Context, issueID uuid.UUID, role string, actorID uuid.UUID) (*model.IssueRequest, error) {
	issue, err := s.issueRepo.FindWithDetail(ctx, issueID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.New(apperr.CodeInvalidValue, "unknown issue")
		}
		return nil, fmt.Errorf("failed to load issue: %w", err)
	}
	// Absence and lack of entitlement read the same so an unauthorized
	// caller cannot probe for existence.
	if !ownedBy(issue, role, actorID) || issue.DeletedFor(role) {
		return nil, apperr.New(apperr.CodeInvalidValue, "unknown issue")
	}
	return issue, nil
}

func (s *issueService) audit(ctx context.Context, role string, actorID *uuid.UUID, action, entityID string, details map[string]interface{}) error {
	payload := "{}"
	if details != nil {
		raw, err := json.Marshal(details)
		if err == nil {
			payload = string(raw)
		}
	}
	entry := &model.AuditLog{
		ActorRole: role,
		ActorID:   actorID,
		Action:    action,
		EntityID:  entityID,
		Details:   payload,
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func ownedBy(issue *model.IssueRequest, role string, actorID uuid.UUID) bool {
	switch role {
	case model.ActorMember:
		return issue.VendorID != nil && *issue.VendorID == actorID
	case model.ActorPartner:
		return issue.PartnerID != nil && *issue.PartnerID == actorID
	}
	return false
}

func validateProductLines(lines []ProductLineInput) error {
	if len(lines) == 0 {
		return apperr.New(apperr.CodeInvalidValue, "at least one product line is required")
	}
	for _, line := range lines {
		if line.Count <= 0 {
			return apperr.New(apperr.CodeInvalidValue, "count must be positive")
		}
		if line.IsNew {
			if strings.TrimSpace(line.ProductName) == "" {
				return apperr.New(apperr.CodeInvalidValue, "new product requires a name")
			}
		} else if line.ProductID == nil {
			return apperr.New(apperr.CodeInvalidValue, "product_id is required")
		}
	}
	return nil
}

// normalizePhone strips everything but digits.
func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func vendorInfo(issue *model.IssueRequest) *PartyInfo {
	if issue.Vendor == nil {
		return nil
	}
	return &PartyInfo{
		ID:    issue.Vendor.ID.String(),
		Name:  issue.Vendor.Name,
		Phone: issue.Vendor.Phone,
	}
}

func partnerInfo(issue *model.IssueRequest) PartyInfo {
	if issue.Partner != nil {
		return PartyInfo{
			ID:    issue.Partner.ID.String(),
			Name:  issue.Partner.Name,
			Phone: issue.Partner.Phone,
		}
	}
	return PartyInfo{Name: issue.PartnerName, Phone: issue.PartnerPhone}
}

func lineInfos(lines []model.IssueProductLine, stage string) []ProductLineInfo {
	infos := make([]ProductLineInfo, 0, len(lines))
	for _, line := range lines {
		if line.Stage != stage {
			continue
		}
		info := ProductLineInfo{ProductName: line.ProductName, Count: line.Count}
		if line.ProductID != nil {
			info.ProductID = line.ProductID.String()
		}
		infos = append(infos, info)
	}
	return infos
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
