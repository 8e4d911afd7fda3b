package service

import (
	"context"
	"fmt"
	"time"

	"couponhub/internal/repository"
)

type AuditEntry struct {
	ID        string `json:"id"`
	ActorRole string `json:"actor_role"`
	ActorID   string `json:"actor_id,omitempty"`
	Action    string `json:"action"`
	EntityID  string `json:"entity_id"`
	Details   string `json:"details"`
	CreatedAt string `json:"created_at"`
}

// AuditService exposes the action trail for operators.
type AuditService interface {
	List(ctx context.Context, action string, page, size int) ([]AuditEntry, int64, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
}

func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) List(ctx context.Context, action string, page, size int) ([]AuditEntry, int64, error) {
	logs, total, err := s.auditRepo.List(ctx, action, page, size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	entries := make([]AuditEntry, 0, len(logs))
	for _, l := range logs {
		entry := AuditEntry{
			ID:        l.ID.String(),
			ActorRole: l.ActorRole,
			Action:    l.Action,
			EntityID:  l.EntityID,
			Details:   l.Details,
			CreatedAt: l.CreatedAt.Format(time.RFC3339),
		}
		if l.ActorID != nil {
			entry.ActorID = l.ActorID.String()
		}
		entries = append(entries, entry)
	}
	return entries, total, nil
}
