package service

import (
	"context"
	"log/slog"
	"time"

	"go-resell-backoffice/internal/model"
	"go-resell-backoffice/internal/repository"
)

const (
	auditSuccess = "success"
	auditFailure = "failure"
)

// AuditService keeps the back-office journal. A nil *AuditService records
// nothing, which is what the CLI and most unit tests use.
type AuditService struct {
	repo *repository.AuditRepository
}

func NewAuditService(repo *repository.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Record stores entry with its outcome derived from err. Write failures are
// logged and never reach the caller.
func (s *AuditService) Record(ctx context.Context, entry model.AuditEntry, err error) {
	if s == nil || s.repo == nil {
		return
	}

	entry.Status = auditSuccess
	if err != nil {
		entry.Status = auditFailure
		entry.Error = err.Error()
	}
	if entry.OccurredAt == "" {
		entry.OccurredAt = time.Now().UTC().Format(time.RFC3339Nano)
	}

	// The entry must land even when the request was cancelled mid-flight.
	if writeErr := s.repo.Log(context.WithoutCancel(ctx), entry); writeErr != nil {
		slog.Error("audit write failed", "action", entry.Action, "resource", entry.Resource, "error", writeErr)
	}
}

func (s *AuditService) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	return s.repo.Query(ctx, query)
}
