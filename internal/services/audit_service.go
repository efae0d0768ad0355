package services

import (
	"context"
	"log"
	"time"

	"fnh-backend/internal/models"
	"fnh-backend/internal/repositories"

	"github.com/google/uuid"
)

// AuditService is the asynchronous sink for the financial audit trail.
// Record returns immediately; a failed audit write is logged and never
// fails the financial operation it describes.
type AuditService struct {
	Repo *repositories.AuditLogRepository
}

func NewAuditService(repo *repositories.AuditLogRepository) *AuditService {
	return &AuditService{Repo: repo}
}

// Record queues one audit entry. A fresh correlation ID is assigned
// when the caller did not group this entry with others.
func (s *AuditService) Record(entry *models.AuditLog) {
	if entry.CorrelationID == "" {
		entry.CorrelationID = uuid.New().String()
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.Repo.Append(ctx, entry); err != nil {
			log.Printf("[Audit] Failed to record %s %s: %v", entry.ActionType, entry.TargetType, err)
		}
	}()
}

// List returns audit entries for the admin review screen.
func (s *AuditService) List(ctx context.Context, actionType, targetType string, limit, offset int) ([]*models.AuditLog, error) {
	return s.Repo.List(ctx, actionType, targetType, limit, offset)
}
