package services

import (
	"context"
	"fmt"
	"time"

	"serena/internal/models"
	"serena/internal/repository"
)

// ProgressService keeps the append-only emotional progress log per user.
type ProgressService struct {
	repo repository.ProgressRepository
}

func NewProgressService(repo repository.ProgressRepository) *ProgressService {
	return &ProgressService{repo: repo}
}

// RecordEntry appends one snapshot, normalizing it first.
func (s *ProgressService) RecordEntry(ctx context.Context, userID string, entry models.ProgressEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	entry.Intensity = models.ClampIntensity(entry.Intensity)

	if err := s.repo.AppendEntry(ctx, userID, entry); err != nil {
		return fmt.Errorf("failed to record progress entry: %w", err)
	}
	return nil
}

// Log returns the user's progress log; unknown users get an empty log.
func (s *ProgressService) Log(ctx context.Context, userID string) (*models.ProgressLog, error) {
	return s.repo.Get(ctx, userID)
}
