package services

import (
	"context"
	"fmt"
	"time"

	"serena/internal/models"
	"serena/internal/repository"
)

// TherapeuticService tracks the longitudinal therapeutic view of a user:
// session log, active tools and the three 1-10 metrics.
type TherapeuticService struct {
	repo repository.TherapeuticRepository
}

func NewTherapeuticService(repo repository.TherapeuticRepository) *TherapeuticService {
	return &TherapeuticService{repo: repo}
}

// Record returns the user's therapeutic record, seeded at the scale
// midpoint on first access.
func (s *TherapeuticService) Record(ctx context.Context, userID string) (*models.TherapeuticRecord, error) {
	return s.repo.GetOrCreate(ctx, userID)
}

// RecordSession appends one session and moves the metrics by fixed steps:
// stability follows the emotional intensity, mastery follows tool use,
// engagement grows with every session. All three stay clamped to 1-10.
func (s *TherapeuticService) RecordSession(ctx context.Context, userID string, emotion string, intensity int, toolsUsed []string) error {
	record, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load therapeutic record: %w", err)
	}

	metrics := record.Metrics
	switch {
	case intensity >= 7:
		metrics.Stability = clampMetric(metrics.Stability - 1)
	case intensity <= 3:
		metrics.Stability = clampMetric(metrics.Stability + 1)
	}
	if len(toolsUsed) > 0 {
		metrics.Mastery = clampMetric(metrics.Mastery + 1)
	}
	metrics.Engagement = clampMetric(metrics.Engagement + 1)

	session := models.TherapeuticSession{
		Timestamp: time.Now(),
		Emotion:   emotion,
		ToolsUsed: toolsUsed,
	}

	tools := mergeTools(record.ActiveTools, toolsUsed)
	status := statusForMetrics(metrics)

	if err := s.repo.AppendSession(ctx, userID, session, status, tools, metrics); err != nil {
		return fmt.Errorf("failed to append therapeutic session: %w", err)
	}
	return nil
}

func clampMetric(v int) int {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}

func mergeTools(existing, added []string) []string {
	seen := make(map[string]bool, len(existing))
	merged := append([]string(nil), existing...)
	for _, tool := range existing {
		seen[tool] = true
	}
	for _, tool := range added {
		if !seen[tool] {
			seen[tool] = true
			merged = append(merged, tool)
		}
	}
	return merged
}

func statusForMetrics(m models.TherapeuticMetrics) string {
	avg := float64(m.Stability+m.Mastery+m.Engagement) / 3
	switch {
	case avg < 4:
		return "inicio"
	case avg < 7:
		return "progresando"
	default:
		return "consolidando"
	}
}
