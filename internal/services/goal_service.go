package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"serena/internal/models"
	"serena/internal/repository"
)

// copingProgressBump is how much one observed coping action advances a goal.
const copingProgressBump = 5

// GoalService manages user wellness goals. Progress only moves forward
// unless explicitly reset; goals change status but are never deleted.
type GoalService struct {
	repo repository.GoalRepository
}

func NewGoalService(repo repository.GoalRepository) *GoalService {
	return &GoalService{repo: repo}
}

// Create registers a new pending goal.
func (s *GoalService) Create(ctx context.Context, userID, description string) (*models.Goal, error) {
	goal := &models.Goal{UserID: userID, Description: description}
	if err := s.repo.Create(ctx, goal); err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}
	return goal, nil
}

// List returns all of the user's goals, newest first.
func (s *GoalService) List(ctx context.Context, userID string) ([]models.Goal, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Advance moves a goal's progress forward. Backward values are ignored;
// reaching 100 completes the goal.
func (s *GoalService) Advance(ctx context.Context, goal models.Goal, progress int) error {
	if progress < goal.Progress {
		progress = goal.Progress
	}
	if progress > 100 {
		progress = 100
	}

	status := goal.Status
	switch {
	case progress >= 100:
		status = models.GoalCompleted
	case progress > 0 && status == models.GoalPending:
		status = models.GoalInProgress
	}

	return s.repo.UpdateProgress(ctx, goal.ID, progress, status)
}

// Reset returns a goal to zero progress and pending status. The one
// sanctioned backward move.
func (s *GoalService) Reset(ctx context.Context, goal models.Goal) error {
	return s.repo.UpdateProgress(ctx, goal.ID, 0, models.GoalPending)
}

// ReinforceFromInteraction nudges active goals when the interaction shows
// the user applying a coping strategy. Called from the post-reply fan-out;
// failures are logged by the caller.
func (s *GoalService) ReinforceFromInteraction(ctx context.Context, userID string, patternFlags map[string][]string) error {
	if len(patternFlags["coping"]) == 0 {
		return nil
	}

	goals, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list goals for reinforcement: %w", err)
	}

	for _, goal := range goals {
		if goal.Status != models.GoalPending && goal.Status != models.GoalInProgress {
			continue
		}
		if err := s.Advance(ctx, goal, goal.Progress+copingProgressBump); err != nil {
			return err
		}
	}
	return nil
}

// AbandonIdle soft-abandons goals untouched for the given duration.
func (s *GoalService) AbandonIdle(ctx context.Context, idleFor time.Duration) (int64, error) {
	cutoff := time.Now().Add(-idleFor)
	n, err := s.repo.AbandonIdleSince(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to abandon idle goals: %w", err)
	}
	if n > 0 {
		log.Printf("🧹 [GOALS] Marked %d idle goals as %s", n, models.GoalAbandoned)
	}
	return n, nil
}
