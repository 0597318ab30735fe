package services

import (
	"context"
	"testing"

	"serena/internal/models"
	"serena/internal/repository"
)

func TestGoalAdvanceIsMonotonic(t *testing.T) {
	store := repository.NewInMemoryStore()
	svc := NewGoalService(store.Goals())
	ctx := context.Background()

	goal, err := svc.Create(ctx, "user-1", "dormir 8 horas")
	if err != nil {
		t.Fatal(err)
	}
	if goal.Status != models.GoalPending {
		t.Fatalf("expected pendiente, got %q", goal.Status)
	}

	if err := svc.Advance(ctx, *goal, 40); err != nil {
		t.Fatal(err)
	}
	current := mustGoal(t, store, ctx, "user-1")
	if current.Progress != 40 || current.Status != models.GoalInProgress {
		t.Fatalf("expected 40/en_progreso, got %d/%s", current.Progress, current.Status)
	}

	// Backward values are ignored.
	if err := svc.Advance(ctx, current, 10); err != nil {
		t.Fatal(err)
	}
	current = mustGoal(t, store, ctx, "user-1")
	if current.Progress != 40 {
		t.Fatalf("progress must not move backward, got %d", current.Progress)
	}

	// Overshoot clamps and completes.
	if err := svc.Advance(ctx, current, 130); err != nil {
		t.Fatal(err)
	}
	current = mustGoal(t, store, ctx, "user-1")
	if current.Progress != 100 || current.Status != models.GoalCompleted {
		t.Fatalf("expected 100/completado, got %d/%s", current.Progress, current.Status)
	}
}

func TestGoalReset(t *testing.T) {
	store := repository.NewInMemoryStore()
	svc := NewGoalService(store.Goals())
	ctx := context.Background()

	goal, err := svc.Create(ctx, "user-1", "meditar a diario")
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Advance(ctx, *goal, 70); err != nil {
		t.Fatal(err)
	}
	if err := svc.Reset(ctx, mustGoal(t, store, ctx, "user-1")); err != nil {
		t.Fatal(err)
	}

	current := mustGoal(t, store, ctx, "user-1")
	if current.Progress != 0 || current.Status != models.GoalPending {
		t.Fatalf("expected reset to 0/pendiente, got %d/%s", current.Progress, current.Status)
	}
}

func TestReinforceSkipsWithoutCoping(t *testing.T) {
	store := repository.NewInMemoryStore()
	svc := NewGoalService(store.Goals())
	ctx := context.Background()

	if _, err := svc.Create(ctx, "user-1", "caminar más"); err != nil {
		t.Fatal(err)
	}
	if err := svc.ReinforceFromInteraction(ctx, "user-1", map[string][]string{"catastrophizing": {"todo va a salir mal"}}); err != nil {
		t.Fatal(err)
	}

	current := mustGoal(t, store, ctx, "user-1")
	if current.Progress != 0 {
		t.Fatalf("expected untouched progress, got %d", current.Progress)
	}
}

func mustGoal(t *testing.T, store *repository.InMemoryStore, ctx context.Context, userID string) models.Goal {
	t.Helper()
	goals, err := store.Goals().ListByUser(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(goals) != 1 {
		t.Fatalf("expected exactly one goal, got %d", len(goals))
	}
	return goals[0]
}
