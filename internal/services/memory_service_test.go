package services

import (
	"context"
	"testing"
	"time"

	"serena/internal/models"
	"serena/internal/repository"
)

func TestRecordInteractionNormalizes(t *testing.T) {
	store := repository.NewInMemoryStore()
	svc := NewMemoryService(store.Memories())
	ctx := context.Background()

	rec := models.InteractionRecord{
		Timestamp: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		Emotion:   "ansiedad",
		Intensity: 14, // out of range
	}
	if err := svc.RecordInteraction(ctx, "user-1", rec); err != nil {
		t.Fatal(err)
	}

	mem, err := store.GetOrCreate(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	got := mem.Window[0]
	if got.Intensity != 10 {
		t.Fatalf("expected clamped intensity 10, got %d", got.Intensity)
	}
	if got.TimeBucket != models.BucketMorning {
		t.Fatalf("expected morning bucket for 09:30, got %q", got.TimeBucket)
	}
}

func TestRelevantContextNewUserIsNeutral(t *testing.T) {
	store := repository.NewInMemoryStore()
	svc := NewMemoryService(store.Memories())

	rc := svc.RelevantContext(context.Background(), "unknown-user")
	if rc.Trend.Latest != "neutral" {
		t.Fatalf("expected neutral latest, got %q", rc.Trend.Latest)
	}
	if rc.InteractionCount != 0 {
		t.Fatalf("expected zero interactions, got %d", rc.InteractionCount)
	}
	if rc.PatternHistory == nil || rc.BucketFrequency == nil {
		t.Fatal("default context must have non-nil maps")
	}
}

func TestRelevantContextAggregates(t *testing.T) {
	store := repository.NewInMemoryStore()
	svc := NewMemoryService(store.Memories())
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	records := []models.InteractionRecord{
		{Timestamp: base, Emotion: "tristeza", Intensity: 8,
			PatternFlags: map[string][]string{"catastrophizing": {"todo va a salir mal"}}},
		{Timestamp: base.Add(time.Hour), Emotion: "tristeza", Intensity: 7},
		{Timestamp: base.Add(2 * time.Hour), Emotion: "ansiedad", Intensity: 3,
			PatternFlags: map[string][]string{"coping": {"respiré hondo"}}},
	}
	for _, rec := range records {
		if err := svc.RecordInteraction(ctx, "user-1", rec); err != nil {
			t.Fatal(err)
		}
	}

	rc := svc.RelevantContext(ctx, "user-1")
	if rc.Trend.Latest != "ansiedad" {
		t.Fatalf("expected latest ansiedad, got %q", rc.Trend.Latest)
	}
	if rc.Trend.HighIntensity != 2 || rc.Trend.LowIntensity != 1 {
		t.Fatalf("unexpected intensity counts: %+v", rc.Trend)
	}
	if len(rc.Trend.Fluctuation) != 3 || rc.Trend.Fluctuation[0] != 8 {
		t.Fatalf("expected fluctuation oldest-first, got %v", rc.Trend.Fluctuation)
	}
	if rc.Profile.Predominant[0] != "tristeza" {
		t.Fatalf("expected tristeza predominant, got %v", rc.Profile.Predominant)
	}
	if len(rc.Profile.Triggers) != 1 || rc.Profile.Triggers[0] != "catastrophizing" {
		t.Fatalf("expected catastrophizing trigger, got %v", rc.Profile.Triggers)
	}
	if len(rc.Profile.Coping) != 1 || rc.Profile.Coping[0].Name != "respiré hondo" {
		t.Fatalf("expected coping strategy, got %v", rc.Profile.Coping)
	}
	// Intensity 3 while coping -> effectiveness 0.7.
	if eff := rc.Profile.Coping[0].Effectiveness; eff < 0.69 || eff > 0.71 {
		t.Fatalf("expected effectiveness ~0.7, got %v", eff)
	}
	if rc.PatternHistory["coping"][0] != "respiré hondo" {
		t.Fatalf("unexpected pattern history: %v", rc.PatternHistory)
	}
	if rc.BucketFrequency[models.BucketEvening] != 2 {
		t.Fatalf("expected 2 evening interactions, got %v", rc.BucketFrequency)
	}
}
