package services

import (
	"context"
	"testing"

	"serena/internal/repository"
)

func TestRecordSessionMetricSteps(t *testing.T) {
	svc := NewTherapeuticService(repository.NewInMemoryStore().Therapeutic())
	ctx := context.Background()

	// High intensity, no tools: stability drops, engagement grows.
	if err := svc.RecordSession(ctx, "user-1", "ansiedad", 8, nil); err != nil {
		t.Fatalf("RecordSession failed: %v", err)
	}
	record, err := svc.Record(ctx, "user-1")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if record.Metrics.Stability != 4 || record.Metrics.Mastery != 5 || record.Metrics.Engagement != 6 {
		t.Errorf("unexpected metrics after high-intensity session: %+v", record.Metrics)
	}
	if record.CurrentStatus != "progresando" {
		t.Errorf("expected status progresando, got %q", record.CurrentStatus)
	}

	// Low intensity with a tool: stability recovers, mastery grows.
	if err := svc.RecordSession(ctx, "user-1", "alegria", 2, []string{"respiración diafragmática"}); err != nil {
		t.Fatalf("RecordSession failed: %v", err)
	}
	record, err = svc.Record(ctx, "user-1")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if record.Metrics.Stability != 5 || record.Metrics.Mastery != 6 || record.Metrics.Engagement != 7 {
		t.Errorf("unexpected metrics after tool session: %+v", record.Metrics)
	}
	if len(record.Sessions) != 2 {
		t.Errorf("expected 2 sessions, got %d", len(record.Sessions))
	}
	if len(record.ActiveTools) != 1 || record.ActiveTools[0] != "respiración diafragmática" {
		t.Errorf("unexpected active tools: %v", record.ActiveTools)
	}
}

func TestRecordSessionToolsDeduplicated(t *testing.T) {
	svc := NewTherapeuticService(repository.NewInMemoryStore().Therapeutic())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.RecordSession(ctx, "user-2", "tristeza", 5, []string{"diario emocional"}); err != nil {
			t.Fatalf("RecordSession failed: %v", err)
		}
	}

	record, err := svc.Record(ctx, "user-2")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if len(record.ActiveTools) != 1 {
		t.Errorf("expected deduplicated tools, got %v", record.ActiveTools)
	}
}
