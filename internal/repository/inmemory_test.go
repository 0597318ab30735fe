package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"serena/internal/models"
)

func TestMemoryWindowEvictsOldest(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	for i := 0; i < models.MemoryWindowCap+5; i++ {
		rec := models.InteractionRecord{
			Timestamp:  time.Now(),
			Emotion:    fmt.Sprintf("emotion-%d", i),
			Intensity:  5,
			TimeBucket: models.BucketMorning,
		}
		if err := store.AppendInteraction(ctx, "user-1", rec); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	mem, err := store.GetOrCreate(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(mem.Window) != models.MemoryWindowCap {
		t.Fatalf("expected window of %d, got %d", models.MemoryWindowCap, len(mem.Window))
	}
	// FIFO: the 5 oldest records are gone.
	if mem.Window[0].Emotion != "emotion-5" {
		t.Fatalf("expected oldest surviving record emotion-5, got %q", mem.Window[0].Emotion)
	}
	if mem.BucketCounts[models.BucketMorning] != int64(models.MemoryWindowCap+5) {
		t.Fatalf("bucket counts must survive eviction, got %d", mem.BucketCounts[models.BucketMorning])
	}
}

func TestMemoryGetOrCreateIdempotent(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	first, err := store.GetOrCreate(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.GetOrCreate(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same document, got %s and %s", first.ID.Hex(), second.ID.Hex())
	}
	if len(first.Window) != 0 {
		t.Fatalf("new store must have empty window, got %d", len(first.Window))
	}
}

func TestGetOrCreateReturnsDetachedCopies(t *testing.T) {
	store := NewInMemoryStore()
	profiles := store.Profiles()
	ctx := context.Background()

	rec := models.InteractionRecord{Timestamp: time.Now(), Emotion: "tristeza", Intensity: 5, TimeBucket: models.BucketMorning}
	if err := store.AppendInteraction(ctx, "user-1", rec); err != nil {
		t.Fatal(err)
	}
	if _, err := profiles.GetOrCreate(ctx, "user-1"); err != nil {
		t.Fatal(err)
	}
	if err := profiles.ApplyObservation(ctx, "user-1", ProfileUpdate{Topic: "EMOTIONAL", Period: "mañana"}); err != nil {
		t.Fatal(err)
	}

	// Mutating the returned maps must not leak into the stored documents.
	mem, err := store.GetOrCreate(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	mem.BucketCounts[models.BucketMorning] = 99

	profile, err := profiles.GetOrCreate(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	profile.TopicCounts["EMOTIONAL"] = 99
	profile.PeriodCounts["mañana"] = 99

	mem, err = store.GetOrCreate(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if mem.BucketCounts[models.BucketMorning] != 1 {
		t.Fatalf("stored bucket counts must be unaffected, got %d", mem.BucketCounts[models.BucketMorning])
	}

	profile, err = profiles.GetOrCreate(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if profile.TopicCounts["EMOTIONAL"] != 1 || profile.PeriodCounts["mañana"] != 1 {
		t.Fatalf("stored profile counts must be unaffected, got %+v", profile)
	}
}

func TestProfileRollingHistories(t *testing.T) {
	store := NewInMemoryStore()
	profiles := store.Profiles()
	ctx := context.Background()

	profile, err := profiles.GetOrCreate(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if profile.Style != models.StyleEmpatico || profile.ResponseLength != models.LengthMedium {
		t.Fatalf("unexpected defaults: %+v", profile)
	}

	for i := 0; i < models.ProfileHistoryCap+3; i++ {
		upd := ProfileUpdate{
			Emotion: fmt.Sprintf("emotion-%d", i),
			Topic:   "WORK_STUDY",
			Period:  "mañana",
		}
		if err := profiles.ApplyObservation(ctx, "user-1", upd); err != nil {
			t.Fatal(err)
		}
	}

	profile, err = profiles.GetOrCreate(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(profile.EmotionHistory) != models.ProfileHistoryCap {
		t.Fatalf("expected history of %d, got %d", models.ProfileHistoryCap, len(profile.EmotionHistory))
	}
	if profile.EmotionHistory[0] != "emotion-3" {
		t.Fatalf("expected oldest surviving entry emotion-3, got %q", profile.EmotionHistory[0])
	}
	if profile.TopicCounts["WORK_STUDY"] != int64(models.ProfileHistoryCap+3) {
		t.Fatalf("topic counts must not be capped, got %d", profile.TopicCounts["WORK_STUDY"])
	}
	if profile.PeriodCounts["mañana"] != int64(models.ProfileHistoryCap+3) {
		t.Fatalf("period counts must not be capped, got %d", profile.PeriodCounts["mañana"])
	}
}

func TestProgressAppendIncrementsSessions(t *testing.T) {
	store := NewInMemoryStore()
	progress := store.Progress()
	ctx := context.Background()

	empty, err := progress.Get(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if empty.TotalSessions != 0 || len(empty.Entries) != 0 {
		t.Fatalf("expected empty log for unknown user, got %+v", empty)
	}

	for i := 0; i < 3; i++ {
		entry := models.ProgressEntry{
			Timestamp:   time.Now(),
			MainEmotion: "tristeza",
			Intensity:   6,
		}
		if err := progress.AppendEntry(ctx, "user-1", entry); err != nil {
			t.Fatal(err)
		}
	}

	log, err := progress.Get(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if log.TotalSessions != 3 {
		t.Fatalf("expected 3 sessions, got %d", log.TotalSessions)
	}
	if len(log.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(log.Entries))
	}
}

func TestGoalsAbandonIdle(t *testing.T) {
	store := NewInMemoryStore()
	goals := store.Goals()
	ctx := context.Background()

	stale := &models.Goal{UserID: "user-1", Description: "meditar a diario"}
	if err := goals.Create(ctx, stale); err != nil {
		t.Fatal(err)
	}
	done := &models.Goal{UserID: "user-1", Description: "dormir mejor", Status: models.GoalCompleted}
	if err := goals.Create(ctx, done); err != nil {
		t.Fatal(err)
	}

	// Everything created above is newer than a past cutoff.
	n, err := goals.AbandonIdleSince(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("expected no goals abandoned, got %d", n)
	}

	// A future cutoff makes the pending goal idle; completed goals are untouched.
	n, err = goals.AbandonIdleSince(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 goal abandoned, got %d", n)
	}

	listed, err := goals.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	for _, g := range listed {
		switch g.Description {
		case "meditar a diario":
			if g.Status != models.GoalAbandoned {
				t.Fatalf("expected abandoned, got %q", g.Status)
			}
		case "dormir mejor":
			if g.Status != models.GoalCompleted {
				t.Fatalf("completed goal must keep its status, got %q", g.Status)
			}
		}
	}
}

func TestTherapeuticDefaultsAndAppend(t *testing.T) {
	store := NewInMemoryStore()
	repo := store.Therapeutic()
	ctx := context.Background()

	record, err := repo.GetOrCreate(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if record.Metrics.Stability != 5 || record.Metrics.Mastery != 5 || record.Metrics.Engagement != 5 {
		t.Fatalf("expected midpoint metrics, got %+v", record.Metrics)
	}
	if record.CurrentStatus != "inicio" {
		t.Fatalf("expected status inicio, got %q", record.CurrentStatus)
	}

	session := models.TherapeuticSession{
		Timestamp: time.Now(),
		Emotion:   "ansiedad",
		ToolsUsed: []string{"respiración 4-7-8"},
	}
	metrics := models.TherapeuticMetrics{Stability: 6, Mastery: 5, Engagement: 7}
	if err := repo.AppendSession(ctx, "user-1", session, "progresando", []string{"respiración 4-7-8"}, metrics); err != nil {
		t.Fatal(err)
	}

	record, err = repo.GetOrCreate(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(record.Sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(record.Sessions))
	}
	if record.CurrentStatus != "progresando" {
		t.Fatalf("expected status progresando, got %q", record.CurrentStatus)
	}
	if record.Metrics != metrics {
		t.Fatalf("expected metrics %+v, got %+v", metrics, record.Metrics)
	}
}

func TestRepliesListRecent(t *testing.T) {
	store := NewInMemoryStore()
	repo := store.Replies()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		reply := &models.Reply{
			ReplyID: fmt.Sprintf("reply-%d", i),
			UserID:  "user-1",
			Content: fmt.Sprintf("respuesta %d", i),
		}
		if err := repo.Insert(ctx, reply); err != nil {
			t.Fatal(err)
		}
		if reply.ID.IsZero() {
			t.Fatal("insert must assign an id")
		}
	}

	recent, err := repo.ListRecent(ctx, "user-1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 replies, got %d", len(recent))
	}
	if recent[0].ReplyID != "reply-4" {
		t.Fatalf("expected newest first, got %q", recent[0].ReplyID)
	}
}
