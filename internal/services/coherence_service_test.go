package services

import (
	"context"
	"strings"
	"testing"

	"serena/internal/analysis"
)

func TestValidateReplacesUnusableReplies(t *testing.T) {
	svc := NewCoherenceService(newTestRedis(t))
	ctx := context.Background()
	emotion := analysis.EmotionResult{Primary: "tristeza", Intensity: 5}

	tests := []struct {
		name  string
		reply string
	}{
		{"too short", "ok"},
		{"model speak", "Como modelo de lenguaje no tengo emociones, pero entiendo tu punto de vista."},
		{"bare filler", "entiendo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, replaced := svc.Validate(ctx, "user-1", tt.reply, emotion)
			if !replaced {
				t.Fatalf("expected replacement for %q", tt.reply)
			}
			if got != fallbackReplyByEmotion["tristeza"] {
				t.Fatalf("expected tristeza fallback, got %q", got)
			}
		})
	}
}

func TestValidateRejectsRepeatedReply(t *testing.T) {
	redis := newTestRedis(t)
	svc := NewCoherenceService(redis)
	ctx := context.Background()

	reply := "Gracias por contármelo, la tristeza que describes merece espacio y tiempo."
	if err := redis.SetLastReply(ctx, "user-1", reply); err != nil {
		t.Fatal(err)
	}

	got, replaced := svc.Validate(ctx, "user-1", reply, analysis.EmotionResult{Primary: "tristeza", Intensity: 5})
	if !replaced {
		t.Fatal("expected identical consecutive reply to be replaced")
	}
	if got == reply {
		t.Fatal("replacement must differ from the repeated reply")
	}

	// Same text for a different user passes through.
	_, replaced = svc.Validate(ctx, "user-2", reply, analysis.EmotionResult{Primary: "tristeza", Intensity: 5})
	if replaced {
		t.Fatal("other users are unaffected by the cache entry")
	}
}

func TestValidateRejectsRepeatedAdjustedReply(t *testing.T) {
	redis := newTestRedis(t)
	svc := NewCoherenceService(redis)
	ctx := context.Background()
	emotion := analysis.EmotionResult{Primary: "tristeza", Intensity: 8}

	// High intensity prepends the containment prefix before sending.
	raw := "La tristeza que traes hoy merece espacio, estoy aquí para escucharte."
	first, replaced := svc.Validate(ctx, "user-1", raw, emotion)
	if replaced {
		t.Fatalf("first reply must pass through, got %q", first)
	}
	if !strings.HasPrefix(first, containmentPrefix) {
		t.Fatalf("expected containment prefix, got %q", first)
	}

	// The adjusted text is what gets cached after the reply is persisted.
	if err := redis.SetLastReply(ctx, "user-1", first); err != nil {
		t.Fatal(err)
	}

	// The same raw generation adjusts to the same final text and must be
	// replaced, not sent twice in a row.
	second, replaced := svc.Validate(ctx, "user-1", raw, emotion)
	if !replaced {
		t.Fatalf("expected repeated adjusted reply to be replaced, got %q", second)
	}
	if second == first {
		t.Fatal("replacement must differ from the repeated reply")
	}
}

func TestValidatePrependsEmotionalAcknowledgment(t *testing.T) {
	svc := NewCoherenceService(newTestRedis(t))
	ctx := context.Background()

	reply := "Cuéntame qué pasó hoy en el trabajo y cómo terminó la reunión."
	got, replaced := svc.Validate(ctx, "user-1", reply, analysis.EmotionResult{Primary: "ansiedad", Intensity: 5})
	if replaced {
		t.Fatal("expected adjustment, not replacement")
	}
	if !strings.HasPrefix(got, emotionLexicon["ansiedad"].Ack) {
		t.Fatalf("expected ansiedad acknowledgment prefix, got %q", got)
	}

	// A reply already touching the emotion is left alone.
	coherent := "La ansiedad que sientes antes de las reuniones es muy común, respira antes de entrar."
	got, replaced = svc.Validate(ctx, "user-1", coherent, analysis.EmotionResult{Primary: "ansiedad", Intensity: 5})
	if replaced || got != coherent {
		t.Fatalf("coherent reply must pass unchanged, got %q", got)
	}
}

func TestValidateIntensityPrefixes(t *testing.T) {
	svc := NewCoherenceService(newTestRedis(t))
	ctx := context.Background()

	coherent := "La tristeza que traes hoy merece espacio, estoy aquí para escucharte."

	high, _ := svc.Validate(ctx, "user-1", coherent, analysis.EmotionResult{Primary: "tristeza", Intensity: 8})
	if !strings.HasPrefix(high, containmentPrefix) {
		t.Fatalf("expected containment prefix at intensity 8, got %q", high)
	}

	low, _ := svc.Validate(ctx, "user-1", coherent, analysis.EmotionResult{Primary: "tristeza", Intensity: 2})
	if !strings.HasPrefix(low, explorationPrefix) {
		t.Fatalf("expected exploration prefix at intensity 2, got %q", low)
	}

	mid, _ := svc.Validate(ctx, "user-1", coherent, analysis.EmotionResult{Primary: "tristeza", Intensity: 5})
	if mid != coherent {
		t.Fatalf("expected untouched reply at intensity 5, got %q", mid)
	}
}

func TestFallbackReplyVariants(t *testing.T) {
	if FallbackReply("ansiedad", false) != fallbackReplyByEmotion["ansiedad"] {
		t.Fatal("expected emotion-specific fallback")
	}
	if FallbackReply("neutral", false) != fallbackReplyDefault {
		t.Fatal("expected default fallback for unmapped emotion")
	}
	if !strings.Contains(FallbackReply("tristeza", true), "ayuda inmediata") {
		t.Fatal("urgent fallback must carry the safety wording")
	}
}
