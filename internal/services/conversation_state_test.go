package services

import (
	"context"
	"testing"

	"serena/internal/models"
)

func TestDeriveConversationState_NewUser(t *testing.T) {
	for _, history := range [][]string{nil, {}, {"hola"}, {"hola", "estoy bien"}} {
		state := DeriveConversationState(history)
		if state.Phase != models.PhaseInitial {
			t.Fatalf("history %v: expected INITIAL, got %q", history, state.Phase)
		}
		if !state.NeedsResourceBuilding {
			t.Fatalf("history %v: new users must need resource building", history)
		}
		if state.NeedsReframing || state.NeedsStabilization {
			t.Fatalf("history %v: no other needs expected", history)
		}
		if state.ProgressLabel != "exploring" {
			t.Fatalf("history %v: expected exploring, got %q", history, state.ProgressLabel)
		}
	}
}

func TestDeriveConversationState_Exploration(t *testing.T) {
	history := []string{
		"me siento triste por mi trabajo",
		"mi jefe me hace sentir ansiedad",
		"discutí con mi pareja",
		"no sé qué hacer",
	}
	state := DeriveConversationState(history)
	if state.Phase != models.PhaseExploration {
		t.Fatalf("expected EXPLORATION with multiple themes, got %q", state.Phase)
	}
	if len(state.RecurringThemes) < 2 {
		t.Fatalf("expected at least 2 themes, got %v", state.RecurringThemes)
	}
	if state.ProgressLabel != "identifying patterns" {
		t.Fatalf("expected identifying patterns, got %q", state.ProgressLabel)
	}
}

func TestDeriveConversationState_ToolLearning(t *testing.T) {
	history := []string{
		"hoy practiqué la respiración",
		"la técnica me ayudó un rato",
		"quiero seguir con el diario",
		"ayer también usé la herramienta",
	}
	state := DeriveConversationState(history)
	if state.Phase != models.PhaseToolLearning {
		t.Fatalf("expected TOOL_LEARNING, got %q", state.Phase)
	}
	if state.NeedsResourceBuilding {
		t.Fatal("frequent resource mentions should clear resource building")
	}
	if state.ProgressLabel != "applying tools" {
		t.Fatalf("expected applying tools, got %q", state.ProgressLabel)
	}
}

func TestDeriveConversationState_Instability(t *testing.T) {
	history := []string{
		"no puedo con esto",
		"no aguanto la presión, es insoportable",
		"me siento desesperada",
		"todo sigue igual",
	}
	state := DeriveConversationState(history)
	if !state.NeedsReframing {
		t.Fatal("expected reframing need with repeated instability")
	}
	if !state.NeedsStabilization {
		t.Fatal("expected stabilization need with heavy instability")
	}
}

func TestCurrentFallsBackWhenCacheCold(t *testing.T) {
	svc := NewConversationStateService(newTestRedis(t))
	state := svc.Current(context.Background(), "unknown-user")
	if state.Phase != models.PhaseInitial {
		t.Fatalf("expected INITIAL for cold cache, got %q", state.Phase)
	}
}

func TestObserveThenCurrent(t *testing.T) {
	svc := NewConversationStateService(newTestRedis(t))
	ctx := context.Background()

	messages := []string{
		"me siento triste",
		"mi familia no me entiende",
		"el trabajo me agota",
		"sigo mal",
	}
	for _, m := range messages {
		svc.Observe(ctx, "user-1", m)
	}

	state := svc.Current(ctx, "user-1")
	if state.Phase != models.PhaseExploration {
		t.Fatalf("expected EXPLORATION, got %q", state.Phase)
	}
}
