package services

import (
	"context"
	"log"
	"regexp"
	"strings"

	"serena/internal/models"
)

// Theme buckets scanned over the recent window.
var themePatterns = map[string]*regexp.Regexp{
	"emotional":    regexp.MustCompile(`(?i)(triste|ansie|miedo|enoj|soledad|llorar|culpa|emocion)`),
	"relational":   regexp.MustCompile(`(?i)(pareja|familia|amig|relación|novi|madre|padre|herman)`),
	"occupational": regexp.MustCompile(`(?i)(trabajo|jefe|oficina|estudi|examen|universidad|carrera)`),
}

var instabilityPattern = regexp.MustCompile(`(?i)(no puedo|no aguanto|insoportable|desesper|sin control|me desbord)`)

var resourcePattern = regexp.MustCompile(`(?i)(respir|medit|diario|ejercicio|técnica|herramienta|practiqué|intenté lo que)`)

// ConversationStateService derives ephemeral dialogue state from the recent
// message window. The window lives in Redis as a best-effort cache; when the
// cache is cold or down the state degrades to the initial default.
type ConversationStateService struct {
	cache *RedisService
}

func NewConversationStateService(cache *RedisService) *ConversationStateService {
	return &ConversationStateService{cache: cache}
}

// Observe pushes the inbound message into the user's recent window.
// Cache failures are logged and dropped.
func (s *ConversationStateService) Observe(ctx context.Context, userID, content string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.PushRecentMessage(ctx, userID, content); err != nil {
		log.Printf("⚠️  [STATE] Failed to cache recent message for %s: %v", userID, err)
	}
}

// Current recomputes the conversation state from the cached recent window.
func (s *ConversationStateService) Current(ctx context.Context, userID string) models.ConversationState {
	if s.cache == nil {
		return models.DefaultConversationState()
	}
	history, err := s.cache.RecentMessages(ctx, userID)
	if err != nil {
		log.Printf("⚠️  [STATE] Falling back to initial state for %s: %v", userID, err)
		return models.DefaultConversationState()
	}
	return DeriveConversationState(history)
}

// DeriveConversationState computes the state from the recent messages.
// Fewer than three messages always yields the initial default.
func DeriveConversationState(history []string) models.ConversationState {
	if len(history) < 3 {
		return models.DefaultConversationState()
	}

	window := history
	if len(window) > 5 {
		window = window[:5]
	}
	joined := strings.ToLower(strings.Join(window, "\n"))

	var themes []string
	for _, name := range []string{"emotional", "relational", "occupational"} {
		if themePatterns[name].MatchString(joined) {
			themes = append(themes, name)
		}
	}

	instability := len(instabilityPattern.FindAllString(joined, -1))
	resourceMentions := len(resourcePattern.FindAllString(joined, -1))

	state := models.ConversationState{
		RecurringThemes:       themes,
		NeedsReframing:        instability > 2,
		NeedsStabilization:    instability > 3,
		NeedsResourceBuilding: resourceMentions < 2,
	}
	if state.RecurringThemes == nil {
		state.RecurringThemes = []string{}
	}

	switch {
	case len(history) <= 3:
		state.Phase = models.PhaseInitial
	case len(themes) >= 2:
		state.Phase = models.PhaseExploration
	case resourceMentions > 0:
		state.Phase = models.PhaseToolLearning
	default:
		state.Phase = models.PhaseFollowUp
	}

	switch {
	case resourceMentions > 2:
		state.ProgressLabel = "applying tools"
	case len(themes) > 0:
		state.ProgressLabel = "identifying patterns"
	default:
		state.ProgressLabel = "exploring"
	}

	return state
}
