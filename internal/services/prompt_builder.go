package services

import (
	"fmt"
	"strings"

	"serena/internal/analysis"
	"serena/internal/models"
)

// ChatMessage is one turn in the chat-completions payload.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationPolicy fixes sampling and length for one reply.
type GenerationPolicy struct {
	Temperature      float64
	MaxTokens        int
	Length           string
	PresencePenalty  float64
	FrequencyPenalty float64
}

// Penalty pairs per tier. Crisis replies skip both: clarity over variety.
const (
	defaultPresencePenalty  = 0.3
	defaultFrequencyPenalty = 0.3
)

// Token budgets per length tier.
var lengthBudgets = map[string]int{
	models.LengthShort:  120,
	models.LengthMedium: 300,
	models.LengthLong:   600,
}

// PolicyFor keys the generation policy on urgency and intent.
func PolicyFor(urgent bool, intent string, content string) GenerationPolicy {
	if urgent {
		// Careful, complete answers for crisis-flagged messages.
		return GenerationPolicy{Temperature: 0.3, MaxTokens: lengthBudgets[models.LengthLong], Length: models.LengthLong}
	}

	policy := GenerationPolicy{
		Temperature:      0.7,
		PresencePenalty:  defaultPresencePenalty,
		FrequencyPenalty: defaultFrequencyPenalty,
	}
	switch {
	case intent == analysis.IntentEmotionalHelp:
		policy.Length = models.LengthMedium
	case intent == analysis.IntentGeneral && isGreetingLike(content):
		policy.Length = models.LengthShort
	default:
		policy.Length = models.LengthShort
	}
	policy.MaxTokens = lengthBudgets[policy.Length]
	return policy
}

func isGreetingLike(content string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(content))
	for _, prefix := range []string{"hola", "buenas", "buenos días", "qué tal", "hey"} {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

// PromptInput carries everything the composer needs for one reply.
type PromptInput struct {
	Message   models.Message
	Emotion   analysis.EmotionResult
	Intent    analysis.IntentResult
	Context   models.RelevantContext
	Plan      ResponsePlan
	State     models.ConversationState
	LastReply string
}

// BuildMessages composes the sectioned system directive plus the auxiliary
// turns for the chat-completions call.
func BuildMessages(input PromptInput) []ChatMessage {
	var sys strings.Builder

	sys.WriteString("Eres Serena, una acompañante emocional cálida y concreta. Responde siempre en español.\n\n")

	period := input.Plan.Period
	sys.WriteString(fmt.Sprintf("## Momento del día\nEs de %s: energía %s, profundidad %s, tono %s.\n\n",
		period.Name, period.Energy, period.Depth, period.Tone))

	sys.WriteString("## Estado emocional\n")
	if input.Emotion.Primary != "" && input.Emotion.Primary != "neutral" {
		sys.WriteString(fmt.Sprintf("Emoción detectada: %s (intensidad %d/10).\n", input.Emotion.Primary, input.Emotion.Intensity))
		if len(input.Emotion.Secondary) > 0 {
			sys.WriteString(fmt.Sprintf("Emociones secundarias: %s.\n", strings.Join(input.Emotion.Secondary, ", ")))
		}
	} else {
		sys.WriteString("Sin emoción dominante detectada.\n")
	}
	if latest := input.Context.Trend.Latest; latest != "" && latest != "neutral" {
		sys.WriteString(fmt.Sprintf("Tendencia reciente: %s.\n", latest))
	}
	sys.WriteString("\n")

	if len(input.State.RecurringThemes) > 0 {
		sys.WriteString(fmt.Sprintf("## Temas recurrentes\n%s.\n\n", strings.Join(input.State.RecurringThemes, ", ")))
	}

	sys.WriteString(fmt.Sprintf("## Estilo\nEstilo preferido: %s. Longitud objetivo: %s. Fase de la conversación: %s (%s).\n",
		input.Plan.Style, strings.ToLower(input.Plan.Length), input.State.Phase, input.State.ProgressLabel))
	if input.State.NeedsStabilization {
		sys.WriteString("Prioriza estabilizar antes de explorar.\n")
	} else if input.State.NeedsReframing {
		sys.WriteString("Ofrece un reencuadre amable de los pensamientos rígidos.\n")
	} else if input.State.NeedsResourceBuilding {
		sys.WriteString("Introduce una herramienta sencilla de regulación cuando encaje.\n")
	}
	if lastQuality := lastInteractionSummary(input.Context); lastQuality != "" {
		sys.WriteString(lastQuality)
	}

	messages := []ChatMessage{{Role: "system", Content: sys.String()}}

	if input.LastReply != "" {
		messages = append(messages, ChatMessage{Role: "assistant", Content: input.LastReply})
	}

	messages = append(messages, ChatMessage{Role: "user", Content: input.Message.Content})

	if input.Emotion.Urgent || input.Intent.Intent == analysis.IntentCrisis {
		messages = append(messages, ChatMessage{
			Role: "system",
			Content: "La persona puede estar en crisis. Valida sin minimizar, sugiere una acción " +
				"inmediata y concreta de cuidado y recuérdale que puede buscar ayuda profesional o " +
				"una línea de apoyo de su país.",
		})
	}

	return messages
}

func lastInteractionSummary(rc models.RelevantContext) string {
	n := len(rc.Trend.History)
	if n < 2 {
		return ""
	}
	previous := rc.Trend.History[n-2]
	if previous == "" || previous == "neutral" {
		return ""
	}
	return fmt.Sprintf("En la interacción anterior predominó %s.\n", previous)
}
