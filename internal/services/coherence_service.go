package services

import (
	"context"
	"log"
	"regexp"
	"strings"

	"serena/internal/analysis"
)

// minReplyRunes is the floor below which a generated reply is unusable.
const minReplyRunes = 20

// Model-speak and filler that never reaches the user.
var genericPhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?i)como (modelo de lenguaje|inteligencia artificial|una ia)`),
	regexp.MustCompile(`(?i)no puedo (ayudarte|responder) (a|con) eso`),
	regexp.MustCompile(`(?i)soy (solo|sólo) un asistente`),
	regexp.MustCompile(`(?i)^(entiendo|comprendo)\.?$`),
	regexp.MustCompile(`(?i)lamento (escuchar|oír) eso\.?$`),
}

// emotionLexicon holds the words a coherent reply to each emotion should
// touch, and the acknowledgment prepended when it touches none of them.
var emotionLexicon = map[string]struct {
	Words []string
	Ack   string
}{
	"tristeza":  {Words: []string{"triste", "pena", "dolor", "pesar"}, Ack: "Siento que estés cargando con esta tristeza. "},
	"ansiedad":  {Words: []string{"ansiedad", "ansios", "calma", "respir"}, Ack: "Noto la ansiedad en lo que cuentas. "},
	"enojo":     {Words: []string{"enojo", "rabia", "molest", "frustra"}, Ack: "Tiene sentido que esto te genere enojo. "},
	"miedo":     {Words: []string{"miedo", "temor", "segur"}, Ack: "El miedo que describes es comprensible. "},
	"alegria":   {Words: []string{"alegr", "celebr", "disfrut"}, Ack: "Me alegra leerte así. "},
	"soledad":   {Words: []string{"soledad", "solo", "acompañ"}, Ack: "La soledad pesa, y no tienes que llevarla en silencio. "},
	"confusion": {Words: []string{"confus", "aclarar", "ordenar"}, Ack: "Es válido sentirse así de confundido. "},
	"culpa":     {Words: []string{"culpa", "compasi", "perdon"}, Ack: "La culpa que mencionas merece una mirada amable. "},
}

const (
	containmentPrefix = "Estoy contigo; vamos paso a paso. "
	explorationPrefix = "Gracias por compartirlo, cuéntame un poco más. "
)

// Local fallbacks per emotion, with a neutral default.
var fallbackReplyByEmotion = map[string]string{
	"tristeza": "Siento que estés pasando por un momento triste. Estoy aquí para escucharte, ¿quieres contarme qué lo hizo más pesado hoy?",
	"ansiedad": "Noto que hay mucha ansiedad en este momento. Probemos algo pequeño: inhala 4 segundos, sostén 7 y exhala 8, y cuéntame cómo te sientes después.",
	"enojo":    "Se nota que esto te enoja, y es válido. Si te sirve, cuéntame qué fue lo que más te molestó para mirarlo juntas.",
	"soledad":  "Sentirse en soledad es duro. Aquí estoy contigo; cuéntame cómo ha sido tu día.",
}

const fallbackReplyDefault = "Estoy aquí contigo. Cuéntame un poco más de lo que está pasando, te leo con calma."

// safetyFallbackReply is used when generation fails on a crisis-flagged message.
const safetyFallbackReply = "Lo que sientes ahora importa y no tienes que atravesarlo en soledad. " +
	"Si estás en peligro o piensas hacerte daño, busca ayuda inmediata: contacta a la línea de " +
	"emergencias o de apoyo emocional de tu país, o acude a alguien de confianza cerca de ti. " +
	"Estoy aquí contigo mientras tanto."

// CoherenceService validates and adjusts generated replies. It is a pure
// text transform; the only I/O is the best-effort last-reply lookup.
type CoherenceService struct {
	cache *RedisService
}

func NewCoherenceService(cache *RedisService) *CoherenceService {
	return &CoherenceService{cache: cache}
}

// Validate returns the reply to send and whether the generated one was
// replaced by a local fallback. No second model call is ever made.
// The repetition check runs on the adjusted text: adjust is deterministic,
// so identical raw generations also produce identical final replies.
func (s *CoherenceService) Validate(ctx context.Context, userID, reply string, emotion analysis.EmotionResult) (string, bool) {
	if isLowQuality(reply) {
		coherenceReplacements.Inc()
		return FallbackReply(emotion.Primary, false), true
	}

	adjusted := s.adjust(reply, emotion)
	if s.repeatsLastReply(ctx, userID, adjusted) {
		coherenceReplacements.Inc()
		return FallbackReply(emotion.Primary, false), true
	}
	return adjusted, false
}

func isLowQuality(reply string) bool {
	trimmed := strings.TrimSpace(reply)
	if len([]rune(trimmed)) < minReplyRunes {
		return true
	}
	for _, pattern := range genericPhrases {
		if pattern.MatchString(trimmed) {
			return true
		}
	}
	return false
}

// repeatsLastReply compares the final outgoing text against the cached
// previous reply, which is stored post-adjustment by PersistReply.
func (s *CoherenceService) repeatsLastReply(ctx context.Context, userID, adjusted string) bool {
	if s.cache == nil {
		return false
	}
	previous, err := s.cache.LastReply(ctx, userID)
	if err != nil {
		log.Printf("⚠️  [COHERENCE] Last-reply lookup failed for %s: %v", userID, err)
		return false
	}
	return previous != "" && strings.EqualFold(strings.TrimSpace(previous), adjusted)
}

func (s *CoherenceService) adjust(reply string, emotion analysis.EmotionResult) string {
	adjusted := strings.TrimSpace(reply)

	if lex, ok := emotionLexicon[emotion.Primary]; ok {
		lower := strings.ToLower(adjusted)
		found := false
		for _, word := range lex.Words {
			if strings.Contains(lower, word) {
				found = true
				break
			}
		}
		if !found {
			adjusted = lex.Ack + adjusted
		}
	}

	switch {
	case emotion.Intensity >= 7:
		adjusted = containmentPrefix + adjusted
	case emotion.Intensity <= 3:
		adjusted = explorationPrefix + adjusted
	}

	return adjusted
}

// FallbackReply is the fixed local reply for a failed or rejected
// generation. The safety variant is used for urgent messages.
func FallbackReply(primaryEmotion string, urgent bool) string {
	if urgent {
		return safetyFallbackReply
	}
	if reply, ok := fallbackReplyByEmotion[primaryEmotion]; ok {
		return reply
	}
	return fallbackReplyDefault
}
