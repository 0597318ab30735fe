package analysis

import (
	"log"
	"regexp"
	"strings"
)

// Intent categories, highest priority first.
const (
	IntentCrisis           = "CRISIS"
	IntentEmotionalHelp    = "EMOTIONAL_HELP"
	IntentImportantConsult = "IMPORTANT_CONSULT"
	IntentGeneral          = "GENERAL"
)

// Topic categories.
const (
	TopicEmotional     = "EMOTIONAL"
	TopicRelationships = "RELATIONSHIPS"
	TopicWorkStudy     = "WORK_STUDY"
	TopicHealth        = "HEALTH"
	TopicGeneral       = "GENERAL"
)

// Urgency levels.
const (
	UrgencyNormal = "NORMAL"
	UrgencyHigh   = "HIGH"
)

const (
	matchedConfidence = 0.8
	defaultConfidence = 0.5
)

// IntentResult is the joined output of both registries plus the urgency test.
type IntentResult struct {
	Intent           string  `json:"intent"`
	IntentConfidence float64 `json:"intent_confidence"`
	RequiresFollowUp bool    `json:"requires_follow_up"`
	Topic            string  `json:"topic"`
	TopicConfidence  float64 `json:"topic_confidence"`
	Urgency          string  `json:"urgency"`
}

// DefaultIntent is the absorbed-failure / no-match default.
func DefaultIntent() IntentResult {
	return IntentResult{
		Intent:           IntentGeneral,
		IntentConfidence: defaultConfidence,
		Topic:            TopicGeneral,
		TopicConfidence:  defaultConfidence,
		Urgency:          UrgencyNormal,
	}
}

type patternCategory struct {
	Name    string
	Pattern *regexp.Regexp
}

// intentRegistry is evaluated in declaration order; first match wins.
// CRISIS must stay first: it shadows every other intent.
var intentRegistry = []patternCategory{
	{Name: IntentCrisis, Pattern: regexp.MustCompile(`(?i)\b(crisis|emergencia|ayuda urgente|urgente|no quiero vivir|hacerme daño|lastimarme|no puedo más)\b`)},
	{Name: IntentEmotionalHelp, Pattern: regexp.MustCompile(`(?i)\b(me siento|estoy mal|necesito hablar|necesito ayuda|desahogarme|apoyo emocional)\b`)},
	{Name: IntentImportantConsult, Pattern: regexp.MustCompile(`(?i)\b(qué hago|debería|consejo|decisión|no sé si|qué opinas)\b`)},
	{Name: IntentGeneral, Pattern: regexp.MustCompile(`(?i)\b(hola|buenas|cómo estás|gracias|cuéntame)\b`)},
}

// followUpIntents are the intents that require a follow-up touchpoint.
var followUpIntents = map[string]bool{
	IntentCrisis:        true,
	IntentEmotionalHelp: true,
}

// topicRegistry is evaluated in declaration order; first match wins.
var topicRegistry = []patternCategory{
	{Name: TopicEmotional, Pattern: regexp.MustCompile(`(?i)\b(triste|ansiedad|ansios[oa]|miedo|enojad[oa]|soledad|emocion|llorar|culpa)\b`)},
	{Name: TopicRelationships, Pattern: regexp.MustCompile(`(?i)\b(pareja|familia|amig[oa]s?|relación|novi[oa]|madre|padre|herman[oa])\b`)},
	{Name: TopicWorkStudy, Pattern: regexp.MustCompile(`(?i)\b(trabajo|jefe|oficina|estudi(o|ar)|examen|universidad|carrera|proyecto)\b`)},
	{Name: TopicHealth, Pattern: regexp.MustCompile(`(?i)\b(dormir|insomnio|salud|enferm[oa]|dolor|cansad[oa]|energía|comer)\b`)},
}

var urgencyWords = regexp.MustCompile(`(?i)\b(urgente|ya|ahora mismo|inmediatamente|no aguanto|emergencia)\b`)

// DetectIntent runs both registries independently over the text. A failure
// in either registry falls back to its default without affecting the other.
func DetectIntent(text string) IntentResult {
	result := DefaultIntent()
	if strings.TrimSpace(text) == "" {
		return result
	}
	lower := strings.ToLower(text)

	result.Intent, result.IntentConfidence = matchRegistry(lower, intentRegistry, IntentGeneral)
	result.RequiresFollowUp = followUpIntents[result.Intent]
	result.Topic, result.TopicConfidence = matchRegistry(lower, topicRegistry, TopicGeneral)

	if urgencyWords.MatchString(lower) {
		result.Urgency = UrgencyHigh
	}
	return result
}

// matchRegistry returns the first matching category, absorbing panics from
// individual patterns into the registry's default.
func matchRegistry(lower string, registry []patternCategory, fallback string) (name string, confidence float64) {
	name, confidence = fallback, defaultConfidence
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️  [ANALYSIS] intent registry recovered: %v", r)
			name, confidence = fallback, defaultConfidence
		}
	}()
	for _, cat := range registry {
		if cat.Pattern.MatchString(lower) {
			return cat.Name, matchedConfidence
		}
	}
	return name, confidence
}
