package analysis

import (
	"regexp"
)

// Cognitive dimensions.
const (
	DimensionThoughts  = "thoughts"
	DimensionBeliefs   = "beliefs"
	DimensionBehaviors = "behaviors"
)

// cognitivePattern is one category inside a dimension. Unlike the emotion
// and intent registries, every pattern runs: the detector reports all
// matches, not just the first.
type cognitivePattern struct {
	Dimension string
	Category  string
	Pattern   *regexp.Regexp
}

var cognitiveRegistry = []cognitivePattern{
	// Thought distortions
	{DimensionThoughts, "catastrophizing", regexp.MustCompile(`(?i)(todo va a salir mal|va a ser un desastre|lo peor|nunca va a mejorar|se acabó todo)`)},
	{DimensionThoughts, "overgeneralization", regexp.MustCompile(`(?i)(siempre me pasa|nunca me sale|todo el mundo|nadie me|todas las veces)`)},
	{DimensionThoughts, "personalization", regexp.MustCompile(`(?i)(es mi culpa|por mi culpa|yo lo arruiné|si yo hubiera)`)},
	{DimensionThoughts, "dichotomous", regexp.MustCompile(`(?i)(todo o nada|o perfecto o nada|blanco o negro|si no es perfecto)`)},
	// Core beliefs
	{DimensionBeliefs, "self_esteem", regexp.MustCompile(`(?i)(no valgo|soy un fracaso|no sirvo|no soy suficiente|soy inútil)`)},
	{DimensionBeliefs, "expectations", regexp.MustCompile(`(?i)(debería poder|tengo que ser|no puedo fallar|debo hacerlo perfecto)`)},
	{DimensionBeliefs, "relational", regexp.MustCompile(`(?i)(nadie me quiere|me van a abandonar|no le importo a nadie|van a dejarme)`)},
	// Behavioral patterns
	{DimensionBehaviors, "avoidance", regexp.MustCompile(`(?i)(prefiero no|lo evito|no quiero enfrentar|lo dejo para después|me escondo)`)},
	{DimensionBehaviors, "support_seeking", regexp.MustCompile(`(?i)(necesito hablar|busco ayuda|quiero apoyo|puedes ayudarme)`)},
	{DimensionBehaviors, "coping", regexp.MustCompile(`(?i)(respiré hondo|salí a caminar|escribí en mi diario|medité|hice ejercicio)`)},
}

// CognitiveResult maps dimension -> category -> matched substrings. An
// empty result is a valid, non-error outcome.
type CognitiveResult struct {
	Matches map[string]map[string][]string `json:"matches,omitempty"`
}

// Empty reports whether no pattern matched.
func (r CognitiveResult) Empty() bool {
	return len(r.Matches) == 0
}

// Flags flattens the result to category -> matched substrings for storage
// on an interaction record.
func (r CognitiveResult) Flags() map[string][]string {
	if r.Empty() {
		return nil
	}
	flags := make(map[string][]string)
	for _, categories := range r.Matches {
		for category, matched := range categories {
			flags[category] = append(flags[category], matched...)
		}
	}
	return flags
}

// DetectCognitivePatterns runs every pattern over the text and records all
// matches grouped by dimension and category.
func DetectCognitivePatterns(text string) CognitiveResult {
	result := CognitiveResult{}
	if text == "" {
		return result
	}
	for _, p := range cognitiveRegistry {
		matched := p.Pattern.FindAllString(text, -1)
		if len(matched) == 0 {
			continue
		}
		if result.Matches == nil {
			result.Matches = make(map[string]map[string][]string)
		}
		if result.Matches[p.Dimension] == nil {
			result.Matches[p.Dimension] = make(map[string][]string)
		}
		result.Matches[p.Dimension][p.Category] = append(result.Matches[p.Dimension][p.Category], matched...)
	}
	return result
}
