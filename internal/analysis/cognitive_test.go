package analysis

import "testing"

func TestDetectCognitivePatterns_Dimensions(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		dimension string
		category  string
	}{
		{"catastrophizing", "siento que todo va a salir mal", DimensionThoughts, "catastrophizing"},
		{"overgeneralization", "siempre me pasa lo mismo", DimensionThoughts, "overgeneralization"},
		{"personalization", "seguro que es mi culpa", DimensionThoughts, "personalization"},
		{"self esteem", "últimamente siento que no valgo nada", DimensionBeliefs, "self_esteem"},
		{"avoidance", "prefiero no pensar en eso, lo evito", DimensionBehaviors, "avoidance"},
		{"coping", "ayer respiré hondo y salí a caminar", DimensionBehaviors, "coping"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := DetectCognitivePatterns(tt.input)
			matched := res.Matches[tt.dimension][tt.category]
			if len(matched) == 0 {
				t.Fatalf("expected %s/%s match, got %+v", tt.dimension, tt.category, res.Matches)
			}
		})
	}
}

func TestDetectCognitivePatterns_EmptyIsValid(t *testing.T) {
	res := DetectCognitivePatterns("hoy fue un día normal")
	if !res.Empty() {
		t.Fatalf("expected empty result, got %+v", res.Matches)
	}
	if res.Flags() != nil {
		t.Fatal("empty result must flatten to nil flags")
	}
}

func TestDetectCognitivePatterns_MultipleDimensions(t *testing.T) {
	res := DetectCognitivePatterns("es mi culpa, no valgo nada y prefiero no hablar de eso")
	if len(res.Matches) != 3 {
		t.Fatalf("expected matches in 3 dimensions, got %d: %+v", len(res.Matches), res.Matches)
	}
	flags := res.Flags()
	if len(flags["personalization"]) == 0 || len(flags["self_esteem"]) == 0 || len(flags["avoidance"]) == 0 {
		t.Fatalf("flags missing categories: %+v", flags)
	}
}
