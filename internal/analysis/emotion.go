package analysis

import (
	"log"
	"regexp"
	"strings"
)

// EmotionResult is the output of the emotion classifier. Primary is empty
// when no category matched; it is never nil-like downstream because every
// consumer treats "" as neutral.
type EmotionResult struct {
	Primary            string   `json:"primary"`
	Intensity          int      `json:"intensity"` // 1-10
	Secondary          []string `json:"secondary,omitempty"`
	Urgent             bool     `json:"urgent"`
	SuggestedResponses []string `json:"suggested_responses,omitempty"`
	SuggestedTools     []string `json:"suggested_tools,omitempty"`
}

// NeutralEmotion is the absorbed-failure default: any internal error in the
// classifier yields this instead of propagating.
func NeutralEmotion() EmotionResult {
	return EmotionResult{Primary: "neutral", Intensity: 5, Urgent: false}
}

// responseBank holds the canned response fragments attached to an emotion
// category, keyed by use (validation, exploration, support, technique).
type responseBank struct {
	Validation  []string
	Exploration []string
	Support     []string
	Technique   []string
}

// emotionCategory is one entry of the fixed registry. Primary decides the
// match; High/Medium override the base intensity when present.
type emotionCategory struct {
	Name    string
	Primary *regexp.Regexp
	High    *regexp.Regexp
	Medium  *regexp.Regexp
	Bank    responseBank
	Tools   []string
}

const (
	baseIntensity   = 6
	highIntensity   = 8
	mediumIntensity = 5
	urgencyBoost    = 3
)

// emotionRegistry is evaluated strictly in declaration order; the first
// matching category is the primary emotion, later matches accumulate as
// secondary. The order is the priority order.
var emotionRegistry = []emotionCategory{
	{
		Name:    "tristeza",
		Primary: regexp.MustCompile(`(?i)\b(triste|tristeza|deprimid[oa]|desanimad[oa]|decaíd[oa]|llorar|llorando|vacío|sin ganas)\b`),
		High:    regexp.MustCompile(`(?i)\b(muy triste|destrozad[oa]|devastad[oa]|no puedo más|profundamente)\b`),
		Medium:  regexp.MustCompile(`(?i)\b(un poco|algo|medio|ligeramente)\b`),
		Bank: responseBank{
			Validation:  []string{"Siento que estés pasando por esto.", "Es comprensible sentirse así."},
			Exploration: []string{"¿Desde cuándo te sientes así?", "¿Hubo algo que lo desencadenara?"},
			Support:     []string{"No estás sol@ en esto.", "Estoy aquí contigo."},
			Technique:   []string{"¿Probamos un ejercicio de registro emocional?"},
		},
		Tools: []string{"diario emocional", "activación conductual"},
	},
	{
		Name:    "ansiedad",
		Primary: regexp.MustCompile(`(?i)\b(ansios[oa]|ansiedad|nervios[oa]|preocupad[oa]|agobiad[oa]|estresad[oa]|no puedo parar de pensar)\b`),
		High:    regexp.MustCompile(`(?i)\b(pánico|ataque|no puedo respirar|me ahogo|insoportable)\b`),
		Medium:  regexp.MustCompile(`(?i)\b(un poco|algo|medio|ligeramente)\b`),
		Bank: responseBank{
			Validation:  []string{"La ansiedad puede ser muy intensa.", "Tiene sentido que tu cuerpo reaccione así."},
			Exploration: []string{"¿Qué pensamiento aparece justo antes?", "¿En qué parte del cuerpo lo notas?"},
			Support:     []string{"Vamos paso a paso.", "Ahora mismo estás a salvo."},
			Technique:   []string{"¿Hacemos una respiración 4-7-8 juntos?"},
		},
		Tools: []string{"respiración diafragmática", "grounding 5-4-3-2-1"},
	},
	{
		Name:    "enojo",
		Primary: regexp.MustCompile(`(?i)\b(enojad[oa]|enfadad[oa]|furios[oa]|rabia|ira|molest[oa]|harto|harta)\b`),
		High:    regexp.MustCompile(`(?i)\b(explotar|no aguanto|odio|furia)\b`),
		Medium:  regexp.MustCompile(`(?i)\b(un poco|algo|medio|ligeramente)\b`),
		Bank: responseBank{
			Validation:  []string{"El enojo también informa de algo importante.", "Es válido sentir rabia."},
			Exploration: []string{"¿Qué límite sientes que se cruzó?", "¿Hacia quién o qué va dirigido?"},
			Support:     []string{"Podemos darle un lugar a ese enojo sin que te dañe."},
			Technique:   []string{"¿Probamos el tiempo fuera de 10 minutos?"},
		},
		Tools: []string{"tiempo fuera", "descarga física segura"},
	},
	{
		Name:    "miedo",
		Primary: regexp.MustCompile(`(?i)\b(miedo|asustad[oa]|aterrad[oa]|temor|me da pánico|inseguridad)\b`),
		High:    regexp.MustCompile(`(?i)\b(terror|paralizad[oa]|pánico)\b`),
		Medium:  regexp.MustCompile(`(?i)\b(un poco|algo|medio|ligeramente)\b`),
		Bank: responseBank{
			Validation:  []string{"El miedo intenta protegerte, aunque pese."},
			Exploration: []string{"¿Qué es lo peor que imaginas que podría pasar?"},
			Support:     []string{"No tienes que enfrentarlo de golpe."},
			Technique:   []string{"¿Dividimos eso que asusta en pasos pequeños?"},
		},
		Tools: []string{"exposición gradual", "anclaje al presente"},
	},
	{
		Name:    "alegria",
		Primary: regexp.MustCompile(`(?i)\b(feliz|content[oa]|alegr[ée]|emocionad[oa]|genial|motivad[oa]|agradecid[oa])\b`),
		High:    regexp.MustCompile(`(?i)\b(felicísim[oa]|eufóric[oa]|increíble)\b`),
		Medium:  regexp.MustCompile(`(?i)\b(un poco|algo|medio|ligeramente)\b`),
		Bank: responseBank{
			Validation:  []string{"¡Qué bueno leerte así!", "Se nota tu energía."},
			Exploration: []string{"¿Qué lo hizo posible?", "¿Cómo podrías repetirlo?"},
			Support:     []string{"Celebremos ese logro."},
			Technique:   []string{"¿Lo anotamos en tu registro de momentos buenos?"},
		},
		Tools: []string{"registro de gratitud", "saboreo"},
	},
	{
		Name:    "soledad",
		Primary: regexp.MustCompile(`(?i)\b(sol[oa]|soledad|aislad[oa]|nadie me entiende|abandonad[oa])\b`),
		High:    regexp.MustCompile(`(?i)\b(completamente sol[oa]|nadie|siempre sol[oa])\b`),
		Medium:  regexp.MustCompile(`(?i)\b(un poco|algo|medio|ligeramente)\b`),
		Bank: responseBank{
			Validation:  []string{"La soledad duele, y tiene sentido que duela."},
			Exploration: []string{"¿Qué tipo de compañía echas de menos?"},
			Support:     []string{"Aquí tienes un espacio donde sí se te escucha."},
			Technique:   []string{"¿Pensamos en un contacto pequeño para esta semana?"},
		},
		Tools: []string{"mapa de vínculos", "micro-contactos"},
	},
	{
		Name:    "confusion",
		Primary: regexp.MustCompile(`(?i)\b(confundid[oa]|perdid[oa]|no sé qué hacer|bloquead[oa]|dudas?)\b`),
		High:    regexp.MustCompile(`(?i)\b(totalmente perdid[oa]|colapsad[oa])\b`),
		Medium:  regexp.MustCompile(`(?i)\b(un poco|algo|medio|ligeramente)\b`),
		Bank: responseBank{
			Validation:  []string{"Estar en duda también es parte del proceso."},
			Exploration: []string{"¿Qué opciones ves ahora mismo, aunque sean borrosas?"},
			Support:     []string{"No hace falta decidirlo todo hoy."},
			Technique:   []string{"¿Hacemos una lista de pros y contras breve?"},
		},
		Tools: []string{"clarificación de valores", "matriz de decisión"},
	},
	{
		Name:    "culpa",
		Primary: regexp.MustCompile(`(?i)\b(culpa|culpable|me arrepiento|no debí|por mi culpa|vergüenza)\b`),
		High:    regexp.MustCompile(`(?i)\b(no me lo perdono|imperdonable)\b`),
		Medium:  regexp.MustCompile(`(?i)\b(un poco|algo|medio|ligeramente)\b`),
		Bank: responseBank{
			Validation:  []string{"La culpa pesa, sobre todo cuando te exiges tanto."},
			Exploration: []string{"¿Qué le dirías a un amigo que hubiera hecho lo mismo?"},
			Support:     []string{"Equivocarse no te define."},
			Technique:   []string{"¿Probamos el ejercicio del doble estándar?"},
		},
		Tools: []string{"autocompasión", "reparación concreta"},
	},
}

// urgencyPattern marks messages that need immediate care regardless of the
// matched category.
var urgencyPattern = regexp.MustCompile(`(?i)\b(urgente|emergencia|ayuda urgente|ya no aguanto|no puedo más|crisis|hacerme daño|lastimarme)\b`)

// amplifierWords each add +1 to the intensity (clamped at 10).
var amplifierWords = []string{"muy", "mucho", "muchísimo", "demasiado", "siempre", "nunca", "todo el tiempo", "insoportable"}

// DetectEmotion classifies the primary emotion and intensity of a message.
// Registry order is priority order: the first matching category wins, later
// matches accumulate as secondary emotions. Never returns an error; any
// internal failure is absorbed into the neutral default.
func DetectEmotion(text string) (result EmotionResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️  [ANALYSIS] emotion classifier recovered: %v", r)
			result = NeutralEmotion()
		}
	}()

	if strings.TrimSpace(text) == "" {
		return NeutralEmotion()
	}
	lower := strings.ToLower(text)

	result = EmotionResult{Intensity: baseIntensity}
	for _, cat := range emotionRegistry {
		if !cat.Primary.MatchString(lower) {
			continue
		}
		if result.Primary == "" {
			result.Primary = cat.Name
			result.SuggestedResponses = suggestedFromBank(cat.Bank)
			result.SuggestedTools = cat.Tools
			switch {
			case cat.High.MatchString(lower):
				result.Intensity = highIntensity
			case cat.Medium.MatchString(lower):
				result.Intensity = mediumIntensity
			}
		} else {
			result.Secondary = append(result.Secondary, cat.Name)
		}
	}

	if urgencyPattern.MatchString(lower) {
		result.Urgent = true
		result.Intensity += urgencyBoost
	}
	for _, w := range amplifierWords {
		if strings.Contains(lower, w) {
			result.Intensity++
		}
	}
	if result.Intensity > 10 {
		result.Intensity = 10
	}
	if result.Intensity < 1 {
		result.Intensity = 1
	}
	return result
}

// suggestedFromBank flattens one phrase per use so the prompt composer gets
// a small, varied set.
func suggestedFromBank(b responseBank) []string {
	var out []string
	for _, group := range [][]string{b.Validation, b.Exploration, b.Support, b.Technique} {
		if len(group) > 0 {
			out = append(out, group[0])
		}
	}
	return out
}
