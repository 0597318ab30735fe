package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Time-of-day buckets for interaction records. Fixed, non-overlapping:
// [5,12) morning, [12,18) afternoon, [18,22) evening, everything else late night.
const (
	BucketMorning   = "morning"
	BucketAfternoon = "afternoon"
	BucketEvening   = "evening"
	BucketLateNight = "late_night"
)

// TimeBucket classifies an hour of day into a fixed bucket.
func TimeBucket(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return BucketMorning
	case hour >= 12 && hour < 18:
		return BucketAfternoon
	case hour >= 18 && hour < 22:
		return BucketEvening
	default:
		return BucketLateNight
	}
}

// InteractionRecord is a single ledger item in a user's memory window.
// Immutable once appended.
type InteractionRecord struct {
	Timestamp    time.Time           `bson:"timestamp" json:"timestamp"`
	Emotion      string              `bson:"emotion" json:"emotion"`
	Intensity    int                 `bson:"intensity" json:"intensity"` // clamped 1-10
	PatternFlags map[string][]string `bson:"patternFlags,omitempty" json:"pattern_flags,omitempty"`
	TimeBucket   string              `bson:"timeBucket" json:"time_bucket"`
}

// MemoryWindowCap bounds the per-user interaction ledger. The 51st append
// evicts the oldest record (FIFO).
const MemoryWindowCap = 50

// MemoryStore is the per-user bounded interaction ledger document.
type MemoryStore struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID       string              `bson:"userId" json:"user_id"`
	Window       []InteractionRecord `bson:"window" json:"window"`
	BucketCounts map[string]int64    `bson:"bucketCounts" json:"bucket_counts"`
	LastUpdate   time.Time           `bson:"lastUpdate" json:"last_update"`
	CreatedAt    time.Time           `bson:"createdAt" json:"created_at"`
}

// EmotionalTrend summarizes the recent emotional trajectory of a user.
type EmotionalTrend struct {
	Latest         string         `json:"latest"`
	History        []string       `json:"history"`
	HighIntensity  int            `json:"high_intensity"` // records with intensity >= 7
	LowIntensity   int            `json:"low_intensity"`  // records with intensity <= 3
	Fluctuation    []int          `json:"fluctuation"`    // intensity sequence, oldest first
	DominantCounts map[string]int `json:"dominant_counts"`
}

// CopingStrategy pairs a strategy with its observed effectiveness.
type CopingStrategy struct {
	Name          string  `json:"name"`
	Effectiveness float64 `json:"effectiveness"` // 0.0-1.0
}

// EmotionalProfile is the derived longitudinal view of a user's emotions.
type EmotionalProfile struct {
	Predominant  []string                  `json:"predominant"`
	Frequency    map[string]int            `json:"frequency"`
	ByTimeBucket map[string]map[string]int `json:"by_time_bucket"` // bucket -> emotion -> count
	Triggers     []string                  `json:"triggers"`
	Coping       []CopingStrategy          `json:"coping"`
}

// RelevantContext is what the memory aggregator hands to the rest of the
// pipeline. Every field is always non-nil; a failed read yields
// DefaultRelevantContext, never an error.
type RelevantContext struct {
	Trend            EmotionalTrend      `json:"trend"`
	PatternHistory   map[string][]string `json:"pattern_history"` // category -> matched sub-patterns
	BucketFrequency  map[string]int64    `json:"bucket_frequency"`
	Profile          EmotionalProfile    `json:"profile"`
	InteractionCount int                 `json:"interaction_count"`
}

// DefaultRelevantContext is the neutral context used when the memory store
// is unreachable or the user has no history yet.
func DefaultRelevantContext() RelevantContext {
	return RelevantContext{
		Trend: EmotionalTrend{
			Latest:         "neutral",
			History:        []string{},
			Fluctuation:    []int{},
			DominantCounts: map[string]int{},
		},
		PatternHistory:  map[string][]string{},
		BucketFrequency: map[string]int64{},
		Profile: EmotionalProfile{
			Predominant:  []string{},
			Frequency:    map[string]int{},
			ByTimeBucket: map[string]map[string]int{},
			Triggers:     []string{},
			Coping:       []CopingStrategy{},
		},
	}
}

// ClampIntensity bounds an intensity value to the 1-10 scale used everywhere.
func ClampIntensity(v int) int {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}
