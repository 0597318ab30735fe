package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Communication styles. Stored as Spanish strings because the product copy
// and the decision tables are Spanish-first.
const (
	StyleEmpatico     = "empático"
	StyleDirecto      = "directo"
	StyleExploratorio = "exploratorio"
	StyleEstructurado = "estructurado"
)

// Response length preferences.
const (
	LengthShort  = "SHORT"
	LengthMedium = "MEDIUM"
	LengthLong   = "LONG"
)

// ProfileHistoryCap bounds the rolling counters kept on a profile
// (temporal / emotional / topical, last 10 each).
const ProfileHistoryCap = 10

// PersonalizationProfile is the per-user communication preference document.
// Created lazily with defaults on first interaction; never duplicated.
type PersonalizationProfile struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         string             `bson:"userId" json:"user_id"`
	Style          string             `bson:"style" json:"style"`
	ResponseLength string             `bson:"responseLength" json:"response_length"`

	PreferredTopics []string `bson:"preferredTopics,omitempty" json:"preferred_topics,omitempty"`
	AvoidedTopics   []string `bson:"avoidedTopics,omitempty" json:"avoided_topics,omitempty"`

	// Rolling histories, last 10 each (FIFO via $push + $slice).
	EmotionHistory []string `bson:"emotionHistory" json:"emotion_history"`
	TopicHistory   []string `bson:"topicHistory" json:"topic_history"`

	PeriodCounts map[string]int64 `bson:"periodCounts" json:"period_counts"` // day period -> interactions
	TopicCounts  map[string]int64 `bson:"topicCounts" json:"topic_counts"`

	LastQuality string    `bson:"lastQuality,omitempty" json:"last_quality,omitempty"`
	CreatedAt   time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updated_at"`
}

// DefaultPersonalizationProfile returns the profile seeded for a new user.
func DefaultPersonalizationProfile(userID string) *PersonalizationProfile {
	now := time.Now()
	return &PersonalizationProfile{
		UserID:         userID,
		Style:          StyleEmpatico,
		ResponseLength: LengthMedium,
		EmotionHistory: []string{},
		TopicHistory:   []string{},
		PeriodCounts:   map[string]int64{},
		TopicCounts:    map[string]int64{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// InteractionObservation is what the pipeline feeds back into the
// personalization engine after each message.
type InteractionObservation struct {
	Emotion         string `json:"emotion"`
	Topic           string `json:"topic"`
	InteractionType string `json:"interaction_type"`
	ResponseQuality string `json:"response_quality"`
}

// DayPeriod describes one of the five fixed periods of the day and the
// response bias attached to it.
type DayPeriod struct {
	Name        string `json:"name"`
	FromHour    int    `json:"from_hour"`
	ToHour      int    `json:"to_hour"` // inclusive
	Energy      string `json:"energy"`
	Depth       string `json:"depth"`
	IdealLength string `json:"ideal_length"`
	Tone        string `json:"tone"`
}

// DayPeriods is the fixed five-period table. Evaluated in order; hours
// outside every range fall back to the last entry (noche).
var DayPeriods = []DayPeriod{
	{Name: "madrugada", FromHour: 0, ToHour: 5, Energy: "baja", Depth: "profunda", IdealLength: LengthShort, Tone: "calmado"},
	{Name: "mañana", FromHour: 6, ToHour: 11, Energy: "alta", Depth: "ligera", IdealLength: LengthMedium, Tone: "motivador"},
	{Name: "mediodía", FromHour: 12, ToHour: 14, Energy: "media", Depth: "ligera", IdealLength: LengthShort, Tone: "práctico"},
	{Name: "tarde", FromHour: 15, ToHour: 18, Energy: "media", Depth: "media", IdealLength: LengthMedium, Tone: "reflexivo"},
	{Name: "noche", FromHour: 19, ToHour: 23, Energy: "baja", Depth: "profunda", IdealLength: LengthLong, Tone: "cercano"},
}

// PeriodForHour returns the fixed day period covering the given hour.
func PeriodForHour(hour int) DayPeriod {
	for _, p := range DayPeriods {
		if hour >= p.FromHour && hour <= p.ToHour {
			return p
		}
	}
	return DayPeriods[len(DayPeriods)-1]
}
