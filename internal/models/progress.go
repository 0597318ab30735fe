package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Goal statuses.
const (
	GoalPending    = "pendiente"
	GoalInProgress = "en_progreso"
	GoalCompleted  = "completado"
	GoalAbandoned  = "abandonado"
)

// ProgressEntry is an append-only emotional-state snapshot taken after each
// processed message.
type ProgressEntry struct {
	Timestamp        time.Time `bson:"timestamp" json:"timestamp"`
	MainEmotion      string    `bson:"mainEmotion" json:"main_emotion"`
	Intensity        int       `bson:"intensity" json:"intensity"` // clamped 1-10
	Topic            string    `bson:"topic,omitempty" json:"topic,omitempty"`
	Triggers         []string  `bson:"triggers,omitempty" json:"triggers,omitempty"`
	CopingStrategies []string  `bson:"copingStrategies,omitempty" json:"coping_strategies,omitempty"`
	Insights         []string  `bson:"insights,omitempty" json:"insights,omitempty"`
	Phase            string    `bson:"phase,omitempty" json:"phase,omitempty"`
	Urgent           bool      `bson:"urgent" json:"urgent"`
}

// ProgressLog is the per-user progress document. Entries are append-only;
// TotalSessions increments by exactly one per recorded entry.
type ProgressLog struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        string             `bson:"userId" json:"user_id"`
	Entries       []ProgressEntry    `bson:"entries" json:"entries"`
	TotalSessions int64              `bson:"totalSessions" json:"total_sessions"`
	CreatedAt     time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updated_at"`
}

// Goal is a user wellness goal. Progress is 0-100 and monotonic unless
// explicitly reset; goals are soft-stated, never deleted.
type Goal struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"userId" json:"user_id"`
	Description string             `bson:"description" json:"description"`
	Progress    int                `bson:"progress" json:"progress"` // 0-100
	Status      string             `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updated_at"`
}

// TherapeuticSession is one session log line inside a TherapeuticRecord.
type TherapeuticSession struct {
	Timestamp    time.Time `bson:"timestamp" json:"timestamp"`
	Emotion      string    `bson:"emotion" json:"emotion"`
	ToolsUsed    []string  `bson:"toolsUsed,omitempty" json:"tools_used,omitempty"`
	ProgressNote string    `bson:"progressNote,omitempty" json:"progress_note,omitempty"`
}

// TherapeuticMetrics are the 1-10 clamped longitudinal metrics.
type TherapeuticMetrics struct {
	Stability  int `bson:"stability" json:"stability"`
	Mastery    int `bson:"mastery" json:"mastery"`
	Engagement int `bson:"engagement" json:"engagement"`
}

// TherapeuticRecord is the per-user therapeutic history document.
type TherapeuticRecord struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID        string               `bson:"userId" json:"user_id"`
	Sessions      []TherapeuticSession `bson:"sessions" json:"sessions"`
	CurrentStatus string               `bson:"currentStatus" json:"current_status"`
	ActiveTools   []string             `bson:"activeTools" json:"active_tools"`
	Metrics       TherapeuticMetrics   `bson:"metrics" json:"metrics"`
	CreatedAt     time.Time            `bson:"createdAt" json:"created_at"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updated_at"`
}

// DefaultTherapeuticRecord seeds a new user's record at the scale midpoint.
func DefaultTherapeuticRecord(userID string) *TherapeuticRecord {
	now := time.Now()
	return &TherapeuticRecord{
		UserID:        userID,
		Sessions:      []TherapeuticSession{},
		CurrentStatus: "inicio",
		ActiveTools:   []string{},
		Metrics:       TherapeuticMetrics{Stability: 5, Mastery: 5, Engagement: 5},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
