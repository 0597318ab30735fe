package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"serena/internal/models"
)

// ProfileUpdate is a partial mutation applied to a personalization profile
// after an interaction. Empty fields are left untouched.
type ProfileUpdate struct {
	Style          string
	ResponseLength string
	Emotion        string // appended to the rolling emotion history
	Topic          string // appended to the rolling topic history and counted
	Period         string // day period counter to increment
	Quality        string
}

// MemoryRepository owns the per-user bounded interaction ledger.
type MemoryRepository interface {
	// GetOrCreate returns the user's ledger, creating an empty one on first
	// access. Concurrent calls for the same user never create duplicates.
	GetOrCreate(ctx context.Context, userID string) (*models.MemoryStore, error)
	// AppendInteraction appends one record, evicting the oldest when the
	// window exceeds models.MemoryWindowCap.
	AppendInteraction(ctx context.Context, userID string, rec models.InteractionRecord) error
}

// ProfileRepository owns the per-user personalization profile.
type ProfileRepository interface {
	GetOrCreate(ctx context.Context, userID string) (*models.PersonalizationProfile, error)
	ApplyObservation(ctx context.Context, userID string, upd ProfileUpdate) error
}

// ProgressRepository owns the append-only per-user progress log.
type ProgressRepository interface {
	Get(ctx context.Context, userID string) (*models.ProgressLog, error)
	// AppendEntry appends one entry and increments totalSessions by exactly one.
	AppendEntry(ctx context.Context, userID string, entry models.ProgressEntry) error
}

// GoalRepository owns user wellness goals. Goals are never deleted.
type GoalRepository interface {
	Create(ctx context.Context, goal *models.Goal) error
	ListByUser(ctx context.Context, userID string) ([]models.Goal, error)
	UpdateProgress(ctx context.Context, id primitive.ObjectID, progress int, status string) error
	// AbandonIdleSince marks pending and in-progress goals untouched since
	// the cutoff as abandoned, returning how many were updated.
	AbandonIdleSince(ctx context.Context, cutoff time.Time) (int64, error)
}

// TherapeuticRepository owns the per-user therapeutic history.
type TherapeuticRepository interface {
	GetOrCreate(ctx context.Context, userID string) (*models.TherapeuticRecord, error)
	AppendSession(ctx context.Context, userID string, session models.TherapeuticSession, status string, tools []string, metrics models.TherapeuticMetrics) error
}

// ReplyRepository persists generated replies.
type ReplyRepository interface {
	Insert(ctx context.Context, reply *models.Reply) error
	ListRecent(ctx context.Context, userID string, limit int64) ([]models.Reply, error)
}
