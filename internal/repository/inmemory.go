package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"serena/internal/models"
)

// InMemoryStore backs every repository interface with process-local maps.
// Used in tests and as a degraded mode when Mongo is unavailable at startup.
type InMemoryStore struct {
	mu          sync.RWMutex
	memories    map[string]*models.MemoryStore
	profiles    map[string]*models.PersonalizationProfile
	progress    map[string]*models.ProgressLog
	goals       map[primitive.ObjectID]*models.Goal
	therapeutic map[string]*models.TherapeuticRecord
	replies     map[string][]models.Reply
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		memories:    make(map[string]*models.MemoryStore),
		profiles:    make(map[string]*models.PersonalizationProfile),
		progress:    make(map[string]*models.ProgressLog),
		goals:       make(map[primitive.ObjectID]*models.Goal),
		therapeutic: make(map[string]*models.TherapeuticRecord),
		replies:     make(map[string][]models.Reply),
	}
}

// Memories returns the memory repository view of the store.
func (s *InMemoryStore) Memories() MemoryRepository { return s }

func (s *InMemoryStore) GetOrCreate(ctx context.Context, userID string) (*models.MemoryStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, ok := s.memories[userID]
	if !ok {
		now := time.Now()
		store = &models.MemoryStore{
			ID:           primitive.NewObjectID(),
			UserID:       userID,
			Window:       []models.InteractionRecord{},
			BucketCounts: map[string]int64{},
			LastUpdate:   now,
			CreatedAt:    now,
		}
		s.memories[userID] = store
	}
	copied := *store
	copied.Window = append([]models.InteractionRecord(nil), store.Window...)
	copied.BucketCounts = copyCounts(store.BucketCounts)
	return &copied, nil
}

func (s *InMemoryStore) AppendInteraction(ctx context.Context, userID string, rec models.InteractionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, ok := s.memories[userID]
	if !ok {
		now := time.Now()
		store = &models.MemoryStore{
			ID:           primitive.NewObjectID(),
			UserID:       userID,
			Window:       []models.InteractionRecord{},
			BucketCounts: map[string]int64{},
			CreatedAt:    now,
		}
		s.memories[userID] = store
	}

	store.Window = append(store.Window, rec)
	if len(store.Window) > models.MemoryWindowCap {
		store.Window = store.Window[len(store.Window)-models.MemoryWindowCap:]
	}
	store.BucketCounts[rec.TimeBucket]++
	store.LastUpdate = rec.Timestamp
	return nil
}

// Profiles returns the profile repository view of the store.
func (s *InMemoryStore) Profiles() ProfileRepository { return (*inMemoryProfiles)(s) }

type inMemoryProfiles InMemoryStore

func (s *inMemoryProfiles) GetOrCreate(ctx context.Context, userID string) (*models.PersonalizationProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[userID]
	if !ok {
		profile = models.DefaultPersonalizationProfile(userID)
		profile.ID = primitive.NewObjectID()
		s.profiles[userID] = profile
	}
	copied := *profile
	copied.EmotionHistory = append([]string(nil), profile.EmotionHistory...)
	copied.TopicHistory = append([]string(nil), profile.TopicHistory...)
	copied.PeriodCounts = copyCounts(profile.PeriodCounts)
	copied.TopicCounts = copyCounts(profile.TopicCounts)
	return &copied, nil
}

func (s *inMemoryProfiles) ApplyObservation(ctx context.Context, userID string, upd ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return nil
	}
	if upd.Style != "" {
		profile.Style = upd.Style
	}
	if upd.ResponseLength != "" {
		profile.ResponseLength = upd.ResponseLength
	}
	if upd.Quality != "" {
		profile.LastQuality = upd.Quality
	}
	if upd.Emotion != "" {
		profile.EmotionHistory = appendCapped(profile.EmotionHistory, upd.Emotion, models.ProfileHistoryCap)
	}
	if upd.Topic != "" {
		profile.TopicHistory = appendCapped(profile.TopicHistory, upd.Topic, models.ProfileHistoryCap)
		profile.TopicCounts[upd.Topic]++
	}
	if upd.Period != "" {
		profile.PeriodCounts[upd.Period]++
	}
	profile.UpdatedAt = time.Now()
	return nil
}

// copyCounts detaches a counter map from the stored document so callers
// never share state with writes happening under the mutex.
func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func appendCapped(history []string, value string, limit int) []string {
	history = append(history, value)
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	return history
}

// Progress returns the progress repository view of the store.
func (s *InMemoryStore) Progress() ProgressRepository { return (*inMemoryProgress)(s) }

type inMemoryProgress InMemoryStore

func (s *inMemoryProgress) Get(ctx context.Context, userID string) (*models.ProgressLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log, ok := s.progress[userID]
	if !ok {
		return &models.ProgressLog{UserID: userID, Entries: []models.ProgressEntry{}}, nil
	}
	copied := *log
	copied.Entries = append([]models.ProgressEntry(nil), log.Entries...)
	return &copied, nil
}

func (s *inMemoryProgress) AppendEntry(ctx context.Context, userID string, entry models.ProgressEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, ok := s.progress[userID]
	if !ok {
		log = &models.ProgressLog{
			ID:        primitive.NewObjectID(),
			UserID:    userID,
			Entries:   []models.ProgressEntry{},
			CreatedAt: time.Now(),
		}
		s.progress[userID] = log
	}
	log.Entries = append(log.Entries, entry)
	log.TotalSessions++
	log.UpdatedAt = entry.Timestamp
	return nil
}

// Goals returns the goal repository view of the store.
func (s *InMemoryStore) Goals() GoalRepository { return (*inMemoryGoals)(s) }

type inMemoryGoals InMemoryStore

func (s *inMemoryGoals) Create(ctx context.Context, goal *models.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if goal.Status == "" {
		goal.Status = models.GoalPending
	}
	goal.ID = primitive.NewObjectID()
	goal.CreatedAt = now
	goal.UpdatedAt = now
	copied := *goal
	s.goals[goal.ID] = &copied
	return nil
}

func (s *inMemoryGoals) ListByUser(ctx context.Context, userID string) ([]models.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var goals []models.Goal
	for _, g := range s.goals {
		if g.UserID == userID {
			goals = append(goals, *g)
		}
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].CreatedAt.After(goals[j].CreatedAt) })
	return goals, nil
}

func (s *inMemoryGoals) UpdateProgress(ctx context.Context, id primitive.ObjectID, progress int, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	goal, ok := s.goals[id]
	if !ok {
		return nil
	}
	goal.Progress = progress
	goal.Status = status
	goal.UpdatedAt = time.Now()
	return nil
}

func (s *inMemoryGoals) AbandonIdleSince(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, g := range s.goals {
		if g.Status != models.GoalPending && g.Status != models.GoalInProgress {
			continue
		}
		if g.UpdatedAt.Before(cutoff) {
			g.Status = models.GoalAbandoned
			g.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

// Therapeutic returns the therapeutic repository view of the store.
func (s *InMemoryStore) Therapeutic() TherapeuticRepository { return (*inMemoryTherapeutic)(s) }

type inMemoryTherapeutic InMemoryStore

func (s *inMemoryTherapeutic) GetOrCreate(ctx context.Context, userID string) (*models.TherapeuticRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.therapeutic[userID]
	if !ok {
		record = models.DefaultTherapeuticRecord(userID)
		record.ID = primitive.NewObjectID()
		s.therapeutic[userID] = record
	}
	copied := *record
	copied.Sessions = append([]models.TherapeuticSession(nil), record.Sessions...)
	copied.ActiveTools = append([]string(nil), record.ActiveTools...)
	return &copied, nil
}

func (s *inMemoryTherapeutic) AppendSession(ctx context.Context, userID string, session models.TherapeuticSession, status string, tools []string, metrics models.TherapeuticMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.therapeutic[userID]
	if !ok {
		record = models.DefaultTherapeuticRecord(userID)
		record.ID = primitive.NewObjectID()
		s.therapeutic[userID] = record
	}
	record.Sessions = append(record.Sessions, session)
	record.CurrentStatus = status
	record.ActiveTools = append([]string(nil), tools...)
	record.Metrics = metrics
	record.UpdatedAt = session.Timestamp
	return nil
}

// Replies returns the reply repository view of the store.
func (s *InMemoryStore) Replies() ReplyRepository { return (*inMemoryReplies)(s) }

type inMemoryReplies InMemoryStore

func (s *inMemoryReplies) Insert(ctx context.Context, reply *models.Reply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now()
	}
	reply.ID = primitive.NewObjectID()
	s.replies[reply.UserID] = append(s.replies[reply.UserID], *reply)
	return nil
}

func (s *inMemoryReplies) ListRecent(ctx context.Context, userID string, limit int64) ([]models.Reply, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.replies[userID]
	var recent []models.Reply
	for i := len(all) - 1; i >= 0 && int64(len(recent)) < limit; i-- {
		recent = append(recent, all[i])
	}
	return recent, nil
}
