package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"serena/internal/models"
)

// Collection names.
const (
	memoryCollection      = "memory_stores"
	profileCollection     = "personalization_profiles"
	progressCollection    = "progress_logs"
	goalCollection        = "goals"
	therapeuticCollection = "therapeutic_records"
	replyCollection       = "replies"
)

// MongoMemoryRepository is the Mongo-backed interaction ledger.
type MongoMemoryRepository struct {
	collection *mongo.Collection
}

func NewMongoMemoryRepository(db *mongo.Database) *MongoMemoryRepository {
	return &MongoMemoryRepository{collection: db.Collection(memoryCollection)}
}

func (r *MongoMemoryRepository) GetOrCreate(ctx context.Context, userID string) (*models.MemoryStore, error) {
	now := time.Now()
	filter := bson.M{"userId": userID}

	// Atomic upsert: concurrent first-access calls resolve to one document.
	update := bson.M{
		"$setOnInsert": bson.M{
			"userId":       userID,
			"window":       []models.InteractionRecord{},
			"bucketCounts": bson.M{},
			"lastUpdate":   now,
			"createdAt":    now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var store models.MemoryStore
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&store); err != nil {
		return nil, fmt.Errorf("failed to get or create memory store: %w", err)
	}
	return &store, nil
}

func (r *MongoMemoryRepository) AppendInteraction(ctx context.Context, userID string, rec models.InteractionRecord) error {
	filter := bson.M{"userId": userID}

	// $slice keeps the newest records: the 51st append drops the oldest.
	update := bson.M{
		"$push": bson.M{
			"window": bson.M{
				"$each":  []models.InteractionRecord{rec},
				"$slice": -models.MemoryWindowCap,
			},
		},
		"$inc": bson.M{
			"bucketCounts." + rec.TimeBucket: 1,
		},
		"$set": bson.M{
			"lastUpdate": rec.Timestamp,
		},
		"$setOnInsert": bson.M{
			"createdAt": time.Now(),
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to append interaction: %w", err)
	}
	return nil
}

// MongoProfileRepository is the Mongo-backed personalization profile store.
type MongoProfileRepository struct {
	collection *mongo.Collection
}

func NewMongoProfileRepository(db *mongo.Database) *MongoProfileRepository {
	return &MongoProfileRepository{collection: db.Collection(profileCollection)}
}

func (r *MongoProfileRepository) GetOrCreate(ctx context.Context, userID string) (*models.PersonalizationProfile, error) {
	now := time.Now()
	filter := bson.M{"userId": userID}

	update := bson.M{
		"$setOnInsert": bson.M{
			"userId":         userID,
			"style":          models.StyleEmpatico,
			"responseLength": models.LengthMedium,
			"emotionHistory": []string{},
			"topicHistory":   []string{},
			"periodCounts":   bson.M{},
			"topicCounts":    bson.M{},
			"createdAt":      now,
			"updatedAt":      now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var profile models.PersonalizationProfile
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to get or create profile: %w", err)
	}
	return &profile, nil
}

func (r *MongoProfileRepository) ApplyObservation(ctx context.Context, userID string, upd ProfileUpdate) error {
	filter := bson.M{"userId": userID}

	set := bson.M{"updatedAt": time.Now()}
	if upd.Style != "" {
		set["style"] = upd.Style
	}
	if upd.ResponseLength != "" {
		set["responseLength"] = upd.ResponseLength
	}
	if upd.Quality != "" {
		set["lastQuality"] = upd.Quality
	}
	update := bson.M{"$set": set}

	push := bson.M{}
	if upd.Emotion != "" {
		push["emotionHistory"] = bson.M{
			"$each":  []string{upd.Emotion},
			"$slice": -models.ProfileHistoryCap,
		}
	}
	if upd.Topic != "" {
		push["topicHistory"] = bson.M{
			"$each":  []string{upd.Topic},
			"$slice": -models.ProfileHistoryCap,
		}
	}
	if len(push) > 0 {
		update["$push"] = push
	}

	inc := bson.M{}
	if upd.Period != "" {
		inc["periodCounts."+upd.Period] = 1
	}
	if upd.Topic != "" {
		inc["topicCounts."+upd.Topic] = 1
	}
	if len(inc) > 0 {
		update["$inc"] = inc
	}

	if _, err := r.collection.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to apply profile observation: %w", err)
	}
	return nil
}

// MongoProgressRepository is the Mongo-backed progress log store.
type MongoProgressRepository struct {
	collection *mongo.Collection
}

func NewMongoProgressRepository(db *mongo.Database) *MongoProgressRepository {
	return &MongoProgressRepository{collection: db.Collection(progressCollection)}
}

func (r *MongoProgressRepository) Get(ctx context.Context, userID string) (*models.ProgressLog, error) {
	var progress models.ProgressLog
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&progress)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &models.ProgressLog{UserID: userID, Entries: []models.ProgressEntry{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load progress log: %w", err)
	}
	return &progress, nil
}

func (r *MongoProgressRepository) AppendEntry(ctx context.Context, userID string, entry models.ProgressEntry) error {
	filter := bson.M{"userId": userID}
	update := bson.M{
		"$push": bson.M{"entries": entry},
		"$inc":  bson.M{"totalSessions": 1},
		"$set":  bson.M{"updatedAt": entry.Timestamp},
		"$setOnInsert": bson.M{
			"createdAt": time.Now(),
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to append progress entry: %w", err)
	}
	return nil
}

// MongoGoalRepository is the Mongo-backed goal store.
type MongoGoalRepository struct {
	collection *mongo.Collection
}

func NewMongoGoalRepository(db *mongo.Database) *MongoGoalRepository {
	return &MongoGoalRepository{collection: db.Collection(goalCollection)}
}

func (r *MongoGoalRepository) Create(ctx context.Context, goal *models.Goal) error {
	now := time.Now()
	if goal.Status == "" {
		goal.Status = models.GoalPending
	}
	goal.CreatedAt = now
	goal.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, goal)
	if err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		goal.ID = oid
	}
	return nil
}

func (r *MongoGoalRepository) ListByUser(ctx context.Context, userID string) ([]models.Goal, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer cursor.Close(ctx)

	var goals []models.Goal
	if err := cursor.All(ctx, &goals); err != nil {
		return nil, fmt.Errorf("failed to decode goals: %w", err)
	}
	return goals, nil
}

func (r *MongoGoalRepository) UpdateProgress(ctx context.Context, id primitive.ObjectID, progress int, status string) error {
	update := bson.M{
		"$set": bson.M{
			"progress":  progress,
			"status":    status,
			"updatedAt": time.Now(),
		},
	}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("failed to update goal progress: %w", err)
	}
	return nil
}

func (r *MongoGoalRepository) AbandonIdleSince(ctx context.Context, cutoff time.Time) (int64, error) {
	filter := bson.M{
		"status":    bson.M{"$in": []string{models.GoalPending, models.GoalInProgress}},
		"updatedAt": bson.M{"$lt": cutoff},
	}
	update := bson.M{
		"$set": bson.M{
			"status":    models.GoalAbandoned,
			"updatedAt": time.Now(),
		},
	}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to abandon idle goals: %w", err)
	}
	return result.ModifiedCount, nil
}

// MongoTherapeuticRepository is the Mongo-backed therapeutic record store.
type MongoTherapeuticRepository struct {
	collection *mongo.Collection
}

func NewMongoTherapeuticRepository(db *mongo.Database) *MongoTherapeuticRepository {
	return &MongoTherapeuticRepository{collection: db.Collection(therapeuticCollection)}
}

func (r *MongoTherapeuticRepository) GetOrCreate(ctx context.Context, userID string) (*models.TherapeuticRecord, error) {
	now := time.Now()
	filter := bson.M{"userId": userID}

	update := bson.M{
		"$setOnInsert": bson.M{
			"userId":        userID,
			"sessions":      []models.TherapeuticSession{},
			"currentStatus": "inicio",
			"activeTools":   []string{},
			"metrics":       models.TherapeuticMetrics{Stability: 5, Mastery: 5, Engagement: 5},
			"createdAt":     now,
			"updatedAt":     now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var record models.TherapeuticRecord
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to get or create therapeutic record: %w", err)
	}
	return &record, nil
}

func (r *MongoTherapeuticRepository) AppendSession(ctx context.Context, userID string, session models.TherapeuticSession, status string, tools []string, metrics models.TherapeuticMetrics) error {
	filter := bson.M{"userId": userID}
	update := bson.M{
		"$push": bson.M{"sessions": session},
		"$set": bson.M{
			"currentStatus": status,
			"activeTools":   tools,
			"metrics":       metrics,
			"updatedAt":     session.Timestamp,
		},
		"$setOnInsert": bson.M{
			"createdAt": time.Now(),
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to append therapeutic session: %w", err)
	}
	return nil
}

// MongoReplyRepository is the Mongo-backed reply archive.
type MongoReplyRepository struct {
	collection *mongo.Collection
}

func NewMongoReplyRepository(db *mongo.Database) *MongoReplyRepository {
	return &MongoReplyRepository{collection: db.Collection(replyCollection)}
}

func (r *MongoReplyRepository) Insert(ctx context.Context, reply *models.Reply) error {
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now()
	}

	result, err := r.collection.InsertOne(ctx, reply)
	if err != nil {
		return fmt.Errorf("failed to insert reply: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		reply.ID = oid
	}
	return nil
}

func (r *MongoReplyRepository) ListRecent(ctx context.Context, userID string, limit int64) ([]models.Reply, error) {
	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	defer cursor.Close(ctx)

	var replies []models.Reply
	if err := cursor.All(ctx, &replies); err != nil {
		return nil, fmt.Errorf("failed to decode replies: %w", err)
	}
	return replies, nil
}
