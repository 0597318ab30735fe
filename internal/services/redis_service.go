package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	lastReplyTTL     = 24 * time.Hour
	recentWindowTTL  = time.Hour
	recentWindowSize = 5
)

// RedisService is the best-effort cache shared by the coherence validator
// (last reply per user) and the conversation state tracker (recent message
// window). Every caller treats a cache miss and a cache failure the same way.
type RedisService struct {
	client *redis.Client
}

// NewRedisService connects to Redis using a redis:// URL.
func NewRedisService(redisURL string) (*RedisService, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Printf("✅ [REDIS] Connected to %s", opts.Addr)
	return &RedisService{client: client}, nil
}

func lastReplyKey(userID string) string    { return "serena:last_reply:" + userID }
func recentWindowKey(userID string) string { return "serena:recent:" + userID }

// SetLastReply remembers the latest assistant reply for the repetition check.
func (s *RedisService) SetLastReply(ctx context.Context, userID, content string) error {
	return s.client.Set(ctx, lastReplyKey(userID), content, lastReplyTTL).Err()
}

// LastReply returns the cached previous reply, or "" when absent.
func (s *RedisService) LastReply(ctx context.Context, userID string) (string, error) {
	value, err := s.client.Get(ctx, lastReplyKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// PushRecentMessage adds a message to the user's recent window, newest first.
func (s *RedisService) PushRecentMessage(ctx context.Context, userID, content string) error {
	key := recentWindowKey(userID)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, content)
	pipe.LTrim(ctx, key, 0, recentWindowSize-1)
	pipe.Expire(ctx, key, recentWindowTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// RecentMessages returns up to the last five user messages, newest first.
func (s *RedisService) RecentMessages(ctx context.Context, userID string) ([]string, error) {
	return s.client.LRange(ctx, recentWindowKey(userID), 0, recentWindowSize-1).Result()
}

// Ping checks the connection.
func (s *RedisService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client.
func (s *RedisService) Close() error {
	return s.client.Close()
}
