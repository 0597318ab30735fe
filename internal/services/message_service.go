package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"serena/internal/models"
	"serena/internal/repository"
)

// MessageService persists generated replies and keeps the last one cached
// for the coherence repetition check.
type MessageService struct {
	repo  repository.ReplyRepository
	cache *RedisService
}

func NewMessageService(repo repository.ReplyRepository, cache *RedisService) *MessageService {
	return &MessageService{repo: repo, cache: cache}
}

// PersistReply stores the reply and refreshes the last-reply cache.
// The cache write is best effort.
func (s *MessageService) PersistReply(ctx context.Context, reply *models.Reply) error {
	if reply.ReplyID == "" {
		reply.ReplyID = uuid.NewString()
	}
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now()
	}

	if err := s.repo.Insert(ctx, reply); err != nil {
		return fmt.Errorf("failed to persist reply: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetLastReply(ctx, reply.UserID, reply.Content); err != nil {
			log.Printf("⚠️  [MESSAGES] Failed to cache last reply for %s: %v", reply.UserID, err)
		}
	}
	return nil
}

// RecentReplies returns the newest replies for a user.
func (s *MessageService) RecentReplies(ctx context.Context, userID string, limit int64) ([]models.Reply, error) {
	return s.repo.ListRecent(ctx, userID, limit)
}
