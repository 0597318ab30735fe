package services

import (
	"context"
	"fmt"
	"log"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"serena/internal/models"
	"serena/internal/repository"
)

const (
	profileCacheTTL     = 5 * time.Minute
	profileCacheCleanup = 10 * time.Minute

	// Decision table thresholds.
	highIntensityFloor   = 7
	swingThreshold       = 4  // intensity jump that counts as instability
	frequentUserSessions = 20 // window size that reads as an established habit
)

// ResponsePlan is the personalization outcome for one reply.
type ResponsePlan struct {
	Style  string
	Length string
	Period models.DayPeriod
}

// PersonalizationService owns communication preferences per user, with a
// read-through TTL cache in front of the profile store.
type PersonalizationService struct {
	repo  repository.ProfileRepository
	cache *gocache.Cache
}

func NewPersonalizationService(repo repository.ProfileRepository) *PersonalizationService {
	return &PersonalizationService{
		repo:  repo,
		cache: gocache.New(profileCacheTTL, profileCacheCleanup),
	}
}

// GetOrCreate returns the user's profile, seeding defaults on first contact.
// A storage failure yields the default profile; it never propagates.
func (s *PersonalizationService) GetOrCreate(ctx context.Context, userID string) *models.PersonalizationProfile {
	if cached, found := s.cache.Get(userID); found {
		if profile, ok := cached.(*models.PersonalizationProfile); ok {
			return profile
		}
	}

	profile, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		log.Printf("⚠️  [PERSONALIZATION] Falling back to default profile for %s: %v", userID, err)
		return models.DefaultPersonalizationProfile(userID)
	}

	s.cache.Set(userID, profile, gocache.DefaultExpiration)
	return profile
}

// DecideStyle applies the fixed priority table to the user's recent context.
func (s *PersonalizationService) DecideStyle(rc models.RelevantContext) string {
	switch {
	case recentIntensityHigh(rc.Trend):
		return models.StyleEmpatico
	case stabilityLow(rc.Trend):
		return models.StyleExploratorio
	case rc.InteractionCount >= frequentUserSessions:
		return models.StyleEstructurado
	default:
		return models.StyleDirecto
	}
}

// Plan combines the stored preference, the decided style and the day period
// into the response plan the composer consumes.
func (s *PersonalizationService) Plan(ctx context.Context, userID string, rc models.RelevantContext, now time.Time) ResponsePlan {
	profile := s.GetOrCreate(ctx, userID)
	period := models.PeriodForHour(now.Hour())

	length := profile.ResponseLength
	if length == "" {
		length = period.IdealLength
	}

	return ResponsePlan{
		Style:  s.DecideStyle(rc),
		Length: length,
		Period: period,
	}
}

// UpdateInteractionPattern feeds one observed interaction back into the
// profile: rolling histories, period/topic counters, decided style.
func (s *PersonalizationService) UpdateInteractionPattern(ctx context.Context, userID string, obs models.InteractionObservation, style string, now time.Time) error {
	upd := repository.ProfileUpdate{
		Style:   style,
		Emotion: obs.Emotion,
		Topic:   obs.Topic,
		Period:  models.PeriodForHour(now.Hour()).Name,
		Quality: obs.ResponseQuality,
	}

	if err := s.repo.ApplyObservation(ctx, userID, upd); err != nil {
		return fmt.Errorf("failed to update interaction pattern: %w", err)
	}

	// Next read must see the new counters.
	s.cache.Delete(userID)
	return nil
}

// recentIntensityHigh reports whether the trend reads as acute distress.
func recentIntensityHigh(trend models.EmotionalTrend) bool {
	if trend.HighIntensity >= 2 {
		return true
	}
	n := len(trend.Fluctuation)
	return n > 0 && trend.Fluctuation[n-1] >= highIntensityFloor
}

// stabilityLow reports whether the intensity sequence swings hard.
func stabilityLow(trend models.EmotionalTrend) bool {
	swings := 0
	for i := 1; i < len(trend.Fluctuation); i++ {
		diff := trend.Fluctuation[i] - trend.Fluctuation[i-1]
		if diff < 0 {
			diff = -diff
		}
		if diff >= swingThreshold {
			swings++
		}
	}
	return swings >= 2
}
