package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"serena/internal/models"
	"serena/internal/repository"
)

// trendWindow is how many of the newest records feed the emotional trend.
const trendWindow = 10

// MemoryService owns the per-user interaction ledger and the read-side
// aggregation the rest of the pipeline consumes.
type MemoryService struct {
	repo repository.MemoryRepository
}

func NewMemoryService(repo repository.MemoryRepository) *MemoryService {
	return &MemoryService{repo: repo}
}

// RecordInteraction normalizes and appends one interaction to the user's
// window. Intensity is clamped and the time bucket is stamped here so
// stored records are always well-formed.
func (s *MemoryService) RecordInteraction(ctx context.Context, userID string, rec models.InteractionRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	rec.Intensity = models.ClampIntensity(rec.Intensity)
	if rec.TimeBucket == "" {
		rec.TimeBucket = models.TimeBucket(rec.Timestamp.Hour())
	}

	if err := s.repo.AppendInteraction(ctx, userID, rec); err != nil {
		return fmt.Errorf("failed to record interaction: %w", err)
	}
	return nil
}

// RelevantContext aggregates the user's window into the context handed to
// personalization and prompt composition. A storage failure yields the
// neutral default context; it never propagates.
func (s *MemoryService) RelevantContext(ctx context.Context, userID string) models.RelevantContext {
	store, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		log.Printf("⚠️  [MEMORY] Falling back to neutral context for %s: %v", userID, err)
		return models.DefaultRelevantContext()
	}
	if len(store.Window) == 0 {
		return models.DefaultRelevantContext()
	}

	result := models.DefaultRelevantContext()
	result.InteractionCount = len(store.Window)
	result.BucketFrequency = store.BucketCounts
	result.Trend = buildTrend(store.Window)
	result.PatternHistory = buildPatternHistory(store.Window)
	result.Profile = buildEmotionalProfile(store.Window)
	return result
}

// buildTrend summarizes the newest records, oldest first.
func buildTrend(window []models.InteractionRecord) models.EmotionalTrend {
	recent := window
	if len(recent) > trendWindow {
		recent = recent[len(recent)-trendWindow:]
	}

	trend := models.EmotionalTrend{
		Latest:         recent[len(recent)-1].Emotion,
		History:        make([]string, 0, len(recent)),
		Fluctuation:    make([]int, 0, len(recent)),
		DominantCounts: map[string]int{},
	}
	for _, rec := range recent {
		trend.History = append(trend.History, rec.Emotion)
		trend.Fluctuation = append(trend.Fluctuation, rec.Intensity)
		trend.DominantCounts[rec.Emotion]++
		if rec.Intensity >= 7 {
			trend.HighIntensity++
		}
		if rec.Intensity <= 3 {
			trend.LowIntensity++
		}
	}
	return trend
}

// buildPatternHistory merges the cognitive flags of the newest records.
func buildPatternHistory(window []models.InteractionRecord) map[string][]string {
	recent := window
	if len(recent) > trendWindow {
		recent = recent[len(recent)-trendWindow:]
	}

	history := map[string][]string{}
	for _, rec := range recent {
		for category, matched := range rec.PatternFlags {
			history[category] = append(history[category], matched...)
		}
	}
	return history
}

// buildEmotionalProfile derives the longitudinal profile from the full window.
func buildEmotionalProfile(window []models.InteractionRecord) models.EmotionalProfile {
	profile := models.EmotionalProfile{
		Predominant:  []string{},
		Frequency:    map[string]int{},
		ByTimeBucket: map[string]map[string]int{},
		Triggers:     []string{},
		Coping:       []models.CopingStrategy{},
	}

	copingIntensity := map[string][]int{}
	triggerSeen := map[string]bool{}

	for _, rec := range window {
		profile.Frequency[rec.Emotion]++
		if profile.ByTimeBucket[rec.TimeBucket] == nil {
			profile.ByTimeBucket[rec.TimeBucket] = map[string]int{}
		}
		profile.ByTimeBucket[rec.TimeBucket][rec.Emotion]++

		for category, matched := range rec.PatternFlags {
			if category == "coping" {
				for _, strategy := range matched {
					copingIntensity[strategy] = append(copingIntensity[strategy], rec.Intensity)
				}
				continue
			}
			// Thought and belief categories double as trigger markers.
			if !triggerSeen[category] {
				triggerSeen[category] = true
				profile.Triggers = append(profile.Triggers, category)
			}
		}
	}

	for emotion := range profile.Frequency {
		profile.Predominant = append(profile.Predominant, emotion)
	}
	sort.Slice(profile.Predominant, func(i, j int) bool {
		a, b := profile.Predominant[i], profile.Predominant[j]
		if profile.Frequency[a] != profile.Frequency[b] {
			return profile.Frequency[a] > profile.Frequency[b]
		}
		return a < b
	})
	if len(profile.Predominant) > 3 {
		profile.Predominant = profile.Predominant[:3]
	}

	// Lower intensity while a strategy is in play reads as it working.
	for strategy, intensities := range copingIntensity {
		var sum int
		for _, v := range intensities {
			sum += v
		}
		avg := float64(sum) / float64(len(intensities))
		profile.Coping = append(profile.Coping, models.CopingStrategy{
			Name:          strategy,
			Effectiveness: 1 - avg/10,
		})
	}
	sort.Slice(profile.Coping, func(i, j int) bool {
		if profile.Coping[i].Effectiveness != profile.Coping[j].Effectiveness {
			return profile.Coping[i].Effectiveness > profile.Coping[j].Effectiveness
		}
		return profile.Coping[i].Name < profile.Coping[j].Name
	})
	sort.Strings(profile.Triggers)

	return profile
}
