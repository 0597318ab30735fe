package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"serena/internal/analysis"
	"serena/internal/logging"
	"serena/internal/models"
)

// Generator is the gateway contract the pipeline depends on.
type Generator interface {
	Generate(ctx context.Context, userID string, messages []ChatMessage, policy GenerationPolicy) (string, error)
}

// PipelineService orchestrates one message end to end: classify, aggregate
// context, compose, generate, validate, then persist everything concurrently
// while the reply is already on its way back.
type PipelineService struct {
	memory          *MemoryService
	personalization *PersonalizationService
	state           *ConversationStateService
	generator       Generator
	coherence       *CoherenceService
	progress        *ProgressService
	goals           *GoalService
	therapeutic     *TherapeuticService
	messages        *MessageService
	cache           *RedisService

	inFlight sync.WaitGroup
}

func NewPipelineService(
	memory *MemoryService,
	personalization *PersonalizationService,
	state *ConversationStateService,
	generator Generator,
	coherence *CoherenceService,
	progress *ProgressService,
	goals *GoalService,
	therapeutic *TherapeuticService,
	messages *MessageService,
	cache *RedisService,
) *PipelineService {
	return &PipelineService{
		memory:          memory,
		personalization: personalization,
		state:           state,
		generator:       generator,
		coherence:       coherence,
		progress:        progress,
		goals:           goals,
		therapeutic:     therapeutic,
		messages:        messages,
		cache:           cache,
	}
}

// HandleMessage processes one inbound message and returns the reply. The
// only failure it cannot absorb locally is invalid input; generation
// failures become fallback replies, storage failures become defaults.
func (p *PipelineService) HandleMessage(ctx context.Context, msg models.Message) *models.Reply {
	start := time.Now()
	defer func() { pipelineDuration.Observe(time.Since(start).Seconds()) }()

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	// Pure classifiers; each absorbs its own failures.
	emotion := analysis.DetectEmotion(msg.Content)
	intent := analysis.DetectIntent(msg.Content)
	cognitive := analysis.DetectCognitivePatterns(msg.Content)
	urgent := emotion.Urgent || intent.Intent == analysis.IntentCrisis

	messagesProcessed.WithLabelValues(intent.Intent).Inc()

	p.state.Observe(ctx, msg.UserID, msg.Content)

	rc := p.memory.RelevantContext(ctx, msg.UserID)
	plan := p.personalization.Plan(ctx, msg.UserID, rc, msg.Timestamp)
	state := p.state.Current(ctx, msg.UserID)

	lastReply := ""
	if p.cache != nil {
		if cached, err := p.cache.LastReply(ctx, msg.UserID); err == nil {
			lastReply = cached
		}
	}

	prompt := BuildMessages(PromptInput{
		Message:   msg,
		Emotion:   emotion,
		Intent:    intent,
		Context:   rc,
		Plan:      plan,
		State:     state,
		LastReply: lastReply,
	})
	policy := PolicyFor(urgent, intent.Intent, msg.Content)

	logger := logging.WithMessage(msg.UserID, msg.ConversationID)

	content, err := p.generator.Generate(ctx, msg.UserID, prompt, policy)
	fallback := err != nil
	if fallback {
		var genErr *GenerationError
		kind := GenerationUnreachable
		if errors.As(err, &genErr) {
			kind = genErr.Kind
		}
		generationErrors.WithLabelValues(kind).Inc()
		fallbackReplies.Inc()
		logging.WithStage(logger, "generation").Warn("generation failed, serving fallback", "kind", kind)
		content = FallbackReply(emotion.Primary, urgent)
	} else {
		content, _ = p.coherence.Validate(ctx, msg.UserID, content, emotion)
	}

	reply := &models.Reply{
		UserID:         msg.UserID,
		ConversationID: msg.ConversationID,
		Content:        content,
		Emotion:        emotion.Primary,
		Intensity:      emotion.Intensity,
		Fallback:       fallback,
		CreatedAt:      time.Now(),
	}

	// The fan-out must survive the request context: the reply is already
	// decided and the caller may hang up immediately.
	p.inFlight.Add(1)
	go func() {
		defer p.inFlight.Done()
		p.persistOutcome(context.WithoutCancel(ctx), msg, reply, emotion, intent, cognitive, state, plan, fallback)
	}()

	return reply
}

// Drain blocks until all in-flight persistence fan-outs finish. Called on
// shutdown and by tests.
func (p *PipelineService) Drain() {
	p.inFlight.Wait()
}

// persistOutcome runs the independent post-reply writes concurrently. Each
// failure is logged and counted; none is retried or surfaced.
func (p *PipelineService) persistOutcome(
	ctx context.Context,
	msg models.Message,
	reply *models.Reply,
	emotion analysis.EmotionResult,
	intent analysis.IntentResult,
	cognitive analysis.CognitiveResult,
	state models.ConversationState,
	plan ResponsePlan,
	fallback bool,
) {
	flags := cognitive.Flags()
	recordedEmotion := emotion.Primary
	if recordedEmotion == "" {
		recordedEmotion = "neutral"
	}

	writes := []struct {
		store string
		fn    func() error
	}{
		{"memory", func() error {
			return p.memory.RecordInteraction(ctx, msg.UserID, models.InteractionRecord{
				Timestamp:    msg.Timestamp,
				Emotion:      recordedEmotion,
				Intensity:    emotion.Intensity,
				PatternFlags: flags,
			})
		}},
		{"progress", func() error {
			return p.progress.RecordEntry(ctx, msg.UserID, models.ProgressEntry{
				Timestamp:        msg.Timestamp,
				MainEmotion:      recordedEmotion,
				Intensity:        emotion.Intensity,
				Topic:            intent.Topic,
				Triggers:         triggerCategories(flags),
				CopingStrategies: flags["coping"],
				Phase:            state.Phase,
				Urgent:           emotion.Urgent,
			})
		}},
		{"goals", func() error {
			return p.goals.ReinforceFromInteraction(ctx, msg.UserID, flags)
		}},
		{"therapeutic", func() error {
			return p.therapeutic.RecordSession(ctx, msg.UserID, recordedEmotion, emotion.Intensity, flags["coping"])
		}},
		{"replies", func() error {
			return p.messages.PersistReply(ctx, reply)
		}},
		{"personalization", func() error {
			quality := "generated"
			if fallback {
				quality = "fallback"
			}
			obs := models.InteractionObservation{
				Emotion:         recordedEmotion,
				Topic:           intent.Topic,
				InteractionType: intent.Intent,
				ResponseQuality: quality,
			}
			return p.personalization.UpdateInteractionPattern(ctx, msg.UserID, obs, plan.Style, msg.Timestamp)
		}},
	}

	logger := logging.WithStage(logging.WithMessage(msg.UserID, msg.ConversationID), "persistence")

	var wg sync.WaitGroup
	for _, write := range writes {
		wg.Add(1)
		go func(store string, fn func() error) {
			defer wg.Done()
			if err := fn(); err != nil {
				fanoutWriteFailures.WithLabelValues(store).Inc()
				logger.Warn("write failed", "store", store, "error", err)
			}
		}(write.store, write.fn)
	}
	wg.Wait()
}

// triggerCategories returns the non-coping flag categories, sorted.
func triggerCategories(flags map[string][]string) []string {
	var categories []string
	for category := range flags {
		if category == "coping" {
			continue
		}
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}
