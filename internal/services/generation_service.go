package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// GenerationError kinds.
const (
	GenerationUnreachable = "unreachable"
	GenerationTimeout     = "timeout"
	GenerationQuota       = "quota"
	GenerationMalformed   = "malformed"
)

// GenerationError is the only error the pipeline surfaces past the gateway.
type GenerationError struct {
	Kind string
	Err  error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("generation failed (%s)", e.Kind)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// GenerationService calls an OpenAI-compatible chat-completions endpoint
// with a per-user token-bucket rate limit in front of it.
type GenerationService struct {
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration
	client  *http.Client

	perMinute int
	burst     int
	limiters  sync.Map // map[string]*rate.Limiter
}

func NewGenerationService(baseURL, apiKey, model string, timeout time.Duration, perMinute, burst int) *GenerationService {
	return &GenerationService{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		model:     model,
		timeout:   timeout,
		client:    &http.Client{Timeout: timeout},
		perMinute: perMinute,
		burst:     burst,
	}
}

type chatCompletionRequest struct {
	Model            string        `json:"model"`
	Messages         []ChatMessage `json:"messages"`
	Temperature      float64       `json:"temperature"`
	MaxTokens        int           `json:"max_tokens,omitempty"`
	PresencePenalty  float64       `json:"presence_penalty,omitempty"`
	FrequencyPenalty float64       `json:"frequency_penalty,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate requests one completion. Every failure mode maps to a
// GenerationError; nothing else escapes.
func (s *GenerationService) Generate(ctx context.Context, userID string, messages []ChatMessage, policy GenerationPolicy) (string, error) {
	if !s.userLimiter(userID).Allow() {
		return "", &GenerationError{Kind: GenerationQuota, Err: fmt.Errorf("per-user rate limit exceeded")}
	}

	payload := chatCompletionRequest{
		Model:            s.model,
		Messages:         messages,
		Temperature:      policy.Temperature,
		MaxTokens:        policy.MaxTokens,
		PresencePenalty:  policy.PresencePenalty,
		FrequencyPenalty: policy.FrequencyPenalty,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", &GenerationError{Kind: GenerationMalformed, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &GenerationError{Kind: GenerationUnreachable, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return "", &GenerationError{Kind: GenerationTimeout, Err: err}
		}
		return "", &GenerationError{Kind: GenerationUnreachable, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &GenerationError{Kind: GenerationQuota, Err: fmt.Errorf("provider returned 429")}
	case resp.StatusCode >= 500:
		return "", &GenerationError{Kind: GenerationUnreachable, Err: fmt.Errorf("provider returned %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return "", &GenerationError{Kind: GenerationMalformed, Err: fmt.Errorf("provider returned %d", resp.StatusCode)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &GenerationError{Kind: GenerationMalformed, Err: err}
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &GenerationError{Kind: GenerationMalformed, Err: err}
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", &GenerationError{Kind: GenerationMalformed, Err: fmt.Errorf("empty completion")}
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func (s *GenerationService) userLimiter(userID string) *rate.Limiter {
	if limiter, ok := s.limiters.Load(userID); ok {
		return limiter.(*rate.Limiter)
	}

	newLimiter := rate.NewLimiter(rate.Limit(float64(s.perMinute)/60.0), s.burst)
	actual, _ := s.limiters.LoadOrStore(userID, newLimiter)
	return actual.(*rate.Limiter)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
