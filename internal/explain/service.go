// Package explain produces step-by-step explanations of solved problems with
// a language model and caches them by prompt.
package explain

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

const unavailableStep = "AI explanation not available"

// Usage counts model traffic. Token figures are estimates (words x 1.3).
type Usage struct {
	TotalTokens      uint64 `json:"total_tokens"`
	PromptTokens     uint64 `json:"prompt_tokens"`
	CompletionTokens uint64 `json:"completion_tokens"`
	CachedRequests   uint64 `json:"cached_requests"`
	APIRequests      uint64 `json:"api_requests"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Service struct {
	llm   LLM
	cache Cache
	log   *slog.Logger
	group singleflight.Group

	promptTokens     atomic.Uint64
	completionTokens atomic.Uint64
	cachedRequests   atomic.Uint64
	apiRequests      atomic.Uint64
}

// NewService builds the explainer. llm nil disables explanations.
func NewService(llm LLM, cache Cache, log *slog.Logger) *Service {
	return &Service{llm: llm, cache: cache, log: log}
}

func (s *Service) Available(ctx context.Context) bool {
	return s.llm != nil && s.llm.Available(ctx)
}

// Explain returns explanation steps for problem and its answer. Errors are
// turned into a two-step "not available" explanation.
func (s *Service) Explain(ctx context.Context, problem, answer string) []string {
	if s.llm == nil {
		return []string{unavailableStep, "explanations are disabled"}
	}
	prompt := Prompt(problem, answer)
	key := CacheKey(prompt)

	if steps, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.WarnContext(ctx, "explanation cache read failed", "backend", s.cache.Name(), "error", err)
	} else if ok {
		s.cachedRequests.Add(1)
		s.log.DebugContext(ctx, "explanation cache hit", "key", key)
		return steps
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.generate(ctx, key, prompt)
	})
	if err != nil {
		s.log.WarnContext(ctx, "explanation failed", "error", err)
		return []string{unavailableStep, err.Error()}
	}
	if shared {
		s.log.DebugContext(ctx, "explanation shared with concurrent request", "key", key)
	}
	return v.([]string)
}

func (s *Service) generate(ctx context.Context, key, prompt string) ([]string, error) {
	s.apiRequests.Add(1)
	text, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	s.promptTokens.Add(estimateTokens(prompt))
	s.completionTokens.Add(estimateTokens(text))

	steps := splitSteps(text)
	if len(steps) == 0 {
		return nil, fmt.Errorf("model returned an empty explanation")
	}
	if err := s.cache.Set(ctx, key, steps); err != nil {
		s.log.WarnContext(ctx, "explanation cache write failed", "backend", s.cache.Name(), "error", err)
	}
	return steps, nil
}

func (s *Service) Usage() Usage {
	p, c := s.promptTokens.Load(), s.completionTokens.Load()
	return Usage{
		TotalTokens:      p + c,
		PromptTokens:     p,
		CompletionTokens: c,
		CachedRequests:   s.cachedRequests.Load(),
		APIRequests:      s.apiRequests.Load(),
	}
}

func (s *Service) CacheStats() CacheStats { return s.cache.Stats() }

// Prompt asks for a tutor-style walk-through using markdown emphasis.
func Prompt(problem, answer string) string {
	return fmt.Sprintf(`You are a mathematics tutor. Explain step by step how to reach the answer below.

Problem: %s
Final answer: %s

Guidelines:
- Split the work into short numbered steps and give the reason for each one.
- Write mathematics in LaTeX between $ signs.
- Mark key formulas and concepts in **bold** and important terms or variables in *italics*.
- Add a short tip where a common mistake is likely.
`, problem, answer)
}

// CacheKey is the md5 hex digest of the JSON-encoded chat messages that
// carry prompt.
func CacheKey(prompt string) string {
	data, _ := json.Marshal([]message{{Role: "user", Content: prompt}})
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

func splitSteps(text string) []string {
	var steps []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			steps = append(steps, strings.TrimRight(line, " \r\t"))
		}
	}
	return steps
}

func estimateTokens(s string) uint64 {
	return uint64(float64(len(strings.Fields(s))) * 1.3)
}
