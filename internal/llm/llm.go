// Package llm sends prompts to the configured language model provider.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/pocketflow"
	"github.com/agentstation/pocketflow/internal/config"
	"github.com/agentstation/pocketflow/internal/retry"
)

// Task selects the model used for a prompt.
type Task string

// Tasks.
const (
	TaskGeneral        Task = ""
	TaskAnalysis       Task = config.TaskAnalysis
	TaskSimplification Task = config.TaskSimplification
)

// ProbePrompt is sent by Probe to check a provider end to end.
const ProbePrompt = "Hello, please respond with just the word 'success' to test the connection."

// ErrEmptyResponse is returned when a provider answers with no text.
var ErrEmptyResponse = errors.New("empty response from provider")

// Client completes prompts.
type Client interface {
	Complete(ctx context.Context, prompt string, task Task) (string, error)
}

// Provider is a single model backend.
type Provider interface {
	Name() string
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// ModelFunc picks the model name for a task.
type ModelFunc func(task Task) string

// Service is the Client used by the pipeline: it selects a model per task
// and retries failed calls with backoff.
type Service struct {
	provider Provider
	models   ModelFunc
	policy   retry.Policy
	logger   pocketflow.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithPolicy overrides the retry policy.
func WithPolicy(p retry.Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithLogger sets the logger for call attempts.
func WithLogger(l pocketflow.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService wraps provider.
func NewService(provider Provider, models ModelFunc, opts ...Option) *Service {
	s := &Service{
		provider: provider,
		models:   models,
		policy:   retry.DefaultPolicy(),
		logger:   pocketflow.NopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// New builds a Service for the named provider from cfg. An empty name
// uses cfg.Provider.
func New(ctx context.Context, cfg *config.Config, provider string, opts ...Option) (*Service, error) {
	if provider == "" {
		provider = cfg.Provider
	}
	provider = strings.ToLower(provider)
	if err := cfg.CheckProvider(provider); err != nil {
		return nil, err
	}
	pcfg, err := cfg.ProviderConfig(provider)
	if err != nil {
		return nil, err
	}

	var p Provider
	switch provider {
	case config.ProviderOpenAI:
		p = NewOpenAI(*pcfg)
	case config.ProviderGemini:
		if p, err = NewGemini(ctx, *pcfg); err != nil {
			return nil, err
		}
	}

	models := func(task Task) string { return cfg.ModelFor(provider, string(task)) }
	return NewService(p, models, opts...), nil
}

// Provider returns the lower-case provider name.
func (s *Service) Provider() string {
	return s.provider.Name()
}

// Complete sends prompt to the model chosen for task.
func (s *Service) Complete(ctx context.Context, prompt string, task Task) (string, error) {
	model := s.models(task)
	name := s.provider.Name()
	s.logger.Debug(ctx, "calling llm", "provider", name, "model", model, "task", string(task))

	policy := s.policy
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		s.logger.Info(ctx, "llm call failed, retrying",
			"provider", name,
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"delay", delay,
			"error", err)
	}

	var text string
	err := policy.Do(ctx, func(ctx context.Context, _ int) error {
		out, err := s.provider.Generate(ctx, model, prompt)
		if err != nil {
			return err
		}
		if strings.TrimSpace(out) == "" {
			return ErrEmptyResponse
		}
		text = out
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "llm call failed", "provider", name, "error", err)
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return text, nil
}

// Probe sends ProbePrompt through c and returns the reply.
func Probe(ctx context.Context, c Client) (string, error) {
	return c.Complete(ctx, ProbePrompt, TaskGeneral)
}
