package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pario-ai/recap/pkg/models"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxChars    = 2000
	defaultMaxChapters = 10
)

// Failure reasons attached to degraded results.
const (
	FailureTimeout        = "timeout"
	FailureUpstreamStatus = "upstream_status"
	FailureUpstreamError  = "upstream_error"
	FailureEmptyOutput    = "empty_output"
)

// Invoker runs one bounded generation call and parses its output. It never
// returns an error; failures come back as a ParseError result.
type Invoker struct {
	backend     Backend
	timeout     time.Duration
	maxChars    int
	maxChapters int
	logger      *slog.Logger
}

// Option customizes the invoker.
type Option func(*Invoker)

// WithTimeout bounds each generation call.
func WithTimeout(d time.Duration) Option {
	return func(i *Invoker) {
		if d > 0 {
			i.timeout = d
		}
	}
}

// WithMaxTranscriptChars limits how much transcript goes into the prompt.
func WithMaxTranscriptChars(n int) Option {
	return func(i *Invoker) {
		if n > 0 {
			i.maxChars = n
		}
	}
}

// WithMaxChapters caps the chapters kept from the output.
func WithMaxChapters(n int) Option {
	return func(i *Invoker) {
		if n > 0 {
			i.maxChapters = n
		}
	}
}

// WithLogger sets the logger used for degradation warnings.
func WithLogger(l *slog.Logger) Option {
	return func(i *Invoker) {
		if l != nil {
			i.logger = l
		}
	}
}

// NewInvoker wraps a backend.
func NewInvoker(backend Backend, opts ...Option) *Invoker {
	i := &Invoker{
		backend:     backend,
		timeout:     defaultTimeout,
		maxChars:    defaultMaxChars,
		maxChapters: defaultMaxChapters,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Generate summarizes transcript in lang using model.
func (i *Invoker) Generate(ctx context.Context, model, transcript, lang string) models.GenerationResult {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	raw, err := i.call(ctx, model, BuildPrompt(transcript, lang, i.maxChars))
	if err != nil {
		reason := failureReason(ctx, err)
		i.logger.Warn("generation failed", "model", model, "reason", reason, "error", err)
		return models.GenerationResult{
			Chapters:      []models.Chapter{},
			Outcome:       models.ParseError,
			FailureReason: reason,
		}
	}

	res := Parse(raw, i.maxChapters)
	if res.Outcome == models.ParseFallback {
		i.logger.Warn("model output was not structured", "model", model, "summary", res.HasSummary(), "chapters", len(res.Chapters))
	}
	return res
}

func (i *Invoker) call(ctx context.Context, model, prompt string) (raw string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backend panic: %v", r)
		}
	}()
	return i.backend.Generate(ctx, model, prompt)
}

func failureReason(ctx context.Context, err error) string {
	var statusErr *StatusError
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return FailureTimeout
	case errors.As(err, &statusErr):
		return FailureUpstreamStatus
	case errors.Is(err, ErrEmptyOutput):
		return FailureEmptyOutput
	default:
		return FailureUpstreamError
	}
}
