// Package transcript tries ordered transcript sources until one yields text.
package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/pario-ai/recap/pkg/fingerprint"
	"github.com/pario-ai/recap/pkg/models"
)

const defaultStrategyTimeout = 10 * time.Second

// Strategy is one way of acquiring a transcript. An empty result with a
// Reason means "nothing here, try the next one"; a returned error is a fault.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, subjectID string, languages []string) (models.TranscriptResult, error)
}

// Chain runs strategies in fixed priority order.
type Chain struct {
	strategies []Strategy
	timeout    time.Duration
	logger     *slog.Logger
}

// Option customizes a Chain.
type Option func(*Chain)

// WithTimeout bounds each strategy call.
func WithTimeout(d time.Duration) Option {
	return func(c *Chain) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the chain logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chain) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChain creates a chain over strategies, highest priority first.
func NewChain(strategies []Strategy, opts ...Option) *Chain {
	c := &Chain{
		strategies: strategies,
		timeout:    defaultStrategyTimeout,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the first non-empty result. When every strategy comes up
// empty it returns the last empty result's reason, or
// no_subtitles_or_protected when no strategy ran. It never fails.
func (c *Chain) Fetch(ctx context.Context, subjectID string, languages []string) models.TranscriptResult {
	last := models.TranscriptResult{Reason: models.ReasonNoSubtitlesOrProtected}

	for _, s := range c.strategies {
		res := c.try(ctx, s, subjectID, languages)
		if !res.Empty() {
			sortSegments(res.Segments)
			return res
		}
		c.logger.Debug("transcript strategy empty",
			"strategy", s.Name(),
			"subject", subjectID,
			"reason", res.Reason,
		)
		last = res
	}
	last.Segments = nil
	return last
}

// try runs one strategy under its own timeout, converting faults (errors and
// panics) into an empty fetch_error result.
func (c *Chain) try(ctx context.Context, s Strategy, subjectID string, languages []string) (res models.TranscriptResult) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("transcript strategy panicked",
				"strategy", s.Name(),
				"subject", subjectID,
				"panic", fmt.Sprint(r),
			)
			res = models.TranscriptResult{Reason: models.ReasonFetchError, Source: s.Name()}
		}
	}()

	res, err := s.Fetch(ctx, subjectID, languages)
	if err != nil {
		c.logger.Warn("transcript strategy failed",
			"strategy", s.Name(),
			"subject", subjectID,
			"error", err,
		)
		return models.TranscriptResult{Reason: models.ReasonFetchError, Source: s.Name()}
	}
	res.Source = s.Name()
	if res.Empty() && res.Reason == models.ReasonNone {
		res.Reason = models.ReasonNoSubtitles
	}
	return res
}

func sortSegments(segs []models.Segment) {
	sort.SliceStable(segs, func(i, j int) bool {
		return segs[i].Start < segs[j].Start
	})
}

// Preferences builds the ordered, de-duplicated language list for a request:
// the requested language first, then the configured fallbacks.
func Preferences(requested string, fallbacks []string) []string {
	seen := make(map[string]bool, len(fallbacks)+1)
	out := make([]string, 0, len(fallbacks)+1)
	for _, l := range append([]string{requested}, fallbacks...) {
		l = fingerprint.Language(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
