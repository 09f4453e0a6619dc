// Package summarizer orchestrates a single summary request: metadata,
// transcript, cache lookup, generation, cache fill and telemetry.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/pario-ai/recap/pkg/fingerprint"
	"github.com/pario-ai/recap/pkg/models"
	"github.com/pario-ai/recap/pkg/transcript"
	"github.com/pario-ai/recap/pkg/youtube"
)

// Placeholder summaries returned when no real summary exists.
const (
	PlaceholderNoTranscript     = "No subtitles are available for this video, so a summary could not be generated."
	PlaceholderGenerationFailed = "A summary could not be generated for this video right now."
)

var (
	// ErrInvalidSubject is returned for input that names no subject.
	ErrInvalidSubject = errors.New("invalid subject")
	// ErrInternal wraps unexpected faults inside the pipeline.
	ErrInternal = errors.New("internal error")
)

// MetadataSource looks up display metadata for a subject.
type MetadataSource interface {
	FetchMetadata(ctx context.Context, subjectID string) (models.Metadata, error)
}

// TranscriptSource returns a transcript, or an empty result with a reason.
type TranscriptSource interface {
	Fetch(ctx context.Context, subjectID string, languages []string) models.TranscriptResult
}

// Generator produces a summary and chapters from transcript text.
type Generator interface {
	Generate(ctx context.Context, model, transcript, lang string) models.GenerationResult
}

// Cache stores finished responses by content key.
type Cache interface {
	Get(ctx context.Context, key string) (*models.CachedResponse, bool)
	Put(ctx context.Context, key string, resp models.CachedResponse, ttl time.Duration)
}

// Recorder accepts outcome events.
type Recorder interface {
	Record(ev models.TelemetryEvent)
}

// Options holds request defaults and cache policy.
type Options struct {
	DefaultModel      string
	DefaultLanguage   string
	FallbackLanguages []string
	TTL               time.Duration
	Dedupe            bool
	MetadataTimeout   time.Duration
}

// Service runs summary requests.
type Service struct {
	meta        MetadataSource
	transcripts TranscriptSource
	gen         Generator
	cache       Cache
	rec         Recorder
	opts        Options

	resolve func(string) (string, error)
	group   singleflight.Group
	logger  *slog.Logger
	now     func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithResolver replaces the subject resolver, which turns request input into
// a subject id.
func WithResolver(fn func(string) (string, error)) Option {
	return func(s *Service) {
		if fn != nil {
			s.resolve = fn
		}
	}
}

// New creates a Service. A nil cache or recorder disables that concern.
func New(meta MetadataSource, transcripts TranscriptSource, gen Generator, c Cache, rec Recorder, opts Options, options ...Option) *Service {
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = "en"
	}
	if opts.MetadataTimeout <= 0 {
		opts.MetadataTimeout = 10 * time.Second
	}
	if c == nil {
		c = noCache{}
	}
	if rec == nil {
		rec = noRecorder{}
	}
	s := &Service{
		meta:        meta,
		transcripts: transcripts,
		gen:         gen,
		cache:       c,
		rec:         rec,
		opts:        opts,
		resolve:     youtube.ExtractVideoID,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Summarize answers one request. Every reachable outcome, including missing
// transcripts and failed generation, is a response; only invalid input and
// internal faults are errors.
func (s *Service) Summarize(ctx context.Context, req models.SummaryRequest) (resp *models.CachedResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("summarize panicked", "subject", req.Subject, "panic", r)
			resp, err = nil, fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	start := s.now()
	subjectID, err := s.resolve(req.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSubject, err)
	}

	lang := fingerprint.Language(req.Language)
	if lang == "" {
		lang = fingerprint.Language(s.opts.DefaultLanguage)
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = s.opts.DefaultModel
	}

	title := s.fetchTitle(ctx, subjectID)
	tr := s.transcripts.Fetch(ctx, subjectID, transcript.Preferences(lang, s.opts.FallbackLanguages))
	key := fingerprint.ComputeKey(subjectID, lang, model, tr.Text())

	if cached, ok := s.cache.Get(ctx, key); ok {
		out := *cached
		out.Cached = true
		out.ResponseTimeMs = elapsedMs(start, s.now())
		return &out, nil
	}

	job := request{subjectID: subjectID, lang: lang, model: model, title: title, transcript: tr, key: key, start: start}
	var fresh models.CachedResponse
	if s.opts.Dedupe {
		v, err, _ := s.group.Do(key, func() (any, error) {
			return s.produce(context.WithoutCancel(ctx), job), nil
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInternal, err)
		}
		fresh = v.(models.CachedResponse)
	} else {
		fresh = s.produce(context.WithoutCancel(ctx), job)
	}

	fresh.ResponseTimeMs = elapsedMs(start, s.now())
	return &fresh, nil
}

type request struct {
	subjectID  string
	lang       string
	model      string
	title      *string
	transcript models.TranscriptResult
	key        string
	start      time.Time
}

// produce builds the response for a cache miss, stores it and records the
// outcome.
func (s *Service) produce(ctx context.Context, job request) models.CachedResponse {
	text := job.transcript.Text()
	resp := models.CachedResponse{
		Success:     true,
		SubjectID:   job.subjectID,
		Title:       job.title,
		Chapters:    []models.Chapter{},
		ProcessedAt: s.now().UTC(),
	}
	ev := models.TelemetryEvent{
		SubjectID:        job.subjectID,
		Language:         job.lang,
		CacheStatus:      models.CacheMiss,
		TranscriptLength: utf8.RuneCountInString(text),
	}

	if job.transcript.Empty() {
		reason := job.transcript.Reason
		if reason == models.ReasonNone {
			reason = models.ReasonNoSubtitlesOrProtected
		}
		resp.Summary = PlaceholderNoTranscript
		resp.Model = models.FallbackModel
		resp.Reason = string(reason)
		ev.Status = models.StatusNoSubs
		ev.FailureReason = string(reason)
	} else {
		gen := s.gen.Generate(ctx, job.model, job.transcript.Timed(), job.lang)
		resp.Model = job.model
		resp.TranscriptLength = ev.TranscriptLength
		if gen.Chapters != nil {
			resp.Chapters = gen.Chapters
		}
		if gen.HasSummary() {
			resp.Summary = gen.Summary
			ev.Status = models.StatusOK
		} else {
			resp.Summary = PlaceholderGenerationFailed
			resp.Reason = models.ReasonGenerationFailed
			ev.Status = models.StatusFail
			ev.FailureReason = gen.FailureReason
			if ev.FailureReason == "" {
				ev.FailureReason = "no_summary"
			}
		}
	}

	s.cache.Put(ctx, job.key, resp, s.opts.TTL)

	ev.Model = resp.Model
	ev.ResponseLength = utf8.RuneCountInString(resp.Summary)
	ev.DurationMs = *elapsedMs(job.start, s.now())
	s.rec.Record(ev)
	return resp
}

func (s *Service) fetchTitle(ctx context.Context, subjectID string) *string {
	if s.meta == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.MetadataTimeout)
	defer cancel()

	meta, err := s.meta.FetchMetadata(ctx, subjectID)
	if err != nil {
		s.logger.Warn("metadata fetch failed", "subject", subjectID, "error", err)
		return nil
	}
	if meta.Title == "" {
		return nil
	}
	return &meta.Title
}

func elapsedMs(start, end time.Time) *int64 {
	ms := end.Sub(start).Milliseconds()
	return &ms
}

type noCache struct{}

func (noCache) Get(context.Context, string) (*models.CachedResponse, bool) { return nil, false }

func (noCache) Put(context.Context, string, models.CachedResponse, time.Duration) {}

type noRecorder struct{}

func (noRecorder) Record(models.TelemetryEvent) {}
