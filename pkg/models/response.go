package models

import "time"

// Response reason codes beyond the transcript source reasons.
const (
	ReasonGenerationFailed = "generation_failed"
)

// FallbackModel is reported as the model of placeholder responses.
const FallbackModel = "fallback"

// CachedResponse is the externally visible unit of caching. It is written once
// per cache key and never mutated afterwards; Cached is set on the copy served
// from cache.
type CachedResponse struct {
	Success          bool      `json:"success"`
	SubjectID        string    `json:"subjectId"`
	Title            *string   `json:"title"`
	Summary          string    `json:"summary"`
	Chapters         []Chapter `json:"chapters"`
	Model            string    `json:"model"`
	Cached           bool      `json:"cached"`
	Reason           string    `json:"reason,omitempty"`
	ProcessedAt      time.Time `json:"processedAt"`
	ResponseTimeMs   *int64    `json:"responseTimeMs,omitempty"`
	TranscriptLength int       `json:"transcriptLength,omitempty"`
}
