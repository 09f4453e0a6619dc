package models

import "time"

// TelemetryStatus is the outcome class of a request.
type TelemetryStatus string

const (
	StatusOK     TelemetryStatus = "ok"
	StatusFail   TelemetryStatus = "fail"
	StatusNoSubs TelemetryStatus = "no_subs"
)

// CacheStatus records whether a request was served from cache.
type CacheStatus string

const (
	CacheHit  CacheStatus = "hit"
	CacheMiss CacheStatus = "miss"
)

// TelemetryEvent is a write-only outcome record.
type TelemetryEvent struct {
	ID               string          `json:"id"`
	SubjectID        string          `json:"subject_id"`
	Status           TelemetryStatus `json:"status"`
	Language         string          `json:"language"`
	Model            string          `json:"model"`
	CacheStatus      CacheStatus     `json:"cache_status"`
	DurationMs       int64           `json:"duration_ms"`
	TranscriptLength int             `json:"transcript_length"`
	ResponseLength   int             `json:"response_length"`
	FailureReason    string          `json:"failure_reason,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// TelemetrySummary aggregates events by model, status and cache status.
type TelemetrySummary struct {
	Model         string          `json:"model"`
	Status        TelemetryStatus `json:"status"`
	CacheStatus   CacheStatus     `json:"cache_status"`
	Count         int64           `json:"count"`
	AvgDurationMs float64         `json:"avg_duration_ms"`
}
