package models

import (
	"fmt"
	"strings"
	"time"
)

// SourceReason explains why a transcript source produced no segments.
type SourceReason string

const (
	ReasonNone                   SourceReason = ""
	ReasonNoSubtitles            SourceReason = "no_subtitles"
	ReasonFetchError             SourceReason = "fetch_error"
	ReasonUnimplementedSource    SourceReason = "unimplemented_source"
	ReasonNoSubtitlesOrProtected SourceReason = "no_subtitles_or_protected"
)

// Segment is a single timed piece of transcript text.
type Segment struct {
	Start time.Duration `json:"start"`
	Text  string        `json:"text"`
}

// TranscriptResult is the outcome of a transcript fetch. Empty Segments is a
// valid terminal value; Reason says why.
type TranscriptResult struct {
	Segments []Segment    `json:"segments"`
	Reason   SourceReason `json:"reason,omitempty"`
	Source   string       `json:"source,omitempty"`
}

// Empty reports whether the result carries no usable text.
func (r TranscriptResult) Empty() bool {
	for _, s := range r.Segments {
		if strings.TrimSpace(s.Text) != "" {
			return false
		}
	}
	return true
}

// Text joins the segment texts with newlines.
func (r TranscriptResult) Text() string {
	parts := make([]string, 0, len(r.Segments))
	for _, s := range r.Segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

// Timed renders the segments as "[mm:ss] text" lines.
func (r TranscriptResult) Timed() string {
	lines := make([]string, 0, len(r.Segments))
	for _, s := range r.Segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			lines = append(lines, "["+FormatTimestamp(s.Start)+"] "+t)
		}
	}
	return strings.Join(lines, "\n")
}

// FormatTimestamp renders an offset as mm:ss, or h:mm:ss past the hour.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	h, m, s := total/3600, (total/60)%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Metadata holds what the metadata source knows about a subject.
type Metadata struct {
	Title  string `json:"title"`
	Author string `json:"author_name,omitempty"`
}
