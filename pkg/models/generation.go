package models

// ParseOutcome tags how a generation result was obtained.
type ParseOutcome string

const (
	ParseStructured ParseOutcome = "structured"
	ParseFallback   ParseOutcome = "fallback"
	ParseError      ParseOutcome = "error"
)

// Chapter is a titled position in the subject's timeline.
type Chapter struct {
	Time  string `json:"time"`
	Title string `json:"title"`
}

// GenerationResult is the parsed output of one generation call.
// An empty Summary means no summary was produced.
type GenerationResult struct {
	Summary       string       `json:"summary,omitempty"`
	Chapters      []Chapter    `json:"chapters"`
	Outcome       ParseOutcome `json:"parse_outcome"`
	FailureReason string       `json:"-"`
}

// HasSummary reports whether the result carries a usable summary.
func (g GenerationResult) HasSummary() bool {
	return g.Summary != ""
}
