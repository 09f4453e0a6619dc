package llm

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pario-ai/recap/pkg/models"
)

const (
	fallbackSummaryRunes = 200
	fallbackMinRunes     = 50
	maxTitleRunes        = 100
)

var (
	chapterLine = regexp.MustCompile(`(?m)^[ \t]*(?:[-*•][ \t]*|\d+[.)][ \t]+)?\[?(\d{1,2}(?::\d{2}){1,2})\]?[ \t]*[-—–][ \t]*(.+?)[ \t]*$`)
	taggedTLDR  = regexp.MustCompile(`(?is)(?:^|\n)\s*(?:TL;?DR|Summary)\s*:\s*(.+?)(?:\n\s*Chapters\s*:|$)`)
	taggedChaps = regexp.MustCompile(`(?is)(?:^|\n)\s*Chapters\s*:\s*(.*)$`)
)

type jsonChapter struct {
	Time  json.RawMessage `json:"time"`
	Title string          `json:"title"`
}

type jsonOutput struct {
	Summary  string        `json:"summary"`
	TLDR     string        `json:"tldr"`
	Chapters []jsonChapter `json:"chapters"`
}

// Parse turns raw model output into a result. Structured output (JSON, or
// TLDR:/Chapters: tagged lines) is preferred; otherwise the summary is cut
// from the raw text and chapters are recovered from "time - title" lines.
// At most maxChapters chapters are kept when maxChapters is positive.
func Parse(raw string, maxChapters int) models.GenerationResult {
	if res, ok := parseJSON(raw, maxChapters); ok {
		return res
	}
	if res, ok := parseTagged(raw, maxChapters); ok {
		return res
	}
	return parseFallback(raw, maxChapters)
}

func parseJSON(raw string, maxChapters int) (models.GenerationResult, bool) {
	var out jsonOutput
	if err := decodeJSON(raw, &out); err != nil {
		return models.GenerationResult{}, false
	}
	summary := strings.TrimSpace(out.Summary)
	if summary == "" {
		summary = strings.TrimSpace(out.TLDR)
	}
	if summary == "" {
		return models.GenerationResult{}, false
	}

	chapters := make([]models.Chapter, 0, len(out.Chapters))
	for _, ch := range out.Chapters {
		chapters = appendChapter(chapters, chapterTime(ch.Time), ch.Title)
	}
	return models.GenerationResult{
		Summary:  summary,
		Chapters: capChapters(chapters, maxChapters),
		Outcome:  models.ParseStructured,
	}, true
}

func parseTagged(raw string, maxChapters int) (models.GenerationResult, bool) {
	m := taggedTLDR.FindStringSubmatch(raw)
	if m == nil {
		return models.GenerationResult{}, false
	}
	summary := strings.TrimSpace(m[1])
	if summary == "" {
		return models.GenerationResult{}, false
	}

	var chapters []models.Chapter
	if c := taggedChaps.FindStringSubmatch(raw); c != nil {
		chapters = scanChapters(c[1])
	}
	return models.GenerationResult{
		Summary:  summary,
		Chapters: capChapters(chapters, maxChapters),
		Outcome:  models.ParseStructured,
	}, true
}

func parseFallback(raw string, maxChapters int) models.GenerationResult {
	text := strings.TrimSpace(raw)
	res := models.GenerationResult{
		Chapters: capChapters(scanChapters(text), maxChapters),
		Outcome:  models.ParseFallback,
	}
	if utf8.RuneCountInString(text) > fallbackMinRunes {
		res.Summary = strings.TrimSpace(truncateRunes(text, fallbackSummaryRunes)) + "..."
	}
	return res
}

func scanChapters(text string) []models.Chapter {
	chapters := []models.Chapter{}
	for _, m := range chapterLine.FindAllStringSubmatch(text, -1) {
		chapters = appendChapter(chapters, m[1], m[2])
	}
	return chapters
}

// appendChapter drops chapters that miss either a time or a title.
func appendChapter(chapters []models.Chapter, t, title string) []models.Chapter {
	t = strings.TrimSpace(t)
	title = strings.TrimSpace(title)
	if t == "" || title == "" {
		return chapters
	}
	return append(chapters, models.Chapter{Time: t, Title: truncateRunes(title, maxTitleRunes)})
}

func capChapters(chapters []models.Chapter, max int) []models.Chapter {
	if chapters == nil {
		return []models.Chapter{}
	}
	if max > 0 && len(chapters) > max {
		return chapters[:max]
	}
	return chapters
}

// chapterTime accepts "mm:ss" strings or a number of seconds.
func chapterTime(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var secs float64
	if err := json.Unmarshal(raw, &secs); err == nil && secs >= 0 {
		return models.FormatTimestamp(time.Duration(secs * float64(time.Second)))
	}
	return ""
}

// decodeJSON unmarshals content that may be wrapped in a code fence or prose.
func decodeJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	err := json.Unmarshal([]byte(trimmed), target)
	if err == nil {
		return nil
	}
	body := stripCodeFence(trimmed)
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return err
	}
	return json.Unmarshal([]byte(body[start:end+1]), target)
}

func stripCodeFence(content string) string {
	start := strings.Index(content, "```")
	if start < 0 {
		return content
	}
	body := strings.TrimLeft(content[start+3:], " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
	}
	if idx := strings.Index(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
