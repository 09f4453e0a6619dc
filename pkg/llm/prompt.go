package llm

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const promptTemplate = `Summarize the following video transcript in %s in 2-3 sentences and split it into chapters with timestamps.

Transcript:
%s

Respond with JSON only, in this shape:
{"summary": "<2-3 sentences>", "chapters": [{"time": "00:00", "title": "<chapter title>"}]}`

// BuildPrompt renders the generation prompt. The transcript is cut to
// maxChars runes when maxChars is positive.
func BuildPrompt(transcript, lang string, maxChars int) string {
	return fmt.Sprintf(promptTemplate, languageName(lang), truncateRunes(strings.TrimSpace(transcript), maxChars))
}

func languageName(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return "English"
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return lang
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
