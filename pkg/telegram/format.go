package telegram

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pario-ai/recap/pkg/models"
)

const maxChapters = 20

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Truncate cuts s to at most max runes, ending with an ellipsis when cut.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}

// FormatResult renders a summary response as a Telegram HTML message.
func FormatResult(resp *models.CachedResponse) string {
	if resp == nil || !resp.Success || resp.Summary == "" {
		return "😕 Could not build a TL;DR for this video."
	}

	title := resp.SubjectID
	if resp.Title != nil && *resp.Title != "" {
		title = *resp.Title
	}

	lines := make([]string, 0, maxChapters)
	for i, ch := range resp.Chapters {
		if i == maxChapters {
			break
		}
		t := strings.TrimSpace(ch.Time)
		if t == "" {
			t = "00:00"
		}
		name := strings.TrimSpace(ch.Title)
		if name == "" {
			name = "Untitled"
		}
		lines = append(lines, fmt.Sprintf("%d. %s — %s", i+1, t, name))
	}
	chapters := "No chapters found"
	if len(lines) > 0 {
		chapters = strings.Join(lines, "\n")
	}

	msg := fmt.Sprintf("🎬 <b>%s</b>\n\n<b>📝 TL;DR</b>\n%s\n\n<b>📖 Chapters</b>\n%s",
		htmlEscaper.Replace(title),
		htmlEscaper.Replace(strings.TrimSpace(resp.Summary)),
		htmlEscaper.Replace(chapters),
	)
	msg = Truncate(msg, MaxMessageLen)

	if resp.ResponseTimeMs != nil {
		note := "⚡️ cached"
		if !resp.Cached {
			note = fmt.Sprintf("⚡️ generated in %d ms", *resp.ResponseTimeMs)
		}
		msg = Truncate(msg+"\n\n<i>"+note+"</i>", MaxMessageLen)
	}
	return msg
}
