package mcp

import (
	"fmt"
	"strings"

	"github.com/pario-ai/recap/pkg/models"
)

func formatSummary(r *models.CachedResponse) string {
	var b strings.Builder
	if r.Title != nil && *r.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", *r.Title)
	}
	b.WriteString(r.Summary)
	b.WriteString("\n")
	if len(r.Chapters) > 0 {
		b.WriteString("\nChapters:\n")
		for _, c := range r.Chapters {
			fmt.Fprintf(&b, "  %s  %s\n", c.Time, c.Title)
		}
	}
	fmt.Fprintf(&b, "\nModel: %s", r.Model)
	if r.Cached {
		b.WriteString(" (cached)")
	}
	if r.Reason != "" {
		fmt.Fprintf(&b, "\nReason: %s", r.Reason)
	}
	b.WriteString("\n")
	return b.String()
}

func formatStats(rows []models.TelemetrySummary) string {
	if len(rows) == 0 {
		return "No requests recorded."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-24s %-8s %-6s %10s %10s\n", "MODEL", "STATUS", "CACHE", "REQUESTS", "AVG MS")
	var total int64
	for _, r := range rows {
		fmt.Fprintf(&b, "%-24s %-8s %-6s %10d %10.0f\n", r.Model, r.Status, r.CacheStatus, r.Count, r.AvgDurationMs)
		total += r.Count
	}
	fmt.Fprintf(&b, "\nTotal requests: %d\n", total)
	return b.String()
}

func formatCacheStats(s models.CacheStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Entries: %d\n", s.Entries)
	fmt.Fprintf(&b, "Hits:    %d\n", s.Hits)
	fmt.Fprintf(&b, "Misses:  %d\n", s.Misses)
	if total := s.Hits + s.Misses; total > 0 {
		fmt.Fprintf(&b, "Hit rate: %.1f%%\n", float64(s.Hits)/float64(total)*100)
	}
	return b.String()
}
