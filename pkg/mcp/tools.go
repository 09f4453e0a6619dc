package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/pario-ai/recap/pkg/models"
)

const (
	toolSummarize  = "recap_summarize"
	toolStats      = "recap_stats"
	toolCacheStats = "recap_cache_stats"
)

type toolHandler func(ctx context.Context, s *Server, args json.RawMessage) ToolResult

var handlers = map[string]toolHandler{
	toolSummarize:  handleSummarize,
	toolStats:      handleStats,
	toolCacheStats: handleCacheStats,
}

var allTools = []Tool{
	{
		Name:        toolSummarize,
		Description: "Summarize a YouTube video into a TL;DR and timestamped chapters.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url": map[string]any{
					"type":        "string",
					"description": "Video URL or 11-character video id",
				},
				"lang": map[string]any{
					"type":        "string",
					"description": "Preferred transcript and summary language (optional)",
				},
				"model": map[string]any{
					"type":        "string",
					"description": "Generation model override (optional)",
				},
			},
			"required": []string{"url"},
		},
	},
	{
		Name:        toolStats,
		Description: "Request outcomes grouped by model, status and cache status.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"since_hours": map[string]any{
					"type":        "number",
					"description": "Only include requests from the last N hours (optional)",
				},
			},
		},
	},
	{
		Name:        toolCacheStats,
		Description: "Durable summary cache statistics.",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
	},
}

// tools lists the tools whose backing source is configured.
func (s *Server) tools() []Tool {
	out := make([]Tool, 0, len(allTools))
	for _, t := range allTools {
		if s.enabled(t.Name) {
			out = append(out, t)
		}
	}
	return out
}

func (s *Server) enabled(name string) bool {
	switch name {
	case toolStats:
		return s.stats != nil
	case toolCacheStats:
		return s.cache != nil
	}
	return true
}

type summarizeArgs struct {
	URL   string `json:"url"`
	Lang  string `json:"lang"`
	Model string `json:"model"`
}

func handleSummarize(ctx context.Context, s *Server, raw json.RawMessage) ToolResult {
	var args summarizeArgs
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return errorResult("invalid arguments", err)
		}
	}
	if args.URL == "" {
		return errorResult("invalid arguments", errors.New("url is required"))
	}
	resp, err := s.sum.Summarize(ctx, models.SummaryRequest{
		Subject:  args.URL,
		Language: args.Lang,
		Model:    args.Model,
	})
	if err != nil {
		return errorResult("summarize failed", err)
	}
	return textResult(formatSummary(resp))
}

type statsArgs struct {
	SinceHours float64 `json:"since_hours"`
}

func handleStats(ctx context.Context, s *Server, raw json.RawMessage) ToolResult {
	var args statsArgs
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &args)
	}
	var since time.Time
	if args.SinceHours > 0 {
		since = time.Now().Add(-time.Duration(args.SinceHours * float64(time.Hour)))
	}
	rows, err := s.stats.Summary(ctx, since)
	if err != nil {
		return errorResult("fetching stats", err)
	}
	return textResult(formatStats(rows))
}

func handleCacheStats(ctx context.Context, s *Server, _ json.RawMessage) ToolResult {
	stats, err := s.cache.Stats(ctx)
	if err != nil {
		return errorResult("fetching cache stats", err)
	}
	return textResult(formatCacheStats(stats))
}
