package telemetry

import (
	"context"
	"log/slog"

	"github.com/pario-ai/recap/pkg/models"
)

// LogWriter writes events as structured log lines.
type LogWriter struct {
	logger *slog.Logger
}

// NewLogWriter returns a writer logging through l, or slog.Default when nil.
func NewLogWriter(l *slog.Logger) *LogWriter {
	if l == nil {
		l = slog.Default()
	}
	return &LogWriter{logger: l}
}

func (w *LogWriter) WriteEvent(ctx context.Context, ev models.TelemetryEvent) error {
	w.logger.LogAttrs(ctx, slog.LevelInfo, "telemetry",
		slog.String("id", ev.ID),
		slog.String("subject", ev.SubjectID),
		slog.String("status", string(ev.Status)),
		slog.String("lang", ev.Language),
		slog.String("model", ev.Model),
		slog.String("cache", string(ev.CacheStatus)),
		slog.Int64("duration_ms", ev.DurationMs),
		slog.Int("transcript_length", ev.TranscriptLength),
		slog.Int("response_length", ev.ResponseLength),
		slog.String("reason", ev.FailureReason),
	)
	return nil
}
