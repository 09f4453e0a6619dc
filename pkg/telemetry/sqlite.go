package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/pario-ai/recap/pkg/models"
)

const createEventsTable = `
CREATE TABLE IF NOT EXISTS telemetry_events (
	id TEXT PRIMARY KEY,
	subject_id TEXT NOT NULL,
	status TEXT NOT NULL,
	language TEXT NOT NULL,
	model TEXT NOT NULL,
	cache_status TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	transcript_length INTEGER NOT NULL,
	response_length INTEGER NOT NULL,
	failure_reason TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_telemetry_created ON telemetry_events(created_at);
CREATE INDEX IF NOT EXISTS idx_telemetry_model ON telemetry_events(model, status);
`

// SQLiteWriter stores events in SQLite and prunes them after the retention
// period.
type SQLiteWriter struct {
	db        *sql.DB
	sq        sq.StatementBuilderType
	retention time.Duration
	now       func() time.Time
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewSQLiteWriter opens the events database at dbPath. retentionDays <= 0
// keeps events forever.
func NewSQLiteWriter(dbPath string, retentionDays int) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open telemetry db: %w", err)
	}
	if _, err := db.Exec(createEventsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate telemetry db: %w", err)
	}

	w := &SQLiteWriter{
		db:   db,
		sq:   sq.StatementBuilder,
		now:  time.Now,
		done: make(chan struct{}),
	}
	if retentionDays > 0 {
		w.retention = time.Duration(retentionDays) * 24 * time.Hour
		w.wg.Add(1)
		go w.retentionLoop()
	}
	return w, nil
}

// WriteEvent inserts ev.
func (w *SQLiteWriter) WriteEvent(ctx context.Context, ev models.TelemetryEvent) error {
	q, args, err := w.sq.Insert("telemetry_events").
		Columns(
			"id",
			"subject_id",
			"status",
			"language",
			"model",
			"cache_status",
			"duration_ms",
			"transcript_length",
			"response_length",
			"failure_reason",
			"created_at",
		).
		Values(
			ev.ID,
			ev.SubjectID,
			string(ev.Status),
			ev.Language,
			ev.Model,
			string(ev.CacheStatus),
			ev.DurationMs,
			ev.TranscriptLength,
			ev.ResponseLength,
			ev.FailureReason,
			ev.CreatedAt.UnixMilli(),
		).
		Suffix("ON CONFLICT(id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := w.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert telemetry event: %w", err)
	}
	return nil
}

// Summary aggregates events created at or after since, grouped by model,
// status and cache status. A zero since covers every stored event.
func (w *SQLiteWriter) Summary(ctx context.Context, since time.Time) ([]models.TelemetrySummary, error) {
	b := w.sq.Select("model", "status", "cache_status", "COUNT(*)", "AVG(duration_ms)").
		From("telemetry_events").
		GroupBy("model", "status", "cache_status").
		OrderBy("COUNT(*) DESC", "model", "status")
	if !since.IsZero() {
		b = b.Where(sq.GtOrEq{"created_at": since.UnixMilli()})
	}
	q, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build summary: %w", err)
	}

	rows, err := w.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("telemetry summary: %w", err)
	}
	defer rows.Close()

	var out []models.TelemetrySummary
	for rows.Next() {
		var s models.TelemetrySummary
		var status, cacheStatus string
		var avg sql.NullFloat64
		if err := rows.Scan(&s.Model, &status, &cacheStatus, &s.Count, &avg); err != nil {
			return nil, fmt.Errorf("scan telemetry summary: %w", err)
		}
		s.Status = models.TelemetryStatus(status)
		s.CacheStatus = models.CacheStatus(cacheStatus)
		s.AvgDurationMs = avg.Float64
		out = append(out, s)
	}
	return out, rows.Err()
}

// Cleanup deletes events older than the retention period.
func (w *SQLiteWriter) Cleanup(ctx context.Context) (int64, error) {
	if w.retention <= 0 {
		return 0, nil
	}
	cutoff := w.now().Add(-w.retention).UnixMilli()
	q, args, err := w.sq.Delete("telemetry_events").Where(sq.Lt{"created_at": cutoff}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build cleanup: %w", err)
	}
	res, err := w.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("telemetry cleanup: %w", err)
	}
	return res.RowsAffected()
}

// Close stops the retention goroutine and closes the database.
func (w *SQLiteWriter) Close() error {
	close(w.done)
	w.wg.Wait()
	return w.db.Close()
}

func (w *SQLiteWriter) retentionLoop() {
	defer w.wg.Done()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			_, _ = w.Cleanup(context.Background())
		}
	}
}
