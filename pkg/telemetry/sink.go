// Package telemetry records request outcome events without ever blocking or
// failing the request that produced them.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pario-ai/recap/pkg/models"
)

const (
	defaultQueueSize    = 256
	defaultWriteTimeout = 5 * time.Second
)

// Writer persists a single event.
type Writer interface {
	WriteEvent(ctx context.Context, ev models.TelemetryEvent) error
}

// Sink queues events and hands them to a Writer on a background goroutine.
type Sink struct {
	writer       Writer
	queue        chan models.TelemetryEvent
	logger       *slog.Logger
	writeTimeout time.Duration
	now          func() time.Time

	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	dropped atomic.Int64
	failed  atomic.Int64
}

// Option customizes a Sink.
type Option func(*Sink)

// WithQueueSize sets how many events may wait for the writer.
func WithQueueSize(n int) Option {
	return func(s *Sink) {
		if n > 0 {
			s.queue = make(chan models.TelemetryEvent, n)
		}
	}
}

// WithWriteTimeout bounds each write.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Sink) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// WithLogger sets the logger used for drop and failure warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sink) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSink starts a sink draining into w.
func NewSink(w Writer, opts ...Option) *Sink {
	s := &Sink{
		writer:       w,
		queue:        make(chan models.TelemetryEvent, defaultQueueSize),
		logger:       slog.Default(),
		writeTimeout: defaultWriteTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(1)
	go s.run()
	return s
}

// Record enqueues ev. It never blocks: when the queue is full or the sink is
// closed the event is dropped.
func (s *Sink) Record(ev models.TelemetryEvent) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = s.now().UTC()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return
	}
	select {
	case s.queue <- ev:
	default:
		s.dropped.Add(1)
		s.logger.Warn("telemetry queue full, dropping event", "subject", ev.SubjectID, "status", ev.Status)
	}
}

// Dropped returns how many events were discarded without being written.
func (s *Sink) Dropped() int64 { return s.dropped.Load() }

// Failed returns how many writes returned an error.
func (s *Sink) Failed() int64 { return s.failed.Load() }

// Close stops accepting events and waits until queued events are written.
func (s *Sink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

func (s *Sink) run() {
	defer s.wg.Done()
	for ev := range s.queue {
		s.write(ev)
	}
}

func (s *Sink) write(ev models.TelemetryEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			s.failed.Add(1)
			s.logger.Warn("telemetry writer panicked", "panic", r)
		}
	}()

	if err := s.writer.WriteEvent(ctx, ev); err != nil {
		s.failed.Add(1)
		s.logger.Warn("telemetry write failed", "subject", ev.SubjectID, "error", err)
	}
}
