// Package server exposes the summarizer over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pario-ai/recap/pkg/models"
	"github.com/pario-ai/recap/pkg/summarizer"
)

// CacheHeader reports whether a response was served from cache.
const CacheHeader = "X-Recap-Cache"

// Summarizer answers summary requests.
type Summarizer interface {
	Summarize(ctx context.Context, req models.SummaryRequest) (*models.CachedResponse, error)
}

// Server is the recap HTTP API.
type Server struct {
	listen     string
	cacheTTL   time.Duration
	summarizer Summarizer
	webhook    http.Handler
	logger     *slog.Logger
	now        func() time.Time
	handler    http.Handler
}

// Option customizes a Server.
type Option func(*Server)

// WithTelegram mounts the bot webhook at /tg/webhook.
func WithTelegram(h http.Handler) Option {
	return func(s *Server) { s.webhook = h }
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCacheTTL sets the max-age advertised on summary responses.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Server) { s.cacheTTL = ttl }
}

// New creates a Server listening on listen.
func New(listen string, sum Summarizer, opts ...Option) *Server {
	s := &Server{
		listen:     listen,
		summarizer: sum,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/build", s.handleBuild)
	mux.HandleFunc("/health", s.handleHealth)
	if s.webhook != nil {
		mux.Handle("/tg/webhook", s.webhook)
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSONError(w, http.StatusNotFound, "not found")
	})
	s.handler = s.recoverer(withCORS(mux))
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listen,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("recap listening", "addr", s.listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	subject := firstNonEmpty(q.Get("url"), q.Get("subjectId"), q.Get("videoId"))
	if subject == "" {
		writeJSONError(w, http.StatusBadRequest, "missing url or videoId parameter")
		return
	}

	resp, err := s.summarizer.Summarize(r.Context(), models.SummaryRequest{
		Subject:  subject,
		Language: q.Get("lang"),
		Model:    q.Get("model"),
	})
	if err != nil {
		if errors.Is(err, summarizer.ErrInvalidSubject) {
			writeJSONError(w, http.StatusBadRequest, "invalid YouTube URL or video id")
			return
		}
		s.logger.Error("summarize failed", "subject", subject, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if resp.Cached {
		w.Header().Set(CacheHeader, "hit")
	} else {
		w.Header().Set(CacheHeader, "miss")
	}
	if s.cacheTTL > 0 {
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(s.cacheTTL.Seconds())))
	} else {
		w.Header().Set("Cache-Control", "no-store")
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panicked", "path", r.URL.Path, "panic", rec)
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]any{"success": false, "error": message})
}
