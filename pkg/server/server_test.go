package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pario-ai/recap/pkg/logging"
	"github.com/pario-ai/recap/pkg/models"
	"github.com/pario-ai/recap/pkg/summarizer"
)

type fakeSummarizer struct {
	last   models.SummaryRequest
	cached bool
	err    error
	panics bool
}

func (f *fakeSummarizer) Summarize(_ context.Context, req models.SummaryRequest) (*models.CachedResponse, error) {
	f.last = req
	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return nil, f.err
	}
	title := "Video"
	return &models.CachedResponse{
		Success:   true,
		SubjectID: "dQw4w9WgXcQ",
		Title:     &title,
		Summary:   "hi",
		Chapters:  []models.Chapter{{Time: "00:00", Title: "intro"}},
		Model:     "m1",
		Cached:    f.cached,
	}, nil
}

func newServer(f *fakeSummarizer, opts ...Option) *Server {
	return New(":0", f, append([]Option{WithLogger(logging.Discard()), WithCacheTTL(2 * time.Hour)}, opts...)...)
}

func get(s http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestBuild(t *testing.T) {
	f := &fakeSummarizer{}
	s := newServer(f)

	w := get(s, "/api/build?url=https://youtu.be/dQw4w9WgXcQ&lang=ru&model=m1")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get(CacheHeader) != "miss" {
		t.Error("expected cache miss header")
	}
	if got := w.Header().Get("Cache-Control"); got != "public, max-age=7200" {
		t.Errorf("unexpected Cache-Control %q", got)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS header")
	}
	if f.last.Subject != "https://youtu.be/dQw4w9WgXcQ" || f.last.Language != "ru" || f.last.Model != "m1" {
		t.Errorf("unexpected request %+v", f.last)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"success", "subjectId", "title", "summary", "chapters", "model", "processedAt", "cached"} {
		if _, ok := body[k]; !ok {
			t.Errorf("response missing %q", k)
		}
	}
}

func TestBuildCacheHitAndVideoID(t *testing.T) {
	f := &fakeSummarizer{cached: true}
	w := get(newServer(f), "/api/build?videoId=dQw4w9WgXcQ")
	if w.Header().Get(CacheHeader) != "hit" {
		t.Error("expected cache hit header")
	}
	if f.last.Subject != "dQw4w9WgXcQ" {
		t.Errorf("videoId not forwarded: %+v", f.last)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		f      *fakeSummarizer
		target string
		method string
		want   int
	}{
		{"missing param", &fakeSummarizer{}, "/api/build", http.MethodGet, http.StatusBadRequest},
		{"invalid subject", &fakeSummarizer{err: fmt.Errorf("%w: bad", summarizer.ErrInvalidSubject)}, "/api/build?url=x", http.MethodGet, http.StatusBadRequest},
		{"internal", &fakeSummarizer{err: errors.New("db gone")}, "/api/build?url=x", http.MethodGet, http.StatusInternalServerError},
		{"panic", &fakeSummarizer{panics: true}, "/api/build?url=x", http.MethodGet, http.StatusInternalServerError},
		{"method", &fakeSummarizer{}, "/api/build?url=x", http.MethodPost, http.StatusMethodNotAllowed},
		{"unknown path", &fakeSummarizer{}, "/nope", http.MethodGet, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newServer(tt.f).ServeHTTP(w, httptest.NewRequest(tt.method, tt.target, nil))
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, w.Code)
			}
			var body struct {
				Success bool   `json:"success"`
				Error   string `json:"error"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Success || body.Error == "" {
				t.Errorf("unexpected error body %s", w.Body.String())
			}
		})
	}
}

func TestPreflight(t *testing.T) {
	w := httptest.NewRecorder()
	newServer(&fakeSummarizer{}).ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/build", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("expected CORS methods header")
	}
}

func TestHealth(t *testing.T) {
	w := get(newServer(&fakeSummarizer{}), "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["status"] != "ok" || body["time"] == "" {
		t.Errorf("unexpected health body %v", body)
	}
}

func TestTelegramMount(t *testing.T) {
	called := false
	hook := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	w := httptest.NewRecorder()
	newServer(&fakeSummarizer{}, WithTelegram(hook)).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tg/webhook", nil))
	if !called || w.Code != http.StatusOK {
		t.Errorf("webhook not mounted: called=%v code=%d", called, w.Code)
	}

	w = httptest.NewRecorder()
	newServer(&fakeSummarizer{}).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tg/webhook", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 without bot token, got %d", w.Code)
	}
}
