package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pario-ai/recap/pkg/models"
)

func TestOllamaGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req models.OllamaGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Error(err)
			return
		}
		if req.Stream || req.Model != "gemma3:1b" || req.Options["num_predict"] != float64(500) {
			t.Errorf("unexpected request %+v", req)
		}
		json.NewEncoder(w).Encode(models.OllamaGenerateResponse{Model: req.Model, Response: "output", Done: true})
	}))
	defer srv.Close()

	out, err := NewOllama(srv.URL).Generate(context.Background(), "gemma3:1b", "prompt")
	if err != nil {
		t.Fatal(err)
	}
	if out != "output" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestOllamaEmptyAndStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/down/") {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"response":"  ","done":true}`))
	}))
	defer srv.Close()

	if _, err := NewOllama(srv.URL).Generate(context.Background(), "m", "p"); !errors.Is(err, ErrEmptyOutput) {
		t.Errorf("expected ErrEmptyOutput, got %v", err)
	}

	var statusErr *StatusError
	if _, err := NewOllama(srv.URL+"/down").Generate(context.Background(), "m", "p"); !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
		t.Errorf("expected StatusError 502, got %v", err)
	}
}

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Error("expected bearer token")
		}
		var req models.ChatCompletionRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) != 1 || req.Messages[0].Content != "prompt" {
			t.Errorf("unexpected messages %+v", req.Messages)
		}
		json.NewEncoder(w).Encode(models.ChatCompletionResponse{
			ID:      "chatcmpl-1",
			Model:   req.Model,
			Choices: []models.Choice{{Message: models.ChatMessage{Role: "assistant", Content: "answer"}}},
		})
	}))
	defer srv.Close()

	out, err := NewOpenAI(srv.URL, "sk-test").Generate(context.Background(), "gpt-4o-mini", "prompt")
	if err != nil {
		t.Fatal(err)
	}
	if out != "answer" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestNewBackend(t *testing.T) {
	if b, err := NewBackend("", "", ""); err != nil {
		t.Error(err)
	} else if _, ok := b.(*Ollama); !ok {
		t.Errorf("expected ollama default, got %T", b)
	}
	if b, err := NewBackend("OpenAI", "", "k"); err != nil {
		t.Error(err)
	} else if _, ok := b.(*OpenAI); !ok {
		t.Errorf("expected openai backend, got %T", b)
	}
	if _, err := NewBackend("bedrock", "", ""); err == nil {
		t.Error("expected error for unknown provider")
	}
}
