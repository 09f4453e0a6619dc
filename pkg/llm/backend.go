// Package llm turns transcripts into summaries and chapters through a
// text-generation backend.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider types accepted by NewBackend.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// ErrEmptyOutput is returned by a backend that answered without text.
var ErrEmptyOutput = errors.New("empty output from model")

// Backend produces raw model output for a prompt.
type Backend interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// StatusError reports a non-2xx answer from the backend.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("llm request: http %d: %s", e.StatusCode, body)
}

// NewBackend builds the backend for a provider type.
func NewBackend(kind, baseURL, apiKey string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", ProviderOllama:
		return NewOllama(baseURL), nil
	case ProviderOpenAI:
		return NewOpenAI(baseURL, apiKey), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", kind)
	}
}
