package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/pario-ai/recap/pkg/models"
)

const defaultOllamaURL = "http://localhost:11434"

// Ollama calls a local Ollama server's /api/generate endpoint.
type Ollama struct {
	baseURL string
	http    *resty.Client
}

// NewOllama creates an Ollama backend. An empty baseURL uses localhost.
func NewOllama(baseURL string) *Ollama {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	return &Ollama{baseURL: baseURL, http: resty.New()}
}

func (o *Ollama) Generate(ctx context.Context, model, prompt string) (string, error) {
	req := models.OllamaGenerateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
		Options: map[string]any{
			"temperature": 0.7,
			"top_p":       0.9,
			"num_ctx":     2048,
			"num_predict": 500,
		},
	}

	resp, err := o.http.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(o.baseURL + "/api/generate")
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	if resp.IsError() {
		return "", &StatusError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	var out models.OllamaGenerateResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("ollama generate: decode: %w", err)
	}
	if strings.TrimSpace(out.Response) == "" {
		return "", ErrEmptyOutput
	}
	return out.Response, nil
}
