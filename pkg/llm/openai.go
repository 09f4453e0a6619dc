package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/pario-ai/recap/pkg/models"
)

const defaultOpenAIURL = "https://api.openai.com"

// OpenAI calls any OpenAI-compatible /v1/chat/completions endpoint.
type OpenAI struct {
	baseURL string
	apiKey  string
	http    *resty.Client
}

// NewOpenAI creates an OpenAI-compatible backend.
func NewOpenAI(baseURL, apiKey string) *OpenAI {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultOpenAIURL
	}
	return &OpenAI{baseURL: baseURL, apiKey: strings.TrimSpace(apiKey), http: resty.New()}
}

func (o *OpenAI) Generate(ctx context.Context, model, prompt string) (string, error) {
	temperature := 0.7
	maxTokens := 500
	req := models.ChatCompletionRequest{
		Model:       model,
		Messages:    []models.ChatMessage{{Role: "user", Content: prompt}},
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	}

	r := o.http.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req)
	if o.apiKey != "" {
		r.SetAuthToken(o.apiKey)
	}
	resp, err := r.Post(o.baseURL + "/v1/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if resp.IsError() {
		return "", &StatusError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	var out models.ChatCompletionResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("chat completion: decode: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", ErrEmptyOutput
	}
	return out.Choices[0].Message.Content, nil
}
