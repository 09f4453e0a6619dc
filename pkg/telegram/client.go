// Package telegram serves the bot webhook: it turns /tldr commands and Stars
// payments into summaries sent back to the chat.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	defaultAPIURL = "https://api.telegram.org"
	// MaxMessageLen keeps messages under Telegram's 4096 character limit.
	MaxMessageLen = 3800
)

// Client calls the Bot API. Calls are paced by a shared rate limiter.
type Client struct {
	token   string
	apiURL  string
	http    *resty.Client
	limiter *rate.Limiter
}

// NewClient creates a Bot API client. A token pasted with its "bot" prefix
// is accepted. ratePerSecond <= 0 disables pacing.
func NewClient(token, apiURL string, ratePerSecond float64) *Client {
	token = strings.TrimSpace(token)
	if len(token) > 3 && strings.EqualFold(token[:3], "bot") {
		token = token[3:]
	}
	apiURL = strings.TrimRight(strings.TrimSpace(apiURL), "/")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if ratePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSecond), 1)
	}
	return &Client{token: token, apiURL: apiURL, http: resty.New(), limiter: limiter}
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (c *Client) call(ctx context.Context, method string, body any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	resp, err := c.http.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(c.apiURL + "/bot" + c.token + "/" + method)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	var out apiResponse
	_ = json.Unmarshal(resp.Body(), &out)
	if resp.IsError() || !out.OK {
		desc := out.Description
		if desc == "" {
			desc = resp.Status()
		}
		return fmt.Errorf("%s: telegram error: %s", method, desc)
	}
	return nil
}

// SendMessage sends an HTML message, truncated to MaxMessageLen.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	return c.call(ctx, "sendMessage", map[string]any{
		"chat_id":                  chatID,
		"text":                     Truncate(text, MaxMessageLen),
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	})
}

// SendInvoice asks the chat to pay stars Telegram Stars. The payload comes
// back with the successful payment.
func (c *Client) SendInvoice(ctx context.Context, chatID int64, payload string, stars int) error {
	return c.call(ctx, "sendInvoice", map[string]any{
		"chat_id":         chatID,
		"title":           "Video TL;DR + chapters",
		"description":     "Summary and chapters for: " + Truncate(payload, 120),
		"payload":         payload,
		"currency":        "XTR",
		"prices":          []map[string]any{{"label": "1 video", "amount": stars}},
		"start_parameter": "tldr",
	})
}

// AnswerPreCheckout confirms or rejects a pending payment.
func (c *Client) AnswerPreCheckout(ctx context.Context, queryID string, ok bool) error {
	body := map[string]any{
		"pre_checkout_query_id": queryID,
		"ok":                    ok,
	}
	if !ok {
		body["error_message"] = "Payment cannot be processed right now."
	}
	return c.call(ctx, "answerPreCheckoutQuery", body)
}
