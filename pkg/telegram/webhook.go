package telegram

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pario-ai/recap/pkg/models"
	"github.com/pario-ai/recap/pkg/youtube"
)

// SecretHeader carries the webhook secret set with setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

const (
	welcomeText = "👋 Send me a YouTube link and I will reply with a short summary and chapters.\n\n" +
		"<code>/tldr https://youtube.com/watch?v=...</code>"
	usageText   = "❌ Please put a valid YouTube link after /tldr"
	workingText = "⏳ Working on it..."
)

// Update is the subset of a Telegram update the bot handles.
type Update struct {
	UpdateID         int64             `json:"update_id"`
	Message          *Message          `json:"message,omitempty"`
	PreCheckoutQuery *PreCheckoutQuery `json:"pre_checkout_query,omitempty"`
}

// Message is an incoming chat message, possibly carrying a payment receipt.
type Message struct {
	MessageID         int64              `json:"message_id"`
	Chat              Chat               `json:"chat"`
	Text              string             `json:"text,omitempty"`
	SuccessfulPayment *SuccessfulPayment `json:"successful_payment,omitempty"`
}

// Chat identifies where replies go.
type Chat struct {
	ID int64 `json:"id"`
}

// PreCheckoutQuery asks the bot to confirm an invoice before it is charged.
type PreCheckoutQuery struct {
	ID             string `json:"id"`
	Currency       string `json:"currency"`
	TotalAmount    int    `json:"total_amount"`
	InvoicePayload string `json:"invoice_payload"`
}

// SuccessfulPayment reports a paid invoice. InvoicePayload holds the requested video link.
type SuccessfulPayment struct {
	Currency       string `json:"currency"`
	TotalAmount    int    `json:"total_amount"`
	InvoicePayload string `json:"invoice_payload"`
}

// Messenger is the outbound side of the Bot API.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendInvoice(ctx context.Context, chatID int64, payload string, stars int) error
	AnswerPreCheckout(ctx context.Context, queryID string, ok bool) error
}

// Summarizer answers summary requests.
type Summarizer interface {
	Summarize(ctx context.Context, req models.SummaryRequest) (*models.CachedResponse, error)
}

// Handler is the webhook endpoint. Replies are sent on background goroutines
// so Telegram gets its 200 immediately.
type Handler struct {
	bot        Messenger
	summarizer Summarizer
	secret     string
	priceStars int
	language   string
	jobTimeout time.Duration
	logger     *slog.Logger
	wg         sync.WaitGroup
}

// HandlerOption customizes a Handler.
type HandlerOption func(*Handler)

// WithPrice makes /tldr send a Stars invoice first. stars <= 0 summarizes
// for free.
func WithPrice(stars int) HandlerOption {
	return func(h *Handler) { h.priceStars = stars }
}

// WithLanguage sets the summary language used for bot requests.
func WithLanguage(lang string) HandlerOption {
	return func(h *Handler) { h.language = lang }
}

// WithLogger sets the handler logger.
func WithLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHandler creates the webhook handler. An empty secret accepts every
// request.
func NewHandler(bot Messenger, s Summarizer, secret string, opts ...HandlerOption) *Handler {
	h := &Handler{
		bot:        bot,
		summarizer: s,
		secret:     strings.TrimSpace(secret),
		jobTimeout: 2 * time.Minute,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"ok": false, "error": "method not allowed"})
		return
	}
	if h.secret != "" && r.Header.Get(SecretHeader) != h.secret {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": "unauthorized"})
		return
	}

	var u Update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid update"})
		return
	}

	h.dispatch(u)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Wait blocks until all background replies have finished.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func (h *Handler) dispatch(u Update) {
	switch {
	case u.PreCheckoutQuery != nil:
		id := u.PreCheckoutQuery.ID
		h.async("answer pre-checkout", func(ctx context.Context) error {
			return h.bot.AnswerPreCheckout(ctx, id, true)
		})

	case u.Message != nil && u.Message.SuccessfulPayment != nil:
		chatID := u.Message.Chat.ID
		payload := u.Message.SuccessfulPayment.InvoicePayload
		h.async("paid summary", func(ctx context.Context) error {
			return h.summarize(ctx, chatID, payload)
		})

	case u.Message != nil:
		h.handleText(u.Message.Chat.ID, strings.TrimSpace(u.Message.Text))
	}
}

func (h *Handler) handleText(chatID int64, text string) {
	cmd, arg := splitCommand(text)
	switch cmd {
	case "/start", "/help":
		h.async("welcome", func(ctx context.Context) error {
			return h.bot.SendMessage(ctx, chatID, welcomeText)
		})

	case "/tldr":
		if _, err := youtube.ExtractVideoID(arg); err != nil {
			h.async("usage", func(ctx context.Context) error {
				return h.bot.SendMessage(ctx, chatID, usageText)
			})
			return
		}
		if h.priceStars > 0 {
			h.async("invoice", func(ctx context.Context) error {
				return h.bot.SendInvoice(ctx, chatID, arg, h.priceStars)
			})
			return
		}
		h.async("summary", func(ctx context.Context) error {
			if err := h.bot.SendMessage(ctx, chatID, workingText); err != nil {
				h.logger.Warn("telegram progress message failed", "chat", chatID, "error", err)
			}
			return h.summarize(ctx, chatID, arg)
		})
	}
}

func (h *Handler) summarize(ctx context.Context, chatID int64, subject string) error {
	resp, err := h.summarizer.Summarize(ctx, models.SummaryRequest{Subject: subject, Language: h.language})
	if err != nil {
		h.logger.Warn("telegram summary failed", "chat", chatID, "subject", subject, "error", err)
		return h.bot.SendMessage(ctx, chatID, FormatResult(nil))
	}
	return h.bot.SendMessage(ctx, chatID, FormatResult(resp))
}

func (h *Handler) async(op string, fn func(ctx context.Context) error) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("telegram handler panicked", "op", op, "panic", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), h.jobTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			h.logger.Warn("telegram call failed", "op", op, "error", err)
		}
	}()
}

// splitCommand returns the command (without any @botname suffix) and its
// first argument.
func splitCommand(text string) (cmd, arg string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", ""
	}
	cmd = strings.ToLower(fields[0])
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}
	if len(fields) > 1 {
		arg = fields[1]
	}
	return cmd, arg
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
