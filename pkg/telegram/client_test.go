package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestClientSendMessage(t *testing.T) {
	var path string
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	c := NewClient("bot123:ABC", srv.URL, 0)
	if err := c.SendMessage(context.Background(), 42, strings.Repeat("x", 5000)); err != nil {
		t.Fatal(err)
	}
	if path != "/bot123:ABC/sendMessage" {
		t.Errorf("unexpected path %q", path)
	}
	if body["chat_id"] != float64(42) || body["parse_mode"] != "HTML" {
		t.Errorf("unexpected body %v", body)
	}
	if n := utf8.RuneCountInString(body["text"].(string)); n != MaxMessageLen {
		t.Errorf("expected text truncated to %d, got %d", MaxMessageLen, n)
	}
}

func TestClientAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	err := NewClient("123:ABC", srv.URL, 0).SendMessage(context.Background(), 1, "hi")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("expected API description in error, got %v", err)
	}
}

func TestClientInvoice(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	url := "https://youtu.be/dQw4w9WgXcQ"
	if err := NewClient("123:ABC", srv.URL, 0).SendInvoice(context.Background(), 7, url, 100); err != nil {
		t.Fatal(err)
	}
	if body["payload"] != url || body["currency"] != "XTR" {
		t.Errorf("unexpected invoice %v", body)
	}
	prices := body["prices"].([]any)
	if prices[0].(map[string]any)["amount"] != float64(100) {
		t.Errorf("unexpected prices %v", prices)
	}
}
