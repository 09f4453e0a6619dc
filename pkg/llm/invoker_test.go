package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pario-ai/recap/pkg/logging"
	"github.com/pario-ai/recap/pkg/models"
)

type fakeBackend struct {
	out    string
	err    error
	block  bool
	prompt string
	model  string
}

func (f *fakeBackend) Generate(ctx context.Context, model, prompt string) (string, error) {
	f.model = model
	f.prompt = prompt
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.out, f.err
}

func newInvoker(b Backend, opts ...Option) *Invoker {
	return NewInvoker(b, append([]Option{WithLogger(logging.Discard())}, opts...)...)
}

func TestInvokerStructured(t *testing.T) {
	b := &fakeBackend{out: `{"summary":"Hi.","chapters":[{"time":"00:00","title":"Start"}]}`}
	res := newInvoker(b).Generate(context.Background(), "gemma3:1b", "hello world", "en")

	if res.Outcome != models.ParseStructured || res.Summary != "Hi." {
		t.Fatalf("unexpected result %+v", res)
	}
	if b.model != "gemma3:1b" {
		t.Errorf("model not forwarded: %q", b.model)
	}
	if !strings.Contains(b.prompt, "hello world") || !strings.Contains(b.prompt, "English") {
		t.Errorf("prompt missing transcript or language: %q", b.prompt)
	}
}

func TestInvokerTruncatesTranscript(t *testing.T) {
	b := &fakeBackend{out: `{"summary":"ok"}`}
	transcript := strings.Repeat("a", 50) + strings.Repeat("z", 50)
	newInvoker(b, WithMaxTranscriptChars(50)).Generate(context.Background(), "m", transcript, "en")

	if strings.Contains(b.prompt, "z") {
		t.Error("transcript beyond the limit should not reach the prompt")
	}
}

func TestInvokerTimeout(t *testing.T) {
	b := &fakeBackend{block: true}
	start := time.Now()
	res := newInvoker(b, WithTimeout(20*time.Millisecond)).Generate(context.Background(), "m", "text", "en")

	if time.Since(start) > time.Second {
		t.Fatal("timeout was not enforced")
	}
	if res.Outcome != models.ParseError || res.HasSummary() || len(res.Chapters) != 0 {
		t.Errorf("expected error outcome, got %+v", res)
	}
	if res.FailureReason != FailureTimeout {
		t.Errorf("expected timeout reason, got %q", res.FailureReason)
	}
}

func TestInvokerFailureReasons(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&StatusError{StatusCode: 503, Body: "busy"}, FailureUpstreamStatus},
		{ErrEmptyOutput, FailureEmptyOutput},
		{errors.New("connection refused"), FailureUpstreamError},
	}
	for _, tt := range tests {
		res := newInvoker(&fakeBackend{err: tt.err}).Generate(context.Background(), "m", "text", "en")
		if res.Outcome != models.ParseError || res.FailureReason != tt.want {
			t.Errorf("%v: got outcome %s reason %q", tt.err, res.Outcome, res.FailureReason)
		}
	}
}

type panicBackend struct{}

func (panicBackend) Generate(context.Context, string, string) (string, error) { panic("boom") }

func TestInvokerRecoversPanic(t *testing.T) {
	res := newInvoker(panicBackend{}).Generate(context.Background(), "m", "text", "en")
	if res.Outcome != models.ParseError {
		t.Errorf("expected error outcome, got %+v", res)
	}
}

func TestInvokerChapterCap(t *testing.T) {
	var lines []string
	for i := 0; i < 50; i++ {
		lines = append(lines, "00:"+twoDigits(i)+" - Chapter")
	}
	b := &fakeBackend{out: "TLDR: fine\nChapters:\n" + strings.Join(lines, "\n")}
	res := newInvoker(b).Generate(context.Background(), "m", "text", "en")
	if len(res.Chapters) != defaultMaxChapters {
		t.Errorf("expected %d chapters, got %d", defaultMaxChapters, len(res.Chapters))
	}
}

func twoDigits(i int) string {
	return string([]byte{byte('0' + i/10%10), byte('0' + i%10)})
}
