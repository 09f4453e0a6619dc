package fingerprint

import (
	"strings"
	"testing"
)

func TestComputeKeyDeterministic(t *testing.T) {
	k1 := ComputeKey("dQw4w9WgXcQ", "en", "m1", "hello world")
	k2 := ComputeKey("dQw4w9WgXcQ", "en", "m1", "hello world")
	if k1 != k2 {
		t.Errorf("same input should produce same key: %s != %s", k1, k2)
	}
	if !strings.HasPrefix(k1, "tldr:dQw4w9WgXcQ:en:m1:") {
		t.Errorf("unexpected key shape: %s", k1)
	}
}

func TestComputeKeyContentAddressed(t *testing.T) {
	base := ComputeKey("vid", "en", "m1", "hello world")

	tests := []struct {
		name string
		key  string
	}{
		{"transcript", ComputeKey("vid", "en", "m1", "hello there")},
		{"subject", ComputeKey("vid2", "en", "m1", "hello world")},
		{"language", ComputeKey("vid", "ru", "m1", "hello world")},
		{"model", ComputeKey("vid", "en", "m2", "hello world")},
		{"empty transcript", ComputeKey("vid", "en", "m1", "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.key == base {
				t.Errorf("changing %s should change the key", tt.name)
			}
		})
	}
}

func TestComputeKeyModelWithColon(t *testing.T) {
	a := ComputeKey("vid", "en", "gemma3:1b", "text")
	b := ComputeKey("vid", "en:gemma3", "1b", "text")
	if a == b {
		t.Error("colon in model id must not alias another tuple")
	}
}

func TestComputeKeyEmptyTranscript(t *testing.T) {
	k := ComputeKey("vid", "en", "m1", "")
	if k != ComputeKey("vid", "en", "m1", "  \r\n ") {
		t.Error("whitespace-only transcript should normalize to the empty key")
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize(" a\r\nb\rc \n"); got != "a\nb\nc" {
		t.Errorf("unexpected normalization: %q", got)
	}
	if Digest("a\r\nb") != Digest("a\nb") {
		t.Error("line endings should not affect the digest")
	}
	if len(Digest("x")) != 64 {
		t.Error("digest should be fixed-width hex")
	}
}

func TestLanguage(t *testing.T) {
	tests := map[string]string{
		"en":     "en",
		" EN ":   "en",
		"en-us":  "en-US",
		"ru":     "ru",
		"":       "",
		"!!bad!": "!!bad!",
	}
	for in, want := range tests {
		if got := Language(in); got != want {
			t.Errorf("Language(%q) = %q, want %q", in, got, want)
		}
	}
}
