// Package fingerprint derives content-addressed cache keys for summaries.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"

	"golang.org/x/text/language"
)

const keyPrefix = "tldr"

// ComputeKey returns the cache key for a summary of subjectID in lang produced
// by model from transcriptText. The key embeds a SHA-256 digest of the
// normalized transcript, so a changed upstream transcript yields a new key.
func ComputeKey(subjectID, lang, model, transcriptText string) string {
	return strings.Join([]string{
		keyPrefix,
		url.QueryEscape(subjectID),
		url.QueryEscape(lang),
		url.QueryEscape(model),
		Digest(transcriptText),
	}, ":")
}

// Digest computes the hex SHA-256 of the normalized text.
func Digest(text string) string {
	sum := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])
}

// Normalize unifies line endings and trims surrounding whitespace.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.TrimSpace(text)
}

// Language canonicalizes a BCP 47 tag ("EN-us" -> "en-US"). Unparseable input
// is lowercased and trimmed so the key stays deterministic.
func Language(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	t, err := language.Parse(tag)
	if err != nil {
		return strings.ToLower(tag)
	}
	return t.String()
}
