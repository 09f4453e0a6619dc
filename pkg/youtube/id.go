package youtube

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidVideo is returned when input names no recognizable video.
var ErrInvalidVideo = errors.New("invalid video id or url")

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ValidID reports whether id has the shape of a YouTube video id.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// ExtractVideoID accepts a bare video id or any common YouTube URL form
// (watch, youtu.be, shorts, embed, live) and returns the video id.
func ExtractVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidVideo
	}
	if ValidID(raw) {
		return raw, nil
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrInvalidVideo
	}

	host := strings.ToLower(u.Hostname())
	for _, p := range []string{"www.", "m.", "music."} {
		host = strings.TrimPrefix(host, p)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")

	var id string
	switch host {
	case "youtu.be":
		id = parts[0]
	case "youtube.com", "youtube-nocookie.com":
		switch parts[0] {
		case "watch":
			id = u.Query().Get("v")
		case "shorts", "embed", "live", "v":
			if len(parts) > 1 {
				id = parts[1]
			}
		}
	}

	if !ValidID(id) {
		return "", ErrInvalidVideo
	}
	return id, nil
}

// WatchURL returns the canonical watch URL for a video id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
