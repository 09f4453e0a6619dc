// Package youtube adapts YouTube's oEmbed, caption and Data API endpoints to
// the metadata source and transcript strategies used by the summarizer.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/pario-ai/recap/pkg/models"
)

const defaultTimeout = 10 * time.Second

// Config captures the endpoints and credentials used to talk to YouTube.
type Config struct {
	BaseURL    string
	DataAPIURL string
	APIKey     string
	Timeout    time.Duration
}

// Client talks to YouTube over HTTP.
type Client struct {
	cfg  Config
	http *resty.Client
}

// NewClient constructs a client using the supplied configuration.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.DataAPIURL = strings.TrimRight(strings.TrimSpace(cfg.DataAPIURL), "/")
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.youtube.com"
	}
	if cfg.DataAPIURL == "" {
		cfg.DataAPIURL = "https://www.googleapis.com/youtube/v3"
	}
	return &Client{
		cfg:  cfg,
		http: resty.New().SetTimeout(timeout),
	}
}

// FetchMetadata returns the oEmbed title of a video.
func (c *Client) FetchMetadata(ctx context.Context, videoID string) (models.Metadata, error) {
	resp, err := c.http.R().SetContext(ctx).
		SetQueryParams(map[string]string{
			"format": "json",
			"url":    WatchURL(videoID),
		}).
		Get(c.cfg.BaseURL + "/oembed")
	if err != nil {
		return models.Metadata{}, fmt.Errorf("oembed: %w", err)
	}
	if resp.IsError() {
		return models.Metadata{}, fmt.Errorf("oembed: %s", resp.Status())
	}

	var meta models.Metadata
	if err := json.Unmarshal(resp.Body(), &meta); err != nil {
		return models.Metadata{}, fmt.Errorf("oembed: decode: %w", err)
	}
	meta.Title = strings.TrimSpace(meta.Title)
	return meta, nil
}

type json3Track struct {
	Events []struct {
		StartMs int64 `json:"tStartMs"`
		Segs    []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// fetchTrack downloads one caption track in json3 format. A missing track is
// reported as no segments and no error.
func (c *Client) fetchTrack(ctx context.Context, videoID, lang, kind string) ([]models.Segment, error) {
	params := map[string]string{
		"v":    videoID,
		"lang": lang,
		"fmt":  "json3",
	}
	if kind != "" {
		params["kind"] = kind
	}

	resp, err := c.http.R().SetContext(ctx).SetQueryParams(params).Get(c.cfg.BaseURL + "/api/timedtext")
	if err != nil {
		return nil, fmt.Errorf("timedtext: %w", err)
	}
	if resp.StatusCode() == 404 {
		return nil, nil
	}
	if resp.IsError() {
		return nil, fmt.Errorf("timedtext: %s", resp.Status())
	}
	body := resp.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}

	var track json3Track
	if err := json.Unmarshal(body, &track); err != nil {
		return nil, fmt.Errorf("timedtext: decode: %w", err)
	}

	segments := make([]models.Segment, 0, len(track.Events))
	for _, ev := range track.Events {
		var b strings.Builder
		for _, s := range ev.Segs {
			b.WriteString(s.UTF8)
		}
		text := strings.Join(strings.Fields(b.String()), " ")
		if text == "" {
			continue
		}
		segments = append(segments, models.Segment{
			Start: time.Duration(ev.StartMs) * time.Millisecond,
			Text:  text,
		})
	}
	return segments, nil
}
