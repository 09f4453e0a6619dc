package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/pario-ai/recap/pkg/models"
)

// Strategy names, as used in configuration.
const (
	StrategyTimedText = "timedtext"
	StrategyDataAPI   = "data_api"
)

// TimedText fetches public caption tracks directly, trying each preferred
// language in order.
type TimedText struct {
	client *Client
}

// TimedText returns the direct caption strategy.
func (c *Client) TimedText() *TimedText {
	return &TimedText{client: c}
}

func (t *TimedText) Name() string { return StrategyTimedText }

func (t *TimedText) Fetch(ctx context.Context, videoID string, languages []string) (models.TranscriptResult, error) {
	for _, lang := range languages {
		segs, err := t.client.fetchTrack(ctx, videoID, lang, "")
		if err != nil {
			return models.TranscriptResult{}, err
		}
		if len(segs) > 0 {
			return models.TranscriptResult{Segments: segs}, nil
		}
	}
	return models.TranscriptResult{Reason: models.ReasonNoSubtitles}, nil
}

// DataAPI lists caption tracks through the YouTube Data API and downloads the
// best match, including auto-generated tracks. It needs an API key.
type DataAPI struct {
	client *Client
}

// DataAPI returns the Data API caption strategy.
func (c *Client) DataAPI() *DataAPI {
	return &DataAPI{client: c}
}

func (d *DataAPI) Name() string { return StrategyDataAPI }

type captionTrack struct {
	Language  string `json:"language"`
	TrackKind string `json:"trackKind"`
}

type captionList struct {
	Items []struct {
		Snippet captionTrack `json:"snippet"`
	} `json:"items"`
}

func (d *DataAPI) Fetch(ctx context.Context, videoID string, languages []string) (models.TranscriptResult, error) {
	c := d.client
	if c.cfg.APIKey == "" {
		return models.TranscriptResult{Reason: models.ReasonUnimplementedSource}, nil
	}

	resp, err := c.http.R().SetContext(ctx).
		SetQueryParams(map[string]string{
			"part":    "snippet",
			"videoId": videoID,
			"key":     c.cfg.APIKey,
		}).
		Get(c.cfg.DataAPIURL + "/captions")
	if err != nil {
		return models.TranscriptResult{}, fmt.Errorf("captions list: %w", err)
	}
	if resp.IsError() {
		return models.TranscriptResult{}, fmt.Errorf("captions list: %s", resp.Status())
	}

	var list captionList
	if err := json.Unmarshal(resp.Body(), &list); err != nil {
		return models.TranscriptResult{}, fmt.Errorf("captions list: decode: %w", err)
	}
	tracks := make([]captionTrack, 0, len(list.Items))
	for _, it := range list.Items {
		tracks = append(tracks, it.Snippet)
	}

	track, ok := pickTrack(tracks, languages)
	if !ok {
		return models.TranscriptResult{Reason: models.ReasonNoSubtitles}, nil
	}

	kind := ""
	if strings.EqualFold(track.TrackKind, "asr") {
		kind = "asr"
	}
	segs, err := c.fetchTrack(ctx, videoID, track.Language, kind)
	if err != nil {
		return models.TranscriptResult{}, err
	}
	if len(segs) == 0 {
		return models.TranscriptResult{Reason: models.ReasonNoSubtitlesOrProtected}, nil
	}
	return models.TranscriptResult{Segments: segs}, nil
}

// pickTrack chooses the first preferred language with a track, preferring
// manually authored tracks over automatic speech recognition.
func pickTrack(tracks []captionTrack, languages []string) (captionTrack, bool) {
	for _, lang := range languages {
		var asr *captionTrack
		for i := range tracks {
			t := &tracks[i]
			if !sameLanguage(t.Language, lang) {
				continue
			}
			if strings.EqualFold(t.TrackKind, "asr") {
				if asr == nil {
					asr = t
				}
				continue
			}
			return *t, true
		}
		if asr != nil {
			return *asr, true
		}
	}
	return captionTrack{}, false
}

func sameLanguage(a, b string) bool {
	ta, errA := language.Parse(a)
	tb, errB := language.Parse(b)
	if errA != nil || errB != nil {
		return strings.EqualFold(a, b)
	}
	ba, _ := ta.Base()
	bb, _ := tb.Base()
	return ba == bb
}
