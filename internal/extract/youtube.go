package extract

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/studynote/internal/model"
	"github.com/xxxsen/studynote/internal/pkg/errors"
	"go.uber.org/zap"
)

var (
	videoIDRegex       = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	captionTracksRegex = regexp.MustCompile(`"captionTracks":(\[.*?\])`)
	videoTitleRegex    = regexp.MustCompile(`<meta\s+(?:property="og:title"|name="title")\s+content="([^"]*)"`)
)

// ExtractVideoID recognizes the common YouTube URL shapes and returns the
// 11-character video id.
func ExtractVideoID(rawURL string) (string, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	host := strings.TrimPrefix(parsed.Hostname(), "www.")
	switch host {
	case "youtu.be":
		id := strings.Trim(parsed.Path, "/")
		return id, videoIDRegex.MatchString(id)
	case "youtube.com", "m.youtube.com", "music.youtube.com":
	default:
		return "", false
	}
	if parsed.Path == "/watch" {
		id := parsed.Query().Get("v")
		return id, videoIDRegex.MatchString(id)
	}
	for _, prefix := range []string{"/embed/", "/shorts/", "/live/", "/v/"} {
		if strings.HasPrefix(parsed.Path, prefix) {
			id := strings.Trim(strings.TrimPrefix(parsed.Path, prefix), "/")
			return id, videoIDRegex.MatchString(id)
		}
	}
	return "", false
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

// Video pulls the transcript of a YouTube video by scraping the caption
// track list off the watch page and fetching the timedtext document.
func (e *Extractor) Video(ctx context.Context, rawURL string) *model.ContentUnit {
	unit := &model.ContentUnit{Kind: model.SourceKindVideo, SourceURI: rawURL}
	id, ok := ExtractVideoID(rawURL)
	if !ok {
		unit.Err = fmt.Errorf("%w: not a video url: %s", errors.ErrInvalidURL, rawURL)
		return unit
	}
	page, err := e.fetcher.Get(ctx, "https://www.youtube.com/watch?v="+id)
	if err != nil {
		unit.Err = err
		return unit
	}
	track, err := pickCaptionTrack(page)
	if err != nil {
		unit.Err = err
		return unit
	}
	raw, err := e.fetcher.Get(ctx, track.BaseURL)
	if err != nil {
		unit.Err = err
		return unit
	}
	text, err := parseTimedText(raw)
	if err != nil {
		unit.Err = err
		return unit
	}
	if text == "" {
		// An empty transcript is legal; the video just contributes nothing.
		logutil.GetLogger(ctx).Warn("video transcript is empty", zap.String("video_id", id))
	}
	if e.pageCharLimit > 0 && len(text) > e.pageCharLimit {
		text = text[:e.pageCharLimit]
	}
	if text != "" && !strings.HasPrefix(track.LanguageCode, "en") && track.LanguageCode != "" {
		text = fmt.Sprintf("[Transcript Language: %s] %s", track.LanguageCode, text)
	}
	unit.Text = text
	unit.Title = videoTitle(page)
	if unit.Title == "" {
		unit.Title = fmt.Sprintf("YouTube Video (ID: %s)", id)
	}
	return unit
}

// pickCaptionTrack chooses captions in priority order: human-made English,
// auto-generated English, any human-made, whatever is left.
func pickCaptionTrack(page []byte) (*captionTrack, error) {
	match := captionTracksRegex.FindSubmatch(page)
	if match == nil {
		return nil, fmt.Errorf("%w: video has no captions", errors.ErrContentUnavailable)
	}
	var tracks []captionTrack
	if err := json.Unmarshal(match[1], &tracks); err != nil {
		return nil, fmt.Errorf("%w: malformed caption track list", errors.ErrContentUnavailable)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: video has no captions", errors.ErrContentUnavailable)
	}
	best, bestRank := &tracks[0], 4
	for i := range tracks {
		t := &tracks[i]
		english := strings.HasPrefix(t.LanguageCode, "en")
		manual := t.Kind != "asr"
		rank := 4
		switch {
		case english && manual:
			rank = 0
		case english:
			rank = 1
		case manual:
			rank = 2
		}
		if rank < bestRank {
			best, bestRank = t, rank
		}
	}
	return best, nil
}

type timedText struct {
	Texts []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

func parseTimedText(raw []byte) (string, error) {
	var doc timedText
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("%w: malformed transcript", errors.ErrContentUnavailable)
	}
	segments := make([]string, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		// timedtext payloads double-escape entities.
		s := strings.TrimSpace(html.UnescapeString(t.Value))
		if s != "" {
			segments = append(segments, s)
		}
	}
	// No segments is not an error; some videos carry empty caption tracks.
	return strings.Join(segments, " "), nil
}

func videoTitle(page []byte) string {
	if m := videoTitleRegex.FindSubmatch(page); m != nil {
		return html.UnescapeString(string(m[1]))
	}
	return ""
}
