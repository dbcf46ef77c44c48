package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		url  string
		id   string
		ok   bool
		name string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true, "watch"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true, "short link"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true, "embed"},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", true, "shorts"},
		{"https://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true, "mobile"},
		{"https://www.youtube.com/live/dQw4w9WgXcQ", "dQw4w9WgXcQ", true, "live"},
		{"https://www.youtube.com/watch?v=short", "", false, "bad id length"},
		{"https://example.com/watch?v=dQw4w9WgXcQ", "", false, "wrong host"},
		{"https://www.youtube.com/playlist?list=abc", "", false, "playlist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ExtractVideoID(tt.url)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.id, id)
			}
		})
	}
}

func TestPickCaptionTrackPrefersManualEnglish(t *testing.T) {
	page := []byte(`..."captionTracks":[` +
		`{"baseUrl":"http://x/fr","languageCode":"fr"},` +
		`{"baseUrl":"http://x/en-asr","languageCode":"en","kind":"asr"},` +
		`{"baseUrl":"http://x/en","languageCode":"en-US"}]...`)
	track, err := pickCaptionTrack(page)
	require.NoError(t, err)
	assert.Equal(t, "http://x/en", track.BaseURL)
}

func TestPickCaptionTrackFallsBackToAutoEnglish(t *testing.T) {
	page := []byte(`"captionTracks":[` +
		`{"baseUrl":"http://x/de","languageCode":"de"},` +
		`{"baseUrl":"http://x/en-asr","languageCode":"en","kind":"asr"}]`)
	track, err := pickCaptionTrack(page)
	require.NoError(t, err)
	assert.Equal(t, "http://x/en-asr", track.BaseURL)
}

func TestPickCaptionTrackFirstWhenNoEnglish(t *testing.T) {
	page := []byte(`"captionTracks":[{"baseUrl":"http://x/ja","languageCode":"ja"}]`)
	track, err := pickCaptionTrack(page)
	require.NoError(t, err)
	assert.Equal(t, "http://x/ja", track.BaseURL)
}

func TestPickCaptionTrackNoCaptions(t *testing.T) {
	_, err := pickCaptionTrack([]byte(`<html>no captions here</html>`))
	require.Error(t, err)
}

func TestParseTimedText(t *testing.T) {
	raw := []byte(`<?xml version="1.0"?><transcript>` +
		`<text start="0" dur="2">hello &amp;amp; welcome</text>` +
		`<text start="2" dur="2">  </text>` +
		`<text start="4" dur="2">to the course</text>` +
		`</transcript>`)
	text, err := parseTimedText(raw)
	require.NoError(t, err)
	assert.Equal(t, "hello & welcome to the course", text)
}

func TestParseTimedTextEmptyIsNotAnError(t *testing.T) {
	text, err := parseTimedText([]byte(`<transcript></transcript>`))
	require.NoError(t, err)
	assert.Equal(t, "", text)

	_, err = parseTimedText([]byte(`not xml at <all`))
	require.Error(t, err)
}
