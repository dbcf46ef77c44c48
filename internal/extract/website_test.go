package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/studynote/internal/fetch"
	"github.com/xxxsen/studynote/internal/model"
	"github.com/xxxsen/studynote/internal/pkg/errors"
)

func newWebExtractor(limit int) *Extractor {
	return &Extractor{fetcher: fetch.NewClient(5 * time.Second), pageCharLimit: limit}
}

func TestWebsiteExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Cell Biology</title></head><body>` +
			`<article><p>The cell is the basic unit of life.</p></article></body></html>`))
	}))
	defer srv.Close()

	unit := newWebExtractor(15000).Website(context.Background(), srv.URL)
	require.NoError(t, unit.Err)
	assert.Equal(t, model.SourceKindWebsite, unit.Kind)
	assert.Equal(t, "Cell Biology", unit.Title)
	assert.Contains(t, unit.Text, "basic unit of life")
	assert.True(t, unit.Usable())
}

func TestWebsiteInvalidURL(t *testing.T) {
	e := newWebExtractor(15000)
	for _, bad := range []string{"ftp://example.com/x", "not a url", "http://"} {
		unit := e.Website(context.Background(), bad)
		assert.ErrorIs(t, unit.Err, errors.ErrInvalidURL, bad)
		assert.False(t, unit.Usable())
	}
}

func TestWebsiteDirectFileLink(t *testing.T) {
	unit := newWebExtractor(15000).Website(context.Background(), "https://example.com/syllabus.PDF")
	assert.ErrorIs(t, unit.Err, errors.ErrContentUnavailable)
	assert.Contains(t, unit.Err.Error(), "upload the file directly")
}

func TestWebsiteNonHTMLBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.7 binary payload"))
	}))
	defer srv.Close()

	unit := newWebExtractor(15000).Website(context.Background(), srv.URL)
	assert.ErrorIs(t, unit.Err, errors.ErrContentUnavailable)
	assert.Contains(t, unit.Err.Error(), "unsupported content type")
}

func TestWebsiteNoReadableText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><script>only scripts</script></body></html>`))
	}))
	defer srv.Close()

	unit := newWebExtractor(15000).Website(context.Background(), srv.URL)
	assert.ErrorIs(t, unit.Err, errors.ErrContentUnavailable)
}

func TestURLDispatch(t *testing.T) {
	e := newWebExtractor(15000)
	unit := e.URL(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	assert.Equal(t, model.SourceKindVideo, unit.Kind)
}

func TestRawTextAndTopic(t *testing.T) {
	e := newWebExtractor(15000)

	unit := e.RawText("some pasted material")
	require.NoError(t, unit.Err)
	assert.Equal(t, "Pasted Text", unit.Title)

	unit = e.RawText("")
	assert.Error(t, unit.Err)

	unit = e.Topic("Quantum Mechanics", "focus on the uncertainty principle")
	require.NoError(t, unit.Err)
	assert.Equal(t, "Quantum Mechanics", unit.Title)
	assert.Contains(t, unit.Text, "Quantum Mechanics")
	assert.Contains(t, unit.Text, "uncertainty principle")
	assert.Equal(t, model.SourceKindTopic, unit.Kind)

	unit = e.Topic("Quantum Mechanics", "")
	assert.Error(t, unit.Err)
}
