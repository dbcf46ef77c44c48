package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/studynote/internal/fetch"
	"github.com/xxxsen/studynote/internal/model"
	"github.com/xxxsen/studynote/internal/pkg/errors"
	"go.uber.org/zap"
)

// Website fetches a page and extracts its readable text. Failures are
// recorded on the unit rather than aborting the whole ingest.
func (e *Extractor) Website(ctx context.Context, rawURL string) *model.ContentUnit {
	unit := &model.ContentUnit{Kind: model.SourceKindWebsite, SourceURI: rawURL}
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		unit.Err = fmt.Errorf("%w: %s", errors.ErrInvalidURL, rawURL)
		return unit
	}
	if isDirectFileLink(parsed.Path) {
		unit.Err = fmt.Errorf("%w: link points at a document, upload the file directly instead", errors.ErrContentUnavailable)
		return unit
	}
	page, err := e.fetcher.Get(ctx, rawURL)
	if err != nil {
		unit.Err = err
		return unit
	}
	if ct := http.DetectContentType(page); !strings.Contains(ct, "html") && !strings.HasPrefix(ct, "text/") {
		unit.Err = fmt.Errorf("%w: unsupported content type %s", errors.ErrContentUnavailable, ct)
		return unit
	}
	text := fetch.ExtractText(page, e.pageCharLimit)
	if text == "" {
		logutil.GetLogger(ctx).Info("page yielded no readable text", zap.String("url", rawURL))
		unit.Err = fmt.Errorf("%w: %s", errors.ErrContentUnavailable, rawURL)
		return unit
	}
	unit.Text = text
	unit.Title = fetch.ExtractTitle(page)
	if unit.Title == "" {
		unit.Title = parsed.Host
	}
	return unit
}

func isDirectFileLink(path string) bool {
	for _, ext := range []string{".pdf", ".doc", ".docx", ".ppt", ".pptx"} {
		if strings.HasSuffix(strings.ToLower(path), ext) {
			return true
		}
	}
	return false
}
