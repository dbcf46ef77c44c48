package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/studynote/internal/ai"
	"github.com/xxxsen/studynote/internal/config"
	"github.com/xxxsen/studynote/internal/fetch"
	"github.com/xxxsen/studynote/internal/model"
	"github.com/xxxsen/studynote/internal/pkg/errors"
)

type Extractor struct {
	fetcher         *fetch.Client
	client          ai.Client
	pageCharLimit   int
	pollInterval    time.Duration
	pollMaxAttempts int
}

func New(fetcher *fetch.Client, client ai.Client, cfg *config.Config) *Extractor {
	return &Extractor{
		fetcher:         fetcher,
		client:          client,
		pageCharLimit:   cfg.Pipeline.PageCharLimit,
		pollInterval:    time.Duration(cfg.Gemini.PollInterval) * time.Second,
		pollMaxAttempts: cfg.Gemini.PollMaxAttempts,
	}
}

// URL dispatches to the video or website path depending on whether the URL
// points at a YouTube video.
func (e *Extractor) URL(ctx context.Context, rawURL string) *model.ContentUnit {
	if _, ok := ExtractVideoID(rawURL); ok {
		return e.Video(ctx, rawURL)
	}
	return e.Website(ctx, rawURL)
}

// RawText wraps pasted text as a unit without further processing.
func (e *Extractor) RawText(text string) *model.ContentUnit {
	unit := &model.ContentUnit{Kind: model.SourceKindRawText, Title: "Pasted Text", Text: text}
	if text == "" {
		unit.Err = fmt.Errorf("%w: empty text", errors.ErrContentUnavailable)
	}
	return unit
}

// Topic wraps a study topic plus its description; together they become the
// content and web search supplies the substance later in the pipeline. A
// topic without a description is too thin to study from.
func (e *Extractor) Topic(topic, description string) *model.ContentUnit {
	unit := &model.ContentUnit{Kind: model.SourceKindTopic, Title: topic}
	if topic == "" || description == "" {
		unit.Err = fmt.Errorf("%w: a topic needs both a name and a description", errors.ErrContentUnavailable)
		return unit
	}
	unit.Text = fmt.Sprintf("Study topic: %s\n\n%s", topic, description)
	return unit
}
