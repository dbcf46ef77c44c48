package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/studynote/internal/ai"
	"github.com/xxxsen/studynote/internal/artifact"
	"github.com/xxxsen/studynote/internal/config"
	"github.com/xxxsen/studynote/internal/extract"
	"github.com/xxxsen/studynote/internal/filestore"
	"github.com/xxxsen/studynote/internal/model"
	"github.com/xxxsen/studynote/internal/pkg/errors"
	"github.com/xxxsen/studynote/internal/prompt"
	"github.com/xxxsen/studynote/internal/search"
	"go.uber.org/zap"
)

const notesSearchQueries = 3

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

type UploadedFile struct {
	Name string
	Mime string
	Data []byte
}

type IngestRequest struct {
	URLs        []string
	Files       []UploadedFile
	Text        string
	Topic       string
	Description string
	WebSearch   bool
}

type NotesResult struct {
	ContentID    string
	Title        string
	Notes        string
	OriginalText string
	FileNames    []string
	Warnings     []string
	WebCitations []model.Citation
}

type NotesService struct {
	client       ai.Client
	extractor    *extract.Extractor
	augmenter    *search.Augmenter
	composer     *prompt.Composer
	contentRepo  ContentStore
	store        filestore.Store
	notesTimeout time.Duration
	webBudget    int
}

func NewNotesService(client ai.Client, extractor *extract.Extractor, augmenter *search.Augmenter,
	contentRepo ContentStore, store filestore.Store, cfg *config.Config) *NotesService {
	return &NotesService{
		client:       client,
		extractor:    extractor,
		augmenter:    augmenter,
		composer:     prompt.NewComposer(cfg.Pipeline.PrimaryTextLimit),
		contentRepo:  contentRepo,
		store:        store,
		notesTimeout: time.Duration(cfg.Gemini.NotesTimeout) * time.Second,
		webBudget:    cfg.Pipeline.WebContextBudget,
	}
}

// Ingest runs the whole pipeline: extract every source, optionally augment
// with web search, generate notes, and persist the result. Individual source
// failures become warnings; the run only fails when nothing at all is usable.
func (s *NotesService) Ingest(ctx context.Context, req *IngestRequest) (*NotesResult, error) {
	logger := logutil.GetLogger(ctx)
	units, warnings := s.extractAll(ctx, req)

	// Remote analysis copies are request-scoped; never leak them.
	defer s.cleanupFileRefs(ctx, units)

	usable := usableUnits(units)
	if len(usable) == 0 {
		if len(warnings) > 0 {
			return nil, fmt.Errorf("%w: no sources could be processed: %s",
				errors.ErrContentUnavailable, strings.Join(warnings, "; "))
		}
		return nil, fmt.Errorf("%w: no study material provided", errors.ErrInvalid)
	}

	var webContext string
	var citations []model.Citation
	if req.WebSearch && s.augmenter.Enabled() {
		aug, err := s.augmenter.Augment(ctx, sampleText(usable), search.AugmentOptions{
			Queries: notesSearchQueries,
			Budget:  s.webBudget,
		})
		if err != nil {
			logger.Warn("web augmentation skipped", zap.Error(err))
			warnings = append(warnings, "Web search augmentation unavailable for this run")
		} else {
			webContext = aug.Context
			citations = aug.Citations
		}
	}

	parts := s.composer.Notes(&prompt.NotesInput{
		Units:       usable,
		Topic:       req.Topic,
		Description: req.Description,
		WebContext:  webContext,
	})

	genCtx, cancel := context.WithTimeout(ctx, s.notesTimeout)
	defer cancel()
	rsp, err := s.client.Generate(genCtx, &ai.GenRequest{
		Messages: []ai.Message{{Role: model.ChatRoleUser, Parts: parts}},
	})
	if err != nil {
		return nil, err
	}
	switch rsp.Status {
	case ai.StatusBlocked:
		return nil, fmt.Errorf("%w: notes generation was blocked", errors.ErrSafetyBlocked)
	case ai.StatusTruncated:
		if rsp.SafetyFlagged {
			warnings = append(warnings, "Notes may be incomplete: content was filtered for safety")
		} else {
			warnings = append(warnings, "Notes were cut short by the output limit")
		}
	}
	notes := artifact.StripFences(rsp.Text)
	if notes == "" {
		return nil, fmt.Errorf("%w: empty notes generation", errors.ErrInternal)
	}
	notes = appendWebSources(notes, citations)

	title := synthesizeTitle(usable)
	if title == "" {
		title, _ = notesOutline(notes)
	}
	if title == "" {
		title = "Study Notes"
	}

	contentID := newID()
	originalText, _ := combinedOriginal(usable)
	fileNames := s.retainUploads(ctx, contentID, req.Files, &warnings)
	namesJSON, _ := json.Marshal(fileNames)
	record := &model.ContentRecord{
		ID:           contentID,
		Title:        title,
		Notes:        notes,
		OriginalText: originalText,
		FileNames:    string(namesJSON),
		Ctime:        time.Now().Unix(),
	}
	if err := s.contentRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("persist content: %w", err)
	}
	logger.Info("content ingested", zap.String("content_id", contentID),
		zap.Int("sources", len(usable)), zap.Int("warnings", len(warnings)))

	return &NotesResult{
		ContentID:    contentID,
		Title:        title,
		Notes:        notes,
		OriginalText: originalText,
		FileNames:    fileNames,
		Warnings:     warnings,
		WebCitations: citations,
	}, nil
}

func (s *NotesService) GetContent(ctx context.Context, id string) (*model.ContentRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: content id is required", errors.ErrInvalid)
	}
	return s.contentRepo.GetByID(ctx, id)
}

func (s *NotesService) extractAll(ctx context.Context, req *IngestRequest) ([]*model.ContentUnit, []string) {
	var units []*model.ContentUnit
	var warnings []string
	for _, rawURL := range req.URLs {
		unit := s.extractor.URL(ctx, rawURL)
		if unit.Err != nil {
			warnings = append(warnings, fmt.Sprintf("URL '%s': %v", rawURL, unit.Err))
		}
		units = append(units, unit)
	}
	for _, file := range req.Files {
		unit := s.extractor.File(ctx, file.Name, file.Mime, file.Data)
		if unit.Err != nil {
			warnings = append(warnings, fmt.Sprintf("File Upload '%s': %v", file.Name, unit.Err))
		}
		units = append(units, unit)
	}
	if req.Text != "" {
		units = append(units, s.extractor.RawText(req.Text))
	}
	// A topic alone cannot anchor generation; the description supplies the
	// scope that makes it usable as a fallback source.
	if req.Topic != "" && req.Description != "" && !hasUsable(units) {
		units = append(units, s.extractor.Topic(req.Topic, req.Description))
	}
	return units, warnings
}

func (s *NotesService) cleanupFileRefs(ctx context.Context, units []*model.ContentUnit) {
	for _, u := range units {
		if u.FileRef == nil || u.FileRef.Handle == "" {
			continue
		}
		if err := s.client.DeleteFile(ctx, u.FileRef.Handle); err != nil {
			logutil.GetLogger(ctx).Warn("delete analysis file",
				zap.String("handle", u.FileRef.Handle), zap.Error(err))
		}
	}
}

// retainUploads keeps a copy of each uploaded document in the file store so
// sources stay accessible after the remote analysis copies are deleted.
func (s *NotesService) retainUploads(ctx context.Context, contentID string, files []UploadedFile, warnings *[]string) []string {
	var keys []string
	for i, file := range files {
		name := unsafeKeyChars.ReplaceAllString(file.Name, "_")
		key := fmt.Sprintf("%s_%d_%s", contentID, i, name)
		r := nopReadSeekCloser{bytes.NewReader(file.Data)}
		if err := s.store.Save(ctx, key, r, int64(len(file.Data))); err != nil {
			logutil.GetLogger(ctx).Warn("retain upload", zap.String("key", key), zap.Error(err))
			*warnings = append(*warnings, fmt.Sprintf("File Upload '%s': retained copy failed", file.Name))
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

type nopReadSeekCloser struct {
	*bytes.Reader
}

func (nopReadSeekCloser) Close() error { return nil }

var _ filestore.ReadSeekCloser = nopReadSeekCloser{}

func usableUnits(units []*model.ContentUnit) []*model.ContentUnit {
	var out []*model.ContentUnit
	for _, u := range units {
		if u.Usable() {
			out = append(out, u)
		}
	}
	return out
}

func hasUsable(units []*model.ContentUnit) bool {
	for _, u := range units {
		if u.Usable() {
			return true
		}
	}
	return false
}

// sampleText takes the head of the combined material for query generation.
func sampleText(units []*model.ContentUnit) string {
	var sb strings.Builder
	for _, u := range units {
		if u.Text == "" {
			continue
		}
		sb.WriteString(u.Text)
		sb.WriteString("\n")
		if sb.Len() > 2000 {
			break
		}
	}
	return sb.String()
}

func combinedOriginal(units []*model.ContentUnit) (string, int) {
	var blocks []string
	for _, u := range units {
		if u.Text != "" {
			blocks = append(blocks, u.Text)
		}
	}
	combined := strings.Join(blocks, "\n\n---\n\n")
	return combined, len(blocks)
}

// synthesizeTitle: one source keeps its title, up to three are joined, more
// collapse into "first & N other sources".
func synthesizeTitle(units []*model.ContentUnit) string {
	var titles []string
	for _, u := range units {
		if u.Title != "" {
			titles = append(titles, u.Title)
		}
	}
	switch {
	case len(titles) == 0:
		return ""
	case len(titles) == 1:
		return titles[0]
	case len(titles) <= 3:
		return strings.Join(titles, " & ")
	default:
		return fmt.Sprintf("%s & %d other sources", titles[0], len(titles)-1)
	}
}

func appendWebSources(notes string, citations []model.Citation) string {
	if len(citations) == 0 {
		return notes
	}
	var sb strings.Builder
	sb.WriteString(notes)
	sb.WriteString("\n\n## Web Sources\n")
	for _, c := range citations {
		fmt.Fprintf(&sb, "- %s: %s\n", c.Ref, c.URL)
	}
	return sb.String()
}
