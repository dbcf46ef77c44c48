package service

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/xxxsen/studynote/internal/ai"
	"github.com/xxxsen/studynote/internal/config"
	"github.com/xxxsen/studynote/internal/filestore"
	"github.com/xxxsen/studynote/internal/model"
	"github.com/xxxsen/studynote/internal/pkg/errors"
)

func testConfig() *config.Config {
	cfg := &config.Config{Port: 1}
	cfg.Gemini = config.GeminiConfig{
		NotesTimeout:    10,
		CallTimeout:     10,
		PollInterval:    1,
		PollMaxAttempts: 2,
	}
	cfg.Pipeline = config.PipelineConfig{
		PageCharLimit:    15000,
		WebPageCharLimit: 1000,
		WebContextBudget: 20000,
		ChatWebBudget:    5000,
		PrimaryTextLimit: 30000,
		MaxHistoryPairs:  10,
	}
	return cfg
}

// fakeGenClient replays scripted generation results in order.
type fakeGenClient struct {
	replies  []*ai.GenResult
	requests []*ai.GenRequest
}

func (f *fakeGenClient) Generate(ctx context.Context, req *ai.GenRequest) (*ai.GenResult, error) {
	f.requests = append(f.requests, req)
	if len(f.requests) > len(f.replies) {
		return nil, fmt.Errorf("unexpected generate call %d", len(f.requests))
	}
	return f.replies[len(f.requests)-1], nil
}

func (f *fakeGenClient) UploadFile(ctx context.Context, r io.Reader, displayName, mimeType string) (*model.FileReference, error) {
	return nil, fmt.Errorf("uploads not scripted")
}

func (f *fakeGenClient) GetFile(ctx context.Context, handle string) (*model.FileReference, error) {
	return nil, fmt.Errorf("no such file: %s", handle)
}

func (f *fakeGenClient) DeleteFile(ctx context.Context, handle string) error { return nil }

type fakeContentStore struct {
	records map[string]*model.ContentRecord
}

func newFakeContentStore() *fakeContentStore {
	return &fakeContentStore{records: map[string]*model.ContentRecord{}}
}

func (f *fakeContentStore) Create(ctx context.Context, record *model.ContentRecord) error {
	f.records[record.ID] = record
	return nil
}

func (f *fakeContentStore) GetByID(ctx context.Context, id string) (*model.ContentRecord, error) {
	record, ok := f.records[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return record, nil
}

type fakeSessionStore struct {
	histories map[string]string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{histories: map[string]string{}}
}

func (f *fakeSessionStore) Upsert(ctx context.Context, contentID, history string, mtime int64) error {
	f.histories[contentID] = history
	return nil
}

func (f *fakeSessionStore) GetByContentID(ctx context.Context, contentID string) (string, error) {
	history, ok := f.histories[contentID]
	if !ok {
		return "", errors.ErrNotFound
	}
	return history, nil
}

type fakeFileStore struct {
	saved map[string][]byte
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{saved: map[string][]byte{}}
}

func (f *fakeFileStore) Type() string { return "fake" }

func (f *fakeFileStore) Save(ctx context.Context, key string, r filestore.ReadSeekCloser, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.saved[key] = data
	return nil
}

func (f *fakeFileStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.saved[key]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
