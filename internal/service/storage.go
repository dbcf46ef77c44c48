package service

import (
	"context"

	"github.com/xxxsen/studynote/internal/model"
)

// ContentStore is the slice of the content repository the services consume.
type ContentStore interface {
	Create(ctx context.Context, record *model.ContentRecord) error
	GetByID(ctx context.Context, id string) (*model.ContentRecord, error)
}

// SessionStore persists serialized chat histories keyed by content id.
type SessionStore interface {
	Upsert(ctx context.Context, contentID, history string, mtime int64) error
	GetByContentID(ctx context.Context, contentID string) (string, error)
}
