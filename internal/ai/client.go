package ai

import (
	"context"
	"io"

	"github.com/xxxsen/studynote/internal/model"
)

type FinishStatus int

const (
	StatusComplete FinishStatus = iota
	StatusTruncated
	StatusBlocked
	StatusOther
)

type Part struct {
	Text     string
	FileURI  string
	MimeType string
}

func TextPart(text string) Part {
	return Part{Text: text}
}

func FilePart(uri, mime string) Part {
	return Part{FileURI: uri, MimeType: mime}
}

type Message struct {
	Role  string // model.ChatRoleUser or model.ChatRoleAssistant
	Parts []Part
}

type GenRequest struct {
	System      string
	Messages    []Message
	Temperature *float32
	JSONOutput  bool
}

// GenResult carries the generated text plus how the call ended. A Truncated
// result still holds usable partial text; SafetyFlagged distinguishes a
// safety cutoff from a plain length cutoff.
type GenResult struct {
	Text          string
	Status        FinishStatus
	SafetyFlagged bool
	BlockReason   string
}

// Client abstracts the generation backend so services can be exercised
// against fakes in tests.
type Client interface {
	Generate(ctx context.Context, req *GenRequest) (*GenResult, error)
	UploadFile(ctx context.Context, r io.Reader, displayName, mimeType string) (*model.FileReference, error)
	GetFile(ctx context.Context, handle string) (*model.FileReference, error)
	DeleteFile(ctx context.Context, handle string) error
}
