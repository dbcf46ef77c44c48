package extract

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/studynote/internal/model"
	"github.com/xxxsen/studynote/internal/pkg/errors"
	"go.uber.org/zap"
)

var mimeByExt = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".html": "text/html",
	".rtf":  "application/rtf",
	".js":   "text/javascript",
	".py":   "text/x-python",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// MimeForFile maps a filename to the MIME type the generative service
// expects, defaulting to application/octet-stream for unknown extensions.
func MimeForFile(name string) string {
	if mime, ok := mimeByExt[strings.ToLower(filepath.Ext(name))]; ok {
		return mime
	}
	return "application/octet-stream"
}

// resolveMime prefers the MIME type the upload metadata declared, falling
// back to the extension map when it is absent or generic.
func resolveMime(name, declared string) string {
	declared = strings.TrimSpace(strings.ToLower(declared))
	if i := strings.Index(declared, ";"); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if declared == "" || declared == "application/octet-stream" || declared == "binary/octet-stream" {
		return MimeForFile(name)
	}
	return declared
}

// File uploads a document to the generative service and waits for it to
// become analyzable. declaredMime is the upload metadata's Content-Type;
// the returned unit carries a FileRef instead of text, and the caller owns
// the remote file and must delete it when done.
func (e *Extractor) File(ctx context.Context, name, declaredMime string, data []byte) *model.ContentUnit {
	unit := &model.ContentUnit{Kind: model.SourceKindFile, Title: name}
	if len(data) == 0 {
		unit.Err = fmt.Errorf("%w: empty file: %s", errors.ErrContentUnavailable, name)
		return unit
	}
	mime := resolveMime(name, declaredMime)
	ref, err := e.client.UploadFile(ctx, bytes.NewReader(data), name, mime)
	if err != nil {
		unit.Err = fmt.Errorf("upload %s: %w", name, err)
		return unit
	}
	ref, err = e.waitActive(ctx, ref)
	if err != nil {
		// Best effort: do not leave half-processed files behind.
		if derr := e.client.DeleteFile(ctx, ref.Handle); derr != nil {
			logutil.GetLogger(ctx).Warn("delete failed upload", zap.String("handle", ref.Handle), zap.Error(derr))
		}
		unit.Err = err
		return unit
	}
	unit.FileRef = ref
	return unit
}

func (e *Extractor) waitActive(ctx context.Context, ref *model.FileReference) (*model.FileReference, error) {
	for attempt := 0; attempt < e.pollMaxAttempts; attempt++ {
		switch ref.State {
		case model.FileStateActive:
			return ref, nil
		case model.FileStateFailed:
			return ref, fmt.Errorf("%w: processing failed for %s", errors.ErrContentUnavailable, ref.DisplayName)
		}
		select {
		case <-time.After(e.pollInterval):
		case <-ctx.Done():
			return ref, ctx.Err()
		}
		next, err := e.client.GetFile(ctx, ref.Handle)
		if err != nil {
			return ref, err
		}
		ref = next
	}
	return ref, fmt.Errorf("%w: processing timed out for %s", errors.ErrContentUnavailable, ref.DisplayName)
}
