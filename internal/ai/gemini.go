package ai

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xxxsen/studynote/internal/config"
	"github.com/xxxsen/studynote/internal/model"
	"google.golang.org/genai"
)

type geminiClient struct {
	client      *genai.Client
	model       string
	callTimeout time.Duration
}

func NewGeminiClient(ctx context.Context, cfg config.GeminiConfig) (Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &geminiClient{
		client:      client,
		model:       cfg.Model,
		callTimeout: time.Duration(cfg.CallTimeout) * time.Second,
	}, nil
}

func (g *geminiClient) Generate(ctx context.Context, req *GenRequest) (*GenResult, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: req.Temperature,
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSONOutput {
		cfg.ResponseMIMEType = "application/json"
	}
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		parts := make([]*genai.Part, 0, len(msg.Parts))
		for _, p := range msg.Parts {
			if p.FileURI != "" {
				parts = append(parts, genai.NewPartFromURI(p.FileURI, p.MimeType))
				continue
			}
			parts = append(parts, genai.NewPartFromText(p.Text))
		}
		contents = append(contents, &genai.Content{Role: msg.Role, Parts: parts})
	}
	rsp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return nil, classifyError(err)
	}
	return buildResult(rsp), nil
}

// buildResult classifies the raw response. Blocked is reserved for the
// prompt-level block with no candidates; a candidate cut off by the safety
// filter still carries partial text and is reported as Truncated so callers
// can serve it with a notice.
func buildResult(rsp *genai.GenerateContentResponse) *GenResult {
	if rsp.PromptFeedback != nil && rsp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		return &GenResult{
			Status:        StatusBlocked,
			SafetyFlagged: true,
			BlockReason:   string(rsp.PromptFeedback.BlockReason),
		}
	}
	if len(rsp.Candidates) == 0 {
		return &GenResult{Status: StatusOther}
	}
	candidate := rsp.Candidates[0]
	res := &GenResult{Text: rsp.Text(), SafetyFlagged: safetyFlagged(candidate)}
	switch candidate.FinishReason {
	case genai.FinishReasonStop:
		res.Status = StatusComplete
	case genai.FinishReasonMaxTokens:
		res.Status = StatusTruncated
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent:
		res.Status = StatusTruncated
		res.SafetyFlagged = true
	default:
		res.Status = StatusOther
	}
	return res
}

func safetyFlagged(candidate *genai.Candidate) bool {
	for _, rating := range candidate.SafetyRatings {
		switch rating.Probability {
		case genai.HarmProbabilityMedium, genai.HarmProbabilityHigh:
			return true
		}
	}
	return false
}

func (g *geminiClient) UploadFile(ctx context.Context, r io.Reader, displayName, mimeType string) (*model.FileReference, error) {
	file, err := g.client.Files.Upload(ctx, r, &genai.UploadFileConfig{
		DisplayName: displayName,
		MIMEType:    mimeType,
	})
	if err != nil {
		return nil, classifyError(err)
	}
	return toFileReference(file), nil
}

func (g *geminiClient) GetFile(ctx context.Context, handle string) (*model.FileReference, error) {
	file, err := g.client.Files.Get(ctx, handle, nil)
	if err != nil {
		return nil, classifyError(err)
	}
	return toFileReference(file), nil
}

func (g *geminiClient) DeleteFile(ctx context.Context, handle string) error {
	if _, err := g.client.Files.Delete(ctx, handle, nil); err != nil {
		return classifyError(err)
	}
	return nil
}

func toFileReference(file *genai.File) *model.FileReference {
	ref := &model.FileReference{
		Handle:      file.Name,
		URI:         file.URI,
		DisplayName: file.DisplayName,
		MimeType:    file.MIMEType,
	}
	switch file.State {
	case genai.FileStateActive:
		ref.State = model.FileStateActive
	case genai.FileStateProcessing:
		ref.State = model.FileStateProcessing
	case genai.FileStateFailed:
		ref.State = model.FileStateFailed
	default:
		ref.State = model.FileStatePending
	}
	return ref
}
