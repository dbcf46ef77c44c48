package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/studynote/internal/ai"
	"github.com/xxxsen/studynote/internal/config"
	"github.com/xxxsen/studynote/internal/model"
	"github.com/xxxsen/studynote/internal/pkg/errors"
	"github.com/xxxsen/studynote/internal/prompt"
	"github.com/xxxsen/studynote/internal/search"
	"go.uber.org/zap"
)

const chatSearchQueries = 2

type ChatRequest struct {
	ContentID string
	Message   string
	WebSearch bool
}

type ChatResult struct {
	Reply     string
	History   []model.ChatTurn
	Citations []model.Citation
}

type ChatService struct {
	client      ai.Client
	augmenter   *search.Augmenter
	contentRepo ContentStore
	sessionRepo SessionStore
	maxPairs    int
	webBudget   int
	callTimeout time.Duration
}

func NewChatService(client ai.Client, augmenter *search.Augmenter,
	contentRepo ContentStore, sessionRepo SessionStore, cfg *config.Config) *ChatService {
	return &ChatService{
		client:      client,
		augmenter:   augmenter,
		contentRepo: contentRepo,
		sessionRepo: sessionRepo,
		maxPairs:    cfg.Pipeline.MaxHistoryPairs,
		webBudget:   cfg.Pipeline.ChatWebBudget,
		callTimeout: time.Duration(cfg.Gemini.CallTimeout) * time.Second,
	}
}

// Chat answers one learner message grounded in the stored notes, maintaining
// a windowed per-content session. Web augmentation, when requested, is
// per-message: its context rides along with the user turn rather than being
// baked into the system instruction.
func (s *ChatService) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	if req.Message == "" {
		return nil, fmt.Errorf("%w: message is required", errors.ErrInvalid)
	}
	record, err := s.contentRepo.GetByID(ctx, req.ContentID)
	if err != nil {
		return nil, err
	}
	history, err := s.loadHistory(ctx, req.ContentID)
	if err != nil {
		return nil, err
	}
	history = model.WindowTurns(history, s.maxPairs)

	webEnabled := req.WebSearch && s.augmenter.Enabled()
	userText := req.Message
	var citations []model.Citation
	if webEnabled {
		sample := req.Message + "\n" + capString(record.Notes, 1000)
		aug, err := s.augmenter.Augment(ctx, sample, search.AugmentOptions{
			Queries:  chatSearchQueries,
			PerQuery: 1,
			Budget:   s.webBudget,
		})
		if err != nil {
			logutil.GetLogger(ctx).Warn("chat web augmentation skipped", zap.Error(err))
		} else {
			userText = fmt.Sprintf("%s\n\n--- WEB CONTEXT ---\n%s\n--- END WEB CONTEXT ---", req.Message, aug.Context)
			citations = aug.Citations
		}
	}

	messages := make([]ai.Message, 0, len(history)+1)
	for _, turn := range history {
		messages = append(messages, ai.Message{
			Role:  turn.Role,
			Parts: []ai.Part{ai.TextPart(turn.Text())},
		})
	}
	messages = append(messages, ai.Message{
		Role:  model.ChatRoleUser,
		Parts: []ai.Part{ai.TextPart(userText)},
	})

	genCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	rsp, err := s.client.Generate(genCtx, &ai.GenRequest{
		System:   prompt.ChatSystem(record.Notes, record.OriginalText, webEnabled),
		Messages: messages,
	})
	if err != nil {
		return nil, err
	}
	if rsp.Status == ai.StatusBlocked {
		return nil, fmt.Errorf("%w: reply was blocked", errors.ErrSafetyBlocked)
	}
	reply := rsp.Text
	if reply == "" {
		return nil, fmt.Errorf("%w: empty reply", errors.ErrInternal)
	}

	used := citedSources(reply, citations)
	if len(used) > 0 {
		var sb strings.Builder
		sb.WriteString(reply)
		sb.WriteString("\n\nReferences:\n")
		for _, c := range used {
			fmt.Fprintf(&sb, "- %s: %s\n", c.Ref, c.URL)
		}
		reply = sb.String()
	}

	// The stored turn keeps the raw message; web context is transient.
	history = append(history, model.NewUserTurn(req.Message), model.NewAssistantTurn(reply))
	history = model.WindowTurns(history, s.maxPairs)
	if err := s.saveHistory(ctx, req.ContentID, history); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return &ChatResult{Reply: reply, History: history, Citations: used}, nil
}

func (s *ChatService) loadHistory(ctx context.Context, contentID string) ([]model.ChatTurn, error) {
	raw, err := s.sessionRepo.GetByContentID(ctx, contentID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var history []model.ChatTurn
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		// A corrupt session is not worth failing the chat over; start fresh.
		logutil.GetLogger(ctx).Warn("reset undecodable chat history",
			zap.String("content_id", contentID), zap.Error(err))
		return nil, nil
	}
	return history, nil
}

func (s *ChatService) saveHistory(ctx context.Context, contentID string, history []model.ChatTurn) error {
	raw, err := json.Marshal(history)
	if err != nil {
		return err
	}
	return s.sessionRepo.Upsert(ctx, contentID, string(raw), time.Now().Unix())
}

// citedSources keeps only the citations whose labels actually appear in the
// reply, each once, in label order.
func citedSources(reply string, citations []model.Citation) []model.Citation {
	var used []model.Citation
	for _, c := range citations {
		if strings.Contains(reply, c.Ref) {
			used = append(used, c)
		}
	}
	return used
}

func capString(s string, limit int) string {
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
