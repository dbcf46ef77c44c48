package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/studynote/internal/ai"
	"github.com/xxxsen/studynote/internal/artifact"
	"github.com/xxxsen/studynote/internal/config"
	"github.com/xxxsen/studynote/internal/model"
	"github.com/xxxsen/studynote/internal/pkg/errors"
	"github.com/xxxsen/studynote/internal/prompt"
	"go.uber.org/zap"
)

type ArtifactService struct {
	client      ai.Client
	contentRepo ContentStore
	callTimeout time.Duration
}

func NewArtifactService(client ai.Client, contentRepo ContentStore, cfg *config.Config) *ArtifactService {
	return &ArtifactService{
		client:      client,
		contentRepo: contentRepo,
		callTimeout: time.Duration(cfg.Gemini.CallTimeout) * time.Second,
	}
}

type QuizResult struct {
	QuizID    string
	Questions []model.QuizQuestion
}

// GenerateQuiz builds a quiz from stored notes. difficulty, when set, must be
// a Bloom level and pins every question to it.
func (s *ArtifactService) GenerateQuiz(ctx context.Context, contentID string, count int, types []string, existing []string, difficulty string) (*QuizResult, error) {
	record, err := s.loadContent(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		count = 5
	}
	if len(types) == 0 {
		types = []string{model.QuestionTypeMCQ, model.QuestionTypeTrueFalse, model.QuestionTypeShortAnswer}
	}
	for _, t := range types {
		switch t {
		case model.QuestionTypeMCQ, model.QuestionTypeTrueFalse, model.QuestionTypeFillBlank,
			model.QuestionTypeMatching, model.QuestionTypeShortAnswer:
		default:
			return nil, fmt.Errorf("%w: unknown question type %q", errors.ErrInvalid, t)
		}
	}
	if difficulty != "" && !model.IsBloomLevel(difficulty) {
		return nil, fmt.Errorf("%w: unknown difficulty %q", errors.ErrInvalid, difficulty)
	}
	text, err := s.generate(ctx, prompt.Quiz(record.Notes, record.OriginalText, count, types, existing, difficulty), true)
	if err != nil {
		return nil, err
	}
	questions, err := artifact.DecodeQuiz(text)
	if err != nil {
		logutil.GetLogger(ctx).Warn("quiz decode failed",
			zap.String("content_id", contentID), zap.Error(err))
		return nil, err
	}
	return &QuizResult{QuizID: newID(), Questions: questions}, nil
}

type FlashcardResult struct {
	FlashcardID string
	Cards       []model.Flashcard
}

func (s *ArtifactService) GenerateFlashcards(ctx context.Context, contentID string, count int, existing []string) (*FlashcardResult, error) {
	record, err := s.loadContent(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		count = 10
	}
	text, err := s.generate(ctx, prompt.Flashcards(record.Notes, record.OriginalText, count, existing), true)
	if err != nil {
		return nil, err
	}
	cards, err := artifact.DecodeFlashcards(text)
	if err != nil {
		logutil.GetLogger(ctx).Warn("flashcard decode failed",
			zap.String("content_id", contentID), zap.Error(err))
		return nil, err
	}
	return &FlashcardResult{FlashcardID: newID(), Cards: cards}, nil
}

func (s *ArtifactService) GenerateMindmap(ctx context.Context, contentID string) (string, error) {
	record, err := s.loadContent(ctx, contentID)
	if err != nil {
		return "", err
	}
	_, headings := notesOutline(record.Notes)
	text, err := s.generate(ctx, prompt.Mindmap(record.Notes, record.OriginalText, headings), false)
	if err != nil {
		return "", err
	}
	mindmap, ok, err := artifact.CleanMindmap(text)
	if err != nil {
		return "", err
	}
	if !ok {
		logutil.GetLogger(ctx).Warn("mind map missing diagram header",
			zap.String("content_id", contentID))
	}
	return mindmap, nil
}

// EvaluateAnswer grades a short answer. contentID is optional; when set the
// stored notes are passed as grading context.
func (s *ArtifactService) EvaluateAnswer(ctx context.Context, contentID, question, correctAnswer, userAnswer string) (*model.AnswerEvaluation, error) {
	if question == "" || userAnswer == "" {
		return nil, fmt.Errorf("%w: question and answer are required", errors.ErrInvalid)
	}
	var notes string
	if contentID != "" {
		if record, err := s.contentRepo.GetByID(ctx, contentID); err == nil {
			notes = record.Notes
		}
	}
	text, err := s.generate(ctx, prompt.Evaluate(question, correctAnswer, userAnswer, notes), true)
	if err != nil {
		return nil, err
	}
	return artifact.DecodeEvaluation(text)
}

func (s *ArtifactService) loadContent(ctx context.Context, contentID string) (*model.ContentRecord, error) {
	if contentID == "" {
		return nil, fmt.Errorf("%w: content id is required", errors.ErrInvalid)
	}
	return s.contentRepo.GetByID(ctx, contentID)
}

func (s *ArtifactService) generate(ctx context.Context, p string, jsonOutput bool) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	rsp, err := s.client.Generate(genCtx, &ai.GenRequest{
		Messages:   []ai.Message{{Role: model.ChatRoleUser, Parts: []ai.Part{ai.TextPart(p)}}},
		JSONOutput: jsonOutput,
	})
	if err != nil {
		return "", err
	}
	if rsp.Status == ai.StatusBlocked {
		return "", fmt.Errorf("%w: generation was blocked", errors.ErrSafetyBlocked)
	}
	if rsp.Text == "" {
		return "", fmt.Errorf("%w: empty generation", errors.ErrInternal)
	}
	return rsp.Text, nil
}
