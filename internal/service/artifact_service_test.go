package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/studynote/internal/ai"
	"github.com/xxxsen/studynote/internal/model"
	"github.com/xxxsen/studynote/internal/pkg/errors"
)

func newTestArtifactService(client ai.Client, notes string) (*ArtifactService, string) {
	contentStore := newFakeContentStore()
	record := &model.ContentRecord{
		ID:           "c1",
		Title:        "T",
		Notes:        notes,
		OriginalText: "raw source paragraph",
		FileNames:    "[]",
	}
	_ = contentStore.Create(context.Background(), record)
	return NewArtifactService(client, contentStore, testConfig()), record.ID
}

func mcqBatch(n int) string {
	items := make([]map[string]interface{}, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, map[string]interface{}{
			"type":           model.QuestionTypeMCQ,
			"question":       fmt.Sprintf("Question %d?", i),
			"options":        []string{"a", "b", "c", "d"},
			"correct_answer": "b",
			"explanation":    "because",
			"difficulty":     "Apply",
		})
	}
	raw, _ := json.Marshal(items)
	return string(raw)
}

func TestGenerateQuizMCQBatch(t *testing.T) {
	client := &fakeGenClient{replies: []*ai.GenResult{
		{Text: mcqBatch(5), Status: ai.StatusComplete},
	}}
	svc, contentID := newTestArtifactService(client, "the notes")

	result, err := svc.GenerateQuiz(context.Background(), contentID, 5, []string{model.QuestionTypeMCQ}, nil, "")
	require.NoError(t, err)
	require.Len(t, result.Questions, 5)
	assert.NotEmpty(t, result.QuizID)
	for _, q := range result.Questions {
		assert.Equal(t, model.QuestionTypeMCQ, q.Type)
	}
	require.Len(t, client.requests, 1)
	quizPrompt := client.requests[0].Messages[0].Parts[0].Text
	assert.Contains(t, quizPrompt, "the notes")
	assert.Contains(t, quizPrompt, "raw source paragraph")
}

func TestGenerateQuizRejectsBadInput(t *testing.T) {
	svc, contentID := newTestArtifactService(&fakeGenClient{}, "the notes")

	_, err := svc.GenerateQuiz(context.Background(), contentID, 5, []string{"Essay"}, nil, "")
	assert.ErrorIs(t, err, errors.ErrInvalid)

	_, err = svc.GenerateQuiz(context.Background(), contentID, 5, nil, nil, "Impossible")
	assert.ErrorIs(t, err, errors.ErrInvalid)

	_, err = svc.GenerateQuiz(context.Background(), "", 5, nil, nil, "")
	assert.ErrorIs(t, err, errors.ErrInvalid)

	_, err = svc.GenerateQuiz(context.Background(), "missing", 5, nil, nil, "")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestGenerateQuizSchemaFailureIsNotRetried(t *testing.T) {
	client := &fakeGenClient{replies: []*ai.GenResult{
		{Text: "not json at all", Status: ai.StatusComplete},
		{Text: mcqBatch(5), Status: ai.StatusComplete},
	}}
	svc, contentID := newTestArtifactService(client, "the notes")

	_, err := svc.GenerateQuiz(context.Background(), contentID, 5, []string{model.QuestionTypeMCQ}, nil, "")
	assert.ErrorIs(t, err, errors.ErrSchemaInvalid)
	assert.Len(t, client.requests, 1)
}

func TestGenerateFlashcards(t *testing.T) {
	client := &fakeGenClient{replies: []*ai.GenResult{
		{Text: `[{"question":"Q1","answer":"A1"},{"question":"Q2","answer":"A2"}]`, Status: ai.StatusComplete},
	}}
	svc, contentID := newTestArtifactService(client, "the notes")

	result, err := svc.GenerateFlashcards(context.Background(), contentID, 2, []string{"Q0"})
	require.NoError(t, err)
	assert.Len(t, result.Cards, 2)
	assert.NotEmpty(t, result.FlashcardID)
	require.Len(t, client.requests, 1)
	assert.Contains(t, client.requests[0].Messages[0].Parts[0].Text, "Q0")
}

func TestGenerateMindmap(t *testing.T) {
	client := &fakeGenClient{replies: []*ai.GenResult{
		{Text: "```mermaid\ngraph TD\nA-->B\n```", Status: ai.StatusComplete},
	}}
	svc, contentID := newTestArtifactService(client, "# Title\n\n## Section\n\nbody")

	mindmap, err := svc.GenerateMindmap(context.Background(), contentID)
	require.NoError(t, err)
	assert.Contains(t, mindmap, "graph TD")
	assert.NotContains(t, mindmap, "```")
}

func TestEvaluateAnswer(t *testing.T) {
	client := &fakeGenClient{replies: []*ai.GenResult{
		{Text: `{"score": 7, "feedback": "mostly right"}`, Status: ai.StatusComplete},
	}}
	svc, contentID := newTestArtifactService(client, "grading context")

	eval, err := svc.EvaluateAnswer(context.Background(), contentID, "Q?", "ideal", "close")
	require.NoError(t, err)
	assert.Equal(t, 7, eval.Score)
	assert.Equal(t, "mostly right", eval.Feedback)
	require.Len(t, client.requests, 1)
	assert.Contains(t, client.requests[0].Messages[0].Parts[0].Text, "grading context")

	_, err = svc.EvaluateAnswer(context.Background(), "", "", "ideal", "close")
	assert.ErrorIs(t, err, errors.ErrInvalid)
}
