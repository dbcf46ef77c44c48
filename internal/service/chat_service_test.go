package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/studynote/internal/ai"
	"github.com/xxxsen/studynote/internal/fetch"
	"github.com/xxxsen/studynote/internal/model"
	"github.com/xxxsen/studynote/internal/pkg/errors"
	"github.com/xxxsen/studynote/internal/search"
)

func newTestChatService(client ai.Client, sessions SessionStore) *ChatService {
	cfg := testConfig()
	contentStore := newFakeContentStore()
	_ = contentStore.Create(context.Background(), &model.ContentRecord{
		ID:           "c1",
		Title:        "T",
		Notes:        "# Notes\n\nthe material",
		OriginalText: "the original source text",
		FileNames:    "[]",
	})
	augmenter := search.NewAugmenter(client, fetch.NewClient(5*time.Second), cfg)
	return NewChatService(client, augmenter, contentStore, sessions, cfg)
}

func TestChatHistoryStaysWindowed(t *testing.T) {
	replies := make([]*ai.GenResult, 25)
	for i := range replies {
		replies[i] = &ai.GenResult{Text: fmt.Sprintf("reply %d", i), Status: ai.StatusComplete}
	}
	client := &fakeGenClient{replies: replies}
	sessions := newFakeSessionStore()
	svc := newTestChatService(client, sessions)

	var result *ChatResult
	var err error
	for i := 0; i < 25; i++ {
		result, err = svc.Chat(context.Background(), &ChatRequest{
			ContentID: "c1",
			Message:   fmt.Sprintf("message %d", i),
		})
		require.NoError(t, err)
	}

	assert.Equal(t, "reply 24", result.Reply)
	require.Len(t, result.History, 20)
	for i, turn := range result.History {
		if i%2 == 0 {
			assert.Equal(t, model.ChatRoleUser, turn.Role)
		} else {
			assert.Equal(t, model.ChatRoleAssistant, turn.Role)
		}
	}
	assert.Equal(t, "message 24", result.History[18].Text())
	assert.Equal(t, "reply 24", result.History[19].Text())
}

func TestChatValidation(t *testing.T) {
	svc := newTestChatService(&fakeGenClient{}, newFakeSessionStore())

	_, err := svc.Chat(context.Background(), &ChatRequest{ContentID: "c1"})
	assert.ErrorIs(t, err, errors.ErrInvalid)

	_, err = svc.Chat(context.Background(), &ChatRequest{ContentID: "missing", Message: "hi"})
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestChatResetsCorruptHistory(t *testing.T) {
	client := &fakeGenClient{replies: []*ai.GenResult{
		{Text: "fresh start", Status: ai.StatusComplete},
	}}
	sessions := newFakeSessionStore()
	sessions.histories["c1"] = "{not valid json"
	svc := newTestChatService(client, sessions)

	result, err := svc.Chat(context.Background(), &ChatRequest{ContentID: "c1", Message: "hi"})
	require.NoError(t, err)
	require.Len(t, result.History, 2)
	assert.Equal(t, "hi", result.History[0].Text())
	assert.Equal(t, "fresh start", result.History[1].Text())

	require.Len(t, client.requests, 1)
	assert.Contains(t, client.requests[0].System, "the material")
	assert.Contains(t, client.requests[0].System, "the original source text")
}

func TestChatBlockedReply(t *testing.T) {
	client := &fakeGenClient{replies: []*ai.GenResult{
		{Status: ai.StatusBlocked},
	}}
	svc := newTestChatService(client, newFakeSessionStore())

	_, err := svc.Chat(context.Background(), &ChatRequest{ContentID: "c1", Message: "hi"})
	assert.ErrorIs(t, err, errors.ErrSafetyBlocked)
}
