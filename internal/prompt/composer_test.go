package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/studynote/internal/model"
)

func TestNotesLabelsSourcesInOrder(t *testing.T) {
	c := NewComposer(30000)
	parts := c.Notes(&NotesInput{
		Units: []*model.ContentUnit{
			{Title: "Page One", Text: "alpha"},
			{Title: "Page Two", Text: "beta"},
		},
	})
	require.Len(t, parts, 1)
	text := parts[0].Text
	assert.Contains(t, text, "[Source 1: Page One]\nalpha")
	assert.Contains(t, text, "[Source 2: Page Two]\nbeta")
	assert.Less(t, strings.Index(text, "[Source 1:"), strings.Index(text, "[Source 2:"))
}

func TestNotesAppendsFileParts(t *testing.T) {
	c := NewComposer(30000)
	parts := c.Notes(&NotesInput{
		Units: []*model.ContentUnit{
			{Title: "text", Text: "alpha"},
			{Title: "doc.pdf", FileRef: &model.FileReference{URI: "https://files/x", MimeType: "application/pdf"}},
		},
	})
	require.Len(t, parts, 2)
	assert.Equal(t, "https://files/x", parts[1].FileURI)
	assert.Contains(t, parts[0].Text, "Attached documents")
}

func TestNotesTruncatesPrimaryText(t *testing.T) {
	c := NewComposer(100)
	parts := c.Notes(&NotesInput{
		Units: []*model.ContentUnit{{Title: "big", Text: strings.Repeat("a", 500)}},
	})
	assert.Contains(t, parts[0].Text, "[Material truncated for length]")
}

func TestNotesWebContextBlock(t *testing.T) {
	c := NewComposer(30000)
	parts := c.Notes(&NotesInput{
		Units:      []*model.ContentUnit{{Title: "t", Text: "x"}},
		WebContext: "[Web Source 1] http://a\nstuff",
	})
	assert.Contains(t, parts[0].Text, "SUPPLEMENTARY WEB CONTEXT")
	assert.Contains(t, parts[0].Text, "[Web Source N]")

	parts = c.Notes(&NotesInput{Units: []*model.ContentUnit{{Title: "t", Text: "x"}}})
	assert.NotContains(t, parts[0].Text, "SUPPLEMENTARY WEB CONTEXT")
}

func TestTargetLength(t *testing.T) {
	lower, upper := targetLength(100)
	assert.Equal(t, 500, lower)
	assert.Equal(t, 800, upper)

	lower, upper = targetLength(10000)
	assert.Equal(t, 1500, lower)
	assert.Equal(t, 3000, upper)

	lower, upper = targetLength(1000000)
	assert.Equal(t, 50000, lower)
	assert.Equal(t, 75000, upper)
}

func TestQuizPromptIncludesTypesAndExclusions(t *testing.T) {
	p := Quiz("notes body", "raw source text", 5,
		[]string{model.QuestionTypeMCQ, model.QuestionTypeMatching},
		[]string{"What is mitosis?"}, "")
	assert.Contains(t, p, "exactly 5 quiz questions")
	assert.Contains(t, p, "MCQ, Matching")
	assert.Contains(t, p, "Do NOT repeat")
	assert.Contains(t, p, "What is mitosis?")
	assert.Contains(t, p, "notes body")
	assert.Contains(t, p, "raw source text")
	assert.Contains(t, p, "Distribute questions across")
}

func TestQuizPromptPinnedDifficulty(t *testing.T) {
	p := Quiz("notes body", "", 5, []string{model.QuestionTypeMCQ}, nil, "Analyze")
	assert.Contains(t, p, `"Analyze"`)
	assert.NotContains(t, p, "Distribute questions across")
}

func TestQuizPromptCapsMaterial(t *testing.T) {
	p := Quiz(strings.Repeat("n", 10000), strings.Repeat("o", 10000), 3, []string{model.QuestionTypeMCQ}, nil, "")
	assert.Less(t, len(p), 14000)
}

func TestJoinContext(t *testing.T) {
	assert.Equal(t, "notes", joinContext("notes", "", 100))
	assert.Equal(t, "orig", joinContext("", "orig", 100))

	joined := joinContext("notes", "orig", 100)
	assert.Contains(t, joined, "notes")
	assert.Contains(t, joined, "--- ORIGINAL SOURCE TEXT ---")
	assert.Contains(t, joined, "orig")

	capped := joinContext(strings.Repeat("n", 50), strings.Repeat("o", 50), 10)
	assert.Contains(t, capped, strings.Repeat("n", 10))
	assert.Contains(t, capped, strings.Repeat("o", 10))
	assert.NotContains(t, capped, strings.Repeat("n", 11))
}

func TestChatSystemVariants(t *testing.T) {
	general := ChatSystem("", "", false)
	assert.NotContains(t, general, "STUDY MATERIAL")

	grounded := ChatSystem("the notes", "the raw text", true)
	assert.Contains(t, grounded, "--- STUDY MATERIAL ---")
	assert.Contains(t, grounded, "the notes")
	assert.Contains(t, grounded, "the raw text")
	assert.Contains(t, grounded, "[Web Source N]")

	noWeb := ChatSystem("the notes", "", false)
	assert.NotContains(t, noWeb, "[Web Source N]")
}

func TestEvaluatePrompt(t *testing.T) {
	p := Evaluate("Q?", "right", "close enough", "")
	assert.Contains(t, p, "Q?")
	assert.Contains(t, p, "right")
	assert.Contains(t, p, "close enough")
	assert.Contains(t, p, `"score"`)
	assert.NotContains(t, p, "STUDY NOTES")

	p = Evaluate("Q?", "right", "close enough", "the notes")
	assert.Contains(t, p, "--- STUDY NOTES ---")
	assert.Contains(t, p, "the notes")
}

func TestMindmapPromptOutline(t *testing.T) {
	p := Mindmap("body", "source text", []string{"Intro", "Details"})
	assert.Contains(t, p, "graph TD")
	assert.Contains(t, p, "- Intro")
	assert.Contains(t, p, "- Details")
	assert.Contains(t, p, "source text")
}
