package prompt

import (
	"fmt"
	"strings"

	"github.com/xxxsen/studynote/internal/ai"
	"github.com/xxxsen/studynote/internal/model"
)

const (
	primaryJoin = "\n\n---\n\n"

	quizContextLimit      = 6000
	flashcardContextLimit = 5000
	mindmapContextLimit   = 15000
	chatContextLimit      = 8000

	notesLowerMin = 500
	notesLowerMax = 50000
	notesUpperMin = 800
	notesUpperMax = 75000
)

type Composer struct {
	primaryTextLimit int
}

func NewComposer(primaryTextLimit int) *Composer {
	return &Composer{primaryTextLimit: primaryTextLimit}
}

// NotesInput carries everything the notes prompt is built from. Units must
// already be filtered to usable ones.
type NotesInput struct {
	Units       []*model.ContentUnit
	Topic       string
	Description string
	WebContext  string
}

// Notes assembles the ordered parts for the notes generation call: the
// instruction text plus one file part per uploaded document.
func (c *Composer) Notes(in *NotesInput) []ai.Part {
	combined, truncated := c.combineText(in.Units)
	lower, upper := targetLength(len(combined))

	var sb strings.Builder
	sb.WriteString("You are an expert educator. Create comprehensive, well-structured Markdown study notes from the material below.\n\n")
	if in.Topic != "" {
		fmt.Fprintf(&sb, "Study topic: %s\n", in.Topic)
	}
	if in.Description != "" {
		fmt.Fprintf(&sb, "Focus guidance from the learner: %s\n", in.Description)
	}
	if combined != "" {
		sb.WriteString("\n--- STUDY MATERIAL ---\n")
		sb.WriteString(combined)
		if truncated {
			sb.WriteString("\n\n[Material truncated for length]")
		}
		sb.WriteString("\n--- END STUDY MATERIAL ---\n")
	}
	if hasFiles(in.Units) {
		sb.WriteString("\nAttached documents are part of the study material; analyze them directly.\n")
	}
	if in.WebContext != "" {
		sb.WriteString("\n--- SUPPLEMENTARY WEB CONTEXT ---\n")
		sb.WriteString(in.WebContext)
		sb.WriteString("\n--- END WEB CONTEXT ---\n")
		sb.WriteString("\nWhen you use information from the web context, cite it inline as [Web Source N].\n")
	}
	fmt.Fprintf(&sb, `
Requirements:
- Use Markdown with a single top-level heading, clear section headings, bullet points, and tables where helpful.
- Cover every major concept in the material; do not invent facts that are not supported by it.
- Explain terms on first use and keep a logical progression from fundamentals to details.
- Aim for between %d and %d characters of output.
`, lower, upper)

	parts := []ai.Part{ai.TextPart(sb.String())}
	for _, u := range in.Units {
		if u.FileRef != nil {
			parts = append(parts, ai.FilePart(u.FileRef.URI, u.FileRef.MimeType))
		}
	}
	return parts
}

func (c *Composer) combineText(units []*model.ContentUnit) (string, bool) {
	var blocks []string
	n := 0
	for _, u := range units {
		if u.Text == "" {
			continue
		}
		n++
		title := u.Title
		if title == "" {
			title = u.SourceURI
		}
		blocks = append(blocks, fmt.Sprintf("[Source %d: %s]\n%s", n, title, u.Text))
	}
	combined := strings.Join(blocks, primaryJoin)
	if c.primaryTextLimit > 0 && len(combined) > c.primaryTextLimit {
		return combined[:c.primaryTextLimit], true
	}
	return combined, false
}

// targetLength derives an advisory output size range from the input size so
// short material does not balloon and long material is not flattened.
func targetLength(inputLen int) (int, int) {
	lower := clamp(inputLen*15/100, notesLowerMin, notesLowerMax)
	upper := clamp(inputLen*30/100, notesUpperMin, notesUpperMax)
	if upper < lower {
		upper = lower
	}
	return lower, upper
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func hasFiles(units []*model.ContentUnit) bool {
	for _, u := range units {
		if u.FileRef != nil {
			return true
		}
	}
	return false
}

// joinContext merges generated notes with the raw source text, capping each
// side so one oversized half cannot crowd out the other.
func joinContext(notes, original string, limit int) string {
	notes = capText(notes, limit)
	original = capText(original, limit)
	switch {
	case original == "":
		return notes
	case notes == "":
		return original
	}
	return notes + "\n\n--- ORIGINAL SOURCE TEXT ---\n\n" + original
}

// Quiz builds the quiz generation prompt from the notes and the raw source
// text. existing lists question texts the model must not repeat; difficulty,
// when set, pins every question to one Bloom level instead of spreading
// across all six.
func Quiz(notes, original string, count int, types []string, existing []string, difficulty string) string {
	material := joinContext(notes, original, quizContextLimit)
	var sb strings.Builder
	fmt.Fprintf(&sb, `Generate exactly %d quiz questions from the study material below, using only these question types: %s.

`, count, strings.Join(types, ", "))
	if difficulty != "" {
		fmt.Fprintf(&sb, "Target the %q level of Bloom's taxonomy and set each question's \"difficulty\" to %q.\n", difficulty, difficulty)
	} else {
		sb.WriteString("Distribute questions across Bloom's taxonomy levels (Remember, Understand, Apply, Analyze, Evaluate, Create) and set each question's \"difficulty\" to its level.\n")
	}
	sb.WriteString(`
Return ONLY a JSON array. Each element:
- "type": one of the listed types
- "question": the question text
- "options": for "MCQ" an array of exactly 4 strings; for "True/False" exactly ["True","False"]; for "Matching" an object {"column_a":[5 strings],"column_b":[5 strings]}; otherwise an empty array
- "correct_answer": for "MCQ"/"True/False" one of the options; for "Matching" an array of 5 strings like "1-3" pairing column_a to column_b; for "Fill_in_the_Blank" the missing word or words; for "Short_Answer" a model answer
- "explanation": why the answer is correct
- "difficulty": the Bloom level

Escape every backslash in LaTeX as \\\\ so the JSON parses.
`)
	if len(existing) > 0 {
		sb.WriteString("\nDo NOT repeat any of these existing questions:\n")
		for _, q := range existing {
			fmt.Fprintf(&sb, "- %s\n", q)
		}
	}
	fmt.Fprintf(&sb, "\n--- STUDY MATERIAL ---\n%s\n--- END STUDY MATERIAL ---\n", material)
	return sb.String()
}

// Flashcards builds the flashcard generation prompt. existing lists card
// fronts the model must not repeat.
func Flashcards(notes, original string, count int, existing []string) string {
	material := joinContext(notes, original, flashcardContextLimit)
	var sb strings.Builder
	fmt.Fprintf(&sb, `Create exactly %d flashcards from the study material below.

Return ONLY a JSON array of objects with "question" and "answer" string fields.
Questions should test one concept each; answers should be concise but complete.
Escape every backslash in LaTeX as \\\\ so the JSON parses.
`, count)
	if len(existing) > 0 {
		sb.WriteString("\nDo NOT repeat any of these existing flashcards:\n")
		for _, q := range existing {
			fmt.Fprintf(&sb, "- %s\n", q)
		}
	}
	fmt.Fprintf(&sb, "\n--- STUDY MATERIAL ---\n%s\n--- END STUDY MATERIAL ---\n", material)
	return sb.String()
}

// Mindmap builds the Mermaid mind-map generation prompt. outline, when
// non-empty, is the heading structure extracted from the notes.
func Mindmap(notes, original string, outline []string) string {
	material := joinContext(notes, original, mindmapContextLimit)
	var sb strings.Builder
	sb.WriteString(`Create a Mermaid diagram summarizing the study material below as a concept map.

Rules:
- Output ONLY Mermaid syntax, starting with "graph TD".
- Use short node labels (a few words); quote labels containing special characters.
- Group related concepts under their parent topic.
`)
	if len(outline) > 0 {
		sb.WriteString("\nThe notes cover these sections:\n")
		for _, h := range outline {
			fmt.Fprintf(&sb, "- %s\n", h)
		}
	}
	fmt.Fprintf(&sb, "\n--- STUDY MATERIAL ---\n%s\n--- END STUDY MATERIAL ---\n", material)
	return sb.String()
}

// Evaluate builds the short-answer grading prompt. notesContext, when
// non-empty, gives the grader the study material the question came from.
func Evaluate(question, correctAnswer, userAnswer, notesContext string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `Grade the learner's answer against the reference answer.

Question: %s
Reference answer: %s
Learner's answer: %s
`, question, correctAnswer, userAnswer)
	if notesContext != "" {
		fmt.Fprintf(&sb, "\n--- STUDY NOTES ---\n%s\n--- END STUDY NOTES ---\n", capText(notesContext, flashcardContextLimit))
	}
	sb.WriteString(`
Return ONLY a JSON object: {"score": <integer 0-10>, "feedback": "<one or two sentences: what was right, what was missing>"}.
Award partial credit for partially correct answers.
`)
	return sb.String()
}

// ChatSystem builds the chat system instruction. With study material present
// the assistant is grounded in it; otherwise it acts as a general helper.
func ChatSystem(notes, original string, webEnabled bool) string {
	material := joinContext(notes, original, chatContextLimit)
	if material == "" {
		return "You are a helpful study assistant. Answer clearly and concisely, and say so when you are unsure."
	}
	var sb strings.Builder
	sb.WriteString(`You are a study assistant. Answer the learner's questions using the study material below as your primary source.

Rules:
- Prefer the study material; quote or paraphrase it where possible.
- If you draw on general knowledge beyond the material, say so explicitly.
`)
	if webEnabled {
		sb.WriteString("- When web context is provided with a message, cite it inline as [Web Source N].\n")
	}
	fmt.Fprintf(&sb, "\n--- STUDY MATERIAL ---\n%s\n--- END STUDY MATERIAL ---\n", material)
	return sb.String()
}

func capText(s string, limit int) string {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}
