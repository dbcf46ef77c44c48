package artifact

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/xxxsen/studynote/internal/model"
	"github.com/xxxsen/studynote/internal/pkg/errors"
)

var matchingPairRegex = regexp.MustCompile(`^\d+-\d+$`)

var knownQuestionTypes = map[string]struct{}{
	model.QuestionTypeMCQ:         {},
	model.QuestionTypeTrueFalse:   {},
	model.QuestionTypeFillBlank:   {},
	model.QuestionTypeMatching:    {},
	model.QuestionTypeShortAnswer: {},
}

// DecodeQuiz parses and validates a generated quiz payload. Validation is
// strict per question type; a single malformed question fails the batch so
// the caller can retry rather than serve a broken quiz.
func DecodeQuiz(raw string) ([]model.QuizQuestion, error) {
	payload := RepairJSON(StripFences(raw))
	var questions []model.QuizQuestion
	if err := json.Unmarshal([]byte(payload), &questions); err != nil {
		return nil, decodeError("quiz", payload, err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: quiz is empty", errors.ErrSchemaInvalid)
	}
	for i := range questions {
		if err := validateQuestion(&questions[i]); err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", errors.ErrSchemaInvalid, i, err)
		}
	}
	return questions, nil
}

func validateQuestion(q *model.QuizQuestion) error {
	if _, ok := knownQuestionTypes[q.Type]; !ok {
		return fmt.Errorf("unknown type %q", q.Type)
	}
	if q.Question == "" {
		return fmt.Errorf("empty question text")
	}
	if !model.IsBloomLevel(q.Difficulty) {
		q.Difficulty = "Understand"
	}
	switch q.Type {
	case model.QuestionTypeMCQ:
		return validateMCQ(q)
	case model.QuestionTypeTrueFalse:
		return validateTrueFalse(q)
	case model.QuestionTypeMatching:
		return validateMatching(q)
	case model.QuestionTypeFillBlank:
		return validateFillBlank(q)
	case model.QuestionTypeShortAnswer:
		return validateShortAnswer(q)
	}
	return nil
}

func validateMCQ(q *model.QuizQuestion) error {
	var options []string
	if err := json.Unmarshal(q.Options, &options); err != nil || len(options) != 4 {
		return fmt.Errorf("MCQ needs exactly 4 string options")
	}
	var answer string
	if err := json.Unmarshal(q.CorrectAnswer, &answer); err != nil {
		return fmt.Errorf("MCQ answer must be a string")
	}
	for _, opt := range options {
		if opt == answer {
			return nil
		}
	}
	return fmt.Errorf("MCQ answer %q not among options", answer)
}

func validateTrueFalse(q *model.QuizQuestion) error {
	var answer string
	if err := json.Unmarshal(q.CorrectAnswer, &answer); err != nil || (answer != "True" && answer != "False") {
		return fmt.Errorf(`True/False answer must be "True" or "False"`)
	}
	// Options are fixed regardless of what the model produced.
	q.Options = json.RawMessage(`["True","False"]`)
	return nil
}

func validateMatching(q *model.QuizQuestion) error {
	var options model.MatchingOptions
	if err := json.Unmarshal(q.Options, &options); err != nil {
		return fmt.Errorf("matching options must be a column_a/column_b object")
	}
	if len(options.ColumnA) != 5 || len(options.ColumnB) != 5 {
		return fmt.Errorf("matching needs 5 entries per column, got %d/%d", len(options.ColumnA), len(options.ColumnB))
	}
	var pairs []string
	if err := json.Unmarshal(q.CorrectAnswer, &pairs); err != nil || len(pairs) != 5 {
		return fmt.Errorf("matching answer must be 5 pair strings")
	}
	for _, p := range pairs {
		if !matchingPairRegex.MatchString(p) {
			return fmt.Errorf("bad matching pair %q", p)
		}
	}
	return nil
}

func validateFillBlank(q *model.QuizQuestion) error {
	var answer string
	if err := json.Unmarshal(q.CorrectAnswer, &answer); err == nil {
		if answer == "" {
			return fmt.Errorf("empty fill-in-the-blank answer")
		}
		q.Options = json.RawMessage(`[]`)
		return nil
	}
	var answers []string
	if err := json.Unmarshal(q.CorrectAnswer, &answers); err != nil || len(answers) == 0 {
		return fmt.Errorf("fill-in-the-blank answer must be a string or string list")
	}
	q.Options = json.RawMessage(`[]`)
	return nil
}

func validateShortAnswer(q *model.QuizQuestion) error {
	var answer string
	if err := json.Unmarshal(q.CorrectAnswer, &answer); err != nil || answer == "" {
		return fmt.Errorf("short-answer needs a non-empty model answer")
	}
	q.Options = json.RawMessage(`[]`)
	return nil
}

// decodeError carries a short snippet around the failure offset so broken
// generations are debuggable from logs alone.
func decodeError(kind, payload string, err error) error {
	if syn, ok := err.(*json.SyntaxError); ok {
		start := int(syn.Offset) - 40
		if start < 0 {
			start = 0
		}
		end := int(syn.Offset) + 40
		if end > len(payload) {
			end = len(payload)
		}
		return fmt.Errorf("%w: %s decode at offset %d near %q: %v",
			errors.ErrSchemaInvalid, kind, syn.Offset, payload[start:end], err)
	}
	return fmt.Errorf("%w: %s decode: %v", errors.ErrSchemaInvalid, kind, err)
}
