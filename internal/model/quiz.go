package model

import "encoding/json"

const (
	QuestionTypeMCQ         = "MCQ"
	QuestionTypeTrueFalse   = "True/False"
	QuestionTypeFillBlank   = "Fill_in_the_Blank"
	QuestionTypeMatching    = "Matching"
	QuestionTypeShortAnswer = "Short_Answer"
)

var BloomLevels = []string{"Remember", "Understand", "Apply", "Analyze", "Evaluate", "Create"}

func IsBloomLevel(level string) bool {
	for _, l := range BloomLevels {
		if l == level {
			return true
		}
	}
	return false
}

// QuizQuestion keeps Options and CorrectAnswer as raw JSON because their
// shape depends on Type: MCQ carries a 4-string array, Matching carries a
// column_a/column_b object, and so on. The artifact package validates the
// shape per type before a question is ever returned to a caller.
type QuizQuestion struct {
	Type          string          `json:"type"`
	Question      string          `json:"question"`
	Options       json.RawMessage `json:"options"`
	CorrectAnswer json.RawMessage `json:"correct_answer"`
	Explanation   string          `json:"explanation"`
	Difficulty    string          `json:"difficulty"`
}

type MatchingOptions struct {
	ColumnA []string `json:"column_a"`
	ColumnB []string `json:"column_b"`
}

type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type AnswerEvaluation struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}
