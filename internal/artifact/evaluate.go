package artifact

import (
	"encoding/json"
	"fmt"

	"github.com/xxxsen/studynote/internal/model"
	"github.com/xxxsen/studynote/internal/pkg/errors"
)

// DecodeEvaluation parses a generated answer evaluation, clamping the score
// into [0, 10].
func DecodeEvaluation(raw string) (*model.AnswerEvaluation, error) {
	payload := RepairJSON(StripFences(raw))
	var eval model.AnswerEvaluation
	if err := json.Unmarshal([]byte(payload), &eval); err != nil {
		return nil, decodeError("evaluation", payload, err)
	}
	if eval.Feedback == "" {
		return nil, fmt.Errorf("%w: evaluation has no feedback", errors.ErrSchemaInvalid)
	}
	if eval.Score < 0 {
		eval.Score = 0
	}
	if eval.Score > 10 {
		eval.Score = 10
	}
	return &eval, nil
}
