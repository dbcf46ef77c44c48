package artifact

import (
	"encoding/json"
	"fmt"

	"github.com/xxxsen/studynote/internal/model"
	"github.com/xxxsen/studynote/internal/pkg/errors"
)

// DecodeFlashcards parses and validates a generated flashcard payload.
func DecodeFlashcards(raw string) ([]model.Flashcard, error) {
	payload := RepairJSON(StripFences(raw))
	var cards []model.Flashcard
	if err := json.Unmarshal([]byte(payload), &cards); err != nil {
		return nil, decodeError("flashcards", payload, err)
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: flashcard set is empty", errors.ErrSchemaInvalid)
	}
	for i, card := range cards {
		if card.Question == "" || card.Answer == "" {
			return nil, fmt.Errorf("%w: flashcard %d has an empty side", errors.ErrSchemaInvalid, i)
		}
	}
	return cards, nil
}
