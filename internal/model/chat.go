package model

import (
	"encoding/json"
	"fmt"
)

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "model"
)

// ChatTurn is one message in a session. Parts is always a list of plain
// strings after decoding; see UnmarshalJSON for the legacy shapes tolerated.
type ChatTurn struct {
	Role  string   `json:"role"`
	Parts []string `json:"parts"`
}

// UnmarshalJSON accepts the strict {"role":..,"parts":["text"]} shape plus
// the historical variant where each part is an object {"text": "..."}.
// Anything else fails loudly instead of being silently coerced.
func (t *ChatTurn) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role  string            `json:"role"`
		Parts []json.RawMessage `json:"parts"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Role != ChatRoleUser && raw.Role != ChatRoleAssistant {
		return fmt.Errorf("chat turn: unknown role %q", raw.Role)
	}
	parts := make([]string, 0, len(raw.Parts))
	for i, part := range raw.Parts {
		var text string
		if err := json.Unmarshal(part, &text); err == nil {
			parts = append(parts, text)
			continue
		}
		var obj struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(part, &obj); err == nil && obj.Text != "" {
			parts = append(parts, obj.Text)
			continue
		}
		return fmt.Errorf("chat turn: unsupported part shape at index %d", i)
	}
	t.Role = raw.Role
	t.Parts = parts
	return nil
}

func (t ChatTurn) Text() string {
	switch len(t.Parts) {
	case 0:
		return ""
	case 1:
		return t.Parts[0]
	}
	text := t.Parts[0]
	for _, p := range t.Parts[1:] {
		text += "\n" + p
	}
	return text
}

func NewUserTurn(text string) ChatTurn {
	return ChatTurn{Role: ChatRoleUser, Parts: []string{text}}
}

func NewAssistantTurn(text string) ChatTurn {
	return ChatTurn{Role: ChatRoleAssistant, Parts: []string{text}}
}

// WindowTurns returns the most recent 2*maxPairs turns, preserving order.
func WindowTurns(turns []ChatTurn, maxPairs int) []ChatTurn {
	limit := maxPairs * 2
	if limit <= 0 || len(turns) <= limit {
		return turns
	}
	return turns[len(turns)-limit:]
}

// ChatSession is the persisted form of a conversation scoped to one content
// record.
type ChatSession struct {
	ContentID string `db:"content_id"`
	History   string `db:"history"`
	Mtime     int64  `db:"mtime"`
}
