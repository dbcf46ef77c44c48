package artifact

import (
	"fmt"
	"strings"

	"github.com/xxxsen/studynote/internal/pkg/errors"
)

// CleanMindmap unwraps the generated Mermaid text. ok reports whether the
// payload starts with a recognized diagram header; callers treat a miss as a
// warning rather than a failure since most renderers still cope.
func CleanMindmap(raw string) (string, bool, error) {
	text := StripFences(raw)
	if text == "" {
		return "", false, fmt.Errorf("%w: empty mind map", errors.ErrSchemaInvalid)
	}
	ok := strings.HasPrefix(text, "graph ") || strings.HasPrefix(text, "flowchart ")
	return text, ok, nil
}
