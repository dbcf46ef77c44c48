package artifact

import (
	"regexp"
	"strings"
)

var fenceRegex = regexp.MustCompile("(?s)^```[a-zA-Z]*[ \t]*\\n?(.*?)\\n?```[ \t]*$")

// StripFences unwraps a ```json / ```mermaid / ``` code fence if the whole
// payload is wrapped in one.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fenceRegex.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// RepairJSON doubles backslashes that do not start a valid JSON escape.
// Models writing LaTeX routinely emit things like "\frac{a}{b}" inside
// string values, which breaks decoding. The scan skips over already-valid
// escapes, so repairing valid JSON is a no-op.
func RepairJSON(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		if i+1 < len(s) && isJSONEscape(s[i+1]) {
			sb.WriteByte(c)
			sb.WriteByte(s[i+1])
			i++
			continue
		}
		sb.WriteString(`\\`)
	}
	return sb.String()
}

func isJSONEscape(c byte) bool {
	switch c {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
		return true
	}
	return false
}
