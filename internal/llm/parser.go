package llm

import (
	"fmt"
	"strings"

	"github.com/Veraticus/subscription-sentinel/internal/common"
)

// cleanMarkdownWrapper strips a ```json fence if the model added one.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

// ExtractJSONObject returns the first balanced {...} block in content. Braces inside
// JSON strings are ignored.
func ExtractJSONObject(content string) (string, error) {
	content = cleanMarkdownWrapper(content)

	start := strings.IndexByte(content, '{')
	if start < 0 {
		return "", fmt.Errorf("%w: no JSON object found", common.ErrMalformedOutput)
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		ch := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("%w: unterminated JSON object", common.ErrMalformedOutput)
}
