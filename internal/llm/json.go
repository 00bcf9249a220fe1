package llm

import (
	"encoding/json"
	"strings"
)

// StripCodeFences removes markdown code fence wrapping from a string.
// Handles ```json, ```, and variations with language specifiers.
func StripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)

	if strings.HasPrefix(trimmed, "```") {
		// Find end of first line (after opening fence)
		firstNewline := strings.Index(trimmed, "\n")
		if firstNewline != -1 {
			lastFence := strings.LastIndex(trimmed, "```")
			if lastFence > firstNewline {
				content := trimmed[firstNewline+1 : lastFence]
				return strings.TrimSpace(content)
			}
		}
	}

	return trimmed
}

// ExtractLastJSON finds the last valid JSON object in a string.
// It handles cases where the model wraps JSON in code fences or
// surrounds it with prose.
func ExtractLastJSON(s string) string {
	cleaned := StripCodeFences(s)

	end := strings.LastIndex(cleaned, "}")
	if end == -1 {
		return ""
	}

	// Scan backwards to find the matching opening brace
	balance := 0
	for i := end; i >= 0; i-- {
		switch cleaned[i] {
		case '}':
			balance++
		case '{':
			balance--
		}

		if balance == 0 && cleaned[i] == '{' {
			candidate := cleaned[i : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate
			}
			// The outermost object ending at 'end' is malformed; no
			// valid JSON ends here.
			return ""
		}
	}

	return ""
}
