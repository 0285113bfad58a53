package llm

import (
	"encoding/json"
	"strings"
)

// DecodeJSON decodes a JSON response from an LLM into v, tolerating markdown
// code fences around the object. A decode failure is returned to the caller;
// coercion of field values is the caller's policy, structural validation
// happens here.
func DecodeJSON(text string, v any) error {
	text = strings.TrimSpace(text)

	// Strip markdown code fences
	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		endIdx := len(lines) - 1
		for i := len(lines) - 1; i > 0; i-- {
			if strings.TrimSpace(lines[i]) == "```" {
				endIdx = i
				break
			}
		}
		text = strings.Join(lines[1:endIdx], "\n")
	}

	return json.Unmarshal([]byte(text), v)
}
