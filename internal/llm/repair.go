package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var reTrailingComma = regexp.MustCompile(`,\s*([}\]])`)

// ExtractJSON pulls the JSON payload out of a free-form LLM reply.
// It tries, in order: a ```json fenced block, a plain ``` fenced block,
// the outermost {...} span, and finally the trimmed response itself.
func ExtractJSON(response string) string {
	if idx := strings.Index(response, "```json"); idx != -1 {
		start := idx + len("```json")
		if end := strings.Index(response[start:], "```"); end != -1 {
			return strings.TrimSpace(response[start : start+end])
		}
	} else if strings.Contains(response, "```") {
		parts := strings.Split(response, "```")
		if len(parts) >= 3 {
			return strings.TrimSpace(parts[1])
		}
	}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start != -1 && end > start {
		return response[start : end+1]
	}

	return strings.TrimSpace(response)
}

// ParseWithRepair decodes doc into a generic map, attempting a best-effort
// repair of common LLM output defects (trailing commas, unbalanced brackets)
// before giving up. Returns the decoded map, the bytes that actually parsed,
// and whether decoding succeeded.
func ParseWithRepair(doc string) (map[string]any, []byte, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(doc), &m); err == nil {
		return m, []byte(doc), true
	}

	repaired := strings.TrimSpace(doc)
	repaired = reTrailingComma.ReplaceAllString(repaired, "$1")

	// Balance brackets: models truncate output mid-structure. Arrays nest
	// inside the object, so close them first.
	if n := strings.Count(repaired, "[") - strings.Count(repaired, "]"); n > 0 {
		repaired += strings.Repeat("]", n)
	}
	if n := strings.Count(repaired, "{") - strings.Count(repaired, "}"); n > 0 {
		repaired += strings.Repeat("}", n)
	}
	repaired = reTrailingComma.ReplaceAllString(repaired, "$1")

	if err := json.Unmarshal([]byte(repaired), &m); err != nil {
		return nil, nil, false
	}
	return m, []byte(repaired), true
}
