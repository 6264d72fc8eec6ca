package llm

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"
)

// ParseJSONResponse parses a JSON object from an LLM response, stripping
// markdown code fences and any prose around the outermost braces.
// Returns nil if no valid JSON object can be extracted.
func ParseJSONResponse(text string) map[string]any {
	text = ExtractJSON(text)
	if text == "" {
		return nil
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		log.Warn().Err(err).Msg("failed to parse LLM response as JSON")
		return nil
	}

	return result
}

// ExtractJSON strips markdown code fences and surrounding prose from a
// response, returning the outermost JSON object text, or "" if none.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

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
		text = strings.TrimSpace(text)
	}

	// Some models wrap the object in explanation text.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}
