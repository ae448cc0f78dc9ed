package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// thinkTagPattern matches <think>...</think> tags reasoning models may emit.
var thinkTagPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)

// codeFencePattern matches opening markdown code fences with an optional
// language tag, e.g. ```sql or ```json.
var codeFencePattern = regexp.MustCompile("(?i)```[a-z]*\n?")

// StripThinking removes <think>...</think> blocks from an LLM response.
func StripThinking(response string) string {
	return strings.TrimSpace(thinkTagPattern.ReplaceAllString(response, ""))
}

// CleanSQLResponse strips reasoning delimiters and markdown code fences from
// a raw model response, leaving bare SQL text.
func CleanSQLResponse(response string) string {
	cleaned := StripThinking(response)
	if strings.Contains(cleaned, "```") {
		cleaned = codeFencePattern.ReplaceAllString(cleaned, "")
		cleaned = strings.ReplaceAll(cleaned, "```", "")
	}
	return strings.TrimSpace(cleaned)
}

// ExtractJSON extracts JSON content from an LLM response that may contain
// <think> tags, markdown code blocks, or surrounding prose.
func ExtractJSON(response string) (string, error) {
	cleaned := StripThinking(response)

	// Find the first occurrence of { or [ to determine JSON type
	objStart := strings.IndexByte(cleaned, '{')
	arrStart := strings.IndexByte(cleaned, '[')

	if objStart >= 0 && (arrStart < 0 || objStart < arrStart) {
		if jsonStr, ok := extractBalancedJSON(cleaned, '{', '}'); ok {
			if json.Valid([]byte(jsonStr)) {
				return jsonStr, nil
			}
		}
	}

	if arrStart >= 0 {
		if jsonStr, ok := extractBalancedJSON(cleaned, '[', ']'); ok {
			if json.Valid([]byte(jsonStr)) {
				return jsonStr, nil
			}
		}
	}

	// Last resort: check if the entire cleaned response is valid JSON
	trimmed := strings.TrimSpace(cleaned)
	if json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}

	return "", fmt.Errorf("no valid JSON found in response")
}

// extractBalancedJSON finds the first balanced JSON structure starting with
// openChar. It handles nested structures by counting bracket depth and
// ignores brackets inside string values.
func extractBalancedJSON(s string, openChar, closeChar byte) (string, bool) {
	start := strings.IndexByte(s, openChar)
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}

		if c == '\\' && inString {
			escaped = true
			continue
		}

		if c == '"' {
			inString = !inString
			continue
		}

		if inString {
			continue
		}

		if c == openChar {
			depth++
		} else if c == closeChar {
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}

// ParseJSONResponse extracts JSON from a response and unmarshals it into the target.
func ParseJSONResponse[T any](response string) (T, error) {
	var result T

	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return result, err
	}

	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, fmt.Errorf("unmarshal JSON: %w", err)
	}

	return result, nil
}
