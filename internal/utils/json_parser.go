package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ExtractJSON parses a JSON payload out of raw model output. The reply may
// be pure JSON, JSON inside a markdown code fence, JSON buried in prose, or
// slightly malformed JSON (trailing commas, unquoted keys, single quotes).
func ExtractJSON(input string, target interface{}) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("empty input")
	}

	// Most replies are already valid JSON
	if err := json.Unmarshal([]byte(input), target); err == nil {
		return nil
	}

	if fenced := extractFromMarkdown(input); fenced != "" {
		if err := json.Unmarshal([]byte(fenced), target); err == nil {
			return nil
		}
	}

	if embedded := extractJSONFromText(input); embedded != "" {
		if err := json.Unmarshal([]byte(embedded), target); err == nil {
			return nil
		}
	}

	if repaired := repairJSON(input); repaired != "" {
		if err := json.Unmarshal([]byte(repaired), target); err == nil {
			return nil
		}
	}

	return fmt.Errorf("no parseable JSON in input: %s", truncateString(input, 100))
}

// extractFromMarkdown pulls JSON out of ```json ... ``` or ``` ... ``` fences
func extractFromMarkdown(input string) string {
	re := regexp.MustCompile("(?s)```json\\s*(.+?)\\s*```")
	if matches := re.FindStringSubmatch(input); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	re = regexp.MustCompile("(?s)```\\s*(.+?)\\s*```")
	if matches := re.FindStringSubmatch(input); len(matches) > 1 {
		content := strings.TrimSpace(matches[1])
		if strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[") {
			return content
		}
	}

	return ""
}

// extractJSONFromText finds the first JSON object or array in surrounding prose
func extractJSONFromText(input string) string {
	if start := strings.Index(input, "{"); start >= 0 {
		if extracted := extractBalanced(input[start:], '{', '}'); extracted != "" {
			return extracted
		}
	}

	if start := strings.Index(input, "["); start >= 0 {
		if extracted := extractBalanced(input[start:], '[', ']'); extracted != "" {
			return extracted
		}
	}

	return ""
}

// extractBalanced returns the shortest prefix with balanced open/close
// runes, ignoring delimiters inside string literals
func extractBalanced(input string, open, close rune) string {
	depth := 0
	inString := false
	escape := false
	start := 0

	for i, ch := range input {
		if escape {
			escape = false
			continue
		}

		if ch == '\\' {
			escape = true
			continue
		}

		if ch == '"' {
			inString = !inString
			continue
		}

		if inString {
			continue
		}

		if ch == open {
			if depth == 0 {
				start = i
			}
			depth++
		} else if ch == close {
			depth--
			if depth == 0 {
				return input[start : i+1]
			}
		}
	}

	return ""
}

// repairJSON fixes the malformations models produce most often
func repairJSON(input string) string {
	s := strings.TrimSpace(input)
	s = strings.TrimPrefix(s, "\ufeff")

	// Trailing commas before closing braces/brackets
	s = regexp.MustCompile(`,\s*([}\]])`).ReplaceAllString(s, "$1")

	// Unquoted keys: {cause: "..."} -> {"cause": "..."}
	s = regexp.MustCompile(`([{,]\s*)(\w+)(\s*:)`).ReplaceAllString(s, `$1"$2"$3`)

	s = fixSingleQuotes(s)

	// Strip non-printable control characters
	s = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`).ReplaceAllString(s, "")

	return s
}

// fixSingleQuotes converts single-quote delimiters to double quotes,
// leaving apostrophes inside double-quoted strings alone
func fixSingleQuotes(input string) string {
	var result strings.Builder
	inDoubleQuote := false
	escape := false

	for i, ch := range input {
		if escape {
			result.WriteRune(ch)
			escape = false
			continue
		}

		if ch == '\\' {
			result.WriteRune(ch)
			escape = true
			continue
		}

		if ch == '"' {
			inDoubleQuote = !inDoubleQuote
			result.WriteRune(ch)
			continue
		}

		if ch == '\'' && !inDoubleQuote {
			prevChar := rune(0)
			if i > 0 {
				prevChar = rune(input[i-1])
			}
			if i == 0 || prevChar == ':' || prevChar == ',' || prevChar == '[' || prevChar == '{' {
				result.WriteRune('"')
				continue
			}
		}

		result.WriteRune(ch)
	}

	return result.String()
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
