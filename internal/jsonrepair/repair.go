// Package jsonrepair recovers structured data from malformed LLM output.
//
// Generation models asked for JSON routinely return almost-JSON: markdown
// fences around the payload, raw newlines inside string values, trailing
// commas, or output truncated mid-object when the token budget runs out.
// Unmarshal tries progressively more aggressive repairs before giving up:
//
//  1. strip markdown fences and parse as-is
//  2. extract the outermost object/array
//  3. escape raw control characters inside strings
//  4. strip trailing commas
//  5. close unterminated strings and balance brackets/braces
package jsonrepair

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	fencePattern     = regexp.MustCompile("```json\\s*|```\\s*")
	payloadPattern   = regexp.MustCompile(`(?s)(\{.*\}|\[.*\])`)
	trailingComma    = regexp.MustCompile(`,(\s*[}\]])`)
	danglingProp     = regexp.MustCompile(`:\s*$`)
	trailingCommaEnd = regexp.MustCompile(`,\s*$`)
)

// Unmarshal parses text into v, repairing common LLM JSON defects first.
// It returns an error only when no repair stage produces valid JSON.
func Unmarshal(text string, v any) error {
	clean := strings.TrimSpace(fencePattern.ReplaceAllString(text, ""))

	// Fast path: already valid.
	if err := json.Unmarshal([]byte(clean), v); err == nil {
		return nil
	}

	if m := payloadPattern.FindString(clean); m != "" {
		clean = m
	}

	escaped := escapeControlChars(clean)
	if err := json.Unmarshal([]byte(escaped), v); err == nil {
		return nil
	}

	lenient := trailingComma.ReplaceAllString(escaped, "$1")
	if err := json.Unmarshal([]byte(lenient), v); err == nil {
		return nil
	}

	repaired := repairTruncated(escaped)
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("json repair exhausted: %w", err)
	}
	return nil
}

// escapeControlChars escapes raw newlines, tabs, and other control
// characters that appear inside string values. The scan is string-aware:
// characters outside strings and already-escaped sequences pass through.
func escapeControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escape := false

	for _, r := range s {
		if escape {
			b.WriteRune(r)
			escape = false
			continue
		}
		if r == '\\' {
			b.WriteRune(r)
			escape = true
			continue
		}
		if r == '"' {
			inString = !inString
			b.WriteRune(r)
			continue
		}

		if inString {
			switch {
			case r == '\n':
				b.WriteString(`\n`)
			case r == '\r':
				b.WriteString(`\r`)
			case r == '\t':
				b.WriteString(`\t`)
			case r < 0x20:
				fmt.Fprintf(&b, `\u%04x`, r)
			default:
				b.WriteRune(r)
			}
		} else {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// repairTruncated closes a payload that was cut off mid-generation:
// unterminated strings, dangling "key": properties, and unbalanced
// brackets/braces.
func repairTruncated(s string) string {
	repaired := strings.TrimSpace(s)

	openBraces := 0
	openBrackets := 0
	inString := false
	escape := false

	for _, r := range repaired {
		if escape {
			escape = false
			continue
		}
		switch r {
		case '\\':
			escape = true
		case '"':
			inString = !inString
		case '{':
			if !inString {
				openBraces++
			}
		case '}':
			if !inString {
				openBraces--
			}
		case '[':
			if !inString {
				openBrackets++
			}
		case ']':
			if !inString {
				openBrackets--
			}
		}
	}

	// Mid-string truncation: close the string.
	if inString {
		repaired += `..."`
	}

	repaired = trailingCommaEnd.ReplaceAllString(repaired, "")
	repaired = trailingComma.ReplaceAllString(repaired, "$1")

	// A property whose value never arrived.
	if danglingProp.MatchString(repaired) {
		repaired += `""`
	}

	for openBrackets > 0 {
		repaired += "]"
		openBrackets--
	}
	for openBraces > 0 {
		repaired += "}"
		openBraces--
	}

	return repaired
}
