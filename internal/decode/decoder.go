// Package decode extracts structured results from free-text model output.
// Planner responses carry no format guarantee, so parsing is layered:
// direct JSON, fenced code blocks, embedded object scan, and bounded
// repair of truncated fragments. When all of that fails, callers fall
// back to field-level heuristic extraction (see fallback.go).
package decode

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// maxRepairAttempts bounds the truncation-repair loop.
const maxRepairAttempts = 2

// objectPattern matches a brace-delimited JSON object with at most one
// level of nesting, which covers every decision shape the planner emits.
var objectPattern = regexp.MustCompile(`\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)

// Parse extracts a JSON object from text. It never panics; on failure it
// returns nil and a non-nil error describing the last attempt.
func Parse(text string) (map[string]any, error) {
	trimmed := strings.TrimSpace(text)

	if result, err := unmarshalObject(trimmed); err == nil {
		return result, nil
	}

	// Fenced code block, ```json or bare ```.
	if block, ok := fencedBlock(trimmed); ok {
		if result, err := unmarshalObject(block); err == nil {
			return result, nil
		}
	}

	// Scan for embedded objects anywhere in the text.
	for _, match := range objectPattern.FindAllString(trimmed, -1) {
		if result, err := unmarshalObject(match); err == nil {
			return result, nil
		}
	}

	// Repair: balance quotes and braces, then re-parse.
	fixed := trimmed
	var lastErr error
	for attempt := 0; attempt < maxRepairAttempts; attempt++ {
		if strings.Count(fixed, `"`)%2 != 0 {
			fixed += `"`
		}
		if open, close := strings.Count(fixed, "{"), strings.Count(fixed, "}"); open > close {
			fixed += strings.Repeat("}", open-close)
		}
		result, err := unmarshalObject(fixed)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return nil, fmt.Errorf("no valid JSON object after %d repair attempts: %w", maxRepairAttempts, lastErr)
	}
	return nil, fmt.Errorf("no JSON object found in response")
}

// unmarshalObject decodes s into a map, rejecting non-object JSON.
func unmarshalObject(s string) (map[string]any, error) {
	var result map[string]any
	if err := json.Unmarshal([]byte(s), &result); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("JSON value is not an object")
	}
	return result, nil
}

// fencedBlock returns the content of the first markdown code fence.
func fencedBlock(text string) (string, bool) {
	if idx := strings.Index(text, "```json"); idx >= 0 {
		rest := text[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end]), true
		}
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end]), true
		}
	}
	return "", false
}

// String reads a string field from a parsed result, returning def when
// the field is missing or not a string.
func String(result map[string]any, key, def string) string {
	if result == nil {
		return def
	}
	if v, ok := result[key].(string); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

// Bool reads a boolean field, accepting JSON booleans and the common
// "true"/"false" string renderings.
func Bool(result map[string]any, key string, def bool) bool {
	if result == nil {
		return def
	}
	switch v := result[key].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes":
			return true
		case "false", "no":
			return false
		}
	}
	return def
}

// StringList reads a list-of-strings field, tolerating mixed-type arrays.
func StringList(result map[string]any, key string) []string {
	if result == nil {
		return nil
	}
	raw, ok := result[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range raw {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
