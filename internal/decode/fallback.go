package decode

import (
	"fmt"
	"regexp"
	"strings"
)

// Field names recognized by Fallback.
const (
	FieldClusters    = "clusters"
	FieldReasoning   = "reasoning"
	FieldInstruction = "instruction"
	FieldCompleted   = "completed"
	FieldNextAction  = "next_action"
	FieldAchieved    = "achieved"
	FieldEvidence    = "evidence"
)

var (
	reasoningPattern   = regexp.MustCompile(`(?i)reason(?:ing)?[:\s]+([^\n]+)`)
	instructionPattern = regexp.MustCompile(`(?i)instruction[:\s]+([^\n]+)`)
)

// Keyword tallies for sentiment-style completion checks. The sets differ
// slightly between "did the subtask complete" and "was the objective
// achieved", matching the evaluation prompts that produce them.
var (
	completedPositive = []string{"success", "completed", "done", "achieved", "yes", "true"}
	completedNegative = []string{"failed", "error", "not completed", "unsuccessful", "no", "false"}
	achievedPositive  = []string{"success", "achieved", "complete", "yes", "true", "correct"}
	achievedNegative  = []string{"failed", "not achieved", "incomplete", "no", "false", "wrong"}
)

// FallbackOptions configures heuristic extraction.
type FallbackOptions struct {
	// KnownClusters is the set of valid cluster names to scan for.
	KnownClusters []string
	// DefaultClusters is returned when no known cluster appears in the text.
	DefaultClusters []string
}

// Fallback performs field-specific heuristic extraction from text that
// failed structured parsing. Every requested field is present in the
// result with a non-nil value, so callers never need to re-check.
func Fallback(text string, fields []string, opts FallbackOptions) map[string]any {
	result := make(map[string]any, len(fields))
	lower := strings.ToLower(text)

	for _, field := range fields {
		switch field {
		case FieldClusters:
			result[FieldClusters] = scanClusters(text, lower, opts)
			result[FieldReasoning] = matchOrDefault(reasoningPattern, text, "extracted from unstructured response")
		case FieldInstruction:
			result[FieldInstruction] = extractInstruction(text)
		case FieldCompleted:
			pos, neg := tally(lower, completedPositive), tally(lower, completedNegative)
			completed := pos > neg
			result[FieldCompleted] = completed
			result[FieldReasoning] = fmt.Sprintf("text analysis: %d positive vs %d negative indicators", pos, neg)
			if completed {
				result[FieldNextAction] = "next_subtask"
			} else {
				result[FieldNextAction] = "reformulate"
			}
		case FieldAchieved:
			pos, neg := tally(lower, achievedPositive), tally(lower, achievedNegative)
			result[FieldAchieved] = pos > neg
			result[FieldEvidence] = fmt.Sprintf("text analysis: %d positive vs %d negative indicators", pos, neg)
		case FieldReasoning:
			if _, ok := result[FieldReasoning]; !ok {
				result[FieldReasoning] = matchOrDefault(reasoningPattern, text, "extracted from unstructured response")
			}
		case FieldNextAction:
			if _, ok := result[FieldNextAction]; !ok {
				result[FieldNextAction] = "retry"
			}
		case FieldEvidence:
			if _, ok := result[FieldEvidence]; !ok {
				result[FieldEvidence] = "no structured evidence available"
			}
		}
	}

	return result
}

// scanClusters finds known cluster names mentioned anywhere in the text.
func scanClusters(text, lower string, opts FallbackOptions) []string {
	var found []string
	for _, name := range opts.KnownClusters {
		if strings.Contains(lower, strings.ToLower(name)) || strings.Contains(text, name) {
			found = append(found, name)
		}
	}
	if len(found) > 0 {
		return found
	}
	if len(opts.DefaultClusters) > 0 {
		return append([]string(nil), opts.DefaultClusters...)
	}
	return []string{}
}

// extractInstruction looks for an explicit instruction marker, then
// falls back to the first substantive line of the text.
func extractInstruction(text string) string {
	if m := instructionPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 10 {
			return line
		}
	}
	return "Execute the task"
}

func matchOrDefault(re *regexp.Regexp, text, def string) string {
	if m := re.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return def
}

func tally(lower string, words []string) int {
	count := 0
	for _, w := range words {
		if strings.Contains(lower, w) {
			count++
		}
	}
	return count
}
