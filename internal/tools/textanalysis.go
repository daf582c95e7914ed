package tools

import (
	"context"
	"fmt"
	"strings"
)

// TextAnalysis computes word, character, and sentence metrics plus a
// coarse keyword-based sentiment reading.
type TextAnalysis struct{}

func (TextAnalysis) Name() string { return "analyze_text" }

func (TextAnalysis) Description() string {
	return "Analyzes text and reports word count, character count, sentence count, " +
		"average word length, and a simple sentiment classification."
}

func (TextAnalysis) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{
				"type":        "string",
				"description": "Text to analyze",
			},
		},
		"required": []string{"text"},
	}
}

var (
	positiveSentiment = []string{"good", "great", "excellent", "happy", "love", "amazing"}
	negativeSentiment = []string{"bad", "terrible", "hate", "sad", "awful", "poor"}
)

func (TextAnalysis) Execute(ctx context.Context, args map[string]any) (string, error) {
	text, err := stringArg(args, "text")
	if err != nil {
		return "", err
	}

	words := strings.Fields(text)
	sentences := 0
	for _, part := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		if strings.TrimSpace(part) != "" {
			sentences++
		}
	}

	var totalLen int
	for _, w := range words {
		totalLen += len(w)
	}
	avgLen := 0.0
	if len(words) > 0 {
		avgLen = float64(totalLen) / float64(len(words))
	}

	lower := strings.ToLower(text)
	pos, neg := 0, 0
	for _, w := range positiveSentiment {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range negativeSentiment {
		if strings.Contains(lower, w) {
			neg++
		}
	}
	sentiment := "neutral"
	if pos > neg {
		sentiment = "positive"
	} else if neg > pos {
		sentiment = "negative"
	}

	return fmt.Sprintf(
		"words: %d, characters: %d (without spaces: %d), sentences: %d, avg word length: %.2f, sentiment: %s",
		len(words), len(text), len(strings.ReplaceAll(text, " ", "")), sentences, avgLen, sentiment,
	), nil
}
