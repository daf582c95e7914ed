package decode

import (
	"strings"
	"testing"
)

func TestParseDirectJSON(t *testing.T) {
	result, err := Parse(`{"clusters": ["MATH"], "reasoning": "calculation needed"}`)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	clusters := StringList(result, "clusters")
	if len(clusters) != 1 || clusters[0] != "MATH" {
		t.Errorf("clusters = %v, want [MATH]", clusters)
	}
	if got := String(result, "reasoning", ""); got != "calculation needed" {
		t.Errorf("reasoning = %q", got)
	}
}

func TestParseFencedBlock(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"json fence", "Here is my answer:\n```json\n{\"clusters\": [\"MATH\"]}\n```"},
		{"bare fence", "```\n{\"clusters\": [\"MATH\"]}\n```\nDone."},
		{"fence with prose", "Thought: needs math tools.\n```json\n{\"clusters\": [\"MATH\"]}\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse returned error: %v", err)
			}
			clusters := StringList(result, "clusters")
			if len(clusters) != 1 || clusters[0] != "MATH" {
				t.Errorf("clusters = %v, want [MATH]", clusters)
			}
		})
	}
}

func TestParseEmbeddedObject(t *testing.T) {
	input := `I think the right move is {"action": "retry", "reasoning": "tool error"} based on the result.`
	result, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got := String(result, "action", ""); got != "retry" {
		t.Errorf("action = %q, want retry", got)
	}
}

func TestParseNestedObject(t *testing.T) {
	input := `prefix {"outer": {"inner": "value"}, "flag": true} suffix`
	result, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !Bool(result, "flag", false) {
		t.Error("flag should decode as true")
	}
}

func TestParseRepairsTruncation(t *testing.T) {
	// Unterminated string and missing close brace.
	input := `{"instruction": "open the search page`
	result, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse should repair truncated fragment, got error: %v", err)
	}
	if got := String(result, "instruction", ""); got != "open the search page" {
		t.Errorf("instruction = %q", got)
	}
}

func TestParseNeverPanics(t *testing.T) {
	inputs := []string{
		"",
		"no json at all",
		"{{{{",
		`}"broken"{`,
		"```json\nnot json\n```",
		strings.Repeat("{", 500),
		`[1, 2, 3]`, // array, not object
		"null",
	}

	for _, input := range inputs {
		result, err := Parse(input)
		if result == nil && err == nil {
			t.Errorf("Parse(%q) returned nil result with nil error", input)
		}
		if result == nil && err != nil && err.Error() == "" {
			t.Errorf("Parse(%q) returned empty error message", input)
		}
	}
}

func TestStringFieldDefaults(t *testing.T) {
	if got := String(nil, "x", "def"); got != "def" {
		t.Errorf("String(nil) = %q", got)
	}
	result := map[string]any{"n": 3.0, "blank": "  "}
	if got := String(result, "n", "def"); got != "def" {
		t.Errorf("non-string field should default, got %q", got)
	}
	if got := String(result, "blank", "def"); got != "def" {
		t.Errorf("blank field should default, got %q", got)
	}
}

func TestBoolField(t *testing.T) {
	result := map[string]any{"a": true, "b": "yes", "c": "False", "d": 1.0}
	if !Bool(result, "a", false) || !Bool(result, "b", false) {
		t.Error("true values not recognized")
	}
	if Bool(result, "c", true) {
		t.Error("string False should decode as false")
	}
	if !Bool(result, "d", true) {
		t.Error("unrecognized type should use default")
	}
}
