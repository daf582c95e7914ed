package decode

import "testing"

var testOpts = FallbackOptions{
	KnownClusters:   []string{"MATH", "WEB", "DATA", "TEXT", "COMMUNICATION", "SYSTEM", "CODE"},
	DefaultClusters: []string{"WEB"},
}

func TestFallbackClusters(t *testing.T) {
	result := Fallback("I would pick the MATH and DATA tools for this.", []string{FieldClusters}, testOpts)

	clusters, ok := result[FieldClusters].([]string)
	if !ok {
		t.Fatalf("clusters field missing or wrong type: %v", result[FieldClusters])
	}
	if len(clusters) != 2 || clusters[0] != "MATH" || clusters[1] != "DATA" {
		t.Errorf("clusters = %v, want [MATH DATA]", clusters)
	}
	if _, ok := result[FieldReasoning]; !ok {
		t.Error("reasoning should accompany clusters")
	}
}

func TestFallbackClustersDefault(t *testing.T) {
	result := Fallback("nothing recognizable here", []string{FieldClusters}, testOpts)

	clusters := result[FieldClusters].([]string)
	if len(clusters) != 1 || clusters[0] != "WEB" {
		t.Errorf("clusters = %v, want safe default [WEB]", clusters)
	}
}

func TestFallbackInstruction(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"marker", "Instruction: open the results page", "open the results page"},
		{"first line", "navigate to the search form and submit it\nsecond line", "navigate to the search form and submit it"},
		{"empty", "", "Execute the task"},
		{"short lines only", "ok\nno\nyes", "Execute the task"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Fallback(tt.input, []string{FieldInstruction}, testOpts)
			if got := result[FieldInstruction]; got != tt.want {
				t.Errorf("instruction = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFallbackCompleted(t *testing.T) {
	result := Fallback("The action completed and the page loaded with success.", []string{FieldCompleted}, testOpts)
	if result[FieldCompleted] != true {
		t.Error("positive text should mark completed")
	}
	if result[FieldNextAction] != "next_subtask" {
		t.Errorf("next_action = %v", result[FieldNextAction])
	}

	result = Fallback("The tool failed with an error and nothing changed.", []string{FieldCompleted}, testOpts)
	if result[FieldCompleted] != false {
		t.Error("negative text should mark not completed")
	}
	if result[FieldNextAction] != "reformulate" {
		t.Errorf("next_action = %v", result[FieldNextAction])
	}
}

func TestFallbackAchieved(t *testing.T) {
	result := Fallback("Objective achieved, the answer is correct.", []string{FieldAchieved}, testOpts)
	if result[FieldAchieved] != true {
		t.Error("positive text should mark achieved")
	}
	if result[FieldEvidence] == "" {
		t.Error("evidence should be populated")
	}
}

func TestFallbackAllFieldsPresent(t *testing.T) {
	fields := []string{FieldClusters, FieldInstruction, FieldCompleted, FieldAchieved, FieldReasoning, FieldNextAction, FieldEvidence}
	result := Fallback("", fields, testOpts)

	for _, f := range fields {
		v, ok := result[f]
		if !ok {
			t.Errorf("field %q missing from fallback result", f)
		}
		if v == nil {
			t.Errorf("field %q is nil", f)
		}
	}
}
