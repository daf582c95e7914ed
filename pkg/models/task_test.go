package models

import "testing"

func TestTaskStatusValid(t *testing.T) {
	valid := []TaskStatus{TaskStatusPending, TaskStatusInProgress, TaskStatusDone, TaskStatusFailed}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("status %q should be valid", s)
		}
	}

	if TaskStatus("blocked").Valid() {
		t.Error("unknown status should not be valid")
	}
	if TaskStatus("").Valid() {
		t.Error("empty status should not be valid")
	}
}

func TestTaskTerminal(t *testing.T) {
	tests := []struct {
		status TaskStatus
		want   bool
	}{
		{TaskStatusPending, false},
		{TaskStatusInProgress, false},
		{TaskStatusDone, true},
		{TaskStatusFailed, true},
	}

	for _, tt := range tests {
		task := &Task{ID: 1, Description: "x", Status: tt.status}
		if got := task.Terminal(); got != tt.want {
			t.Errorf("Terminal() with status %q = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestStatusGlyph(t *testing.T) {
	if TaskStatusDone.Glyph() != "[x]" {
		t.Errorf("done glyph = %q", TaskStatusDone.Glyph())
	}
	if TaskStatusPending.Glyph() != "[ ]" {
		t.Errorf("pending glyph = %q", TaskStatusPending.Glyph())
	}
}
