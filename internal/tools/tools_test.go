package tools

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestDateTimeCurrentTime(t *testing.T) {
	fixed := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	tool := DateTime{Now: func() time.Time { return fixed }}

	out, err := tool.Execute(context.Background(), map[string]any{"operation": "current_time"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "2025-06-15 10:30:00") {
		t.Errorf("output = %q", out)
	}

	out, err = tool.Execute(context.Background(), map[string]any{"operation": "get_current_year"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "2025") {
		t.Errorf("output = %q", out)
	}
}

func TestDateTimeAddDays(t *testing.T) {
	tool := DateTime{}
	out, err := tool.Execute(context.Background(), map[string]any{
		"operation": "add_days",
		"date":      "2025-01-30",
		"value":     5.0,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "2025-02-04") {
		t.Errorf("output = %q, want 2025-02-04", out)
	}

	out, err = tool.Execute(context.Background(), map[string]any{
		"operation": "subtract_days",
		"date":      "2025-01-05",
		"value":     10.0,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "2024-12-26") {
		t.Errorf("output = %q, want 2024-12-26", out)
	}
}

func TestDateTimeErrors(t *testing.T) {
	tool := DateTime{}
	if _, err := tool.Execute(context.Background(), map[string]any{"operation": "time_travel"}); err == nil {
		t.Error("unknown operation should error")
	}
	if _, err := tool.Execute(context.Background(), map[string]any{"operation": "add_days", "date": "garbage", "value": 1.0}); err == nil {
		t.Error("bad date should error")
	}
	if _, err := tool.Execute(context.Background(), map[string]any{"operation": "add_days"}); err == nil {
		t.Error("missing value should error")
	}
}

func TestTextAnalysis(t *testing.T) {
	out, err := TextAnalysis{}.Execute(context.Background(), map[string]any{
		"text": "This is great. I love it!",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "words: 6") {
		t.Errorf("output = %q, want 6 words", out)
	}
	if !strings.Contains(out, "sentences: 2") {
		t.Errorf("output = %q, want 2 sentences", out)
	}
	if !strings.Contains(out, "sentiment: positive") {
		t.Errorf("output = %q, want positive sentiment", out)
	}
}

func TestCurrencyConverter(t *testing.T) {
	out, err := CurrencyConverter{}.Execute(context.Background(), map[string]any{
		"amount":        100.0,
		"from_currency": "usd",
		"to_currency":   "EUR",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "85.00 EUR") {
		t.Errorf("output = %q, want 85.00 EUR", out)
	}

	if _, err := (CurrencyConverter{}).Execute(context.Background(), map[string]any{
		"amount":        1.0,
		"from_currency": "USD",
		"to_currency":   "XYZ",
	}); err == nil {
		t.Error("unsupported currency should error")
	}
}

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}

	mathTools := c.ToolsFor([]string{"MATH"})
	if len(mathTools) != 3 {
		t.Errorf("MATH has %d tools, want 3", len(mathTools))
	}

	names := make(map[string]bool)
	for _, tool := range mathTools {
		names[tool.Name()] = true
	}
	if !names["calculator"] || !names["advanced_calculator"] {
		t.Errorf("MATH tools = %v", names)
	}

	if got := c.ToolsFor([]string{"WEB"}); len(got) != 0 {
		t.Errorf("WEB should have no bundled tools, got %d", len(got))
	}
}
