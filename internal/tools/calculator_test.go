package tools

import (
	"context"
	"math"
	"strings"
	"testing"
)

func TestEvalExpression(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"2 + 2", 4},
		{"15^2", 225},
		{"(5 * 3) + 10", 25},
		{"10 - 4 - 3", 3},
		{"20 / 4 / 5", 1},
		{"sqrt(16)", 4},
		{"2 * pi", 2 * math.Pi},
		{"-5 + 3", -2},
		{"2^3^2", 512}, // right associative
		{"abs(-7)", 7},
		{"10 % 3", 1},
		{"floor(3.9)", 3},
		{"log10(1000)", 3},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := evalExpression(tt.expr)
			if err != nil {
				t.Fatalf("evalExpression(%q): %v", tt.expr, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("evalExpression(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEvalExpressionErrors(t *testing.T) {
	exprs := []string{
		"",
		"2 +",
		"1 / 0",
		"sqrt(",
		"(2 + 3",
		"2 + unknown(4)",
		"2 3",
	}

	for _, expr := range exprs {
		if _, err := evalExpression(expr); err == nil {
			t.Errorf("evalExpression(%q) should fail", expr)
		}
	}
}

func TestCalculatorExecute(t *testing.T) {
	out, err := Calculator{}.Execute(context.Background(), map[string]any{"expression": "15^2"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "225") {
		t.Errorf("output = %q, want it to contain 225", out)
	}

	if _, err := (Calculator{}).Execute(context.Background(), map[string]any{}); err == nil {
		t.Error("missing expression should error")
	}
}

func TestAdvancedCalculator(t *testing.T) {
	tests := []struct {
		name   string
		args   map[string]any
		want   string
		hasErr bool
	}{
		{"power", map[string]any{"operation": "power", "values": []any{25.0, 2.0}}, "625", false},
		{"sqrt", map[string]any{"operation": "sqrt", "values": []any{16.0}}, "4", false},
		{"factorial", map[string]any{"operation": "factorial", "values": []any{5.0}}, "120", false},
		{"mean", map[string]any{"operation": "mean", "values": []any{1.0, 2.0, 3.0}}, "2", false},
		{"median even", map[string]any{"operation": "median", "values": []any{1.0, 3.0, 2.0, 4.0}}, "2.5", false},
		{"negative sqrt", map[string]any{"operation": "sqrt", "values": []any{-1.0}}, "", true},
		{"unknown op", map[string]any{"operation": "cube", "values": []any{2.0}}, "", true},
		{"empty values", map[string]any{"operation": "mean", "values": []any{}}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := AdvancedCalculator{}.Execute(context.Background(), tt.args)
			if tt.hasErr {
				if err == nil {
					t.Fatalf("expected error, got %q", out)
				}
				return
			}
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output = %q, want it to contain %q", out, tt.want)
			}
		})
	}
}

func TestNumberArgCoercion(t *testing.T) {
	args := map[string]any{"quoted": "42", "plain": 7.0, "bad": "seven"}

	if v, err := numberArg(args, "quoted"); err != nil || v != 42 {
		t.Errorf("quoted number: v=%v err=%v", v, err)
	}
	if v, err := numberArg(args, "plain"); err != nil || v != 7 {
		t.Errorf("plain number: v=%v err=%v", v, err)
	}
	if _, err := numberArg(args, "bad"); err == nil {
		t.Error("non-numeric string should error")
	}
	if _, err := numberArg(args, "missing"); err == nil {
		t.Error("missing key should error")
	}
}
