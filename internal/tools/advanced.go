package tools

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// AdvancedCalculator performs named operations over an array of
// values. Models that struggle with free-form expressions do better
// with this structured form.
type AdvancedCalculator struct{}

func (AdvancedCalculator) Name() string { return "advanced_calculator" }

func (AdvancedCalculator) Description() string {
	return "Performs advanced mathematical operations. " +
		`Examples: square 25 is {"operation": "power", "values": [25, 2]}; ` +
		`square root of 16 is {"operation": "sqrt", "values": [16]}; ` +
		`factorial of 5 is {"operation": "factorial", "values": [5]}.`
}

func (AdvancedCalculator) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type":        "string",
				"description": "Mathematical operation to perform",
				"enum": []string{
					"factorial", "power", "sqrt", "log",
					"sin", "cos", "tan", "mean", "median", "std_dev",
				},
			},
			"values": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "number"},
				"description": "Numbers to operate on. For power: [base, exponent]. For sqrt and factorial: [number]. For statistics: the full sample.",
			},
		},
		"required": []string{"operation", "values"},
	}
}

func (AdvancedCalculator) Execute(ctx context.Context, args map[string]any) (string, error) {
	op, err := stringArg(args, "operation")
	if err != nil {
		return "", err
	}
	values, err := numberListArg(args, "values")
	if err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "", fmt.Errorf("operation %q requires at least one value", op)
	}

	var result float64
	switch op {
	case "factorial":
		n := int(values[0])
		if n < 0 || float64(n) != values[0] {
			return "", fmt.Errorf("factorial requires a non-negative integer, got %v", values[0])
		}
		if n > 170 {
			return "", fmt.Errorf("factorial of %d overflows", n)
		}
		result = 1
		for i := 2; i <= n; i++ {
			result *= float64(i)
		}
	case "power":
		if len(values) < 2 {
			return "", fmt.Errorf("power requires [base, exponent]")
		}
		result = math.Pow(values[0], values[1])
	case "sqrt":
		if values[0] < 0 {
			return "", fmt.Errorf("square root of negative number %v", values[0])
		}
		result = math.Sqrt(values[0])
	case "log":
		if values[0] <= 0 {
			return "", fmt.Errorf("logarithm requires a positive number, got %v", values[0])
		}
		if len(values) > 1 {
			result = math.Log(values[0]) / math.Log(values[1])
		} else {
			result = math.Log(values[0])
		}
	case "sin":
		result = math.Sin(values[0] * math.Pi / 180)
	case "cos":
		result = math.Cos(values[0] * math.Pi / 180)
	case "tan":
		result = math.Tan(values[0] * math.Pi / 180)
	case "mean":
		result = mean(values)
	case "median":
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)
		n := len(sorted)
		if n%2 == 1 {
			result = sorted[n/2]
		} else {
			result = (sorted[n/2-1] + sorted[n/2]) / 2
		}
	case "std_dev":
		m := mean(values)
		var variance float64
		for _, v := range values {
			variance += (v - m) * (v - m)
		}
		result = math.Sqrt(variance / float64(len(values)))
	default:
		return "", fmt.Errorf("unknown operation %q", op)
	}

	if math.IsNaN(result) || math.IsInf(result, 0) {
		return "", fmt.Errorf("operation %q produced a non-finite result", op)
	}
	return fmt.Sprintf("%s(%v) = %s", op, values, formatNumber(result)), nil
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
