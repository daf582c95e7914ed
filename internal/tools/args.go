// Package tools provides the built-in tool implementations registered
// into the cluster catalog. Every tool returns human-readable result
// text and reports failures as errors rather than panicking, since
// results feed straight back into model prompts.
package tools

import (
	"fmt"
	"strconv"
)

// stringArg extracts a required string argument.
func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %T", key, v)
	}
	return s, nil
}

// numberArg extracts a required numeric argument. JSON numbers arrive
// as float64, but models sometimes quote them, so strings are coerced.
func numberArg(args map[string]any, key string) (float64, error) {
	v, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("missing required argument %q", key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("argument %q is not a number: %q", key, n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("argument %q must be a number, got %T", key, v)
	}
}

// numberListArg extracts a required array-of-numbers argument.
func numberListArg(args map[string]any, key string) ([]float64, error) {
	v, ok := args[key]
	if !ok {
		return nil, fmt.Errorf("missing required argument %q", key)
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("argument %q must be an array of numbers, got %T", key, v)
	}
	out := make([]float64, 0, len(raw))
	for i, item := range raw {
		switch n := item.(type) {
		case float64:
			out = append(out, n)
		case int:
			out = append(out, float64(n))
		case string:
			f, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return nil, fmt.Errorf("argument %q[%d] is not a number: %q", key, i, n)
			}
			out = append(out, f)
		default:
			return nil, fmt.Errorf("argument %q[%d] must be a number, got %T", key, i, item)
		}
	}
	return out, nil
}

// optionalString extracts an optional string argument with a default.
func optionalString(args map[string]any, key, def string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return def
}

// formatNumber renders a float without trailing zero noise.
func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', 10, 64)
}
