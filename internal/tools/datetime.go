package tools

import (
	"context"
	"fmt"
	"time"
)

// DateTime answers date and time questions. The clock is injectable so
// tests get deterministic output.
type DateTime struct {
	// Now defaults to time.Now when nil.
	Now func() time.Time
}

func (DateTime) Name() string { return "datetime_operations" }

func (DateTime) Description() string {
	return "Performs date and time operations: current time, current year, month or day, " +
		"adding or subtracting days from a date, and formatting dates."
}

func (DateTime) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type":        "string",
				"description": "Date or time operation to perform",
				"enum": []string{
					"current_time", "get_current_year", "get_current_month",
					"get_current_day", "add_days", "subtract_days", "format_date",
				},
			},
			"date": map[string]any{
				"type":        "string",
				"description": "Date in ISO format (YYYY-MM-DD). Defaults to today.",
			},
			"value": map[string]any{
				"type":        "integer",
				"description": "Number of days for add_days and subtract_days",
			},
			"format": map[string]any{
				"type":        "string",
				"description": "Output style for format_date: short, long, iso, or us",
			},
		},
		"required": []string{"operation"},
	}
}

func (d DateTime) Execute(ctx context.Context, args map[string]any) (string, error) {
	op, err := stringArg(args, "operation")
	if err != nil {
		return "", err
	}

	now := time.Now()
	if d.Now != nil {
		now = d.Now()
	}

	base := now
	if raw := optionalString(args, "date", ""); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
		}
		base = parsed
	}

	switch op {
	case "current_time":
		return fmt.Sprintf("Current date and time: %s", now.Format("2006-01-02 15:04:05")), nil
	case "get_current_year":
		return fmt.Sprintf("Current year: %d (today is %s)", now.Year(), now.Format("2006-01-02")), nil
	case "get_current_month":
		return fmt.Sprintf("Current month: %s (%d)", now.Month(), int(now.Month())), nil
	case "get_current_day":
		return fmt.Sprintf("Today is %s, %s", now.Weekday(), now.Format("2006-01-02")), nil
	case "add_days", "subtract_days":
		days, err := numberArg(args, "value")
		if err != nil {
			return "", err
		}
		delta := int(days)
		if op == "subtract_days" {
			delta = -delta
		}
		result := base.AddDate(0, 0, delta)
		return fmt.Sprintf("%s %+d days = %s", base.Format("2006-01-02"), delta, result.Format("2006-01-02")), nil
	case "format_date":
		layouts := map[string]string{
			"short": "2006-01-02",
			"long":  "Monday, January 2, 2006",
			"iso":   "2006-01-02T15:04:05",
			"us":    "01/02/2006",
		}
		layout, ok := layouts[optionalString(args, "format", "short")]
		if !ok {
			layout = layouts["short"]
		}
		return base.Format(layout), nil
	default:
		return "", fmt.Errorf("unknown operation %q", op)
	}
}
