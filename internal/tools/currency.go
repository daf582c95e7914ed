package tools

import (
	"context"
	"fmt"
	"strings"
)

// CurrencyConverter converts amounts between currencies using a fixed
// rate table. Rates are relative to USD.
type CurrencyConverter struct{}

func (CurrencyConverter) Name() string { return "convert_currency" }

func (CurrencyConverter) Description() string {
	return "Converts an amount from one currency to another. " +
		"Supported codes: USD, EUR, GBP, JPY, BRL, CAD, AUD, CNY."
}

func (CurrencyConverter) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"amount": map[string]any{
				"type":        "number",
				"description": "Amount to convert",
			},
			"from_currency": map[string]any{
				"type":        "string",
				"description": "Source currency code, e.g. 'USD'",
			},
			"to_currency": map[string]any{
				"type":        "string",
				"description": "Target currency code, e.g. 'EUR'",
			},
		},
		"required": []string{"amount", "from_currency", "to_currency"},
	}
}

var usdRates = map[string]float64{
	"USD": 1.0,
	"EUR": 0.85,
	"GBP": 0.73,
	"JPY": 110.0,
	"BRL": 5.0,
	"CAD": 1.25,
	"AUD": 1.35,
	"CNY": 6.45,
}

func (CurrencyConverter) Execute(ctx context.Context, args map[string]any) (string, error) {
	amount, err := numberArg(args, "amount")
	if err != nil {
		return "", err
	}
	from, err := stringArg(args, "from_currency")
	if err != nil {
		return "", err
	}
	to, err := stringArg(args, "to_currency")
	if err != nil {
		return "", err
	}

	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))

	fromRate, ok := usdRates[from]
	if !ok {
		return "", fmt.Errorf("unsupported currency %q", from)
	}
	toRate, ok := usdRates[to]
	if !ok {
		return "", fmt.Errorf("unsupported currency %q", to)
	}

	converted := amount / fromRate * toRate
	return fmt.Sprintf("%.2f %s = %.2f %s (rate %.4f)", amount, from, converted, to, toRate/fromRate), nil
}
