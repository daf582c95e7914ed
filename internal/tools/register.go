package tools

import (
	"fmt"

	"github.com/amcoelho/taskpilot/internal/catalog"
)

// DefaultCatalog builds the built-in cluster taxonomy with every
// bundled tool registered into its clusters.
func DefaultCatalog() (*catalog.Catalog, error) {
	c := catalog.New(catalog.DefaultClusters())
	if err := RegisterDefaults(c); err != nil {
		return nil, err
	}
	return c, nil
}

// RegisterDefaults registers the bundled tools into an existing
// catalog. A custom taxonomy must still define the clusters these
// tools live in.
func RegisterDefaults(c *catalog.Catalog) error {
	registrations := []struct {
		tool     catalog.Tool
		clusters []string
	}{
		{Calculator{}, []string{"MATH"}},
		{AdvancedCalculator{}, []string{"MATH", "DATA"}},
		{DateTime{}, []string{"SYSTEM"}},
		{TextAnalysis{}, []string{"TEXT", "DATA"}},
		{CurrencyConverter{}, []string{"MATH", "COMMUNICATION"}},
	}
	for _, r := range registrations {
		if err := c.Register(r.tool, r.clusters...); err != nil {
			return fmt.Errorf("register %s: %w", r.tool.Name(), err)
		}
	}
	return nil
}
