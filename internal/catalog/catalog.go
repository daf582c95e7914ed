// Package catalog organizes tools into named domain clusters and
// provides keyword-based cluster suggestion as a fallback classifier
// when the planner's own selection is unavailable or invalid.
package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// Cluster is a hand-curated grouping of tools by domain.
type Cluster struct {
	// Name is the cluster key (e.g. "MATH").
	Name string `yaml:"name"`
	// Description is shown to the planner during cluster selection.
	Description string `yaml:"description"`
	// Keywords drive the fallback Suggest classifier.
	Keywords []string `yaml:"keywords"`
}

// Catalog holds the cluster taxonomy and the tools registered into it.
// The taxonomy is fixed at construction; tools may belong to multiple
// clusters.
type Catalog struct {
	clusters []Cluster
	byName   map[string]int
	members  map[string][]Tool
}

// New creates a catalog with the given cluster definitions.
func New(clusters []Cluster) *Catalog {
	c := &Catalog{
		clusters: clusters,
		byName:   make(map[string]int, len(clusters)),
		members:  make(map[string][]Tool, len(clusters)),
	}
	for i, cl := range clusters {
		c.byName[cl.Name] = i
	}
	return c
}

// Register associates a tool with one or more clusters. Referencing an
// unknown cluster is a configuration error.
func (c *Catalog) Register(tool Tool, clusterNames ...string) error {
	if len(clusterNames) == 0 {
		return fmt.Errorf("tool %q registered with no clusters", tool.Name())
	}
	for _, name := range clusterNames {
		if _, ok := c.byName[name]; !ok {
			return fmt.Errorf("unknown cluster %q for tool %q (valid: %s)",
				name, tool.Name(), strings.Join(c.Names(), ", "))
		}
	}
	for _, name := range clusterNames {
		c.members[name] = append(c.members[name], tool)
	}
	return nil
}

// ToolsFor returns all tools in the given clusters, deduplicated by
// name and preserving first-seen order. Unknown cluster names are
// skipped rather than treated as errors, since planner output is noisy.
func (c *Catalog) ToolsFor(clusterNames []string) []Tool {
	seen := make(map[string]bool)
	var tools []Tool
	for _, name := range clusterNames {
		for _, tool := range c.members[name] {
			if seen[tool.Name()] {
				continue
			}
			seen[tool.Name()] = true
			tools = append(tools, tool)
		}
	}
	return tools
}

// Suggest returns clusters whose keywords appear in the task text,
// ordered by hit count descending. Ties keep taxonomy order.
func (c *Catalog) Suggest(taskText string) []string {
	lower := strings.ToLower(taskText)

	type scored struct {
		name  string
		score int
		order int
	}
	var hits []scored
	for i, cl := range c.clusters {
		score := 0
		for _, kw := range cl.Keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{cl.Name, score, i})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].order < hits[j].order
	})

	names := make([]string, len(hits))
	for i, h := range hits {
		names[i] = h.name
	}
	return names
}

// Names returns all cluster names in taxonomy order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.clusters))
	for i, cl := range c.clusters {
		names[i] = cl.Name
	}
	return names
}

// Describe returns the description for a cluster, or "" if unknown.
func (c *Catalog) Describe(name string) string {
	if i, ok := c.byName[name]; ok {
		return c.clusters[i].Description
	}
	return ""
}

// Valid filters clusterNames down to ones present in the taxonomy.
func (c *Catalog) Valid(clusterNames []string) []string {
	var valid []string
	for _, name := range clusterNames {
		if _, ok := c.byName[name]; ok {
			valid = append(valid, name)
		}
	}
	return valid
}

// Stats returns the tool count per cluster.
func (c *Catalog) Stats() map[string]int {
	stats := make(map[string]int, len(c.clusters))
	for _, cl := range c.clusters {
		stats[cl.Name] = len(c.members[cl.Name])
	}
	return stats
}
