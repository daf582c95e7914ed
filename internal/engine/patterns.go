package engine

import (
	"sort"
	"strings"
)

// maxPatterns caps the pattern cache; the least-used entry is evicted
// when it overflows.
const maxPatterns = 10

// Pattern is a cached action sequence that previously completed a task
// of a coarse type, reused to bias future decomposition.
type Pattern struct {
	Type     string
	Examples [][]string
	Count    int
}

// PatternCache harvests successful subtask sequences keyed by task
// type.
type PatternCache struct {
	patterns []*Pattern
}

// NewPatternCache creates an empty cache.
func NewPatternCache() *PatternCache {
	return &PatternCache{}
}

// Record stores a successful action sequence under a task type,
// bumping the type's use count.
func (c *PatternCache) Record(taskType string, actions []string) {
	if taskType == "" || len(actions) == 0 {
		return
	}

	for _, p := range c.patterns {
		if p.Type == taskType {
			p.Examples = append(p.Examples, append([]string(nil), actions...))
			p.Count++
			return
		}
	}

	c.patterns = append(c.patterns, &Pattern{
		Type:     taskType,
		Examples: [][]string{append([]string(nil), actions...)},
		Count:    1,
	})

	if len(c.patterns) > maxPatterns {
		sort.SliceStable(c.patterns, func(i, j int) bool {
			return c.patterns[i].Count > c.patterns[j].Count
		})
		c.patterns = c.patterns[:maxPatterns]
	}
}

// Similar returns the most recent example for a pattern whose type
// matches the task description, or nil.
func (c *PatternCache) Similar(taskDescription string) []string {
	taskLower := strings.ToLower(taskDescription)
	classified := TaskType(taskDescription)

	for _, p := range c.patterns {
		typeLower := strings.ToLower(p.Type)
		matched := p.Type == classified || strings.Contains(taskLower, typeLower)
		if !matched {
			for _, kw := range strings.Split(typeLower, "_") {
				if strings.Contains(taskLower, kw) {
					matched = true
					break
				}
			}
		}
		if matched && len(p.Examples) > 0 {
			return p.Examples[len(p.Examples)-1]
		}
	}
	return nil
}

// All returns the cached patterns, most-used first.
func (c *PatternCache) All() []*Pattern {
	out := append([]*Pattern(nil), c.patterns...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// Load seeds the cache from persisted patterns, replacing current
// contents.
func (c *PatternCache) Load(patterns []*Pattern) {
	if len(patterns) > maxPatterns {
		patterns = patterns[:maxPatterns]
	}
	c.patterns = patterns
}

// taskTypeKeywords maps description cues to coarse task types, first
// match wins in this order.
var taskTypeKeywords = []struct {
	keyword  string
	taskType string
}{
	{"search", "web_search"},
	{"google", "web_search"},
	{"find", "web_search"},
	{"look for", "web_search"},
	{"form", "form_fill"},
	{"fill", "form_fill"},
	{"submit", "form_fill"},
	{"login", "form_login"},
	{"extract", "data_extract"},
	{"scrape", "data_extract"},
	{"get data", "data_extract"},
	{"click", "web_navigation"},
	{"navigate", "web_navigation"},
	{"open", "web_navigation"},
	{"calculate", "math_operation"},
	{"compute", "math_operation"},
}

// TaskType classifies a task description into a coarse type for
// pattern keying.
func TaskType(description string) string {
	lower := strings.ToLower(description)
	for _, entry := range taskTypeKeywords {
		if strings.Contains(lower, entry.keyword) {
			return entry.taskType
		}
	}
	return "general_task"
}
