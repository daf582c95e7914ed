package engine

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// artifactSnippetLimit caps how much of a result is stored per
// extraction so prompts stay small.
const artifactSnippetLimit = 500

var (
	urlPattern       = regexp.MustCompile(`https?://[^\s<>"{}|\\^` + "`" + `\[\]]+`)
	pageTitlePattern = regexp.MustCompile(`(?i)page title:\s*['"]([^'"]+)['"]`)
)

// Structure holds deterministically discovered layout of the current
// resource, so the executor never has to rediscover what the engine
// already knows.
type Structure struct {
	// Forms lists discovered input groups, each with its field names.
	Forms [][]string
	// Links is the number of discovered links.
	Links int
	// Buttons lists discovered button labels.
	Buttons []string
}

// SharedContext is the cross-iteration working memory visible to both
// planner and executor prompts. It is mutated only by the engine's own
// loop between blocking calls; updates from one turn are visible to
// the very next prompt construction.
type SharedContext struct {
	location      string
	title         string
	visited       []string
	artifacts     map[string][]string
	artifactOrder []string
	lastAction    string
	structure     *Structure
}

// NewSharedContext creates an empty working memory.
func NewSharedContext() *SharedContext {
	return &SharedContext{
		artifacts: make(map[string][]string),
	}
}

// Update scans the result of one executor turn for location-change and
// artifact markers, and records the instruction as the last action.
// Mutations are strictly additive: visited and artifacts only grow.
func (s *SharedContext) Update(instruction, result string) {
	lower := strings.ToLower(result)

	// Location change markers. The last URL in the text is the
	// current one.
	if strings.Contains(lower, "opened") || strings.Contains(lower, "now at:") {
		urls := urlPattern.FindAllString(result, -1)
		if len(urls) > 0 {
			newLocation := urls[len(urls)-1]
			if newLocation != s.location {
				if s.location != "" {
					s.visited = append(s.visited, s.location)
				}
				s.location = newLocation
			}
		}
	}

	if m := pageTitlePattern.FindStringSubmatch(result); m != nil {
		s.title = m[1]
	}

	// Extracted artifacts are keyed by the location they came from.
	if strings.Contains(lower, "content:") || strings.Contains(lower, "result:") {
		if s.location != "" {
			snippet := result
			if len(snippet) > artifactSnippetLimit {
				snippet = snippet[:artifactSnippetLimit]
			}
			if _, ok := s.artifacts[s.location]; !ok {
				s.artifactOrder = append(s.artifactOrder, s.location)
			}
			s.artifacts[s.location] = append(s.artifacts[s.location], snippet)
		}
	}

	s.lastAction = instruction
}

// SessionStarted reports whether any resource has been opened yet.
func (s *SharedContext) SessionStarted() bool {
	return s.location != ""
}

// Location returns the current location, or "" before any navigation.
func (s *SharedContext) Location() string {
	return s.location
}

// LastAction returns the most recent instruction text.
func (s *SharedContext) LastAction() string {
	return s.lastAction
}

// Visited returns the locations left behind so far, oldest first.
func (s *SharedContext) Visited() []string {
	return s.visited
}

// Artifacts returns the extracted snippets grouped by location, in
// first-extraction order.
func (s *SharedContext) Artifacts() map[string][]string {
	return s.artifacts
}

// ArtifactLocations returns the locations with artifacts, in
// first-extraction order.
func (s *SharedContext) ArtifactLocations() []string {
	return s.artifactOrder
}

// SetStructure records deterministically discovered resource layout.
func (s *SharedContext) SetStructure(st *Structure) {
	s.structure = st
}

// ClearStructure drops the discovered layout when the task context
// changes.
func (s *SharedContext) ClearStructure() {
	s.structure = nil
}

// Summary renders a compact digest of the working memory for prompt
// inclusion. Calling it twice without an intervening Update yields
// identical text.
func (s *SharedContext) Summary() string {
	var lines []string

	if !s.SessionStarted() {
		lines = append(lines, "SESSION NOT STARTED - no resource loaded yet. Open a URL or resource first.")
	}

	if s.location != "" {
		lines = append(lines, fmt.Sprintf("Current location: %s", s.location))
	}
	if s.title != "" {
		lines = append(lines, fmt.Sprintf("Title: %s", s.title))
	}

	if s.structure != nil {
		lines = append(lines, "DISCOVERED STRUCTURE:")
		if len(s.structure.Forms) > 0 {
			lines = append(lines, fmt.Sprintf("  Forms: %d found", len(s.structure.Forms)))
			for i, inputs := range s.structure.Forms {
				if i >= 3 {
					break
				}
				lines = append(lines, fmt.Sprintf("    - Inputs: %s", strings.Join(firstN(inputs, 5), ", ")))
			}
		}
		if s.structure.Links > 0 {
			lines = append(lines, fmt.Sprintf("  Links: %d available", s.structure.Links))
		}
		if len(s.structure.Buttons) > 0 {
			lines = append(lines, fmt.Sprintf("  Buttons: %s", strings.Join(firstN(s.structure.Buttons, 5), ", ")))
		}
	}

	if len(s.visited) > 0 {
		lines = append(lines, fmt.Sprintf("Previously visited: %d locations", len(s.visited)))
	}
	if len(s.artifacts) > 0 {
		lines = append(lines, fmt.Sprintf("Data extracted from %d locations", len(s.artifacts)))
	}
	if s.lastAction != "" {
		lines = append(lines, fmt.Sprintf("Last action: %s", truncate(s.lastAction, 80)))
	}

	if len(lines) == 0 {
		return "No session state yet"
	}
	return strings.Join(lines, "\n")
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// truncate shortens s to at most limit bytes without splitting a
// multi-byte rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
