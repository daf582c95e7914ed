package engine

import "strings"

const actionRingSize = 5

// defaultActionMarkers are the tool-name cues used to classify an
// executor result into an action kind. First match wins. Only
// session-bound actions are listed; results from stateless tools stay
// unclassified and cannot trip the session-not-started strike.
var defaultActionMarkers = []string{
	"extract_links",
	"open_url",
	"click_link_by_index",
	"fill_form",
}

// initializingAction is the only action allowed before a session
// exists.
const initializingAction = "open_url"

// LoopDetector watches the stream of executed actions and
// tool-reported preconditions to flag stalls. Either trigger flips it
// to stalled; the engine then clears it as part of forced escalation
// so detection restarts clean after a replan.
type LoopDetector struct {
	actions              []string
	identicalCount       int
	preconditionFailures int

	identicalLimit    int
	preconditionLimit int
	markers           []string
}

// NewLoopDetector creates a detector with the given thresholds.
// Non-positive thresholds select the defaults (2 identical-action
// strikes, 1 ignored precondition).
func NewLoopDetector(identicalLimit, preconditionLimit int) *LoopDetector {
	if identicalLimit <= 0 {
		identicalLimit = 2
	}
	if preconditionLimit <= 0 {
		preconditionLimit = 1
	}
	return &LoopDetector{
		identicalLimit:    identicalLimit,
		preconditionLimit: preconditionLimit,
		markers:           defaultActionMarkers,
	}
}

// SetActionMarkers replaces the action classification cues.
func (d *LoopDetector) SetActionMarkers(markers []string) {
	if len(markers) > 0 {
		d.markers = markers
	}
}

// Observe classifies the latest executor result and reports whether
// the run is stalled. sessionStarted tells the detector whether any
// resource has been initialized yet.
func (d *LoopDetector) Observe(result string, sessionStarted bool) bool {
	action := d.classify(result)

	if action != "" {
		d.actions = append(d.actions, action)
		if len(d.actions) > actionRingSize {
			d.actions = d.actions[1:]
		}
	}

	// Repetition trigger: the same action three turns in a row.
	if len(d.actions) >= 3 {
		last3 := d.actions[len(d.actions)-3:]
		if last3[0] == last3[1] && last3[1] == last3[2] {
			d.identicalCount++
			if d.identicalCount >= d.identicalLimit {
				return true
			}
		}
	}

	// Ignored-precondition trigger: the tool said it could not run
	// and the executor pressed on anyway.
	if strings.Contains(result, "PRECONDITION FAILED") || strings.Contains(result, "HINT:") {
		d.preconditionFailures++
		if d.preconditionFailures >= d.preconditionLimit {
			return true
		}
	}

	// One strike: acting on a session that was never started, unless
	// the action is the one that starts it.
	if !sessionStarted && action != "" && action != initializingAction {
		d.preconditionFailures++
		return true
	}

	return false
}

// classify maps a result text to an action kind by marker scan.
// Returns "" when no marker matches.
func (d *LoopDetector) classify(result string) string {
	for _, marker := range d.markers {
		if strings.Contains(result, marker) {
			return marker
		}
	}
	return ""
}

// Actions returns the current ring buffer contents, oldest first.
func (d *LoopDetector) Actions() []string {
	return d.actions
}

// IdenticalCount returns the repetition strike count.
func (d *LoopDetector) IdenticalCount() int {
	return d.identicalCount
}

// PreconditionFailures returns the ignored-precondition strike count.
func (d *LoopDetector) PreconditionFailures() int {
	return d.preconditionFailures
}

// Reset clears the ring buffer and both counters.
func (d *LoopDetector) Reset() {
	d.actions = nil
	d.identicalCount = 0
	d.preconditionFailures = 0
}
