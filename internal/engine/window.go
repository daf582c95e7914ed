package engine

// ClusterWindow keeps the union of the most recent cluster selections
// active, so consecutive related subtasks do not thrash the tool set.
type ClusterWindow struct {
	size    int
	history [][]string
}

// NewClusterWindow creates a window keeping the last size selections.
func NewClusterWindow(size int) *ClusterWindow {
	if size < 1 {
		size = 1
	}
	return &ClusterWindow{size: size}
}

// Push records a new cluster selection, evicting the oldest when the
// window is full.
func (w *ClusterWindow) Push(selection []string) {
	w.history = append(w.history, append([]string(nil), selection...))
	if len(w.history) > w.size {
		w.history = w.history[1:]
	}
}

// Active returns the merged, deduplicated union of the windowed
// selections, preserving first-seen order.
func (w *ClusterWindow) Active() []string {
	seen := make(map[string]bool)
	var merged []string
	for _, selection := range w.history {
		for _, name := range selection {
			if seen[name] {
				continue
			}
			seen[name] = true
			merged = append(merged, name)
		}
	}
	return merged
}

// Len returns the number of selections currently in the window.
func (w *ClusterWindow) Len() int {
	return len(w.history)
}
