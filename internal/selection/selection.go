// Package selection tracks which rally, if any, is expanded in the dashboard.
package selection

// State holds at most one expanded rally index. The zero value has nothing
// expanded.
type State struct {
	index    int
	expanded bool
}

// Expanded returns the expanded index and true, or 0 and false when nothing is expanded.
func (s State) Expanded() (int, bool) {
	return s.index, s.expanded
}

// IsExpanded reports whether i is the expanded rally.
func (s State) IsExpanded(i int) bool {
	return s.expanded && s.index == i
}

// Toggle collapses i if it is expanded and expands it otherwise. Negative
// indices are ignored.
func (s *State) Toggle(i int) {
	if i < 0 {
		return
	}
	if s.IsExpanded(i) {
		s.Reset()
		return
	}
	s.index, s.expanded = i, true
}

// Reset collapses everything.
func (s *State) Reset() {
	*s = State{}
}
