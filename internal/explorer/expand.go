package explorer

import "sync"

// ExpandState is an identifier-keyed expand/collapse map. Absent entries
// are collapsed. It is an explicit, passed-in object rather than ambient
// state so multiple explorer instances can coexist.
//
// Any number of groups and subgroups may be open at once; there is no
// single-open-accordion constraint. The map may be read concurrently with
// tree mutation since node identifiers are stable once assigned.
type ExpandState struct {
	mu   sync.RWMutex
	open map[string]bool
}

// NewExpandState returns an all-collapsed state.
func NewExpandState() *ExpandState {
	return &ExpandState{open: make(map[string]bool)}
}

// IsExpanded reports whether id is expanded (false when absent).
func (s *ExpandState) IsExpanded(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.open[id]
}

// Toggle flips the entry for id and returns the new state.
func (s *ExpandState) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open[id] = !s.open[id]
	return s.open[id]
}

// Expand marks id expanded.
func (s *ExpandState) Expand(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open[id] = true
}

// Collapse marks id collapsed.
func (s *ExpandState) Collapse(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open[id] = false
}

// ExpandAll replaces the whole map with the given ids, all expanded.
func (s *ExpandState) ExpandAll(ids []string) {
	open := make(map[string]bool, len(ids))
	for _, id := range ids {
		open[id] = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = open
}

// CollapseAll clears the map entirely.
func (s *ExpandState) CollapseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = make(map[string]bool)
}

// Snapshot returns a copy of the current map.
func (s *ExpandState) Snapshot() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.open))
	for k, v := range s.open {
		out[k] = v
	}
	return out
}
