package view

import "sync"

// NoHover marks that no list item is hovered.
const NoHover = -1

// State is the UI model feeding the filters: the search text, the heatmap
// day selection, and which single list item currently shows its edit/delete
// affordances. Search and date are mutually exclusive; activating one
// clears the other.
type State struct {
	mu     sync.Mutex
	search string
	date   string
	hover  int
}

func NewState() *State {
	return &State{hover: NoHover}
}

// SetSearch sets the text filter. A non-empty value clears any selected
// date; clearing the search leaves the date untouched.
func (s *State) SetSearch(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = v
	if v != "" {
		s.date = ""
	}
}

// SetDate selects a heatmap day (DateLayout). A non-empty value clears any
// search text.
func (s *State) SetDate(d string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.date = d
	if d != "" {
		s.search = ""
	}
}

// Clear removes both filters, restoring the unfiltered paginated view.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = ""
	s.date = ""
}

func (s *State) Search() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search
}

func (s *State) Date() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.date
}

// FilterActive reports whether either filter is set.
func (s *State) FilterActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search != "" || s.date != ""
}

// Hover marks index as the single hovered item.
func (s *State) Hover(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hover = index
}

// Unhover clears the hover only if index is still the hovered item, so a
// late mouse-leave cannot clobber a newer hover.
func (s *State) Unhover(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hover == index {
		s.hover = NoHover
	}
}

// HoverIndex returns the hovered item index, or NoHover.
func (s *State) HoverIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hover
}
