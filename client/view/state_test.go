package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFiltersAreMutuallyExclusive(t *testing.T) {
	s := NewState()
	assert.False(t, s.FilterActive())

	s.SetSearch("milk")
	assert.Equal(t, "milk", s.Search())
	assert.True(t, s.FilterActive())

	s.SetDate("2026-08-10")
	assert.Empty(t, s.Search(), "date selection clears search")
	assert.Equal(t, "2026-08-10", s.Date())

	s.SetSearch("eggs")
	assert.Empty(t, s.Date(), "search clears date selection")

	s.Clear()
	assert.False(t, s.FilterActive())
}

func TestClearingSearchKeepsDate(t *testing.T) {
	s := NewState()
	s.SetDate("2026-08-10")
	s.SetSearch("")
	assert.Equal(t, "2026-08-10", s.Date())
	assert.True(t, s.FilterActive())
}

func TestHoverIsSingleItem(t *testing.T) {
	s := NewState()
	assert.Equal(t, NoHover, s.HoverIndex())

	s.Hover(3)
	assert.Equal(t, 3, s.HoverIndex())

	s.Hover(5)
	s.Unhover(3)
	assert.Equal(t, 5, s.HoverIndex(), "stale mouse-leave must not clear a newer hover")

	s.Unhover(5)
	assert.Equal(t, NoHover, s.HoverIndex())
}
