package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memopad/client"
)

func TestHeatmapCoversEveryDayOnce(t *testing.T) {
	now := time.Date(2026, 8, 30, 15, 0, 0, 0, client.Zone)
	weeks := Heatmap(nil, now)
	require.NotEmpty(t, weeks)

	seen := make(map[string]bool)
	var first, last string
	for _, w := range weeks {
		require.LessOrEqual(t, len(w), 7)
		for _, d := range w {
			assert.False(t, seen[d.Date], "day %s appears twice", d.Date)
			seen[d.Date] = true
			if first == "" {
				first = d.Date
			}
			last = d.Date
		}
	}

	// Range starts on the Sunday of the week three months back and ends
	// today. 2026-05-30 is a Saturday, so the grid opens on 2026-05-24.
	assert.Equal(t, "2026-05-24", first)
	assert.Equal(t, "2026-08-30", last)

	// Dates are contiguous.
	start, _ := time.ParseInLocation(DateLayout, first, client.Zone)
	end, _ := time.ParseInLocation(DateLayout, last, client.Zone)
	wantDays := int(end.Sub(start).Hours()/24) + 1
	assert.Len(t, seen, wantDays)
}

func TestHeatmapCountsPerDay(t *testing.T) {
	now := time.Date(2026, 8, 30, 15, 0, 0, 0, client.Zone)
	memos := []client.Memo{
		{CreatedAt: "2026-08-10 09:00:00"},
		{CreatedAt: "2026-08-10 21:30:00"},
		{CreatedAt: "2026-08-11 00:00:01"},
		{CreatedAt: "not a timestamp"},
		{CreatedAt: "2020-01-01 00:00:00"}, // out of range, still harmless
	}

	weeks := Heatmap(memos, now)
	counts := make(map[string]int)
	for _, w := range weeks {
		for _, d := range w {
			counts[d.Date] = d.Count
		}
	}

	assert.Equal(t, 2, counts["2026-08-10"])
	assert.Equal(t, 1, counts["2026-08-11"])
	assert.Equal(t, 0, counts["2026-08-12"])
}

func TestHeatmapLastWeekIsShort(t *testing.T) {
	// 2026-08-26 is a Wednesday, so the final week holds Sunday..Wednesday.
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, client.Zone)
	weeks := Heatmap(nil, now)
	require.NotEmpty(t, weeks)

	last := weeks[len(weeks)-1]
	assert.Len(t, last, 4)
	assert.Equal(t, "2026-08-26", last[len(last)-1].Date)
	for _, w := range weeks[:len(weeks)-1] {
		assert.Len(t, w, 7)
	}
}

func TestHeatmapNormalizesToFixedZone(t *testing.T) {
	// 23:00 UTC is already the next day in UTC+8; today must follow the
	// fixed zone, not the caller's.
	now := time.Date(2026, 8, 29, 23, 0, 0, 0, time.UTC)
	weeks := Heatmap(nil, now)
	last := weeks[len(weeks)-1]
	assert.Equal(t, "2026-08-30", last[len(last)-1].Date)
}

func TestColorBands(t *testing.T) {
	cases := []struct {
		count int
		want  string
	}{
		{0, "#ebedf0"},
		{1, "#c6ceff"},
		{2, "#c6ceff"},
		{3, "#a7b3ff"},
		{5, "#a7b3ff"},
		{6, "#8898ff"},
		{8, "#8898ff"},
		{9, "#637dff"},
		{42, "#637dff"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ColorFor(tc.count), "count %d", tc.count)
	}
}
