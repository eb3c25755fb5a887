// Package view holds the pure transformations from the memo collection to
// what the UI renders: the activity heatmap, filtered subsets, and the small
// piece of UI state (search/date filters, hovered item) they depend on.
package view

import (
	"time"

	"memopad/client"
)

// DateLayout is the calendar-day format used by the heatmap and the date
// filter.
const DateLayout = "2006-01-02"

// Day is one heatmap cell.
type Day struct {
	Date  string
	Count int
}

// Week is an ordered run of at most seven days.
type Week []Day

// Heatmap buckets memo creation dates into calendar weeks covering the
// trailing three months up to now, in the fixed zone. Every day in range
// appears exactly once with a zero-defaulted count; the final week is short
// when it reaches today before filling seven days.
func Heatmap(memos []client.Memo, now time.Time) []Week {
	counts := make(map[string]int, len(memos))
	for _, m := range memos {
		t, err := client.ParseCreatedAt(m.CreatedAt)
		if err != nil {
			continue
		}
		counts[t.Format(DateLayout)]++
	}

	now = now.In(client.Zone)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, client.Zone)
	cur := startOfWeek(today.AddDate(0, -3, 0))

	var weeks []Week
	var week Week
	for !cur.After(today) {
		date := cur.Format(DateLayout)
		week = append(week, Day{Date: date, Count: counts[date]})
		if len(week) == 7 || cur.Equal(today) {
			weeks = append(weeks, week)
			week = nil
		}
		cur = cur.AddDate(0, 0, 1)
	}
	return weeks
}

// startOfWeek rewinds t to Sunday of its week.
func startOfWeek(t time.Time) time.Time {
	return t.AddDate(0, 0, -int(t.Weekday()))
}

// ColorFor maps a day's count to its heatmap band. The scale is ordinal:
// fixed thresholds, not a continuous gradient.
func ColorFor(count int) string {
	switch {
	case count == 0:
		return "#ebedf0"
	case count < 3:
		return "#c6ceff"
	case count < 6:
		return "#a7b3ff"
	case count < 9:
		return "#8898ff"
	default:
		return "#637dff"
	}
}
