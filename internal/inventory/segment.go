package inventory

import "time"

// Segment is a half-open run of days [Start, End).
type Segment struct {
	Start time.Time
	End   time.Time
}

// Segments splits the inclusive range [start, end] into the maximal runs
// of consecutive days whose weekday is in weekdays.  The result is sorted
// and its runs are disjoint and never adjacent.  No qualifying day yields
// an empty result.
func Segments(start, end time.Time, weekdays []time.Weekday) []Segment {
	want := make(map[time.Weekday]bool, len(weekdays))
	for _, w := range weekdays {
		want[w] = true
	}
	start, end = Truncate(start), Truncate(end)

	var (
		out     []Segment
		runFrom time.Time
		prev    time.Time
		inRun   bool
	)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !want[d.Weekday()] {
			if inRun {
				out = append(out, Segment{Start: runFrom, End: prev.AddDate(0, 0, 1)})
				inRun = false
			}
			continue
		}
		if !inRun {
			runFrom = d
			inRun = true
		}
		prev = d
	}
	if inRun {
		out = append(out, Segment{Start: runFrom, End: prev.AddDate(0, 0, 1)})
	}
	return out
}
