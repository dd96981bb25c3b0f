package domain

import (
	"math"
	"sort"
)

// Summarize sums NoOfHours per date over Cancellation and NoRecord events.
// Uncomputed durations count as zero. Dates with neither kind of row are
// absent from the result, which is sorted by date.
func Summarize(events []Event) []Summary {
	totals := make(map[string]float64)
	for _, e := range events {
		if e.Type != Cancellation && e.Type != NoRecord {
			continue
		}
		totals[e.Date] += e.HoursOrZero()
	}
	return summariesFrom(totals)
}

// Regroup sums summary rows sharing a date. Applying it to Summarize output
// is a no-op.
func Regroup(rows []Summary) []Summary {
	totals := make(map[string]float64, len(rows))
	for _, r := range rows {
		totals[r.Date] += r.NoOfHours
	}
	return summariesFrom(totals)
}

func summariesFrom(totals map[string]float64) []Summary {
	out := make([]Summary, 0, len(totals))
	for date, hours := range totals {
		out = append(out, Summary{Date: date, NoOfHours: math.Round(hours*100) / 100})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
