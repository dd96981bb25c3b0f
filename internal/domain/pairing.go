package domain

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
)

// PairingStrategy selects how same-date events are matched into intervals.
type PairingStrategy string

const (
	// PairPositional pairs events at page positions (0,1), (2,3), ... and
	// subtracts the second HHMM value from the first.
	PairPositional PairingStrategy = "positional"
	// PairNearest matches each Warning with the earliest later Cancellation of
	// the same date and measures real clock minutes.
	PairNearest PairingStrategy = "nearest"
)

// ParsePairingStrategy validates a configured strategy name.
func ParsePairingStrategy(s string) (PairingStrategy, error) {
	switch PairingStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case PairPositional:
		return PairPositional, nil
	case PairNearest:
		return PairNearest, nil
	default:
		return "", fmt.Errorf("unknown pairing strategy %q", s)
	}
}

// PairingResult counts the outcome of a pairing pass.
type PairingResult struct {
	Computed int
	Skipped  int
}

// ComputeDurations sets Duration and NoOfHours in place on the events picked
// by strategy, then derives NoOfHours for every non-nil Duration.
// Events are grouped by Date; order within a date is the slice order.
func ComputeDurations(events []Event, strategy PairingStrategy, logger *slog.Logger) PairingResult {
	var res PairingResult
	for _, idx := range groupByDate(events) {
		var r PairingResult
		switch strategy {
		case PairNearest:
			r = pairNearest(events, idx, logger)
		default:
			r = pairPositional(events, idx, logger)
		}
		res.Computed += r.Computed
		res.Skipped += r.Skipped
	}

	for i := range events {
		if events[i].Duration == nil {
			continue
		}
		hours, ok := DurationHours(*events[i].Duration)
		if !ok {
			logger.Warn("unreadable duration", "date", events[i].Date, "duration", *events[i].Duration)
			continue
		}
		events[i].NoOfHours = &hours
	}
	return res
}

// pairPositional applies the odd-position rule: Event[i] with even i is
// compared with Event[i+1], and a positive HHMM difference becomes
// Event[i]'s duration. Non-positive differences are left unset.
func pairPositional(events []Event, idx []int, logger *slog.Logger) PairingResult {
	var res PairingResult
	for k := 0; k+1 < len(idx); k += 2 {
		cur, next := &events[idx[k]], &events[idx[k+1]]
		a, okA := hhmmValue(cur.TimeValue)
		b, okB := hhmmValue(next.TimeValue)
		diff := a - b
		if !okA || !okB || diff <= 0 {
			logger.Debug("no positive difference",
				"date", cur.Date,
				"first", cur.Title,
				"second", next.Title,
				"first_time", cur.TimeValue,
				"second_time", next.TimeValue,
			)
			res.Skipped++
			continue
		}
		d := FormatDuration(diff/100, diff%100)
		cur.Duration = &d
		res.Computed++
	}
	return res
}

// pairNearest walks Warnings in ascending time and gives each the earliest
// unconsumed Cancellation strictly after it. The duration is stored on the
// Cancellation row, which is the row the aggregator keeps.
func pairNearest(events []Event, idx []int, logger *slog.Logger) PairingResult {
	type stamp struct {
		pos     int
		minutes int
	}
	var warnings, cancels []stamp
	for _, i := range idx {
		m, ok := events[i].Minutes()
		if !ok {
			continue
		}
		switch events[i].Type {
		case Warning:
			warnings = append(warnings, stamp{pos: i, minutes: m})
		case Cancellation:
			cancels = append(cancels, stamp{pos: i, minutes: m})
		}
	}
	// Stable keeps page order as the tie-break for equal times.
	sort.SliceStable(warnings, func(a, b int) bool { return warnings[a].minutes < warnings[b].minutes })
	sort.SliceStable(cancels, func(a, b int) bool { return cancels[a].minutes < cancels[b].minutes })

	var res PairingResult
	used := make([]bool, len(cancels))
	for _, w := range warnings {
		matched := false
		for j, c := range cancels {
			if used[j] || c.minutes <= w.minutes {
				continue
			}
			used[j] = true
			elapsed := c.minutes - w.minutes
			d := FormatDuration(elapsed/60, elapsed%60)
			events[c.pos].Duration = &d
			res.Computed++
			matched = true
			break
		}
		if !matched {
			logger.Debug("warning without later cancellation",
				"date", events[w.pos].Date,
				"title", events[w.pos].Title,
				"time", events[w.pos].TimeValue,
			)
			res.Skipped++
		}
	}
	return res
}

// FormatDuration renders H:MM with minutes zero-padded.
func FormatDuration(hours, minutes int) string {
	return fmt.Sprintf("%d:%02d", hours, minutes)
}

// DurationHours converts "H:MM" into decimal hours rounded to two places.
func DurationHours(d string) (float64, bool) {
	h, m, found := strings.Cut(d, ":")
	if !found {
		return 0, false
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 {
		return 0, false
	}
	minutes, err := strconv.Atoi(m)
	if err != nil || minutes < 0 {
		return 0, false
	}
	return math.Round((float64(hours)+float64(minutes)/60)*100) / 100, true
}

// groupByDate returns event indexes per date, dates in first-seen order and
// indexes in slice order.
func groupByDate(events []Event) [][]int {
	pos := make(map[string]int)
	var groups [][]int
	for i, e := range events {
		g, ok := pos[e.Date]
		if !ok {
			g = len(groups)
			pos[e.Date] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}
