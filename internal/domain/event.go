package domain

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the canonical calendar-date form used in every row.
const DateLayout = "20060102"

// Sentinel texts used when nothing could be extracted.
const (
	ContentNotFound = "Content not found"
	NoRecordTitle   = "No record"
	NoRecordContent = "No warnings or cancellations issued."
)

// EventType classifies an extracted advisory notice.
type EventType int

const (
	// NoRecord marks a synthesized row for a date without notices. It renders
	// as 0 in tabular output.
	NoRecord EventType = iota
	Warning
	Cancellation
)

func (t EventType) String() string {
	switch t {
	case Warning:
		return "Warning"
	case Cancellation:
		return "Cancellation"
	default:
		return "NoRecord"
	}
}

// MarshalText encodes the type by name, so JSON carries "Warning" rather
// than its ordinal.
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *EventType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Warning":
		*t = Warning
	case "Cancellation":
		*t = Cancellation
	case "NoRecord":
		*t = NoRecord
	default:
		return fmt.Errorf("unknown event type %q", text)
	}
	return nil
}

// Cell returns the tabular representation: the type name, or 0 for NoRecord.
func (t EventType) Cell() any {
	if t == NoRecord {
		return 0
	}
	return t.String()
}

// Meridiem is the AM/PM designator of a parsed time token.
type Meridiem string

const (
	AM Meridiem = "AM"
	PM Meridiem = "PM"
)

// Event is one extracted or synthesized advisory record.
type Event struct {
	Month         string    `json:"month"`
	Date          string    `json:"date"` // YYYYMMDD
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	URL           string    `json:"url"`
	Type          EventType `json:"type"`
	RawTimeTokens []string  `json:"raw_time_tokens"`
	PeriodMarker  *Meridiem `json:"period_marker,omitempty"`
	TimeValue     string    `json:"time_value"` // HHMM, 24-hour

	// Set only by the pairing engine.
	Duration  *string  `json:"duration,omitempty"`   // H:MM
	NoOfHours *float64 `json:"no_of_hours,omitempty"` // decimal hours
}

// NewNoRecordEvent synthesizes the placeholder row for a date with no notices.
func NewNoRecordEvent(day time.Time) Event {
	return Event{
		Month:     day.Month().String(),
		Date:      day.Format(DateLayout),
		Title:     NoRecordTitle,
		Content:   NoRecordContent,
		Type:      NoRecord,
		TimeValue: "0000",
	}
}

// HoursOrZero returns NoOfHours, treating an uncomputed duration as zero.
func (e Event) HoursOrZero() float64 {
	if e.NoOfHours == nil || math.IsNaN(*e.NoOfHours) || math.IsInf(*e.NoOfHours, 0) {
		return 0
	}
	return *e.NoOfHours
}

// Minutes converts TimeValue into minutes past midnight.
func (e Event) Minutes() (int, bool) {
	v, ok := hhmmValue(e.TimeValue)
	if !ok {
		return 0, false
	}
	return v/100*60 + v%100, true
}

// RowKey builds the deterministic identity of a detailed row:
// date, type, and position within the day.
func RowKey(date string, t EventType, indexInDay int) string {
	return fmt.Sprintf("%s-%s-%d", date, t, indexInDay)
}

// Summary is one aggregated row per date.
type Summary struct {
	Date      string  `json:"date"`
	NoOfHours float64 `json:"no_of_hours"`
}
