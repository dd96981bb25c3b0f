package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrNoTimeToken      = errors.New("no time token found")
	ErrInvalidTimeToken = errors.New("invalid time token")
)

// timeTokenRe matches clock times written in press-release prose, e.g.
// "3.15PM", "12:00 AM", "6 p.m.". The leading group keeps a match from
// starting inside a longer number such as "113.15PM"; the token itself is
// capture group 1.
var timeTokenRe = regexp.MustCompile(`(?i)(?:^|[^\d.:])\b((\d{1,2})(?:[.:](\d{1,2}))?\s*([ap])\.?m)\b`)

// ClockTime is a parsed clock reading. Hour is normally 1-12; hours 13-23
// written with a marker are kept as 24-hour readings.
type ClockTime struct {
	Hour     int
	Minute   int
	Meridiem Meridiem
}

// TimeParser isolates free-text time recognition so the heuristic can be
// swapped without touching extraction.
type TimeParser interface {
	// Tokens returns every time-like substring of text, first found first.
	Tokens(text string) []string
	// Parse reads a single raw token.
	Parse(token string) (ClockTime, error)
}

// RegexTimeParser is the default TimeParser.
type RegexTimeParser struct{}

func (RegexTimeParser) Tokens(text string) []string {
	return FindTimeTokens(text)
}

func (RegexTimeParser) Parse(token string) (ClockTime, error) {
	return ParseClock(token)
}

// FindTimeTokens returns the raw time tokens of text in order of appearance.
// The result is empty, never nil, when nothing matches.
func FindTimeTokens(text string) []string {
	tokens := []string{}
	for _, m := range timeTokenRe.FindAllStringSubmatchIndex(text, -1) {
		tokens = append(tokens, text[m[2]:m[3]])
	}
	return tokens
}

// ParseClock parses one raw token such as "3.15PM" into a ClockTime.
func ParseClock(token string) (ClockTime, error) {
	m := timeTokenRe.FindStringSubmatch(token)
	if m == nil {
		return ClockTime{}, fmt.Errorf("parse %q: %w", token, ErrNoTimeToken)
	}

	hour, err := strconv.Atoi(m[2])
	if err != nil {
		return ClockTime{}, fmt.Errorf("parse %q: %w", token, ErrInvalidTimeToken)
	}
	minute := 0
	if m[3] != "" {
		// "3.5PM" is ambiguous between 3:05 and 3:50.
		if len(m[3]) != 2 {
			return ClockTime{}, fmt.Errorf("parse %q: %w", token, ErrInvalidTimeToken)
		}
		minute, err = strconv.Atoi(m[3])
		if err != nil {
			return ClockTime{}, fmt.Errorf("parse %q: %w", token, ErrInvalidTimeToken)
		}
	}
	if hour > 23 || minute > 59 {
		return ClockTime{}, fmt.Errorf("parse %q: %w", token, ErrInvalidTimeToken)
	}

	meridiem := AM
	if strings.EqualFold(m[4], "p") {
		meridiem = PM
	}
	return ClockTime{Hour: hour, Minute: minute, Meridiem: meridiem}, nil
}

// Value returns the 24-hour HHMM number. A PM reading below 1200 gains 1200;
// 12 o'clock AM wraps to the 00 hour. Readings of 1300 and above are already
// 24-hour and are returned as is.
func (c ClockTime) Value() int {
	v := c.Hour*100 + c.Minute
	switch c.Meridiem {
	case PM:
		if v < 1200 {
			v += 1200
		}
	case AM:
		if c.Hour == 12 {
			v -= 1200
		}
	}
	return v
}

// HHMM formats Value as exactly four digits.
func (c ClockTime) HHMM() string {
	return fmt.Sprintf("%04d", c.Value())
}

// TimeFields holds the time-derived columns of an Event.
type TimeFields struct {
	RawTokens    []string
	PeriodMarker *Meridiem
	TimeValue    string
}

// ExtractTimeFields runs parser over text and derives the time columns from
// the first token. A miss or an unreadable first token defaults TimeValue to
// "0000" with no period marker; err reports why.
func ExtractTimeFields(parser TimeParser, text string) (TimeFields, error) {
	tokens := parser.Tokens(text)
	fields := TimeFields{RawTokens: tokens, TimeValue: "0000"}
	if len(tokens) == 0 {
		return fields, ErrNoTimeToken
	}

	clock, err := parser.Parse(tokens[0])
	if err != nil {
		return fields, err
	}
	marker := clock.Meridiem
	fields.PeriodMarker = &marker
	fields.TimeValue = clock.HHMM()
	return fields, nil
}

// hhmmValue reads a 4-digit HHMM string. Shorter numeric strings are
// left-padded, so "930" reads as 0930.
func hhmmValue(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 4 {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 || v%100 > 59 || v > 2359 {
		return 0, false
	}
	return v, true
}
