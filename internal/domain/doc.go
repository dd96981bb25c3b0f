// Package domain models the Heat Stress at Work Warning notices published by
// the Hong Kong Government Information Services Department (GIA).
//
// # Data Source
//
// GIA publishes one index page per day of weather-related press releases at
// https://www.info.gov.hk/gia/wr/YYYYMM/DD.htm. Each warning issuance and each
// cancellation is a separate release linked from that page:
//
//	"Heat Stress at Work Warning in force"           → Warning
//	"Cancellation of Heat Stress at Work Warning"    → Cancellation
//
// Index pages list the most recent release first.
//
// # Time Conventions
//
// Release bodies state the effective time in 12-hour prose, e.g.
// "The Labour Department issued the Heat Stress at Work Warning at 3.15pm".
// Only the first token of the matching paragraph is used:
//
//	"3.15PM"   →  1515
//	"12:00AM"  →  0000
//	"9 a.m."   →  0900
//
// Values are stored as four-digit 24-hour HHMM strings. When no token is found
// the value defaults to "0000" and the period marker is absent.
//
// # Pairing
//
// Durations are derived per date by [ComputeDurations]. The default
// [PairPositional] strategy compares page positions (0,1), (2,3), ... and
// keeps positive HHMM differences only, formatted as "H:MM" on the first event
// of the pair. Because pages run newest first, that is normally the
// Cancellation. Intervals crossing midnight are not reconstructed.
//
// # Aggregation
//
// [Summarize] keeps Cancellation and NoRecord rows and sums decimal hours per
// date. Uncomputed durations count as zero.
//
// # Row Keys
//
// Detailed rows carry date-type-index keys (see [RowKey]) so a re-run can
// recognise rows that were already published; the sinks themselves append.
package domain
