// Command validate checks the CSV export written by the etl command. It
// verifies both headers, the per-row invariants of the detailed table, and
// that the summary table equals a recomputation from the detailed rows.
//
// Usage:
//
//	go run ./cmd/validate -dir data
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/heat-stress-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dir := flag.String("dir", "data", "directory containing detailed_data.csv and summary_data.csv")
	flag.Parse()

	os.Exit(run(*dir))
}

func run(dir string) int {
	fmt.Println("=== Heat Stress Export Validation ===")
	fmt.Println()

	detailedTable, summaryTable := domain.DetailedTable(nil), domain.SummaryTable(nil)

	detailedHeader, detailed, err := loadCSV(filepath.Join(dir, detailedTable.Slug()+".csv"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load detailed data: %v\n", err)
		return 1
	}
	summaryHeader, summary, err := loadCSV(filepath.Join(dir, summaryTable.Slug()+".csv"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load summary data: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateHeaders(detailedHeader, summaryHeader),
		validateDetailedRows(detailed),
		validateSummary(detailed, summary),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d detailed, %d summary\n", len(detailed), len(summary))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// csvRow is a parsed CSV row with field values keyed by header name.
type csvRow struct {
	lineNum int
	fields  map[string]string
}

func loadCSV(path string) ([]string, []csvRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("empty file %s", path)
	}

	header := all[0]
	rows := make([]csvRow, 0, len(all)-1)
	for i, row := range all[1:] {
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(row) {
				fields[h] = strings.TrimSpace(row[j])
			}
		}
		rows = append(rows, csvRow{lineNum: i + 2, fields: fields})
	}
	return header, rows, nil
}

// ── Phase 1 ──

func validateHeaders(detailed, summary []string) *phase {
	p := &phase{name: "Phase 1: Headers"}
	if want := domain.DetailedTable(nil).Header(); !slices.Equal(detailed, want) {
		p.errorf("detailed header = %v, want %v", detailed, want)
	}
	if want := domain.SummaryTable(nil).Header(); !slices.Equal(summary, want) {
		p.errorf("summary header = %v, want %v", summary, want)
	}
	return p
}

// ── Phase 2 ──

func validateDetailedRows(rows []csvRow) *phase {
	p := &phase{name: "Phase 2: Detailed rows"}
	for _, r := range rows {
		checkDetailedRow(p, r)
	}
	return p
}

func checkDetailedRow(p *phase, r csvRow) {
	f := r.fields
	pf := func(format string, args ...any) {
		p.errorf("line %d: "+format, append([]any{r.lineNum}, args...)...)
	}

	typ, ok := parseType(f["type"])
	if !ok {
		pf("unknown type %q", f["type"])
		return
	}

	if len(f["time_value"]) != 4 {
		pf("time_value %q is not four digits", f["time_value"])
	} else if _, ok := (domain.Event{TimeValue: f["time_value"]}).Minutes(); !ok {
		pf("time_value %q is not a valid 24-hour time", f["time_value"])
	}

	prefix := fmt.Sprintf("%s-%s-", f["date"], typ)
	if !strings.HasPrefix(f["row_key"], prefix) {
		pf("row_key %q does not start with %q", f["row_key"], prefix)
	} else if _, err := strconv.Atoi(strings.TrimPrefix(f["row_key"], prefix)); err != nil {
		pf("row_key %q has no day index", f["row_key"])
	}

	hours, err := strconv.ParseFloat(f["no_of_hours"], 64)
	if err != nil || math.IsNaN(hours) || math.IsInf(hours, 0) || hours < 0 {
		pf("no_of_hours %q is not a finite non-negative number", f["no_of_hours"])
		return
	}

	switch d := f["duration"]; {
	case d == "":
		if hours != 0 {
			pf("no_of_hours %v without a duration", hours)
		}
	default:
		want, ok := domain.DurationHours(d)
		if !ok {
			pf("duration %q is not H:MM", d)
		} else if !floatEq(want, hours) {
			pf("no_of_hours %v does not match duration %q (%v)", hours, d, want)
		}
	}

	if typ == domain.NoRecord && (f["time_value"] != "0000" || hours != 0) {
		pf("NoRecord row has time_value %q and no_of_hours %v", f["time_value"], hours)
	}
}

func parseType(s string) (domain.EventType, bool) {
	switch s {
	case domain.Warning.String():
		return domain.Warning, true
	case domain.Cancellation.String():
		return domain.Cancellation, true
	case "0":
		return domain.NoRecord, true
	default:
		return domain.NoRecord, false
	}
}

// ── Phase 3 ──

// validateSummary recomputes the summary from the detailed rows. Both files
// are regrouped by date first, so an export appended to by several runs over
// the same range still compares equal.
func validateSummary(detailed, summary []csvRow) *phase {
	p := &phase{name: "Phase 3: Summary recomputation"}

	events := make([]domain.Event, 0, len(detailed))
	for _, r := range detailed {
		typ, ok := parseType(r.fields["type"])
		if !ok {
			continue
		}
		hours, err := strconv.ParseFloat(r.fields["no_of_hours"], 64)
		if err != nil {
			continue
		}
		events = append(events, domain.Event{Date: r.fields["date"], Type: typ, NoOfHours: &hours})
	}
	want := domain.Summarize(events)

	got := make([]domain.Summary, 0, len(summary))
	for _, r := range summary {
		hours, err := strconv.ParseFloat(r.fields["no_of_hours"], 64)
		if err != nil {
			p.errorf("line %d: no_of_hours %q is not a number", r.lineNum, r.fields["no_of_hours"])
			continue
		}
		got = append(got, domain.Summary{Date: r.fields["date"], NoOfHours: hours})
	}
	got = domain.Regroup(got)

	wantByDate := make(map[string]float64, len(want))
	for _, s := range want {
		wantByDate[s.Date] = s.NoOfHours
	}
	gotByDate := make(map[string]float64, len(got))
	for _, s := range got {
		gotByDate[s.Date] = s.NoOfHours
		w, ok := wantByDate[s.Date]
		if !ok {
			p.errorf("summary date %s has no Cancellation or NoRecord rows in detailed data", s.Date)
			continue
		}
		if !floatEq(w, s.NoOfHours) {
			p.errorf("date %s: summary %.2f, recomputed %.2f", s.Date, s.NoOfHours, w)
		}
	}
	for _, s := range want {
		if _, ok := gotByDate[s.Date]; !ok {
			p.errorf("date %s missing from summary (recomputed %.2f)", s.Date, s.NoOfHours)
		}
	}
	return p
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}
