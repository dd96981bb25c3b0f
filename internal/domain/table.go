package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Destination names of the two published datasets.
const (
	DetailedTableName = "Detailed data"
	SummaryTableName  = "Summary data"
)

// Column describes one column of a Table.
type Column struct {
	Name    string
	Numeric bool
}

// Table is an ordered set of rows bound for an append-only sink.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// Header returns the column names.
func (t Table) Header() []string {
	h := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		h[i] = c.Name
	}
	return h
}

// Slug converts the table name into an identifier safe for file names,
// SQL tables, collections and topics: "Detailed data" -> "detailed_data".
func (t Table) Slug() string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(t.Name)), " ", "_")
}

// Record maps column names to the values of row i.
func (t Table) Record(i int) map[string]any {
	rec := make(map[string]any, len(t.Columns))
	for j, c := range t.Columns {
		rec[c.Name] = t.Rows[i][j]
	}
	return rec
}

// Sanitized returns a copy in which numeric cells that are nil, NaN or
// infinite become 0 and nil text cells become "".
func (t Table) Sanitized() Table {
	out := Table{Name: t.Name, Columns: t.Columns, Rows: make([][]any, len(t.Rows))}
	for i, row := range t.Rows {
		clean := make([]any, len(row))
		for j, v := range row {
			clean[j] = sanitizeCell(v, j < len(t.Columns) && t.Columns[j].Numeric)
		}
		out.Rows[i] = clean
	}
	return out
}

func sanitizeCell(v any, numeric bool) any {
	switch x := v.(type) {
	case nil:
		if numeric {
			return 0.0
		}
		return ""
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0.0
		}
	case float32:
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return 0.0
		}
	}
	return v
}

// CellText renders a cell for text destinations. Floats use the shortest
// exact form, so 3.25 stays "3.25" and 0 becomes "0".
func CellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}

var detailedColumns = []Column{
	{Name: "row_key"},
	{Name: "month"},
	{Name: "date"},
	{Name: "title"},
	{Name: "content"},
	{Name: "url"},
	{Name: "type"},
	{Name: "raw_time_tokens"},
	{Name: "period_marker"},
	{Name: "time_value"},
	{Name: "duration"},
	{Name: "no_of_hours", Numeric: true},
}

var summaryColumns = []Column{
	{Name: "date"},
	{Name: "no_of_hours", Numeric: true},
}

// DetailedTable renders one row per event. Uncomputed fields are nil until
// the table is sanitized.
func DetailedTable(events []Event) Table {
	t := Table{Name: DetailedTableName, Columns: detailedColumns, Rows: make([][]any, 0, len(events))}
	indexInDay := make(map[string]int)
	for _, e := range events {
		n := indexInDay[e.Date]
		indexInDay[e.Date] = n + 1

		var marker, duration, hours any
		if e.PeriodMarker != nil {
			marker = string(*e.PeriodMarker)
		}
		if e.Duration != nil {
			duration = *e.Duration
		}
		if e.NoOfHours != nil {
			hours = *e.NoOfHours
		}
		t.Rows = append(t.Rows, []any{
			RowKey(e.Date, e.Type, n),
			e.Month,
			e.Date,
			e.Title,
			e.Content,
			e.URL,
			e.Type.Cell(),
			strings.Join(e.RawTimeTokens, ", "),
			marker,
			e.TimeValue,
			duration,
			hours,
		})
	}
	return t
}

// SummaryTable renders one row per summary.
func SummaryTable(rows []Summary) Table {
	t := Table{Name: SummaryTableName, Columns: summaryColumns, Rows: make([][]any, 0, len(rows))}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.Date, r.NoOfHours})
	}
	return t
}
