package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/heat-stress-etl/internal/domain"
)

func testTable() domain.Table {
	return domain.SummaryTable([]domain.Summary{
		{Date: "20241010", NoOfHours: 3.25},
		{Date: "20241011", NoOfHours: 0},
	}).Sanitized()
}

var createSummary = regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "summary_data" ("date" TEXT, "no_of_hours" DOUBLE PRECISION)`)

func TestSink_Append(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	copyErr := errors.New("copy error")

	tests := []struct {
		name      string
		mockSetup func(mock pgxmock.PgxPoolIface)
		wantErr   bool
	}{
		{
			name: "success",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(createSummary).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
				mock.ExpectCopyFrom(pgx.Identifier{"summary_data"}, []string{"date", "no_of_hours"}).
					WillReturnResult(2)
				mock.ExpectCommit()
			},
		},
		{
			name: "begin failure",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin().WillReturnError(errors.New("begin error"))
			},
			wantErr: true,
		},
		{
			name: "create failure",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(createSummary).WillReturnError(errors.New("permission denied"))
				mock.ExpectRollback()
			},
			wantErr: true,
		},
		{
			name: "copy failure",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(createSummary).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
				mock.ExpectCopyFrom(pgx.Identifier{"summary_data"}, []string{"date", "no_of_hours"}).
					WillReturnError(copyErr)
				mock.ExpectRollback()
			},
			wantErr: true,
		},
		{
			name: "commit failure",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(createSummary).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
				mock.ExpectCopyFrom(pgx.Identifier{"summary_data"}, []string{"date", "no_of_hours"}).
					WillReturnResult(2)
				mock.ExpectCommit().WillReturnError(errors.New("commit error"))
				mock.ExpectRollback()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock, err := pgxmock.NewPool()
			require.NoError(t, err)

			defer mock.Close()

			tt.mockSetup(mock)

			sink := NewSink(mock, slog.New(slog.NewTextHandler(io.Discard, nil)))
			err = sink.Append(ctx, testTable())

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCreateTableSQL_Detailed(t *testing.T) {
	sql := createTableSQL(domain.DetailedTable(nil))
	assert.Contains(t, sql, `CREATE TABLE IF NOT EXISTS "detailed_data" (`)
	assert.Contains(t, sql, `"row_key" TEXT`)
	assert.Contains(t, sql, `"type" TEXT`)
	assert.Contains(t, sql, `"no_of_hours" DOUBLE PRECISION)`)
}

func TestCopyRows(t *testing.T) {
	table := domain.DetailedTable([]domain.Event{
		domain.NewNoRecordEvent(mustParse(t, "20241011")),
	}).Sanitized()

	rows := copyRows(table)
	require.Len(t, rows, 1)
	assert.Equal(t, "0", rows[0][6], "NoRecord type is stored as text")
	assert.Equal(t, "", rows[0][10])
	assert.Equal(t, 0.0, rows[0][11])
}

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(domain.DateLayout, s)
	require.NoError(t, err)
	return d
}
