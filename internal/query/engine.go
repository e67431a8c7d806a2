// Package query runs ad-hoc read-only SQL over a snapshot of the
// opportunity table.
package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/oppdesk/oppdesk/internal/opportunity"
)

// ErrRejected means the statement was refused before reaching the database.
// Only a single SELECT (or WITH ... SELECT) statement is accepted; the query
// text comes from an LLM and must never reach anything but a read path.
var ErrRejected = errors.New("only a single read-only SELECT statement is allowed")

// Error wraps a query that SQLite itself refused, so callers can report the
// message instead of crashing the session.
type Error struct {
	Query string
	Err   error
}

func (e *Error) Error() string { return fmt.Sprintf("sql query error: %v", e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Result is one query's tabular output.
type Result struct {
	Columns []string
	Rows    [][]string
}

// Empty reports whether the query matched no rows.
func (r *Result) Empty() bool { return len(r.Rows) == 0 }

// FormatRows renders each row as "column: value" lines, one string per row.
func (r *Result) FormatRows() []string {
	out := make([]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		parts := make([]string, len(r.Columns))
		for i, col := range r.Columns {
			parts[i] = col + ": " + row[i]
		}
		out = append(out, strings.Join(parts, "\n"))
	}
	return out
}

// Engine evaluates SELECT statements against an in-memory SQLite database
// loaded from a table snapshot. Each call builds a fresh database, so a
// hostile query can at worst mutate a throwaway copy; query_only is set as a
// second fence.
type Engine struct{}

func New() *Engine {
	return &Engine{}
}

// Select loads the snapshot under the "opportunities" relation and runs
// sqlText against it.
func (e *Engine) Select(ctx context.Context, records []opportunity.Record, sqlText string) (*Result, error) {
	stmt, err := sanitize(sqlText)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening snapshot database: %w", err)
	}
	defer db.Close()

	if err := loadSnapshot(ctx, db, records); err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA query_only=ON"); err != nil {
		return nil, fmt.Errorf("setting query_only: %w", err)
	}

	rows, err := db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, &Error{Query: stmt, Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &Error{Query: stmt, Err: err}
	}

	result := &Result{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &Error{Query: stmt, Err: err}
		}
		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Query: stmt, Err: err}
	}
	return result, nil
}

// sanitize enforces the read-only grammar fence: one statement, starting
// with SELECT or WITH, with no ATTACH or PRAGMA anywhere in it.
func sanitize(sqlText string) (string, error) {
	stmt := strings.TrimSpace(sqlText)
	stmt = strings.TrimSuffix(stmt, ";")
	if stmt == "" {
		return "", fmt.Errorf("empty query: %w", ErrRejected)
	}
	if strings.Contains(stmt, ";") {
		return "", fmt.Errorf("multiple statements: %w", ErrRejected)
	}

	lower := strings.ToLower(stmt)
	first := strings.Fields(lower)[0]
	if first != "select" && first != "with" {
		return "", fmt.Errorf("statement %q: %w", first, ErrRejected)
	}
	for _, banned := range []string{"attach", "pragma"} {
		if containsWord(lower, banned) {
			return "", fmt.Errorf("%s is not allowed: %w", banned, ErrRejected)
		}
	}
	return stmt, nil
}

func containsWord(lower, word string) bool {
	for _, field := range strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9' || r == '_')
	}) {
		if field == word {
			return true
		}
	}
	return false
}

func loadSnapshot(ctx context.Context, db *sql.DB, records []opportunity.Record) error {
	create := fmt.Sprintf(`CREATE TABLE %s (
		no INTEGER, timestamp TEXT, customer_name TEXT, opp_id TEXT, opp_name TEXT,
		submission_date TEXT, tender_briefing_date TEXT, review1_date TEXT, review2_date TEXT,
		am_name TEXT, offshore TEXT, bcc_review_date TEXT, deal_size TEXT, stage TEXT, details TEXT
	)`, opportunity.TableName)
	if _, err := db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("creating snapshot table: %w", err)
	}

	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)",
		opportunity.TableName, strings.TrimSuffix(strings.Repeat("?,", len(opportunity.Columns)), ","))
	for i := range records {
		rec := &records[i]
		ts := ""
		if !rec.Timestamp.IsZero() {
			ts = rec.Timestamp.Format(time.RFC3339Nano)
		}
		_, err := db.ExecContext(ctx, insert,
			rec.No, ts, rec.CustomerName, rec.OppID, rec.OppName,
			rec.SubmissionDate, rec.TenderBriefingDate, rec.Review1Date, rec.Review2Date,
			rec.AMName, rec.Offshore, rec.BCCReviewDate, rec.DealSize, rec.Stage, rec.Details)
		if err != nil {
			return fmt.Errorf("loading snapshot row %d: %w", rec.No, err)
		}
	}
	return nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
