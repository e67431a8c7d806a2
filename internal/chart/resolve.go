package chart

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/oppdesk/oppdesk/internal/opportunity"
	"github.com/oppdesk/oppdesk/internal/query"
)

// Querier runs a read-only SQL statement over the current opportunity
// snapshot.
type Querier interface {
	Select(ctx context.Context, sqlText string) (*query.Result, error)
}

var (
	// "opp by stage", "opportunities by customer_name where stage = 'Won'"
	aggregateRe = regexp.MustCompile(`(?i)\bopp(?:s|ortunity|ortunities)?\s+by\s+([A-Za-z_][A-Za-z0-9_]*)(?:\s+where\s+(.+))?$`)

	// trailing free-form filter: "... where stage = 'Won'"
	whereRe = regexp.MustCompile(`(?i)\bwhere\s+(.+)$`)
)

// ResolveData turns the request text into the dataset the chart will draw.
// Inline "<label> <number>" pair lists win over store queries; otherwise the
// request is translated into SQL against the opportunities snapshot. An
// empty query result resolves to ErrNoData.
func ResolveData(ctx context.Context, request string, querier Querier) (*Table, error) {
	if hasInlinePairs(request) {
		return parseInlinePairs(request)
	}

	sqlText := translateRequest(request)
	result, err := querier.Select(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("resolving chart data: %w", err)
	}
	if result.Empty() {
		return nil, ErrNoData
	}
	return &Table{Columns: result.Columns, Rows: result.Rows}, nil
}

// translateRequest maps request shapes onto SQL per the documented rules.
func translateRequest(request string) string {
	if m := aggregateRe.FindStringSubmatch(request); m != nil && isColumn(m[1]) {
		column := strings.ToLower(m[1])
		sqlText := fmt.Sprintf("SELECT %s AS item, COUNT(*) AS value FROM %s",
			column, opportunity.TableName)
		if m[2] != "" {
			sqlText += " WHERE " + strings.TrimSpace(m[2])
		}
		return sqlText + fmt.Sprintf(" GROUP BY %s", column)
	}
	if m := whereRe.FindStringSubmatch(request); m != nil {
		return fmt.Sprintf("SELECT * FROM %s WHERE %s", opportunity.TableName, strings.TrimSpace(m[1]))
	}
	return fmt.Sprintf("SELECT * FROM %s", opportunity.TableName)
}

func isColumn(name string) bool {
	lower := strings.ToLower(name)
	for _, col := range opportunity.Columns {
		if col == lower {
			return true
		}
	}
	return false
}

// hasInlinePairs detects a comma-separated "<label> <number>" list: at least
// two comma segments whose first segment ends in a number.
func hasInlinePairs(request string) bool {
	segments := strings.Split(request, ",")
	if len(segments) < 2 {
		return false
	}
	fields := strings.Fields(segments[0])
	if len(fields) < 2 {
		return false
	}
	_, err := strconv.ParseFloat(fields[len(fields)-1], 64)
	return err == nil
}

// parseInlinePairs builds the two-column (item, value) table. The first
// segment may carry leading chart phrasing ("Draw a pie chart orange 30"),
// so only its trailing label/value pair counts; every later segment must be
// exactly one pair.
func parseInlinePairs(request string) (*Table, error) {
	table := &Table{Columns: []string{"item", "value"}}
	for i, segment := range strings.Split(request, ",") {
		fields := strings.Fields(strings.TrimSpace(segment))
		if i == 0 && len(fields) > 2 {
			fields = fields[len(fields)-2:]
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("segment %q: %w", strings.TrimSpace(segment), ErrInvalidDataFormat)
		}
		if _, err := strconv.ParseFloat(fields[1], 64); err != nil {
			return nil, fmt.Errorf("segment %q: %w", strings.TrimSpace(segment), ErrInvalidDataFormat)
		}
		table.Rows = append(table.Rows, []string{fields[0], fields[1]})
	}
	return table, nil
}
