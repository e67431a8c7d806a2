package chart

import (
	"context"
	"errors"
	"testing"

	"github.com/oppdesk/oppdesk/internal/query"
)

// fakeQuerier records the SQL it was asked to run and returns a canned
// result.
type fakeQuerier struct {
	lastSQL string
	result  *query.Result
	err     error
}

func (f *fakeQuerier) Select(_ context.Context, sqlText string) (*query.Result, error) {
	f.lastSQL = sqlText
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestResolveInlinePairs(t *testing.T) {
	table, err := ResolveData(context.Background(),
		"Draw a pie chart orange 30, apple 25, cucumber 40", &fakeQuerier{})
	if err != nil {
		t.Fatalf("resolving: %v", err)
	}
	if len(table.Columns) != 2 || table.Columns[0] != "item" || table.Columns[1] != "value" {
		t.Fatalf("columns = %v, want [item value]", table.Columns)
	}
	want := [][]string{{"orange", "30"}, {"apple", "25"}, {"cucumber", "40"}}
	if len(table.Rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(table.Rows), len(want))
	}
	for i, row := range want {
		if table.Rows[i][0] != row[0] || table.Rows[i][1] != row[1] {
			t.Errorf("row %d = %v, want %v", i, table.Rows[i], row)
		}
	}
}

func TestResolveInlinePairsMalformed(t *testing.T) {
	_, err := ResolveData(context.Background(),
		"Draw a pie chart orange 30, apple twenty five, cucumber 40", &fakeQuerier{})
	if !errors.Is(err, ErrInvalidDataFormat) {
		t.Fatalf("expected ErrInvalidDataFormat, got %v", err)
	}
}

func TestResolveAggregateByColumn(t *testing.T) {
	q := &fakeQuerier{result: &query.Result{
		Columns: []string{"item", "value"},
		Rows:    [][]string{{"Proposal", "2"}, {"Won", "1"}},
	}}
	table, err := ResolveData(context.Background(), "Draw a bar chart of opp by stage", q)
	if err != nil {
		t.Fatalf("resolving: %v", err)
	}
	wantSQL := "SELECT stage AS item, COUNT(*) AS value FROM opportunities GROUP BY stage"
	if q.lastSQL != wantSQL {
		t.Errorf("sql = %q, want %q", q.lastSQL, wantSQL)
	}
	if len(table.Rows) != 2 {
		t.Errorf("got %d rows, want 2", len(table.Rows))
	}
}

func TestResolveAggregateWithPredicate(t *testing.T) {
	q := &fakeQuerier{result: &query.Result{Columns: []string{"item", "value"}, Rows: [][]string{{"SingTel", "2"}}}}
	_, err := ResolveData(context.Background(), "opp by customer_name where stage = 'Proposal'", q)
	if err != nil {
		t.Fatalf("resolving: %v", err)
	}
	wantSQL := "SELECT customer_name AS item, COUNT(*) AS value FROM opportunities WHERE stage = 'Proposal' GROUP BY customer_name"
	if q.lastSQL != wantSQL {
		t.Errorf("sql = %q, want %q", q.lastSQL, wantSQL)
	}
}

func TestResolveFreeFormFilter(t *testing.T) {
	q := &fakeQuerier{result: &query.Result{Columns: []string{"opp_name"}, Rows: [][]string{{"AI Platform"}}}}
	_, err := ResolveData(context.Background(), "chart the deals where customer_name = 'SingTel'", q)
	if err != nil {
		t.Fatalf("resolving: %v", err)
	}
	wantSQL := "SELECT * FROM opportunities WHERE customer_name = 'SingTel'"
	if q.lastSQL != wantSQL {
		t.Errorf("sql = %q, want %q", q.lastSQL, wantSQL)
	}
}

func TestResolveDefaultSelectsEverything(t *testing.T) {
	q := &fakeQuerier{result: &query.Result{Columns: []string{"opp_name"}, Rows: [][]string{{"AI Platform"}}}}
	_, err := ResolveData(context.Background(), "chart all the deals", q)
	if err != nil {
		t.Fatalf("resolving: %v", err)
	}
	if q.lastSQL != "SELECT * FROM opportunities" {
		t.Errorf("sql = %q", q.lastSQL)
	}
}

func TestResolveEmptyResultIsNoData(t *testing.T) {
	q := &fakeQuerier{result: &query.Result{Columns: []string{"opp_name"}}}
	_, err := ResolveData(context.Background(), "chart the deals where stage = 'Lost'", q)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}
