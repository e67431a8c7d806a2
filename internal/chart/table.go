// Package chart turns natural-language chart requests into rendered images
// by asking a model for renderer code and executing it inside a restricted
// evaluator.
package chart

import "fmt"

// Table is the read-only dataset handed to the sandbox. It is either parsed
// from inline literal pairs or produced by a query over the opportunity
// snapshot.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Column returns the named column's values. This is the only item access the
// sandbox exposes.
func (t *Table) Column(name string) ([]string, error) {
	for i, col := range t.Columns {
		if col == name {
			values := make([]string, len(t.Rows))
			for j, row := range t.Rows {
				values[j] = row[i]
			}
			return values, nil
		}
	}
	return nil, fmt.Errorf("no column %q, have %v", name, t.Columns)
}
