// Package opportunity provides the flat-file record store for sales opportunities.
package opportunity

import (
	"fmt"
	"strconv"
	"time"
)

// Columns is the fixed table schema, in file order. The order is significant
// for round-tripping the backing file; only no, opp_id and opp_name carry
// key semantics.
var Columns = []string{
	"no", "timestamp", "customer_name", "opp_id", "opp_name",
	"submission_date", "tender_briefing_date", "review1_date", "review2_date",
	"am_name", "offshore", "bcc_review_date", "deal_size", "stage", "details",
}

// TableName is the relation name the query engine exposes the table under.
const TableName = "opportunities"

// Record is one opportunity row. All date fields are uninterpreted
// YYYY-MM-DD strings; no validation is applied to them.
type Record struct {
	No                 int64
	Timestamp          time.Time
	CustomerName       string
	OppID              string
	OppName            string
	SubmissionDate     string
	TenderBriefingDate string
	Review1Date        string
	Review2Date        string
	AMName             string
	Offshore           string
	BCCReviewDate      string
	DealSize           string
	Stage              string
	Details            string
}

// fields returns the record's values in Columns order.
func (r *Record) fields() []string {
	ts := ""
	if !r.Timestamp.IsZero() {
		ts = r.Timestamp.Format(time.RFC3339Nano)
	}
	return []string{
		strconv.FormatInt(r.No, 10), ts, r.CustomerName, r.OppID, r.OppName,
		r.SubmissionDate, r.TenderBriefingDate, r.Review1Date, r.Review2Date,
		r.AMName, r.Offshore, r.BCCReviewDate, r.DealSize, r.Stage, r.Details,
	}
}

// recordFromFields parses one CSV row in Columns order.
func recordFromFields(row []string) (Record, error) {
	if len(row) != len(Columns) {
		return Record{}, fmt.Errorf("row has %d fields, want %d", len(row), len(Columns))
	}
	no, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("parsing no %q: %w", row[0], err)
	}
	var ts time.Time
	if row[1] != "" {
		ts, err = time.Parse(time.RFC3339Nano, row[1])
		if err != nil {
			return Record{}, fmt.Errorf("parsing timestamp %q: %w", row[1], err)
		}
	}
	return Record{
		No:                 no,
		Timestamp:          ts,
		CustomerName:       row[2],
		OppID:              row[3],
		OppName:            row[4],
		SubmissionDate:     row[5],
		TenderBriefingDate: row[6],
		Review1Date:        row[7],
		Review2Date:        row[8],
		AMName:             row[9],
		Offshore:           row[10],
		BCCReviewDate:      row[11],
		DealSize:           row[12],
		Stage:              row[13],
		Details:            row[14],
	}, nil
}

// Locator identifies an existing record for update. At least one field must
// be set. A row matches if it matches any supplied field case-insensitively;
// an empty field does not constrain the match.
type Locator struct {
	OppID   string
	OppName string
}

// Fields carries the updatable fields of a record. Empty strings mean "leave
// unchanged"; NewOppID replaces opp_id, Details is appended with a newline
// separator rather than replaced.
type Fields struct {
	NewOppID           string
	CustomerName       string
	SubmissionDate     string
	TenderBriefingDate string
	Review1Date        string
	Review2Date        string
	AMName             string
	Offshore           string
	BCCReviewDate      string
	DealSize           string
	Stage              string
	Details            string
}
