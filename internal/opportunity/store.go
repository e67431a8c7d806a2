package opportunity

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Store persists the opportunity table as a single CSV file. Every mutation
// reads the whole table, mutates it in memory and rewrites the whole file,
// so concurrent writers from separate processes race at whole-file
// granularity and the later write wins. That is acceptable only under the
// single-active-user assumption this assistant is built for; the mutex below
// only serializes writers within one process.
type Store struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewStore creates a store over the CSV file at path. The file is not
// touched until InitializeIfAbsent or the first mutation.
func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// InitializeIfAbsent writes an empty table with the full column header if
// the backing file does not exist. Idempotent.
func (s *Store) InitializeIfAbsent() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking store file: %w", err)
	}
	return s.writeAll(nil)
}

// Create appends a new record. customer_name, opp_name, deal_size, stage and
// details are mandatory; opp_name and a non-empty opp_id must be unique
// case-insensitively. On success the record gets no = max(no)+1 and a fresh
// timestamp, and the whole table is rewritten.
func (s *Store) Create(rec Record) (Record, error) {
	for _, f := range []struct{ name, val string }{
		{"customer_name", rec.CustomerName},
		{"opp_name", rec.OppName},
		{"deal_size", rec.DealSize},
		{"stage", rec.Stage},
		{"details", rec.Details},
	} {
		if strings.TrimSpace(f.val) == "" {
			return Record{}, &ValidationError{Field: f.name}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return Record{}, err
	}

	var maxNo int64
	for _, existing := range records {
		if strings.EqualFold(existing.OppName, rec.OppName) {
			return Record{}, fmt.Errorf("opp_name %q: %w", rec.OppName, ErrDuplicateName)
		}
		if rec.OppID != "" && strings.EqualFold(existing.OppID, rec.OppID) {
			return Record{}, fmt.Errorf("opp_id %q: %w", rec.OppID, ErrDuplicateID)
		}
		if existing.No > maxNo {
			maxNo = existing.No
		}
	}

	rec.No = maxNo + 1
	rec.Timestamp = s.now()
	records = append(records, rec)

	if err := s.writeAll(records); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Update locates records by the locator and applies fields to every match.
// A row matches when it equals any supplied locator field case-insensitively,
// so a request supplying both an opp_id and an opp_name belonging to
// different rows updates both rows; the returned count reports how many.
// details is appended with a newline separator, never replaced. Each matched
// record's timestamp is refreshed. NewOppID keeps opp_id unique: it is
// rejected when another record already carries it, or when the locator
// matched more than one row.
func (s *Store) Update(loc Locator, fields Fields) (int, error) {
	if loc.OppID == "" && loc.OppName == "" {
		return 0, ErrMissingLocator
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return 0, err
	}

	var matched []int
	for i := range records {
		if loc.matches(&records[i]) {
			matched = append(matched, i)
		}
	}
	if len(matched) == 0 {
		return 0, fmt.Errorf("locator %s: %w", loc, ErrNotFound)
	}

	if fields.NewOppID != "" {
		if len(matched) > 1 {
			return 0, fmt.Errorf("opp_id %q cannot be assigned to %d records: %w",
				fields.NewOppID, len(matched), ErrDuplicateID)
		}
		for i := range records {
			if i == matched[0] {
				continue
			}
			if strings.EqualFold(records[i].OppID, fields.NewOppID) {
				return 0, fmt.Errorf("opp_id %q: %w", fields.NewOppID, ErrDuplicateID)
			}
		}
	}

	for _, i := range matched {
		applyFields(&records[i], fields)
		records[i].Timestamp = s.now()
	}

	if err := s.writeAll(records); err != nil {
		return 0, err
	}
	return len(matched), nil
}

// Snapshot returns a read-only copy of all records. Queries and chart
// resolution operate on snapshots only; they never see the live file.
func (s *Store) Snapshot() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAll()
}

func (loc Locator) matches(rec *Record) bool {
	if loc.OppID != "" && strings.EqualFold(rec.OppID, loc.OppID) {
		return true
	}
	if loc.OppName != "" && strings.EqualFold(rec.OppName, loc.OppName) {
		return true
	}
	return false
}

// String renders the locator for error messages, preferring opp_id.
func (loc Locator) String() string {
	if loc.OppID != "" {
		return loc.OppID
	}
	return loc.OppName
}

func applyFields(rec *Record, f Fields) {
	if f.NewOppID != "" {
		rec.OppID = f.NewOppID
	}
	if f.CustomerName != "" {
		rec.CustomerName = f.CustomerName
	}
	if f.SubmissionDate != "" {
		rec.SubmissionDate = f.SubmissionDate
	}
	if f.TenderBriefingDate != "" {
		rec.TenderBriefingDate = f.TenderBriefingDate
	}
	if f.Review1Date != "" {
		rec.Review1Date = f.Review1Date
	}
	if f.Review2Date != "" {
		rec.Review2Date = f.Review2Date
	}
	if f.AMName != "" {
		rec.AMName = f.AMName
	}
	if f.Offshore != "" {
		rec.Offshore = f.Offshore
	}
	if f.BCCReviewDate != "" {
		rec.BCCReviewDate = f.BCCReviewDate
	}
	if f.DealSize != "" {
		rec.DealSize = f.DealSize
	}
	if f.Stage != "" {
		rec.Stage = f.Stage
	}
	if f.Details != "" {
		if rec.Details != "" {
			rec.Details = rec.Details + "\n" + f.Details
		} else {
			rec.Details = f.Details
		}
	}
}

// readAll loads the whole table. A missing file reads as an empty table so
// the first Create can bootstrap it.
func (s *Store) readAll() ([]Record, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening store file: %w", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading store file: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if err := checkHeader(rows[0]); err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := recordFromFields(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// writeAll rewrites the whole table atomically via a temp file and rename.
func (s *Store) writeAll(records []Record) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".opportunities-*.csv")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(Columns); err != nil {
		tmp.Close()
		return fmt.Errorf("writing header: %w", err)
	}
	for i := range records {
		if err := w.Write(records[i].fields()); err != nil {
			tmp.Close()
			return fmt.Errorf("writing row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing rows: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing store file: %w", err)
	}
	return nil
}

func checkHeader(header []string) error {
	if len(header) != len(Columns) {
		return fmt.Errorf("store file has %d columns, want %d", len(header), len(Columns))
	}
	for i, col := range Columns {
		if header[i] != col {
			return fmt.Errorf("store file column %d is %q, want %q", i, header[i], col)
		}
	}
	return nil
}
