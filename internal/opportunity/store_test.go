package opportunity

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "opportunities.csv"))
	return s
}

func testRecord(name string) Record {
	return Record{
		CustomerName: "SingTel",
		OppName:      name,
		DealSize:     "500k",
		Stage:        "Proposal",
		Details:      "initial notes",
	}
}

func TestInitializeIfAbsent(t *testing.T) {
	s := newTestStore(t)

	if err := s.InitializeIfAbsent(); err != nil {
		t.Fatalf("initializing: %v", err)
	}
	// Idempotent.
	if err := s.InitializeIfAbsent(); err != nil {
		t.Fatalf("re-initializing: %v", err)
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("reading store file: %v", err)
	}
	header := strings.TrimSpace(string(data))
	if header != strings.Join(Columns, ",") {
		t.Errorf("header = %q, want full column list", header)
	}

	records, err := s.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty table, got %d records", len(records))
	}
}

func TestCreateAssignsSequentialNumbers(t *testing.T) {
	s := newTestStore(t)

	for i, name := range []string{"AI Platform", "5G Rollout", "Data Lake"} {
		rec, err := s.Create(testRecord(name))
		if err != nil {
			t.Fatalf("creating %q: %v", name, err)
		}
		if rec.No != int64(i+1) {
			t.Errorf("record %q got no %d, want %d", name, rec.No, i+1)
		}
		if rec.Timestamp.IsZero() {
			t.Errorf("record %q has zero timestamp", name)
		}
	}

	// Updating a record must not affect numbering of later creations.
	if _, err := s.Update(Locator{OppName: "5G Rollout"}, Fields{Stage: "Won"}); err != nil {
		t.Fatalf("updating: %v", err)
	}
	rec, err := s.Create(testRecord("Cloud Migration"))
	if err != nil {
		t.Fatalf("creating after update: %v", err)
	}
	if rec.No != 4 {
		t.Errorf("got no %d after update, want 4", rec.No)
	}
}

func TestCreateDuplicateNameCaseInsensitive(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Create(testRecord("AI Platform")); err != nil {
		t.Fatalf("creating: %v", err)
	}
	_, err := s.Create(testRecord("ai platform"))
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestCreateDuplicateID(t *testing.T) {
	s := newTestStore(t)

	first := testRecord("AI Platform")
	first.OppID = "OPP-001"
	if _, err := s.Create(first); err != nil {
		t.Fatalf("creating: %v", err)
	}

	second := testRecord("Other Deal")
	second.OppID = "opp-001"
	_, err := s.Create(second)
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	// Empty opp_ids never collide.
	if _, err := s.Create(testRecord("Third Deal")); err != nil {
		t.Fatalf("creating record without opp_id: %v", err)
	}
	if _, err := s.Create(testRecord("Fourth Deal")); err != nil {
		t.Fatalf("creating second record without opp_id: %v", err)
	}
}

func TestCreateMissingMandatoryField(t *testing.T) {
	s := newTestStore(t)

	rec := testRecord("AI Platform")
	rec.Stage = ""
	_, err := s.Create(rec)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "stage" {
		t.Errorf("validation field = %q, want stage", verr.Field)
	}
}

func TestUpdateByName(t *testing.T) {
	s := newTestStore(t)

	created, err := s.Create(testRecord("AI Platform"))
	if err != nil {
		t.Fatalf("creating: %v", err)
	}

	n, err := s.Update(Locator{OppName: "AI PLATFORM"}, Fields{
		Stage:    "Negotiation",
		DealSize: "750k",
	})
	if err != nil {
		t.Fatalf("updating: %v", err)
	}
	if n != 1 {
		t.Fatalf("updated %d records, want 1", n)
	}

	records, err := s.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	got := records[0]
	if got.Stage != "Negotiation" || got.DealSize != "750k" {
		t.Errorf("update not applied: stage=%q deal_size=%q", got.Stage, got.DealSize)
	}
	if got.CustomerName != "SingTel" {
		t.Errorf("untouched field changed: customer_name=%q", got.CustomerName)
	}
	if !got.Timestamp.After(created.Timestamp) && !got.Timestamp.Equal(created.Timestamp) {
		t.Errorf("timestamp not refreshed: %v -> %v", created.Timestamp, got.Timestamp)
	}
}

func TestUpdateAppendsDetails(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Create(testRecord("AI Platform")); err != nil {
		t.Fatalf("creating: %v", err)
	}
	if _, err := s.Update(Locator{OppName: "AI Platform"}, Fields{Details: "follow-up call done"}); err != nil {
		t.Fatalf("updating: %v", err)
	}

	records, _ := s.Snapshot()
	want := "initial notes\nfollow-up call done"
	if records[0].Details != want {
		t.Errorf("details = %q, want %q", records[0].Details, want)
	}
}

func TestUpdateMissingLocator(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Update(Locator{}, Fields{Stage: "Won"}); !errors.Is(err, ErrMissingLocator) {
		t.Fatalf("expected ErrMissingLocator, got %v", err)
	}
}

func TestUpdateNotFoundWritesNothing(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Create(testRecord("AI Platform")); err != nil {
		t.Fatalf("creating: %v", err)
	}
	before, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("reading store file: %v", err)
	}

	_, err = s.Update(Locator{OppName: "No Such Deal"}, Fields{Stage: "Won"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	after, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("re-reading store file: %v", err)
	}
	if string(before) != string(after) {
		t.Error("failed update rewrote the backing file")
	}
}

func TestUpdateBothLocatorsUpdatesAllMatches(t *testing.T) {
	s := newTestStore(t)

	first := testRecord("AI Platform")
	first.OppID = "OPP-001"
	if _, err := s.Create(first); err != nil {
		t.Fatalf("creating first: %v", err)
	}
	second := testRecord("5G Rollout")
	second.OppID = "OPP-002"
	if _, err := s.Create(second); err != nil {
		t.Fatalf("creating second: %v", err)
	}

	// opp_id points at the first row, opp_name at the second: both match.
	n, err := s.Update(Locator{OppID: "OPP-001", OppName: "5G Rollout"}, Fields{Stage: "Review"})
	if err != nil {
		t.Fatalf("updating: %v", err)
	}
	if n != 2 {
		t.Fatalf("updated %d records, want 2", n)
	}

	records, _ := s.Snapshot()
	for _, rec := range records {
		if rec.Stage != "Review" {
			t.Errorf("record %q stage = %q, want Review", rec.OppName, rec.Stage)
		}
	}
}

func TestUpdateNewOppIDDuplicate(t *testing.T) {
	s := newTestStore(t)

	first := testRecord("AI Platform")
	first.OppID = "OPP-001"
	if _, err := s.Create(first); err != nil {
		t.Fatalf("creating first: %v", err)
	}
	second := testRecord("5G Rollout")
	second.OppID = "OPP-002"
	if _, err := s.Create(second); err != nil {
		t.Fatalf("creating second: %v", err)
	}
	before, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("reading store file: %v", err)
	}

	// Case-insensitive collision with the other record's opp_id.
	_, err = s.Update(Locator{OppName: "5G Rollout"}, Fields{NewOppID: "opp-001"})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	after, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("re-reading store file: %v", err)
	}
	if string(before) != string(after) {
		t.Error("rejected update rewrote the backing file")
	}
	records, _ := s.Snapshot()
	ids := map[string]int{}
	for _, rec := range records {
		ids[strings.ToLower(rec.OppID)]++
	}
	if ids["opp-001"] != 1 || ids["opp-002"] != 1 {
		t.Errorf("opp_id uniqueness broken: %v", ids)
	}
}

func TestUpdateNewOppIDMultiMatch(t *testing.T) {
	s := newTestStore(t)

	first := testRecord("AI Platform")
	first.OppID = "OPP-001"
	if _, err := s.Create(first); err != nil {
		t.Fatalf("creating first: %v", err)
	}
	second := testRecord("5G Rollout")
	second.OppID = "OPP-002"
	if _, err := s.Create(second); err != nil {
		t.Fatalf("creating second: %v", err)
	}

	// The locator matches both rows; stamping one new_opp_id onto both
	// would mint a duplicate, so the update must refuse.
	_, err := s.Update(Locator{OppID: "OPP-001", OppName: "5G Rollout"}, Fields{NewOppID: "OPP-009"})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	records, _ := s.Snapshot()
	for _, rec := range records {
		if rec.OppID == "OPP-009" {
			t.Errorf("record %q was renumbered by a rejected update", rec.OppName)
		}
	}
}

func TestUpdateNewOppIDSelf(t *testing.T) {
	s := newTestStore(t)

	rec := testRecord("AI Platform")
	rec.OppID = "OPP-001"
	if _, err := s.Create(rec); err != nil {
		t.Fatalf("creating: %v", err)
	}

	// Re-stating a record's own opp_id is not a collision.
	n, err := s.Update(Locator{OppName: "AI Platform"}, Fields{NewOppID: "OPP-001", Stage: "Won"})
	if err != nil {
		t.Fatalf("updating: %v", err)
	}
	if n != 1 {
		t.Fatalf("updated %d records, want 1", n)
	}
}

func TestRoundTrip(t *testing.T) {
	s := newTestStore(t)

	rec := Record{
		CustomerName:       "U Mobile",
		OppID:              "OPP-777",
		OppName:            "Network Upgrade",
		SubmissionDate:     "2025-09-01",
		TenderBriefingDate: "2025-08-15",
		Review1Date:        "2025-08-20",
		Review2Date:        "2025-08-25",
		AMName:             "Tan Wei",
		Offshore:           "Hanoi",
		BCCReviewDate:      "2025-08-28",
		DealSize:           "1.2M",
		Stage:              "Proposal",
		Details:            "multi-line\nnotes, with commas",
	}
	created, err := s.Create(rec)
	if err != nil {
		t.Fatalf("creating: %v", err)
	}

	// Re-open the file through a fresh store to force a full read.
	records, err := NewStore(s.Path()).Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	got := records[0]
	if !got.Timestamp.Equal(created.Timestamp) {
		t.Errorf("timestamp round-trip: %v -> %v", created.Timestamp, got.Timestamp)
	}
	got.Timestamp, created.Timestamp = time.Time{}, time.Time{}
	if got != created {
		t.Errorf("round-trip mismatch:\n got %+v\nwant %+v", got, created)
	}
}
