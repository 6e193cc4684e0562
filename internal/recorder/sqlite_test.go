package recorder

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRecorder: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRecordLoad(t *testing.T) {
	r := openTestRecorder(t)
	r.now = func() time.Time { return time.Unix(1700000000, 0) }

	if err := r.RecordLoad(&LoadEvent{Operation: "market_overview", Duration: 1250 * time.Millisecond, Cached: true, Rows: 40}); err != nil {
		t.Fatalf("RecordLoad: %v", err)
	}

	var (
		ts       int64
		op       string
		duration int64
		cached   int
		rows     int
		offline  int
	)
	err := r.db.QueryRow(`SELECT timestamp, operation, duration_ms, cached, row_count, offline FROM load_events`).
		Scan(&ts, &op, &duration, &cached, &rows, &offline)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if ts != 1700000000 || op != "market_overview" || duration != 1250 || cached != 1 || rows != 40 || offline != 0 {
		t.Errorf("row = %d %s %d %d %d %d", ts, op, duration, cached, rows, offline)
	}
}

func TestRecordFailure(t *testing.T) {
	r := openTestRecorder(t)

	evt := &FailureEvent{Operation: "selected_companies", Message: "no data", Recovery: []string{"retry", "reset"}}
	if err := r.RecordFailure(evt); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	if err := r.RecordFailure(&FailureEvent{Operation: "market_overview", FromSnapshot: true}); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}

	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM failure_events`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	var recovery string
	if err := r.db.QueryRow(`SELECT recovery FROM failure_events WHERE operation = ?`, "selected_companies").Scan(&recovery); err != nil {
		t.Fatalf("query: %v", err)
	}
	if recovery != "retry,reset" {
		t.Errorf("recovery = %q", recovery)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	r := openTestRecorder(t)
	if err := r.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	if err := r.RecordLoad(&LoadEvent{}); err != nil {
		t.Error(err)
	}
	if err := r.RecordFailure(&FailureEvent{}); err != nil {
		t.Error(err)
	}
	if err := r.Close(); err != nil {
		t.Error(err)
	}
}
