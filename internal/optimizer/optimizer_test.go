package optimizer

import (
	"sync/atomic"
	"testing"
	"time"

	"MarketDashboard/internal/model"
)

func TestChunk(t *testing.T) {
	got := Chunk([]string{"A", "B", "C", "D", "E", "F", "G"}, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(got))
	}
	if len(got[0]) != 3 || len(got[2]) != 1 || got[2][0] != "G" {
		t.Errorf("unexpected chunks: %v", got)
	}
	if n := len(Chunk([]string{}, 3)); n != 0 {
		t.Errorf("empty input should give no chunks, got %d", n)
	}
}

func TestLimitRows(t *testing.T) {
	rows := make([]int, 1500)
	if n := len(LimitRows(rows, DefaultMaxRows)); n != 1000 {
		t.Errorf("LimitRows = %d, want 1000", n)
	}
	if n := len(LimitRows(rows[:10], DefaultMaxRows)); n != 10 {
		t.Errorf("short table should be untouched, got %d", n)
	}
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		total, page, size   int
		wantPage, wantPages int
		wantStart, wantEnd  int
	}{
		{45, 0, 20, 0, 3, 0, 20},
		{45, 2, 20, 2, 3, 40, 45},
		{45, 9, 20, 2, 3, 40, 45},
		{45, -1, 20, 0, 3, 0, 20},
		{0, 0, 20, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		p := Paginate(tt.total, tt.page, tt.size)
		if p.Number != tt.wantPage || p.TotalPages != tt.wantPages || p.Start != tt.wantStart || p.End != tt.wantEnd {
			t.Errorf("Paginate(%d,%d,%d) = %+v", tt.total, tt.page, tt.size, p)
		}
	}
}

func TestDownsampleKeepsLastPoint(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	var bars []model.HistoricalBar
	for i := 0; i < 2501; i++ {
		bars = append(bars, model.HistoricalBar{Symbol: "AAPL", Date: start.AddDate(0, 0, i), Close: float64(i)})
	}
	got := Downsample(bars, 1000)
	if len(got) >= len(bars) || len(got) > 2000 {
		t.Errorf("series not thinned: %d points", len(got))
	}
	if got[len(got)-1].Close != 2500 {
		t.Errorf("last point lost: %+v", got[len(got)-1])
	}
	if got[0].Close != 0 {
		t.Errorf("first point should be kept: %+v", got[0])
	}

	short := bars[:10]
	if n := len(Downsample(short, 1000)); n != 10 {
		t.Errorf("short series should be untouched, got %d", n)
	}
}

func TestDebouncerRunsOnlyLastCall(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var calls int32
	var last atomic.Value
	for _, q := range []string{"a", "ap", "app"} {
		q := q
		d.Trigger("search", func() {
			atomic.AddInt32(&calls, 1)
			last.Store(q)
		})
	}
	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&calls) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(40 * time.Millisecond)
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected 1 call, got %d", n)
	}
	if last.Load() != "app" {
		t.Errorf("expected last query, got %v", last.Load())
	}
	if d.Pending() != 0 {
		t.Errorf("expected no pending timers, got %d", d.Pending())
	}
}

func TestDeduper(t *testing.T) {
	d := NewDeduper(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }

	if !d.Allow("overview") {
		t.Fatal("first request should be allowed")
	}
	if d.Allow("overview") {
		t.Error("duplicate within ttl should be rejected")
	}
	now = now.Add(time.Minute)
	if !d.Allow("overview") {
		t.Error("request after ttl should be allowed")
	}
	d.Forget("overview")
	if !d.Allow("overview") {
		t.Error("forgotten request should be allowed")
	}
}

func TestDeduperDropsClosedWindows(t *testing.T) {
	d := NewDeduper(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }

	d.Allow("session-a")
	d.Allow("session-b")
	if d.Len() != 2 {
		t.Fatalf("expected 2 open windows, got %d", d.Len())
	}
	now = now.Add(2 * time.Minute)
	d.Allow("session-c")
	if d.Len() != 1 {
		t.Errorf("closed windows should be dropped, %d left", d.Len())
	}
}
