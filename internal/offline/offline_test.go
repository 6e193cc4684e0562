package offline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/guregu/null/v6"

	"MarketDashboard/internal/model"
	"MarketDashboard/internal/recorder"
	"MarketDashboard/internal/session"
)

func sampleQuotes() model.Payload {
	return model.QuotesPayload([]model.QuoteSnapshot{
		{Symbol: "AAPL", Company: "Apple Inc.", CurrentPrice: 190.5, DailyChange: 1.5, DailyChangePct: 0.79,
			Volume: 52_000_000, PreviousVolume: 48_000_000, VolumeChange: 4_000_000, VolumeChangePct: 8.33,
			EstBuyVolume: 31_200_000, EstSellVolume: 20_800_000, MarketCap: 2.9e12, PERatio: null.FloatFrom(29.4), Sector: "Technology"},
		{Symbol: "JPM", Company: "JPMorgan Chase & Co.", CurrentPrice: 150, DailyChange: -2, DailyChangePct: -1.32,
			Volume: 9_000_000, PreviousVolume: 10_000_000, VolumeChange: -1_000_000, VolumeChangePct: -10,
			EstBuyVolume: 3_600_000, EstSellVolume: 5_400_000, Sector: "Financial"},
	})
}

func newTestStore(t *testing.T, now *time.Time) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "offline"), 0)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	s.now = func() time.Time { return *now }
	return s
}

func TestSnapshotRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, &now)

	want := sampleQuotes()
	if err := s.Save("selected_companies", want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	now = now.Add(time.Hour)
	got, ok := s.Load("selected_companies")
	if !ok {
		t.Fatal("snapshot saved an hour ago should load")
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v\nwant %+v", got, want)
	}
}

func TestSnapshotExpires(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, &now)

	if err := s.Save("market_overview", sampleQuotes()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	now = now.Add(25 * time.Hour)
	if _, ok := s.Load("market_overview"); ok {
		t.Error("25h old snapshot should be absent")
	}
	infos := s.Info()
	if len(infos) != 1 || !infos[0].Expired || infos[0].Rows != 2 {
		t.Errorf("info = %+v", infos)
	}
}

func TestSnapshotBarsAndScalar(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, &now)

	bars := model.BarsPayload([]model.HistoricalBar{
		{Symbol: "AAPL", Date: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100},
	})
	if err := s.Save("historical_1mo_1", bars); err != nil {
		t.Fatalf("Save bars: %v", err)
	}
	got, ok := s.Load("historical_1mo_1")
	if !ok || got.Kind != model.KindBars || len(got.Bars) != 1 {
		t.Fatalf("bars = %+v, %v", got, ok)
	}
	if !got.Bars[0].Date.Equal(bars.Bars[0].Date) || got.Bars[0].Volume != 100 {
		t.Errorf("bar = %+v", got.Bars[0])
	}

	scalar := model.ScalarPayload(map[string]any{"status": "ok", "count": 3.0})
	if err := s.Save("status", scalar); err != nil {
		t.Fatalf("Save scalar: %v", err)
	}
	gotScalar, ok := s.Load("status")
	if !ok || !reflect.DeepEqual(gotScalar, scalar) {
		t.Errorf("scalar = %+v, %v", gotScalar, ok)
	}
}

func TestLoadMissingAndCorrupt(t *testing.T) {
	now := time.Now()
	s := newTestStore(t, &now)
	if _, ok := s.Load("nothing"); ok {
		t.Error("missing key should be absent")
	}
	if err := os.WriteFile(s.path("broken"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Load("broken"); ok {
		t.Error("corrupt snapshot should be absent")
	}
}

type fakeAlerter struct{ alerts []string }

func (f *fakeAlerter) Alert(_ context.Context, text string) error {
	f.alerts = append(f.alerts, text)
	return nil
}

type failureLog struct {
	recorder.NoopRecorder
	events []recorder.FailureEvent
}

func (f *failureLog) RecordFailure(evt *recorder.FailureEvent) error {
	f.events = append(f.events, *evt)
	return nil
}

func TestRunWithIndicatorSavesSnapshot(t *testing.T) {
	now := time.Now()
	s := newTestStore(t, &now)
	m := NewManager(s, nil, nil, nil)
	sess := session.NewStore(0).Create()

	got, src := m.RunWithIndicator(context.Background(), sess, "selected_companies", "Loading", func(ctx context.Context) (model.Payload, error) {
		if msg, ok := sess.Loading("selected_companies"); !ok || msg != "Loading" {
			t.Errorf("loading state = %q, %v", msg, ok)
		}
		return sampleQuotes(), nil
	})
	if src != SourceLive || got.Len() != 2 {
		t.Fatalf("src = %s, len = %d", src, got.Len())
	}
	if _, ok := sess.Loading("selected_companies"); ok {
		t.Error("loading state not cleared")
	}
	if !s.Has("selected_companies") {
		t.Error("successful load should be snapshotted")
	}
}

func TestRunWithIndicatorFallsBackToSnapshot(t *testing.T) {
	now := time.Now()
	s := newTestStore(t, &now)
	if err := s.Save("market_overview", sampleQuotes()); err != nil {
		t.Fatal(err)
	}
	alerts := &fakeAlerter{}
	failures := &failureLog{}
	m := NewManager(s, alerts, nil, failures)
	sess := session.NewStore(0).Create()

	got, src := m.RunWithIndicator(context.Background(), sess, "market_overview", "Loading", func(context.Context) (model.Payload, error) {
		return model.Payload{}, errors.New("provider down")
	}, session.RecoveryRetry, session.RecoveryOffline)
	if src != SourceSnapshot || got.Len() != 2 {
		t.Fatalf("src = %s, len = %d", src, got.Len())
	}
	notices := sess.DrainNotices()
	if len(notices) != 2 || notices[0].Level != session.LevelError || !strings.Contains(notices[1].Message, "offline data") {
		t.Errorf("notices = %+v", notices)
	}
	if len(alerts.alerts) != 0 {
		t.Error("snapshot fallback should not alert")
	}
	if len(failures.events) != 1 || !failures.events[0].FromSnapshot {
		t.Errorf("failures = %+v", failures.events)
	}
}

func TestReportFailureOffersRecovery(t *testing.T) {
	now := time.Now()
	s := newTestStore(t, &now)
	alerts := &fakeAlerter{}
	m := NewManager(s, alerts, nil, nil)
	sess := session.NewStore(0).Create()

	_, src := m.RunWithIndicator(context.Background(), sess, "selected_companies", "Loading", func(context.Context) (model.Payload, error) {
		return model.QuotesPayload(nil), nil
	}, session.RecoveryRetry, session.RecoveryOffline, session.RecoveryReset)
	if src != SourceNone {
		t.Fatalf("src = %s", src)
	}
	notices := sess.DrainNotices()
	if len(notices) != 2 || len(notices[1].Recovery) != 3 {
		t.Errorf("notices = %+v", notices)
	}
	if len(alerts.alerts) != 1 || !strings.Contains(alerts.alerts[0], "selected_companies") {
		t.Errorf("alerts = %v", alerts.alerts)
	}
	if s.Has("selected_companies") {
		t.Error("empty result must not be snapshotted")
	}
}

func TestOfflineModeAndReset(t *testing.T) {
	now := time.Now()
	s := newTestStore(t, &now)
	m := NewManager(s, nil, nil, nil)
	sess := session.NewStore(0).Create()

	m.EnterOffline(sess)
	if !m.IsOffline(sess) {
		t.Fatal("expected offline")
	}
	if _, src := m.LoadOffline(sess, "market_overview", "market overview"); src != SourceNone {
		t.Errorf("src = %s", src)
	}
	m.ExitOffline(sess)
	if m.IsOffline(sess) {
		t.Error("expected online")
	}

	sess.SetSelected([]string{"AAPL"})
	m.EnterOffline(sess)
	m.Reset(sess)
	if len(sess.Selected()) != 0 || sess.Offline() {
		t.Errorf("reset left state: %+v", sess.Snapshot())
	}
}

func TestSnapshotInfoAgeUsesStoreClock(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, &now)

	if err := s.Save("selected_companies", sampleQuotes()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	now = now.Add(3 * time.Hour)
	infos := s.Info()
	if len(infos) != 1 {
		t.Fatalf("info = %+v", infos)
	}
	if infos[0].Age != "3 hours ago" || infos[0].Expired {
		t.Errorf("age = %q expired = %v", infos[0].Age, infos[0].Expired)
	}
}
