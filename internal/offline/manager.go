package offline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"MarketDashboard/internal/model"
	"MarketDashboard/internal/recorder"
	"MarketDashboard/internal/session"
)

// Alerter delivers operator alerts.
type Alerter interface {
	Alert(ctx context.Context, text string) error
}

// AlertFormatter renders a failure into alert text.
type AlertFormatter func(operation, message string, recovery []string, at time.Time) string

// Source says where a loaded payload came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceSnapshot Source = "offline"
	SourceNone     Source = "none"
)

// Manager wraps dashboard loads with busy state, snapshots and failure reporting.
type Manager struct {
	Store    *Store
	alerter  Alerter
	format   AlertFormatter
	recorder recorder.Recorder
}

// NewManager wires a manager. Nil collaborators fall back to no-ops.
func NewManager(store *Store, alerter Alerter, format AlertFormatter, rec recorder.Recorder) *Manager {
	if format == nil {
		format = plainAlert
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Manager{Store: store, alerter: alerter, format: format, recorder: rec}
}

func plainAlert(operation, message string, recovery []string, at time.Time) string {
	return fmt.Sprintf("%s: %s failed: %s (recovery: %s)", at.Format(time.RFC3339), operation, message, strings.Join(recovery, ", "))
}

// RunWithIndicator marks key busy on the session while op runs. A successful
// non-empty result is saved as the key's snapshot. On failure the error goes
// through ReportFailure and the snapshot, if any, is returned in its place.
func (m *Manager) RunWithIndicator(ctx context.Context, sess *session.Session, key, message string,
	op func(ctx context.Context) (model.Payload, error), recovery ...string) (model.Payload, Source) {
	sess.SetLoading(key, message)
	defer sess.SetLoading(key, "")

	p, err := op(ctx)
	if err == nil && p.Empty() {
		err = fmt.Errorf("%s returned no rows", key)
	}
	if err != nil {
		return m.ReportFailure(ctx, sess, key, err.Error(), recovery)
	}
	if err := m.Store.Save(key, p); err != nil {
		log.Printf("[WARN] save offline snapshot %s: %v", key, err)
	}
	return p, SourceLive
}

// ReportFailure records an error notice on the session. A stored snapshot
// for operation is returned with a notice saying so; otherwise the notice
// offers the recovery actions and operators are alerted.
func (m *Manager) ReportFailure(ctx context.Context, sess *session.Session, operation, message string, recovery []string) (model.Payload, Source) {
	log.Printf("[ERROR] %s: %s", operation, message)
	sess.Notify(session.LevelError, fmt.Sprintf("Error in %s: %s", operation, message))

	if p, ok := m.Store.Load(operation); ok {
		sess.Notify(session.LevelWarning, "Using offline data from previous session")
		m.record(&recorder.FailureEvent{Operation: operation, Message: message, FromSnapshot: true})
		return p, SourceSnapshot
	}

	if len(recovery) > 0 {
		sess.Notify(session.LevelInfo, "Recovery options available", recovery...)
	}
	m.record(&recorder.FailureEvent{Operation: operation, Message: message, Recovery: recovery})
	if m.alerter != nil {
		if err := m.alerter.Alert(ctx, m.format(operation, message, recovery, time.Now())); err != nil {
			log.Printf("[WARN] send failure alert: %v", err)
		}
	}
	return model.Payload{}, SourceNone
}

// LoadOffline serves key from its snapshot, noting the outcome on the session.
func (m *Manager) LoadOffline(sess *session.Session, key, label string) (model.Payload, Source) {
	if p, ok := m.Store.Load(key); ok {
		sess.Notify(session.LevelInfo, fmt.Sprintf("Using offline data for %s", label))
		return p, SourceSnapshot
	}
	sess.Notify(session.LevelWarning, fmt.Sprintf("No offline data available for %s", label))
	return model.Payload{}, SourceNone
}

func (m *Manager) IsOffline(sess *session.Session) bool { return sess.Offline() }

func (m *Manager) EnterOffline(sess *session.Session) {
	sess.SetOffline(true)
	sess.Notify(session.LevelSuccess, "Offline mode enabled. Using cached data.")
}

func (m *Manager) ExitOffline(sess *session.Session) {
	sess.SetOffline(false)
	sess.Notify(session.LevelSuccess, "Online mode enabled.")
}

// Reset clears the session's interactive state.
func (m *Manager) Reset(sess *session.Session) {
	sess.Reset()
	sess.Notify(session.LevelSuccess, "Application reset successfully!")
}

func (m *Manager) record(evt *recorder.FailureEvent) {
	if err := m.recorder.RecordFailure(evt); err != nil {
		log.Printf("[WARN] record failure event: %v", err)
	}
}
