package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"MarketDashboard/internal/cache"
	"MarketDashboard/internal/collector"
	"MarketDashboard/internal/model"
	"MarketDashboard/internal/notifier"
	"MarketDashboard/internal/offline"
	"MarketDashboard/internal/recorder"
	"MarketDashboard/internal/session"

	"github.com/robfig/cron/v3"
)

// OverviewKey is the offline snapshot key of the market overview.
const OverviewKey = "market_overview"

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Cache     *cache.Manager
	Sessions  *session.Store
	Snapshots *offline.Store
	Notifier  notifier.Alerter
	Recorder  recorder.Recorder
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, c *cache.Manager, sessions *session.Store,
	snaps *offline.Store, alerter notifier.Alerter, rec recorder.Recorder) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Cache:     c,
		Sessions:  sessions,
		Snapshots: snaps,
		Notifier:  alerter,
		Recorder:  rec,
		Ctx:       ctx,
	}
}

// RegisterAll registers the cache sweep, session expiry and, when warmCron
// is set, the overview warm-up.
func (s *Scheduler) RegisterAll(sweepCron, sessionCron, warmCron string) error {
	if _, err := s.Cron.AddFunc(sweepCron, s.sweepTask); err != nil {
		return fmt.Errorf("register sweep task: %w", err)
	}
	if _, err := s.Cron.AddFunc(sessionCron, s.expireSessions); err != nil {
		return fmt.Errorf("register session task: %w", err)
	}
	if warmCron == "" {
		log.Println("[INFO] overview warm-up disabled")
		return nil
	}
	if _, err := s.Cron.AddFunc(warmCron, s.warmTask); err != nil {
		return fmt.Errorf("register warm task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunWarmNow executes the warm-up immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunWarmNow() {
	s.warmTask()
}

func (s *Scheduler) sweepTask() {
	if n := s.Cache.SweepExpired(); n > 0 {
		log.Printf("[INFO] swept %d expired cache entries", n)
	}
}

func (s *Scheduler) expireSessions() {
	s.Sessions.ExpireIdle()
}

func (s *Scheduler) warmTask() {
	log.Println("[INFO] running overview warm-up")
	start := time.Now()
	rows, err := s.Collector.MarketOverview(s.Ctx)
	elapsed := time.Since(start)
	if err != nil {
		log.Printf("[ERROR] overview warm-up: %v", err)
		s.trySend(notifier.FormatWarmReport(0, elapsed, err))
		if err := s.Recorder.RecordFailure(&recorder.FailureEvent{Operation: OverviewKey, Message: err.Error()}); err != nil {
			log.Printf("[ERROR] record failure: %v", err)
		}
		return
	}

	if err := s.Snapshots.Save(OverviewKey, model.QuotesPayload(rows)); err != nil {
		log.Printf("[ERROR] save overview snapshot: %v", err)
	}
	if err := s.Recorder.RecordLoad(&recorder.LoadEvent{Operation: OverviewKey, Duration: elapsed, Rows: len(rows)}); err != nil {
		log.Printf("[ERROR] record load: %v", err)
	}
	log.Printf("[INFO] overview warm-up done: %d companies in %v", len(rows), elapsed.Round(time.Millisecond))
}

// HandleCommand processes an operator command and returns a reply.
func (s *Scheduler) HandleCommand(_ context.Context, command string) string {
	switch strings.ToLower(command) {
	case "/status":
		return notifier.FormatStatus(s.Cache.Stats(), s.Sessions.Len(), s.Snapshots.Info())
	case "/warm":
		s.warmTask()
		return notifier.FormatStatus(s.Cache.Stats(), s.Sessions.Len(), s.Snapshots.Info())
	case "/sweep":
		return fmt.Sprintf("Swept %d expired cache entries", s.Cache.SweepExpired())
	case "/clear":
		s.Cache.Invalidate("")
		return "Cache cleared"
	default:
		return "Available commands:\n• /status\n• /warm\n• /sweep\n• /clear"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Alert(s.Ctx, text); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
