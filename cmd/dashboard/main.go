package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"MarketDashboard/internal/api"
	"MarketDashboard/internal/cache"
	"MarketDashboard/internal/collector"
	"MarketDashboard/internal/config"
	"MarketDashboard/internal/notifier"
	"MarketDashboard/internal/offline"
	"MarketDashboard/internal/recorder"
	"MarketDashboard/internal/scheduler"
	"MarketDashboard/internal/session"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] MarketDashboard starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init fetcher
	client := collector.NewHTTPClient(cfg.Proxy, cfg.Fetch.HTTPCacheDir, cfg.Fetch.HTTPCacheTTL, cfg.Fetch.Timeout)
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "vstrader":
		fetcher = collector.NewVsTraderFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, client)
	case "mock":
		fetcher = &collector.MockFetcher{}
	default:
		fetcher = collector.NewYahooFetcher(client)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	// Init cache
	expiry := make(map[cache.Category]time.Duration, len(cfg.Cache.Expiry))
	for name, d := range cfg.Cache.Expiry {
		expiry[cache.Category(name)] = d
	}
	cm, err := cache.NewManager(cfg.Cache.Dir, expiry)
	if err != nil {
		log.Fatalf("[FATAL] init cache: %v", err)
	}

	// Init collector
	universe := &collector.WikipediaUniverse{URL: cfg.Universe.URL, Client: client}
	col := collector.NewCollector(fetcher, universe, cm, collector.Options{
		MaxWorkers:  cfg.Fetch.MaxWorkers,
		BatchSize:   cfg.Fetch.BatchSize,
		MaxAttempts: cfg.Fetch.MaxAttempts,
		RetryBase:   cfg.Fetch.RetryBase,
		BatchDelay:  cfg.Fetch.BatchDelay,
		SymbolDelay: cfg.Fetch.SymbolDelay,
	})

	// Init Telegram notifier
	var alerter notifier.Alerter = notifier.NoopAlerter{}
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		alerter = tn
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init offline snapshots and sessions
	snaps, err := offline.NewStore(cfg.Offline.Dir, cfg.Offline.MaxAge)
	if err != nil {
		log.Fatalf("[FATAL] init offline store: %v", err)
	}
	om := offline.NewManager(snaps, alerter, notifier.FormatFailureAlert, rec)
	sessions := session.NewStore(cfg.Session.IdleTimeout)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, cm, sessions, snaps, alerter, rec)
	if err := sched.RegisterAll(cfg.Schedule.SweepCron, cfg.Schedule.SessionCron, cfg.Schedule.WarmCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, warming market overview now")
		go sched.RunWarmNow()
	}

	gin.SetMode(gin.ReleaseMode)
	srv := api.NewHandler(col, cm, sessions, om, rec).NewServer(cfg.Server.Addr)
	go func() {
		log.Printf("[INFO] HTTP server listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[FATAL] http server: %v", err)
		}
	}()

	log.Println("[INFO] MarketDashboard is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	shutdownCtx, done := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ERROR] http shutdown: %v", err)
	}
	cancel()
	log.Println("[INFO] MarketDashboard stopped")
}
