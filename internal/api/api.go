// Package api serves the dashboard over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"MarketDashboard/internal/cache"
	"MarketDashboard/internal/collector"
	"MarketDashboard/internal/model"
	"MarketDashboard/internal/offline"
	"MarketDashboard/internal/optimizer"
	"MarketDashboard/internal/recorder"
	"MarketDashboard/internal/session"
)

const (
	DefaultTimeout      = 60 * time.Second
	ServiceVersion      = "1.0.0"
	ServiceName         = "market-dashboard"
	RequestIDContextKey = "request_id"
	RequestIDHeaderKey  = "X-Request-ID"
)

// Offline snapshot keys.
const (
	KeySelectedCompanies = "selected_companies"
	KeyMarketOverview    = "market_overview"
)

// DataSource is the subset of the collector the handlers use.
type DataSource interface {
	ListUniverse(ctx context.Context) []model.CompanyRecord
	Snapshot(ctx context.Context, symbols []string) ([]model.QuoteSnapshot, error)
	MarketOverview(ctx context.Context) ([]model.QuoteSnapshot, error)
	Historical(ctx context.Context, symbols []string, period model.Period) ([]model.HistoricalBar, error)
	CompanyInfo(ctx context.Context, symbol string) (*model.CompanyInfo, error)
}

var _ DataSource = (*collector.Collector)(nil)

// Handler handles HTTP requests using Gin framework.
type Handler struct {
	data     DataSource
	cache    *cache.Manager
	sessions *session.Store
	offline  *offline.Manager
	recorder recorder.Recorder

	refresh *optimizer.Deduper
	search  *optimizer.Debouncer
	now     func() time.Time
}

// NewHandler wires a handler. A nil recorder records nothing.
func NewHandler(data DataSource, c *cache.Manager, sessions *session.Store, om *offline.Manager, rec recorder.Recorder) *Handler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Handler{
		data:     data,
		cache:    c,
		sessions: sessions,
		offline:  om,
		recorder: rec,
		refresh:  optimizer.NewDeduper(5 * time.Second),
		search:   optimizer.NewDebouncer(optimizer.DefaultDebounce),
		now:      time.Now,
	}
}

// SetupRoutes configures all API routes.
func (h *Handler) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(requestIDMiddleware())
	router.Use(ginLoggerMiddleware())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/health", h.HealthCheck)

	api := router.Group("/api")
	api.GET("/universe", h.ListUniverse)
	api.GET("/presets", h.ListPresets)
	api.GET("/periods", h.ListPeriods)
	api.GET("/offline", h.ListSnapshots)
	api.GET("/companies/:symbol", h.GetCompany)

	api.GET("/cache/stats", h.CacheStats)
	api.DELETE("/cache", h.ClearCache)
	api.POST("/cache/sweep", h.SweepCache)

	api.POST("/sessions", h.CreateSession)
	s := api.Group("/sessions/:id", h.sessionMiddleware)
	s.GET("", h.GetSession)
	s.POST("/presets/:name", h.ApplyPreset)
	s.PUT("/selection", h.SetSelection)
	s.PUT("/offline", h.SetOffline)
	s.POST("/reset", h.ResetSession)
	s.GET("/companies", h.GetSelectedCompanies)
	s.GET("/overview", h.GetMarketOverview)
	s.POST("/overview/refresh", h.RefreshMarketOverview)
	s.GET("/historical", h.GetHistorical)

	return router
}

// NewServer wraps the router in an http.Server.
func (h *Handler) NewServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
