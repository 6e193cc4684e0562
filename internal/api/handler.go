package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"MarketDashboard/internal/format"
	"MarketDashboard/internal/model"
	"MarketDashboard/internal/offline"
	"MarketDashboard/internal/recorder"
	"MarketDashboard/internal/session"
)

// HealthCheck handles GET /health requests
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "OK",
		"service":       ServiceName,
		"timestamp":     h.now().UTC().Format(time.RFC3339),
		"version":       ServiceVersion,
		"market_status": format.MarketStatusAt(h.now()),
	})
}

type loadFunc func(ctx context.Context) (model.Payload, error)

// load serves key from its snapshot while the session is offline and from
// op otherwise. Live failures fall back to the snapshot, if any.
func (h *Handler) load(c *gin.Context, sess *session.Session, key, label, message string, op loadFunc, recovery ...string) (model.Payload, offline.Source) {
	if h.offline.IsOffline(sess) {
		p, src := h.offline.LoadOffline(sess, key, label)
		h.record(key, 0, false, p.Len(), true)
		return p, src
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	hits := h.cache.Stats().Hits
	start := h.now()
	p, src := h.offline.RunWithIndicator(ctx, sess, key, message, op, recovery...)
	cached := h.cache.Stats().Hits > hits
	h.record(key, h.now().Sub(start), cached, p.Len(), src == offline.SourceSnapshot)
	if src == offline.SourceLive {
		log.Printf("[INFO] %s loaded: %d rows in %v (cached=%v)", key, p.Len(), h.now().Sub(start).Round(time.Millisecond), cached)
	}
	return p, src
}

// statusFor maps a load outcome to an HTTP status. Only a live request that
// produced neither data nor a snapshot is an error.
func statusFor(sess *session.Session, src offline.Source) int {
	if src == offline.SourceNone && !sess.Offline() {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func (h *Handler) record(op string, d time.Duration, cached bool, rows int, off bool) {
	evt := &recorder.LoadEvent{Operation: op, Duration: d, Cached: cached, Rows: rows, Offline: off}
	if err := h.recorder.RecordLoad(evt); err != nil {
		log.Printf("[WARN] record load %s: %v", op, err)
	}
}

// reply writes body with the session's pending notices attached.
func reply(c *gin.Context, sess *session.Session, status int, body gin.H) {
	body["notices"] = sess.DrainNotices()
	c.JSON(status, body)
}

func sessionFrom(c *gin.Context) *session.Session {
	return c.MustGet(sessionContextKey).(*session.Session)
}

func requestID(c *gin.Context) string {
	if id, ok := c.Get(RequestIDContextKey); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return "unknown"
}

// abort logs the error and sends an error response.
func (h *Handler) abort(c *gin.Context, status int, err error, userMessage string) {
	log.Printf("[ERROR] request_id=%s %s %s: %v (status %d)", requestID(c), c.Request.Method, c.Request.URL.Path, err, status)
	c.AbortWithStatusJSON(status, gin.H{
		"error":      userMessage,
		"request_id": requestID(c),
	})
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	h.abort(c, http.StatusBadRequest, err, err.Error())
}
