package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"MarketDashboard/internal/collector"
)

// CreateSession handles POST /api/sessions
func (h *Handler) CreateSession(c *gin.Context) {
	sess := h.sessions.Create()
	c.JSON(http.StatusCreated, sess.Snapshot())
}

// GetSession handles GET /api/sessions/:id
func (h *Handler) GetSession(c *gin.Context) {
	sess := sessionFrom(c)
	state := sess.Snapshot()
	sess.DrainNotices()
	c.JSON(http.StatusOK, state)
}

// ListPresets handles GET /api/presets
func (h *Handler) ListPresets(c *gin.Context) {
	c.JSON(http.StatusOK, collector.Presets)
}

// ApplyPreset handles POST /api/sessions/:id/presets/:name. Preset symbols
// are merged into the current selection.
func (h *Handler) ApplyPreset(c *gin.Context) {
	sess := sessionFrom(c)
	preset, ok := collector.FindPreset(c.Param("name"))
	if !ok {
		h.abort(c, http.StatusNotFound, fmt.Errorf("preset %q not found", c.Param("name")), "preset not found")
		return
	}
	sess.SetSelected(append(sess.Selected(), preset.Symbols...))
	c.JSON(http.StatusOK, gin.H{"selected": sess.Selected()})
}

type selectionRequest struct {
	Symbols []string `json:"symbols"`
}

// SetSelection handles PUT /api/sessions/:id/selection
func (h *Handler) SetSelection(c *gin.Context) {
	sess := sessionFrom(c)
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, fmt.Errorf("invalid selection body: %w", err))
		return
	}
	symbols, err := cleanSymbols(req.Symbols)
	if err != nil {
		h.badRequest(c, err)
		return
	}
	sess.SetSelected(symbols)
	c.JSON(http.StatusOK, gin.H{"selected": sess.Selected()})
}

type offlineRequest struct {
	Offline *bool `json:"offline"`
}

// SetOffline handles PUT /api/sessions/:id/offline
func (h *Handler) SetOffline(c *gin.Context) {
	sess := sessionFrom(c)
	var req offlineRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Offline == nil {
		h.badRequest(c, fmt.Errorf("body must be {\"offline\": true|false}"))
		return
	}
	if *req.Offline {
		h.offline.EnterOffline(sess)
	} else {
		h.offline.ExitOffline(sess)
	}
	reply(c, sess, http.StatusOK, gin.H{"offline": sess.Offline(), "snapshots": h.offline.Store.Info()})
}

// ResetSession handles POST /api/sessions/:id/reset
func (h *Handler) ResetSession(c *gin.Context) {
	sess := sessionFrom(c)
	h.offline.Reset(sess)
	c.JSON(http.StatusOK, sess.Snapshot())
}
