package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListSnapshots handles GET /api/offline
func (h *Handler) ListSnapshots(c *gin.Context) {
	c.JSON(http.StatusOK, h.offline.Store.Info())
}

// CacheStats handles GET /api/cache/stats
func (h *Handler) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.cache.Stats())
}

// ClearCache handles DELETE /api/cache
func (h *Handler) ClearCache(c *gin.Context) {
	h.cache.Invalidate("")
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// SweepCache handles POST /api/cache/sweep
func (h *Handler) SweepCache(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"removed": h.cache.SweepExpired()})
}
