package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/constructiq/safety-lead-pipeline/internal/database"
	"github.com/constructiq/safety-lead-pipeline/internal/repository"
)

// HealthHandler reports service and database health.
type HealthHandler struct {
	db            *database.DB
	opportunities repository.OpportunityRepository
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *database.DB, opportunities repository.OpportunityRepository) *HealthHandler {
	return &HealthHandler{db: db, opportunities: opportunities}
}

// Health checks database connectivity and reports pool statistics alongside
// the live opportunity count.
func (h *HealthHandler) Health(c *gin.Context) {
	if err := h.db.HealthCheck(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	stats := h.db.GetStats()
	liveOpportunities, err := h.opportunities.CountLive(c.Request.Context())
	if err != nil {
		liveOpportunities = -1
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"database": gin.H{
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
			"idle":             stats.Idle,
		},
		"live_opportunities": liveOpportunities,
	})
}
