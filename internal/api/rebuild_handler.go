package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/constructiq/safety-lead-pipeline/internal/services"
)

// RebuildHandler handles opportunity rebuild requests.
type RebuildHandler struct {
	pipeline *services.RebuildPipeline
}

// NewRebuildHandler creates a new rebuild handler.
func NewRebuildHandler(pipeline *services.RebuildPipeline) *RebuildHandler {
	return &RebuildHandler{pipeline: pipeline}
}

// RebuildRequest optionally bounds the rebuild window. Dates are YYYY-MM-DD.
type RebuildRequest struct {
	Since string `json:"since" form:"since"`
	Until string `json:"until" form:"until"`
}

// Rebuild runs a synchronous rebuild pass. A pass already in progress yields
// 409 rather than queueing a second one.
func (h *RebuildHandler) Rebuild(c *gin.Context) {
	var req RebuildRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	since, err := parseOptionalDate(req.Since)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid since date, want YYYY-MM-DD"})
		return
	}
	until, err := parseOptionalDate(req.Until)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid until date, want YYYY-MM-DD"})
		return
	}

	summary, err := h.pipeline.Rebuild(c.Request.Context(), since, until)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"summary":   summary,
		"timestamp": time.Now(),
	})
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
