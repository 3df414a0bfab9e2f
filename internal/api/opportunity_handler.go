package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/constructiq/safety-lead-pipeline/internal/repository"
)

// OpportunityHandler serves ranked target opportunities.
type OpportunityHandler struct {
	opportunities repository.OpportunityRepository
}

// NewOpportunityHandler creates a new opportunity handler.
func NewOpportunityHandler(opportunities repository.OpportunityRepository) *OpportunityHandler {
	return &OpportunityHandler{opportunities: opportunities}
}

// List returns opportunities ordered by score, filterable by minimum score,
// target company and talk track.
func (h *OpportunityHandler) List(c *gin.Context) {
	filters := repository.OpportunityFilters{
		TalkTrack: c.Query("talk_track"),
		Limit:     50,
	}

	if v := c.Query("min_score"); v != "" {
		minScore, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid min_score"})
			return
		}
		filters.MinScore = &minScore
	}
	if v := c.Query("target_id"); v != "" {
		targetID, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target_id"})
			return
		}
		filters.TargetID = &targetID
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit, want 1-500"})
			return
		}
		filters.Limit = limit
	}
	if v := c.Query("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset"})
			return
		}
		filters.Offset = offset
	}

	opportunities, err := h.opportunities.List(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"opportunities": opportunities,
		"count":         len(opportunities),
	})
}

// GetByID returns one opportunity with its full factor breakdown.
func (h *OpportunityHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid opportunity ID"})
		return
	}

	opportunity, err := h.opportunities.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, opportunity)
}
