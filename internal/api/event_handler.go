package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/constructiq/safety-lead-pipeline/internal/models"
	"github.com/constructiq/safety-lead-pipeline/internal/repository"
	"github.com/constructiq/safety-lead-pipeline/internal/services"
)

// EventHandler handles event ingestion and history queries.
type EventHandler struct {
	ingestion *services.IngestionService
	events    repository.EventRepository
}

// NewEventHandler creates a new event handler.
func NewEventHandler(ingestion *services.IngestionService, events repository.EventRepository) *EventHandler {
	return &EventHandler{ingestion: ingestion, events: events}
}

// IngestEventRequest is a source adapter's normalized event submission.
type IngestEventRequest struct {
	Source         string         `json:"source"`
	EventType      string         `json:"event_type" binding:"required"`
	RawCompanyName string         `json:"raw_company_name" binding:"required"`
	OccurredOn     string         `json:"occurred_on" binding:"required"`
	SeverityScore  float64        `json:"severity_score"`
	Payload        models.Payload `json:"payload"`
	Link           string         `json:"link"`
}

// Ingest accepts a normalized event, resolves its company and stores it.
func (h *EventHandler) Ingest(c *gin.Context) {
	var req IngestEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	occurredOn, err := time.Parse("2006-01-02", req.OccurredOn)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid occurred_on date, want YYYY-MM-DD"})
		return
	}

	event := &models.Event{
		Source:         req.Source,
		Type:           models.EventType(req.EventType),
		RawCompanyName: req.RawCompanyName,
		OccurredOn:     occurredOn,
		SeverityScore:  req.SeverityScore,
		Payload:        req.Payload,
		Link:           req.Link,
	}
	resolution, err := h.ingestion.Ingest(c.Request.Context(), event)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"event":      event,
		"resolution": resolution,
	})
}

// ListForCompany returns a company's most recent events.
func (h *EventHandler) ListForCompany(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid company ID"})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 1 || limit > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit, want 1-500"})
			return
		}
	}

	events, err := h.events.ListForCompany(c.Request.Context(), companyID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}
