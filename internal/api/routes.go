// Package api exposes the pipeline over HTTP.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/constructiq/safety-lead-pipeline/internal/apperrors"
	"github.com/constructiq/safety-lead-pipeline/internal/database"
	"github.com/constructiq/safety-lead-pipeline/internal/services"
	"github.com/constructiq/safety-lead-pipeline/pkg/config"
)

// SetupRoutes configures all API routes.
func SetupRoutes(r *gin.Engine, db *database.DB, cfg *config.Config, scoringCfg *config.ScoringConfig, log *zap.Logger) error {
	svcs, err := services.NewServices(db.DB, scoringCfg, log)
	if err != nil {
		return err
	}

	rebuildHandler := NewRebuildHandler(svcs.Pipeline)
	opportunityHandler := NewOpportunityHandler(svcs.Repos.Opportunities)
	eventHandler := NewEventHandler(svcs.Ingestion, svcs.Repos.Events)
	mappingHandler := NewMappingHandler(svcs.Import)
	healthHandler := NewHealthHandler(db, svcs.Repos.Opportunities)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/rebuild", rebuildHandler.Rebuild)

		v1.GET("/opportunities", opportunityHandler.List)
		v1.GET("/opportunities/:id", opportunityHandler.GetByID)

		v1.POST("/events", eventHandler.Ingest)
		v1.GET("/companies/:id/events", eventHandler.ListForCompany)

		v1.POST("/mappings/relationships", mappingHandler.ImportRelationships)
		v1.POST("/mappings/aliases", mappingHandler.ImportAliases)
	}

	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(svcs.Metrics.Registry(), promhttp.HandlerOpts{})))
	return nil
}

// respondError maps application errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrRebuildBusy):
		status = http.StatusConflict
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidName), errors.Is(err, apperrors.ErrConfig):
		status = http.StatusBadRequest
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(status, gin.H{"error": appErr.Message, "code": appErr.Code})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
