package api

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/constructiq/safety-lead-pipeline/internal/services"
)

// MappingHandler handles curated CSV uploads of relationships and aliases.
type MappingHandler struct {
	importer *services.ImportService
}

// NewMappingHandler creates a new mapping handler.
func NewMappingHandler(importer *services.ImportService) *MappingHandler {
	return &MappingHandler{importer: importer}
}

// ImportRelationships accepts a relationship CSV upload.
func (h *MappingHandler) ImportRelationships(c *gin.Context) {
	h.importCSV(c, h.importer.ImportRelationships)
}

// ImportAliases accepts an alias CSV upload.
func (h *MappingHandler) ImportAliases(c *gin.Context) {
	h.importCSV(c, h.importer.ImportAliases)
}

func (h *MappingHandler) importCSV(c *gin.Context, importFn func(context.Context, io.Reader) (*services.ImportSummary, error)) {
	file, header, err := c.Request.FormFile("csv_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No CSV file provided"})
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File must be a CSV"})
		return
	}

	summary, err := importFn(c.Request.Context(), file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
