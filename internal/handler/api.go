package handler

import (
	"encoding/csv"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/models"
	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/service"
)

// Handler handles HTTP requests
type Handler struct {
	labeler        *service.Labeler
	imagesDir      string
	guidelinesPath string
	logger         *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(labeler *service.Labeler, imagesDir, guidelinesPath string, logger *zap.Logger) *Handler {
	return &Handler{
		labeler:        labeler,
		imagesDir:      imagesDir,
		guidelinesPath: guidelinesPath,
		logger:         logger,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		// Session lifecycle and annotation actions
		api.POST("/sessions", h.StartSession)
		api.GET("/sessions/:id", h.CurrentItem)
		api.POST("/sessions/:id/annotate", h.Annotate)
		api.POST("/sessions/:id/previous", h.Previous)
		api.POST("/sessions/:id/flush", h.Flush)
		api.PUT("/sessions/:id/annotations/:item_id", h.UpdateAnnotation)
		api.GET("/sessions/:id/progress", h.Progress)

		// Static assets for the annotation UI
		api.GET("/guidelines", h.Guidelines)
		api.GET("/images/:image_id", h.Image)

		// Export
		api.GET("/export/json", h.ExportJSON)
		api.GET("/export/csv", h.ExportCSV)
	}

	// Health check
	r.GET("/health", h.HealthCheck)
}

type startSessionRequest struct {
	AnnotatorID string `json:"annotator_id" binding:"required"`
}

// StartSession opens a session for an annotator and returns the first
// render payload.
func (h *Handler) StartSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.labeler.StartSession(c.Request.Context(), req.AnnotatorID)
	if err != nil {
		h.logger.Error("Failed to start session",
			zap.String("annotator_id", req.AnnotatorID), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, view)
}

// CurrentItem returns the render payload for the session cursor.
func (h *Handler) CurrentItem(c *gin.Context) {
	view, err := h.labeler.Current(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

// Annotate buffers a label for the current item and advances ("Next").
func (h *Handler) Annotate(c *gin.Context) {
	var label models.Label
	if err := c.ShouldBindJSON(&label); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.labeler.Annotate(c.Param("id"), label)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

// Previous steps back one item.
func (h *Handler) Previous(c *gin.Context) {
	view, err := h.labeler.Previous(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

// Flush persists all buffered drafts ("Save Progress" / "Submit All").
// On failure the buffer stays intact and the client may retry the same
// request.
func (h *Handler) Flush(c *gin.Context) {
	n, view, err := h.labeler.Flush(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("Flush failed", zap.String("session_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save annotations, please retry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"flushed": n,
		"view":    view,
	})
}

// UpdateAnnotation replaces an already-persisted record for one item.
func (h *Handler) UpdateAnnotation(c *gin.Context) {
	var label models.Label
	if err := c.ShouldBindJSON(&label); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.labeler.Update(c.Request.Context(), c.Param("id"), c.Param("item_id"), label)
	if err != nil {
		h.logger.Error("Failed to update annotation",
			zap.String("item_id", c.Param("item_id")), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

// Progress returns the session counters.
func (h *Handler) Progress(c *gin.Context) {
	progress, err := h.labeler.Progress(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, progress)
}

// Guidelines serves the annotation guidelines markdown.
func (h *Handler) Guidelines(c *gin.Context) {
	data, err := os.ReadFile(h.guidelinesPath)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "guidelines not found"})
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", data)
}

// Image serves an image asset by id.
func (h *Handler) Image(c *gin.Context) {
	// Base strips any path traversal from the id.
	name := filepath.Base(c.Param("image_id"))
	path := filepath.Join(h.imagesDir, name)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		return
	}
	c.File(path)
}

// ExportJSON exports an annotator's persisted records as JSON.
func (h *Handler) ExportJSON(c *gin.Context) {
	annotatorID := c.Query("annotator_id")

	annotations, err := h.labeler.Records(c.Request.Context(), annotatorID)
	if err != nil {
		h.logger.Error("Failed to export JSON", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+annotatorID+"_annotations.json")
	c.JSON(http.StatusOK, gin.H{
		"annotations": annotations,
		"total":       len(annotations),
	})
}

// ExportCSV exports an annotator's persisted records as CSV.
func (h *Handler) ExportCSV(c *gin.Context) {
	annotatorID := c.Query("annotator_id")

	annotations, err := h.labeler.Records(c.Request.Context(), annotatorID)
	if err != nil {
		h.logger.Error("Failed to export CSV", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename="+annotatorID+"_annotations.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	// Write header
	writer.Write([]string{"annotator_id", "item_id", "timestamp", "text", "image_id", "claim_status", "checkworthiness", "topic"})

	// Write data
	for _, ann := range annotations {
		cw := ""
		if ann.Label.Checkworthiness != nil {
			cw = string(*ann.Label.Checkworthiness)
		}
		topic := ""
		if ann.Label.Topic != nil {
			topic = string(*ann.Label.Topic)
		}
		writer.Write([]string{
			ann.AnnotatorID,
			ann.ItemID,
			ann.Timestamp,
			ann.Text,
			ann.ImageID,
			string(ann.Label.ClaimStatus),
			cw,
			topic,
		})
	}
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "claim-annotation",
		"version": "1.0.0",
	})
}
