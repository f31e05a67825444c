package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yukikurage/taskboard-api/internal/services"
)

type ReportHandler struct {
	reportService *services.ReportService
	log           *zap.Logger
}

func NewReportHandler(reportService *services.ReportService, log *zap.Logger) *ReportHandler {
	return &ReportHandler{reportService: reportService, log: log}
}

// Weekly returns per-weekday counts for the trailing week
func (h *ReportHandler) Weekly(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	days, err := h.reportService.Weekly(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, days)
}

// Monthly returns per-month counts for the trailing six months
func (h *ReportHandler) Monthly(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	months, err := h.reportService.Monthly(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, months)
}

func (h *ReportHandler) Overall(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	overall, err := h.reportService.Overall(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, overall)
}

func (h *ReportHandler) ByCategory(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	categories, err := h.reportService.ByCategory(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *ReportHandler) PerUser(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}

	progress, err := h.reportService.PerUser(c.Request.Context(), actor, userID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}
