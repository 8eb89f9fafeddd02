package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"barberhub/internal/engine"
	"barberhub/internal/lifecycle"
	"barberhub/internal/models"
)

type AlertHandler interface {
	CreateAlert(c *gin.Context)
	ListAlerts(c *gin.Context)
	AcknowledgeAlert(c *gin.Context)
	DismissAlert(c *gin.Context)
	ResolveAlert(c *gin.Context)
	SnoozeAlert(c *gin.Context)
	GetHistory(c *gin.Context)
	GetHealth(c *gin.Context)
}

type alertHandler struct {
	engine *engine.Engine
	logger *zap.Logger
}

func NewAlertHandler(eng *engine.Engine, logger *zap.Logger) AlertHandler {
	return &alertHandler{engine: eng, logger: logger}
}

// CreateAlertRequest is the POST /api/alerts payload. The tenant comes
// from the token, never the body.
type CreateAlertRequest struct {
	Title      string                 `json:"title" binding:"required"`
	Message    string                 `json:"message"`
	Category   string                 `json:"category" binding:"required"`
	SourceData map[string]interface{} `json:"source_data"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// CreateAlert handles POST /api/alerts
func (h *alertHandler) CreateAlert(c *gin.Context) {
	tenantID := c.MustGet("tenant_id").(string)

	var req CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alert, err := h.engine.CreateAlert(c.Request.Context(), engine.CreateRequest{
		TenantID:   tenantID,
		Title:      req.Title,
		Message:    req.Message,
		Category:   models.AlertCategory(req.Category),
		SourceData: req.SourceData,
		Metadata:   req.Metadata,
	})
	if err != nil {
		if errors.Is(err, engine.ErrInvalidCategory) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to create alert", zap.String("tenant_id", tenantID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create alert"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"alert": alert})
}

// ListAlerts handles GET /api/alerts
// Query parameters:
// - priority: minimum priority filter (optional)
// - category: category filter (optional)
// - limit: page size (optional)
func (h *alertHandler) ListAlerts(c *gin.Context) {
	tenantID := c.MustGet("tenant_id").(string)
	userID := c.MustGet("user_id").(string)

	opts := engine.ListOptions{
		Priority: models.AlertPriority(c.Query("priority")),
		Category: models.AlertCategory(c.Query("category")),
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		opts.Limit = limit
	}

	alerts, err := h.engine.ListActive(c.Request.Context(), tenantID, userID, opts)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidPriorityFilter) || errors.Is(err, engine.ErrInvalidCategory) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to list alerts", zap.String("tenant_id", tenantID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve alerts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// AcknowledgeRequest is the acknowledge/resolve payload.
type AcknowledgeRequest struct {
	Notes string `json:"notes"`
}

// DismissRequest is the dismiss payload.
type DismissRequest struct {
	Feedback string `json:"feedback"`
	Reason   string `json:"reason"`
}

// SnoozeRequest is the snooze payload.
type SnoozeRequest struct {
	Minutes int `json:"minutes" binding:"required,min=1"`
}

// AcknowledgeAlert handles POST /api/alerts/:id/acknowledge
func (h *alertHandler) AcknowledgeAlert(c *gin.Context) {
	h.transition(c, func(tenantID string, alertID int64, userID string) (*lifecycle.Result, error) {
		var req AcknowledgeRequest
		_ = c.ShouldBindJSON(&req)
		return h.engine.Lifecycle().Acknowledge(c.Request.Context(), tenantID, alertID, userID, req.Notes)
	})
}

// DismissAlert handles POST /api/alerts/:id/dismiss
func (h *alertHandler) DismissAlert(c *gin.Context) {
	h.transition(c, func(tenantID string, alertID int64, userID string) (*lifecycle.Result, error) {
		var req DismissRequest
		_ = c.ShouldBindJSON(&req)
		return h.engine.Lifecycle().Dismiss(c.Request.Context(), tenantID, alertID, userID, req.Feedback, req.Reason)
	})
}

// ResolveAlert handles POST /api/alerts/:id/resolve
func (h *alertHandler) ResolveAlert(c *gin.Context) {
	h.transition(c, func(tenantID string, alertID int64, userID string) (*lifecycle.Result, error) {
		var req AcknowledgeRequest
		_ = c.ShouldBindJSON(&req)
		return h.engine.Lifecycle().Resolve(c.Request.Context(), tenantID, alertID, userID, req.Notes)
	})
}

// SnoozeAlert handles POST /api/alerts/:id/snooze
func (h *alertHandler) SnoozeAlert(c *gin.Context) {
	var req SnoozeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	until := time.Now().Add(time.Duration(req.Minutes) * time.Minute)

	h.transition(c, func(tenantID string, alertID int64, userID string) (*lifecycle.Result, error) {
		return h.engine.Lifecycle().Snooze(c.Request.Context(), tenantID, alertID, userID, until)
	})
}

func (h *alertHandler) transition(c *gin.Context, op func(tenantID string, alertID int64, userID string) (*lifecycle.Result, error)) {
	tenantID := c.MustGet("tenant_id").(string)
	userID := c.MustGet("user_id").(string)

	idStr := c.Param("id")
	alertID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid alert ID"})
		return
	}

	result, err := op(tenantID, alertID, userID)
	if err != nil {
		if errors.Is(err, lifecycle.ErrAlertNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
			return
		}
		h.logger.Error("Alert transition failed",
			zap.Int64("alert_id", alertID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update alert"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"alert": result.Alert, "changed": result.Changed})
}

// GetHistory handles GET /api/alerts/history
// Query parameters:
// - days: window size in days (default 7)
// - limit: maximum alerts returned (default 100)
func (h *alertHandler) GetHistory(c *gin.Context) {
	tenantID := c.MustGet("tenant_id").(string)
	userID := c.MustGet("user_id").(string)

	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	report, err := h.engine.History(c.Request.Context(), tenantID, userID, days, limit)
	if err != nil {
		h.logger.Error("Failed to build alert history", zap.String("tenant_id", tenantID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve history"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetHealth handles GET /api/health
func (h *alertHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Health())
}
