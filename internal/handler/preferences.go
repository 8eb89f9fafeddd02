package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"barberhub/internal/engine"
	"barberhub/internal/models"
)

type PreferencesHandler interface {
	GetPreferences(c *gin.Context)
	UpdatePreferences(c *gin.Context)
}

type preferencesHandler struct {
	engine *engine.Engine
	logger *zap.Logger
}

func NewPreferencesHandler(eng *engine.Engine, logger *zap.Logger) PreferencesHandler {
	return &preferencesHandler{engine: eng, logger: logger}
}

// GetPreferences handles GET /api/preferences
func (h *preferencesHandler) GetPreferences(c *gin.Context) {
	tenantID := c.MustGet("tenant_id").(string)
	userID := c.MustGet("user_id").(string)

	prefs, err := h.engine.GetPreferences(c.Request.Context(), tenantID, userID)
	if err != nil {
		h.logger.Error("Failed to load preferences", zap.String("tenant_id", tenantID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve preferences"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"preferences": prefs})
}

// UpdatePreferences handles PUT /api/preferences. The full preference
// object is required; there is no partial merge.
func (h *preferencesHandler) UpdatePreferences(c *gin.Context) {
	tenantID := c.MustGet("tenant_id").(string)
	userID := c.MustGet("user_id").(string)

	var prefs models.UserAlertPreferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	prefs.TenantID = tenantID
	prefs.UserID = userID

	stored, err := h.engine.UpdatePreferences(c.Request.Context(), &prefs)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidPriorityFilter) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to store preferences", zap.String("tenant_id", tenantID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update preferences"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"preferences": stored})
}
