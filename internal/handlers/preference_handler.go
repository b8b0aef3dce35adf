package handlers

import (
	"net/http"

	"insight-explorer/internal/services"

	"github.com/gin-gonic/gin"
)

type PreferenceHandler struct {
	preferenceService services.PreferenceServiceInterface
}

func NewPreferenceHandler(preferenceService services.PreferenceServiceInterface) *PreferenceHandler {
	return &PreferenceHandler{preferenceService: preferenceService}
}

// GetPreferences returns the caller's skip-confirmation preference
func (h *PreferenceHandler) GetPreferences(c *gin.Context) {
	pref, err := h.preferenceService.GetPreference(c.Request.Context(), getClientID(c))
	if err != nil {
		respondError(c, err, "get_preferences")
		return
	}

	c.JSON(http.StatusOK, pref)
}

// UpdatePreferences stores the caller's skip-confirmation preference
func (h *PreferenceHandler) UpdatePreferences(c *gin.Context) {
	var req services.PreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "skipConfirmation must be a boolean", getCorrelationID(c))
		return
	}

	pref, err := h.preferenceService.SetSkipConfirmation(c.Request.Context(), getClientID(c), *req.SkipConfirmation)
	if err != nil {
		respondError(c, err, "update_preferences")
		return
	}

	c.JSON(http.StatusOK, pref)
}
