package handlers

import (
	"net/http"

	"insight-explorer/internal/services"
	"insight-explorer/internal/utils"

	"github.com/gin-gonic/gin"
)

type HistoryHandler struct {
	historyService services.HistoryServiceInterface
}

func NewHistoryHandler(historyService services.HistoryServiceInterface) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

// Popular lists the most viewed content
func (h *HistoryHandler) Popular(c *gin.Context) {
	limit := utils.GetQueryParamInt(c.Request, "limit", services.DefaultPopularLimit)
	days := utils.GetQueryParamInt(c.Request, "days", services.DefaultPopularDays)

	items, err := h.historyService.Popular(c.Request.Context(), limit, days)
	if err != nil {
		respondError(c, err, "popular_history")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  items,
		"count": len(items),
	})
}

// Recent lists the most recently analyzed content
func (h *HistoryHandler) Recent(c *gin.Context) {
	limit := utils.GetQueryParamInt(c.Request, "limit", services.DefaultRecentLimit)

	items, err := h.historyService.Recent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err, "recent_history")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  items,
		"count": len(items),
	})
}
