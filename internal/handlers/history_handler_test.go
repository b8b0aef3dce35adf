package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"insight-explorer/internal/clients"
	"insight-explorer/internal/models"
	"insight-explorer/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupHistoryRouter(service services.HistoryServiceInterface) *gin.Engine {
	handler := NewHistoryHandler(service)
	router := gin.New()
	router.GET("/api/history/popular", handler.Popular)
	router.GET("/api/history/recent", handler.Recent)
	return router
}

func TestHistoryHandler_Popular(t *testing.T) {
	service := new(MockHistoryService)
	service.On("Popular", mock.Anything, 5, 30).Return([]models.HistoryItem{
		{URL: "https://example.com/a", InputType: "article", Title: "A", ViewCount: 4},
	}, nil).Once()
	router := setupHistoryRouter(service)

	recorder := performRequest(router, http.MethodGet, "/api/history/popular?limit=5&days=30", "", nil)

	assert.Equal(t, http.StatusOK, recorder.Code)
	var body struct {
		Data  []models.HistoryItem `json:"data"`
		Count int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "A", body.Data[0].Title)
}

func TestHistoryHandler_PopularDefaults(t *testing.T) {
	service := new(MockHistoryService)
	service.On("Popular", mock.Anything, services.DefaultPopularLimit, services.DefaultPopularDays).
		Return([]models.HistoryItem{}, nil).Once()
	router := setupHistoryRouter(service)

	recorder := performRequest(router, http.MethodGet, "/api/history/popular?limit=abc", "", nil)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"data":[],"count":0}`, recorder.Body.String())
	service.AssertExpectations(t)
}

func TestHistoryHandler_RecentUpstreamError(t *testing.T) {
	service := new(MockHistoryService)
	service.On("Recent", mock.Anything, services.DefaultRecentLimit).
		Return(nil, clients.NewServiceError("recent history", 503, "history store offline", nil)).Once()
	router := setupHistoryRouter(service)

	recorder := performRequest(router, http.MethodGet, "/api/history/recent", "", nil)

	assert.Equal(t, http.StatusBadGateway, recorder.Code)
	envelope := decodeError(t, recorder)
	assert.Equal(t, "UPSTREAM_ERROR", envelope.Error.Code)
	assert.Equal(t, "history store offline", envelope.Error.Message)
}
