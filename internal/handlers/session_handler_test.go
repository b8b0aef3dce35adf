package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"insight-explorer/internal/clients"
	"insight-explorer/internal/middleware"
	"insight-explorer/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSessionID = "3f2b8c1e-5d4a-4e2b-9c1a-7b6d5e4f3a21"

func init() {
	gin.SetMode(gin.TestMode)
}

func setupSessionRouter(controller WorkflowController) *gin.Engine {
	handler := NewSessionHandler(controller)
	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.POST("/api/sessions", handler.CreateSession)
	router.GET("/api/sessions/:id", handler.GetSession)
	router.POST("/api/sessions/:id/analyze", handler.Analyze)
	router.POST("/api/sessions/:id/search", handler.Search)
	router.POST("/api/sessions/:id/confirm", handler.Confirm)
	return router
}

func performRequest(router *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

type errorEnvelope struct {
	Error struct {
		Code          string `json:"code"`
		Message       string `json:"message"`
		CorrelationID string `json:"correlation_id"`
	} `json:"error"`
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var envelope errorEnvelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope
}

func TestSessionHandler_CreateSession(t *testing.T) {
	controller := new(MockWorkflowController)
	controller.On("CreateSession", mock.Anything, "client-9", "https://example.com/a", "article").
		Return(&workflow.Snapshot{ID: testSessionID, State: "idle"}, nil).Once()
	router := setupSessionRouter(controller)

	recorder := performRequest(router, http.MethodPost, "/api/sessions",
		`{"url":"https://example.com/a","inputType":"article"}`,
		map[string]string{"X-Client-ID": "client-9"})

	assert.Equal(t, http.StatusCreated, recorder.Code)
	var snap workflow.Snapshot
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &snap))
	assert.Equal(t, testSessionID, snap.ID)
	controller.AssertExpectations(t)
}

func TestSessionHandler_CreateSession_AnonymousClient(t *testing.T) {
	controller := new(MockWorkflowController)
	controller.On("CreateSession", mock.Anything, "anonymous", "https://example.com/a", "").
		Return(&workflow.Snapshot{ID: testSessionID}, nil).Once()
	router := setupSessionRouter(controller)

	recorder := performRequest(router, http.MethodPost, "/api/sessions", `{"url":"https://example.com/a"}`, nil)

	assert.Equal(t, http.StatusCreated, recorder.Code)
	controller.AssertExpectations(t)
}

func TestSessionHandler_CreateSession_InvalidBody(t *testing.T) {
	controller := new(MockWorkflowController)
	router := setupSessionRouter(controller)

	recorder := performRequest(router, http.MethodPost, "/api/sessions", `{not json`,
		map[string]string{"X-Correlation-ID": "corr-1"})

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	envelope := decodeError(t, recorder)
	assert.Equal(t, "INVALID_REQUEST", envelope.Error.Code)
	assert.Equal(t, "corr-1", envelope.Error.CorrelationID)
	controller.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
		expectedMsg    string
	}{
		{
			name:           "validation",
			err:            workflow.ErrNoClaimSelected,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "busy",
			err:            workflow.ErrActionInProgress,
			expectedStatus: http.StatusConflict,
			expectedCode:   "ACTION_IN_PROGRESS",
		},
		{
			name:           "superseded",
			err:            workflow.ErrSuperseded,
			expectedStatus: http.StatusConflict,
			expectedCode:   "SUPERSEDED",
		},
		{
			name:           "invalid transition",
			err:            &workflow.TransitionError{From: workflow.StateSearching, Event: workflow.EventConfirm},
			expectedStatus: http.StatusConflict,
			expectedCode:   "INVALID_STATE",
		},
		{
			name:           "unknown session",
			err:            workflow.ErrSessionNotFound,
			expectedStatus: http.StatusNotFound,
			expectedCode:   "SESSION_NOT_FOUND",
		},
		{
			name:           "search failed",
			err:            &workflow.SearchFailed{Message: "search backend unavailable", Cause: errors.New("boom")},
			expectedStatus: http.StatusBadGateway,
			expectedCode:   "SEARCH_FAILED",
			expectedMsg:    "search backend unavailable",
		},
		{
			name:           "search timed out",
			err:            &workflow.SearchFailed{Message: "The request timed out.", Cause: clients.NewTimeoutError("find sources", context.DeadlineExceeded)},
			expectedStatus: http.StatusGatewayTimeout,
			expectedCode:   "UPSTREAM_TIMEOUT",
			expectedMsg:    "The request timed out.",
		},
		{
			name:           "upstream unreachable",
			err:            clients.NewTransportError("find sources", errors.New("connection refused")),
			expectedStatus: http.StatusBadGateway,
			expectedCode:   "UPSTREAM_UNAVAILABLE",
		},
		{
			name:           "upstream service error",
			err:            clients.NewServiceError("find sources", 500, "quota exceeded", nil),
			expectedStatus: http.StatusBadGateway,
			expectedCode:   "UPSTREAM_ERROR",
			expectedMsg:    "quota exceeded",
		},
		{
			name:           "unexpected",
			err:            errors.New("nil map"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "INTERNAL_ERROR",
			expectedMsg:    internalErrorMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			controller := new(MockWorkflowController)
			controller.On("Run", mock.Anything, "anonymous", testSessionID, workflow.Selection{SelectedClaims: []int{0}}).
				Return(nil, tt.err).Once()
			router := setupSessionRouter(controller)

			recorder := performRequest(router, http.MethodPost, "/api/sessions/"+testSessionID+"/search",
				`{"selectedClaims":[0]}`, nil)

			assert.Equal(t, tt.expectedStatus, recorder.Code)
			envelope := decodeError(t, recorder)
			assert.Equal(t, tt.expectedCode, envelope.Error.Code)
			assert.NotEmpty(t, envelope.Error.CorrelationID)
			if tt.expectedMsg != "" {
				assert.Equal(t, tt.expectedMsg, envelope.Error.Message)
			}
		})
	}
}

func TestSessionHandler_Search(t *testing.T) {
	controller := new(MockWorkflowController)
	sel := workflow.Selection{SelectedClaims: []int{0, 2}, CustomClaim: "Is this true in Japan?"}
	controller.On("Run", mock.Anything, "anonymous", testSessionID, sel).
		Return(&workflow.Snapshot{ID: testSessionID, State: "pending_confirmation", Pending: &workflow.PendingView{OriginalText: sel.CustomClaim}}, nil).Once()
	router := setupSessionRouter(controller)

	recorder := performRequest(router, http.MethodPost, "/api/sessions/"+testSessionID+"/search",
		`{"selectedClaims":[0,2],"customClaim":"Is this true in Japan?"}`, nil)

	assert.Equal(t, http.StatusOK, recorder.Code)
	var snap workflow.Snapshot
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &snap))
	assert.Equal(t, "pending_confirmation", snap.State)
	require.NotNil(t, snap.Pending)
	assert.Equal(t, "Is this true in Japan?", snap.Pending.OriginalText)
}

func TestSessionHandler_Confirm(t *testing.T) {
	controller := new(MockWorkflowController)
	controller.On("Confirm", mock.Anything, "anonymous", testSessionID).Return(nil, workflow.ErrNothingPending).Once()
	router := setupSessionRouter(controller)

	recorder := performRequest(router, http.MethodPost, "/api/sessions/"+testSessionID+"/confirm", "", nil)

	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Equal(t, "NOTHING_PENDING", decodeError(t, recorder).Error.Code)
}

func TestSessionHandler_GetAndAnalyze(t *testing.T) {
	controller := new(MockWorkflowController)
	controller.On("Get", "client-7", testSessionID).Return(&workflow.Snapshot{ID: testSessionID, State: "completed"}, nil).Once()
	controller.On("Analyze", mock.Anything, "client-7", testSessionID, "https://youtu.be/x", "youtube").
		Return(&workflow.Snapshot{ID: testSessionID, State: "idle"}, nil).Once()
	router := setupSessionRouter(controller)

	clientHeader := map[string]string{"X-Client-ID": "client-7"}
	recorder := performRequest(router, http.MethodGet, "/api/sessions/"+testSessionID, "", clientHeader)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"state":"completed"`)

	recorder = performRequest(router, http.MethodPost, "/api/sessions/"+testSessionID+"/analyze",
		`{"url":"https://youtu.be/x","inputType":"youtube"}`, clientHeader)
	assert.Equal(t, http.StatusOK, recorder.Code)
	controller.AssertExpectations(t)
}

func TestSessionHandler_InvalidSessionID(t *testing.T) {
	controller := new(MockWorkflowController)
	router := setupSessionRouter(controller)

	recorder := performRequest(router, http.MethodGet, "/api/sessions/not-a-uuid", "", nil)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "INVALID_SESSION_ID", decodeError(t, recorder).Error.Code)
	controller.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}
