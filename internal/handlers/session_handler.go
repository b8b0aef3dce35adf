package handlers

import (
	"context"
	"net/http"

	"insight-explorer/internal/logger"
	"insight-explorer/internal/utils"
	"insight-explorer/internal/workflow"

	"github.com/gin-gonic/gin"
)

// WorkflowController is the workflow surface the session routes drive
type WorkflowController interface {
	CreateSession(ctx context.Context, clientID, locator, inputType string) (*workflow.Snapshot, error)
	Get(clientID, sessionID string) (*workflow.Snapshot, error)
	Analyze(ctx context.Context, clientID, sessionID, locator, inputType string) (*workflow.Snapshot, error)
	Run(ctx context.Context, clientID, sessionID string, sel workflow.Selection) (*workflow.Snapshot, error)
	Confirm(ctx context.Context, clientID, sessionID string) (*workflow.Snapshot, error)
}

type SessionHandler struct {
	controller WorkflowController
}

func NewSessionHandler(controller WorkflowController) *SessionHandler {
	return &SessionHandler{controller: controller}
}

// AnalyzeRequest names the content to extract claims from
type AnalyzeRequest struct {
	URL       string `json:"url"`
	InputType string `json:"inputType"`
}

// CreateSession opens a session and extracts claims from the given content
func (h *SessionHandler) CreateSession(c *gin.Context) {
	correlationID := getCorrelationID(c)

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Request body must be JSON with url and inputType", correlationID)
		return
	}

	clientID := getClientID(c)
	logger.WithCorrelationID(correlationID).WithFields(map[string]interface{}{
		"client_id":  clientID,
		"url":        req.URL,
		"input_type": req.InputType,
	}).Info("Session requested")

	snap, err := h.controller.CreateSession(c.Request.Context(), clientID, req.URL, req.InputType)
	if err != nil {
		respondError(c, err, "create_session")
		return
	}

	c.JSON(http.StatusCreated, snap)
}

// GetSession returns the current state of a session
func (h *SessionHandler) GetSession(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	snap, err := h.controller.Get(getClientID(c), sessionID)
	if err != nil {
		respondError(c, err, "get_session")
		return
	}

	c.JSON(http.StatusOK, snap)
}

// Analyze replaces the session's content with a fresh extraction
func (h *SessionHandler) Analyze(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Request body must be JSON with url and inputType", getCorrelationID(c))
		return
	}

	snap, err := h.controller.Analyze(c.Request.Context(), getClientID(c), sessionID, req.URL, req.InputType)
	if err != nil {
		respondError(c, err, "analyze")
		return
	}

	c.JSON(http.StatusOK, snap)
}

// Search runs the workflow for the selected and typed claims
func (h *SessionHandler) Search(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	var sel workflow.Selection
	if err := c.ShouldBindJSON(&sel); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Request body must be JSON with selectedClaims and customClaim", getCorrelationID(c))
		return
	}

	snap, err := h.controller.Run(c.Request.Context(), getClientID(c), sessionID, sel)
	if err != nil {
		respondError(c, err, "search")
		return
	}

	c.JSON(http.StatusOK, snap)
}

// Confirm approves the pending optimized query
func (h *SessionHandler) Confirm(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	snap, err := h.controller.Confirm(c.Request.Context(), getClientID(c), sessionID)
	if err != nil {
		respondError(c, err, "confirm")
		return
	}

	c.JSON(http.StatusOK, snap)
}

// sessionIDParam reads and validates the :id path parameter
func sessionIDParam(c *gin.Context) (string, bool) {
	id, err := utils.ValidateAndParseUUID(c.Param("id"), "session ID")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_SESSION_ID", err.Error(), getCorrelationID(c))
		return "", false
	}
	return id.String(), true
}
