package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"insight-explorer/internal/config"
	"insight-explorer/internal/logger"
	"insight-explorer/internal/models"

	"github.com/sirupsen/logrus"
)

const (
	analyzePath       = "/api/analyze"
	optimizeQueryPath = "/api/optimize-query"
	findSourcesPath   = "/api/find-sources"
	popularPath       = "/api/history/popular"
	recentPath        = "/api/history/recent"

	unreadableResponseMessage = "could not process response data"
)

// AnalysisClientInterface defines the interface for the external analysis service
type AnalysisClientInterface interface {
	Analyze(ctx context.Context, locator, inputType string) (*models.Analysis, error)
	OptimizeQuery(ctx context.Context, req OptimizeRequest) (json.RawMessage, error)
	FindSources(ctx context.Context, locator, inputType string, claims []models.ClaimDescriptor) (*SourcesResponse, error)
	Popular(ctx context.Context, limit, days int) ([]models.HistoryItem, error)
	Recent(ctx context.Context, limit int) ([]models.HistoryItem, error)
}

// AnalysisClient handles communication with the analysis service
type AnalysisClient struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *logrus.Logger
}

// OptimizeRequest represents a request to the query optimizer
type OptimizeRequest struct {
	UserInput string                 `json:"userInput"`
	Context   models.AnalysisContext `json:"context"`
}

// SourcesResponse is the result of a source search
type SourcesResponse struct {
	Result   models.SearchResult `json:"result"`
	Articles []models.Article    `json:"articles"`
}

type analyzeRequest struct {
	URL       string `json:"url"`
	InputType string `json:"inputType"`
}

type analyzeResponse struct {
	Analysis *models.Analysis `json:"analysis"`
	Cached   bool             `json:"cached"`
}

type findSourcesRequest struct {
	URL        string                   `json:"url"`
	InputType  string                   `json:"inputType"`
	ClaimsData []models.ClaimDescriptor `json:"claims_data"`
}

type historyResponse struct {
	Success bool                 `json:"success"`
	Data    []models.HistoryItem `json:"data"`
	Count   int                  `json:"count"`
}

// envelope carries the fields common to every service response
type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewAnalysisClient creates a new analysis service client
func NewAnalysisClient(cfg *config.Config) *AnalysisClient {
	return &AnalysisClient{
		baseURL:    cfg.AnalysisAPIBaseURL,
		timeout:    cfg.APITimeout,
		httpClient: &http.Client{},
		logger:     logger.Log,
	}
}

// Analyze extracts claims from the content behind a locator
func (c *AnalysisClient) Analyze(ctx context.Context, locator, inputType string) (*models.Analysis, error) {
	body, err := c.do(ctx, "analyze", http.MethodPost, analyzePath, analyzeRequest{URL: locator, InputType: inputType}, "analysis failed")
	if err != nil {
		return nil, err
	}

	var resp analyzeResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Analysis == nil {
		return nil, NewServiceError("analyze", http.StatusOK, unreadableResponseMessage, err)
	}
	resp.Analysis.Cached = resp.Cached

	return resp.Analysis, nil
}

// OptimizeQuery asks the optimizer to turn free text into a search query. The
// raw body is returned because the payload shape has varied over time.
func (c *AnalysisClient) OptimizeQuery(ctx context.Context, req OptimizeRequest) (json.RawMessage, error) {
	body, err := c.do(ctx, "optimize query", http.MethodPost, optimizeQueryPath, req, "query optimization failed")
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// FindSources searches cross-country sources for the given claims
func (c *AnalysisClient) FindSources(ctx context.Context, locator, inputType string, claims []models.ClaimDescriptor) (*SourcesResponse, error) {
	request := findSourcesRequest{
		URL:        locator,
		InputType:  inputType,
		ClaimsData: claims,
	}

	body, err := c.do(ctx, "find sources", http.MethodPost, findSourcesPath, request, "source search failed")
	if err != nil {
		return nil, err
	}

	var resp SourcesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, NewServiceError("find sources", http.StatusOK, unreadableResponseMessage, err)
	}

	return &resp, nil
}

// Popular lists the most viewed content over the last days
func (c *AnalysisClient) Popular(ctx context.Context, limit, days int) ([]models.HistoryItem, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("days", strconv.Itoa(days))

	return c.history(ctx, "popular history", popularPath+"?"+query.Encode(), "failed to load popular content")
}

// Recent lists the most recently analyzed content
func (c *AnalysisClient) Recent(ctx context.Context, limit int) ([]models.HistoryItem, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	return c.history(ctx, "recent history", recentPath+"?"+query.Encode(), "failed to load recent history")
}

func (c *AnalysisClient) history(ctx context.Context, operation, path, defaultMessage string) ([]models.HistoryItem, error) {
	body, err := c.do(ctx, operation, http.MethodGet, path, nil, defaultMessage)
	if err != nil {
		return nil, err
	}

	var resp historyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, NewServiceError(operation, http.StatusOK, unreadableResponseMessage, err)
	}

	if !resp.Success || resp.Count == 0 {
		return []models.HistoryItem{}, nil
	}
	return resp.Data, nil
}

// do performs one call with the configured timeout and returns the body of a
// successful response. It is never retried.
func (c *AnalysisClient) do(ctx context.Context, operation, method, path string, payload interface{}, defaultMessage string) ([]byte, error) {
	start := time.Now()
	correlationID := logger.CorrelationIDFromContext(ctx)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		requestBody, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(requestBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	if correlationID != "" {
		httpReq.Header.Set("X-Correlation-ID", correlationID)
	}

	c.logger.WithFields(map[string]interface{}{
		"correlation_id": correlationID,
		"operation":      operation,
		"method":         method,
		"path":           path,
	}).Debug("Calling analysis service")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(ctx, operation, err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(ctx, operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := defaultMessage
		var env envelope
		if json.Unmarshal(responseBody, &env) == nil {
			if env.Error != "" {
				message = env.Error
			} else if env.Message != "" {
				message = env.Message
			}
		}
		c.logger.WithFields(map[string]interface{}{
			"correlation_id": correlationID,
			"operation":      operation,
			"status":         resp.StatusCode,
			"duration_ms":    time.Since(start).Milliseconds(),
		}).Warn("Analysis service returned an error")
		return nil, NewServiceError(operation, resp.StatusCode, message, nil)
	}

	var env envelope
	if err := json.Unmarshal(responseBody, &env); err != nil {
		return nil, NewServiceError(operation, resp.StatusCode, unreadableResponseMessage, err)
	}
	if env.Success != nil && !*env.Success {
		message := env.Error
		if message == "" {
			message = defaultMessage
		}
		return nil, NewServiceError(operation, resp.StatusCode, message, nil)
	}

	c.logger.WithFields(map[string]interface{}{
		"correlation_id": correlationID,
		"operation":      operation,
		"status":         resp.StatusCode,
		"duration_ms":    time.Since(start).Milliseconds(),
	}).Info("Analysis service call completed")

	return responseBody, nil
}

// classifyTransportError separates deadline expiry from connectivity failures
func classifyTransportError(ctx context.Context, operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return NewTimeoutError(operation, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError(operation, err)
	}
	return NewTransportError(operation, err)
}
