package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"insight-explorer/internal/clients"
	"insight-explorer/internal/logger"
	"insight-explorer/internal/models"
)

// QueryOptimizerClient is the part of the analysis service the optimizer needs
type QueryOptimizerClient interface {
	OptimizeQuery(ctx context.Context, req clients.OptimizeRequest) (json.RawMessage, error)
}

// Optimizer turns a typed claim into a search-ready query
type Optimizer struct {
	client           QueryOptimizerClient
	defaultCountries []string
	maxTitleChars    int
}

// NewOptimizer creates a new query optimizer adapter. defaultCountries is used
// whenever the service returns no target countries.
func NewOptimizer(client QueryOptimizerClient, defaultCountries []string, maxTitleChars int) *Optimizer {
	return &Optimizer{
		client:           client,
		defaultCountries: append([]string(nil), defaultCountries...),
		maxTitleChars:    maxTitleChars,
	}
}

// optimizerPayload is the canonical set of fields the optimizer reports
type optimizerPayload struct {
	IssueType         string   `json:"issueType"`
	SearchKeywords    []string `json:"searchKeywords"`
	TargetCountries   []string `json:"targetCountries"`
	InterpretedIntent string   `json:"interpretedIntent"`
}

// optimizerResponse covers both payload shapes: fields at the top level, or
// nested under "data" as older service versions sent them.
type optimizerResponse struct {
	optimizerPayload
	Data *optimizerPayload `json:"data"`
}

// Optimize calls the optimizer and normalizes its answer. Every failure is
// reported as OptimizationFailed.
func (o *Optimizer) Optimize(ctx context.Context, freeText string, actx models.AnalysisContext) (*models.OptimizedQuery, error) {
	req := clients.OptimizeRequest{
		UserInput: freeText,
		Context: models.AnalysisContext{
			TitleOrSummary: truncateOnWord(actx.TitleOrSummary, o.maxTitleChars),
			ExistingClaims: append([]string{}, actx.ExistingClaims...),
		},
	}

	raw, err := o.client.OptimizeQuery(ctx, req)
	if err != nil {
		return nil, &OptimizationFailed{Cause: err}
	}

	payload, err := normalizeOptimizerResponse(raw)
	if err != nil {
		return nil, &OptimizationFailed{Cause: err}
	}

	query := o.applyFallbacks(payload, freeText)

	logger.WithCorrelationID(logger.CorrelationIDFromContext(ctx)).WithFields(map[string]interface{}{
		"issue_type":       query.IssueType,
		"keywords_count":   len(query.SearchKeywords),
		"target_countries": query.TargetCountries,
	}).Info("Query optimized")

	return query, nil
}

// normalizeOptimizerResponse takes each field from the top level when present
// and from the legacy nested shape otherwise.
func normalizeOptimizerResponse(raw []byte) (optimizerPayload, error) {
	var resp optimizerResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return optimizerPayload{}, fmt.Errorf("decode optimizer response: %w", err)
	}
	payload := resp.optimizerPayload
	if resp.Data == nil {
		return payload, nil
	}
	if payload.IssueType == "" {
		payload.IssueType = resp.Data.IssueType
	}
	if len(payload.SearchKeywords) == 0 {
		payload.SearchKeywords = resp.Data.SearchKeywords
	}
	if len(payload.TargetCountries) == 0 {
		payload.TargetCountries = resp.Data.TargetCountries
	}
	if payload.InterpretedIntent == "" {
		payload.InterpretedIntent = resp.Data.InterpretedIntent
	}
	return payload, nil
}

func (o *Optimizer) applyFallbacks(p optimizerPayload, freeText string) *models.OptimizedQuery {
	query := &models.OptimizedQuery{
		IssueType:         p.IssueType,
		InterpretedIntent: p.InterpretedIntent,
		SearchKeywords:    append([]string{}, p.SearchKeywords...),
		TargetCountries:   append([]string{}, p.TargetCountries...),
	}
	if len(query.TargetCountries) == 0 {
		query.TargetCountries = append([]string{}, o.defaultCountries...)
	}
	if len(query.SearchKeywords) == 0 {
		query.SearchKeywords = []string{freeText}
	}
	if strings.TrimSpace(query.InterpretedIntent) == "" {
		query.InterpretedIntent = freeText
	}
	return query
}

// truncateOnWord shortens s to at most max runes, cutting at the last space
// when there is one.
func truncateOnWord(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)[:max]
	cut := string(runes)
	if i := strings.LastIndexAny(cut, " \t\n"); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}
