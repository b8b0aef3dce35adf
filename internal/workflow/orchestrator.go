package workflow

import (
	"context"
	"errors"

	"insight-explorer/internal/clients"
	"insight-explorer/internal/logger"
	"insight-explorer/internal/models"
)

const (
	defaultSearchFailedMessage = "Source search failed. Please try again."
	timeoutMessage             = "The request timed out. Please try again."
	transportMessage           = "Could not reach the analysis service. Check your network connection."
)

// SourceFinder is the part of the analysis service the orchestrator needs
type SourceFinder interface {
	FindSources(ctx context.Context, locator, inputType string, claims []models.ClaimDescriptor) (*clients.SourcesResponse, error)
}

// SearchOutcome is the result of one multi-claim search
type SearchOutcome struct {
	Results  []models.ClaimResult
	Articles []models.Article
}

// Orchestrator submits the final claim list to source search
type Orchestrator struct {
	finder SourceFinder
}

// NewOrchestrator creates a new search orchestrator
func NewOrchestrator(finder SourceFinder) *Orchestrator {
	return &Orchestrator{finder: finder}
}

// Search validates the descriptors and runs a single search for all of them.
// There are no partial results: any failure fails the whole search.
func (o *Orchestrator) Search(ctx context.Context, locator, inputType string, claims []models.ClaimDescriptor) (*SearchOutcome, error) {
	if len(claims) == 0 {
		return nil, ErrNoClaimSelected
	}
	for _, claim := range claims {
		if !claim.HasText() {
			return nil, ErrEmptyClaimText
		}
	}

	resp, err := o.finder.FindSources(ctx, locator, inputType, claims)
	if err != nil {
		logger.LogErrorWithStackAndCorrelation(err, logger.CorrelationIDFromContext(ctx), map[string]interface{}{
			"operation":    "find_sources",
			"claims_count": len(claims),
		})
		return nil, &SearchFailed{Message: UserMessage(err, defaultSearchFailedMessage), Cause: err}
	}

	return &SearchOutcome{
		Results:  resp.Result.Results,
		Articles: resp.Articles,
	}, nil
}

// UserMessage picks the text shown to the user for a failed call
func UserMessage(err error, fallback string) string {
	var searchErr *SearchFailed
	if errors.As(err, &searchErr) && searchErr.Message != "" {
		return searchErr.Message
	}
	switch {
	case clients.IsTimeout(err):
		return timeoutMessage
	case clients.IsTransport(err):
		return transportMessage
	}
	if msg := clients.ServiceMessage(err); msg != "" {
		return msg
	}
	return fallback
}
