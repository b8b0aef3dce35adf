package workflow

import (
	"context"
	"encoding/json"

	"insight-explorer/internal/clients"
	"insight-explorer/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Analyze(ctx context.Context, locator, inputType string) (*models.Analysis, error) {
	args := m.Called(ctx, locator, inputType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Analysis), args.Error(1)
}

type MockOptimizerClient struct {
	mock.Mock
}

func (m *MockOptimizerClient) OptimizeQuery(ctx context.Context, req clients.OptimizeRequest) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return json.RawMessage(args.String(0)), args.Error(1)
}

type MockSourceFinder struct {
	mock.Mock
}

func (m *MockSourceFinder) FindSources(ctx context.Context, locator, inputType string, claims []models.ClaimDescriptor) (*clients.SourcesResponse, error) {
	args := m.Called(ctx, locator, inputType, claims)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.SourcesResponse), args.Error(1)
}

type MockPreferences struct {
	mock.Mock
}

func (m *MockPreferences) SkipConfirmation(ctx context.Context, clientID string) (bool, error) {
	args := m.Called(ctx, clientID)
	return args.Bool(0), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishWorkflowEvent(message interface{}) error {
	args := m.Called(message)
	return args.Error(0)
}

// publishedTypes lists the event types handed to the publisher, in order
func (m *MockPublisher) publishedTypes() []string {
	var types []string
	for _, call := range m.Calls {
		if call.Method != "PublishWorkflowEvent" {
			continue
		}
		if event, ok := call.Arguments.Get(0).(WorkflowEvent); ok {
			types = append(types, event.Type)
		}
	}
	return types
}
