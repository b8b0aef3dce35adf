package handlers

import (
	"context"

	"insight-explorer/internal/models"
	"insight-explorer/internal/services"
	"insight-explorer/internal/workflow"

	"github.com/stretchr/testify/mock"
)

type MockWorkflowController struct {
	mock.Mock
}

func (m *MockWorkflowController) CreateSession(ctx context.Context, clientID, locator, inputType string) (*workflow.Snapshot, error) {
	args := m.Called(ctx, clientID, locator, inputType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.Snapshot), args.Error(1)
}

func (m *MockWorkflowController) Get(clientID, sessionID string) (*workflow.Snapshot, error) {
	args := m.Called(clientID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.Snapshot), args.Error(1)
}

func (m *MockWorkflowController) Analyze(ctx context.Context, clientID, sessionID, locator, inputType string) (*workflow.Snapshot, error) {
	args := m.Called(ctx, clientID, sessionID, locator, inputType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.Snapshot), args.Error(1)
}

func (m *MockWorkflowController) Run(ctx context.Context, clientID, sessionID string, sel workflow.Selection) (*workflow.Snapshot, error) {
	args := m.Called(ctx, clientID, sessionID, sel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.Snapshot), args.Error(1)
}

func (m *MockWorkflowController) Confirm(ctx context.Context, clientID, sessionID string) (*workflow.Snapshot, error) {
	args := m.Called(ctx, clientID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.Snapshot), args.Error(1)
}

type MockPreferenceService struct {
	mock.Mock
}

func (m *MockPreferenceService) GetPreference(ctx context.Context, clientID string) (*services.PreferenceResponse, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PreferenceResponse), args.Error(1)
}

func (m *MockPreferenceService) SetSkipConfirmation(ctx context.Context, clientID string, skip bool) (*services.PreferenceResponse, error) {
	args := m.Called(ctx, clientID, skip)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PreferenceResponse), args.Error(1)
}

func (m *MockPreferenceService) SkipConfirmation(ctx context.Context, clientID string) (bool, error) {
	args := m.Called(ctx, clientID)
	return args.Bool(0), args.Error(1)
}

type MockHistoryService struct {
	mock.Mock
}

func (m *MockHistoryService) Popular(ctx context.Context, limit, days int) ([]models.HistoryItem, error) {
	args := m.Called(ctx, limit, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.HistoryItem), args.Error(1)
}

func (m *MockHistoryService) Recent(ctx context.Context, limit int) ([]models.HistoryItem, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.HistoryItem), args.Error(1)
}
