package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"insight-explorer/internal/logger"
	"insight-explorer/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PreferenceServiceInterface defines the interface for client preference operations
type PreferenceServiceInterface interface {
	GetPreference(ctx context.Context, clientID string) (*PreferenceResponse, error)
	SetSkipConfirmation(ctx context.Context, clientID string, skip bool) (*PreferenceResponse, error)
	SkipConfirmation(ctx context.Context, clientID string) (bool, error)
}

type PreferenceService struct {
	db *gorm.DB
}

func NewPreferenceService(db *gorm.DB) *PreferenceService {
	return &PreferenceService{db: db}
}

// PreferenceRequest represents the body of a preference update
type PreferenceRequest struct {
	SkipConfirmation *bool `json:"skipConfirmation" binding:"required"`
}

// PreferenceResponse represents a client's stored preferences
type PreferenceResponse struct {
	ClientID         string `json:"client_id"`
	SkipConfirmation bool   `json:"skip_confirmation"`
}

// SkipConfirmation reports whether the client asked to skip query confirmation.
// A client without a stored preference is asked.
func (s *PreferenceService) SkipConfirmation(ctx context.Context, clientID string) (bool, error) {
	pref, err := s.GetPreference(ctx, clientID)
	if err != nil {
		return false, err
	}
	return pref.SkipConfirmation, nil
}

// GetPreference returns the stored preference or the default when none exists
func (s *PreferenceService) GetPreference(ctx context.Context, clientID string) (*PreferenceResponse, error) {
	clientID = normalizeClientID(clientID)

	var pref models.ClientPreference
	err := s.db.WithContext(ctx).Where("client_id = ?", clientID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &PreferenceResponse{ClientID: clientID}, nil
	}
	if err != nil {
		logger.LogErrorWithStackAndCorrelation(err, logger.CorrelationIDFromContext(ctx), map[string]interface{}{
			"client_id": clientID,
			"operation": "get_preference",
		})
		return nil, fmt.Errorf("failed to load preference: %w", err)
	}

	return &PreferenceResponse{
		ClientID:         pref.ClientID,
		SkipConfirmation: pref.SkipConfirmation,
	}, nil
}

// SetSkipConfirmation stores the toggle, creating the row on first write
func (s *PreferenceService) SetSkipConfirmation(ctx context.Context, clientID string, skip bool) (*PreferenceResponse, error) {
	clientID = normalizeClientID(clientID)
	correlationID := logger.CorrelationIDFromContext(ctx)

	pref := &models.ClientPreference{
		ClientID:         clientID,
		SkipConfirmation: skip,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"skip_confirmation", "updated_at"}),
	}).Create(pref).Error
	if err != nil {
		logger.LogErrorWithStackAndCorrelation(err, correlationID, map[string]interface{}{
			"client_id": clientID,
			"operation": "set_preference",
		})
		return nil, fmt.Errorf("failed to save preference: %w", err)
	}

	logger.WithCorrelationID(correlationID).WithFields(map[string]interface{}{
		"client_id":         clientID,
		"skip_confirmation": skip,
	}).Info("Preference updated")

	return &PreferenceResponse{ClientID: clientID, SkipConfirmation: skip}, nil
}

func normalizeClientID(clientID string) string {
	if clientID = strings.TrimSpace(clientID); clientID == "" {
		return models.DefaultClientID
	}
	return clientID
}
