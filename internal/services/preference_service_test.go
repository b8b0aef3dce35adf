package services

import (
	"context"
	"testing"

	"insight-explorer/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, models.AutoMigrate(db))
	return db
}

func TestPreferenceService_DefaultIsAsk(t *testing.T) {
	service := NewPreferenceService(setupTestDB(t))

	skip, err := service.SkipConfirmation(context.Background(), "client-1")

	require.NoError(t, err)
	assert.False(t, skip)
}

func TestPreferenceService_SetAndGet(t *testing.T) {
	db := setupTestDB(t)
	service := NewPreferenceService(db)
	ctx := context.Background()

	resp, err := service.SetSkipConfirmation(ctx, "client-1", true)
	require.NoError(t, err)
	assert.Equal(t, "client-1", resp.ClientID)
	assert.True(t, resp.SkipConfirmation)

	skip, err := service.SkipConfirmation(ctx, "client-1")
	require.NoError(t, err)
	assert.True(t, skip)

	// other clients are unaffected
	skip, err = service.SkipConfirmation(ctx, "client-2")
	require.NoError(t, err)
	assert.False(t, skip)
}

func TestPreferenceService_UpdateExistingRow(t *testing.T) {
	db := setupTestDB(t)
	service := NewPreferenceService(db)
	ctx := context.Background()

	_, err := service.SetSkipConfirmation(ctx, "client-1", true)
	require.NoError(t, err)
	_, err = service.SetSkipConfirmation(ctx, "client-1", false)
	require.NoError(t, err)

	pref, err := service.GetPreference(ctx, "client-1")
	require.NoError(t, err)
	assert.False(t, pref.SkipConfirmation)

	var count int64
	require.NoError(t, db.Model(&models.ClientPreference{}).Where("client_id = ?", "client-1").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPreferenceService_BlankClientUsesDefault(t *testing.T) {
	service := NewPreferenceService(setupTestDB(t))

	resp, err := service.SetSkipConfirmation(context.Background(), "  ", true)

	require.NoError(t, err)
	assert.Equal(t, models.DefaultClientID, resp.ClientID)

	skip, err := service.SkipConfirmation(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, skip)
}

func TestPreferenceService_DatabaseError(t *testing.T) {
	db := setupTestDB(t)
	service := NewPreferenceService(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = service.SkipConfirmation(context.Background(), "client-1")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load preference")
}
