package services

import (
	"context"
	"fmt"
	"time"

	"insight-explorer/internal/logger"
	"insight-explorer/internal/models"

	gocache "github.com/patrickmn/go-cache"
)

// Query bounds for history lookups
const (
	DefaultPopularLimit = 10
	DefaultPopularDays  = 7
	DefaultRecentLimit  = 20
	MaxHistoryLimit     = 100
)

// HistorySource is the part of the analysis service that serves history
type HistorySource interface {
	Popular(ctx context.Context, limit, days int) ([]models.HistoryItem, error)
	Recent(ctx context.Context, limit int) ([]models.HistoryItem, error)
}

// HistoryServiceInterface defines the interface for history lookups
type HistoryServiceInterface interface {
	Popular(ctx context.Context, limit, days int) ([]models.HistoryItem, error)
	Recent(ctx context.Context, limit int) ([]models.HistoryItem, error)
}

// HistoryService caches popular and recent content lists for a short time
type HistoryService struct {
	source HistorySource
	cache  *gocache.Cache
}

// NewHistoryService creates a history service. A non-positive ttl disables caching.
func NewHistoryService(source HistorySource, ttl time.Duration) *HistoryService {
	s := &HistoryService{source: source}
	if ttl > 0 {
		s.cache = gocache.New(ttl, 2*ttl)
	}
	return s
}

// Popular returns the most viewed content of the last days
func (s *HistoryService) Popular(ctx context.Context, limit, days int) ([]models.HistoryItem, error) {
	limit = clampLimit(limit, DefaultPopularLimit)
	if days < 0 {
		days = 0
	}
	key := fmt.Sprintf("popular:%d:%d", limit, days)
	return s.cached(ctx, key, func() ([]models.HistoryItem, error) {
		return s.source.Popular(ctx, limit, days)
	})
}

// Recent returns the most recently analyzed content
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]models.HistoryItem, error) {
	limit = clampLimit(limit, DefaultRecentLimit)
	key := fmt.Sprintf("recent:%d", limit)
	return s.cached(ctx, key, func() ([]models.HistoryItem, error) {
		return s.source.Recent(ctx, limit)
	})
}

func (s *HistoryService) cached(ctx context.Context, key string, load func() ([]models.HistoryItem, error)) ([]models.HistoryItem, error) {
	log := logger.WithCorrelationID(logger.CorrelationIDFromContext(ctx)).WithField("cache_key", key)

	if s.cache != nil {
		if value, found := s.cache.Get(key); found {
			log.Debug("History cache hit")
			return value.([]models.HistoryItem), nil
		}
	}

	items, err := load()
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.HistoryItem{}
	}

	if s.cache != nil {
		s.cache.SetDefault(key, items)
	}
	log.WithField("count", len(items)).Debug("History loaded")
	return items, nil
}

// clampLimit keeps limits within 1..MaxHistoryLimit; zero or negative means default
func clampLimit(limit, defaultLimit int) int {
	switch {
	case limit <= 0:
		return defaultLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}
