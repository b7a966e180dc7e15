package services

import (
	"context"
	"fmt"
	"log"

	"ideacentral/backend/internal/models"
	"ideacentral/backend/internal/repository"
)

// LeaderboardCache stores ranked results per limit. A miss is (nil, false, nil).
type LeaderboardCache interface {
	Get(ctx context.Context, limit int) ([]models.TopSubmitter, bool, error)
	Set(ctx context.Context, limit int, top []models.TopSubmitter) error
	Invalidate(ctx context.Context) error
}

// LeaderboardService ranks submitters by beans, reading through an optional cache.
type LeaderboardService struct {
	users        *repository.UserRepository
	cache        LeaderboardCache
	defaultLimit int
}

// NewLeaderboardService creates a new leaderboard service. cache may be nil.
func NewLeaderboardService(users *repository.UserRepository, cache LeaderboardCache, defaultLimit int) *LeaderboardService {
	if defaultLimit <= 0 {
		defaultLimit = 5
	}
	return &LeaderboardService{users: users, cache: cache, defaultLimit: defaultLimit}
}

// Top returns up to limit users by beans; a non-positive limit uses the default.
func (s *LeaderboardService) Top(ctx context.Context, limit int) ([]models.TopSubmitter, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}

	if s.cache != nil {
		top, ok, err := s.cache.Get(ctx, limit)
		if err != nil {
			log.Printf("[LeaderboardService] Cache read failed, falling back to store: %v", err)
		} else if ok {
			return top, nil
		}
	}

	top, err := s.users.ListTopByBeans(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("rank users: %w", err)
	}

	if s.cache != nil && len(top) > 0 {
		if err := s.cache.Set(ctx, limit, top); err != nil {
			log.Printf("[LeaderboardService] Cache write failed: %v", err)
		}
	}
	return top, nil
}

// Invalidate drops every cached ranking. Failures are logged; the cache then
// expires on its own TTL.
func (s *LeaderboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Printf("[LeaderboardService] Failed to invalidate cache: %v", err)
	}
}
