package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	recentSearchesKey = "novafm:recent_searches"
	downloadedSetKey  = "novafm:downloaded"
	downloadPathsKey  = "novafm:download_paths"
)

type redisSettingsStore struct {
	client *redis.Client
}

// NewRedisSettingsStore creates a SettingsStore backed by Redis.
func NewRedisSettingsStore(client *redis.Client) SettingsStore {
	return &redisSettingsStore{client: client}
}

// AddRecentSearch prepends the term to the comma-joined recent list,
// dropping an earlier duplicate and trimming to the cap.
func (s *redisSettingsStore) AddRecentSearch(ctx context.Context, term string) error {
	term = strings.TrimSpace(strings.ReplaceAll(term, ",", " "))
	if term == "" {
		return nil
	}

	existing, err := s.RecentSearches(ctx)
	if err != nil {
		return err
	}

	terms := make([]string, 0, len(existing)+1)
	terms = append(terms, term)
	for _, t := range existing {
		if t != term {
			terms = append(terms, t)
		}
	}
	if len(terms) > RecentSearchLimit {
		terms = terms[:RecentSearchLimit]
	}

	if err := s.client.Set(ctx, recentSearchesKey, strings.Join(terms, ","), 0).Err(); err != nil {
		return fmt.Errorf("failed to store recent searches: %w", err)
	}
	return nil
}

func (s *redisSettingsStore) RemoveRecentSearch(ctx context.Context, term string) error {
	existing, err := s.RecentSearches(ctx)
	if err != nil {
		return err
	}

	terms := make([]string, 0, len(existing))
	for _, t := range existing {
		if t != term {
			terms = append(terms, t)
		}
	}

	if err := s.client.Set(ctx, recentSearchesKey, strings.Join(terms, ","), 0).Err(); err != nil {
		return fmt.Errorf("failed to store recent searches: %w", err)
	}
	return nil
}

// RecentSearches returns the list most-recent-first.
func (s *redisSettingsStore) RecentSearches(ctx context.Context) ([]string, error) {
	val, err := s.client.Get(ctx, recentSearchesKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read recent searches: %w", err)
	}
	if val == "" {
		return []string{}, nil
	}
	return strings.Split(val, ","), nil
}

func (s *redisSettingsStore) MarkDownloaded(ctx context.Context, trackID, path string) error {
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, downloadedSetKey, trackID)
	pipe.HSet(ctx, downloadPathsKey, trackID, path)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to mark %s downloaded in settings: %w", trackID, err)
	}
	return nil
}

func (s *redisSettingsStore) UnmarkDownloaded(ctx context.Context, trackID string) error {
	pipe := s.client.TxPipeline()
	pipe.SRem(ctx, downloadedSetKey, trackID)
	pipe.HDel(ctx, downloadPathsKey, trackID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to unmark %s downloaded in settings: %w", trackID, err)
	}
	return nil
}

func (s *redisSettingsStore) IsDownloaded(ctx context.Context, trackID string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, downloadedSetKey, trackID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check downloaded set for %s: %w", trackID, err)
	}
	return ok, nil
}

func (s *redisSettingsStore) DownloadedIDs(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, downloadedSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list downloaded set: %w", err)
	}
	return ids, nil
}

func (s *redisSettingsStore) DownloadedPath(ctx context.Context, trackID string) (string, error) {
	path, err := s.client.HGet(ctx, downloadPathsKey, trackID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read download path for %s: %w", trackID, err)
	}
	return path, nil
}
