package cache

import "context"

// RecentSearchLimit caps the persisted recent-search list.
const RecentSearchLimit = 10

// SettingsStore persists small settings outside the relational cache:
// recent search terms and the downloaded-id set with its id-to-path map.
// The download entries are a recovery cache, not the authoritative source;
// the startup healer reconciles them against the relational store.
type SettingsStore interface {
	AddRecentSearch(ctx context.Context, term string) error
	RemoveRecentSearch(ctx context.Context, term string) error
	RecentSearches(ctx context.Context) ([]string, error)

	MarkDownloaded(ctx context.Context, trackID, path string) error
	UnmarkDownloaded(ctx context.Context, trackID string) error
	IsDownloaded(ctx context.Context, trackID string) (bool, error)
	DownloadedIDs(ctx context.Context) ([]string, error)
	DownloadedPath(ctx context.Context, trackID string) (string, error)
}
