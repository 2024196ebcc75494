package sync

import (
	"context"

	"NovaFM/logger"
	"NovaFM/model"
)

// RecommendPrefs carries the user's taste profile for recommendation
// refreshes.
type RecommendPrefs struct {
	Genres    []string
	Languages []string
	Artists   []string
}

// trackShape is the subscriber-visible projection of a Track. Row
// timestamps are bookkeeping; a write that only bumps them does not count
// as a change for dedup purposes.
type trackShape struct {
	ID            string
	Title         string
	Artist        string
	Album         string
	ArtworkPath   string
	ArtworkURL    string
	DurationMs    int64
	Liked         bool
	Downloaded    bool
	Recommended   bool
	LocalFilePath string
}

func shapeTracks(v interface{}) interface{} {
	tracks := v.([]model.Track)
	shapes := make([]trackShape, len(tracks))
	for i, t := range tracks {
		shapes[i] = trackShape{
			ID:            t.ID,
			Title:         t.Title,
			Artist:        t.Artist,
			Album:         t.Album,
			ArtworkPath:   t.ArtworkPath,
			ArtworkURL:    t.ArtworkURL,
			DurationMs:    t.DurationMs,
			Liked:         t.Liked,
			Downloaded:    t.Downloaded,
			Recommended:   t.Recommended,
			LocalFilePath: t.LocalFilePath,
		}
	}
	return shapes
}

// SubscribeAllSongs streams the full cached track list.
func (e *Engine) SubscribeAllSongs(ctx context.Context, emit func([]model.Track)) {
	e.stream(ctx, func(ctx context.Context) (interface{}, error) {
		return e.tracks.ListAll(ctx)
	}, shapeTracks, func(v interface{}) {
		emit(v.([]model.Track))
	})
}

// SubscribeLiked streams the liked tracks and, when a session exists, kicks
// off one background liked-set reconciliation. The pass never gates the
// stream; its effect arrives as a later emission via the cache.
func (e *Engine) SubscribeLiked(ctx context.Context, sess *Session, emit func([]model.Track)) {
	e.stream(ctx, func(ctx context.Context) (interface{}, error) {
		return e.tracks.ListLiked(ctx)
	}, shapeTracks, func(v interface{}) {
		emit(v.([]model.Track))
	})

	if sess != nil {
		e.tasks.Submit("reconcile liked", func(ctx context.Context) error {
			return e.ReconcileLiked(ctx, sess)
		})
	}
}

// SubscribeDownloaded streams the downloaded tracks.
func (e *Engine) SubscribeDownloaded(ctx context.Context, emit func([]model.Track)) {
	e.stream(ctx, func(ctx context.Context) (interface{}, error) {
		return e.tracks.ListDownloaded(ctx)
	}, shapeTracks, func(v interface{}) {
		emit(v.([]model.Track))
	})
}

// SubscribeRecommended streams the cached recommendation set. When refresh
// is set, a catalog fetch replaces the cached set in the background.
func (e *Engine) SubscribeRecommended(ctx context.Context, prefs RecommendPrefs, refresh bool, emit func([]model.Track)) {
	e.stream(ctx, func(ctx context.Context) (interface{}, error) {
		return e.tracks.ListRecommended(ctx)
	}, shapeTracks, func(v interface{}) {
		emit(v.([]model.Track))
	})

	if refresh {
		e.tasks.Submit("refresh recommendations", func(ctx context.Context) error {
			return e.refreshRecommended(ctx, prefs)
		})
	}
}

// refreshRecommended replaces the cached recommendation flags with a fresh
// catalog fetch.
func (e *Engine) refreshRecommended(ctx context.Context, prefs RecommendPrefs) error {
	metas, err := e.catalog.Recommended(ctx, prefs.Genres, prefs.Languages, prefs.Artists, true)
	if err != nil {
		return err
	}

	old, err := e.tracks.ListRecommended(ctx)
	if err != nil {
		return err
	}
	for _, t := range old {
		if err := e.tracks.SetRecommended(ctx, t.ID, false); err != nil {
			logger.Warn("failed to clear recommendation flag", logger.String("track", t.ID), logger.ErrorField(err))
		}
	}

	for _, meta := range metas {
		track := meta.ToTrack()
		if err := e.tracks.Ensure(ctx, &track); err != nil {
			logger.Warn("failed to cache recommendation", logger.String("track", track.ID), logger.ErrorField(err))
			continue
		}
		if err := e.tracks.SetRecommended(ctx, track.ID, true); err != nil {
			logger.Warn("failed to flag recommendation", logger.String("track", track.ID), logger.ErrorField(err))
		}
	}
	e.notifier.notify()
	return nil
}

// SubscribePlaylists streams playlist summaries. With a session it also
// launches one reconciliation pass and keeps a remote change listener alive
// for the subscription's lifetime, so edits from other devices converge
// without a manual refresh.
func (e *Engine) SubscribePlaylists(ctx context.Context, sess *Session, emit func([]model.PlaylistSummary)) {
	e.stream(ctx, func(ctx context.Context) (interface{}, error) {
		return e.playlists.ListSummaries(ctx)
	}, nil, func(v interface{}) {
		emit(v.([]model.PlaylistSummary))
	})

	if sess == nil {
		return
	}

	e.tasks.Submit("reconcile playlists", func(ctx context.Context) error {
		return e.ReconcilePlaylists(ctx, sess)
	})

	go e.watchRemotePlaylists(ctx, sess)
}

// watchRemotePlaylists re-runs playlist reconciliation whenever the sync
// backend reports a change under the user's playlists prefix.
func (e *Engine) watchRemotePlaylists(ctx context.Context, sess *Session) {
	events, err := e.remote.Listen(ctx, playlistsPrefix(sess.UserID))
	if err != nil {
		logger.Warn("remote playlist listener unavailable", logger.ErrorField(err))
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			e.tasks.Submit("reconcile playlists", func(ctx context.Context) error {
				return e.ReconcilePlaylists(ctx, sess)
			})
		}
	}
}

// SubscribePlaylistSongs streams one playlist's tracks, newest link first.
func (e *Engine) SubscribePlaylistSongs(ctx context.Context, sess *Session, playlistID string, emit func([]model.Track)) {
	e.stream(ctx, func(ctx context.Context) (interface{}, error) {
		return e.playlists.ListSongs(ctx, playlistID)
	}, shapeTracks, func(v interface{}) {
		emit(v.([]model.Track))
	})

	if sess != nil {
		e.tasks.Submit("reconcile playlist "+playlistID, func(ctx context.Context) error {
			return e.ReconcilePlaylistSongs(ctx, sess, playlistID)
		})
	}
}

// SubscribeRecentlyPlayed streams the capped play history.
func (e *Engine) SubscribeRecentlyPlayed(ctx context.Context, emit func([]model.Track)) {
	e.stream(ctx, func(ctx context.Context) (interface{}, error) {
		return e.recents.ListRecent(ctx)
	}, shapeTracks, func(v interface{}) {
		emit(v.([]model.Track))
	})
}

// SubscribePlaylistSongCount streams one playlist's member count.
func (e *Engine) SubscribePlaylistSongCount(ctx context.Context, playlistID string, emit func(int64)) {
	e.stream(ctx, func(ctx context.Context) (interface{}, error) {
		return e.playlists.SongCount(ctx, playlistID)
	}, nil, func(v interface{}) {
		emit(v.(int64))
	})
}

// prefetchLimit bounds how many result ids are sent for backend cache
// warming after a search.
const prefetchLimit = 5

// Search queries the catalog. Results are not cached; a track enters the
// local cache only when the user acts on it. The top result ids are handed
// to the backend for cache warming in the background.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]model.TrackMeta, error) {
	metas, err := e.catalog.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	n := len(metas)
	if n > prefetchLimit {
		n = prefetchLimit
	}
	if n > 0 {
		ids := make([]string, 0, n)
		for _, m := range metas[:n] {
			ids = append(ids, m.ID)
		}
		e.tasks.Submit("prefetch search results", func(ctx context.Context) error {
			return e.catalog.Prefetch(ctx, ids)
		})
	}
	return metas, nil
}

// Trending proxies the catalog trending feed.
func (e *Engine) Trending(ctx context.Context, limit int) ([]model.TrackMeta, error) {
	return e.catalog.Trending(ctx, limit)
}

// SubscribeTrending emits one trending snapshot. Trending is not backed by
// the local cache, so the stream carries a single emission; callers
// resubscribe to refresh.
func (e *Engine) SubscribeTrending(ctx context.Context, limit int, emit func([]model.TrackMeta)) {
	go func() {
		metas, err := e.catalog.Trending(ctx, limit)
		if err != nil {
			logger.Warn("trending fetch failed", logger.ErrorField(err))
			return
		}
		select {
		case <-ctx.Done():
		default:
			emit(metas)
		}
	}()
}

// Featured proxies the catalog featured-playlists feed.
func (e *Engine) Featured(ctx context.Context, limit int) ([]model.TrackMeta, error) {
	return e.catalog.Featured(ctx, limit)
}
