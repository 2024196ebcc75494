package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"NovaFM/cache"
	"NovaFM/core/catalog"
	"NovaFM/logger"
	"NovaFM/model"
	"NovaFM/repository"
	"NovaFM/storage"
)

// ErrVerification signals that a local write could not be re-read after it
// was committed. It indicates a cache-layer bug, not a transient condition:
// the operation's local-durability guarantee was not met, so it is fatal to
// the calling operation and never retried.
var ErrVerification = errors.New("local write verification failed")

// Session is an authenticated user identity. A nil *Session means anonymous
// local-only mode: no read or write ever touches the sync backend.
type Session struct {
	UserID   string
	Username string
}

// Engine mediates between the local cache store and the remote sync
// backend. Writes commit locally first and propagate remotely on a
// fire-and-forget basis; reads always serve from the local cache.
type Engine struct {
	tracks    repository.TrackRepository
	playlists repository.PlaylistRepository
	recents   repository.RecentRepository
	settings  cache.SettingsStore
	backup    *cache.BackupFile
	remote    storage.Store
	catalog   *catalog.Client
	tasks     *TaskQueue
	notifier  *notifier
}

// NewEngine wires the reconciliation engine. The task queue is owned by the
// engine and must be released through Close.
func NewEngine(
	tracks repository.TrackRepository,
	playlists repository.PlaylistRepository,
	recents repository.RecentRepository,
	settings cache.SettingsStore,
	backup *cache.BackupFile,
	remote storage.Store,
	catalogClient *catalog.Client,
) *Engine {
	return &Engine{
		tracks:    tracks,
		playlists: playlists,
		recents:   recents,
		settings:  settings,
		backup:    backup,
		remote:    remote,
		catalog:   catalogClient,
		tasks:     NewTaskQueue(4),
		notifier:  newNotifier(),
	}
}

// Close drains in-flight propagation tasks and stops the engine.
func (e *Engine) Close() {
	e.tasks.Close()
}

// DrainTasks waits for all queued propagation tasks to finish.
func (e *Engine) DrainTasks() {
	e.tasks.Drain()
}

// Document keys in the sync backend.

func songKey(uid, trackID string) string {
	return fmt.Sprintf("users/%s/songs/%s", uid, trackID)
}

func songsPrefix(uid string) string {
	return fmt.Sprintf("users/%s/songs/", uid)
}

func playlistKey(uid, playlistID string) string {
	return fmt.Sprintf("users/%s/playlists/%s", uid, playlistID)
}

func playlistsPrefix(uid string) string {
	return fmt.Sprintf("users/%s/playlists/", uid)
}

func membershipKey(uid, playlistID, trackID string) string {
	return fmt.Sprintf("users/%s/playlists/%s/songs/%s", uid, playlistID, trackID)
}

func membershipPrefix(uid, playlistID string) string {
	return fmt.Sprintf("users/%s/playlists/%s/songs/", uid, playlistID)
}

// propagate enqueues a remote write when a session exists. Failures are
// logged inside the queue and swallowed; they never roll back the local
// commit and never block the caller.
func (e *Engine) propagate(sess *Session, name string, fn func(ctx context.Context) error) {
	if sess == nil {
		return
	}
	e.tasks.Submit(name, fn)
}

func songFields(t model.Track, liked bool) map[string]interface{} {
	return map[string]interface{}{
		"id":         t.ID,
		"title":      t.Title,
		"artist":     t.Artist,
		"album":      t.Album,
		"artworkUrl": t.ArtworkURL,
		"durationMs": t.DurationMs,
		"liked":      liked,
	}
}

// Like marks the track liked. The caller-supplied payload is inserted first
// when the track is not cached yet.
func (e *Engine) Like(ctx context.Context, sess *Session, track model.Track) error {
	if err := e.tracks.Ensure(ctx, &track); err != nil {
		return err
	}
	if err := e.tracks.SetLiked(ctx, track.ID, true); err != nil {
		return err
	}
	e.notifier.notify()

	e.propagate(sess, "like "+track.ID, func(ctx context.Context) error {
		return e.remote.SetMerge(ctx, songKey(sess.UserID, track.ID), songFields(track, true))
	})
	return nil
}

// Unlike clears the liked flag. Remotely the song document is kept with
// liked=false rather than deleted, so other devices see an explicit unlike
// instead of an ambiguous absence.
func (e *Engine) Unlike(ctx context.Context, sess *Session, trackID string) error {
	if err := e.tracks.SetLiked(ctx, trackID, false); err != nil {
		return err
	}
	e.notifier.notify()

	e.propagate(sess, "unlike "+trackID, func(ctx context.Context) error {
		return e.remote.SetMerge(ctx, songKey(sess.UserID, trackID), map[string]interface{}{
			"id":    trackID,
			"liked": false,
		})
	})
	return nil
}

// MarkDownloaded records a finished download. Download state is device-local
// by definition and never propagates remotely, but it is mirrored into the
// settings store and the flat-file backup for recovery.
func (e *Engine) MarkDownloaded(ctx context.Context, track model.Track, localPath string) error {
	if err := e.tracks.Ensure(ctx, &track); err != nil {
		return err
	}
	if err := e.tracks.SetDownloaded(ctx, track.ID, true, localPath); err != nil {
		return err
	}
	if err := e.settings.MarkDownloaded(ctx, track.ID, localPath); err != nil {
		logger.Warn("failed to mirror download into settings store",
			logger.String("track", track.ID), logger.ErrorField(err))
	}
	if err := e.backup.Set(track.ID, true, localPath); err != nil {
		logger.Warn("failed to mirror download into backup file",
			logger.String("track", track.ID), logger.ErrorField(err))
	}
	e.notifier.notify()
	return nil
}

// UnmarkDownloaded clears download state everywhere.
func (e *Engine) UnmarkDownloaded(ctx context.Context, trackID string) error {
	if err := e.tracks.SetDownloaded(ctx, trackID, false, ""); err != nil {
		return err
	}
	if err := e.settings.UnmarkDownloaded(ctx, trackID); err != nil {
		logger.Warn("failed to clear download from settings store",
			logger.String("track", trackID), logger.ErrorField(err))
	}
	if err := e.backup.Remove(trackID); err != nil {
		logger.Warn("failed to clear download from backup file",
			logger.String("track", trackID), logger.ErrorField(err))
	}
	e.notifier.notify()
	return nil
}

// RecordPlay logs a play into recently-played. Best effort: playback must
// never fail because history logging failed, so errors are swallowed here.
func (e *Engine) RecordPlay(ctx context.Context, track model.Track) {
	if err := e.tracks.Ensure(ctx, &track); err != nil {
		logger.Warn("failed to cache track for history", logger.String("track", track.ID), logger.ErrorField(err))
		return
	}
	if err := e.recents.Record(ctx, track.ID, time.Now()); err != nil {
		logger.Warn("failed to record play", logger.String("track", track.ID), logger.ErrorField(err))
		return
	}
	e.notifier.notify()
}

// AddRecentSearch stores a search term in the settings store.
func (e *Engine) AddRecentSearch(ctx context.Context, term string) error {
	return e.settings.AddRecentSearch(ctx, term)
}

// RemoveRecentSearch drops a search term from the settings store.
func (e *Engine) RemoveRecentSearch(ctx context.Context, term string) error {
	return e.settings.RemoveRecentSearch(ctx, term)
}

// RecentSearches lists stored search terms, most recent first.
func (e *Engine) RecentSearches(ctx context.Context) ([]string, error) {
	return e.settings.RecentSearches(ctx)
}

// StreamURL resolves a track's playable stream locator via the catalog.
func (e *Engine) StreamURL(ctx context.Context, trackID string) (string, error) {
	return e.catalog.StreamURL(ctx, trackID)
}
