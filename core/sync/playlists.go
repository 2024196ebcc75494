package sync

import (
	"context"
	"fmt"
	"path"
	"time"

	"NovaFM/logger"
	"NovaFM/model"

	"github.com/google/uuid"
)

// newPlaylistID mints a playlist id. Time-seeded for rough creation order;
// the random suffix keeps two creations in the same millisecond distinct.
func newPlaylistID() string {
	return fmt.Sprintf("pl_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// CreatePlaylist creates a playlist, idempotent by display name: a
// case-sensitive name match returns the existing id without creating a
// duplicate.
func (e *Engine) CreatePlaylist(ctx context.Context, sess *Session, name string) (string, error) {
	existing, err := e.playlists.GetByName(ctx, name)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.ID, nil
	}

	playlist := model.Playlist{
		ID:        newPlaylistID(),
		Name:      name,
		CreatedAt: time.Now(),
	}
	if err := e.playlists.Create(ctx, &playlist); err != nil {
		return "", err
	}
	e.notifier.notify()

	e.propagate(sess, "create playlist "+playlist.ID, func(ctx context.Context) error {
		return e.remote.SetMerge(ctx, playlistKey(sess.UserID, playlist.ID), map[string]interface{}{
			"id":        playlist.ID,
			"name":      playlist.Name,
			"createdAt": playlist.CreatedAt.UnixMilli(),
		})
	})
	return playlist.ID, nil
}

// DeletePlaylist removes the playlist and its membership links locally,
// then deletes the remote documents.
func (e *Engine) DeletePlaylist(ctx context.Context, sess *Session, playlistID string) error {
	songIDs, err := e.playlists.SongIDs(ctx, playlistID)
	if err != nil {
		return err
	}
	if err := e.playlists.Delete(ctx, playlistID); err != nil {
		return err
	}
	e.notifier.notify()

	e.propagate(sess, "delete playlist "+playlistID, func(ctx context.Context) error {
		for _, sid := range songIDs {
			if err := e.remote.Delete(ctx, membershipKey(sess.UserID, playlistID, sid)); err != nil {
				return err
			}
		}
		return e.remote.Delete(ctx, playlistKey(sess.UserID, playlistID))
	})
	return nil
}

// RenamePlaylist updates the display name locally and remotely.
func (e *Engine) RenamePlaylist(ctx context.Context, sess *Session, playlistID, name string) error {
	if err := e.playlists.Rename(ctx, playlistID, name); err != nil {
		return err
	}
	e.notifier.notify()

	e.propagate(sess, "rename playlist "+playlistID, func(ctx context.Context) error {
		return e.remote.Update(ctx, playlistKey(sess.UserID, playlistID), map[string]interface{}{
			"name": name,
		})
	})
	return nil
}

// AddToPlaylist links a track into a playlist. The caller-supplied payload
// is inserted first when the track is not cached. The link is re-read after
// the write; a failed verification is ErrVerification and aborts
// propagation.
func (e *Engine) AddToPlaylist(ctx context.Context, sess *Session, track model.Track, playlistID string) error {
	if err := e.tracks.Ensure(ctx, &track); err != nil {
		return err
	}

	addedAt := time.Now()
	if err := e.playlists.AddSong(ctx, playlistID, track.ID, addedAt); err != nil {
		return err
	}

	ok, err := e.playlists.HasSong(ctx, playlistID, track.ID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("add %s to %s: %w", track.ID, playlistID, ErrVerification)
	}
	e.notifier.notify()

	e.propagate(sess, "add to playlist "+playlistID, func(ctx context.Context) error {
		if err := e.remote.SetMerge(ctx, songKey(sess.UserID, track.ID), songFields(track, track.Liked)); err != nil {
			return err
		}
		return e.remote.SetMerge(ctx, membershipKey(sess.UserID, playlistID, track.ID), map[string]interface{}{
			"trackId": track.ID,
			"addedAt": addedAt.UnixMilli(),
		})
	})
	return nil
}

// RemoveFromPlaylist unlinks a track from a playlist with the same
// verification contract as AddToPlaylist.
func (e *Engine) RemoveFromPlaylist(ctx context.Context, sess *Session, trackID, playlistID string) error {
	if err := e.playlists.RemoveSong(ctx, playlistID, trackID); err != nil {
		return err
	}

	ok, err := e.playlists.HasSong(ctx, playlistID, trackID)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("remove %s from %s: %w", trackID, playlistID, ErrVerification)
	}
	e.notifier.notify()

	e.propagate(sess, "remove from playlist "+playlistID, func(ctx context.Context) error {
		return e.remote.Delete(ctx, membershipKey(sess.UserID, playlistID, trackID))
	})
	return nil
}

// ReconcilePlaylists runs one reconciliation pass over the user's playlist
// set and each playlist's membership. Local wins nothing and remote wins
// nothing; the pass makes local equal to remote for these relations.
func (e *Engine) ReconcilePlaylists(ctx context.Context, sess *Session) error {
	if sess == nil {
		return nil
	}

	keys, err := e.remote.List(ctx, playlistsPrefix(sess.UserID))
	if err != nil {
		return fmt.Errorf("failed to list remote playlists: %w", err)
	}

	remoteDocs := make(map[string]model.RemotePlaylist, len(keys))
	remoteIDs := make([]string, 0, len(keys))
	for _, key := range keys {
		var doc model.RemotePlaylist
		found, err := e.remote.Get(ctx, key, &doc)
		if err != nil || !found {
			if err != nil {
				logger.Warn("failed to fetch remote playlist", logger.String("key", key), logger.ErrorField(err))
			}
			continue
		}
		if doc.ID == "" {
			doc.ID = path.Base(key)
		}
		remoteDocs[doc.ID] = doc
		remoteIDs = append(remoteIDs, doc.ID)
	}

	local, err := e.playlists.List(ctx)
	if err != nil {
		return err
	}
	localIDs := make([]string, 0, len(local))
	localByID := make(map[string]model.Playlist, len(local))
	for _, p := range local {
		localIDs = append(localIDs, p.ID)
		localByID[p.ID] = p
	}

	d := Reconcile(localIDs, remoteIDs)
	changed := !d.Empty()

	for _, id := range d.ToAdd {
		doc := remoteDocs[id]
		playlist := model.Playlist{
			ID:        doc.ID,
			Name:      doc.Name,
			CreatedAt: time.UnixMilli(doc.CreatedAt),
		}
		if err := e.playlists.Create(ctx, &playlist); err != nil {
			logger.Warn("failed to materialize remote playlist", logger.String("playlist", id), logger.ErrorField(err))
		}
	}
	for _, id := range d.ToRemove {
		if err := e.playlists.Delete(ctx, id); err != nil {
			logger.Warn("failed to drop local playlist", logger.String("playlist", id), logger.ErrorField(err))
		}
	}

	// Ids present on both sides: diff-update the mutable name field.
	for id, doc := range remoteDocs {
		p, ok := localByID[id]
		if !ok || doc.Name == "" || doc.Name == p.Name {
			continue
		}
		if err := e.playlists.Rename(ctx, id, doc.Name); err != nil {
			logger.Warn("failed to sync playlist name", logger.String("playlist", id), logger.ErrorField(err))
			continue
		}
		changed = true
	}

	for _, id := range remoteIDs {
		membershipChanged, err := e.reconcileMembership(ctx, sess, id)
		if err != nil {
			logger.Warn("membership reconciliation failed", logger.String("playlist", id), logger.ErrorField(err))
			continue
		}
		changed = changed || membershipChanged
	}

	if changed {
		e.notifier.notify()
	}
	return nil
}

// ReconcilePlaylistSongs reconciles one playlist's membership.
func (e *Engine) ReconcilePlaylistSongs(ctx context.Context, sess *Session, playlistID string) error {
	if sess == nil {
		return nil
	}
	changed, err := e.reconcileMembership(ctx, sess, playlistID)
	if err != nil {
		return err
	}
	if changed {
		e.notifier.notify()
	}
	return nil
}

// reconcileMembership applies the set-difference pass to one playlist's
// track membership. Dropped links never delete the underlying track row.
func (e *Engine) reconcileMembership(ctx context.Context, sess *Session, playlistID string) (bool, error) {
	keys, err := e.remote.List(ctx, membershipPrefix(sess.UserID, playlistID))
	if err != nil {
		return false, fmt.Errorf("failed to list remote membership: %w", err)
	}

	remoteDocs := make(map[string]model.RemoteMembership, len(keys))
	remoteIDs := make([]string, 0, len(keys))
	for _, key := range keys {
		var doc model.RemoteMembership
		found, err := e.remote.Get(ctx, key, &doc)
		if err != nil || !found {
			if err != nil {
				logger.Warn("failed to fetch remote membership", logger.String("key", key), logger.ErrorField(err))
			}
			continue
		}
		if doc.TrackID == "" {
			doc.TrackID = path.Base(key)
		}
		remoteDocs[doc.TrackID] = doc
		remoteIDs = append(remoteIDs, doc.TrackID)
	}

	localIDs, err := e.playlists.SongIDs(ctx, playlistID)
	if err != nil {
		return false, err
	}

	d := Reconcile(localIDs, remoteIDs)
	if d.Empty() {
		return false, nil
	}

	for _, trackID := range d.ToAdd {
		track := e.fetchRemoteTrack(ctx, sess, trackID)
		if err := e.tracks.Ensure(ctx, &track); err != nil {
			logger.Warn("failed to cache remote track", logger.String("track", trackID), logger.ErrorField(err))
			continue
		}
		addedAt := time.UnixMilli(remoteDocs[trackID].AddedAt)
		if err := e.playlists.AddSong(ctx, playlistID, trackID, addedAt); err != nil {
			logger.Warn("failed to link remote track", logger.String("track", trackID), logger.ErrorField(err))
		}
	}
	for _, trackID := range d.ToRemove {
		if err := e.playlists.RemoveSong(ctx, playlistID, trackID); err != nil {
			logger.Warn("failed to unlink track", logger.String("track", trackID), logger.ErrorField(err))
		}
	}
	return true, nil
}

// fetchRemoteTrack materializes a Track from the user's remote song
// snapshot, falling back to a minimal record when the document is missing.
func (e *Engine) fetchRemoteTrack(ctx context.Context, sess *Session, trackID string) model.Track {
	var doc model.RemoteSong
	found, err := e.remote.Get(ctx, songKey(sess.UserID, trackID), &doc)
	if err != nil {
		logger.Warn("failed to fetch remote song", logger.String("track", trackID), logger.ErrorField(err))
	}
	if !found || doc.ID == "" {
		doc.ID = trackID
	}
	return model.SongToTrack(doc)
}
