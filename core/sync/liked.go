package sync

import (
	"context"
	"fmt"
	"path"

	"NovaFM/logger"
	"NovaFM/model"
)

// ReconcileLiked merges the remote liked-song documents into the local
// liked set. Unlike the relation passes, a remote document encodes both
// liked and explicitly-unliked states, so the merge is asymmetric: missing
// liked songs are added, locally-liked songs absent from the remote liked
// partition are demoted, and an explicit remote unlike always demotes even
// when the document arrived late.
func (e *Engine) ReconcileLiked(ctx context.Context, sess *Session) error {
	if sess == nil {
		return nil
	}

	keys, err := e.remote.List(ctx, songsPrefix(sess.UserID))
	if err != nil {
		return fmt.Errorf("failed to list remote songs: %w", err)
	}

	remoteLiked := make(map[string]model.RemoteSong)
	remoteUnliked := make([]string, 0)
	likedIDs := make([]string, 0, len(keys))
	for _, key := range keys {
		var doc model.RemoteSong
		found, err := e.remote.Get(ctx, key, &doc)
		if err != nil || !found {
			if err != nil {
				logger.Warn("failed to fetch remote song", logger.String("key", key), logger.ErrorField(err))
			}
			continue
		}
		if doc.ID == "" {
			doc.ID = path.Base(key)
		}
		if doc.Liked {
			remoteLiked[doc.ID] = doc
			likedIDs = append(likedIDs, doc.ID)
		} else {
			remoteUnliked = append(remoteUnliked, doc.ID)
		}
	}

	localLiked, err := e.tracks.LikedIDs(ctx)
	if err != nil {
		return err
	}
	localSet := make(map[string]struct{}, len(localLiked))
	for _, id := range localLiked {
		localSet[id] = struct{}{}
	}

	d := Reconcile(localLiked, likedIDs)
	changed := !d.Empty()

	for _, id := range d.ToAdd {
		track := model.SongToTrack(remoteLiked[id])
		if err := e.tracks.Ensure(ctx, &track); err != nil {
			logger.Warn("failed to cache remote liked song", logger.String("track", id), logger.ErrorField(err))
			continue
		}
		// The track may predate this pass with liked=false; force the flag.
		if err := e.tracks.SetLiked(ctx, id, true); err != nil {
			logger.Warn("failed to set liked flag", logger.String("track", id), logger.ErrorField(err))
		}
	}
	for _, id := range d.ToRemove {
		if err := e.tracks.SetLiked(ctx, id, false); err != nil {
			logger.Warn("failed to clear liked flag", logger.String("track", id), logger.ErrorField(err))
		}
	}

	// An explicit unlike document wins even if the song slipped out of both
	// partitions above because of replication lag.
	for _, id := range remoteUnliked {
		if _, ok := localSet[id]; !ok {
			continue
		}
		if err := e.tracks.SetLiked(ctx, id, false); err != nil {
			logger.Warn("failed to clear liked flag", logger.String("track", id), logger.ErrorField(err))
			continue
		}
		changed = true
	}

	if changed {
		e.notifier.notify()
	}
	return nil
}
