package server

import (
	"context"
	"net/http"
	"strconv"
	gosync "sync"

	sync "NovaFM/core/sync"
	"NovaFM/logger"
	"NovaFM/model"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsMessage is one snapshot emission on a subscription socket.
type wsMessage struct {
	Stream string      `json:"stream"`
	Data   interface{} `json:"data"`
}

// SubscribeHandler upgrades to a websocket and streams deduplicated
// snapshots for the requested stream until the client disconnects.
// Streams: songs, liked, downloaded, recommended, playlists,
// playlist_songs, playlist_count, recently_played.
func (h *APIHandler) SubscribeHandler(w http.ResponseWriter, r *http.Request) {
	stream := mux.Vars(r)["stream"]
	sess := SessionFromContext(r.Context())

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var writeMu gosync.Mutex
	send := func(data interface{}) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(wsMessage{Stream: stream, Data: data}); err != nil {
			logger.Warn("websocket write failed", logger.String("stream", stream), logger.ErrorField(err))
			cancel()
		}
	}
	emitTracks := func(tracks []model.Track) { send(tracks) }

	query := r.URL.Query()
	switch stream {
	case "songs":
		h.engine.SubscribeAllSongs(ctx, emitTracks)
	case "liked":
		h.engine.SubscribeLiked(ctx, sess, emitTracks)
	case "downloaded":
		h.engine.SubscribeDownloaded(ctx, emitTracks)
	case "recommended":
		prefs := sync.RecommendPrefs{
			Genres:    query["genre"],
			Languages: query["language"],
			Artists:   query["artist"],
		}
		refresh := query.Get("refresh") == "true"
		h.engine.SubscribeRecommended(ctx, prefs, refresh, emitTracks)
	case "playlists":
		h.engine.SubscribePlaylists(ctx, sess, func(summaries []model.PlaylistSummary) { send(summaries) })
	case "playlist_songs":
		playlistID := query.Get("playlist")
		if playlistID == "" {
			writeMu.Lock()
			conn.WriteJSON(map[string]string{"error": "playlist is required"})
			writeMu.Unlock()
			return
		}
		h.engine.SubscribePlaylistSongs(ctx, sess, playlistID, emitTracks)
	case "playlist_count":
		playlistID := query.Get("playlist")
		if playlistID == "" {
			writeMu.Lock()
			conn.WriteJSON(map[string]string{"error": "playlist is required"})
			writeMu.Unlock()
			return
		}
		h.engine.SubscribePlaylistSongCount(ctx, playlistID, func(count int64) { send(count) })
	case "recently_played":
		h.engine.SubscribeRecentlyPlayed(ctx, emitTracks)
	case "trending":
		limit := 20
		if n, err := strconv.Atoi(query.Get("limit")); err == nil && n > 0 {
			limit = n
		}
		h.engine.SubscribeTrending(ctx, limit, func(metas []model.TrackMeta) { send(metas) })
	default:
		writeMu.Lock()
		conn.WriteJSON(map[string]string{"error": "unknown stream"})
		writeMu.Unlock()
		return
	}

	// Reads only serve to detect the client going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			cancel()
			return
		}
	}
}
