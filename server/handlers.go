package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"NovaFM/config"
	sync "NovaFM/core/sync"
	"NovaFM/logger"
	"NovaFM/model"

	"github.com/gorilla/mux"
)

// APIHandler serves the JSON request/response surface over the engine.
type APIHandler struct {
	engine *sync.Engine
	cfg    *config.Config
}

func NewAPIHandler(engine *sync.Engine, cfg *config.Config) *APIHandler {
	return &APIHandler{engine: engine, cfg: cfg}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to encode response", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (h *APIHandler) handleEngineError(w http.ResponseWriter, err error) {
	if errors.Is(err, sync.ErrVerification) {
		writeError(w, http.StatusInternalServerError, "local write could not be verified")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func limitParam(r *http.Request, fallback int) int {
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// LikeSongHandler marks a song liked. The body carries the full track
// payload so a song liked straight from search results can be cached.
func (h *APIHandler) LikeSongHandler(w http.ResponseWriter, r *http.Request) {
	var track model.Track
	if err := json.NewDecoder(r.Body).Decode(&track); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	track.ID = mux.Vars(r)["id"]
	if track.ID == "" {
		writeError(w, http.StatusBadRequest, "track id is required")
		return
	}

	if err := h.engine.Like(r.Context(), SessionFromContext(r.Context()), track); err != nil {
		h.handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "liked"})
}

// UnlikeSongHandler clears the liked flag.
func (h *APIHandler) UnlikeSongHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.engine.Unlike(r.Context(), SessionFromContext(r.Context()), id); err != nil {
		h.handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "unliked"})
}

// MarkDownloadedHandler records a finished download.
func (h *APIHandler) MarkDownloadedHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		model.Track
		LocalPath string `json:"localPath"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Track.ID = mux.Vars(r)["id"]
	if req.LocalPath == "" {
		writeError(w, http.StatusBadRequest, "localPath is required")
		return
	}

	if err := h.engine.MarkDownloaded(r.Context(), req.Track, req.LocalPath); err != nil {
		h.handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "download recorded"})
}

// UnmarkDownloadedHandler clears download state.
func (h *APIHandler) UnmarkDownloadedHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.engine.UnmarkDownloaded(r.Context(), id); err != nil {
		h.handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "download cleared"})
}

// RecordPlayHandler logs a play into the history. Always succeeds from the
// client's point of view.
func (h *APIHandler) RecordPlayHandler(w http.ResponseWriter, r *http.Request) {
	var track model.Track
	if err := json.NewDecoder(r.Body).Decode(&track); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	track.ID = mux.Vars(r)["id"]

	h.engine.RecordPlay(r.Context(), track)
	writeJSON(w, http.StatusOK, map[string]string{"message": "play recorded"})
}

// StreamURLHandler resolves the playable stream locator for a track.
// Locators expire upstream, so they are resolved on demand and never
// persisted.
func (h *APIHandler) StreamURLHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	url, err := h.engine.StreamURL(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// CreatePlaylistHandler creates a playlist, idempotent by name.
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "playlist name is required")
		return
	}

	id, err := h.engine.CreatePlaylist(r.Context(), SessionFromContext(r.Context()), req.Name)
	if err != nil {
		h.handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

// RenamePlaylistHandler updates a playlist's display name.
func (h *APIHandler) RenamePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "playlist name is required")
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.engine.RenamePlaylist(r.Context(), SessionFromContext(r.Context()), id, req.Name); err != nil {
		h.handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "renamed"})
}

// DeletePlaylistHandler removes a playlist and its membership links.
func (h *APIHandler) DeletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.engine.DeletePlaylist(r.Context(), SessionFromContext(r.Context()), id); err != nil {
		h.handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// AddToPlaylistHandler links a song into a playlist.
func (h *APIHandler) AddToPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var track model.Track
	if err := json.NewDecoder(r.Body).Decode(&track); err != nil || track.ID == "" {
		writeError(w, http.StatusBadRequest, "track payload with id is required")
		return
	}

	playlistID := mux.Vars(r)["id"]
	if err := h.engine.AddToPlaylist(r.Context(), SessionFromContext(r.Context()), track, playlistID); err != nil {
		h.handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "added"})
}

// RemoveFromPlaylistHandler unlinks a song from a playlist.
func (h *APIHandler) RemoveFromPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.engine.RemoveFromPlaylist(r.Context(), SessionFromContext(r.Context()), vars["track_id"], vars["id"]); err != nil {
		h.handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "removed"})
}

// SearchHandler proxies a catalog search and records the term in the
// recent-search list. Recording failures never fail the search.
func (h *APIHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	results, err := h.engine.Search(r.Context(), query, limitParam(r, 20))
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if err := h.engine.AddRecentSearch(r.Context(), query); err != nil {
		logger.Warn("failed to record recent search", logger.ErrorField(err))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// TrendingHandler proxies the catalog trending feed.
func (h *APIHandler) TrendingHandler(w http.ResponseWriter, r *http.Request) {
	results, err := h.engine.Trending(r.Context(), limitParam(r, 20))
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// FeaturedHandler proxies the catalog featured feed.
func (h *APIHandler) FeaturedHandler(w http.ResponseWriter, r *http.Request) {
	results, err := h.engine.Featured(r.Context(), limitParam(r, 20))
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// RecentSearchesHandler lists stored search terms, most recent first.
func (h *APIHandler) RecentSearchesHandler(w http.ResponseWriter, r *http.Request) {
	terms, err := h.engine.RecentSearches(r.Context())
	if err != nil {
		h.handleEngineError(w, err)
		return
	}
	if terms == nil {
		terms = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"searches": terms})
}

// AddRecentSearchHandler stores a search term explicitly, for clients that
// record terms independently of running a search.
func (h *APIHandler) AddRecentSearchHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Term string `json:"term"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Term == "" {
		writeError(w, http.StatusBadRequest, "term is required")
		return
	}
	if err := h.engine.AddRecentSearch(r.Context(), req.Term); err != nil {
		h.handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "recorded"})
}

// RemoveRecentSearchHandler drops one stored search term.
func (h *APIHandler) RemoveRecentSearchHandler(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("term")
	if term == "" {
		writeError(w, http.StatusBadRequest, "term is required")
		return
	}
	if err := h.engine.RemoveRecentSearch(r.Context(), term); err != nil {
		h.handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "removed"})
}

// RefreshHandler re-runs the self-heal sequence on user request.
func (h *APIHandler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Heal(r.Context()); err != nil {
		h.handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "refreshed"})
}
