package model

// Remote document shapes stored in the sync backend under
// users/{uid}/... keys. Updates use set-with-merge so concurrent field
// writes from two devices do not wipe each other out.

// RemoteSong is the per-user song snapshot at users/{uid}/songs/{songId}.
// It encodes both liked and explicitly-unliked states; absence of the
// document is not the only unlike signal.
type RemoteSong struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	ArtworkURL string `json:"artworkUrl"`
	DurationMs int64  `json:"durationMs"`
	Liked      bool   `json:"liked"`
}

// RemotePlaylist lives at users/{uid}/playlists/{playlistId}.
type RemotePlaylist struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"` // unix millis
}

// RemoteMembership is the membership marker at
// users/{uid}/playlists/{playlistId}/songs/{songId}.
type RemoteMembership struct {
	TrackID string `json:"trackId"`
	AddedAt int64  `json:"addedAt"` // unix millis
}

// SongToTrack materializes a local Track from a remote song document,
// defaulting any missing field. Flag state is left to the caller.
func SongToTrack(s RemoteSong) Track {
	title := s.Title
	if title == "" {
		title = "Unknown"
	}
	return Track{
		ID:         s.ID,
		Title:      title,
		Artist:     s.Artist,
		Album:      s.Album,
		ArtworkURL: s.ArtworkURL,
		DurationMs: s.DurationMs,
	}
}
