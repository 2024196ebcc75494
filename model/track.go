package model

import "time"

// MaxTrackDurationMs is the longest duration a track may have and still be
// surfaced in search, trending and recommendation results. Longer tracks stay
// in storage but are filtered from result sets.
const MaxTrackDurationMs = 900000

// RemoteIDPrefix marks tracks whose id originates from the remote catalog.
// The prefix keeps catalog ids clear of locally authored ones; the same
// prefixed id doubles as the document key in the sync backend.
const RemoteIDPrefix = "yt_"

// Track represents a song in the local cache, local or remote-origin.
//
// Liked, Downloaded and Recommended are independent flags mutated through
// targeted updates only. A whole-row upsert must never clobber them with a
// stale remote payload.
type Track struct {
	ID          string `json:"id" gorm:"primaryKey;size:64"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	ArtworkPath string `json:"artworkPath"` // local artwork file; empty when ArtworkURL is set
	ArtworkURL  string `json:"artworkUrl"`
	DurationMs  int64  `json:"durationMs"`
	// StreamURL is resolved lazily from the catalog at play time and is not
	// persisted at search time.
	StreamURL     string    `json:"streamUrl" gorm:"-"`
	Liked         bool      `json:"liked"`
	Downloaded    bool      `json:"downloaded"`
	Recommended   bool      `json:"recommended"`
	LocalFilePath string    `json:"localFilePath"` // non-empty iff the audio file was downloaded
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// RecentlyPlayed records the last time a track was played. One row per
// track; replaying replaces the timestamp instead of inserting a duplicate.
type RecentlyPlayed struct {
	TrackID  string    `json:"trackId" gorm:"primaryKey;size:64"`
	PlayedAt time.Time `json:"playedAt"`
}

// RecentlyPlayedLimit caps the surfaced recently-played list.
const RecentlyPlayedLimit = 10
