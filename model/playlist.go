package model

import "time"

// Playlist is a user playlist. Its song list is derived from PlaylistSong
// links, never stored on the playlist row itself.
type Playlist struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// PlaylistSong is the many-to-many link between tracks and playlists.
// AddedAt establishes display order, most recently added first. Deleting a
// playlist or a track cascades deletion of its links.
type PlaylistSong struct {
	PlaylistID string    `json:"playlistId" gorm:"primaryKey;size:64"`
	TrackID    string    `json:"trackId" gorm:"primaryKey;size:64"`
	AddedAt    time.Time `json:"addedAt"`

	Playlist Playlist `json:"-" gorm:"foreignKey:PlaylistID;constraint:OnDelete:CASCADE"`
	Track    Track    `json:"-" gorm:"foreignKey:TrackID;constraint:OnDelete:CASCADE"`
}

// PlaylistSummary is the shape subscription streams emit for playlist lists.
// Streams are deduplicated by equality of this shape so the UI does not
// recompose on writes that changed nothing visible.
type PlaylistSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SongCount int64  `json:"songCount"`
}
