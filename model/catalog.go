package model

import (
	"fmt"
	"strings"
)

// Thumbnail is one artwork candidate returned by the catalog.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// TrackMeta is the catalog's search/trending/recommendation result shape.
// It carries metadata only; the playable stream locator is resolved lazily.
type TrackMeta struct {
	ID          string      `json:"videoId"`
	Title       string      `json:"title"`
	Artists     []string    `json:"artists"`
	Album       string      `json:"album"`
	Thumbnails  []Thumbnail `json:"thumbnails"`
	DurationSec int         `json:"durationSeconds"`
}

// Eligible reports whether the track may be surfaced in result sets.
func (m TrackMeta) Eligible() bool {
	ms := int64(m.DurationSec) * 1000
	return ms > 0 && ms <= MaxTrackDurationMs
}

// BestThumbnailURL picks the artwork to show: the largest candidate at least
// 120px wide, else the largest of any size, else the first, else a
// synthesized default keyed by id.
func (m TrackMeta) BestThumbnailURL() string {
	var best, largest *Thumbnail
	for i := range m.Thumbnails {
		t := &m.Thumbnails[i]
		if t.Width >= 120 && (best == nil || t.Width > best.Width) {
			best = t
		}
		if largest == nil || t.Width > largest.Width {
			largest = t
		}
	}
	switch {
	case best != nil:
		return best.URL
	case largest != nil:
		return largest.URL
	case len(m.Thumbnails) > 0:
		return m.Thumbnails[0].URL
	default:
		return fmt.Sprintf("https://img.youtube.com/vi/%s/hqdefault.jpg", strings.TrimPrefix(m.ID, RemoteIDPrefix))
	}
}

// ToTrack converts catalog metadata to a cache Track. The id gains the
// remote-origin prefix if it does not carry one already.
func (m TrackMeta) ToTrack() Track {
	id := m.ID
	if !strings.HasPrefix(id, RemoteIDPrefix) {
		id = RemoteIDPrefix + id
	}
	return Track{
		ID:         id,
		Title:      m.Title,
		Artist:     strings.Join(m.Artists, ", "),
		Album:      m.Album,
		ArtworkURL: m.BestThumbnailURL(),
		DurationMs: int64(m.DurationSec) * 1000,
	}
}
