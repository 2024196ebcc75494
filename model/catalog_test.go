package model

import "testing"

func TestEligible(t *testing.T) {
	cases := []struct {
		name     string
		duration int
		want     bool
	}{
		{"normal song", 213, true},
		{"exactly at cap", 900, true},
		{"one second over", 901, false},
		{"zero duration", 0, false},
		{"negative", -1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := TrackMeta{ID: "x", DurationSec: tc.duration}
			if got := m.Eligible(); got != tc.want {
				t.Errorf("Eligible(%ds) = %v, want %v", tc.duration, got, tc.want)
			}
		})
	}
}

func TestBestThumbnailURL(t *testing.T) {
	cases := []struct {
		name   string
		meta   TrackMeta
		want   string
	}{
		{
			name: "largest above threshold wins",
			meta: TrackMeta{Thumbnails: []Thumbnail{
				{URL: "small", Width: 60},
				{URL: "medium", Width: 120},
				{URL: "large", Width: 544},
			}},
			want: "large",
		},
		{
			name: "all below threshold falls back to largest",
			meta: TrackMeta{Thumbnails: []Thumbnail{
				{URL: "tiny", Width: 40},
				{URL: "lessTiny", Width: 80},
			}},
			want: "lessTiny",
		},
		{
			name: "no sizes falls back to first",
			meta: TrackMeta{Thumbnails: []Thumbnail{
				{URL: "first"},
				{URL: "second"},
			}},
			want: "first",
		},
		{
			name: "no thumbnails synthesizes from id",
			meta: TrackMeta{ID: "yt_abc123"},
			want: "https://img.youtube.com/vi/abc123/hqdefault.jpg",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.meta.BestThumbnailURL(); got != tc.want {
				t.Errorf("BestThumbnailURL() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestToTrack(t *testing.T) {
	m := TrackMeta{
		ID:          "abc123",
		Title:       "Song",
		Artists:     []string{"A", "B"},
		Album:       "Album",
		DurationSec: 200,
	}
	track := m.ToTrack()

	if track.ID != "yt_abc123" {
		t.Errorf("id = %q, want remote-origin prefix added", track.ID)
	}
	if track.Artist != "A, B" {
		t.Errorf("artist = %q, want joined names", track.Artist)
	}
	if track.DurationMs != 200000 {
		t.Errorf("durationMs = %d, want seconds converted", track.DurationMs)
	}

	// An already-prefixed id is left alone.
	m.ID = "yt_abc123"
	if got := m.ToTrack().ID; got != "yt_abc123" {
		t.Errorf("id = %q, want unchanged", got)
	}
}

func TestSongToTrackDefaults(t *testing.T) {
	track := SongToTrack(RemoteSong{ID: "yt_a"})
	if track.Title != "Unknown" {
		t.Errorf("title = %q, want Unknown default", track.Title)
	}
	if track.ID != "yt_a" {
		t.Errorf("id = %q", track.ID)
	}
}
