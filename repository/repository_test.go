package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"NovaFM/db"
	"NovaFM/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "cache.db")),
		&gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func TestEnsureIsIdempotent(t *testing.T) {
	repo := NewTrackRepository(newTestDB(t))
	ctx := context.Background()

	first := model.Track{ID: "yt_a", Title: "Original"}
	if err := repo.Ensure(ctx, &first); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	// A second insert with different metadata must not clobber the row.
	second := model.Track{ID: "yt_a", Title: "Changed"}
	if err := repo.Ensure(ctx, &second); err != nil {
		t.Fatalf("Ensure again: %v", err)
	}

	got, err := repo.GetByID(ctx, "yt_a")
	if err != nil || got == nil {
		t.Fatalf("GetByID: %v, %v", got, err)
	}
	if got.Title != "Original" {
		t.Errorf("title = %q, ensure must keep the first insert", got.Title)
	}
}

func TestGetByIDAbsentIsNilNil(t *testing.T) {
	repo := NewTrackRepository(newTestDB(t))

	got, err := repo.GetByID(context.Background(), "yt_missing")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Errorf("got = %+v, want nil for absent track", got)
	}
}

func TestSetDownloadedClearsPathOnUnmark(t *testing.T) {
	repo := NewTrackRepository(newTestDB(t))
	ctx := context.Background()

	track := model.Track{ID: "yt_a"}
	if err := repo.Ensure(ctx, &track); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if err := repo.SetDownloaded(ctx, "yt_a", true, "/music/a.mp3"); err != nil {
		t.Fatalf("SetDownloaded: %v", err)
	}
	if err := repo.SetDownloaded(ctx, "yt_a", false, "/music/a.mp3"); err != nil {
		t.Fatalf("SetDownloaded off: %v", err)
	}

	got, err := repo.GetByID(ctx, "yt_a")
	if err != nil || got == nil {
		t.Fatalf("GetByID: %v, %v", got, err)
	}
	if got.Downloaded || got.LocalFilePath != "" {
		t.Errorf("track = %+v, unmark must clear the path", got)
	}
}

func TestPlaylistNameLookupIsCaseSensitive(t *testing.T) {
	repo := NewPlaylistRepository(newTestDB(t))
	ctx := context.Background()

	p := model.Playlist{ID: "pl_1", Name: "Road Trip", CreatedAt: time.Now()}
	if err := repo.Create(ctx, &p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByName(ctx, "Road Trip")
	if err != nil || got == nil {
		t.Fatalf("GetByName exact: %v, %v", got, err)
	}

	other, err := repo.GetByName(ctx, "road trip")
	if err != nil {
		t.Fatalf("GetByName lowercase: %v", err)
	}
	if other != nil {
		t.Errorf("lowercase lookup matched %+v, want case-sensitive miss", other)
	}
}

func TestPlaylistMembership(t *testing.T) {
	gdb := newTestDB(t)
	lists := NewPlaylistRepository(gdb)
	tracks := NewTrackRepository(gdb)
	ctx := context.Background()

	p := model.Playlist{ID: "pl_1", Name: "Mix", CreatedAt: time.Now()}
	if err := lists.Create(ctx, &p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, id := range []string{"yt_a", "yt_b"} {
		track := model.Track{ID: id, Title: id}
		if err := tracks.Ensure(ctx, &track); err != nil {
			t.Fatalf("Ensure %s: %v", id, err)
		}
	}

	if err := lists.AddSong(ctx, "pl_1", "yt_a", time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("AddSong: %v", err)
	}
	if err := lists.AddSong(ctx, "pl_1", "yt_b", time.Now()); err != nil {
		t.Fatalf("AddSong: %v", err)
	}
	// Duplicate link is a no-op.
	if err := lists.AddSong(ctx, "pl_1", "yt_a", time.Now()); err != nil {
		t.Fatalf("AddSong duplicate: %v", err)
	}

	count, err := lists.SongCount(ctx, "pl_1")
	if err != nil {
		t.Fatalf("SongCount: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	songs, err := lists.ListSongs(ctx, "pl_1")
	if err != nil {
		t.Fatalf("ListSongs: %v", err)
	}
	if len(songs) != 2 || songs[0].ID != "yt_b" {
		t.Errorf("songs = %v, want newest link first", songs)
	}

	ok, err := lists.HasSong(ctx, "pl_1", "yt_a")
	if err != nil || !ok {
		t.Errorf("HasSong yt_a = %v, %v", ok, err)
	}

	if err := lists.RemoveSong(ctx, "pl_1", "yt_a"); err != nil {
		t.Fatalf("RemoveSong: %v", err)
	}
	ok, err = lists.HasSong(ctx, "pl_1", "yt_a")
	if err != nil || ok {
		t.Errorf("HasSong after remove = %v, %v", ok, err)
	}
}

func TestPlaylistDeleteRemovesLinks(t *testing.T) {
	gdb := newTestDB(t)
	lists := NewPlaylistRepository(gdb)
	tracks := NewTrackRepository(gdb)
	ctx := context.Background()

	p := model.Playlist{ID: "pl_1", Name: "Mix", CreatedAt: time.Now()}
	if err := lists.Create(ctx, &p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	track := model.Track{ID: "yt_a"}
	if err := tracks.Ensure(ctx, &track); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if err := lists.AddSong(ctx, "pl_1", "yt_a", time.Now()); err != nil {
		t.Fatalf("AddSong: %v", err)
	}

	if err := lists.Delete(ctx, "pl_1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	ids, err := lists.SongIDs(ctx, "pl_1")
	if err != nil {
		t.Fatalf("SongIDs: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("links survived playlist delete: %v", ids)
	}
	// The track itself is untouched.
	got, err := tracks.GetByID(ctx, "yt_a")
	if err != nil || got == nil {
		t.Errorf("track deleted with playlist: %v, %v", got, err)
	}
}

func TestListSummariesCountsSongs(t *testing.T) {
	gdb := newTestDB(t)
	lists := NewPlaylistRepository(gdb)
	tracks := NewTrackRepository(gdb)
	ctx := context.Background()

	for _, p := range []model.Playlist{
		{ID: "pl_1", Name: "Full", CreatedAt: time.Now()},
		{ID: "pl_2", Name: "Empty", CreatedAt: time.Now()},
	} {
		playlist := p
		if err := lists.Create(ctx, &playlist); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	track := model.Track{ID: "yt_a"}
	if err := tracks.Ensure(ctx, &track); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if err := lists.AddSong(ctx, "pl_1", "yt_a", time.Now()); err != nil {
		t.Fatalf("AddSong: %v", err)
	}

	summaries, err := lists.ListSummaries(ctx)
	if err != nil {
		t.Fatalf("ListSummaries: %v", err)
	}
	counts := map[string]int64{}
	for _, s := range summaries {
		counts[s.ID] = s.SongCount
	}
	if counts["pl_1"] != 1 || counts["pl_2"] != 0 {
		t.Errorf("counts = %v, want pl_1:1 pl_2:0", counts)
	}
}

func TestRecentlyPlayedReplaceAndCap(t *testing.T) {
	gdb := newTestDB(t)
	recents := NewRecentRepository(gdb)
	tracks := NewTrackRepository(gdb)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < model.RecentlyPlayedLimit+3; i++ {
		id := string(rune('a' + i))
		track := model.Track{ID: id, Title: id}
		if err := tracks.Ensure(ctx, &track); err != nil {
			t.Fatalf("Ensure: %v", err)
		}
		if err := recents.Record(ctx, id, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	// Replaying the oldest surviving track moves it to the front, it does
	// not duplicate the row.
	if err := recents.Record(ctx, "d", time.Now()); err != nil {
		t.Fatalf("Record replay: %v", err)
	}

	recent, err := recents.ListRecent(ctx)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(recent) != model.RecentlyPlayedLimit {
		t.Fatalf("history length = %d, want %d", len(recent), model.RecentlyPlayedLimit)
	}
	if recent[0].ID != "d" {
		t.Errorf("front = %s, want replayed track first", recent[0].ID)
	}
	seen := map[string]int{}
	for _, tr := range recent {
		seen[tr.ID]++
	}
	if seen["d"] != 1 {
		t.Errorf("replayed track appears %d times, want 1", seen["d"])
	}
}
