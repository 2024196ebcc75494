package sync

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestHealRestoresTornWrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dir := t.TempDir()
	path := writeTestFile(t, dir, "a.mp3", "audio")

	// A crash left the path set but the flag unset.
	track := testTrack("yt_a")
	track.LocalFilePath = path
	if err := env.tracks.Ensure(ctx, &track); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	if err := env.engine.Heal(ctx); err != nil {
		t.Fatalf("Heal: %v", err)
	}

	got, err := env.tracks.GetByID(ctx, "yt_a")
	if err != nil || got == nil {
		t.Fatalf("GetByID: %v, %v", got, err)
	}
	if !got.Downloaded {
		t.Error("torn write not restored")
	}
	if p, _ := env.settings.DownloadedPath(ctx, "yt_a"); p != path {
		t.Errorf("settings mirror = %q, want %q", p, path)
	}
}

func TestHealRepairsFromBackupClaim(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dir := t.TempDir()
	path := writeTestFile(t, dir, "b.mp3", "audio")

	track := testTrack("yt_b")
	if err := env.tracks.Ensure(ctx, &track); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if err := env.backup.Set("yt_b", true, path); err != nil {
		t.Fatalf("backup set: %v", err)
	}

	if err := env.engine.Heal(ctx); err != nil {
		t.Fatalf("Heal: %v", err)
	}

	got, err := env.tracks.GetByID(ctx, "yt_b")
	if err != nil || got == nil {
		t.Fatalf("GetByID: %v, %v", got, err)
	}
	if !got.Downloaded || got.LocalFilePath != path {
		t.Errorf("track = %+v, want repaired from backup claim", got)
	}
}

func TestHealDropsSettingsOrphans(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Settings store knows a track the cache has never seen.
	if err := env.settings.MarkDownloaded(ctx, "yt_ghost", "/music/ghost.mp3"); err != nil {
		t.Fatalf("MarkDownloaded: %v", err)
	}

	if err := env.engine.Heal(ctx); err != nil {
		t.Fatalf("Heal: %v", err)
	}

	if ok, _ := env.settings.IsDownloaded(ctx, "yt_ghost"); ok {
		t.Error("orphaned settings entry not dropped")
	}
}

func TestHealDemotesPathlessDownloads(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	track := testTrack("yt_bad")
	if err := env.tracks.Ensure(ctx, &track); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	// Downloaded with no path violates the invariant.
	if err := env.tracks.SetDownloaded(ctx, "yt_bad", true, ""); err != nil {
		t.Fatalf("SetDownloaded: %v", err)
	}
	if err := env.settings.MarkDownloaded(ctx, "yt_bad", ""); err != nil {
		t.Fatalf("MarkDownloaded: %v", err)
	}

	if err := env.engine.Heal(ctx); err != nil {
		t.Fatalf("Heal: %v", err)
	}

	got, err := env.tracks.GetByID(ctx, "yt_bad")
	if err != nil || got == nil {
		t.Fatalf("GetByID: %v, %v", got, err)
	}
	if got.Downloaded {
		t.Error("pathless download not demoted")
	}
	if ok, _ := env.settings.IsDownloaded(ctx, "yt_bad"); ok {
		t.Error("auxiliary record not purged")
	}
}

func TestScanDemotesMissingAndEmptyFiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dir := t.TempDir()

	good := writeTestFile(t, dir, "good.mp3", "audio")
	empty := writeTestFile(t, dir, "empty.mp3", "")

	if err := env.engine.MarkDownloaded(ctx, testTrack("yt_good"), good); err != nil {
		t.Fatalf("MarkDownloaded: %v", err)
	}
	if err := env.engine.MarkDownloaded(ctx, testTrack("yt_empty"), empty); err != nil {
		t.Fatalf("MarkDownloaded: %v", err)
	}
	if err := env.engine.MarkDownloaded(ctx, testTrack("yt_missing"), filepath.Join(dir, "never.mp3")); err != nil {
		t.Fatalf("MarkDownloaded: %v", err)
	}

	if err := env.engine.ScanDownloads(ctx); err != nil {
		t.Fatalf("ScanDownloads: %v", err)
	}

	cases := map[string]bool{"yt_good": true, "yt_empty": false, "yt_missing": false}
	for id, wantDownloaded := range cases {
		got, err := env.tracks.GetByID(ctx, id)
		if err != nil || got == nil {
			t.Fatalf("GetByID %s: %v, %v", id, got, err)
		}
		if got.Downloaded != wantDownloaded {
			t.Errorf("%s downloaded = %v, want %v", id, got.Downloaded, wantDownloaded)
		}
	}

	entries, err := env.backup.Load()
	if err != nil {
		t.Fatalf("backup load: %v", err)
	}
	if _, ok := entries["yt_missing"]; ok {
		t.Error("backup entry for missing file not purged")
	}
	if _, ok := entries["yt_good"]; !ok {
		t.Error("backup entry for intact file must survive")
	}
}

func TestScanDownloadsDemotesPathlessRows(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	track := testTrack("yt_a")
	if err := env.tracks.Ensure(ctx, &track); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if err := env.tracks.SetDownloaded(ctx, "yt_a", true, ""); err != nil {
		t.Fatalf("SetDownloaded: %v", err)
	}

	// The standalone scan (as the watcher runs it) must handle pathless
	// rows itself, without the preceding heal phases.
	if err := env.engine.ScanDownloads(ctx); err != nil {
		t.Fatalf("ScanDownloads: %v", err)
	}

	got, err := env.tracks.GetByID(ctx, "yt_a")
	if err != nil || got == nil {
		t.Fatalf("GetByID: %v, %v", got, err)
	}
	if got.Downloaded {
		t.Error("pathless downloaded row survived the scan")
	}
}

func TestHealIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dir := t.TempDir()
	path := writeTestFile(t, dir, "a.mp3", "audio")

	if err := env.engine.MarkDownloaded(ctx, testTrack("yt_a"), path); err != nil {
		t.Fatalf("MarkDownloaded: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := env.engine.Heal(ctx); err != nil {
			t.Fatalf("Heal pass %d: %v", i, err)
		}
	}

	got, err := env.tracks.GetByID(ctx, "yt_a")
	if err != nil || got == nil {
		t.Fatalf("GetByID: %v, %v", got, err)
	}
	if !got.Downloaded || got.LocalFilePath != path {
		t.Errorf("repeated heals corrupted state: %+v", got)
	}
}
