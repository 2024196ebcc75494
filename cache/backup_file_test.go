package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBackupFileMissingIsEmpty(t *testing.T) {
	b := NewBackupFile(filepath.Join(t.TempDir(), "nope.json"))
	entries, err := b.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %v, want empty", entries)
	}
}

func TestBackupFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	b := NewBackupFile(path)

	if err := b.Set("yt_a", true, "/music/a.mp3"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := b.Set("yt_b", false, ""); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// A fresh handle reads what the first one wrote.
	entries, err := NewBackupFile(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if e := entries["yt_a"]; !e.Downloaded || e.Path != "/music/a.mp3" {
		t.Errorf("yt_a = %+v", e)
	}
	if e := entries["yt_b"]; e.Downloaded {
		t.Errorf("yt_b = %+v, want not downloaded", e)
	}
}

func TestBackupFileRemove(t *testing.T) {
	b := NewBackupFile(filepath.Join(t.TempDir(), "backup.json"))

	if err := b.Set("yt_a", true, "/music/a.mp3"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := b.Remove("yt_a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	// Removing an absent entry is a no-op, not an error.
	if err := b.Remove("yt_never"); err != nil {
		t.Fatalf("Remove absent: %v", err)
	}

	entries, err := b.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %v, want empty", entries)
	}
}

func TestBackupFileCorruptContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := NewBackupFile(path).Load(); err == nil {
		t.Fatal("expected parse error for corrupt backup")
	}
}
