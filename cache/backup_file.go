package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// BackupEntry mirrors one track's download state in the legacy flat file.
type BackupEntry struct {
	Downloaded bool   `json:"downloaded"`
	Path       string `json:"path"`
}

// BackupFile is the legacy flat preference file mirroring download state.
// It is a last-resort recovery source read only by the startup healer, kept
// deliberately off both the relational store and Redis so it does not share
// their failure modes.
type BackupFile struct {
	mu   sync.Mutex
	path string
}

// NewBackupFile creates a BackupFile at the given path.
func NewBackupFile(path string) *BackupFile {
	return &BackupFile{path: path}
}

// Load reads all entries. A missing file is an empty backup, not an error.
func (b *BackupFile) Load() (map[string]BackupEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.load()
}

// Set records one track's state.
func (b *BackupFile) Set(trackID string, downloaded bool, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries, err := b.load()
	if err != nil {
		return err
	}
	entries[trackID] = BackupEntry{Downloaded: downloaded, Path: path}
	return b.store(entries)
}

// Remove drops one track's entry.
func (b *BackupFile) Remove(trackID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries, err := b.load()
	if err != nil {
		return err
	}
	if _, ok := entries[trackID]; !ok {
		return nil
	}
	delete(entries, trackID)
	return b.store(entries)
}

func (b *BackupFile) load() (map[string]BackupEntry, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]BackupEntry{}, nil
		}
		return nil, fmt.Errorf("failed to read download backup: %w", err)
	}

	entries := map[string]BackupEntry{}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse download backup: %w", err)
	}
	return entries, nil
}

// store writes atomically via a temp file so a crash mid-write cannot tear
// the backup the healer depends on.
func (b *BackupFile) store(entries map[string]BackupEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode download backup: %w", err)
	}

	if dir := filepath.Dir(b.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create backup directory: %w", err)
		}
	}

	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write download backup: %w", err)
	}
	if err := os.Rename(tmp, b.path); err != nil {
		return fmt.Errorf("failed to replace download backup: %w", err)
	}
	return nil
}
