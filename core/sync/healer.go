package sync

import (
	"context"

	"NovaFM/cache"
	"NovaFM/logger"
	"NovaFM/repository"
)

// DownloadState is one backing store's claim about a track's download.
type DownloadState struct {
	Downloaded bool
	Path       string
}

// DownloadStateSource exposes one backing store's download records to the
// healer. Returning nil means the source has no record for the track.
type DownloadStateSource interface {
	Name() string
	DownloadState(ctx context.Context, trackID string) (*DownloadState, error)
}

type cacheDownloadSource struct{ tracks repository.TrackRepository }

func (s cacheDownloadSource) Name() string { return "cache" }

func (s cacheDownloadSource) DownloadState(ctx context.Context, trackID string) (*DownloadState, error) {
	track, err := s.tracks.GetByID(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if track == nil {
		return nil, nil
	}
	return &DownloadState{Downloaded: track.Downloaded, Path: track.LocalFilePath}, nil
}

type settingsDownloadSource struct{ settings cache.SettingsStore }

func (s settingsDownloadSource) Name() string { return "settings" }

func (s settingsDownloadSource) DownloadState(ctx context.Context, trackID string) (*DownloadState, error) {
	ok, err := s.settings.IsDownloaded(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	path, err := s.settings.DownloadedPath(ctx, trackID)
	if err != nil {
		return nil, err
	}
	return &DownloadState{Downloaded: true, Path: path}, nil
}

type backupDownloadSource struct{ backup *cache.BackupFile }

func (s backupDownloadSource) Name() string { return "backup" }

func (s backupDownloadSource) DownloadState(ctx context.Context, trackID string) (*DownloadState, error) {
	entries, err := s.backup.Load()
	if err != nil {
		return nil, err
	}
	entry, ok := entries[trackID]
	if !ok {
		return nil, nil
	}
	return &DownloadState{Downloaded: entry.Downloaded, Path: entry.Path}, nil
}

// downloadSources orders the redundant stores authoritative-first: the
// relational cache wins, then the settings store, then the flat-file backup.
func (e *Engine) downloadSources() []DownloadStateSource {
	return []DownloadStateSource{
		cacheDownloadSource{tracks: e.tracks},
		settingsDownloadSource{settings: e.settings},
		backupDownloadSource{backup: e.backup},
	}
}

// resolveDownloadPath merges the sources with a first-non-empty policy.
func (e *Engine) resolveDownloadPath(ctx context.Context, trackID string) string {
	for _, src := range e.downloadSources() {
		state, err := src.DownloadState(ctx, trackID)
		if err != nil {
			logger.Warn("download source unreadable",
				logger.String("source", src.Name()), logger.String("track", trackID), logger.ErrorField(err))
			continue
		}
		if state != nil && state.Path != "" {
			return state.Path
		}
	}
	return ""
}

// Heal repairs download state across the three stores that record it: the
// relational cache (authoritative), the redis settings store, and the legacy
// flat-file backup. It runs before any download-dependent read is served,
// once per process plus on explicit refresh. Each phase is idempotent, and
// the filesystem scan runs last so it sees paths the earlier phases just
// repaired.
func (e *Engine) Heal(ctx context.Context) error {
	if err := e.healRestore(ctx); err != nil {
		return err
	}
	if err := e.healCrossSource(ctx); err != nil {
		return err
	}
	if err := e.healInvalidState(ctx); err != nil {
		return err
	}
	return e.ScanDownloads(ctx)
}

// healRestore re-flags tracks that kept their file path through a torn
// write but lost the downloaded flag.
func (e *Engine) healRestore(ctx context.Context) error {
	tracks, err := e.tracks.ListWithLocalFile(ctx)
	if err != nil {
		return err
	}
	for _, t := range tracks {
		if t.Downloaded {
			continue
		}
		logger.Info("restoring torn download flag", logger.String("track", t.ID))
		if err := e.tracks.SetDownloaded(ctx, t.ID, true, t.LocalFilePath); err != nil {
			logger.Warn("restore failed", logger.String("track", t.ID), logger.ErrorField(err))
			continue
		}
		if err := e.settings.MarkDownloaded(ctx, t.ID, t.LocalFilePath); err != nil {
			logger.Warn("failed to mirror restore into settings store",
				logger.String("track", t.ID), logger.ErrorField(err))
		}
		e.notifier.notify()
	}
	return nil
}

// healCrossSource reconciles the backup file and the settings store against
// the cache. Backup claims repair the cache; settings-store ids unknown to
// the cache are orphans and dropped; settings-store ids the cache knows but
// has unflagged are repaired from the merged path sources.
func (e *Engine) healCrossSource(ctx context.Context) error {
	entries, err := e.backup.Load()
	if err != nil {
		logger.Warn("backup file unreadable, skipping backup repair", logger.ErrorField(err))
		entries = nil
	}
	for id, entry := range entries {
		if !entry.Downloaded {
			continue
		}
		if err := e.repairDownload(ctx, id); err != nil {
			logger.Warn("backup repair failed", logger.String("track", id), logger.ErrorField(err))
		}
	}

	ids, err := e.settings.DownloadedIDs(ctx)
	if err != nil {
		logger.Warn("settings store unreadable, skipping settings repair", logger.ErrorField(err))
		return nil
	}
	for _, id := range ids {
		track, err := e.tracks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if track == nil {
			logger.Info("dropping orphaned settings download entry", logger.String("track", id))
			if err := e.settings.UnmarkDownloaded(ctx, id); err != nil {
				logger.Warn("orphan cleanup failed", logger.String("track", id), logger.ErrorField(err))
			}
			continue
		}
		if track.Downloaded {
			continue
		}
		if err := e.repairDownload(ctx, id); err != nil {
			logger.Warn("settings repair failed", logger.String("track", id), logger.ErrorField(err))
		}
	}
	return nil
}

// repairDownload marks a cached track downloaded using the merged path
// sources. A track with no path in any source cannot be repaired; phase
// three cleans it up if anything flagged it anyway.
func (e *Engine) repairDownload(ctx context.Context, id string) error {
	track, err := e.tracks.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if track == nil || track.Downloaded {
		return nil
	}

	path := e.resolveDownloadPath(ctx, id)
	if path == "" {
		logger.Info("no path source for claimed download", logger.String("track", id))
		return nil
	}

	logger.Info("repairing download flag", logger.String("track", id), logger.String("path", path))
	if err := e.tracks.SetDownloaded(ctx, id, true, path); err != nil {
		return err
	}
	if err := e.settings.MarkDownloaded(ctx, id, path); err != nil {
		logger.Warn("failed to mirror repair into settings store",
			logger.String("track", id), logger.ErrorField(err))
	}
	e.notifier.notify()
	return nil
}

// healInvalidState demotes tracks claiming downloaded=true with no file
// path and purges them from the auxiliary stores.
func (e *Engine) healInvalidState(ctx context.Context) error {
	tracks, err := e.tracks.ListDownloaded(ctx)
	if err != nil {
		return err
	}
	for _, t := range tracks {
		if t.LocalFilePath != "" {
			continue
		}
		logger.Info("demoting pathless download", logger.String("track", t.ID))
		if err := e.demoteDownload(ctx, t.ID); err != nil {
			logger.Warn("demotion failed", logger.String("track", t.ID), logger.ErrorField(err))
		}
	}
	return nil
}

// demoteDownload clears download state in all three stores.
func (e *Engine) demoteDownload(ctx context.Context, id string) error {
	if err := e.tracks.SetDownloaded(ctx, id, false, ""); err != nil {
		return err
	}
	if err := e.settings.UnmarkDownloaded(ctx, id); err != nil {
		logger.Warn("failed to purge settings download entry",
			logger.String("track", id), logger.ErrorField(err))
	}
	if err := e.backup.Remove(id); err != nil {
		logger.Warn("failed to purge backup download entry",
			logger.String("track", id), logger.ErrorField(err))
	}
	e.notifier.notify()
	return nil
}
