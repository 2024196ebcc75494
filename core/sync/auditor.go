package sync

import (
	"context"
	"os"

	"github.com/fsnotify/fsnotify"

	"NovaFM/logger"
)

// ScanDownloads validates every downloaded-flag claim against the
// filesystem. A missing path, a missing file or a zero-length file demotes
// the track and purges its auxiliary records. This is the only heal phase
// that touches the disk, and it is self-sufficient so the watcher can run
// it standalone.
func (e *Engine) ScanDownloads(ctx context.Context) error {
	tracks, err := e.tracks.ListDownloaded(ctx)
	if err != nil {
		return err
	}
	for _, t := range tracks {
		if t.LocalFilePath != "" {
			info, err := os.Stat(t.LocalFilePath)
			if err == nil && info.Size() > 0 {
				continue
			}
		}
		logger.Info("downloaded file failed integrity check",
			logger.String("track", t.ID), logger.String("path", t.LocalFilePath))
		if err := e.demoteDownload(ctx, t.ID); err != nil {
			logger.Warn("integrity demotion failed", logger.String("track", t.ID), logger.ErrorField(err))
		}
	}
	return nil
}

// WatchDownloads watches the download directory and re-runs the integrity
// scan when files disappear out-of-band, so deletions converge without a
// process restart. Blocks until ctx is cancelled.
func (e *Engine) WatchDownloads(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}
	logger.Info("watching download directory", logger.String("dir", dir))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if err := e.ScanDownloads(ctx); err != nil {
				logger.Warn("integrity scan failed", logger.ErrorField(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("download watcher error", logger.ErrorField(err))
		}
	}
}
