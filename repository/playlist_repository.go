package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"NovaFM/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlaylistRepository defines playlist and membership-link operations against
// the local cache store.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist *model.Playlist) error
	GetByID(ctx context.Context, id string) (*model.Playlist, error)
	GetByName(ctx context.Context, name string) (*model.Playlist, error)
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.Playlist, error)
	ListSummaries(ctx context.Context) ([]model.PlaylistSummary, error)
	AddSong(ctx context.Context, playlistID, trackID string, addedAt time.Time) error
	RemoveSong(ctx context.Context, playlistID, trackID string) error
	HasSong(ctx context.Context, playlistID, trackID string) (bool, error)
	ListSongs(ctx context.Context, playlistID string) ([]model.Track, error)
	SongIDs(ctx context.Context, playlistID string) ([]string, error)
	SongCount(ctx context.Context, playlistID string) (int64, error)
}

type gormPlaylistRepository struct {
	db *gorm.DB
}

// NewPlaylistRepository creates a PlaylistRepository over the given cache store.
func NewPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &gormPlaylistRepository{db: db}
}

func (r *gormPlaylistRepository) Create(ctx context.Context, playlist *model.Playlist) error {
	if err := r.db.WithContext(ctx).Create(playlist).Error; err != nil {
		return fmt.Errorf("failed to create playlist %s: %w", playlist.ID, err)
	}
	return nil
}

func (r *gormPlaylistRepository) GetByID(ctx context.Context, id string) (*model.Playlist, error) {
	var p model.Playlist
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get playlist %s: %w", id, err)
	}
	return &p, nil
}

// GetByName matches the display name case-sensitively, returning (nil, nil)
// when absent. Creation idempotency keys on this lookup.
func (r *gormPlaylistRepository) GetByName(ctx context.Context, name string) (*model.Playlist, error) {
	var p model.Playlist
	err := r.db.WithContext(ctx).First(&p, "name = ?", name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get playlist by name %q: %w", name, err)
	}
	return &p, nil
}

func (r *gormPlaylistRepository) Rename(ctx context.Context, id, name string) error {
	err := r.db.WithContext(ctx).Model(&model.Playlist{}).
		Where("id = ?", id).
		Update("name", name).Error
	if err != nil {
		return fmt.Errorf("failed to rename playlist %s: %w", id, err)
	}
	return nil
}

// Delete removes the playlist and cascades its membership links.
func (r *gormPlaylistRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", id).Delete(&model.PlaylistSong{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Playlist{}, "id = ?", id).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete playlist %s: %w", id, err)
	}
	return nil
}

func (r *gormPlaylistRepository) List(ctx context.Context) ([]model.Playlist, error) {
	playlists := make([]model.Playlist, 0)
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&playlists).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	return playlists, nil
}

// ListSummaries returns the id/name/song-count shape the subscription
// streams emit.
func (r *gormPlaylistRepository) ListSummaries(ctx context.Context) ([]model.PlaylistSummary, error) {
	summaries := make([]model.PlaylistSummary, 0)
	err := r.db.WithContext(ctx).Model(&model.Playlist{}).
		Select("playlists.id, playlists.name, COUNT(playlist_songs.track_id) AS song_count").
		Joins("LEFT JOIN playlist_songs ON playlist_songs.playlist_id = playlists.id").
		Group("playlists.id").
		Order("playlists.created_at ASC").
		Scan(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list playlist summaries: %w", err)
	}
	return summaries, nil
}

func (r *gormPlaylistRepository) AddSong(ctx context.Context, playlistID, trackID string, addedAt time.Time) error {
	link := model.PlaylistSong{PlaylistID: playlistID, TrackID: trackID, AddedAt: addedAt}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&link).Error
	if err != nil {
		return fmt.Errorf("failed to add track %s to playlist %s: %w", trackID, playlistID, err)
	}
	return nil
}

func (r *gormPlaylistRepository) RemoveSong(ctx context.Context, playlistID, trackID string) error {
	err := r.db.WithContext(ctx).
		Where("playlist_id = ? AND track_id = ?", playlistID, trackID).
		Delete(&model.PlaylistSong{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove track %s from playlist %s: %w", trackID, playlistID, err)
	}
	return nil
}

// HasSong re-reads a membership link; the engine verifies every
// add/remove through it before propagating remotely.
func (r *gormPlaylistRepository) HasSong(ctx context.Context, playlistID, trackID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PlaylistSong{}).
		Where("playlist_id = ? AND track_id = ?", playlistID, trackID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check membership of %s in %s: %w", trackID, playlistID, err)
	}
	return count > 0, nil
}

// ListSongs returns playlist members, most recently added first.
func (r *gormPlaylistRepository) ListSongs(ctx context.Context, playlistID string) ([]model.Track, error) {
	tracks := make([]model.Track, 0)
	err := r.db.WithContext(ctx).Model(&model.Track{}).
		Joins("JOIN playlist_songs ON playlist_songs.track_id = tracks.id").
		Where("playlist_songs.playlist_id = ?", playlistID).
		Order("playlist_songs.added_at DESC").
		Find(&tracks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list songs of playlist %s: %w", playlistID, err)
	}
	return tracks, nil
}

func (r *gormPlaylistRepository) SongIDs(ctx context.Context, playlistID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.PlaylistSong{}).
		Where("playlist_id = ?", playlistID).
		Pluck("track_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list song ids of playlist %s: %w", playlistID, err)
	}
	return ids, nil
}

func (r *gormPlaylistRepository) SongCount(ctx context.Context, playlistID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PlaylistSong{}).
		Where("playlist_id = ?", playlistID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count songs of playlist %s: %w", playlistID, err)
	}
	return count, nil
}
