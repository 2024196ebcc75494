package repository

import (
	"context"
	"fmt"
	"time"

	"NovaFM/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecentRepository records and surfaces recently played tracks.
type RecentRepository interface {
	Record(ctx context.Context, trackID string, playedAt time.Time) error
	ListRecent(ctx context.Context) ([]model.Track, error)
}

type gormRecentRepository struct {
	db *gorm.DB
}

// NewRecentRepository creates a RecentRepository over the given cache store.
func NewRecentRepository(db *gorm.DB) RecentRepository {
	return &gormRecentRepository{db: db}
}

// Record upserts the play timestamp. One row per track; replaying a track
// moves it to the front instead of duplicating it.
func (r *gormRecentRepository) Record(ctx context.Context, trackID string, playedAt time.Time) error {
	entry := model.RecentlyPlayed{TrackID: trackID, PlayedAt: playedAt}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "track_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"played_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to record play of %s: %w", trackID, err)
	}
	return nil
}

// ListRecent returns up to the surfaced cap of tracks, most recent first.
func (r *gormRecentRepository) ListRecent(ctx context.Context) ([]model.Track, error) {
	tracks := make([]model.Track, 0)
	err := r.db.WithContext(ctx).Model(&model.Track{}).
		Joins("JOIN recently_playeds ON recently_playeds.track_id = tracks.id").
		Order("recently_playeds.played_at DESC").
		Limit(model.RecentlyPlayedLimit).
		Find(&tracks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recently played: %w", err)
	}
	return tracks, nil
}
