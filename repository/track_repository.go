package repository

import (
	"context"
	"errors"
	"fmt"

	"NovaFM/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TrackRepository defines track operations against the local cache store.
//
// Flag mutations are targeted column updates. A cached track is never
// replaced wholesale, so liked/downloaded state can not be clobbered by a
// stale remote payload.
type TrackRepository interface {
	Ensure(ctx context.Context, track *model.Track) error
	GetByID(ctx context.Context, id string) (*model.Track, error)
	SetLiked(ctx context.Context, id string, liked bool) error
	SetDownloaded(ctx context.Context, id string, downloaded bool, localPath string) error
	SetRecommended(ctx context.Context, id string, recommended bool) error
	ListAll(ctx context.Context) ([]model.Track, error)
	ListLiked(ctx context.Context) ([]model.Track, error)
	ListDownloaded(ctx context.Context) ([]model.Track, error)
	ListRecommended(ctx context.Context) ([]model.Track, error)
	ListWithLocalFile(ctx context.Context) ([]model.Track, error)
	LikedIDs(ctx context.Context) ([]string, error)
}

type gormTrackRepository struct {
	db *gorm.DB
}

// NewTrackRepository creates a TrackRepository over the given cache store.
func NewTrackRepository(db *gorm.DB) TrackRepository {
	return &gormTrackRepository{db: db}
}

// Ensure inserts the track if it is not cached yet. An existing row is left
// untouched.
func (r *gormTrackRepository) Ensure(ctx context.Context, track *model.Track) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(track).Error
	if err != nil {
		return fmt.Errorf("failed to ensure track %s: %w", track.ID, err)
	}
	return nil
}

// GetByID retrieves a track by id, returning (nil, nil) when absent.
func (r *gormTrackRepository) GetByID(ctx context.Context, id string) (*model.Track, error) {
	var track model.Track
	err := r.db.WithContext(ctx).First(&track, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get track %s: %w", id, err)
	}
	return &track, nil
}

func (r *gormTrackRepository) SetLiked(ctx context.Context, id string, liked bool) error {
	err := r.db.WithContext(ctx).Model(&model.Track{}).
		Where("id = ?", id).
		Update("liked", liked).Error
	if err != nil {
		return fmt.Errorf("failed to set liked=%t on track %s: %w", liked, id, err)
	}
	return nil
}

// SetDownloaded updates the download flag and the local file path together.
// Unmarking always clears the path so the downloaded-implies-path invariant
// holds after the write.
func (r *gormTrackRepository) SetDownloaded(ctx context.Context, id string, downloaded bool, localPath string) error {
	if !downloaded {
		localPath = ""
	}
	err := r.db.WithContext(ctx).Model(&model.Track{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"downloaded": downloaded, "local_file_path": localPath}).Error
	if err != nil {
		return fmt.Errorf("failed to set downloaded=%t on track %s: %w", downloaded, id, err)
	}
	return nil
}

func (r *gormTrackRepository) SetRecommended(ctx context.Context, id string, recommended bool) error {
	err := r.db.WithContext(ctx).Model(&model.Track{}).
		Where("id = ?", id).
		Update("recommended", recommended).Error
	if err != nil {
		return fmt.Errorf("failed to set recommended=%t on track %s: %w", recommended, id, err)
	}
	return nil
}

func (r *gormTrackRepository) ListAll(ctx context.Context) ([]model.Track, error) {
	return r.list(ctx, r.db.WithContext(ctx).Order("created_at DESC"))
}

func (r *gormTrackRepository) ListLiked(ctx context.Context) ([]model.Track, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("liked = ?", true).Order("updated_at DESC"))
}

func (r *gormTrackRepository) ListDownloaded(ctx context.Context) ([]model.Track, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("downloaded = ?", true).Order("updated_at DESC"))
}

func (r *gormTrackRepository) ListRecommended(ctx context.Context) ([]model.Track, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("recommended = ?", true).Order("updated_at DESC"))
}

// ListWithLocalFile returns tracks that carry a local file path regardless of
// their downloaded flag. The startup healer repairs torn writes from it.
func (r *gormTrackRepository) ListWithLocalFile(ctx context.Context) ([]model.Track, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("local_file_path <> ''"))
}

func (r *gormTrackRepository) LikedIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Track{}).
		Where("liked = ?", true).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list liked ids: %w", err)
	}
	return ids, nil
}

func (r *gormTrackRepository) list(ctx context.Context, tx *gorm.DB) ([]model.Track, error) {
	tracks := make([]model.Track, 0)
	if err := tx.Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	return tracks, nil
}
