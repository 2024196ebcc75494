package db

import (
	"fmt"

	"NovaFM/logger"
	"NovaFM/model"

	"gorm.io/gorm"
)

// schemaMigration records the cache store's current schema version.
type schemaMigration struct {
	ID      uint `gorm:"primaryKey"`
	Version int
}

// migrationStep upgrades the schema from From to To. Steps run in order
// inside a transaction each; a fresh database replays all of them.
type migrationStep struct {
	From, To int
	Apply    func(tx *gorm.DB) error
}

// migrations is the ordered schema history. Append only; never edit a
// shipped step.
var migrations = []migrationStep{
	{
		From: 0, To: 1,
		Apply: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&model.Track{}, &model.Playlist{}, &model.PlaylistSong{})
		},
	},
	{
		From: 1, To: 2,
		Apply: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&model.RecentlyPlayed{})
		},
	},
	{
		From: 2, To: 3,
		Apply: func(tx *gorm.DB) error {
			// Recommended flag arrived after the first release; AutoMigrate
			// adds the column on existing databases.
			return tx.AutoMigrate(&model.Track{})
		},
	},
}

// Migrate brings the cache store schema up to date, running each pending
// step in its own transaction.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&schemaMigration{}); err != nil {
		return fmt.Errorf("failed to prepare schema_migrations: %w", err)
	}

	var rec schemaMigration
	if err := gdb.FirstOrCreate(&rec, schemaMigration{ID: 1}).Error; err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, step := range migrations {
		if rec.Version != step.From {
			continue
		}
		err := gdb.Transaction(func(tx *gorm.DB) error {
			if err := step.Apply(tx); err != nil {
				return err
			}
			rec.Version = step.To
			return tx.Save(&rec).Error
		})
		if err != nil {
			return fmt.Errorf("migration %d->%d failed: %w", step.From, step.To, err)
		}
		logger.Info("cache schema migrated", logger.Int("from", step.From), logger.Int("to", step.To))
	}

	if rec.Version != migrations[len(migrations)-1].To {
		return fmt.Errorf("cache schema at unknown version %d", rec.Version)
	}
	return nil
}
